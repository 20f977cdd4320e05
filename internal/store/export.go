package store

import (
	"context"
	"fmt"
)

// ExportMembers returns all members matching the filter with their latest
// memberships, unpaginated, in listing order. Page and PageSize on the filter
// are ignored.
func (s *Store) ExportMembers(ctx context.Context, f MemberFilter) ([]MemberWithMembership, error) {
	where, args := buildMemberFilter(f)

	query := `SELECT ` + memberColumns + `, ` + membershipColumns + `
		FROM members m` + latestMembershipJoin + where + `
		ORDER BY lower(m.surname), lower(m.first_name), m.id`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("export members: %w", err)
	}
	defer rows.Close()

	items := []MemberWithMembership{}
	for rows.Next() {
		item, err := scanMemberWithMembership(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("export members: %w", err)
	}
	return items, nil
}
