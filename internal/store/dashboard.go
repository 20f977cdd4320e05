package store

import (
	"context"
	"fmt"

	"memberdb/internal/domain"
)

// Dashboard summarizes the membership base. All counts are computed over each
// member's latest membership.
type Dashboard struct {
	TotalMembers    int            `json:"totalMembers"`
	ActiveMembers   int            `json:"activeMembers"`
	RenewalsDue     int            `json:"renewalsDue"`
	ByCategory      map[string]int `json:"byCategory"`
	ByRenewalStatus map[string]int `json:"byRenewalStatus"`
}

// GetDashboard computes membership totals. RenewalsDue counts latest
// memberships whose renewal status is ToRenew or Overdue.
func (s *Store) GetDashboard(ctx context.Context) (*Dashboard, error) {
	d := &Dashboard{
		ByCategory:      map[string]int{},
		ByRenewalStatus: map[string]int{},
	}

	err := s.pool.QueryRow(ctx, `
		SELECT count(*),
			count(*) FILTER (WHERE ms.status = $1),
			count(*) FILTER (WHERE ms.renewal_status IN ($2, $3))
		FROM members m`+latestMembershipJoin,
		string(domain.StatusActive),
		string(domain.RenewalToRenew), string(domain.RenewalOverdue)).
		Scan(&d.TotalMembers, &d.ActiveMembers, &d.RenewalsDue)
	if err != nil {
		return nil, fmt.Errorf("dashboard totals: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT ms.category, count(*)
		FROM members m`+latestMembershipJoin+`
		WHERE ms.id IS NOT NULL
		GROUP BY ms.category`)
	if err != nil {
		return nil, fmt.Errorf("dashboard categories: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var category string
		var n int
		if err := rows.Scan(&category, &n); err != nil {
			return nil, fmt.Errorf("dashboard categories: %w", err)
		}
		d.ByCategory[category] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("dashboard categories: %w", err)
	}

	rows, err = s.pool.Query(ctx, `
		SELECT ms.renewal_status, count(*)
		FROM members m`+latestMembershipJoin+`
		WHERE ms.id IS NOT NULL
		GROUP BY ms.renewal_status`)
	if err != nil {
		return nil, fmt.Errorf("dashboard renewal statuses: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("dashboard renewal statuses: %w", err)
		}
		d.ByRenewalStatus[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("dashboard renewal statuses: %w", err)
	}

	return d, nil
}
