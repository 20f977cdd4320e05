package store

import (
	"context"
	"fmt"
	"time"
)

// BulkStatusUpdate applies a status and/or renewal status change to a set of
// members. At least one of Status/RenewalStatus must be set; the web layer
// validates both against the enum name sets.
type BulkStatusUpdate struct {
	MemberIDs     []int
	Status        *string
	RenewalStatus *string
}

// BulkUpdateMembershipStatus updates each listed member's latest membership
// and returns the number of memberships changed. Members without a membership
// are skipped.
func (s *Store) BulkUpdateMembershipStatus(ctx context.Context, u BulkStatusUpdate) (int, error) {
	if len(u.MemberIDs) == 0 {
		return 0, nil
	}

	// Latest membership per requested member; a membership shared by several
	// requested members updates once.
	tag, err := s.pool.Exec(ctx, `
		WITH latest AS (
			SELECT DISTINCT ON (mm.member_id) mm.member_id, ms.id AS membership_id
			FROM membership_members mm
			JOIN memberships ms ON ms.id = mm.membership_id
			WHERE mm.member_id = ANY($1)
			ORDER BY mm.member_id, ms.start_date DESC, ms.id DESC
		)
		UPDATE memberships SET
			status = COALESCE($2, status),
			renewal_status = COALESCE($3, renewal_status),
			updated_at = $4
		WHERE id IN (SELECT DISTINCT membership_id FROM latest)`,
		u.MemberIDs, toPgText(u.Status), toPgText(u.RenewalStatus), time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("bulk status update: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
