package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"memberdb/internal/domain"
)

// LinkedMember is a member attached to a membership, as shown in membership
// detail payloads.
type LinkedMember struct {
	MemberID  int                   `json:"memberId"`
	Role      domain.MembershipRole `json:"role"`
	FirstName string                `json:"firstName"`
	Surname   string                `json:"surname"`
}

// MembershipDetail is a membership with its linked members.
type MembershipDetail struct {
	domain.Membership
	Members []LinkedMember `json:"members"`
}

// GetMembership returns one membership with its linked members.
func (s *Store) GetMembership(ctx context.Context, id int) (*MembershipDetail, error) {
	var d MembershipDetail
	var endDate, lastPaid pgtype.Date
	var startDate pgtype.Date

	err := s.pool.QueryRow(ctx, `
		SELECT id, membership_type, pay_type, status, rights, category, renewal_status,
			start_date, end_date, date_last_paid, created_at, updated_at
		FROM memberships WHERE id = $1`, id).Scan(
		&d.ID, &d.Type, &d.PayType, &d.Status, &d.Rights, &d.Category, &d.RenewalStatus,
		&startDate, &endDate, &lastPaid, &d.CreatedAt, &d.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get membership: %w", err)
	}
	d.StartDate = startDate.Time.UTC()
	d.EndDate = fromPgDate(endDate)
	d.DateLastPaid = fromPgDate(lastPaid)

	members, err := s.membershipMembers(ctx, id)
	if err != nil {
		return nil, err
	}
	d.Members = members
	return &d, nil
}

// MembershipsForMember returns all memberships linked to a member, most
// recent first.
func (s *Store) MembershipsForMember(ctx context.Context, memberID int) ([]MembershipDetail, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT ms.id
		FROM membership_members mm
		JOIN memberships ms ON ms.id = mm.membership_id
		WHERE mm.member_id = $1
		ORDER BY ms.start_date DESC, ms.id DESC`, memberID)
	if err != nil {
		return nil, fmt.Errorf("memberships for member: %w", err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("memberships for member: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("memberships for member: %w", err)
	}

	details := []MembershipDetail{}
	for _, id := range ids {
		d, err := s.GetMembership(ctx, id)
		if err != nil {
			return nil, err
		}
		details = append(details, *d)
	}
	return details, nil
}

// CreateMembership inserts a membership and links the given members. A link
// with no role defaults to Primary.
func (s *Store) CreateMembership(ctx context.Context, ms *domain.Membership, links []domain.MembershipMember) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("create membership: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO memberships (membership_type, pay_type, status, rights, category,
			renewal_status, start_date, end_date, date_last_paid, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`,
		string(ms.Type), string(ms.PayType), string(ms.Status), string(ms.Rights),
		string(ms.Category), string(ms.RenewalStatus),
		ms.StartDate, toPgDate(ms.EndDate), toPgDate(ms.DateLastPaid),
		ms.CreatedAt, ms.UpdatedAt).Scan(&ms.ID)
	if err != nil {
		return fmt.Errorf("create membership: %w", err)
	}

	if err := insertLinks(ctx, tx, ms.ID, links); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// UpdateMembership rewrites a membership and replaces its member links.
func (s *Store) UpdateMembership(ctx context.Context, ms *domain.Membership, links []domain.MembershipMember) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("update membership: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE memberships SET membership_type = $2, pay_type = $3, status = $4,
			rights = $5, category = $6, renewal_status = $7, start_date = $8,
			end_date = $9, date_last_paid = $10, updated_at = $11
		WHERE id = $1`,
		ms.ID, string(ms.Type), string(ms.PayType), string(ms.Status), string(ms.Rights),
		string(ms.Category), string(ms.RenewalStatus),
		ms.StartDate, toPgDate(ms.EndDate), toPgDate(ms.DateLastPaid), ms.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update membership: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	_, err = tx.Exec(ctx, `DELETE FROM membership_members WHERE membership_id = $1`, ms.ID)
	if err != nil {
		return fmt.Errorf("replace membership links: %w", err)
	}
	if err := insertLinks(ctx, tx, ms.ID, links); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// DeleteMembership removes a membership and its links.
func (s *Store) DeleteMembership(ctx context.Context, id int) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("delete membership: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `DELETE FROM membership_members WHERE membership_id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete membership links: %w", err)
	}
	tag, err := tx.Exec(ctx, `DELETE FROM memberships WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete membership: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return tx.Commit(ctx)
}

func insertLinks(ctx context.Context, tx pgx.Tx, membershipID int, links []domain.MembershipMember) error {
	for _, l := range links {
		role := l.Role
		if role == "" {
			role = domain.RolePrimary
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO membership_members (membership_id, member_id, role)
			VALUES ($1, $2, $3)`, membershipID, l.MemberID, string(role))
		if err != nil {
			return fmt.Errorf("link member %d: %w", l.MemberID, err)
		}
	}
	return nil
}

func (s *Store) membershipMembers(ctx context.Context, membershipID int) ([]LinkedMember, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT mm.member_id, mm.role, m.first_name, m.surname
		FROM membership_members mm
		JOIN members m ON m.id = mm.member_id
		WHERE mm.membership_id = $1
		ORDER BY mm.role, m.id`, membershipID)
	if err != nil {
		return nil, fmt.Errorf("membership members: %w", err)
	}
	defer rows.Close()

	members := []LinkedMember{}
	for rows.Next() {
		var lm LinkedMember
		if err := rows.Scan(&lm.MemberID, &lm.Role, &lm.FirstName, &lm.Surname); err != nil {
			return nil, fmt.Errorf("membership members: %w", err)
		}
		members = append(members, lm)
	}
	return members, rows.Err()
}
