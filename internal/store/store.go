// Package store is the PostgreSQL persistence layer. All SQL lives here;
// callers work with domain types. Nullable columns go through pgtype so
// empty optional fields persist as NULL rather than empty strings.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"memberdb/internal/domain"
)

// Store wraps a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store backed by the given pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Ping verifies database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// ExistingDonmanIDs returns the set of DONMAN identifiers already persisted.
func (s *Store) ExistingDonmanIDs(ctx context.Context) (map[int]struct{}, error) {
	rows, err := s.pool.Query(ctx, `SELECT donman_id FROM members WHERE donman_id IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("query donman ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[int]struct{})
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan donman id: %w", err)
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

// CreateMembers inserts members in one round trip and assigns the generated
// IDs back onto the passed records. The unique index on donman_id makes the
// database the final authority on identifier uniqueness.
func (s *Store) CreateMembers(ctx context.Context, members []*domain.Member) error {
	if len(members) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, m := range members {
		batch.Queue(insertMemberSQL+` RETURNING id`, memberArgs(m)...)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	for _, m := range members {
		if err := results.QueryRow().Scan(&m.ID); err != nil {
			return fmt.Errorf("insert member (donman %v): %w", m.DonmanID, err)
		}
	}
	return results.Close()
}

// CreateMemberships inserts memberships in one round trip, assigning IDs in
// place. Enum fields persist by canonical name.
func (s *Store) CreateMemberships(ctx context.Context, memberships []*domain.Membership) error {
	if len(memberships) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, ms := range memberships {
		batch.Queue(`
			INSERT INTO memberships (pay_type, status, membership_type, rights, category,
				renewal_status, start_date, end_date, date_last_paid, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			RETURNING id`,
			string(ms.PayType), string(ms.Status), string(ms.Type), string(ms.Rights),
			string(ms.Category), string(ms.RenewalStatus),
			ms.StartDate, toPgDate(ms.EndDate), toPgDate(ms.DateLastPaid),
			ms.CreatedAt, ms.UpdatedAt)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	for _, ms := range memberships {
		if err := results.QueryRow().Scan(&ms.ID); err != nil {
			return fmt.Errorf("insert membership: %w", err)
		}
	}
	return results.Close()
}

// LinkMembers writes membership-member links. Both sides must already have
// storage IDs assigned.
func (s *Store) LinkMembers(ctx context.Context, links []domain.MembershipMember) error {
	if len(links) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, l := range links {
		batch.Queue(`
			INSERT INTO membership_members (membership_id, member_id, role)
			VALUES ($1, $2, $3)`,
			l.MembershipID, l.MemberID, string(l.Role))
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range links {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("link member: %w", err)
		}
	}
	return results.Close()
}

const insertMemberSQL = `
	INSERT INTO members (donman_id, first_name, surname, title, email, mobile,
		mailchimp_name, address_street, address_suburb, address_state,
		address_postcode, notes, update_epas, org_foundation, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

func memberArgs(m *domain.Member) []any {
	return []any{
		toPgInt4Ptr(m.DonmanID), m.FirstName, m.Surname,
		toPgText(m.Title), toPgText(m.Email), toPgText(m.Mobile),
		toPgText(m.MailchimpName),
		toPgText(m.AddressStreet), toPgText(m.AddressSuburb),
		toPgText(m.AddressState), toPgText(m.AddressPostcode),
		toPgText(m.Notes), toPgText(m.UpdateEpas), toPgText(m.OrgFoundation),
		m.CreatedAt, m.UpdatedAt,
	}
}

func toPgText(s *string) pgtype.Text {
	if s == nil || *s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: *s, Valid: true}
}

func toPgInt4Ptr(i *int) pgtype.Int4 {
	if i == nil {
		return pgtype.Int4{Valid: false}
	}
	return pgtype.Int4{Int32: int32(*i), Valid: true}
}

func toPgDate(t *time.Time) pgtype.Date {
	if t == nil {
		return pgtype.Date{Valid: false}
	}
	return pgtype.Date{Time: *t, Valid: true}
}

func fromPgText(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	s := t.String
	return &s
}

func fromPgInt4(i pgtype.Int4) *int {
	if !i.Valid {
		return nil
	}
	v := int(i.Int32)
	return &v
}

func fromPgDate(d pgtype.Date) *time.Time {
	if !d.Valid {
		return nil
	}
	t := d.Time.UTC()
	return &t
}
