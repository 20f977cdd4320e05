package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"

	"memberdb/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// MemberFilter narrows member queries. Search matches first name, surname or
// email case-insensitively; the status filters apply to each member's latest
// membership (greatest start date).
type MemberFilter struct {
	Search        string
	Status        string
	Category      string
	RenewalStatus string
	Page          int
	PageSize      int
}

// MemberWithMembership pairs a member with their latest membership, which may
// be absent for members created outside an import.
type MemberWithMembership struct {
	Member     domain.Member      `json:"member"`
	Membership *domain.Membership `json:"membership"`
}

// MemberPage is one page of a filtered member listing.
type MemberPage struct {
	Items      []MemberWithMembership `json:"items"`
	TotalCount int                    `json:"totalCount"`
	Page       int                    `json:"page"`
	PageSize   int                    `json:"pageSize"`
}

const memberColumns = `m.id, m.donman_id, m.first_name, m.surname, m.title, m.email,
	m.mobile, m.mailchimp_name, m.address_street, m.address_suburb, m.address_state,
	m.address_postcode, m.notes, m.update_epas, m.org_foundation, m.created_at, m.updated_at`

const membershipColumns = `ms.id, ms.membership_type, ms.pay_type, ms.status, ms.rights,
	ms.category, ms.renewal_status, ms.start_date, ms.end_date, ms.date_last_paid,
	ms.created_at, ms.updated_at`

// latestMembershipJoin attaches each member's most recent membership. Ties on
// start date break on the higher membership ID.
const latestMembershipJoin = `
	LEFT JOIN LATERAL (
		SELECT ms.*
		FROM membership_members mm
		JOIN memberships ms ON ms.id = mm.membership_id
		WHERE mm.member_id = m.id
		ORDER BY ms.start_date DESC, ms.id DESC
		LIMIT 1
	) ms ON true`

// ListMembers returns one page of members matching the filter, ordered by
// surname then first name.
func (s *Store) ListMembers(ctx context.Context, f MemberFilter) (*MemberPage, error) {
	where, args := buildMemberFilter(f)

	countQuery := `SELECT count(*) FROM members m` + latestMembershipJoin + where
	var total int
	if err := s.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count members: %w", err)
	}

	query := `SELECT ` + memberColumns + `, ` + membershipColumns + `
		FROM members m` + latestMembershipJoin + where + `
		ORDER BY lower(m.surname), lower(m.first_name), m.id
		LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)
	args = append(args, f.PageSize, (f.Page-1)*f.PageSize)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
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
		return nil, fmt.Errorf("list members: %w", err)
	}

	return &MemberPage{Items: items, TotalCount: total, Page: f.Page, PageSize: f.PageSize}, nil
}

// GetMember returns one member with their latest membership.
func (s *Store) GetMember(ctx context.Context, id int) (*MemberWithMembership, error) {
	query := `SELECT ` + memberColumns + `, ` + membershipColumns + `
		FROM members m` + latestMembershipJoin + `
		WHERE m.id = $1`

	rows, err := s.pool.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("get member: %w", err)
		}
		return nil, ErrNotFound
	}
	item, err := scanMemberWithMembership(rows)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateMember inserts one member and assigns its ID in place.
func (s *Store) CreateMember(ctx context.Context, m *domain.Member) error {
	err := s.pool.QueryRow(ctx, insertMemberSQL+` RETURNING id`, memberArgs(m)...).Scan(&m.ID)
	if err != nil {
		return fmt.Errorf("create member: %w", err)
	}
	return nil
}

// UpdateMember rewrites all mutable member fields.
func (s *Store) UpdateMember(ctx context.Context, m *domain.Member) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE members SET donman_id = $2, first_name = $3, surname = $4, title = $5,
			email = $6, mobile = $7, mailchimp_name = $8, address_street = $9,
			address_suburb = $10, address_state = $11, address_postcode = $12,
			notes = $13, update_epas = $14, org_foundation = $15, updated_at = $16
		WHERE id = $1`,
		m.ID, toPgInt4Ptr(m.DonmanID), m.FirstName, m.Surname, toPgText(m.Title),
		toPgText(m.Email), toPgText(m.Mobile), toPgText(m.MailchimpName),
		toPgText(m.AddressStreet), toPgText(m.AddressSuburb), toPgText(m.AddressState),
		toPgText(m.AddressPostcode), toPgText(m.Notes), toPgText(m.UpdateEpas),
		toPgText(m.OrgFoundation), m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteMember removes a member and its membership links. Memberships left
// with no linked members are removed too.
func (s *Store) DeleteMember(ctx context.Context, id int) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `DELETE FROM membership_members WHERE member_id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete member links: %w", err)
	}
	_, err = tx.Exec(ctx, `
		DELETE FROM memberships ms
		WHERE NOT EXISTS (SELECT 1 FROM membership_members mm WHERE mm.membership_id = ms.id)`)
	if err != nil {
		return fmt.Errorf("delete orphaned memberships: %w", err)
	}
	tag, err := tx.Exec(ctx, `DELETE FROM members WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return tx.Commit(ctx)
}

// buildMemberFilter returns the WHERE clause and its arguments for a filter.
func buildMemberFilter(f MemberFilter) (string, []any) {
	var conds []string
	var args []any

	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		p := "$" + strconv.Itoa(len(args))
		conds = append(conds, `(m.first_name ILIKE `+p+` OR m.surname ILIKE `+p+` OR m.email ILIKE `+p+`)`)
	}
	if f.Status != "" {
		args = append(args, f.Status)
		conds = append(conds, `ms.status = $`+strconv.Itoa(len(args)))
	}
	if f.Category != "" {
		args = append(args, f.Category)
		conds = append(conds, `ms.category = $`+strconv.Itoa(len(args)))
	}
	if f.RenewalStatus != "" {
		args = append(args, f.RenewalStatus)
		conds = append(conds, `ms.renewal_status = $`+strconv.Itoa(len(args)))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMemberWithMembership(row rowScanner) (MemberWithMembership, error) {
	var item MemberWithMembership
	var m domain.Member

	var donmanID pgtype.Int4
	var title, email, mobile, mailchimp pgtype.Text
	var street, suburb, state, postcode pgtype.Text
	var notes, updateEpas, orgFoundation pgtype.Text

	var msID pgtype.Int4
	var msType, msPayType, msStatus, msRights, msCategory, msRenewal pgtype.Text
	var msStart, msEnd, msLastPaid pgtype.Date
	var msCreated, msUpdated pgtype.Timestamptz

	err := row.Scan(
		&m.ID, &donmanID, &m.FirstName, &m.Surname, &title, &email,
		&mobile, &mailchimp, &street, &suburb, &state,
		&postcode, &notes, &updateEpas, &orgFoundation, &m.CreatedAt, &m.UpdatedAt,
		&msID, &msType, &msPayType, &msStatus, &msRights,
		&msCategory, &msRenewal, &msStart, &msEnd, &msLastPaid,
		&msCreated, &msUpdated)
	if err != nil {
		return item, fmt.Errorf("scan member: %w", err)
	}

	m.DonmanID = fromPgInt4(donmanID)
	m.Title = fromPgText(title)
	m.Email = fromPgText(email)
	m.Mobile = fromPgText(mobile)
	m.MailchimpName = fromPgText(mailchimp)
	m.AddressStreet = fromPgText(street)
	m.AddressSuburb = fromPgText(suburb)
	m.AddressState = fromPgText(state)
	m.AddressPostcode = fromPgText(postcode)
	m.Notes = fromPgText(notes)
	m.UpdateEpas = fromPgText(updateEpas)
	m.OrgFoundation = fromPgText(orgFoundation)
	item.Member = m

	if msID.Valid {
		ms := domain.Membership{
			ID:            int(msID.Int32),
			Type:          domain.MembershipType(msType.String),
			PayType:       domain.PayType(msPayType.String),
			Status:        domain.MembershipStatus(msStatus.String),
			Rights:        domain.MemberRights(msRights.String),
			Category:      domain.MemberCategory(msCategory.String),
			RenewalStatus: domain.RenewalStatus(msRenewal.String),
			StartDate:     msStart.Time.UTC(),
			EndDate:       fromPgDate(msEnd),
			DateLastPaid:  fromPgDate(msLastPaid),
			CreatedAt:     msCreated.Time,
			UpdatedAt:     msUpdated.Time,
		}
		item.Membership = &ms
	}

	return item, nil
}
