package domain

import "time"

// Member is a club member. DonmanID is the external identifier carried over
// from the legacy DONMAN system; when present it is unique across all
// persisted members (enforced by the store's unique index).
type Member struct {
	ID              int       `json:"id"`
	DonmanID        *int      `json:"donmanId"`
	FirstName       string    `json:"firstName"`
	Surname         string    `json:"surname"`
	Title           *string   `json:"title"`
	Email           *string   `json:"email"`
	Mobile          *string   `json:"mobile"`
	MailchimpName   *string   `json:"mailchimpName"`
	AddressStreet   *string   `json:"addressStreet"`
	AddressSuburb   *string   `json:"addressSuburb"`
	AddressState    *string   `json:"addressState"`
	AddressPostcode *string   `json:"addressPostcode"`
	Notes           *string   `json:"notes"`
	UpdateEpas      *string   `json:"updateEpas"`
	OrgFoundation   *string   `json:"orgFoundation"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Membership is one membership period. A membership always has at least one
// link to a member; a member's "current" membership is the linked one with the
// greatest start date.
type Membership struct {
	ID            int              `json:"id"`
	Type          MembershipType   `json:"type"`
	PayType       PayType          `json:"payType"`
	Status        MembershipStatus `json:"status"`
	Rights        MemberRights     `json:"rights"`
	Category      MemberCategory   `json:"category"`
	RenewalStatus RenewalStatus    `json:"renewalStatus"`
	StartDate     time.Time        `json:"startDate"`
	EndDate       *time.Time       `json:"endDate"`
	DateLastPaid  *time.Time       `json:"dateLastPaid"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

// MembershipMember links a member to a membership with a role.
type MembershipMember struct {
	MembershipID int            `json:"membershipId"`
	MemberID     int            `json:"memberId"`
	Role         MembershipRole `json:"role"`
}

// FullName returns the display name used in reports and error context.
func (m *Member) FullName() string {
	switch {
	case m.FirstName == "":
		return m.Surname
	case m.Surname == "":
		return m.FirstName
	default:
		return m.FirstName + " " + m.Surname
	}
}
