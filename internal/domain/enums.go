// Package domain defines the member and membership model shared by the
// importer, the store, and the HTTP layer. The six classification fields are
// closed sets of names; they are represented as string types so the persisted
// and wire formats stay stable if values are ever reordered.
package domain

import "strings"

// PayType is how a membership is paid.
type PayType string

const (
	PayTypeAuto          PayType = "Auto"
	PayTypeAnnual        PayType = "Annual"
	PayTypeNotApplicable PayType = "NotApplicable"
)

// MembershipStatus is whether a membership is currently active.
type MembershipStatus string

const (
	StatusActive    MembershipStatus = "Active"
	StatusNonActive MembershipStatus = "NonActive"
)

// MembershipType is the household shape of a membership.
type MembershipType string

const (
	TypeSingle MembershipType = "Single"
	TypeCouple MembershipType = "Couple"
	TypeFamily MembershipType = "Family"
)

// MemberRights is the voting/associate standing of a member.
type MemberRights string

const (
	RightsPaid         MemberRights = "Paid"
	RightsAssociate    MemberRights = "Associate"
	RightsVotingRights MemberRights = "VotingRights"
)

// MemberCategory is the club category a member belongs to.
type MemberCategory string

const (
	CategoryCommunity MemberCategory = "Community"
	CategoryLife      MemberCategory = "Life"
	CategoryVolunteer MemberCategory = "Volunteer"
	CategoryExBoard   MemberCategory = "ExBoard"
	CategoryBoard     MemberCategory = "Board"
	CategoryDoctor    MemberCategory = "Doctor"
	CategoryFamily    MemberCategory = "Family"
	CategoryStaff     MemberCategory = "Staff"
)

// RenewalStatus classifies whether a membership needs renewal action.
type RenewalStatus string

const (
	RenewalNew         RenewalStatus = "New"
	RenewalRenewed     RenewalStatus = "Renewed"
	RenewalToRenew     RenewalStatus = "ToRenew"
	RenewalOverdue     RenewalStatus = "Overdue"
	RenewalNotRenewing RenewalStatus = "NotRenewing"
)

// MembershipRole is a member's role within a shared membership.
type MembershipRole string

const (
	RolePrimary   MembershipRole = "Primary"
	RoleSecondary MembershipRole = "Secondary"
	RoleDependent MembershipRole = "Dependent"
)

// Canonical name tables, in declaration order. Lookups and validation
// messages both derive from these so the allowed sets stay in one place.
var (
	PayTypeNames          = []string{"Auto", "Annual", "NotApplicable"}
	MembershipStatusNames = []string{"Active", "NonActive"}
	MembershipTypeNames   = []string{"Single", "Couple", "Family"}
	MemberRightsNames     = []string{"Paid", "Associate", "VotingRights"}
	MemberCategoryNames   = []string{"Community", "Life", "Volunteer", "ExBoard", "Board", "Doctor", "Family", "Staff"}
	RenewalStatusNames    = []string{"New", "Renewed", "ToRenew", "Overdue", "NotRenewing"}
	MembershipRoleNames   = []string{"Primary", "Secondary", "Dependent"}
)

// matchName strips internal spaces from raw and matches it case-insensitively
// against the canonical name set. Returns the canonical spelling.
func matchName(raw string, names []string) (string, bool) {
	normalized := strings.ReplaceAll(raw, " ", "")
	for _, name := range names {
		if strings.EqualFold(normalized, name) {
			return name, true
		}
	}
	return "", false
}

// ParsePayType resolves a raw token to a PayType. Accepts space-stripped,
// case-insensitive variants ("AUTO", "not applicable").
func ParsePayType(raw string) (PayType, bool) {
	name, ok := matchName(raw, PayTypeNames)
	return PayType(name), ok
}

// ParseMembershipStatus resolves a raw token to a MembershipStatus.
func ParseMembershipStatus(raw string) (MembershipStatus, bool) {
	name, ok := matchName(raw, MembershipStatusNames)
	return MembershipStatus(name), ok
}

// ParseMembershipType resolves a raw token to a MembershipType.
func ParseMembershipType(raw string) (MembershipType, bool) {
	name, ok := matchName(raw, MembershipTypeNames)
	return MembershipType(name), ok
}

// ParseMemberRights resolves a raw token to a MemberRights value.
func ParseMemberRights(raw string) (MemberRights, bool) {
	name, ok := matchName(raw, MemberRightsNames)
	return MemberRights(name), ok
}

// ParseMemberCategory resolves a raw token to a MemberCategory.
func ParseMemberCategory(raw string) (MemberCategory, bool) {
	name, ok := matchName(raw, MemberCategoryNames)
	return MemberCategory(name), ok
}

// ParseRenewalStatus resolves a raw token to a RenewalStatus.
func ParseRenewalStatus(raw string) (RenewalStatus, bool) {
	name, ok := matchName(raw, RenewalStatusNames)
	return RenewalStatus(name), ok
}

// ParseMembershipRole resolves a raw token to a MembershipRole.
func ParseMembershipRole(raw string) (MembershipRole, bool) {
	name, ok := matchName(raw, MembershipRoleNames)
	return MembershipRole(name), ok
}
