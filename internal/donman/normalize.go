package donman

import (
	"fmt"
	"strings"
	"time"

	"memberdb/internal/domain"
)

// ValidationError describes one failed field on one row. A row can carry any
// number of these; any at all makes the row invalid.
type ValidationError struct {
	Row      int    `json:"row"`
	DonmanID string `json:"donmanId,omitempty"`
	Name     string `json:"name,omitempty"`
	Field    string `json:"field"`
	Value    string `json:"value"`
	Message  string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("row %d %s: %s", e.Row, e.Field, e.Message)
}

// rowRef carries the identifying context attached to every field error.
type rowRef struct {
	row      int
	donmanID string
	name     string
}

func (r rowRef) errorf(field, value, format string, args ...any) ValidationError {
	return ValidationError{
		Row:      r.row,
		DonmanID: r.donmanID,
		Name:     r.name,
		Field:    field,
		Value:    value,
		Message:  fmt.Sprintf(format, args...),
	}
}

// Field normalizers below share one contract: empty or unmatched input appends
// a ValidationError to errs and returns the zero value; they never abort, so
// every bad field on a row is reported in one pass.

func parsePayType(value string, ref rowRef, errs *[]ValidationError) domain.PayType {
	allowed := strings.Join(domain.PayTypeNames, ", ")
	if strings.TrimSpace(value) == "" {
		*errs = append(*errs, ref.errorf("PayType", value, "Pay type is empty. Expected one of: %s.", allowed))
		return ""
	}
	if v, ok := domain.ParsePayType(value); ok {
		return v
	}
	*errs = append(*errs, ref.errorf("PayType", value, "Invalid Pay type: '%s'. Expected one of: %s.", value, allowed))
	return ""
}

func parseMembershipStatus(value string, ref rowRef, errs *[]ValidationError) domain.MembershipStatus {
	allowed := strings.Join(domain.MembershipStatusNames, ", ")
	if strings.TrimSpace(value) == "" {
		*errs = append(*errs, ref.errorf("Status", value, "Status is empty. Expected one of: %s.", allowed))
		return ""
	}
	if v, ok := domain.ParseMembershipStatus(value); ok {
		return v
	}
	*errs = append(*errs, ref.errorf("Status", value, "Invalid Status: '%s'. Expected one of: %s.", value, allowed))
	return ""
}

func parseMembershipType(value string, ref rowRef, errs *[]ValidationError) domain.MembershipType {
	allowed := strings.Join(domain.MembershipTypeNames, ", ")
	if strings.TrimSpace(value) == "" {
		*errs = append(*errs, ref.errorf("Type", value, "Membership type is empty. Expected one of: %s.", allowed))
		return ""
	}
	if v, ok := domain.ParseMembershipType(value); ok {
		return v
	}
	*errs = append(*errs, ref.errorf("Type", value, "Invalid membership Type: '%s'. Expected one of: %s.", value, allowed))
	return ""
}

func parseMemberRights(value string, ref rowRef, errs *[]ValidationError) domain.MemberRights {
	allowed := strings.Join(domain.MemberRightsNames, ", ")
	if strings.TrimSpace(value) == "" {
		*errs = append(*errs, ref.errorf("Rights", value, "Rights is empty. Expected one of: %s.", allowed))
		return ""
	}
	if v, ok := domain.ParseMemberRights(value); ok {
		return v
	}
	*errs = append(*errs, ref.errorf("Rights", value, "Invalid Rights: '%s'. Expected one of: %s.", value, allowed))
	return ""
}

func parseMemberCategory(value string, ref rowRef, errs *[]ValidationError) domain.MemberCategory {
	allowed := strings.Join(domain.MemberCategoryNames, ", ")
	if strings.TrimSpace(value) == "" {
		*errs = append(*errs, ref.errorf("Category", value, "Category (Type2) is empty. Expected one of: %s.", allowed))
		return ""
	}
	if v, ok := domain.ParseMemberCategory(value); ok {
		return v
	}
	*errs = append(*errs, ref.errorf("Category", value, "Invalid Category (Type2): '%s'. Expected one of: %s.", value, allowed))
	return ""
}

func parseRenewalStatus(value string, ref rowRef, errs *[]ValidationError) domain.RenewalStatus {
	allowed := strings.Join(domain.RenewalStatusNames, ", ")
	if strings.TrimSpace(value) == "" {
		*errs = append(*errs, ref.errorf("RenewalStatus", value, "Renewal status is empty. Expected one of: %s.", allowed))
		return ""
	}
	if v, ok := domain.ParseRenewalStatus(value); ok {
		return v
	}
	*errs = append(*errs, ref.errorf("RenewalStatus", value, "Invalid Renewal Status: '%s'. Expected one of: %s.", value, allowed))
	return ""
}

// dateFormats are tried in order. Label is the legacy format name used in
// error messages; layout is the Go reference-time equivalent.
var dateFormats = []struct {
	label  string
	layout string
}{
	{"dd/MM/yyyy", "02/01/2006"},
	{"d/MM/yyyy", "2/01/2006"},
	{"d/M/yyyy", "2/1/2006"},
	{"dd-MM-yyyy", "02-01-2006"},
	{"d-MM-yyyy", "2-01-2006"},
	{"d-M-yyyy", "2-1-2006"},
	{"yyyy-MM-dd", "2006-01-02"},
	{"dd/MM/yy", "02/01/06"},
	{"d/MM/yy", "2/01/06"},
	{"d/M/yy", "2/1/06"},
	{"dd.MM.yyyy", "02.01.2006"},
	{"d.MM.yyyy", "2.01.2006"},
}

// parseDate tries each supported date format in order. Empty input is not an
// error and yields nil; non-empty input that matches no format yields one
// ValidationError listing every attempted format. Parsed dates are normalised
// to UTC midnight; the legacy field is date-only.
func parseDate(value, field string, ref rowRef, errs *[]ValidationError) *time.Time {
	if strings.TrimSpace(value) == "" {
		return nil
	}

	for _, f := range dateFormats {
		t, err := time.Parse(f.layout, value)
		if err != nil {
			continue
		}
		utc := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		return &utc
	}

	labels := make([]string, len(dateFormats))
	for i, f := range dateFormats {
		labels[i] = f.label
	}
	*errs = append(*errs, ref.errorf(field, value,
		"Invalid date format for %s: '%s'. Expected formats: %s.", field, value, strings.Join(labels, ", ")))
	return nil
}
