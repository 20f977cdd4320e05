package donman

import (
	"strings"
	"testing"

	"memberdb/internal/domain"
)

// buildLine assembles a comma-delimited row in the default layout, filling
// unspecified columns with empty fields.
func buildLine(overrides map[int]string) string {
	fields := make([]string, DefaultLayout().MinColumns)
	for i, v := range overrides {
		fields[i] = v
	}
	return strings.Join(fields, ",")
}

// validOverrides is a complete valid row in the default layout.
func validOverrides() map[int]string {
	l := DefaultLayout()
	return map[int]string{
		l.DonmanID:      "101",
		l.FirstName:     "Pat",
		l.Surname:       "Smith",
		l.PayType:       "Annual",
		l.Status:        "Active",
		l.Type:          "Single",
		l.Rights:        "Paid",
		l.Category:      "Community",
		l.RenewalStatus: "Renewed",
		l.DateLastPaid:  "15/06/2024",
		l.Notes:         "long time member",
		l.Title:         "Ms",
		l.Email:         "pat@example.org",
		l.Address:       "5 Smith St Mornington VIC 3931",
		l.Mobile:        "0400 000 000",
	}
}

func TestParseRowValid(t *testing.T) {
	layout := DefaultLayout()
	row := layout.ParseRow(buildLine(validOverrides()), ',', 2)

	if !row.Valid {
		t.Fatalf("expected valid row, got errors: %v", row.Errors)
	}
	if row.DonmanID != 101 {
		t.Errorf("DonmanID = %d, want 101", row.DonmanID)
	}
	if row.Name != "Pat Smith" {
		t.Errorf("Name = %q, want %q", row.Name, "Pat Smith")
	}

	m := row.Member
	if m == nil || m.DonmanID == nil || *m.DonmanID != 101 {
		t.Fatalf("member not built: %+v", m)
	}
	if m.AddressStreet == nil || *m.AddressStreet != "5 Smith St" {
		t.Errorf("AddressStreet = %v, want 5 Smith St", m.AddressStreet)
	}
	if m.AddressSuburb == nil || *m.AddressSuburb != "Mornington" {
		t.Errorf("AddressSuburb = %v", m.AddressSuburb)
	}
	if m.AddressState == nil || *m.AddressState != "VIC" {
		t.Errorf("AddressState = %v", m.AddressState)
	}
	if m.AddressPostcode == nil || *m.AddressPostcode != "3931" {
		t.Errorf("AddressPostcode = %v", m.AddressPostcode)
	}
	if m.Mobile == nil || *m.Mobile != "0400 000 000" {
		t.Errorf("Mobile = %v", m.Mobile)
	}

	ms := row.Membership
	if ms == nil {
		t.Fatal("membership not built")
	}
	if ms.PayType != domain.PayTypeAnnual || ms.Status != domain.StatusActive ||
		ms.Type != domain.TypeSingle || ms.Rights != domain.RightsPaid ||
		ms.Category != domain.CategoryCommunity || ms.RenewalStatus != domain.RenewalRenewed {
		t.Errorf("membership enums = %+v", ms)
	}
	if ms.DateLastPaid == nil || ms.DateLastPaid.Format("2006-01-02") != "2024-06-15" {
		t.Errorf("DateLastPaid = %v", ms.DateLastPaid)
	}
	if ms.StartDate.IsZero() {
		t.Error("StartDate not set")
	}
}

func TestParseRowColumnCountShortCircuits(t *testing.T) {
	layout := DefaultLayout()
	row := layout.ParseRow("101,Pat,Smith", ',', 4)

	if row.Valid {
		t.Fatal("expected invalid row")
	}
	if len(row.Errors) != 1 {
		t.Fatalf("expected exactly 1 error, got %d: %v", len(row.Errors), row.Errors)
	}
	want := "Expected at least 20 columns but found 3."
	if row.Errors[0].Message != want {
		t.Errorf("message = %q, want %q", row.Errors[0].Message, want)
	}
	if row.Errors[0].Row != 4 {
		t.Errorf("row = %d, want 4", row.Errors[0].Row)
	}
}

func TestParseRowIdentifierShortCircuits(t *testing.T) {
	layout := DefaultLayout()

	t.Run("empty identifier", func(t *testing.T) {
		overrides := validOverrides()
		overrides[layout.DonmanID] = ""
		row := layout.ParseRow(buildLine(overrides), ',', 2)

		if row.Valid || len(row.Errors) != 1 {
			t.Fatalf("expected single error, got %v", row.Errors)
		}
		if row.Errors[0].Message != "DONMAN # is empty." {
			t.Errorf("message = %q", row.Errors[0].Message)
		}
	})

	t.Run("non-integer identifier", func(t *testing.T) {
		overrides := validOverrides()
		overrides[layout.DonmanID] = "ABC1"
		row := layout.ParseRow(buildLine(overrides), ',', 2)

		if row.Valid || len(row.Errors) != 1 {
			t.Fatalf("expected single error, got %v", row.Errors)
		}
		want := "Invalid DONMAN # value: 'ABC1'. Expected a whole number."
		if row.Errors[0].Message != want {
			t.Errorf("message = %q, want %q", row.Errors[0].Message, want)
		}
	})
}

func TestParseRowAccumulatesAllFieldErrors(t *testing.T) {
	layout := DefaultLayout()
	overrides := validOverrides()
	overrides[layout.PayType] = "Weekly"
	overrides[layout.Status] = ""
	overrides[layout.RenewalStatus] = "Maybe"
	overrides[layout.DateLastPaid] = "not a date"
	row := layout.ParseRow(buildLine(overrides), ',', 2)

	if row.Valid {
		t.Fatal("expected invalid row")
	}
	if len(row.Errors) != 4 {
		t.Fatalf("expected 4 errors, got %d: %v", len(row.Errors), row.Errors)
	}
	if row.Member != nil || row.Membership != nil {
		t.Error("records must not be built for invalid rows")
	}
	for _, e := range row.Errors {
		if e.DonmanID != "101" || e.Name != "Pat Smith" {
			t.Errorf("error missing row context: %+v", e)
		}
	}
}

func TestParseRowEmptyOptionalFieldsBecomeNil(t *testing.T) {
	layout := DefaultLayout()
	overrides := validOverrides()
	delete(overrides, layout.Notes)
	delete(overrides, layout.Title)
	delete(overrides, layout.Email)
	delete(overrides, layout.Address)
	delete(overrides, layout.Mobile)
	delete(overrides, layout.DateLastPaid)
	row := layout.ParseRow(buildLine(overrides), ',', 2)

	if !row.Valid {
		t.Fatalf("expected valid row, got %v", row.Errors)
	}
	m := row.Member
	if m.Notes != nil || m.Title != nil || m.Email != nil || m.Mobile != nil {
		t.Errorf("optional fields should be nil: %+v", m)
	}
	if m.AddressStreet != nil {
		t.Errorf("empty address should decompose to nil parts, got %v", m.AddressStreet)
	}
	if row.Membership.DateLastPaid != nil {
		t.Errorf("empty DateLastPaid should be nil, got %v", row.Membership.DateLastPaid)
	}
}

func TestParseRowQuotedNotesWithDelimiter(t *testing.T) {
	layout := DefaultLayout()
	overrides := validOverrides()
	overrides[layout.Notes] = `"renewed, then paused"`
	row := layout.ParseRow(buildLine(overrides), ',', 2)

	if !row.Valid {
		t.Fatalf("expected valid row, got %v", row.Errors)
	}
	if row.Member.Notes == nil || *row.Member.Notes != "renewed, then paused" {
		t.Errorf("Notes = %v", row.Member.Notes)
	}
}
