package donman

import "strings"

// ExportHeader is the column order of member exports. It is not the DONMAN
// import layout: exports carry the decomposed address and the member's latest
// membership classification.
var ExportHeader = []string{
	"DonmanId", "FirstName", "Surname", "Title", "Email", "Mobile",
	"AddressStreet", "AddressSuburb", "AddressState", "AddressPostcode",
	"Notes", "UpdateEpas",
	"Status", "Type", "PayType", "Rights", "Category", "RenewalStatus", "DateLastPaid",
}

// BuildRow joins fields into one comma-delimited line, quoting any field that
// contains a comma, quote or newline and doubling embedded quotes. It is the
// exact inverse of SplitLine, so exported files re-import cleanly.
func BuildRow(fields []string) string {
	escaped := make([]string, len(fields))
	for i, f := range fields {
		if strings.ContainsAny(f, ",\"\n\r") {
			escaped[i] = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
		} else {
			escaped[i] = f
		}
	}
	return strings.Join(escaped, ",")
}
