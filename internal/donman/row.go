package donman

import (
	"strconv"
	"strings"
	"time"

	"memberdb/internal/domain"
)

// ParsedRow is the outcome of parsing one data row. When Valid is true,
// Member and Membership hold the constructed records; otherwise Errors lists
// every field problem found on the row.
type ParsedRow struct {
	RowNumber   int
	RawDonmanID string
	DonmanID    int
	Name        string
	Valid       bool
	Errors      []ValidationError
	Member      *domain.Member
	Membership  *domain.Membership
}

// ParseRow parses one non-header line into a ParsedRow. rowNumber is 1-based
// counting the header as row 1, so the first data row is row 2.
//
// Two checks short-circuit: a row with fewer than MinColumns fields, and a
// missing or non-integer DONMAN #; nothing downstream can run without a row
// identity. After that, every field normalizer runs unconditionally and all
// errors accumulate; a row is valid iff it collected none.
func (l Layout) ParseRow(line string, delimiter rune, rowNumber int) ParsedRow {
	parsed := ParsedRow{RowNumber: rowNumber}

	fields := SplitLine(line, delimiter)
	if len(fields) < l.MinColumns {
		parsed.Errors = append(parsed.Errors, ValidationError{
			Row:     rowNumber,
			Field:   "ColumnCount",
			Value:   strconv.Itoa(len(fields)),
			Message: "Expected at least " + strconv.Itoa(l.MinColumns) + " columns but found " + strconv.Itoa(len(fields)) + ".",
		})
		return parsed
	}

	rawID := strings.TrimSpace(fields[l.DonmanID])
	parsed.RawDonmanID = rawID

	if rawID == "" {
		parsed.Errors = append(parsed.Errors, ValidationError{
			Row:     rowNumber,
			Field:   "DonmanId",
			Value:   rawID,
			Message: "DONMAN # is empty.",
		})
		return parsed
	}

	donmanID, err := strconv.Atoi(rawID)
	if err != nil {
		parsed.Errors = append(parsed.Errors, ValidationError{
			Row:      rowNumber,
			DonmanID: rawID,
			Field:    "DonmanId",
			Value:    rawID,
			Message:  "Invalid DONMAN # value: '" + rawID + "'. Expected a whole number.",
		})
		return parsed
	}
	parsed.DonmanID = donmanID

	firstName := strings.TrimSpace(fields[l.FirstName])
	surname := strings.TrimSpace(fields[l.Surname])
	parsed.Name = strings.TrimSpace(firstName + " " + surname)

	ref := rowRef{row: rowNumber, donmanID: rawID, name: parsed.Name}

	payType := parsePayType(strings.TrimSpace(fields[l.PayType]), ref, &parsed.Errors)
	status := parseMembershipStatus(strings.TrimSpace(fields[l.Status]), ref, &parsed.Errors)
	membershipType := parseMembershipType(strings.TrimSpace(fields[l.Type]), ref, &parsed.Errors)
	rights := parseMemberRights(strings.TrimSpace(fields[l.Rights]), ref, &parsed.Errors)
	category := parseMemberCategory(strings.TrimSpace(fields[l.Category]), ref, &parsed.Errors)
	renewalStatus := parseRenewalStatus(strings.TrimSpace(fields[l.RenewalStatus]), ref, &parsed.Errors)
	dateLastPaid := parseDate(strings.TrimSpace(fields[l.DateLastPaid]), "DateLastPaid", ref, &parsed.Errors)

	// Address decomposition is best-effort and runs regardless of other
	// outcomes; it cannot itself fail.
	addr := ParseAddress(strings.TrimSpace(fields[l.Address]))

	if len(parsed.Errors) > 0 {
		return parsed
	}

	now := time.Now().UTC()
	id := donmanID

	parsed.Member = &domain.Member{
		DonmanID:        &id,
		FirstName:       firstName,
		Surname:         surname,
		Title:           nilIfEmpty(fields[l.Title]),
		Email:           nilIfEmpty(fields[l.Email]),
		Mobile:          nilIfEmpty(fields[l.Mobile]),
		MailchimpName:   nilIfEmpty(fields[l.MailchimpName]),
		AddressStreet:   nilIfEmpty(addr.Street),
		AddressSuburb:   nilIfEmpty(addr.Suburb),
		AddressState:    nilIfEmpty(addr.State),
		AddressPostcode: nilIfEmpty(addr.Postcode),
		Notes:           nilIfEmpty(fields[l.Notes]),
		UpdateEpas:      nilIfEmpty(fields[l.UpdateEpas]),
		OrgFoundation:   nilIfEmpty(fields[l.OrgFoundation]),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	parsed.Membership = &domain.Membership{
		Type:          membershipType,
		PayType:       payType,
		Status:        status,
		Rights:        rights,
		Category:      category,
		RenewalStatus: renewalStatus,
		StartDate:     now,
		DateLastPaid:  dateLastPaid,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	parsed.Valid = true
	return parsed
}

// nilIfEmpty trims the value and returns nil for empty strings, so empty CSV
// cells persist as NULL rather than "".
func nilIfEmpty(value string) *string {
	v := strings.TrimSpace(value)
	if v == "" {
		return nil
	}
	return &v
}
