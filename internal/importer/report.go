package importer

import "memberdb/internal/donman"

// Skip reasons. The same strings are used by both the validate and execute
// flows so a duplicate reported during validation reads identically in the
// final import result.
const (
	ReasonExistsInDatabase = "Already exists in database"
	ReasonDuplicateInFile  = "Duplicate within file"
)

// Skipped records one row left out of an import because its DONMAN # was
// already taken, either by a persisted member or by an earlier row in the
// same file.
type Skipped struct {
	DonmanID int    `json:"donmanId"`
	Name     string `json:"name"`
	Reason   string `json:"reason"`
}

// Report is the outcome of validating a whole file. ErrorCount counts
// distinct rows with at least one error, not individual field errors.
type Report struct {
	TotalRows    int                      `json:"totalRows"`
	ValidCount   int                      `json:"validCount"`
	ErrorCount   int                      `json:"errorCount"`
	SkippedCount int                      `json:"skippedCount"`
	Skipped      []Skipped                `json:"skipped"`
	Errors       []donman.ValidationError `json:"errors"`
}
