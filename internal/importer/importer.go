// Package importer drives DONMAN file imports: a validate-only flow that
// produces a full report, and an execute flow that re-validates, persists
// accepted rows in batches and emits a stream of progress events.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"

	"memberdb/internal/domain"
	"memberdb/internal/donman"
	"memberdb/internal/logging"
)

// Structural errors reject the whole request before any row is processed.
var (
	ErrEmptyFile = errors.New("no file uploaded or file is empty")
	ErrNoData    = errors.New("file must contain a header row and at least one data row")
)

// Store is the persistence collaborator. Create operations assign storage IDs
// to the passed records in place; LinkMembers therefore requires both create
// calls to have run first. The store's unique index on DONMAN # is the final
// authority on identifier uniqueness.
type Store interface {
	ExistingDonmanIDs(ctx context.Context) (map[int]struct{}, error)
	CreateMembers(ctx context.Context, members []*domain.Member) error
	CreateMemberships(ctx context.Context, memberships []*domain.Membership) error
	LinkMembers(ctx context.Context, links []domain.MembershipMember) error
}

// Service orchestrates imports. One file is processed start to finish by one
// call; there is no internal parallelism, since row order drives in-file
// duplicate detection.
type Service struct {
	store     Store
	layout    donman.Layout
	batchSize int
}

// New creates an import service persisting batchSize rows at a time.
func New(store Store, batchSize int) *Service {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &Service{
		store:     store,
		layout:    donman.DefaultLayout(),
		batchSize: batchSize,
	}
}

// parseFile reads all lines, detects the delimiter from the header and parses
// every non-blank data row. Row numbers are 1-based with the header as row 1.
func (s *Service) parseFile(r io.Reader) ([]donman.ParsedRow, error) {
	lines, err := donman.ReadLines(r)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrEmptyFile
	}
	if len(lines) < 2 {
		return nil, ErrNoData
	}

	delimiter := donman.DetectDelimiter(lines[0])

	var rows []donman.ParsedRow
	for i := 1; i < len(lines); i++ {
		if isBlank(lines[i]) {
			continue
		}
		rows = append(rows, s.layout.ParseRow(lines[i], delimiter, i+1))
	}
	return rows, nil
}

// Validate parses and validates the whole file without persisting anything.
// Structural problems (empty file, missing data rows) are returned as errors;
// everything else lands in the report. Validate never mutates state, so two
// runs against the same file and identifier set produce identical reports.
func (s *Service) Validate(ctx context.Context, r io.Reader) (*Report, error) {
	rows, err := s.parseFile(r)
	if err != nil {
		return nil, err
	}

	existing, err := s.store.ExistingDonmanIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("load existing identifiers: %w", err)
	}

	report := &Report{
		Skipped: []Skipped{},
		Errors:  []donman.ValidationError{},
	}
	seen := make(map[int]struct{})
	errorRows := make(map[int]struct{})

	for _, row := range rows {
		report.TotalRows++

		if !row.Valid {
			report.Errors = append(report.Errors, row.Errors...)
			errorRows[row.RowNumber] = struct{}{}
			continue
		}

		// Persisted-duplicate check runs before the in-file check.
		if _, dup := existing[row.DonmanID]; dup {
			report.Skipped = append(report.Skipped, Skipped{
				DonmanID: row.DonmanID,
				Name:     row.Name,
				Reason:   ReasonExistsInDatabase,
			})
			continue
		}
		if _, dup := seen[row.DonmanID]; dup {
			report.Skipped = append(report.Skipped, Skipped{
				DonmanID: row.DonmanID,
				Name:     row.Name,
				Reason:   ReasonDuplicateInFile,
			})
			continue
		}

		seen[row.DonmanID] = struct{}{}
		report.ValidCount++
	}

	report.ErrorCount = len(errorRows)
	report.SkippedCount = len(report.Skipped)
	return report, nil
}

// Execute re-validates the entire file from scratch and, only if every row
// passes, persists accepted rows in batches. Events arrive on the returned
// channel in order: zero or more progress events with strictly increasing
// processed counts, then exactly one terminal event (error or complete). The
// channel is closed after the terminal event.
//
// A validation error anywhere in the file blocks all persistence. A storage
// failure mid-run aborts the remaining batches; batches already committed
// stay committed.
func (s *Service) Execute(ctx context.Context, r io.Reader) <-chan Event {
	events := make(chan Event, 1)

	go func() {
		defer close(events)
		s.execute(ctx, r, events)
	}()

	return events
}

func (s *Service) execute(ctx context.Context, r io.Reader, events chan<- Event) {
	runID := uuid.New().String()
	log := logging.FromContext(ctx).With("import_id", runID)

	rows, err := s.parseFile(r)
	if err != nil {
		emit(ctx, events, errorEvent(err.Error()))
		return
	}

	existing, err := s.store.ExistingDonmanIDs(ctx)
	if err != nil {
		log.Error("load existing identifiers failed", "error", err)
		emit(ctx, events, errorEvent("Failed to load existing member identifiers."))
		return
	}

	// Validation gate: any invalid row anywhere blocks the whole import.
	errorRows := make(map[int]struct{})
	for _, row := range rows {
		if !row.Valid {
			errorRows[row.RowNumber] = struct{}{}
		}
	}
	if len(errorRows) > 0 {
		log.Info("import rejected", "rows_with_errors", len(errorRows))
		emit(ctx, events, errorEvent(fmt.Sprintf(
			"File contains %d row(s) with validation errors. Nothing was imported.", len(errorRows))))
		return
	}

	var accepted []donman.ParsedRow
	var skipped []Skipped
	seen := make(map[int]struct{})

	for _, row := range rows {
		if _, dup := existing[row.DonmanID]; dup {
			skipped = append(skipped, Skipped{DonmanID: row.DonmanID, Name: row.Name, Reason: ReasonExistsInDatabase})
			continue
		}
		if _, dup := seen[row.DonmanID]; dup {
			skipped = append(skipped, Skipped{DonmanID: row.DonmanID, Name: row.Name, Reason: ReasonDuplicateInFile})
			continue
		}
		seen[row.DonmanID] = struct{}{}
		accepted = append(accepted, row)
	}

	total := len(accepted)
	log.Info("import starting", "accepted", total, "skipped", len(skipped))

	processed := 0
	for start := 0; start < total; start += s.batchSize {
		end := start + s.batchSize
		if end > total {
			end = total
		}
		batch := accepted[start:end]

		if err := s.persistBatch(ctx, batch); err != nil {
			log.Error("batch persist failed", "from_row", batch[0].RowNumber, "error", err)
			emit(ctx, events, errorEvent(fmt.Sprintf(
				"Import failed after %d of %d rows: %v", processed, total, err)))
			return
		}

		processed = end
		if !emit(ctx, events, progressEvent(processed, total)) {
			return
		}
	}

	if skipped == nil {
		skipped = []Skipped{}
	}
	log.Info("import complete", "imported", total, "skipped", len(skipped))
	emit(ctx, events, completeEvent(total, skipped))
}

// persistBatch writes one batch: members first, then memberships, then the
// links. Linking needs the storage IDs the first two steps assign.
func (s *Service) persistBatch(ctx context.Context, batch []donman.ParsedRow) error {
	members := make([]*domain.Member, len(batch))
	memberships := make([]*domain.Membership, len(batch))
	for i, row := range batch {
		members[i] = row.Member
		memberships[i] = row.Membership
	}

	if err := s.store.CreateMembers(ctx, members); err != nil {
		return fmt.Errorf("create members: %w", err)
	}
	if err := s.store.CreateMemberships(ctx, memberships); err != nil {
		return fmt.Errorf("create memberships: %w", err)
	}

	links := make([]domain.MembershipMember, len(batch))
	for i := range batch {
		links[i] = domain.MembershipMember{
			MembershipID: memberships[i].ID,
			MemberID:     members[i].ID,
			Role:         domain.RolePrimary,
		}
	}
	if err := s.store.LinkMembers(ctx, links); err != nil {
		return fmt.Errorf("link members: %w", err)
	}

	return nil
}

// emit sends an event unless the client has gone away. Returns false when the
// context is done; in-flight batches already committed stay committed.
func emit(ctx context.Context, events chan<- Event, e Event) bool {
	select {
	case events <- e:
		return true
	case <-ctx.Done():
		return false
	}
}

func isBlank(line string) bool {
	for _, c := range line {
		if c != ' ' && c != '\t' && c != '\r' {
			return false
		}
	}
	return true
}
