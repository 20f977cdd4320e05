package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"time"

	"memberdb/internal/donman"
	"memberdb/internal/importer"
	"memberdb/internal/store"
)

// openUpload extracts the uploaded file from a multipart form, enforcing the
// configured size limit.
func (s *Server) openUpload(w http.ResponseWriter, r *http.Request) (multipart.File, bool) {
	maxSize := s.cfg.Import.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		writeError(w, r, http.StatusBadRequest, "file too large or invalid form")
		return nil, false
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "No file uploaded or file is empty.")
		return nil, false
	}
	return file, true
}

// handleImportValidate parses and validates an uploaded DONMAN file without
// persisting anything, returning the full validation report.
func (s *Server) handleImportValidate(w http.ResponseWriter, r *http.Request) {
	file, ok := s.openUpload(w, r)
	if !ok {
		return
	}
	defer file.Close()

	report, err := s.importer.Validate(r.Context(), file)
	if err != nil {
		if errors.Is(err, importer.ErrEmptyFile) || errors.Is(err, importer.ErrNoData) {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// handleImportExecute runs a full import, streaming progress as SSE. The
// response is always 200; failures surface as a terminal error event, which
// is what the streaming client consumes.
func (s *Server) handleImportExecute(w http.ResponseWriter, r *http.Request) {
	file, ok := s.openUpload(w, r)
	if !ok {
		return
	}
	defer file.Close()

	flusher, canFlush := w.(http.Flusher)
	if !canFlush {
		writeError(w, r, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Import.Timeout)
	defer cancel()

	events := s.importer.Execute(ctx, file)
	for {
		select {
		case ev, open := <-events:
			if !open {
				return
			}
			data, err := json.Marshal(ev.Payload)
			if err != nil {
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
			flusher.Flush()
		case <-ctx.Done():
			return
		}
	}
}

// handleExportCSV streams a member export honoring the same filters as the
// member listing. The quoting matches the import tokenizer, so exported files
// re-import cleanly.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	filter, ok := memberFilterFromQuery(w, r)
	if !ok {
		return
	}

	items, err := s.repo.ExportMembers(r.Context(), filter)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	filename := fmt.Sprintf("members-export-%s.csv", time.Now().UTC().Format("20060102-150405"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))

	fmt.Fprintln(w, donman.BuildRow(donman.ExportHeader))
	for _, item := range items {
		fmt.Fprintln(w, donman.BuildRow(exportFields(item)))
	}
}

func exportFields(item store.MemberWithMembership) []string {
	m := item.Member
	fields := []string{
		intPtrString(m.DonmanID),
		m.FirstName,
		m.Surname,
		deref(m.Title),
		deref(m.Email),
		deref(m.Mobile),
		deref(m.AddressStreet),
		deref(m.AddressSuburb),
		deref(m.AddressState),
		deref(m.AddressPostcode),
		deref(m.Notes),
		deref(m.UpdateEpas),
	}

	if ms := item.Membership; ms != nil {
		fields = append(fields,
			string(ms.Status), string(ms.Type), string(ms.PayType),
			string(ms.Rights), string(ms.Category), string(ms.RenewalStatus),
			dateString(ms.DateLastPaid))
	} else {
		fields = append(fields, "", "", "", "", "", "", "")
	}
	return fields
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func intPtrString(i *int) string {
	if i == nil {
		return ""
	}
	return fmt.Sprintf("%d", *i)
}

func dateString(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("02/01/2006")
}
