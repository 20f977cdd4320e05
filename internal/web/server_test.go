package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memberdb/internal/config"
	"memberdb/internal/domain"
	"memberdb/internal/importer"
	"memberdb/internal/store"
)

// fakeRepo satisfies Repository with overridable behavior per test.
type fakeRepo struct {
	pingErr error

	listFilter store.MemberFilter
	listPage   *store.MemberPage
	listErr    error

	member    *store.MemberWithMembership
	memberErr error

	createdMember *domain.Member

	bulkUpdate  store.BulkStatusUpdate
	bulkUpdated int

	exportItems []store.MemberWithMembership
}

func (f *fakeRepo) Ping(ctx context.Context) error { return f.pingErr }

func (f *fakeRepo) ListMembers(ctx context.Context, filter store.MemberFilter) (*store.MemberPage, error) {
	f.listFilter = filter
	if f.listErr != nil {
		return nil, f.listErr
	}
	if f.listPage != nil {
		return f.listPage, nil
	}
	return &store.MemberPage{Items: []store.MemberWithMembership{}, Page: filter.Page, PageSize: filter.PageSize}, nil
}

func (f *fakeRepo) GetMember(ctx context.Context, id int) (*store.MemberWithMembership, error) {
	if f.memberErr != nil {
		return nil, f.memberErr
	}
	return f.member, nil
}

func (f *fakeRepo) CreateMember(ctx context.Context, m *domain.Member) error {
	m.ID = 7
	f.createdMember = m
	return nil
}

func (f *fakeRepo) UpdateMember(ctx context.Context, m *domain.Member) error { return f.memberErr }
func (f *fakeRepo) DeleteMember(ctx context.Context, id int) error           { return f.memberErr }

func (f *fakeRepo) GetMembership(ctx context.Context, id int) (*store.MembershipDetail, error) {
	return nil, store.ErrNotFound
}

func (f *fakeRepo) MembershipsForMember(ctx context.Context, memberID int) ([]store.MembershipDetail, error) {
	return []store.MembershipDetail{}, nil
}

func (f *fakeRepo) CreateMembership(ctx context.Context, ms *domain.Membership, links []domain.MembershipMember) error {
	return nil
}

func (f *fakeRepo) UpdateMembership(ctx context.Context, ms *domain.Membership, links []domain.MembershipMember) error {
	return nil
}

func (f *fakeRepo) DeleteMembership(ctx context.Context, id int) error { return nil }

func (f *fakeRepo) GetDashboard(ctx context.Context) (*store.Dashboard, error) {
	return &store.Dashboard{ByCategory: map[string]int{}, ByRenewalStatus: map[string]int{}}, nil
}

func (f *fakeRepo) BulkUpdateMembershipStatus(ctx context.Context, u store.BulkStatusUpdate) (int, error) {
	f.bulkUpdate = u
	return f.bulkUpdated, nil
}

func (f *fakeRepo) ExportMembers(ctx context.Context, filter store.MemberFilter) ([]store.MemberWithMembership, error) {
	return f.exportItems, nil
}

// fakeImport satisfies ImportService with canned results.
type fakeImport struct {
	report *importer.Report
	err    error
	events []importer.Event
}

func (f *fakeImport) Validate(ctx context.Context, r io.Reader) (*importer.Report, error) {
	return f.report, f.err
}

func (f *fakeImport) Execute(ctx context.Context, r io.Reader) <-chan importer.Event {
	ch := make(chan importer.Event, len(f.events))
	for _, ev := range f.events {
		ch <- ev
	}
	close(ch)
	return ch
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{RequestTimeout: 30 * time.Second},
		Import: config.ImportConfig{MaxFileSize: 1 << 20, BatchSize: 50, Timeout: time.Minute},
		Rate:   config.RateLimitConfig{Enabled: false},
		Security: config.SecurityConfig{
			EnableCSP: true,
		},
	}
}

func newTestServer(repo Repository, imp ImportService) *Server {
	return NewServer(repo, imp, testConfig())
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

// uploadRequest builds a multipart request carrying content under the "file"
// field.
func uploadRequest(t *testing.T, path, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mp := multipart.NewWriter(&buf)
	part, err := mp.CreateFormFile("file", "import.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mp.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mp.FormDataContentType())
	return req
}

func TestHealth(t *testing.T) {
	t.Run("database connected", func(t *testing.T) {
		srv := newTestServer(&fakeRepo{}, &fakeImport{})
		rec := doJSON(t, srv, http.MethodGet, "/api/health", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "healthy", body["status"])
		assert.Equal(t, "connected", body["database"])
		assert.NotEmpty(t, body["timestamp"])
	})

	t.Run("database down", func(t *testing.T) {
		srv := newTestServer(&fakeRepo{pingErr: errors.New("down")}, &fakeImport{})
		rec := doJSON(t, srv, http.MethodGet, "/api/health", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "unavailable", body["database"])
	})
}

func TestLookups(t *testing.T) {
	srv := newTestServer(&fakeRepo{}, &fakeImport{})
	rec := doJSON(t, srv, http.MethodGet, "/api/lookups", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string][]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.Equal(t, domain.PayTypeNames, body["payTypes"])
	assert.Equal(t, domain.MemberCategoryNames, body["memberCategories"])
	assert.Equal(t, domain.RenewalStatusNames, body["renewalStatuses"])
	assert.Equal(t, domain.MembershipRoleNames, body["membershipRoles"])
}

func TestListMembersFilter(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		repo := &fakeRepo{}
		srv := newTestServer(repo, &fakeImport{})
		rec := doJSON(t, srv, http.MethodGet, "/api/members", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, repo.listFilter.Page)
		assert.Equal(t, 25, repo.listFilter.PageSize)
	})

	t.Run("page size clamps to 100", func(t *testing.T) {
		repo := &fakeRepo{}
		srv := newTestServer(repo, &fakeImport{})
		rec := doJSON(t, srv, http.MethodGet, "/api/members?page=3&pageSize=500", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 3, repo.listFilter.Page)
		assert.Equal(t, 100, repo.listFilter.PageSize)
	})

	t.Run("status filter normalized", func(t *testing.T) {
		repo := &fakeRepo{}
		srv := newTestServer(repo, &fakeImport{})
		rec := doJSON(t, srv, http.MethodGet, "/api/members?status=non%20active&category=Community", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "NonActive", repo.listFilter.Status)
		assert.Equal(t, "Community", repo.listFilter.Category)
	})

	t.Run("unknown status rejected", func(t *testing.T) {
		srv := newTestServer(&fakeRepo{}, &fakeImport{})
		rec := doJSON(t, srv, http.MethodGet, "/api/members?status=Dormant", nil)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "invalid status value: 'Dormant'")
	})
}

func TestGetMemberNotFound(t *testing.T) {
	srv := newTestServer(&fakeRepo{memberErr: store.ErrNotFound}, &fakeImport{})
	rec := doJSON(t, srv, http.MethodGet, "/api/members/42", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateMember(t *testing.T) {
	t.Run("requires a name", func(t *testing.T) {
		srv := newTestServer(&fakeRepo{}, &fakeImport{})
		rec := doJSON(t, srv, http.MethodPost, "/api/members", map[string]any{"email": "x@example.org"})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("created", func(t *testing.T) {
		repo := &fakeRepo{}
		srv := newTestServer(repo, &fakeImport{})
		rec := doJSON(t, srv, http.MethodPost, "/api/members", map[string]any{
			"firstName": "Pat",
			"surname":   "Smith",
		})

		require.Equal(t, http.StatusCreated, rec.Code)
		require.NotNil(t, repo.createdMember)
		assert.Equal(t, "Pat", repo.createdMember.FirstName)

		var body domain.Member
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, 7, body.ID)
	})

	t.Run("bad body", func(t *testing.T) {
		srv := newTestServer(&fakeRepo{}, &fakeImport{})
		req := httptest.NewRequest(http.MethodPost, "/api/members", strings.NewReader("{not json"))
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestBulkStatus(t *testing.T) {
	t.Run("no ids", func(t *testing.T) {
		srv := newTestServer(&fakeRepo{}, &fakeImport{})
		rec := doJSON(t, srv, http.MethodPut, "/api/bulk/membership-status", map[string]any{
			"memberIds": []int{},
			"status":    "Active",
		})

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "No member IDs provided.")
	})

	t.Run("neither field given", func(t *testing.T) {
		srv := newTestServer(&fakeRepo{}, &fakeImport{})
		rec := doJSON(t, srv, http.MethodPut, "/api/bulk/membership-status", map[string]any{
			"memberIds": []int{1, 2},
		})

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "At least one of 'status' or 'renewalStatus' must be provided.")
	})

	t.Run("unknown status", func(t *testing.T) {
		srv := newTestServer(&fakeRepo{}, &fakeImport{})
		rec := doJSON(t, srv, http.MethodPut, "/api/bulk/membership-status", map[string]any{
			"memberIds": []int{1},
			"status":    "Dormant",
		})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("updates", func(t *testing.T) {
		repo := &fakeRepo{bulkUpdated: 2}
		srv := newTestServer(repo, &fakeImport{})
		rec := doJSON(t, srv, http.MethodPut, "/api/bulk/membership-status", map[string]any{
			"memberIds":     []int{1, 2},
			"renewalStatus": "Renewed",
		})

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"updated": 2}`, rec.Body.String())
		assert.Equal(t, []int{1, 2}, repo.bulkUpdate.MemberIDs)
		require.NotNil(t, repo.bulkUpdate.RenewalStatus)
		assert.Equal(t, "Renewed", *repo.bulkUpdate.RenewalStatus)
		assert.Nil(t, repo.bulkUpdate.Status)
	})
}

func TestImportValidate(t *testing.T) {
	t.Run("missing file field", func(t *testing.T) {
		srv := newTestServer(&fakeRepo{}, &fakeImport{})
		var buf bytes.Buffer
		mp := multipart.NewWriter(&buf)
		require.NoError(t, mp.Close())
		req := httptest.NewRequest(http.MethodPost, "/api/import/validate", &buf)
		req.Header.Set("Content-Type", mp.FormDataContentType())
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "No file uploaded or file is empty.")
	})

	t.Run("structural error", func(t *testing.T) {
		srv := newTestServer(&fakeRepo{}, &fakeImport{err: importer.ErrNoData})
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, uploadRequest(t, "/api/import/validate", "header only"))

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), importer.ErrNoData.Error())
	})

	t.Run("report returned", func(t *testing.T) {
		imp := &fakeImport{report: &importer.Report{
			TotalRows:  3,
			ValidCount: 2,
			ErrorCount: 1,
			Skipped:    []importer.Skipped{},
		}}
		srv := newTestServer(&fakeRepo{}, imp)
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, uploadRequest(t, "/api/import/validate", "data"))

		require.Equal(t, http.StatusOK, rec.Code)
		var report importer.Report
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
		assert.Equal(t, 3, report.TotalRows)
		assert.Equal(t, 2, report.ValidCount)
	})
}

// sseEvents parses "event:"/"data:" framing into type/data pairs.
func sseEvents(body string) [][2]string {
	var out [][2]string
	var current [2]string
	for _, line := range strings.Split(body, "\n") {
		switch {
		case strings.HasPrefix(line, "event: "):
			current[0] = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			current[1] = strings.TrimPrefix(line, "data: ")
		case line == "" && current[0] != "":
			out = append(out, current)
			current = [2]string{}
		}
	}
	return out
}

func TestImportExecuteStreams(t *testing.T) {
	imp := &fakeImport{events: []importer.Event{
		{Type: importer.EventProgress, Payload: importer.ProgressPayload{Processed: 50, Total: 80}},
		{Type: importer.EventProgress, Payload: importer.ProgressPayload{Processed: 80, Total: 80}},
		{Type: importer.EventComplete, Payload: importer.CompletePayload{Imported: 80, Skipped: []importer.Skipped{}}},
	}}
	srv := newTestServer(&fakeRepo{}, imp)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, uploadRequest(t, "/api/import/execute", "data"))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))

	events := sseEvents(rec.Body.String())
	require.Len(t, events, 3)
	assert.Equal(t, "progress", events[0][0])
	assert.JSONEq(t, `{"processed": 50, "total": 80}`, events[0][1])
	assert.Equal(t, "complete", events[2][0])
	assert.JSONEq(t, `{"imported": 80, "skipped": []}`, events[2][1])
}

func TestImportExecuteErrorEvent(t *testing.T) {
	imp := &fakeImport{events: []importer.Event{
		{Type: importer.EventError, Payload: importer.ErrorPayload{Message: "File contains 2 row(s) with validation errors. Nothing was imported."}},
	}}
	srv := newTestServer(&fakeRepo{}, imp)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, uploadRequest(t, "/api/import/execute", "data"))

	require.Equal(t, http.StatusOK, rec.Code)
	events := sseEvents(rec.Body.String())
	require.Len(t, events, 1)
	assert.Equal(t, "error", events[0][0])
	assert.Contains(t, events[0][1], "Nothing was imported.")
}

func TestSecurityHeaders(t *testing.T) {
	srv := newTestServer(&fakeRepo{}, &fakeImport{})
	rec := doJSON(t, srv, http.MethodGet, "/api/health", nil)

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
}

func TestImportRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 100, ImportLimit: 1}
	srv := NewServer(&fakeRepo{}, &fakeImport{report: &importer.Report{}}, cfg)

	first := httptest.NewRecorder()
	srv.Router().ServeHTTP(first, uploadRequest(t, "/api/import/validate", "data"))
	require.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	srv.Router().ServeHTTP(second, uploadRequest(t, "/api/import/validate", "data"))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "60", second.Header().Get("Retry-After"))
}

func TestExportCSV(t *testing.T) {
	donmanID := 101
	street := "5 Smith St"
	lastPaid := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	repo := &fakeRepo{exportItems: []store.MemberWithMembership{
		{
			Member: domain.Member{DonmanID: &donmanID, FirstName: "Pat", Surname: "Smith", AddressStreet: &street},
			Membership: &domain.Membership{
				Type: domain.TypeSingle, PayType: domain.PayTypeAnnual,
				Status: domain.StatusActive, Rights: domain.RightsPaid,
				Category: domain.CategoryCommunity, RenewalStatus: domain.RenewalRenewed,
				DateLastPaid: &lastPaid,
			},
		},
		{Member: domain.Member{FirstName: "No", Surname: "Membership"}},
	}}
	srv := newTestServer(repo, &fakeImport{})
	rec := doJSON(t, srv, http.MethodGet, "/api/export/csv", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "members-export-")

	lines := strings.Split(strings.TrimRight(rec.Body.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "DonmanId")
	assert.Contains(t, lines[1], "101,Pat,Smith")
	assert.Contains(t, lines[1], "15/06/2024")
	assert.True(t, strings.HasSuffix(lines[2], ",,,,,,,"), "missing membership exports blank columns")
}
