// Package web provides the HTTP server and JSON/SSE handlers for the
// membership service.
package web

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"memberdb/internal/config"
	"memberdb/internal/importer"
	"memberdb/internal/logging"
	"memberdb/internal/store"
	mw "memberdb/internal/web/middleware"

	"memberdb/internal/domain"
)

// Repository is the persistence surface the handlers need. *store.Store
// satisfies it; tests substitute a fake.
type Repository interface {
	Ping(ctx context.Context) error

	ListMembers(ctx context.Context, f store.MemberFilter) (*store.MemberPage, error)
	GetMember(ctx context.Context, id int) (*store.MemberWithMembership, error)
	CreateMember(ctx context.Context, m *domain.Member) error
	UpdateMember(ctx context.Context, m *domain.Member) error
	DeleteMember(ctx context.Context, id int) error

	GetMembership(ctx context.Context, id int) (*store.MembershipDetail, error)
	MembershipsForMember(ctx context.Context, memberID int) ([]store.MembershipDetail, error)
	CreateMembership(ctx context.Context, ms *domain.Membership, links []domain.MembershipMember) error
	UpdateMembership(ctx context.Context, ms *domain.Membership, links []domain.MembershipMember) error
	DeleteMembership(ctx context.Context, id int) error

	GetDashboard(ctx context.Context) (*store.Dashboard, error)
	BulkUpdateMembershipStatus(ctx context.Context, u store.BulkStatusUpdate) (int, error)
	ExportMembers(ctx context.Context, f store.MemberFilter) ([]store.MemberWithMembership, error)
}

// ImportService runs DONMAN file imports.
type ImportService interface {
	Validate(ctx context.Context, r io.Reader) (*importer.Report, error)
	Execute(ctx context.Context, r io.Reader) <-chan importer.Event
}

// Server is the HTTP server for the membership service.
type Server struct {
	repo     Repository
	importer ImportService
	cfg      *config.Config
	router   *chi.Mux
	server   *http.Server
}

// NewServer creates a Server with routes and middleware configured.
func NewServer(repo Repository, imp ImportService, cfg *config.Config) *Server {
	s := &Server{
		repo:     repo,
		importer: imp,
		cfg:      cfg,
		router:   chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes. The request timeout
// is applied per route group so import execution can stream past it.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(chimw.Compress(5))

	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))

	if s.cfg.Rate.Enabled {
		limiter := newRateLimiter(s.cfg.Rate.RequestsPerMinute, time.Minute)
		s.router.Use(limiter.middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Route("/api", func(r chi.Router) {
		// Import endpoints carry their own limits and no request timeout:
		// execute streams progress for as long as the run takes.
		r.Group(func(r chi.Router) {
			if s.cfg.Rate.Enabled {
				limiter := newRateLimiter(s.cfg.Rate.ImportLimit, time.Minute)
				r.Use(limiter.middleware)
			}
			r.Post("/import/validate", s.handleImportValidate)
			r.Post("/import/execute", s.handleImportExecute)
		})

		r.Group(func(r chi.Router) {
			r.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))

			r.Get("/members", s.handleListMembers)
			r.Post("/members", s.handleCreateMember)
			r.Get("/members/{id}", s.handleGetMember)
			r.Put("/members/{id}", s.handleUpdateMember)
			r.Delete("/members/{id}", s.handleDeleteMember)
			r.Get("/members/{id}/memberships", s.handleMembershipsForMember)

			r.Get("/memberships/{id}", s.handleGetMembership)
			r.Post("/memberships", s.handleCreateMembership)
			r.Put("/memberships/{id}", s.handleUpdateMembership)
			r.Delete("/memberships/{id}", s.handleDeleteMembership)

			r.Put("/bulk/membership-status", s.handleBulkStatus)
			r.Get("/dashboard", s.handleDashboard)
			r.Get("/lookups", s.handleLookups)
			r.Get("/export/csv", s.handleExportCSV)
			r.Get("/health", s.handleHealth)
		})
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout, // 0 for SSE
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	logging.FromContext(context.Background()).Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(enableCSP bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if enableCSP {
				w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// rateLimiter implements a token bucket rate limiter per IP.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     int
	window   time.Duration
}

type visitor struct {
	tokens    int
	lastReset time.Time
}

func newRateLimiter(rate int, window time.Duration) *rateLimiter {
	rl := &rateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate,
		window:   window,
	}
	go rl.cleanup()
	return rl
}

// cleanup removes stale visitor entries every minute.
func (rl *rateLimiter) cleanup() {
	for {
		time.Sleep(time.Minute)
		rl.mu.Lock()
		for ip, v := range rl.visitors {
			if time.Since(v.lastReset) > rl.window*2 {
				delete(rl.visitors, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// allow checks if the request should be allowed and consumes a token if so.
func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[ip]
	if !exists {
		rl.visitors[ip] = &visitor{
			tokens:    rl.rate - 1,
			lastReset: time.Now(),
		}
		return true
	}

	if time.Since(v.lastReset) > rl.window {
		v.tokens = rl.rate - 1
		v.lastReset = time.Now()
		return true
	}

	if v.tokens <= 0 {
		return false
	}

	v.tokens--
	return true
}

// middleware returns an HTTP middleware that rate limits by IP.
// TrustedRealIP has already rewritten RemoteAddr when a trusted proxy is
// in front.
func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(r.RemoteAddr) {
			w.Header().Set("Retry-After", "60")
			writeError(w, r, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}
