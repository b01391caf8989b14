// internal/httpserver/server.go
//
// HTTP server wiring for the pouch backend.
// Responsibilities:
//   - Router + middleware (request IDs, access log, panic recovery, timeouts,
//     JSON content type, CORS).
//   - Public endpoints: "/", "/health", "/ready".
//   - Puzzle endpoints under /api (see routes_daily.go).
//
// Notes:
//   - CORS allows the configured origins without credentials; the puzzle
//     has no player sessions or cookies.
//   - The clock and puzzle location are injected so "today" is testable.

package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/pouch/internal/daily"
	"github.com/robalobadob/pouch/internal/store"
)

// Options tunes the server. Zero values fall back to sane defaults.
type Options struct {
	Location       *time.Location
	Origins        []string
	RequestTimeout time.Duration
}

// Server bundles router, store and the daily resolver.
type Server struct {
	r        *chi.Mux
	store    store.Store
	resolver *daily.Resolver
	loc      *time.Location
	now      func() time.Time
}

// New constructs a Server, installs middleware, and registers routes.
func New(st store.Store, resolver *daily.Resolver, opts Options) *Server {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if len(opts.Origins) == 0 {
		opts.Origins = []string{"*"}
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 10 * time.Second
	}

	s := &Server{
		r:        chi.NewRouter(),
		store:    st,
		resolver: resolver,
		loc:      opts.Location,
		now:      time.Now,
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(accessLog)
	s.r.Use(chimw.Recoverer)
	s.r.Use(chimw.Timeout(opts.RequestTimeout))
	s.r.Use(jsonContentType)
	s.r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.Origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"pouch","endpoints":["/health","/ready","GET /api/items","POST /api/guess"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	s.r.Get("/ready", s.handleReady)

	s.mountPuzzle(s.r)

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "not_found", "path": r.URL.Path})
	})

	return s
}

// Router exposes the internal router (useful for tests and http.Server).
func (s *Server) Router() chi.Router { return s.r }

// today is the puzzle date key for the current instant.
func (s *Server) today() string { return daily.DateKey(s.now(), s.loc) }

// handleReady reports whether the store answers a ping.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.store.Ping(ctx); err != nil {
		log.Warn().Err(err).Msg("readiness check failed")
		http.Error(w, `{"ready":false}`, http.StatusServiceUnavailable)
		return
	}
	_, _ = w.Write([]byte(`{"ready":true}`))
}

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// accessLog writes one zerolog line per request.
func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("request_id", chimw.GetReqID(r.Context())).
				Str("remote_addr", r.RemoteAddr).
				Msg("http request")
		}()

		next.ServeHTTP(ww, r)
	})
}
