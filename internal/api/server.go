// Package api exposes the scheduling service over HTTP for the club
// administration dashboard.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"clubspace/internal/service"
	"clubspace/internal/store"
)

// HTTPServer serves the dashboard API.
type HTTPServer struct {
	server *http.Server
	svc    *service.SchedulingService
	db     *store.Store
	log    zerolog.Logger
	apiKey string

	cache    *redis.Client
	cacheTTL time.Duration
}

// Options configures the server beyond its collaborators.
type Options struct {
	ListenAddr string
	APIKey     string

	// RateRPS/RateBurst bound requests per client IP. Zero disables limiting.
	RateRPS   float64
	RateBurst int
}

// NewHTTPServer wires routes and middleware. cache may be nil; day views
// are then always computed from the store.
func NewHTTPServer(svc *service.SchedulingService, db *store.Store, log zerolog.Logger, opts Options) *HTTPServer {
	s := &HTTPServer{
		svc:    svc,
		db:     db,
		log:    log,
		apiKey: opts.APIKey,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/reservations", s.handleReservations)
	mux.HandleFunc("/api/v1/reservations/", s.handleReservationByRef)
	mux.HandleFunc("/api/v1/spaces", s.handleSpaces)
	mux.HandleFunc("/api/v1/spaces/", s.handleSpaceSubresource)
	mux.HandleFunc("/api/v1/courses/schedules", s.handleCourseSchedules)
	mux.HandleFunc("/api/v1/reports/reservations", s.handleReservationsReport)

	var handler http.Handler = mux
	if opts.RateRPS > 0 {
		limiter := newIPRateLimiter(opts.RateRPS, opts.RateBurst)
		handler = limiter.Limit(handler)
	}
	handler = s.requireAPIKey(handler)

	s.server = &http.Server{
		Addr:         opts.ListenAddr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// UseRedisCache enables read caching of day views.
func (s *HTTPServer) UseRedisCache(client *redis.Client, ttl time.Duration) {
	s.cache = client
	s.cacheTTL = ttl
}

// Handler returns the configured root handler, for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

// Start serves until the listener fails or Shutdown is called.
func (s *HTTPServer) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("api server listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey != "" && r.Header.Get("X-API-Key") != s.apiKey {
			writeError(w, http.StatusUnauthorized, "invalid or missing API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
