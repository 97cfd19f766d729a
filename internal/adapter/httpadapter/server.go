package httpadapter

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/SurawutP/Projectpm2.5/internal/domain"
	"github.com/SurawutP/Projectpm2.5/internal/session"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Sessions is the session surface the API drives. *session.Session implements it.
type Sessions interface {
	sharedobs.ReadinessChecker

	AddSite(coord domain.Coordinate) (domain.Site, error)
	RemoveSite(id string) error
	SelectSite(id string) error
	SetArea(id string, areaRai float64) error
	MoveSite(id string, coord domain.Coordinate) error
	SetSchedule(date time.Time, hour int) error
	Simulate(ctx context.Context, id string) (domain.SimulationResult, error)
	Clear()
	Site(id string) (domain.Site, error)
	Snapshot() session.Snapshot
}

// Server exposes the session JSON API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	sessions   Sessions
	location   *time.Location
	logger     *slog.Logger
}

// NewServer creates an HTTP server over sessions. Schedule dates in requests
// are interpreted in loc.
func NewServer(addr string, sessions Sessions, loc *time.Location, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      45 * time.Second, // simulate waits on the forecast API
			IdleTimeout:       60 * time.Second,
		},
		sessions: sessions,
		location: loc,
		logger:   logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(sessions))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/session", s.handleSnapshot)
	mux.HandleFunc("PUT /api/schedule", s.handleSetSchedule)
	mux.HandleFunc("POST /api/clear", s.handleClear)
	mux.HandleFunc("GET /api/levels", s.handleLevels)

	mux.HandleFunc("POST /api/sites", s.handleAddSite)
	mux.HandleFunc("GET /api/sites/{id}", s.handleGetSite)
	mux.HandleFunc("DELETE /api/sites/{id}", s.handleRemoveSite)
	mux.HandleFunc("PUT /api/sites/{id}/area", s.handleSetArea)
	mux.HandleFunc("PUT /api/sites/{id}/coordinate", s.handleMoveSite)
	mux.HandleFunc("POST /api/sites/{id}/select", s.handleSelectSite)
	mux.HandleFunc("POST /api/sites/{id}/simulate", s.handleSimulate)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}
