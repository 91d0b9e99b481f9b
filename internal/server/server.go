package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/lazypower/reprise/internal/engine"
	"github.com/rs/cors"
)

// Server is the reprise HTTP API server.
type Server struct {
	engine   *engine.Engine
	router   chi.Router
	version  string
	started  time.Time
	logger   *slog.Logger
	origins  []string
	validate *validator.Validate
	now      func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and handler logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithCORSOrigins allows browser clients from the given origins.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) { s.origins = origins }
}

// WithClock overrides time.Now for request handling.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New creates a new Server around the engine.
func New(eng *engine.Engine, version string, opts ...Option) *Server {
	s := &Server{
		engine:   eng,
		version:  version,
		started:  time.Now(),
		logger:   slog.Default(),
		validate: validator.New(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	if len(s.origins) > 0 {
		r.Use(cors.New(cors.Options{
			AllowedOrigins: s.origins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type"},
			MaxAge:         300,
		}).Handler)
	}
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Post("/items", s.handleCreateItem)
		r.Get("/items/{id}", s.handleGetItem)
		r.Post("/items/{id}/review", s.handleReview)
		r.Get("/items/{id}/preview", s.handlePreview)
		r.Get("/items/{id}/metrics", s.handleMetrics)
		r.Post("/items/{id}/treatment", s.handleTreatment)
		r.Get("/due", s.handleDue)
		r.Get("/leeches", s.handleLeeches)

		r.Post("/documents", s.handleCreateDocument)
		r.Get("/documents/next", s.handleNextDocuments)
		r.Post("/documents/{id}/read", s.handleRead)
		r.Post("/documents/{id}/priority", s.handleDocumentPriority)
		r.Post("/documents/{id}/extracts", s.handleAddExtract)
		r.Post("/documents/{id}/highlights", s.handleAddHighlight)

		r.Get("/queue", s.handleQueue)
		r.Get("/queue/stats", s.handleQueueStats)
		r.Get("/analytics/session", s.handleSession)
		r.Post("/maintenance/priority", s.handleMaintenance)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	db := s.engine.DB
	dbOK := true
	if err := db.PingContext(r.Context()); err != nil {
		dbOK = false
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.started).Seconds(),
		"db":      dbOK,
		"db_path": db.Path,
	})
}
