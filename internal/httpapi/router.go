// internal/httpapi/router.go
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"apartment-search/internal/common/errors"
	"apartment-search/internal/common/logger"
	"apartment-search/internal/search/pipeline"
	"apartment-search/internal/storage/profiles"
	"apartment-search/internal/storage/searches"
	"apartment-search/internal/storage/tours"
)

// Server exposes the search pipeline and its supporting repositories over
// HTTP. Callers identify themselves with the X-User-ID header; account
// authentication happens upstream.
type Server struct {
	pipeline   *pipeline.Pipeline
	profiles   *profiles.Repository
	searches   *searches.Repository
	tours      *tours.Repository
	errHandler *errors.ErrorHandler
	readiness  []ReadinessCheck
	logger     logger.Logger
}

// ReadinessCheck is one named dependency probe for /ready.
type ReadinessCheck struct {
	Name  string
	Check func() error
}

func NewServer(
	p *pipeline.Pipeline,
	profileRepo *profiles.Repository,
	searchRepo *searches.Repository,
	tourRepo *tours.Repository,
	readiness []ReadinessCheck,
	log logger.Logger,
) *Server {
	return &Server{
		pipeline:   p,
		profiles:   profileRepo,
		searches:   searchRepo,
		tours:      tourRepo,
		errHandler: errors.NewErrorHandler(log),
		readiness:  readiness,
		logger:     log.WithFields(map[string]interface{}{"component": "http-api"}),
	}
}

// Router builds the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))
	r.Use(s.requestLogger)

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(s.requireUserID)

		r.Post("/search", s.handleSearch)
		r.Get("/history", s.handleHistory)

		r.Route("/saved-searches", func(r chi.Router) {
			r.Get("/", s.handleListSavedSearches)
			r.Post("/", s.handleSaveSearch)
			r.Delete("/{id}", s.handleDeleteSavedSearch)
		})

		r.Route("/tours", func(r chi.Router) {
			r.Get("/", s.handleListTours)
			r.Post("/", s.handleCreateTour)
			r.Delete("/{id}", s.handleDeleteTour)
		})

		r.Route("/profile", func(r chi.Router) {
			r.Get("/", s.handleGetProfile)
			r.Put("/", s.handlePutProfile)
		})
	})

	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request", map[string]interface{}{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"durationMs": time.Since(start).Milliseconds(),
		})
	})
}
