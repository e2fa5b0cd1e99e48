// Package server provides the HTTP dashboard and JSON API for bibliodash.
package server

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/hyperjump/bibliodash/internal/catalog"
	"github.com/hyperjump/bibliodash/internal/config"
	"github.com/hyperjump/bibliodash/internal/dashboard"
	"github.com/hyperjump/bibliodash/internal/metrics"
	"github.com/hyperjump/bibliodash/internal/storage"
	"go.uber.org/zap"
)

// Server is the HTTP server for the dashboard and its API.
type Server struct {
	catalog   *catalog.Catalog
	builder   *dashboard.Builder
	storage   storage.Storage
	config    *config.Config
	logger    *zap.Logger
	templates *template.Template
	started   time.Time
	server    *http.Server
}

// NewServer creates a server with the given dependencies. store may be nil, in
// which case the saved view endpoints answer 501.
func NewServer(cat *catalog.Catalog, store storage.Storage, cfg *config.Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		catalog: cat,
		builder: dashboard.NewBuilder(cfg.Dashboard),
		storage: store,
		config:  cfg,
		logger:  logger,
		started: time.Now(),
	}
	s.templates = template.Must(template.New("page").Funcs(s.funcMap()).Parse(tmplBase + tmplTab))
	return s
}

// Router returns the HTTP handler with every route mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))
	r.Use(metrics.Middleware)

	r.Get("/", s.handleIndex)
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/datasets/{name}", func(r chi.Router) {
		r.Get("/", s.handleTab)
		r.Get("/charts/{chart}.{format}", s.handleChart)
		r.Get("/export.{format}", s.handleExport)
	})
	r.Get("/views/{id}", s.handleOpenView)

	r.Route("/api/v1", func(r chi.Router) {
		if len(s.config.Server.CORSOrigins) > 0 {
			r.Use(cors.Handler(cors.Options{
				AllowedOrigins: s.config.Server.CORSOrigins,
				AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
				AllowedHeaders: []string{"Accept", "Content-Type", "If-None-Match"},
				ExposedHeaders: []string{"ETag"},
				MaxAge:         300,
			}))
		}
		if s.config.Server.RateLimit > 0 {
			r.Use(httprate.LimitByIP(s.config.Server.RateLimit, time.Minute))
		}

		r.Get("/status", s.handleStatus)
		r.Get("/datasets", s.handleListDatasets)
		r.Route("/datasets/{name}", func(r chi.Router) {
			r.Get("/", s.handleGetDataset)
			r.Get("/summary", s.handleSummary)
			r.Get("/books", s.handleBooks)
			r.Get("/options", s.handleOptions)
			r.Get("/loads", s.handleLoads)
			r.Post("/reload", s.handleReload)
		})

		r.Get("/views", s.handleListViews)
		r.Post("/views", s.handleCreateView)
		r.Get("/views/{id}", s.handleGetView)
		r.Put("/views/{id}", s.handleUpdateView)
		r.Delete("/views/{id}", s.handleDeleteView)
	})
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr), zap.Strings("datasets", s.catalog.Names()))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
