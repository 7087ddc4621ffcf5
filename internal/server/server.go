// Package server provides the HTTP API for VetaCV.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Jamesybdp/VetaCV-AI/internal/archive"
	"github.com/Jamesybdp/VetaCV-AI/internal/config"
	"github.com/Jamesybdp/VetaCV-AI/internal/export"
	"github.com/Jamesybdp/VetaCV-AI/internal/generate"
	"github.com/Jamesybdp/VetaCV-AI/internal/health"
	"github.com/Jamesybdp/VetaCV-AI/internal/refine"
	"github.com/Jamesybdp/VetaCV-AI/internal/repair"
	"github.com/Jamesybdp/VetaCV-AI/internal/storage"
)

// Server is the HTTP server for the VetaCV API.
type Server struct {
	refiner   *refine.Service
	generator generate.Generator
	exporter  *export.Orchestrator
	repairer  *repair.Repairer
	scorer    *health.Scorer
	storage   storage.Storage
	archive   *archive.Index
	config    *config.Config
	logger    *zap.Logger
	server    *http.Server
}

// NewServer creates a server with the given dependencies. archive may be nil
// when the archive index is disabled.
func NewServer(
	refiner *refine.Service,
	gen generate.Generator,
	exporter *export.Orchestrator,
	repairer *repair.Repairer,
	scorer *health.Scorer,
	store storage.Storage,
	idx *archive.Index,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		refiner:   refiner,
		generator: gen,
		exporter:  exporter,
		repairer:  repairer,
		scorer:    scorer,
		storage:   store,
		archive:   idx,
		config:    cfg,
		logger:    logger,
	}
}

// Router builds the chi router with all routes registered.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/documents", s.handleDraft)
	r.Get("/api/v1/sessions/{id}", s.handleGetSession)
	r.Delete("/api/v1/sessions/{id}", s.handleDeleteSession)
	r.Post("/api/v1/sessions/{id}/refine", s.handleRefine)
	r.Post("/api/v1/sessions/{id}/undo", s.handleUndo)
	r.Post("/api/v1/sessions/{id}/redo", s.handleRedo)
	r.Post("/api/v1/sessions/{id}/export", s.handleExport)
	r.Get("/api/v1/sessions/{id}/outcomes", s.handleOutcomes)
	r.Post("/api/v1/repair", s.handleRepair)
	r.Post("/api/v1/archive", s.handleArchiveSave)
	r.Get("/api/v1/archive", s.handleArchiveList)
	r.Get("/api/v1/archive/search", s.handleArchiveSearch)
	r.Get("/api/v1/archive/{id}", s.handleArchiveGet)
	r.Delete("/api/v1/archive/{id}", s.handleArchiveDelete)
	r.Post("/api/v1/jobs", s.handleJobCreate)
	r.Get("/api/v1/jobs", s.handleJobList)
	r.Get("/api/v1/jobs/{id}", s.handleJobGet)
	r.Patch("/api/v1/jobs/{id}", s.handleJobUpdate)
	r.Delete("/api/v1/jobs/{id}", s.handleJobDelete)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)

	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	s.refiner.Flush()
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
