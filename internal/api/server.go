package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/opencredit-finance/kestrel/internal/domain"
	"github.com/opencredit-finance/kestrel/internal/lender"
	"github.com/opencredit-finance/kestrel/internal/rules"
)

// Server represents the HTTP API server.
type Server struct {
	router  *chi.Mux
	handler *Handler
	server  *http.Server
	config  domain.ServerConfig
}

// NewServer creates a new API server.
func NewServer(cfg domain.ServerConfig, repo domain.Repository, cache domain.Cache, bus domain.EventBus, engine *rules.Engine, lenderSvc *lender.Service, version string) *Server {
	handler := NewHandler(repo, cache, bus, engine, lenderSvc, version)
	router := chi.NewRouter()

	// Global middleware stack
	router.Use(CORSMiddleware)         // CORS for browser clients
	router.Use(RecoverMiddleware)      // Recover from panics
	router.Use(TracingMiddleware)      // OpenTelemetry tracing
	router.Use(LoggingMiddleware)      // Request logging
	router.Use(middleware.RealIP)      // Extract real IP
	router.Use(middleware.Compress(5)) // Gzip compression

	// Health endpoints
	router.Get("/health", handler.Health)
	router.Get("/ready", handler.Ready)

	// Scoring pipeline
	router.Post("/normalize", handler.Normalize)
	router.Post("/features", handler.ExtractFeatures)
	router.Post("/score/features", handler.ScoreFeatures)
	router.Post("/score/parameters", handler.ScoreParameters)
	router.Post("/limits", handler.RecommendLimit)
	router.Post("/scenarios/compare", handler.CompareScenario)

	// Loan underwriting
	router.Post("/loans/decide", handler.DecideLoan)

	// Statement ingestion
	router.Post("/statements/csv", handler.IngestStatement)

	// Lender portal roster
	router.Get("/borrowers", handler.ListBorrowers)
	router.Get("/borrowers/{id}", handler.GetBorrower)
	router.Get("/borrowers/{id}/transactions", handler.ListBorrowerTransactions)
	router.Post("/borrowers/{id}/score", handler.ScoreBorrower)
	router.Post("/borrowers/{id}/decision", handler.DecideBorrower)

	// Flag rule management
	router.Get("/rules", handler.ListRules)
	router.Get("/rules/{id}", handler.GetRule)
	router.Post("/rules", handler.CreateRule)
	router.Delete("/rules/{id}", handler.DeleteRule)
	router.Post("/rules/reload", handler.ReloadRules)

	return &Server{
		router:  router,
		handler: handler,
		config:  cfg,
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.config.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.config.WriteTimeout) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the Chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Handler returns the handler for testing.
func (s *Server) Handler() *Handler {
	return s.handler
}
