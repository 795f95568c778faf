// Kestrel - Deterministic credit scoring and microloan decisioning.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/opencredit-finance/kestrel/internal/api"
	"github.com/opencredit-finance/kestrel/internal/bus"
	"github.com/opencredit-finance/kestrel/internal/cache"
	"github.com/opencredit-finance/kestrel/internal/domain"
	"github.com/opencredit-finance/kestrel/internal/lender"
	"github.com/opencredit-finance/kestrel/internal/repository"
	"github.com/opencredit-finance/kestrel/internal/rules"
	"github.com/opencredit-finance/kestrel/internal/worker"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	// Initialize structured logger
	logLevel := slog.LevelInfo
	if os.Getenv("KESTREL_DEBUG") == "true" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Log startup
	slog.Info("starting kestrel",
		"version", Version,
		"commit", Commit,
		"build_date", BuildDate,
	)

	// Load configuration
	cfg := domain.DefaultConfig()

	// Check for cluster profile via environment
	if os.Getenv("KESTREL_PROFILE") == "cluster" {
		cfg = domain.ClusterConfig()
		slog.Info("running in cluster profile")
	}

	slog.Info("configuration loaded",
		"repository", cfg.Repository.Driver,
		"cache", cfg.Cache.Type,
		"eventbus", cfg.EventBus.Type,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Initialize Repository
	repo, err := repository.New(cfg.Repository)
	if err != nil {
		slog.Error("failed to initialize repository", "error", err)
		os.Exit(1)
	}
	defer repo.Close()
	slog.Info("repository initialized", "driver", cfg.Repository.Driver)

	// Initialize Cache
	cacheImpl, err := cache.New(cfg.Cache)
	if err != nil {
		slog.Error("failed to initialize cache", "error", err)
		os.Exit(1)
	}
	defer cacheImpl.Close()
	slog.Info("cache initialized", "type", cfg.Cache.Type)

	// Initialize EventBus
	busImpl, err := bus.New(cfg.EventBus)
	if err != nil {
		slog.Error("failed to initialize event bus", "error", err)
		os.Exit(1)
	}
	defer busImpl.Close()
	slog.Info("event bus initialized", "type", cfg.EventBus.Type)

	// Initialize Flag Rule Engine
	engine, err := rules.NewEngine()
	if err != nil {
		slog.Error("failed to initialize flag rule engine", "error", err)
		os.Exit(1)
	}

	// Load flag rules from database (no hardcoded defaults - configure via API)
	if err := loadFlagRulesFromDatabase(ctx, repo, engine); err != nil {
		slog.Error("failed to load flag rules", "error", err)
		os.Exit(1)
	}
	slog.Info("flag rule engine initialized", "rules_count", engine.RulesCount())

	// Seed the demo roster
	if cfg.SeedDemoData {
		if err := lender.Seed(ctx, repo); err != nil {
			slog.Error("failed to seed demo roster", "error", err)
			os.Exit(1)
		}
		slog.Info("demo roster seeded")
	}

	// Initialize Lender Service
	lenderSvc := lender.NewService(repo, busImpl)
	slog.Info("lender service initialized")

	// Initialize async write-behind worker
	asyncWorker := worker.NewWorker(busImpl, repo, cacheImpl, cfg.Cache.LocalTTL)
	if err := asyncWorker.Start(); err != nil {
		slog.Error("failed to start async worker", "error", err)
	}

	// Initialize Server
	srv := api.NewServer(cfg.Server, repo, cacheImpl, busImpl, engine, lenderSvc, Version)

	// Start Server in goroutine
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("kestrel is ready",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	printBanner(cfg, Version)

	// Wait for shutdown signal
	<-ctx.Done()
	slog.Info("shutting down...")

	// Stop async worker first
	if err := asyncWorker.Stop(); err != nil {
		slog.Error("failed to stop async worker", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("kestrel shutdown complete")
}

// loadFlagRulesFromDatabase loads flag rules from the database into the
// engine. All rules are configured via POST /rules - no hardcoded
// defaults.
func loadFlagRulesFromDatabase(ctx context.Context, repo domain.Repository, engine *rules.Engine) error {
	dbRules, err := repo.ListFlagRules(ctx)
	if err != nil {
		slog.Warn("failed to list flag rules from database", "error", err)
		return nil // Start with empty rules - they can be added via API
	}

	if len(dbRules) > 0 {
		slog.Info("loading flag rules from database", "count", len(dbRules))
		return engine.LoadRules(dbRules)
	}

	slog.Info("no flag rules in database - configure via POST /rules API")
	return nil
}

func printBanner(cfg *domain.Config, version string) {
	fmt.Println()
	fmt.Println("  KESTREL - Credit Scoring & Microloan Decisioning")
	fmt.Println()
	fmt.Printf("  Version:  %s\n", version)
	fmt.Printf("  Server:   http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println()
	fmt.Println("  Endpoints:")
	fmt.Println("    POST /normalize                   - Normalize raw tabular data")
	fmt.Println("    POST /features                    - Extract behavioral features")
	fmt.Println("    POST /score/features              - Score a feature vector (0-100)")
	fmt.Println("    POST /score/parameters            - Score risk parameters (300-900)")
	fmt.Println("    POST /limits                      - Recommend a credit limit")
	fmt.Println("    POST /loans/decide                - Underwrite a microloan")
	fmt.Println("    POST /scenarios/compare           - What-if score comparison")
	fmt.Println("    POST /statements/csv              - Ingest a CSV statement")
	fmt.Println("    GET  /borrowers                   - List the borrower roster")
	fmt.Println("    GET  /borrowers/{id}              - Borrower detail + analytics")
	fmt.Println("    POST /borrowers/{id}/decision     - Approve or decline")
	fmt.Println("    GET  /rules                       - List flag rules")
	fmt.Println("    POST /rules                       - Create a flag rule")
	fmt.Println("    POST /rules/reload                - Hot-reload flag rules")
	fmt.Println("    GET  /health                      - Health check")
	fmt.Println()
}
