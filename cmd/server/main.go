package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/permits/api/internal/compliance"
	"github.com/stwalsh4118/permits/api/internal/config"
	"github.com/stwalsh4118/permits/api/internal/database"
	"github.com/stwalsh4118/permits/api/internal/expert"
	"github.com/stwalsh4118/permits/api/internal/handlers"
	"github.com/stwalsh4118/permits/api/internal/logger"
	"github.com/stwalsh4118/permits/api/internal/repository"
	"github.com/stwalsh4118/permits/api/internal/services"
)

const (
	shutdownTimeout = 30 * time.Second
)

func main() {
	// Load configuration from environment variables
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewWithLevel(cfg.Server.Env, cfg.Server.LogLevel)
	log.Info("Starting permits API", map[string]interface{}{
		"version":     handlers.APIVersion,
		"environment": cfg.Server.Env,
		"port":        cfg.Server.Port,
		"data_store":  cfg.Store.Data,
		"check_store": cfg.Store.Checks,
	})

	ctx := context.Background()

	var db *database.Database
	if cfg.UsesPostgres() {
		db, err = database.NewPostgresPool(ctx, cfg.Database)
		if err != nil {
			log.Fatal("Failed to connect to database", err, map[string]interface{}{
				"host": cfg.Database.Host,
				"port": cfg.Database.Port,
				"name": cfg.Database.Name,
			})
		}
		defer db.Close()

		log.Info("Database connection established", map[string]interface{}{
			"host":     cfg.Database.Host,
			"port":     cfg.Database.Port,
			"database": cfg.Database.Name,
			"pool_min": cfg.Database.PoolMin,
			"pool_max": cfg.Database.PoolMax,
		})

		if cfg.Database.AutoMigrate {
			if err := db.Migrate(ctx); err != nil {
				log.Fatal("Failed to apply schema", err, nil)
			}
			log.Info("Database schema applied", nil)
		}
	}

	st, err := repository.OpenStores(ctx, cfg, db, log)
	if err != nil {
		log.Fatal("Failed to open stores", err, nil)
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Error("Failed to close stores", err, nil)
		}
	}()

	analyzer, guard := newAnalyzer(ctx, cfg, log)
	engine := compliance.NewEngine(st.Rules, analyzer, log.WithComponent("compliance"),
		compliance.WithGoalWorkers(cfg.Compliance.GoalWorkers))

	// Initialize service layer
	propertyService := services.NewPropertyService(st.Properties, log)
	permitService := services.NewPermitService(st.Permits, log)
	complianceService := services.NewComplianceService(services.ComplianceDeps{
		Properties:   propertyService,
		Permits:      permitService,
		Rules:        st.Rules,
		Checks:       st.Checks,
		Engine:       engine,
		HistoryLimit: cfg.Compliance.HistoryLimit,
	}, log)
	applicationService := services.NewApplicationService(services.ApplicationDeps{
		Repo:       st.Applications,
		Properties: propertyService,
		Permits:    permitService,
		Compliance: complianceService,
	}, log)

	// A nil *Database must not become a non-nil Pinger.
	var pinger handlers.Pinger
	if db != nil {
		pinger = db
	}
	healthHandler := handlers.NewHealthHandler(pinger, cfg.Server.Env, cfg.Store.Data)
	if guard != nil {
		healthHandler.WithExpert(guard)
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handlers.NewRouter(handlers.RouterConfig{
		Log:          log,
		Health:       healthHandler,
		Properties:   handlers.NewPropertyHandler(propertyService),
		Permits:      handlers.NewPermitHandler(permitService),
		Compliance:   handlers.NewComplianceHandler(complianceService),
		Goals:        handlers.NewGoalHandler(complianceService),
		Applications: handlers.NewApplicationHandler(applicationService),
		CORSOrigins:  cfg.CORS.Origins,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server listening", map[string]interface{}{
			"port": cfg.Server.Port,
			"addr": srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start", err, nil)
		}
	}()

	// Wait for interrupt signal (SIGINT or SIGTERM)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", err, map[string]interface{}{
			"timeout": shutdownTimeout.String(),
		})
	}

	log.Info("Server exited", nil)
}

// newAnalyzer returns the guarded Gemini analyzer, or expert.Unavailable when
// no API key is configured. The guard is nil in the latter case.
func newAnalyzer(ctx context.Context, cfg *config.Config, log *logger.Logger) (expert.Analyzer, *expert.Guard) {
	if cfg.Expert.APIKey == "" {
		log.Warn("GENAI_API_KEY not set, expert analysis disabled", nil)
		return expert.Unavailable{}, nil
	}

	gemini, err := expert.NewGeminiAnalyzer(ctx, cfg.Expert.APIKey, cfg.Expert.Model)
	if err != nil {
		log.Error("Failed to create expert analyzer, expert analysis disabled", err, nil)
		return expert.Unavailable{}, nil
	}

	guard := expert.NewGuard(gemini, expert.GuardConfig{
		Timeout:  cfg.Compliance.ExpertTimeout,
		Failures: cfg.Compliance.BreakerFailures,
		Cooldown: cfg.Compliance.BreakerCooldown,
	}, log.WithComponent("expert"))

	log.Info("Expert analysis enabled", map[string]interface{}{
		"model":   gemini.Model(),
		"timeout": cfg.Compliance.ExpertTimeout.String(),
	})
	return guard, guard
}
