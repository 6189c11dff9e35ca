// backend-go/cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/restoklabs/restok/backend-go/internal/api"
	"github.com/restoklabs/restok/backend-go/internal/cache"
	"github.com/restoklabs/restok/backend-go/internal/config"
	"github.com/restoklabs/restok/backend-go/internal/repository/postgres"
	"github.com/restoklabs/restok/backend-go/internal/service"
	"github.com/restoklabs/restok/backend-go/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	if cfg.Server.Mode == "debug" {
		logger.SetLevel("debug")
		gin.SetMode(gin.DebugMode)
	} else {
		logger.SetLevel("info")
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize database
	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.Migrate(ctx); err != nil {
		cancel()
		logger.Log.Fatal().Err(err).Msg("Failed to run migrations")
	}
	cancel()

	planCache, err := cache.NewPlanCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Plan cache unavailable, running without caching")
		planCache = cache.NewNoopPlanCache()
	}

	// Initialize repositories and services
	ledgerRepo := postgres.NewLedgerRepository(db)
	planningRepo := postgres.NewPlanningRepository(db)
	eventRepo := postgres.NewEventRepository(db)

	services := &api.Services{
		PlanningService: service.NewPlanningService(planningRepo, ledgerRepo, planCache, cfg.Planning),
		LedgerService:   service.NewLedgerService(ledgerRepo, planningRepo, eventRepo, planCache),
	}

	router := api.NewRouter(services, cfg.Server.AllowedOrigins)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
