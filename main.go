package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"collectibles-vault/internal/api"
	"collectibles-vault/internal/app"
	"collectibles-vault/internal/config"
	"collectibles-vault/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := config.Load()

	logg, err := logger.New(cfg.Environment)
	if err != nil {
		log.Fatal("Failed to init logger:", err)
	}
	defer logg.Sync()

	a, err := app.New(cfg, logg)
	if err != nil {
		logg.Fatal("startup failed", "error", err.Error())
	}
	defer a.Close()

	if cfg.Environment == "production" || cfg.Environment == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), api.CORS(cfg.CORSOrigins))

	handler := api.SetupRoutes(r.Group("/api/v1"), api.Deps{
		Catalog:    a.Catalog,
		Snapshots:  a.Snapshots,
		Estimator:  a.Estimator,
		Aggregator: a.Aggregator,
		Sampler:    a.Sampler,
		Log:        logg,
	}, api.NewAuth(cfg.JWTSecret, cfg.AdminUsernames, logg))
	r.GET("/health", handler.Health)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.Sampler.Start(ctx)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logg.Info("server starting", "port", cfg.Port, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Fatal("server error", "error", err.Error())
		}
	}()

	<-ctx.Done()
	logg.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logg.Error("graceful shutdown failed", "error", err.Error())
	}
}
