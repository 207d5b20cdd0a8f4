// Package app wires configuration, storage and price sources into the
// services shared by the HTTP server and the catalogctl tool.
package app

import (
	"context"
	"fmt"
	"time"

	"collectibles-vault/internal/catalog"
	"collectibles-vault/internal/config"
	"collectibles-vault/internal/database"
	"collectibles-vault/internal/logger"
	"collectibles-vault/internal/pricing"
	"collectibles-vault/internal/refresh"
	"collectibles-vault/internal/services"
	"collectibles-vault/internal/snapshot"
	"collectibles-vault/internal/valuation"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type App struct {
	Cfg        *config.Config
	Log        *logger.Logger
	DB         *gorm.DB
	Redis      *redis.Client
	Registry   *pricing.Registry
	Catalog    *catalog.Store
	Snapshots  *snapshot.Store
	Estimator  *valuation.Estimator
	Aggregator *valuation.Aggregator
	Sampler    *refresh.Sampler
}

func New(cfg *config.Config, log *logger.Logger) (*App, error) {
	log = logger.OrNop(log)

	db, err := database.Initialize(cfg.DatabaseURL, log)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}

	rdb := connectRedis(cfg.RedisURL, log)
	var cache pricing.Cache
	if rdb != nil {
		cache = rdb
	}

	registry := services.NewRegistry(cfg, cache, log)
	cat := catalog.NewStore(db, log)
	snaps := snapshot.NewStore(db, log)
	agg := valuation.NewAggregator(cat, snaps, registry, cfg.QuoteWorkers, log)

	return &App{
		Cfg:        cfg,
		Log:        log,
		DB:         db,
		Redis:      rdb,
		Registry:   registry,
		Catalog:    cat,
		Snapshots:  snaps,
		Estimator:  valuation.NewEstimator(registry, cfg.QuoteWorkers, log).WithDefaultCurrency(cfg.RefCurrency),
		Aggregator: agg,
		Sampler: refresh.NewSampler(cat, agg, refresh.Options{
			Workers:  cfg.QuoteWorkers,
			Batch:    cfg.RefreshBatch,
			Interval: cfg.RefreshInterval,
		}, log).WithToday(snaps.Today),
	}, nil
}

// connectRedis returns nil when REDIS_URL is unset or unreachable; quotes are
// then fetched without a shared cache.
func connectRedis(url string, log *logger.Logger) *redis.Client {
	if url == "" {
		return nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		log.Warn("invalid REDIS_URL, quote cache disabled", "error", err.Error())
		return nil
	}
	rdb := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("redis unreachable, quote cache disabled", "addr", opts.Addr, "error", err.Error())
		_ = rdb.Close()
		return nil
	}
	log.Info("quote cache connected", "addr", opts.Addr)
	return rdb
}

func (a *App) Close() {
	a.Sampler.Stop()
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
