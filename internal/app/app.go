// Package app wires repositories, usecases and adapters for the binaries.
package app

import (
	"context"
	"log/slog"

	"credit-ledger/internal/adapter/identity"
	repo "credit-ledger/internal/adapter/repository/mysql"
	"credit-ledger/internal/config"
	"credit-ledger/internal/infrastructure/cache"
	"credit-ledger/internal/usecase/activation"
	"credit-ledger/internal/usecase/payment"
	"credit-ledger/internal/usecase/proposal"
	"credit-ledger/pkg/clock"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const sweepLockKey = "lock:credit-sweep"

type App struct {
	DB    *gorm.DB
	Redis *redis.Client

	Directory *identity.DirectoryResolver
	Proposals *proposal.Usecase
	Payments  *payment.Usecase

	// SweepLock keeps the HTTP trigger and creditctl from sweeping at the same time.
	SweepLock func(ctx context.Context) (func(context.Context) error, error)
}

func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, clk clock.Clock, log *slog.Logger) *App {
	tx := repo.NewGormUoW(db)
	directory := identity.NewDirectoryResolver(db)
	resolver := identity.NewCachedResolver(directory, rdb, cfg.ResolverCacheTTL())
	engine := activation.NewEngine(tx, clk)

	return &App{
		DB:        db,
		Redis:     rdb,
		Directory: directory,
		Proposals: proposal.NewUsecase(repo.NewProposalRepository(db), tx, engine, resolver, clk, cfg.DialCode).
			WithLogger(log.With("component", "proposals")),
		Payments: payment.NewUsecase(repo.NewCreditRepository(db), clk).
			WithLogger(log.With("component", "payments")),
		SweepLock: cache.Guard(rdb, sweepLockKey, cfg.SweepLockTTL()),
	}
}

// Ping checks both backing stores.
func (a *App) Ping(ctx context.Context) error {
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return err
	}
	return a.Redis.Ping(ctx).Err()
}

// Close releases both connection pools.
func (a *App) Close() {
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = a.Redis.Close()
}
