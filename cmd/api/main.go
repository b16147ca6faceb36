package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	httpadp "credit-ledger/internal/adapter/http"
	idem "credit-ledger/internal/adapter/middleware"
	"credit-ledger/internal/app"
	"credit-ledger/internal/config"
	"credit-ledger/internal/infrastructure/cache"
	"credit-ledger/internal/infrastructure/db"
	"credit-ledger/pkg/clock"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid config", "err", err)
		os.Exit(1)
	}

	gdb, err := db.OpenGorm(cfg.MySQLDSN())
	if err != nil {
		log.Error("open mysql", "err", err)
		os.Exit(1)
	}
	if err := db.Migrate(gdb); err != nil {
		log.Error("migrate", "err", err)
		os.Exit(1)
	}
	rdb, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		log.Error("open redis", "err", err)
		os.Exit(1)
	}

	clk := clock.System()
	a := app.New(cfg, gdb, rdb, clk, log)
	defer a.Close()

	e := echo.New()
	e.HideBanner = true
	e.JSONSerializer = httpadp.JSONSerializer{}
	e.Validator = httpadp.NewValidator()
	e.Use(middleware.Logger(), middleware.Recover())

	sqlDB, _ := gdb.DB()
	httpadp.Register(e, httpadp.Handlers{
		Health: httpadp.NewHandler(map[string]httpadp.Check{
			"mysql": sqlDB.PingContext,
			"redis": func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		}),
		Proposals: httpadp.NewProposalHandler(a.Proposals),
		Credits:   httpadp.NewCreditHandler(a.Payments, clk),
		Admin:     httpadp.NewAdminHandler(a.Payments, a.Proposals, a.SweepLock),
	}, idem.Idempotency(rdb, cfg.IdempotencyTTL(), log.With("component", "idempotency")))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := ":" + cfg.AppPort
	go func() {
		log.Info("listening", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", "err", err)
	}
}
