package main

import (
	"context"
	"io"
	"log/slog"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"credit-ledger/internal/app"
	"credit-ledger/internal/config"
	"credit-ledger/internal/infrastructure/cache"
	"credit-ledger/internal/infrastructure/db"
	"credit-ledger/pkg/clock"
)

// opener builds the wired application and the func that tears it down;
// tests swap it for an in-memory one.
type opener func(ctx context.Context, envFile string, log *slog.Logger) (*app.App, func(), error)

func openFromEnv(ctx context.Context, envFile string, log *slog.Logger) (*app.App, func(), error) {
	var cfg *config.Config
	if envFile != "" {
		cfg = config.Load(envFile)
	} else {
		cfg = config.Load()
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	gdb, err := db.OpenGorm(cfg.MySQLDSN())
	if err != nil {
		return nil, nil, err
	}
	if err := db.Migrate(gdb); err != nil {
		return nil, nil, err
	}
	rdb, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		return nil, nil, err
	}
	a := app.New(cfg, gdb, rdb, clock.System(), log)
	return a, a.Close, nil
}

func rootCmd() *cobra.Command { return newRootCmd(openFromEnv) }

func newRootCmd(open opener) *cobra.Command {
	var envFile string
	root := &cobra.Command{
		Use:           "creditctl",
		Short:         "Batch jobs for the credit ledger",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file to load before reading the environment")

	// each job opens its own connections and closes them on exit
	withApp := func(cmd *cobra.Command, run func(ctx context.Context, a *app.App) (any, error)) error {
		log := slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), nil))
		a, closeApp, err := open(cmd.Context(), envFile, log)
		if err != nil {
			return err
		}
		defer closeApp()
		out, err := run(cmd.Context(), a)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), out)
	}

	root.AddCommand(sweepCmd(withApp))
	root.AddCommand(expireCmd(withApp))
	root.AddCommand(reconcileCmd(withApp))
	return root
}

type runner func(cmd *cobra.Command, run func(ctx context.Context, a *app.App) (any, error)) error

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
