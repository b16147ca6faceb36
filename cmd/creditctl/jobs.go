package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"credit-ledger/internal/app"
	"credit-ledger/internal/domain/party"
	"credit-ledger/internal/infrastructure/cache"
)

func sweepCmd(withApp runner) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Mark overdue unpaid installments of active credits as MISSED",
		Long: `Re-evaluates every ACTIVE credit against today's date (UTC).
Only one sweep runs at a time; a second invocation exits with an error
while the first still holds the run lock.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) (any, error) {
				release, err := a.SweepLock(ctx)
				if errors.Is(err, cache.ErrLockHeld) {
					return nil, fmt.Errorf("sweep already running: %w", err)
				}
				if err != nil {
					return nil, err
				}
				defer func() { _ = release(context.WithoutCancel(ctx)) }()
				return a.Payments.Sweep(ctx)
			})
		},
	}
}

func expireCmd(withApp runner) *cobra.Command {
	return &cobra.Command{
		Use:   "expire",
		Short: "Close open proposal chains whose latest version is past its expiry date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) (any, error) {
				return a.Proposals.ExpireStale(ctx)
			})
		},
	}
}

type reconcileResult struct {
	Handle     string `json:"handle"`
	AccountID  string `json:"account_id"`
	Registered bool   `json:"registered"`
	Reassigned int64  `json:"reassigned"`
}

func reconcileCmd(withApp runner) *cobra.Command {
	var (
		handle, accountID string
		register          bool
	)
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Hand proposals waiting on a contact handle to the account that registered it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) (any, error) {
				res := reconcileResult{AccountID: accountID}
				if register {
					normalized, err := party.NormalizeHandle(handle, a.Proposals.DialCode())
					if err != nil {
						return nil, err
					}
					if err := a.Directory.Register(ctx, accountID, normalized); err != nil {
						return nil, err
					}
					res.Registered = true
				}
				n, err := a.Proposals.ReconcileHandle(ctx, handle, accountID)
				if err != nil {
					return nil, err
				}
				res.Handle = handle
				res.Reassigned = n
				return res, nil
			})
		},
	}
	cmd.Flags().StringVar(&handle, "handle", "", "contact handle the account registered with")
	cmd.Flags().StringVar(&accountID, "account", "", "account id to assign")
	cmd.Flags().BoolVar(&register, "register", false, "also add the handle to the account directory")
	_ = cmd.MarkFlagRequired("handle")
	_ = cmd.MarkFlagRequired("account")
	return cmd
}
