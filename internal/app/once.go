package app

import (
	"context"

	"charge-costs/internal/service"
)

// Once executes a single reconciliation pass and exits. Useful for cron-style
// deployments and for verifying a configuration change by hand.
func (a *App) Once(ctx context.Context) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	reconciler, err := a.newReconciler()
	if err != nil {
		return err
	}

	svc := service.New(a.Config, nil, store, reconciler, a.Logger)

	a.Logger.Info().Str("provider", a.Config.Pricing.Provider).Msg("running single reconciliation pass")
	return svc.ProcessBatch(ctx)
}
