package app

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"charge-costs/internal/config"
	"charge-costs/internal/pricing/fixedweekly"
	"charge-costs/internal/provider"
	"charge-costs/internal/reconcile"
	"charge-costs/internal/scheduler"
	"charge-costs/internal/service"
	"charge-costs/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) reconcileOptions() reconcile.Options {
	cfg := a.Config.Reconcile
	return reconcile.Options{
		FeePerKwh:            decimal.NewFromFloat(cfg.FeePerKwh),
		Phases:               cfg.Phases,
		StartTolerance:       time.Duration(cfg.MatchingStartToleranceMins) * time.Minute,
		EndTolerance:         time.Duration(cfg.MatchingEndToleranceMins) * time.Minute,
		EnergyToleranceRatio: decimal.NewFromFloat(cfg.MatchingEnergyRatio),
	}
}

// newReconciler resolves the configured pricing capability once and returns
// the matching reconciler. An invalid weekly tariff or zone fails here,
// before the service ever starts.
func (a *App) newReconciler() (reconcile.Reconciler, error) {
	opts := a.reconcileOptions()

	switch a.Config.Pricing.Provider {
	case config.ProviderFixedWeekly:
		cfg := a.Config.Pricing.FixedWeekly
		schedule, err := fixedweekly.New(cfg.Prices, cfg.TimeZone)
		if err != nil {
			return nil, fmt.Errorf("compile weekly tariff: %w", err)
		}
		return reconcile.NewInterval(schedule, opts, a.Logger), nil

	case config.ProviderAwattar:
		cfg := a.Config.Pricing.Awattar
		source := provider.NewAwattar(provider.AwattarOptions{
			BaseURL: cfg.BaseURL,
			Timeout: cfg.RequestTimeout,
		}, a.Logger)
		return reconcile.NewInterval(source, opts, a.Logger), nil

	case config.ProviderMonta:
		cfg := a.Config.Pricing.Monta
		source := provider.NewMonta(provider.MontaOptions{
			BaseURL:       cfg.BaseURL,
			ClientID:      cfg.ClientID,
			ClientSecret:  cfg.ClientSecret,
			ChargePointID: cfg.ChargePointID,
			Timeout:       cfg.RequestTimeout,
		}, a.Logger)
		return reconcile.NewWholeCharge(source, opts, a.Logger), nil

	default:
		return nil, fmt.Errorf("unknown pricing provider %q", a.Config.Pricing.Provider)
	}
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

// Run executes the long-running reconciliation service.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	reconciler, err := a.newReconciler()
	if err != nil {
		return err
	}

	sched := scheduler.New(scheduler.Options{
		Interval:     a.Config.Scheduler.Interval,
		StartupDelay: a.Config.Scheduler.StartupDelay,
	}, a.Logger)

	svc := service.New(a.Config, sched, store, reconciler, a.Logger)

	a.Logger.Info().Str("provider", a.Config.Pricing.Provider).Msg("starting reconciliation service")
	err = svc.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("service terminated with error")
		return err
	}

	a.Logger.Info().Msg("reconciliation service stopped")
	return nil
}

// ExportOptions hold parameters for exporting costed sessions.
type ExportOptions struct {
	From      *time.Time
	To        *time.Time
	PNGPath   string
	CSVPath   string
	MaxPoints int
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Limit int
}
