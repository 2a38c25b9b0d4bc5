package app

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"charge-costs/internal/config"
	"charge-costs/internal/reconcile"
	"charge-costs/internal/storage"
)

func appWithProvider(t *testing.T, mutate func(*config.Config)) *App {
	t.Helper()
	cfg := &config.Config{}
	cfg.Reconcile.GeofenceID = 1
	mutate(cfg)
	return NewApp(cfg, zerolog.Nop())
}

func TestNewReconcilerFixedWeekly(t *testing.T) {
	a := appWithProvider(t, func(cfg *config.Config) {
		cfg.Pricing.Provider = config.ProviderFixedWeekly
		cfg.Pricing.FixedWeekly.Prices = []string{"Mon-Sun=0.05"}
		cfg.Pricing.FixedWeekly.TimeZone = "Etc/UTC"
	})

	r, err := a.newReconciler()
	require.NoError(t, err)
	require.IsType(t, &reconcile.IntervalReconciler{}, r)
}

func TestNewReconcilerFixedWeeklyInvalidTariff(t *testing.T) {
	a := appWithProvider(t, func(cfg *config.Config) {
		cfg.Pricing.Provider = config.ProviderFixedWeekly
		cfg.Pricing.FixedWeekly.Prices = []string{"Mon-Sat=0.05"}
		cfg.Pricing.FixedWeekly.TimeZone = "Etc/UTC"
	})

	_, err := a.newReconciler()
	require.ErrorContains(t, err, "compile weekly tariff")
}

func TestNewReconcilerAwattar(t *testing.T) {
	a := appWithProvider(t, func(cfg *config.Config) {
		cfg.Pricing.Provider = config.ProviderAwattar
		cfg.Pricing.Awattar.BaseURL = "https://api.awattar.de/v1"
	})

	r, err := a.newReconciler()
	require.NoError(t, err)
	require.IsType(t, &reconcile.IntervalReconciler{}, r)
}

func TestNewReconcilerMonta(t *testing.T) {
	a := appWithProvider(t, func(cfg *config.Config) {
		cfg.Pricing.Provider = config.ProviderMonta
		cfg.Pricing.Monta.ClientID = "id"
		cfg.Pricing.Monta.ClientSecret = "secret"
	})

	r, err := a.newReconciler()
	require.NoError(t, err)
	require.IsType(t, &reconcile.WholeChargeReconciler{}, r)
}

func TestNewReconcilerUnknownProvider(t *testing.T) {
	a := appWithProvider(t, func(cfg *config.Config) {
		cfg.Pricing.Provider = "tibber"
	})

	_, err := a.newReconciler()
	require.ErrorContains(t, err, "unknown pricing provider")
}

func costedSessions(n int) []storage.CostedSession {
	base := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	sessions := make([]storage.CostedSession, 0, n)
	for i := 0; i < n; i++ {
		sessions = append(sessions, storage.CostedSession{
			ID:      i + 1,
			EndDate: base.Add(time.Duration(i) * time.Hour),
			Cost:    decimal.NewFromInt(int64(i)),
		})
	}
	return sessions
}

func TestDownsampleSessions(t *testing.T) {
	sessions := costedSessions(100)

	result := downsampleSessions(sessions, 10)
	require.Len(t, result, 10)
	require.Equal(t, sessions[0].ID, result[0].ID)
	require.Equal(t, sessions[99].ID, result[9].ID)

	// Already small enough: returned unchanged.
	require.Len(t, downsampleSessions(sessions, 200), 100)
}

func TestWriteSessionsCSV(t *testing.T) {
	energy := decimal.RequireFromString("15.36")
	sessions := []storage.CostedSession{{
		ID:         7,
		EndDate:    time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC),
		Cost:       decimal.RequireFromString("0.77"),
		EnergyUsed: &energy,
	}}

	path := filepath.Join(t.TempDir(), "out", "sessions.csv")
	require.NoError(t, writeSessionsCSV(path, sessions))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, []string{"session_id", "finished_at", "cost", "energy_kwh"}, records[0])
	require.Equal(t, []string{"7", "2023-06-01T12:00:00Z", "0.77", "15.36"}, records[1])
}
