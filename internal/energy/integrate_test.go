package energy

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestUsedSingleSample(t *testing.T) {
	samples := []Sample{{
		Time:    time.Date(2023, 6, 1, 10, 0, 0, 0, time.UTC),
		Power:   decimal.NewFromFloat(7.68),
		Current: intPtr(32),
		Voltage: intPtr(240),
		Phases:  intPtr(1),
	}}

	used := Used(samples, decimal.NewFromInt(1))
	require.True(t, used.IsZero(), "got %s", used)
}

func TestUsedTwoSamples(t *testing.T) {
	start := time.Date(2023, 6, 1, 10, 0, 0, 0, time.UTC)
	samples := []Sample{
		{Time: start, Power: decimal.NewFromFloat(7.68), Current: intPtr(32), Voltage: intPtr(240), Phases: intPtr(1)},
		{Time: start.Add(2 * time.Hour), Power: decimal.NewFromFloat(7.68), Current: intPtr(32), Voltage: intPtr(240), Phases: intPtr(1)},
	}

	// 32A * 240V * 1 phase = 7.68kW held for two hours.
	used := Used(samples, decimal.NewFromInt(1))
	require.True(t, used.Equal(decimal.RequireFromString("15.36")), "got %s", used)
}

func TestUsedFallsBackToReportedPower(t *testing.T) {
	start := time.Date(2023, 6, 1, 10, 0, 0, 0, time.UTC)
	samples := []Sample{
		{Time: start, Power: decimal.NewFromFloat(7.5)},
		{Time: start.Add(time.Hour), Power: decimal.NewFromFloat(7.5)},
	}

	used := Used(samples, decimal.NewFromInt(1))
	require.True(t, used.Equal(decimal.RequireFromString("7.5")), "got %s", used)
}

func TestUsedDiscardsNegativeDeltas(t *testing.T) {
	start := time.Date(2023, 6, 1, 10, 0, 0, 0, time.UTC)
	samples := []Sample{
		{Time: start, Power: decimal.NewFromFloat(7.68), Current: intPtr(32), Voltage: intPtr(240), Phases: intPtr(1)},
		// Clock went backwards: this gap must not subtract energy.
		{Time: start.Add(-time.Hour), Power: decimal.NewFromFloat(7.68), Current: intPtr(32), Voltage: intPtr(240), Phases: intPtr(1)},
		{Time: start.Add(time.Hour), Power: decimal.NewFromFloat(7.68), Current: intPtr(32), Voltage: intPtr(240), Phases: intPtr(1)},
	}

	used := Used(samples, decimal.NewFromInt(1))
	require.True(t, used.Equal(decimal.RequireFromString("15.36")), "got %s", used)
}

func TestUsedScalingIdentity(t *testing.T) {
	// Doubling current while halving elapsed time leaves the total unchanged.
	start := time.Date(2023, 6, 1, 10, 0, 0, 0, time.UTC)
	slow := []Sample{
		{Time: start, Current: intPtr(16), Voltage: intPtr(230), Phases: intPtr(3)},
		{Time: start.Add(2 * time.Hour), Current: intPtr(16), Voltage: intPtr(230), Phases: intPtr(3)},
	}
	fast := []Sample{
		{Time: start, Current: intPtr(32), Voltage: intPtr(230), Phases: intPtr(3)},
		{Time: start.Add(time.Hour), Current: intPtr(32), Voltage: intPtr(230), Phases: intPtr(3)},
	}

	phases := decimal.NewFromInt(3)
	require.True(t, Used(slow, phases).Equal(Used(fast, phases)))
}
