// Package reconcile computes the cost and energy of a charging session from
// its telemetry and a configured pricing capability. The capability (interval
// prices vs whole-charge billing) is fixed at construction time.
package reconcile

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"charge-costs/internal/energy"
)

// Result is a session's computed cost and energy, rounded to 2 decimals.
type Result struct {
	Cost   decimal.Decimal
	Energy decimal.Decimal
}

// Reconciler computes the cost of one session from its telemetry samples.
// Samples must be ordered by time. An indeterminate phase estimate yields a
// zero Result with a nil error; genuine failures (missing price coverage, no
// matching provider charge) return an error and leave the session unpriced.
type Reconciler interface {
	Reconcile(ctx context.Context, samples []energy.Sample) (Result, error)
}

// Options carry the externally configured matching parameters.
type Options struct {
	FeePerKwh            decimal.Decimal
	Phases               int // fixed phase-count override; 0 estimates from telemetry
	StartTolerance       time.Duration
	EndTolerance         time.Duration
	EnergyToleranceRatio decimal.Decimal
}

// resolvePhases applies the configured override or falls back to estimation.
func (o Options) resolvePhases(samples []energy.Sample, logger zerolog.Logger) (decimal.Decimal, bool) {
	if o.Phases > 0 {
		return decimal.NewFromInt(int64(o.Phases)), true
	}
	return energy.EstimatePhases(samples, logger)
}

func sessionSpan(samples []energy.Sample) (time.Time, time.Time) {
	start, end := samples[0].Time, samples[0].Time
	for _, s := range samples[1:] {
		if s.Time.Before(start) {
			start = s.Time
		}
		if s.Time.After(end) {
			end = s.Time
		}
	}
	return start, end
}
