package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"charge-costs/internal/energy"
	"charge-costs/internal/pricing"
)

// WholeChargeReconciler prices a session by locating the lump-sum charge the
// provider billed for it, fuzzy-matched by start time and either energy or
// end time within configured tolerances.
type WholeChargeReconciler struct {
	source pricing.WholeChargeSource
	opts   Options
	logger zerolog.Logger
}

// NewWholeCharge builds a reconciler over a whole-charge price source.
func NewWholeCharge(source pricing.WholeChargeSource, opts Options, logger zerolog.Logger) *WholeChargeReconciler {
	return &WholeChargeReconciler{
		source: source,
		opts:   opts,
		logger: logger.With().Str("component", "whole_charge_reconciler").Logger(),
	}
}

// Reconcile integrates the session's energy, fetches candidate charges for
// the tolerance-widened window and selects the best fit. Zero surviving
// candidates is a MatchError: an unmatched session keeps its unset cost.
func (r *WholeChargeReconciler) Reconcile(ctx context.Context, samples []energy.Sample) (Result, error) {
	if len(samples) == 0 {
		return Result{}, errors.New("session has no telemetry samples")
	}

	phases, ok := r.opts.resolvePhases(samples, r.logger)
	if !ok {
		r.logger.Warn().Msg("unable to determine phases for session, skipping cost calculation")
		return Result{Cost: decimal.Zero, Energy: decimal.Zero}, nil
	}
	used := energy.Used(samples, phases)

	start, end := sessionSpan(samples)
	candidates, err := r.source.GetCharges(ctx, start.Add(-r.opts.StartTolerance), end.Add(r.opts.EndTolerance))
	if err != nil {
		return Result{}, fmt.Errorf("fetch provider charges: %w", err)
	}

	match, err := bestCharge(candidates, used, start, end, r.opts)
	if err != nil {
		return Result{}, err
	}

	r.logger.Debug().
		Time("charge_start", match.StartTime).
		Str("cost", match.Cost.String()).
		Msg("matched provider charge")

	return Result{Cost: match.Cost.Round(2), Energy: used.Round(2)}, nil
}

// bestCharge filters candidates by tolerance and returns the one whose start
// time is closest to the session's. Energy-aware matching is used as soon as
// any candidate reports energy; otherwise both window ends are compared.
func bestCharge(candidates []pricing.ProviderCharge, used decimal.Decimal, start, end time.Time, opts Options) (pricing.ProviderCharge, error) {
	energyAware := false
	for _, c := range candidates {
		if c.EnergyKwh != nil {
			energyAware = true
			break
		}
	}

	var survivors []pricing.ProviderCharge
	for _, c := range candidates {
		if absDuration(c.StartTime.Sub(start)) > opts.StartTolerance {
			continue
		}
		if energyAware {
			if c.EnergyKwh == nil || !used.IsPositive() {
				continue
			}
			deviation := c.EnergyKwh.Sub(used).Abs().Div(used)
			if deviation.GreaterThan(opts.EnergyToleranceRatio) {
				continue
			}
		} else if absDuration(c.EndTime.Sub(end)) > opts.EndTolerance {
			continue
		}
		survivors = append(survivors, c)
	}

	if len(survivors) == 0 {
		return pricing.ProviderCharge{}, &MatchError{Candidates: len(candidates)}
	}

	sort.Slice(survivors, func(i, j int) bool {
		return absDuration(survivors[i].StartTime.Sub(start)) < absDuration(survivors[j].StartTime.Sub(start))
	})
	return survivors[0], nil
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

var _ Reconciler = (*WholeChargeReconciler)(nil)
