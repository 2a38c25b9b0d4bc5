package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"charge-costs/internal/energy"
	"charge-costs/internal/pricing"
)

// IntervalReconciler prices a session against time-of-use unit prices by
// integrating the energy consumed within each price interval.
type IntervalReconciler struct {
	source pricing.IntervalSource
	opts   Options
	logger zerolog.Logger
}

// NewInterval builds a reconciler over an interval price source.
func NewInterval(source pricing.IntervalSource, opts Options, logger zerolog.Logger) *IntervalReconciler {
	return &IntervalReconciler{
		source: source,
		opts:   opts,
		logger: logger.With().Str("component", "interval_reconciler").Logger(),
	}
}

// Reconcile allocates the session's energy across the fetched price
// intervals and sums cost per interval plus the flat per-kWh fee.
//
// Sample selection per interval is inclusive on both ends. To keep the
// integration continuous across boundaries, the last sample of the previous
// non-empty interval is carried into the next one, attributing the
// boundary-spanning energy delta to the later interval. Every sample must
// land in some interval or the call fails with a CoverageError.
func (r *IntervalReconciler) Reconcile(ctx context.Context, samples []energy.Sample) (Result, error) {
	if len(samples) == 0 {
		return Result{}, errors.New("session has no telemetry samples")
	}

	start, end := sessionSpan(samples)
	prices, err := r.source.GetPriceData(ctx, start, end)
	if err != nil {
		return Result{}, fmt.Errorf("fetch price data: %w", err)
	}
	sort.Slice(prices, func(i, j int) bool { return prices[i].ValidFrom.Before(prices[j].ValidFrom) })

	phases, ok := r.opts.resolvePhases(samples, r.logger)
	if !ok {
		r.logger.Warn().Msg("unable to determine phases for session, skipping cost calculation")
		return Result{Cost: decimal.Zero, Energy: decimal.Zero}, nil
	}

	totalCost := decimal.Zero
	totalEnergy := decimal.Zero
	calculated := 0
	var carried *energy.Sample

	for _, price := range prices {
		bucket := make([]energy.Sample, 0, len(samples))
		for _, s := range samples {
			if !s.Time.Before(price.ValidFrom) && !s.Time.After(price.ValidTo) {
				bucket = append(bucket, s)
			}
		}
		calculated += len(bucket)
		if len(bucket) == 0 {
			continue
		}
		if carried != nil {
			bucket = append(bucket, *carried)
		}
		sort.Slice(bucket, func(i, j int) bool { return bucket[i].Time.Before(bucket[j].Time) })

		used := energy.Used(bucket, phases)
		cost := used.Mul(price.Value).Add(used.Mul(r.opts.FeePerKwh))
		totalCost = totalCost.Add(cost)
		totalEnergy = totalEnergy.Add(used)

		last := bucket[len(bucket)-1]
		carried = &last

		r.logger.Debug().
			Time("valid_from", price.ValidFrom).
			Time("valid_to", price.ValidTo).
			Str("unit_price", price.Value.String()).
			Str("energy_kwh", used.String()).
			Str("cost", cost.String()).
			Msg("priced interval")
	}

	if calculated != len(samples) {
		return Result{}, &CoverageError{Calculated: calculated, Total: len(samples)}
	}

	return Result{Cost: totalCost.Round(2), Energy: totalEnergy.Round(2)}, nil
}

var _ Reconciler = (*IntervalReconciler)(nil)
