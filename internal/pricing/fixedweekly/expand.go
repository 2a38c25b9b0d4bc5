package fixedweekly

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"charge-costs/internal/pricing"
)

var _ pricing.IntervalSource = (*Schedule)(nil)

// GetPriceData projects the weekly table onto the absolute window [from, to).
// Intervals are generated per calendar day in the schedule's zone; each
// boundary is converted using the UTC offset in effect at that instant, so a
// segment spanning a DST transition gets both boundaries converted
// independently. The result contains every interval overlapping the window
// and may be empty for a degenerate window.
func (s *Schedule) GetPriceData(_ context.Context, from, to time.Time) ([]pricing.Price, error) {
	localFrom := from.In(s.loc)
	localTo := to.In(s.loc)

	first := time.Date(localFrom.Year(), localFrom.Month(), localFrom.Day(), 0, 0, 0, 0, time.UTC)
	last := time.Date(localTo.Year(), localTo.Month(), localTo.Day(), 0, 0, 0, 0, time.UTC)

	var prices []pricing.Price
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		prices = append(prices, s.pricesForDate(day)...)
	}

	kept := prices[:0]
	for _, p := range prices {
		if p.ValidFrom.Before(to) && p.ValidTo.After(from) {
			kept = append(kept, p)
		}
	}
	return kept, nil
}

// pricesForDate expands one calendar day. A wrapping segment contributes its
// head from midnight at the day's own price, and its tail is re-emitted
// after the last segment so the day is tiled without gaps.
func (s *Schedule) pricesForDate(date time.Time) []pricing.Price {
	segs := s.days[date.Weekday()]
	prices := make([]pricing.Price, 0, len(segs)+1)

	var crossover *decimal.Decimal
	for _, seg := range segs {
		validFrom := s.instant(date, seg.start)
		validTo := s.instant(date, seg.end)
		if seg.wraps {
			validFrom = s.instant(date, 0)
			validTo = s.instant(date, seg.end-minutesPerDay)
			value := seg.value
			crossover = &value
		}
		prices = append(prices, pricing.Price{ValidFrom: validFrom, ValidTo: validTo, Value: seg.value})
	}

	sort.Slice(prices, func(i, j int) bool { return prices[i].ValidFrom.Before(prices[j].ValidFrom) })

	if crossover != nil {
		prices = append(prices, pricing.Price{
			ValidFrom: prices[len(prices)-1].ValidTo,
			ValidTo:   s.instant(date, minutesPerDay),
			Value:     *crossover,
		})
	}
	return prices
}

// instant resolves a wall-clock offset from the date's local midnight to an
// absolute time. Minutes beyond the day roll into the next one, which keeps
// the conversion correct on DST transition days.
func (s *Schedule) instant(date time.Time, minutes int) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), 0, minutes, 0, 0, s.loc)
}
