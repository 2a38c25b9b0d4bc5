package pricing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Price is a unit price valid for a bounded window of time.
type Price struct {
	ValidFrom time.Time
	ValidTo   time.Time
	Value     decimal.Decimal
}

// ProviderCharge is a lump-sum billed charging session reported by a provider.
type ProviderCharge struct {
	Cost      decimal.Decimal
	EnergyKwh *decimal.Decimal
	StartTime time.Time
	EndTime   time.Time
}

// IntervalSource supplies time-of-use unit prices covering a window.
// Returned intervals are not guaranteed ordered or contiguous.
type IntervalSource interface {
	GetPriceData(ctx context.Context, from, to time.Time) ([]Price, error)
}

// WholeChargeSource supplies lump-sum billed sessions overlapping a window.
type WholeChargeSource interface {
	GetCharges(ctx context.Context, from, to time.Time) ([]ProviderCharge, error)
}
