package storage

import (
	"time"

	"github.com/shopspring/decimal"
)

// Geofence is the charging location the reconciler is scoped to.
type Geofence struct {
	ID          int
	Name        string
	CostPerUnit *decimal.Decimal
}

// Session is a finished charging process awaiting a cost.
type Session struct {
	ID         int
	EndDate    time.Time
	EnergyUsed *decimal.Decimal // energy recorded upstream, for cross-checking only
}

// CostedSession is a charging process with a computed cost, as read back for
// display and export.
type CostedSession struct {
	ID         int
	EndDate    time.Time
	Cost       decimal.Decimal
	EnergyUsed *decimal.Decimal
}
