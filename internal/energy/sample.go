package energy

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sample is a single telemetry reading taken during a charging session.
// Current, Voltage and Phases are absent when the charger did not report them.
type Sample struct {
	Time    time.Time
	Power   decimal.Decimal // charger reported power, kW
	Current *int            // actual current, A
	Voltage *int            // V
	Phases  *int
}
