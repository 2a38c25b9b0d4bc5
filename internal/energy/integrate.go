package energy

import "github.com/shopspring/decimal"

var thousand = decimal.NewFromInt(1000)

// Used integrates a time-ordered telemetry sequence into total kWh.
//
// Each sample's power is held constant over the gap since the previous
// sample, so the energy attributed to a sample is the energy consumed since
// the sample before it; the first sample contributes nothing. Samples missing
// current, voltage or phase data fall back to their self-reported power.
// Negative deltas (clock skew, resets) are discarded, never subtracted.
func Used(samples []Sample, phases decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for i, s := range samples {
		if i == 0 {
			continue
		}

		power := s.Power
		if s.Phases != nil && s.Current != nil && s.Voltage != nil {
			power = decimal.NewFromInt(int64(*s.Current)).
				Mul(decimal.NewFromInt(int64(*s.Voltage))).
				Mul(phases).
				Div(thousand)
		}

		hours := decimal.NewFromFloat(s.Time.Sub(samples[i-1].Time).Hours())
		delta := power.Mul(hours)
		if delta.IsNegative() {
			continue
		}
		total = total.Add(delta)
	}
	return total
}
