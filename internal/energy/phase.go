package energy

import (
	"math"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// minRatioSamples is the minimum number of samples with a usable
// power ratio before an estimate is trusted.
const minRatioSamples = 16

// EstimatePhases infers the number of electrical phases from charger
// telemetry. The reported phase count is cross-checked against the ratio of
// reported power to current times voltage; when the two disagree the known
// miscalibration patterns are corrected. The second return value is false
// when no estimate could be made.
//
// The estimate may be fractional: chargers that report line-to-line voltage
// on a three-phase connection resolve to sqrt(3).
func EstimatePhases(samples []Sample, logger zerolog.Logger) (decimal.Decimal, bool) {
	var ratioSum float64
	ratioCount := 0
	for _, s := range samples {
		if s.Current == nil || s.Voltage == nil {
			continue
		}
		ratio := s.Power.InexactFloat64() * 1000 / (float64(*s.Current) * float64(*s.Voltage))
		if math.IsNaN(ratio) || math.IsInf(ratio, 0) {
			continue
		}
		ratioSum += ratio
		ratioCount++
	}
	if ratioCount == 0 {
		return decimal.Decimal{}, false
	}
	powerAverage := ratioSum / float64(ratioCount)

	phaseSum := 0
	phaseCount := 0
	voltageSum := 0
	voltageCount := 0
	for _, s := range samples {
		if s.Phases != nil {
			phaseSum += *s.Phases
			phaseCount++
		}
		if s.Voltage != nil {
			voltageSum += *s.Voltage
			voltageCount++
		}
	}
	if phaseCount == 0 {
		return decimal.Decimal{}, false
	}
	phasesAverage := phaseSum / phaseCount

	if powerAverage <= 0 || ratioCount < minRatioSamples {
		return decimal.Decimal{}, false
	}

	rounded := math.Round(powerAverage)
	if float64(phasesAverage) == rounded {
		return decimal.NewFromInt(int64(phasesAverage)), true
	}

	if phasesAverage == 3 && math.Abs(powerAverage/math.Sqrt(3)-1) <= 0.1 {
		voltageAverage := float64(voltageSum) / float64(voltageCount)
		logger.Info().
			Float64("reported_voltage", math.Round(voltageAverage)).
			Float64("corrected_voltage", math.Round(voltageAverage/math.Sqrt(3))).
			Msg("voltage correction applied")
		return decimal.NewFromFloat(math.Sqrt(3)), true
	}

	if math.Abs(rounded-powerAverage) <= 0.3 {
		logger.Info().
			Int("reported_phases", phasesAverage).
			Float64("corrected_phases", rounded).
			Msg("phase correction applied")
		return decimal.NewFromFloat(rounded), true
	}

	return decimal.Decimal{}, false
}
