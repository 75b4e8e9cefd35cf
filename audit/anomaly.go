/*
anomaly.go - Anomaly detection strategy

PURPOSE:
  Flags periods whose value deviates beyond a configured percentage from
  the trailing historical mean for the same series. The statistical method
  is a strategy: the deviation detector is the default, and tests can plug
  alternatives (z-score, percentile) behind the same interface without
  touching the engine.
*/
package audit

import "math"

// SeriesPoint is one period's value in a monthly series.
type SeriesPoint struct {
	Label string // e.g. "2024-07"
	Value float64
}

// Detector flags anomalous points in a series for a theme.
type Detector interface {
	Detect(theme Theme, series []SeriesPoint) []Anomaly
}

// DeviationDetector flags points deviating more than ThresholdPct from the
// trailing mean of the preceding points. The first MinHistory points only
// build history and are never flagged.
type DeviationDetector struct {
	ThresholdPct float64 // e.g. 50 means +/-50% from trailing mean
	MinHistory   int
}

// NewDeviationDetector returns the default detector: 50% threshold after
// three months of history.
func NewDeviationDetector() *DeviationDetector {
	return &DeviationDetector{ThresholdPct: 50, MinHistory: 3}
}

func (d *DeviationDetector) Detect(theme Theme, series []SeriesPoint) []Anomaly {
	minHistory := d.MinHistory
	if minHistory < 1 {
		minHistory = 1
	}

	var anomalies []Anomaly
	for i := minHistory; i < len(series); i++ {
		mean := trailingMean(series[:i])
		if mean == 0 {
			continue
		}
		deviation := math.Abs(series[i].Value-mean) / mean * 100
		if deviation <= d.ThresholdPct {
			continue
		}
		anomalies = append(anomalies, Anomaly{
			Theme:        theme,
			EntityRef:    series[i].Label,
			Trigger:      describeDeviation(series[i].Value, mean),
			RiskScore:    riskFromDeviation(deviation),
			DeviationPct: round1(deviation),
		})
	}
	return anomalies
}

func trailingMean(points []SeriesPoint) float64 {
	if len(points) == 0 {
		return 0
	}
	sum := 0.0
	for _, p := range points {
		sum += p.Value
	}
	return sum / float64(len(points))
}

// riskFromDeviation maps a percentage deviation onto 0-100: a 2x departure
// from the mean (100% deviation) already scores 100.
func riskFromDeviation(deviationPct float64) float64 {
	if deviationPct >= 100 {
		return 100
	}
	return round1(deviationPct)
}

func describeDeviation(value, mean float64) string {
	if value > mean {
		return "value above trailing mean"
	}
	return "value below trailing mean"
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
