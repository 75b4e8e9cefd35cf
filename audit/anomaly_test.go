package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flatSeries(labels []string, value float64) []SeriesPoint {
	points := make([]SeriesPoint, 0, len(labels))
	for _, l := range labels {
		points = append(points, SeriesPoint{Label: l, Value: value})
	}
	return points
}

func TestDeviationDetector_FlagsSpikeAgainstTrailingMean(t *testing.T) {
	// GIVEN three steady months and a doubled fourth
	d := NewDeviationDetector()
	series := append(
		flatSeries([]string{"2024-04", "2024-05", "2024-06"}, 1000),
		SeriesPoint{Label: "2024-07", Value: 2000},
	)

	// WHEN detecting
	anomalies := d.Detect(ThemeRevenuePattern, series)

	// THEN the spike is flagged with a 100% deviation and a maxed risk score
	require.Len(t, anomalies, 1)
	assert.Equal(t, "2024-07", anomalies[0].EntityRef)
	assert.Equal(t, ThemeRevenuePattern, anomalies[0].Theme)
	assert.Equal(t, 100.0, anomalies[0].DeviationPct)
	assert.Equal(t, 100.0, anomalies[0].RiskScore)
}

func TestDeviationDetector_SteadySeriesIsQuiet(t *testing.T) {
	// GIVEN a year of identical months
	d := NewDeviationDetector()
	series := flatSeries([]string{
		"2024-04", "2024-05", "2024-06", "2024-07", "2024-08", "2024-09",
		"2024-10", "2024-11", "2024-12", "2025-01", "2025-02", "2025-03",
	}, 5000)

	// WHEN detecting
	anomalies := d.Detect(ThemeGST, series)

	// THEN nothing is flagged
	assert.Empty(t, anomalies)
}

func TestDeviationDetector_FirstPointsOnlyBuildHistory(t *testing.T) {
	// GIVEN a wild swing inside the minimum-history window
	d := NewDeviationDetector()
	series := []SeriesPoint{
		{Label: "2024-04", Value: 100},
		{Label: "2024-05", Value: 9000},
		{Label: "2024-06", Value: 100},
	}

	// WHEN detecting
	anomalies := d.Detect(ThemeJournal, series)

	// THEN the warm-up months are never flagged
	assert.Empty(t, anomalies)
}

func TestDeviationDetector_ZeroMeanProducesNoFlag(t *testing.T) {
	// GIVEN an inactive series that suddenly starts
	d := NewDeviationDetector()
	series := append(
		flatSeries([]string{"2024-04", "2024-05", "2024-06"}, 0),
		SeriesPoint{Label: "2024-07", Value: 500},
	)

	// WHEN detecting
	anomalies := d.Detect(ThemeCashManipulation, series)

	// THEN a zero trailing mean yields no deviation ratio, so no flag
	assert.Empty(t, anomalies)
}

func TestDeviationDetector_WithinThresholdIsTolerated(t *testing.T) {
	// GIVEN a month 40% above the trailing mean, under the 50% threshold
	d := NewDeviationDetector()
	series := append(
		flatSeries([]string{"2024-04", "2024-05", "2024-06"}, 1000),
		SeriesPoint{Label: "2024-07", Value: 1400},
	)

	// WHEN detecting
	anomalies := d.Detect(ThemeTDS, series)

	// THEN the drift is tolerated
	assert.Empty(t, anomalies)
}

func TestRiskFromDeviation_CapsAtHundred(t *testing.T) {
	assert.Equal(t, 100.0, riskFromDeviation(250))
	assert.Equal(t, 100.0, riskFromDeviation(100))
	assert.Equal(t, 60.0, riskFromDeviation(60))
}
