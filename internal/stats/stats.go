// Package stats provides small descriptive helpers for grounding agent
// prompts in the shape of the user's data. These are advisory hints,
// not analysis results; the agents do the actual interpretation.
package stats

import "math"

// Trend is the overall direction of a numeric series.
type Trend int

const (
	// TrendFlat means no meaningful slope.
	TrendFlat Trend = iota
	// TrendUp means the series grows over its span.
	TrendUp
	// TrendDown means the series shrinks over its span.
	TrendDown
)

// String returns the string representation of the trend.
func (t Trend) String() string {
	switch t {
	case TrendUp:
		return "upward"
	case TrendDown:
		return "downward"
	default:
		return "flat"
	}
}

// DetectTrend classifies a series by comparing the means of its first and
// last thirds. A difference under 5% of the overall mean counts as flat.
func DetectTrend(series []float64) Trend {
	if len(series) < 3 {
		return TrendFlat
	}

	third := len(series) / 3
	if third == 0 {
		third = 1
	}
	head := mean(series[:third])
	tail := mean(series[len(series)-third:])
	overall := mean(series)

	if overall == 0 {
		return TrendFlat
	}
	change := (tail - head) / math.Abs(overall)
	switch {
	case change > 0.05:
		return TrendUp
	case change < -0.05:
		return TrendDown
	default:
		return TrendFlat
	}
}

// CountOutliers returns how many points sit more than threshold standard
// deviations from the mean. A threshold of 3 is the usual choice.
func CountOutliers(series []float64, threshold float64) int {
	if len(series) < 2 {
		return 0
	}

	m := mean(series)
	sd := stddev(series, m)
	if sd == 0 {
		return 0
	}

	count := 0
	for _, v := range series {
		if math.Abs(v-m)/sd > threshold {
			count++
		}
	}
	return count
}

// QualityScore derives a rough 0-100 data-quality indicator from record
// volume and outlier density. Used only when the caller supplies no score
// of its own.
func QualityScore(recordCount int, series []float64) float64 {
	if recordCount <= 0 {
		return 0
	}

	score := 100.0
	if recordCount < 100 {
		score -= 30
	} else if recordCount < 1000 {
		score -= 10
	}

	if len(series) > 0 {
		ratio := float64(CountOutliers(series, 3)) / float64(len(series))
		score -= ratio * 100
	}

	if score < 0 {
		return 0
	}
	return score
}

func mean(series []float64) float64 {
	if len(series) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range series {
		sum += v
	}
	return sum / float64(len(series))
}

func stddev(series []float64, m float64) float64 {
	if len(series) < 2 {
		return 0
	}
	sum := 0.0
	for _, v := range series {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(series)-1))
}
