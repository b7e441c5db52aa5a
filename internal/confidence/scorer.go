// Package confidence aggregates rule verdicts into a single 0-100 score.
// Pure functions throughout; identical inputs always yield identical
// outputs.
package confidence

import (
	"math"

	"record-reconciliation/internal/models"
)

// Calculate returns 100 * matchedWeight / totalWeight rounded to two
// decimals. An empty result set or a zero total weight yields 0 by
// definition, not an error.
func Calculate(results []models.RuleEvaluationResult) float64 {
	var matched, total float64
	for _, r := range results {
		total += r.Weight
		if r.Matched {
			matched += r.Weight
		}
	}
	if total == 0 {
		return 0
	}
	return round2(100 * matched / total)
}

// CalculateAverage is the arithmetic mean of scores, two decimals, 0 for
// empty input.
func CalculateAverage(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	return round2(sum / float64(len(scores)))
}

// MeetsThreshold reports score >= min.
func MeetsThreshold(score, min float64) bool { return score >= min }

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
