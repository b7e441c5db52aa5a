package confidence

import (
	"testing"

	"record-reconciliation/internal/models"
)

func result(matched bool, weight float64) models.RuleEvaluationResult {
	return models.RuleEvaluationResult{Matched: matched, Weight: weight}
}

func TestCalculate_WeightedRatio(t *testing.T) {
	results := []models.RuleEvaluationResult{
		result(true, 2.0),
		result(false, 1.0),
		result(true, 1.0),
	}
	if got := Calculate(results); got != 75.0 {
		t.Fatalf("unexpected confidence: %v", got)
	}
}

func TestCalculate_AllOrNothing(t *testing.T) {
	if got := Calculate([]models.RuleEvaluationResult{result(true, 1)}); got != 100.0 {
		t.Fatalf("expected 100, got %v", got)
	}
	if got := Calculate([]models.RuleEvaluationResult{result(false, 1)}); got != 0.0 {
		t.Fatalf("expected 0, got %v", got)
	}
}

func TestCalculate_EmptyAndZeroWeight(t *testing.T) {
	if got := Calculate(nil); got != 0.0 {
		t.Fatalf("empty result set must score 0, got %v", got)
	}
	results := []models.RuleEvaluationResult{result(true, 0), result(true, 0)}
	if got := Calculate(results); got != 0.0 {
		t.Fatalf("zero total weight must score 0, got %v", got)
	}
}

func TestCalculate_Rounding(t *testing.T) {
	results := []models.RuleEvaluationResult{
		result(true, 1), result(true, 1), result(false, 1),
	}
	if got := Calculate(results); got != 66.67 {
		t.Fatalf("expected 66.67, got %v", got)
	}
}

func TestCalculateAverage(t *testing.T) {
	if got := CalculateAverage(nil); got != 0.0 {
		t.Fatalf("empty input must average 0, got %v", got)
	}
	if got := CalculateAverage([]float64{100, 50, 25}); got != 58.33 {
		t.Fatalf("unexpected average: %v", got)
	}
}

func TestMeetsThreshold_Inclusive(t *testing.T) {
	if !MeetsThreshold(90.0, 90.0) {
		t.Fatalf("threshold comparison must be inclusive")
	}
	if MeetsThreshold(89.99, 90.0) {
		t.Fatalf("89.99 must not meet 90")
	}
}
