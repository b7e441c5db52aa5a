package rules

import (
	"strings"
	"testing"

	"record-reconciliation/internal/models"
	"record-reconciliation/internal/normalize"
	"record-reconciliation/internal/similarity"
)

func rec(id string, fields map[string]any) models.Record {
	return models.Record{ID: id, Fields: fields}
}

func TestEvaluate_PreprocessingEqualizesCompanyNames(t *testing.T) {
	ev := NewEvaluator([]models.MatchingRule{{
		ID:        "company_name",
		Field:     "name",
		Weight:    1.0,
		Threshold: 0.85,
		Preprocessing: []normalize.Step{
			normalize.StepLowercase, normalize.StepRemoveLegalForms, normalize.StepTrim,
		},
		Similarity: similarity.Config{Algorithm: similarity.AlgorithmJaroWinkler},
	}})

	results, err := ev.Evaluate(
		rec("L1", map[string]any{"name": "Acme GmbH"}),
		rec("R1", map[string]any{"name": "ACME Gmbh"}),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || !results[0].Matched || results[0].Score != 1.0 {
		t.Fatalf("unexpected results: %+v", results)
	}
}

func TestEvaluate_PreservesRuleOrder(t *testing.T) {
	ev := NewEvaluator([]models.MatchingRule{
		{ID: "b_rule", Field: "x", Similarity: similarity.Config{Algorithm: similarity.AlgorithmLevenshtein}},
		{ID: "a_rule", Field: "x", Similarity: similarity.Config{Algorithm: similarity.AlgorithmLevenshtein}},
	})
	results, err := ev.Evaluate(rec("L", map[string]any{"x": "v"}), rec("R", map[string]any{"x": "v"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0].RuleID != "b_rule" || results[1].RuleID != "a_rule" {
		t.Fatalf("expected configuration order, got %+v", results)
	}
}

func TestEvaluate_MissingFieldDegrades(t *testing.T) {
	ev := NewEvaluator([]models.MatchingRule{{
		ID: "vat", Field: "vat_id", Weight: 1, Threshold: 1,
		Similarity: similarity.Config{Algorithm: similarity.AlgorithmLevenshtein},
	}})
	results, err := ev.Evaluate(
		rec("L1", map[string]any{"vat_id": "ATU12345678"}),
		rec("R1", map[string]any{"name": "no vat here"}),
	)
	if err != nil {
		t.Fatalf("missing field must not abort the run: %v", err)
	}
	res := results[0]
	if res.Matched {
		t.Fatalf("value vs empty must not match at threshold 1: %+v", res)
	}
	if len(res.Details) == 0 || !strings.Contains(res.Details[0], "missing") {
		t.Fatalf("expected a missing-field warning, got %+v", res.Details)
	}
}

func TestEvaluate_RightFieldMapping(t *testing.T) {
	ev := NewEvaluator([]models.MatchingRule{{
		ID: "name", Field: "company", RightField: "firma", Weight: 1, Threshold: 1,
		Similarity: similarity.Config{Algorithm: similarity.AlgorithmLevenshtein},
	}})
	results, err := ev.Evaluate(
		rec("L1", map[string]any{"company": "Acme"}),
		rec("R1", map[string]any{"firma": "Acme"}),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !results[0].Matched {
		t.Fatalf("expected cross-schema field mapping to match: %+v", results[0])
	}
}

func TestEvaluate_NonStringFields(t *testing.T) {
	ev := NewEvaluator([]models.MatchingRule{{
		ID: "zip", Field: "zip", Weight: 1, Threshold: 1,
		Similarity: similarity.Config{Algorithm: similarity.AlgorithmLevenshtein},
	}})
	results, err := ev.Evaluate(
		rec("L1", map[string]any{"zip": 5020}),
		rec("R1", map[string]any{"zip": "5020"}),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !results[0].Matched {
		t.Fatalf("expected numeric and string forms to compare equal: %+v", results[0])
	}
}

func TestEvaluate_CompositeRule(t *testing.T) {
	ev := NewEvaluator([]models.MatchingRule{{
		ID: "name_fuzzy", Field: "name", Weight: 1, Threshold: 0.5,
		Composite: []similarity.Config{
			{Algorithm: similarity.AlgorithmLevenshtein},
			{Algorithm: similarity.AlgorithmDiceSorensen},
		},
		Aggregation: similarity.AggregationMax,
	}})
	results, err := ev.Evaluate(
		rec("L1", map[string]any{"name": "night"}),
		rec("R1", map[string]any{"name": "nacht"}),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// max(levenshtein 0.6, dice 0.25) = 0.6
	if !results[0].Matched || results[0].Score != 0.6 {
		t.Fatalf("unexpected composite result: %+v", results[0])
	}
}

func TestEvaluate_UnknownAlgorithmWarns(t *testing.T) {
	ev := NewEvaluator([]models.MatchingRule{{
		ID: "odd", Field: "name", Weight: 1, Threshold: 1,
		Similarity: similarity.Config{Algorithm: "metaphone"},
	}})
	results, err := ev.Evaluate(
		rec("L", map[string]any{"name": "a"}),
		rec("R", map[string]any{"name": "a"}),
	)
	if err != nil {
		t.Fatalf("unknown algorithm must degrade, not fail: %v", err)
	}
	if results[0].Score != 1.0 || len(results[0].Details) == 0 {
		t.Fatalf("expected equality fallback with a warning: %+v", results[0])
	}
}
