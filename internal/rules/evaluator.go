// Package rules evaluates the configured matching rules against one
// candidate pair. Evaluation is a pure function of its inputs: rules are
// independent of each other and of evaluation order.
package rules

import (
	"fmt"

	"record-reconciliation/internal/models"
	"record-reconciliation/internal/normalize"
	"record-reconciliation/internal/similarity"
)

// Evaluator applies an ordered rule set to candidate pairs. Read-only
// after construction, safe for concurrent use across pairs.
type Evaluator struct {
	rules []models.MatchingRule
}

func NewEvaluator(rules []models.MatchingRule) *Evaluator {
	return &Evaluator{rules: rules}
}

// Evaluate runs every rule over the pair. Missing fields degrade to the
// empty string and are recorded in the result details, never abort the
// run. The returned slice preserves rule order for presentation.
func (e *Evaluator) Evaluate(left, right models.Record) ([]models.RuleEvaluationResult, error) {
	results := make([]models.RuleEvaluationResult, 0, len(e.rules))
	for _, rule := range e.rules {
		res, err := e.evaluateRule(rule, left, right)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

func (e *Evaluator) evaluateRule(rule models.MatchingRule, left, right models.Record) (models.RuleEvaluationResult, error) {
	result := models.RuleEvaluationResult{RuleID: rule.ID, Weight: rule.Weight}

	lv, lok := left.Field(rule.Field)
	rv, rok := right.Field(rule.RightFieldName())
	if !lok {
		result.Details = append(result.Details,
			fmt.Sprintf("field %q missing on left record %s, compared as empty", rule.Field, left.ID))
	}
	if !rok {
		result.Details = append(result.Details,
			fmt.Sprintf("field %q missing on right record %s, compared as empty", rule.RightFieldName(), right.ID))
	}

	a := normalize.Apply(normalize.Stringify(lv), rule.Preprocessing)
	b := normalize.Apply(normalize.Stringify(rv), rule.Preprocessing)

	if rule.IsComposite() {
		comp, err := similarity.Composite(a, b, rule.Composite, rule.Aggregation)
		if err != nil {
			return result, err
		}
		result.Score = comp.Score
		for _, c := range comp.Components {
			result.Details = append(result.Details, c.Details...)
		}
	} else {
		res := similarity.Score(a, b, rule.Similarity)
		result.Score = res.Score
		result.Details = append(result.Details, res.Details...)
	}

	result.Matched = result.Score >= rule.Threshold
	return result, nil
}
