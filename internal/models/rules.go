package models

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"record-reconciliation/internal/blocking"
	"record-reconciliation/internal/normalize"
	"record-reconciliation/internal/similarity"
	errs "record-reconciliation/pkg/errors"
)

// MatchingRule declares how one field (or field pair) contributes to the
// match decision. Rules are immutable for the duration of a run.
type MatchingRule struct {
	ID    string `yaml:"id" json:"id"`
	Field string `yaml:"field" json:"field"`
	// RightField names the field on the right-hand record when the two
	// schemas disagree; empty means same as Field.
	RightField string `yaml:"rightField,omitempty" json:"right_field,omitempty"`
	// Weight feeds the confidence scorer. Zero-weight rules still evaluate
	// and report, they just do not move the confidence.
	Weight float64 `yaml:"weight" json:"weight"`
	// Threshold is the per-rule pass mark: matched = score >= threshold.
	Threshold float64 `yaml:"threshold" json:"threshold"`
	// Preprocessing runs over both values before scoring.
	Preprocessing []normalize.Step `yaml:"preprocessing,omitempty" json:"preprocessing,omitempty"`

	// Similarity configures a single-algorithm comparison. For composites
	// leave it zero and fill Composite + Aggregation instead.
	Similarity  similarity.Config      `yaml:"similarity" json:"similarity"`
	Composite   []similarity.Config    `yaml:"composite,omitempty" json:"composite,omitempty"`
	Aggregation similarity.Aggregation `yaml:"aggregation,omitempty" json:"aggregation,omitempty"`
}

// IsComposite reports whether the rule aggregates several algorithms.
func (r MatchingRule) IsComposite() bool { return len(r.Composite) > 0 }

// RightFieldName resolves the field to read on the right record.
func (r MatchingRule) RightFieldName() string {
	if r.RightField != "" {
		return r.RightField
	}
	return r.Field
}

// BlockingConfig selects the blocking strategy for a run.
type BlockingConfig struct {
	Field     string             `yaml:"field" json:"field"`
	Algorithm blocking.Algorithm `yaml:"algorithm" json:"algorithm"`
	Options   blocking.Options   `yaml:"options" json:"options"`
}

// RunConfig is the full configuration of one reconciliation run.
type RunConfig struct {
	Blocking        BlockingConfig `yaml:"blocking" json:"blocking"`
	Rules           []MatchingRule `yaml:"rules" json:"rules"`
	MatchThreshold  float64        `yaml:"matchThreshold" json:"match_threshold"`
	ReviewThreshold float64        `yaml:"reviewThreshold" json:"review_threshold"`
}

// LoadRunConfig reads a YAML run configuration and validates it.
func LoadRunConfig(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &errs.ConfigError{
			Op:   "models.LoadRunConfig",
			Code: errs.CodeInvalidRuleSet,
			Msg:  fmt.Sprintf("cannot read run configuration %q", path),
			Hint: "check RUN_CONFIG_PATH and file permissions",
			Err:  err,
		}
	}
	var cfg RunConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, &errs.ConfigError{
			Op:   "models.LoadRunConfig",
			Code: errs.CodeInvalidRuleSet,
			Msg:  "run configuration is not valid YAML",
			Hint: "validate the file against the documented schema",
			Err:  err,
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate enforces the run-configuration invariants. It runs before any
// comparison or connector I/O begins.
func (c *RunConfig) Validate() error {
	const op = "models.RunConfig.Validate"

	if c.ReviewThreshold < 0 || c.MatchThreshold > 100 || c.ReviewThreshold > c.MatchThreshold {
		return errs.NewConfig(op, errs.CodeThresholdOrder,
			fmt.Sprintf("thresholds must satisfy 0 <= review (%.2f) <= match (%.2f) <= 100",
				c.ReviewThreshold, c.MatchThreshold),
			"fix matchThreshold / reviewThreshold in the run configuration")
	}
	if len(c.Rules) == 0 {
		return errs.NewConfig(op, errs.CodeInvalidRuleSet,
			"at least one matching rule is required",
			"add a rules entry to the run configuration")
	}

	var positiveWeight bool
	seen := make(map[string]bool, len(c.Rules))
	for i, r := range c.Rules {
		if r.ID == "" {
			return errs.NewConfig(op, errs.CodeInvalidRuleSet,
				fmt.Sprintf("rule at index %d has no id", i), "give every rule a unique id")
		}
		if seen[r.ID] {
			return errs.NewConfig(op, errs.CodeInvalidRuleSet,
				fmt.Sprintf("duplicate rule id %q", r.ID), "rule ids must be unique")
		}
		seen[r.ID] = true
		if r.Field == "" {
			return errs.NewConfig(op, errs.CodeInvalidRuleSet,
				fmt.Sprintf("rule %q names no field", r.ID), "set the field the rule compares")
		}
		if r.Weight < 0 {
			return errs.NewConfig(op, errs.CodeInvalidRuleSet,
				fmt.Sprintf("rule %q has negative weight %.2f", r.ID, r.Weight),
				"weights must be >= 0")
		}
		if r.Threshold < 0 || r.Threshold > 1 {
			return errs.NewConfig(op, errs.CodeInvalidRuleSet,
				fmt.Sprintf("rule %q threshold %.2f outside [0,1]", r.ID, r.Threshold),
				"per-rule thresholds are similarity scores in [0,1]")
		}
		if r.Weight > 0 {
			positiveWeight = true
		}
		for _, s := range r.Preprocessing {
			if !normalize.Known(s) {
				return errs.NewConfig(op, errs.CodeInvalidRuleSet,
					fmt.Sprintf("rule %q uses unknown preprocessing step %q", r.ID, s),
					"see the normalize package for the recognized steps")
			}
		}
	}
	if !positiveWeight {
		return errs.NewConfig(op, errs.CodeInvalidRuleSet,
			"all rule weights are zero; confidence would always be 0",
			"give at least one rule a weight > 0")
	}

	if c.Blocking.Field == "" {
		return errs.NewConfig(op, errs.CodeInvalidRuleSet,
			"blocking.field is required",
			"set the field blocking keys are derived from")
	}
	return nil
}

// ValidateSchema checks every rule against the declared field schema of
// each side. A rule referencing a field absent from the schema is a
// configuration error surfaced before evaluation begins, not a per-record
// runtime failure. Empty schemas skip the check (schema unknown).
func (c *RunConfig) ValidateSchema(leftFields, rightFields []string) error {
	const op = "models.RunConfig.ValidateSchema"
	left := toSet(leftFields)
	right := toSet(rightFields)
	for _, r := range c.Rules {
		if len(left) > 0 && !left[r.Field] {
			return errs.NewConfig(op, errs.CodeUnknownField,
				fmt.Sprintf("rule %q references field %q missing from the left schema", r.ID, r.Field),
				"fix the rule's field or extend the source schema")
		}
		if len(right) > 0 && !right[r.RightFieldName()] {
			return errs.NewConfig(op, errs.CodeUnknownField,
				fmt.Sprintf("rule %q references field %q missing from the right schema", r.ID, r.RightFieldName()),
				"fix the rule's rightField or extend the target schema")
		}
	}
	return nil
}

func toSet(ss []string) map[string]bool {
	out := make(map[string]bool, len(ss))
	for _, s := range ss {
		out[s] = true
	}
	return out
}
