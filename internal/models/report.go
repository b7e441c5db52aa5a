package models

import "time"

// PairStatus classifies one candidate pair.
type PairStatus string

const (
	StatusMatched   PairStatus = "matched"
	StatusUnmatched PairStatus = "unmatched"
	StatusReview    PairStatus = "review"
)

// RuleEvaluationResult is one rule's verdict on a candidate pair.
type RuleEvaluationResult struct {
	RuleID  string   `json:"rule_id"`
	Matched bool     `json:"matched"`
	Weight  float64  `json:"weight"`
	Score   float64  `json:"score"`
	Details []string `json:"details,omitempty"` // evaluation warnings, never fatal
}

// Pair is one classified cross-source candidate. For records that appeared
// in no cross-set blocking bucket, the opposite id is empty and Details
// notes the absence.
type Pair struct {
	LeftID     string                 `json:"left_id"`
	RightID    string                 `json:"right_id"`
	Confidence float64                `json:"confidence"`
	Status     PairStatus             `json:"status"`
	Results    []RuleEvaluationResult `json:"results,omitempty"`
	Details    []string               `json:"details,omitempty"`
}

// Summary carries the aggregate counts of a reconciliation run.
type Summary struct {
	TotalPairsEvaluated int `json:"total_pairs_evaluated"`
	TotalLeftRecords    int `json:"total_left_records"`
	TotalRightRecords   int `json:"total_right_records"`
	MatchedCount        int `json:"matched_count"`
	ReviewCount         int `json:"review_count"`
	UnmatchedCount      int `json:"unmatched_count"`
}

// RunMeta identifies the run for audit and trace correlation.
type RunMeta struct {
	RunID      string        `json:"run_id"`
	TraceID    string        `json:"trace_id,omitempty"`
	Tool       string        `json:"tool,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
}

// ReconciliationReport is the aggregate output of one run. Immutable after
// construction; owned by the caller. Formatting and audit logging are
// external consumers.
type ReconciliationReport struct {
	Matched   []Pair  `json:"matched"`
	Unmatched []Pair  `json:"unmatched"`
	Review    []Pair  `json:"review"`
	Summary   Summary `json:"summary"`
	Meta      RunMeta `json:"meta"`
}
