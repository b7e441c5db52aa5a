// Package reconcile orchestrates a reconciliation run: blocking, rule
// evaluation, confidence scoring and report assembly.
package reconcile

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"record-reconciliation/internal/blocking"
	"record-reconciliation/internal/confidence"
	"record-reconciliation/internal/models"
	"record-reconciliation/internal/rules"
	"record-reconciliation/pkg/logging"
	"record-reconciliation/pkg/metrics"
	"record-reconciliation/pkg/trace"
)

// State tracks run progress. Failed is reachable from any non-terminal
// state on an unrecoverable input error.
type State int

const (
	StateIdle State = iota
	StateBlocking
	StateEvaluating
	StateScoring
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBlocking:
		return "blocking"
	case StateEvaluating:
		return "evaluating"
	case StateScoring:
		return "scoring"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Config tunes the engine independent of any single run.
type Config struct {
	// WorkerCount bounds the comparison-phase fan-out; 0 means the
	// default. Comparisons are pure, so this only trades memory for CPU.
	WorkerCount int
}

func DefaultConfig() Config {
	return Config{WorkerCount: 8}
}

// Engine runs reconciliations. Stateless between runs; one Engine may
// serve concurrent runs.
type Engine struct {
	workerCount int
	log         *logging.ComponentLogger

	mRuns  *metrics.Counter
	mPairs *metrics.Counter
}

func NewEngine(cfg Config, log *logging.Logger) *Engine {
	wc := cfg.WorkerCount
	if wc <= 0 {
		wc = DefaultConfig().WorkerCount
	}
	e := &Engine{
		workerCount: wc,
		mRuns:       metrics.Default.Counter("reconcile_runs_total", "Reconciliation runs started"),
		mPairs:      metrics.Default.Counter("reconcile_pairs_total", "Candidate pairs evaluated"),
	}
	if log != nil {
		e.log = log.WithComponent("reconcile")
	}
	return e
}

type pairJob struct {
	left, right int // record indices
}

type pairOutcome struct {
	pair models.Pair
	err  error
}

// Run executes one reconciliation between the left and right record sets.
// Configuration errors abort before any comparison; evaluation warnings
// degrade gracefully and surface in per-pair details. The returned report
// is immutable once handed over.
func (e *Engine) Run(ctx context.Context, left, right []models.Record, cfg *models.RunConfig) (*models.ReconciliationReport, error) {
	start := time.Now()
	state := StateIdle
	e.mRuns.Inc(1)

	ctx, tc := trace.Ensure(ctx, "reconcile_records")
	meta := models.RunMeta{
		RunID:     uuid.NewString(),
		TraceID:   tc.TraceID,
		Tool:      tc.Tool,
		StartedAt: start,
	}

	fail := func(err error) (*models.ReconciliationReport, error) {
		state = StateFailed
		if e.log != nil {
			e.log.WithTrace(ctx).Error("run failed", err,
				logging.String("run_id", meta.RunID), logging.String("state", state.String()))
		}
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return fail(err)
	}
	if err := cfg.ValidateSchema(schemaOf(left), schemaOf(right)); err != nil {
		return fail(err)
	}

	// Blocking: derive a key per record and bucket both sets.
	state = StateBlocking
	index := blocking.NewIndex()
	leftBlocked := make([]bool, len(left))
	rightBlocked := make([]bool, len(right))
	for i, rec := range left {
		v, _ := rec.Field(cfg.Blocking.Field)
		if key, ok := blocking.Key(v, cfg.Blocking.Algorithm, cfg.Blocking.Options); ok {
			index.AddLeft(key, i)
			leftBlocked[i] = true
		}
	}
	for i, rec := range right {
		v, _ := rec.Field(cfg.Blocking.Field)
		if key, ok := blocking.Key(v, cfg.Blocking.Algorithm, cfg.Blocking.Options); ok {
			index.AddRight(key, i)
			rightBlocked[i] = true
		}
	}

	groups := index.CrossGroups()
	var jobs []pairJob
	leftPaired := make([]bool, len(left))
	rightPaired := make([]bool, len(right))
	for _, g := range groups {
		for _, li := range g.Left {
			for _, ri := range g.Right {
				jobs = append(jobs, pairJob{left: li, right: ri})
				leftPaired[li] = true
				rightPaired[ri] = true
			}
		}
	}

	if e.log != nil {
		e.log.WithTrace(ctx).Info("blocking complete",
			logging.String("run_id", meta.RunID),
			logging.Int("left_records", len(left)),
			logging.Int("right_records", len(right)),
			logging.Int("cross_buckets", len(groups)),
			logging.Int("candidate_pairs", len(jobs)))
	}

	// Evaluation + scoring: embarrassingly parallel over candidate pairs.
	state = StateEvaluating
	evaluator := rules.NewEvaluator(cfg.Rules)
	outcomes := make([]pairOutcome, len(jobs))

	workers := e.workerCount
	if workers > len(jobs) {
		workers = len(jobs)
	}
	if workers > 0 {
		jobCh := make(chan int)
		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for idx := range jobCh {
					outcomes[idx] = e.evaluatePair(left[jobs[idx].left], right[jobs[idx].right], evaluator, cfg)
				}
			}()
		}
	feed:
		for i := range jobs {
			select {
			case jobCh <- i:
			case <-ctx.Done():
				break feed
			}
		}
		close(jobCh)
		wg.Wait()
	}
	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	e.mPairs.Inc(int64(len(jobs)))

	state = StateScoring
	for _, o := range outcomes {
		if o.err != nil {
			return fail(o.err)
		}
	}

	report := &models.ReconciliationReport{Meta: meta}
	report.Summary.TotalLeftRecords = len(left)
	report.Summary.TotalRightRecords = len(right)
	report.Summary.TotalPairsEvaluated = len(jobs)

	for _, o := range outcomes {
		switch o.pair.Status {
		case models.StatusMatched:
			report.Matched = append(report.Matched, o.pair)
		case models.StatusReview:
			report.Review = append(report.Review, o.pair)
		default:
			report.Unmatched = append(report.Unmatched, o.pair)
		}
	}

	// Records that appeared in no cross-set bucket are reported as
	// unmatched-by-absence rather than silently dropped.
	for i, rec := range left {
		if !leftPaired[i] {
			report.Unmatched = append(report.Unmatched, absentPair(rec.ID, "", leftBlocked[i]))
		}
	}
	for i, rec := range right {
		if !rightPaired[i] {
			report.Unmatched = append(report.Unmatched, absentPair("", rec.ID, rightBlocked[i]))
		}
	}

	sortPairs(report.Matched)
	sortPairs(report.Review)
	sortPairs(report.Unmatched)

	report.Summary.MatchedCount = len(report.Matched)
	report.Summary.ReviewCount = len(report.Review)
	report.Summary.UnmatchedCount = len(report.Unmatched)
	report.Meta.Duration = time.Since(start)

	state = StateCompleted
	if e.log != nil {
		e.log.WithTrace(ctx).Info("run complete",
			logging.String("run_id", meta.RunID),
			logging.String("state", state.String()),
			logging.Int("matched", report.Summary.MatchedCount),
			logging.Int("review", report.Summary.ReviewCount),
			logging.Int("unmatched", report.Summary.UnmatchedCount),
			logging.Duration("took", report.Meta.Duration))
	}
	return report, nil
}

// evaluatePair runs the rule set and classifies one candidate pair.
// Review boundary is inclusive on both ends: confidence equal to the
// review threshold stays in the review queue.
func (e *Engine) evaluatePair(left, right models.Record, evaluator *rules.Evaluator, cfg *models.RunConfig) pairOutcome {
	results, err := evaluator.Evaluate(left, right)
	if err != nil {
		return pairOutcome{err: err}
	}

	score := confidence.Calculate(results)
	pair := models.Pair{
		LeftID:     left.ID,
		RightID:    right.ID,
		Confidence: score,
		Results:    results,
	}
	switch {
	case confidence.MeetsThreshold(score, cfg.MatchThreshold):
		pair.Status = models.StatusMatched
	case score < cfg.ReviewThreshold:
		pair.Status = models.StatusUnmatched
	default:
		pair.Status = models.StatusReview
	}
	return pairOutcome{pair: pair}
}

func absentPair(leftID, rightID string, hadKey bool) models.Pair {
	detail := "no blocking key derived; record excluded from candidate generation"
	if hadKey {
		detail = "no cross-set blocking bucket contained this record"
	}
	return models.Pair{
		LeftID:  leftID,
		RightID: rightID,
		Status:  models.StatusUnmatched,
		Details: []string{detail},
	}
}

func sortPairs(pairs []models.Pair) {
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].LeftID != pairs[j].LeftID {
			return pairs[i].LeftID < pairs[j].LeftID
		}
		return pairs[i].RightID < pairs[j].RightID
	})
}

func schemaOf(records []models.Record) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range records {
		for name := range r.Fields {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	return out
}
