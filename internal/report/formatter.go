// Package report renders reconciliation reports for the consumers outside
// the core: plain text for operators, JSON for machine callers, and an
// optional LLM-drafted summary of the review queue.
package report

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"record-reconciliation/internal/models"
	"record-reconciliation/pkg/trace"
)

// FormatText renders the report for a terminal or log file. Fields listed
// in the trace context's masking list are omitted from rule details.
func FormatText(r *models.ReconciliationReport, tc trace.Context) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Reconciliation run %s", r.Meta.RunID)
	if r.Meta.TraceID != "" {
		fmt.Fprintf(&b, " (trace %s)", r.Meta.TraceID)
	}
	fmt.Fprintf(&b, "\nstarted %s, took %s\n\n",
		r.Meta.StartedAt.Format("2006-01-02 15:04:05"), r.Meta.Duration.Round(time.Millisecond))

	s := r.Summary
	fmt.Fprintf(&b, "left records:   %d\n", s.TotalLeftRecords)
	fmt.Fprintf(&b, "right records:  %d\n", s.TotalRightRecords)
	fmt.Fprintf(&b, "pairs evaluated: %d\n", s.TotalPairsEvaluated)
	fmt.Fprintf(&b, "matched: %d   review: %d   unmatched: %d\n",
		s.MatchedCount, s.ReviewCount, s.UnmatchedCount)

	writeSection(&b, "MATCHED", r.Matched, tc)
	writeSection(&b, "NEEDS REVIEW", r.Review, tc)
	writeSection(&b, "UNMATCHED", r.Unmatched, tc)

	return b.String()
}

func writeSection(b *strings.Builder, title string, pairs []models.Pair, tc trace.Context) {
	if len(pairs) == 0 {
		return
	}
	fmt.Fprintf(b, "\n%s (%d)\n", title, len(pairs))
	for _, p := range pairs {
		fmt.Fprintf(b, "  %s <-> %s  confidence=%.2f\n", orDash(p.LeftID), orDash(p.RightID), p.Confidence)
		for _, res := range p.Results {
			if tc.Masked(res.RuleID) {
				continue
			}
			verdict := "miss"
			if res.Matched {
				verdict = "hit"
			}
			fmt.Fprintf(b, "    rule %-20s %s score=%.3f weight=%.2f\n", res.RuleID, verdict, res.Score, res.Weight)
			for _, d := range res.Details {
				fmt.Fprintf(b, "      note: %s\n", d)
			}
		}
		for _, d := range p.Details {
			fmt.Fprintf(b, "    note: %s\n", d)
		}
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// FormatJSON renders the report as indented JSON.
func FormatJSON(r *models.ReconciliationReport) ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
