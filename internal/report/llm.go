package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"record-reconciliation/internal/models"
)

// Summarizer drafts a human-readable briefing of the review queue so an
// operator can triage borderline pairs faster. Disabled (Enabled() false)
// when no API key is configured; reconciliation never depends on it.
type Summarizer struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

func NewSummarizer(apiKey, model string, timeout time.Duration) *Summarizer {
	if apiKey == "" {
		return &Summarizer{}
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Summarizer{client: openai.NewClient(apiKey), model: model, timeout: timeout}
}

func (s *Summarizer) Enabled() bool { return s.client != nil }

// SummarizeReview asks the model for a short triage briefing over the
// review pairs. Only rule ids, scores and weights are sent; record field
// contents never leave the process.
func (s *Summarizer) SummarizeReview(ctx context.Context, r *models.ReconciliationReport) (string, error) {
	if !s.Enabled() {
		return "", fmt.Errorf("summarizer disabled: no API key configured")
	}
	if len(r.Review) == 0 {
		return "No pairs need review.", nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var b strings.Builder
	fmt.Fprintf(&b, "Reconciliation run with %d matched, %d review, %d unmatched pairs.\n",
		r.Summary.MatchedCount, r.Summary.ReviewCount, r.Summary.UnmatchedCount)
	b.WriteString("Pairs needing review (rule verdicts as rule_id hit|miss score weight):\n")
	for i, p := range r.Review {
		if i >= 25 {
			fmt.Fprintf(&b, "... and %d more\n", len(r.Review)-i)
			break
		}
		fmt.Fprintf(&b, "- %s vs %s, confidence %.2f:", p.LeftID, p.RightID, p.Confidence)
		for _, res := range p.Results {
			verdict := "miss"
			if res.Matched {
				verdict = "hit"
			}
			fmt.Fprintf(&b, " %s %s %.3f %.2f;", res.RuleID, verdict, res.Score, res.Weight)
		}
		b.WriteString("\n")
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		Temperature: 0.1,
		MaxTokens:   400,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: "You summarize record-reconciliation review queues for a data steward. " +
					"Group pairs by the rules that kept them out of auto-match, point out which " +
					"rule failures dominate, and suggest what to check first. Be brief.",
			},
			{Role: openai.ChatMessageRoleUser, Content: b.String()},
		},
	})
	if err != nil {
		return "", fmt.Errorf("review summary request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("review summary: empty response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
