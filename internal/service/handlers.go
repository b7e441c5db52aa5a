package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"record-reconciliation/internal/audit"
	"record-reconciliation/internal/connector"
	"record-reconciliation/internal/models"
	"record-reconciliation/internal/report"
	errs "record-reconciliation/pkg/errors"
	"record-reconciliation/pkg/logging"
	"record-reconciliation/pkg/trace"
)

// recordSource picks one side's records: either inline or pulled through a
// registered connector. Inline records win when both are present.
type recordSource struct {
	Connector string           `json:"connector,omitempty"`
	Filter    connector.Filter `json:"filter,omitempty"`
	Records   []models.Record  `json:"records,omitempty"`
}

type reconcileRequest struct {
	Left  recordSource `json:"left"`
	Right recordSource `json:"right"`
	// Config overrides the server's default run configuration when set.
	Config *models.RunConfig `json:"config,omitempty"`
	// Format selects "json" (default) or "text".
	Format string `json:"format,omitempty"`
	// Summarize asks for an LLM triage briefing of the review queue.
	Summarize bool `json:"summarize,omitempty"`
	// CanonicalizeField names an address field to rewrite through the
	// geocoder on both sides before matching. Ignored when no geocoder is
	// configured.
	CanonicalizeField string `json:"canonicalize_field,omitempty"`
}

type reconcileResponse struct {
	Report  *models.ReconciliationReport `json:"report"`
	Summary string                       `json:"review_summary,omitempty"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
}

func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tc, _ := trace.From(ctx)
	s.mRequests.Inc(1)

	var req reconcileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, tc, http.StatusBadRequest,
			errs.NewConfig("service.handleReconcile", errs.CodeInvalidRuleSet,
				"request body is not valid JSON", "check the reconcile request schema"))
		return
	}

	// Admission before any connector work; the gate bounds concurrent runs
	// across the whole process.
	permit, err := s.gate.Acquire(ctx)
	if err != nil {
		s.mRejected.Inc(1)
		s.writeError(w, tc, http.StatusServiceUnavailable, err)
		return
	}
	defer permit.Release()

	cfg := req.Config
	if cfg == nil {
		defaults := s.currentDefaults()
		cfg, err = models.LoadRunConfig(defaults.RunConfigPath)
		if err != nil {
			s.writeError(w, tc, http.StatusBadRequest, err)
			return
		}
		if cfg.MatchThreshold == 0 && cfg.ReviewThreshold == 0 {
			cfg.MatchThreshold = defaults.MatchThreshold
			cfg.ReviewThreshold = defaults.ReviewThreshold
		}
	}

	left, err := s.resolveRecords(ctx, req.Left)
	if err != nil {
		s.writeError(w, tc, statusFor(err), err)
		return
	}
	right, err := s.resolveRecords(ctx, req.Right)
	if err != nil {
		s.writeError(w, tc, statusFor(err), err)
		return
	}

	if req.CanonicalizeField != "" && s.geocoder != nil {
		left = s.geocoder.EnrichField(ctx, left, req.CanonicalizeField)
		right = s.geocoder.EnrichField(ctx, right, req.CanonicalizeField)
	}

	s.appendAudit(ctx, audit.RunStarted{
		Base:           audit.Base{Ts: time.Now().UTC(), TraceID: tc.TraceID},
		LeftConnector:  req.Left.Connector,
		RightConnector: req.Right.Connector,
		RuleCount:      len(cfg.Rules),
	})

	rep, err := s.engine.Run(ctx, left, right, cfg)
	if err != nil {
		s.appendAudit(ctx, audit.RunFailed{
			Base:   audit.Base{Ts: time.Now().UTC(), TraceID: tc.TraceID},
			Reason: errs.ActionableMessage(err),
		})
		s.writeError(w, tc, statusFor(err), err)
		return
	}

	s.appendAudit(ctx, audit.RunCompleted{
		Base:       audit.Base{Ts: time.Now().UTC(), Run: rep.Meta.RunID, TraceID: tc.TraceID},
		Summary:    rep.Summary,
		DurationMs: rep.Meta.Duration.Milliseconds(),
	})

	if req.Format == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(report.FormatText(rep, tc)))
		return
	}

	resp := reconcileResponse{Report: rep}
	if req.Summarize && s.summarizer != nil && s.summarizer.Enabled() {
		summary, serr := s.summarizer.SummarizeReview(ctx, rep)
		if serr != nil {
			if s.log != nil {
				s.log.WithTrace(ctx).Warn("review summary failed", logging.String("error", serr.Error()))
			}
		} else {
			resp.Summary = summary
		}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// resolveRecords returns inline records as-is, otherwise queries the named
// connector through the registry.
func (s *Server) resolveRecords(ctx context.Context, src recordSource) ([]models.Record, error) {
	if len(src.Records) > 0 {
		return src.Records, nil
	}
	if src.Connector == "" {
		return nil, errs.NewConfig("service.resolveRecords", errs.CodeInvalidRuleSet,
			"record source names no connector and carries no inline records",
			"set either connector or records on both sides of the request")
	}
	c, err := s.registry.Get(src.Connector)
	if err != nil {
		return nil, err
	}
	return c.Query(ctx, src.Filter)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"connectors": s.registry.Names(),
		"permits":    s.gate.Available(),
	})
}

// appendAudit records the event without letting sink failures affect the
// caller's request.
func (s *Server) appendAudit(ctx context.Context, e audit.Event) {
	if s.auditStore == nil {
		return
	}
	if err := s.auditStore.Append(ctx, e); err != nil && s.log != nil {
		s.log.WithTrace(ctx).Warn("audit append failed",
			logging.String("event", e.Type()),
			logging.String("error", err.Error()))
	}
}

// statusFor maps the error taxonomy onto HTTP status codes: configuration
// problems are the caller's (400), connector failures are upstream (502).
func statusFor(err error) int {
	if errs.Is(err, errs.ErrConfig) {
		return http.StatusBadRequest
	}
	if errs.Is(err, errs.ErrDataAccess) {
		return http.StatusBadGateway
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil && s.log != nil {
		s.log.Warn("failed to encode response", logging.String("error", err.Error()))
	}
}

func (s *Server) writeError(w http.ResponseWriter, tc trace.Context, status int, err error) {
	err = errs.WithTrace(err, tc.TraceID)
	if s.log != nil {
		s.log.Warn("request failed",
			logging.String("trace_id", tc.TraceID),
			logging.Int("status", status),
			logging.String("error", err.Error()))
	}
	resp := errorResponse{Error: errs.ActionableMessage(err), TraceID: tc.TraceID}
	var c *errs.ConfigError
	var d *errs.DataAccessError
	switch {
	case errors.As(err, &c):
		resp.Code = c.Code
	case errors.As(err, &d):
		resp.Code = d.Code
	}
	s.writeJSON(w, status, resp)
}
