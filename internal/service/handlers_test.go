package service

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"record-reconciliation/internal/audit"
	"record-reconciliation/internal/blocking"
	"record-reconciliation/internal/connector"
	"record-reconciliation/internal/models"
	"record-reconciliation/internal/normalize"
	"record-reconciliation/internal/reconcile"
	"record-reconciliation/internal/similarity"
	errs "record-reconciliation/pkg/errors"
	"record-reconciliation/pkg/gate"
)

func testServer() *Server {
	return NewServer(
		nil,
		gate.New(2),
		connector.NewRegistry(),
		reconcile.NewEngine(reconcile.DefaultConfig(), nil),
		audit.NopStore{},
		nil,
		nil,
		Defaults{RunConfigPath: "does-not-exist.yaml", MatchThreshold: 90, ReviewThreshold: 60},
	)
}

func inlineRequest() reconcileRequest {
	return reconcileRequest{
		Left: recordSource{Records: []models.Record{
			{ID: "L1", Fields: map[string]any{"name": "Acme GmbH"}},
		}},
		Right: recordSource{Records: []models.Record{
			{ID: "R1", Fields: map[string]any{"name": "ACME Gmbh"}},
		}},
		Config: &models.RunConfig{
			Blocking:        models.BlockingConfig{Field: "name", Algorithm: blocking.AlgorithmExact},
			MatchThreshold:  90,
			ReviewThreshold: 60,
			Rules: []models.MatchingRule{{
				ID: "company_name", Field: "name", Weight: 1, Threshold: 0.85,
				Preprocessing: []normalize.Step{
					normalize.StepLowercase, normalize.StepRemoveLegalForms, normalize.StepTrim,
				},
				Similarity: similarity.Config{Algorithm: similarity.AlgorithmJaroWinkler},
			}},
		},
	}
}

func post(t *testing.T, s *Server, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/reconcile", bytes.NewReader(raw))
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestReconcile_InlineRecords(t *testing.T) {
	w := post(t, testServer(), inlineRequest())
	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", w.Code, w.Body.String())
	}
	if w.Header().Get("X-Trace-Id") == "" {
		t.Fatalf("expected a trace id header")
	}

	var resp reconcileResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Report == nil || resp.Report.Summary.MatchedCount != 1 {
		t.Fatalf("unexpected report: %+v", resp.Report)
	}
	if resp.Report.Matched[0].Confidence != 100.0 {
		t.Fatalf("unexpected pair: %+v", resp.Report.Matched[0])
	}
}

func TestReconcile_TextFormat(t *testing.T) {
	req := inlineRequest()
	req.Format = "text"
	w := post(t, testServer(), req)
	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("unexpected content type %q", ct)
	}
	if !strings.Contains(w.Body.String(), "MATCHED (1)") {
		t.Fatalf("unexpected text report:\n%s", w.Body.String())
	}
}

func TestReconcile_TraceHeaderPropagates(t *testing.T) {
	s := testServer()
	raw, _ := json.Marshal(inlineRequest())
	req := httptest.NewRequest(http.MethodPost, "/reconcile", bytes.NewReader(raw))
	req.Header.Set("X-Trace-Id", "trace-123")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if got := w.Header().Get("X-Trace-Id"); got != "trace-123" {
		t.Fatalf("expected the incoming trace id to be honored, got %q", got)
	}
	var resp reconcileResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Report.Meta.TraceID != "trace-123" {
		t.Fatalf("expected the trace id on the report meta: %+v", resp.Report.Meta)
	}
}

func TestReconcile_BadJSON(t *testing.T) {
	s := testServer()
	req := httptest.NewRequest(http.MethodPost, "/reconcile", strings.NewReader("{nope"))
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status %d: %s", w.Code, w.Body.String())
	}
}

func TestReconcile_InvalidConfig(t *testing.T) {
	req := inlineRequest()
	req.Config.Rules = nil
	w := post(t, testServer(), req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status %d: %s", w.Code, w.Body.String())
	}
	var resp errorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if resp.Code != errs.CodeInvalidRuleSet || resp.TraceID == "" {
		t.Fatalf("unexpected error body: %+v", resp)
	}
}

func TestReconcile_SourceWithoutConnectorOrRecords(t *testing.T) {
	req := inlineRequest()
	req.Left = recordSource{}
	w := post(t, testServer(), req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status %d: %s", w.Code, w.Body.String())
	}
}

func TestReconcile_UnknownConnector(t *testing.T) {
	req := inlineRequest()
	req.Left = recordSource{Connector: "crm"}
	w := post(t, testServer(), req)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("unexpected status %d: %s", w.Code, w.Body.String())
	}
	var resp errorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if resp.Code != errs.CodeConnectorNotFound {
		t.Fatalf("unexpected error code: %+v", resp)
	}
}

func TestSetDefaults_AppliesToLaterRuns(t *testing.T) {
	// Run config without thresholds, so the server defaults decide.
	path := filepath.Join(t.TempDir(), "run.yaml")
	runCfg := `
blocking:
  field: name
  algorithm: exact
rules:
  - id: name
    field: name
    weight: 1
    threshold: 1
    similarity:
      algorithm: levenshtein
  - id: city
    field: city
    weight: 1
    threshold: 1
    similarity:
      algorithm: levenshtein
`
	if err := os.WriteFile(path, []byte(runCfg), 0o600); err != nil {
		t.Fatalf("write run config: %v", err)
	}

	s := NewServer(
		nil,
		gate.New(2),
		connector.NewRegistry(),
		reconcile.NewEngine(reconcile.DefaultConfig(), nil),
		audit.NopStore{},
		nil,
		nil,
		Defaults{RunConfigPath: path, MatchThreshold: 90, ReviewThreshold: 60},
	)

	// Matching name, differing city: confidence 50.
	req := reconcileRequest{
		Left: recordSource{Records: []models.Record{
			{ID: "L1", Fields: map[string]any{"name": "acme", "city": "berlin"}},
		}},
		Right: recordSource{Records: []models.Record{
			{ID: "R1", Fields: map[string]any{"name": "acme", "city": "hamburg"}},
		}},
	}

	w := post(t, s, req)
	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", w.Code, w.Body.String())
	}
	var resp reconcileResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Report.Summary.MatchedCount != 0 || resp.Report.Summary.UnmatchedCount != 1 {
		t.Fatalf("expected unmatched under the initial defaults: %+v", resp.Report.Summary)
	}

	// Reloaded defaults apply to the next run.
	s.SetDefaults(Defaults{RunConfigPath: path, MatchThreshold: 40, ReviewThreshold: 10})
	w = post(t, s, req)
	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", w.Code, w.Body.String())
	}
	resp = reconcileResponse{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Report.Summary.MatchedCount != 1 {
		t.Fatalf("expected a match under the reloaded defaults: %+v", resp.Report.Summary)
	}
}

func TestHealth(t *testing.T) {
	s := testServer()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode health body: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("unexpected health body: %+v", body)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := testServer()
	post(t, s, inlineRequest())

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "http_reconcile_requests") {
		t.Fatalf("expected request counter in metrics output:\n%s", w.Body.String())
	}
}
