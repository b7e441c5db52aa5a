package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCounter(t *testing.T) {
	r := NewRegistry()
	c := r.Counter("runs_total", "Runs")
	c.Inc(1)
	c.Inc(2)
	if c.Get() != 3 {
		t.Fatalf("unexpected counter value: %d", c.Get())
	}
	// Same name returns the same counter.
	if r.Counter("runs_total", "Runs") != c {
		t.Fatalf("expected idempotent registration")
	}
}

func TestGauge(t *testing.T) {
	r := NewRegistry()
	g := r.Gauge("inflight", "In flight")
	g.Set(2.5)
	g.Add(1.5)
	if g.Get() != 4.0 {
		t.Fatalf("unexpected gauge value: %v", g.Get())
	}
	g.Add(-4.0)
	if g.Get() != 0.0 {
		t.Fatalf("unexpected gauge value: %v", g.Get())
	}
}

func TestHandler_TextExposition(t *testing.T) {
	r := NewRegistry()
	r.Counter("pairs_total", "Pairs evaluated").Inc(7)
	r.Gauge("queue_depth", "Queue depth").Set(1.5)

	w := httptest.NewRecorder()
	r.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))

	body := w.Body.String()
	for _, want := range []string{
		"# TYPE pairs_total counter", "pairs_total 7",
		"# TYPE queue_depth gauge", "queue_depth 1.5",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in exposition:\n%s", want, body)
		}
	}
}
