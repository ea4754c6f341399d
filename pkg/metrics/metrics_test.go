package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCounterAndGauge(t *testing.T) {
	r := New()
	c := r.Counter("jobs_indexed_total", "Jobs indexed.")
	c.Inc()
	c.Add(2)
	if c.Value() != 3 {
		t.Fatalf("counter = %d, want 3", c.Value())
	}

	g := r.Gauge("queue_depth", "")
	g.Set(5)
	g.Dec()
	if g.Value() != 4 {
		t.Fatalf("gauge = %d, want 4", g.Value())
	}
}

func TestSameNameReturnsSameMetric(t *testing.T) {
	r := New()
	a := r.Counter("x_total", "")
	b := r.Counter("x_total", "")
	if a != b {
		t.Fatal("expected identical counter instance")
	}
}

func TestWithLabels(t *testing.T) {
	got := WithLabels("matches_total", "tier", "semantic")
	if got != `matches_total{tier="semantic"}` {
		t.Fatalf("got %q", got)
	}
	if got := WithLabels("x", "odd"); got != "x" {
		t.Fatalf("odd label count should return bare name, got %q", got)
	}
}

func TestRenderCounterSeries(t *testing.T) {
	r := New()
	r.Counter(WithLabels("matches_total", "tier", "taxonomy"), "Matches by tier.").Inc()
	r.Counter(WithLabels("matches_total", "tier", "semantic"), "").Add(2)

	out := r.Render()
	for _, want := range []string{
		"# HELP matches_total Matches by tier.",
		"# TYPE matches_total counter",
		`matches_total{tier="semantic"} 2`,
		`matches_total{tier="taxonomy"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("render missing %q:\n%s", want, out)
		}
	}
}

func TestRenderHistogram(t *testing.T) {
	r := New()
	h := r.Histogram("match_duration_seconds", "Match latency.", []float64{0.1, 1})
	h.Observe(0.05)
	h.Observe(0.5)
	h.Observe(5)

	out := r.Render()
	for _, want := range []string{
		"# TYPE match_duration_seconds histogram",
		`match_duration_seconds_bucket{le="0.1"} 1`,
		`match_duration_seconds_bucket{le="1"} 2`,
		`match_duration_seconds_bucket{le="+Inf"} 3`,
		"match_duration_seconds_count 3",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("render missing %q:\n%s", want, out)
		}
	}
}

func TestHandler(t *testing.T) {
	r := New()
	r.Counter("ok_total", "").Inc()

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != 200 {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ok_total 1") {
		t.Fatalf("body = %q", rec.Body.String())
	}
}
