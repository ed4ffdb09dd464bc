package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(WithRegistry(reg), WithNamespace("test"))

	m.ObservePass(time.Now(), 3, false)
	m.ObservePass(time.Now(), 2, true)
	m.IncApplies()
	m.IncPool(true)
	m.IncPool(false)
	m.IncReconcile("mixed")
	m.IncTransaction("committed")

	if got := testutil.ToFloat64(m.Passes); got != 2 {
		t.Errorf("passes = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.RefsVisited); got != 5 {
		t.Errorf("refs visited = %v, want 5", got)
	}
	if got := testutil.ToFloat64(m.PassFailures); got != 1 {
		t.Errorf("failures = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.PoolHits); got != 1 {
		t.Errorf("pool hits = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Reconciles.WithLabelValues("mixed")); got != 1 {
		t.Errorf("reconciles = %v, want 1", got)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics

	// Instrumentation call sites are unconditional; nil must not panic.
	m.ObservePass(time.Now(), 1, false)
	m.IncApplies()
	m.IncPool(true)
	m.IncReconcile("noop")
	m.IncTransaction("rejected")
}
