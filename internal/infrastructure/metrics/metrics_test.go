package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewRegistersMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()

	m := New(registry)

	if m.OperationsTotal == nil || m.ConflictRetries == nil || m.HTTPRequests == nil {
		t.Fatalf("expected key metrics to be initialized: %+v", m)
	}

	// Touch a few metrics so they show up in the gather.
	m.OperationsTotal.WithLabelValues("deposit", "ok").Inc()
	m.ConflictRetries.Inc()
	m.IdempotentReplays.Inc()

	metricFamilies, err := registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	if len(metricFamilies) == 0 {
		t.Fatalf("expected registered metrics, got none")
	}
}

func TestNewIsSafePerRegistry(t *testing.T) {
	// Two engines with their own registries must not collide on
	// metric registration.
	New(prometheus.NewRegistry())
	New(prometheus.NewRegistry())
}
