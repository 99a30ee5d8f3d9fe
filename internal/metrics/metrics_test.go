package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveProviderAttempt(t *testing.T) {
	before := testutil.ToFloat64(providerAttemptsTotal.WithLabelValues("stub", "timeout"))
	ObserveProviderAttempt("stub", "timeout", 0.5)
	after := testutil.ToFloat64(providerAttemptsTotal.WithLabelValues("stub", "timeout"))
	if after-before != 1 {
		t.Fatalf("expected counter to grow by 1, got %v", after-before)
	}
}

func TestObservePlatformOutcome(t *testing.T) {
	before := testutil.ToFloat64(platformOutcomesTotal.WithLabelValues("Twitter", "failure"))
	ObservePlatformOutcome("Twitter", false)
	if got := testutil.ToFloat64(platformOutcomesTotal.WithLabelValues("Twitter", "failure")) - before; got != 1 {
		t.Fatalf("expected failure counter to grow by 1, got %v", got)
	}
}

func TestObservePersistenceFailure(t *testing.T) {
	before := testutil.ToFloat64(persistenceFailuresTotal.WithLabelValues("database"))
	ObservePersistenceFailure("database")
	if got := testutil.ToFloat64(persistenceFailuresTotal.WithLabelValues("database")) - before; got != 1 {
		t.Fatalf("expected persistence counter to grow by 1, got %v", got)
	}
}
