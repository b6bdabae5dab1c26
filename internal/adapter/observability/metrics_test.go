package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordOfferIncrementsCounter(t *testing.T) {
	OperationsOfferedTotal.Reset()
	RecordOffer("orders", "echo.v1")
	got := testutil.ToFloat64(OperationsOfferedTotal.WithLabelValues("orders", "echo.v1"))
	if got != 1 {
		t.Fatalf("expected counter to be 1, got %v", got)
	}
}

func TestRecordCompleteIncrementsByOutcome(t *testing.T) {
	OperationsCompletedTotal.Reset()
	RecordComplete("orders", "ok", 1.5)
	RecordComplete("orders", "error", 0.5)

	ok := testutil.ToFloat64(OperationsCompletedTotal.WithLabelValues("orders", "ok"))
	failed := testutil.ToFloat64(OperationsCompletedTotal.WithLabelValues("orders", "error"))
	if ok != 1 || failed != 1 {
		t.Fatalf("expected one ok and one error completion, got ok=%v error=%v", ok, failed)
	}
}

func TestSetInflightDepthSetsGauge(t *testing.T) {
	SetInflightDepth("orders", 7)
	got := testutil.ToFloat64(InflightDepth.WithLabelValues("orders"))
	if got != 7 {
		t.Fatalf("expected gauge value 7, got %v", got)
	}
}

func TestRecordRateLimitedIncrementsCounter(t *testing.T) {
	OperationsRateLimitedTotal.Reset()
	RecordRateLimited("orders")
	got := testutil.ToFloat64(OperationsRateLimitedTotal.WithLabelValues("orders"))
	if got != 1 {
		t.Fatalf("expected counter to be 1, got %v", got)
	}
}
