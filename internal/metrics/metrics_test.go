package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveLLM(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveLLM("lesson", 10*time.Millisecond, nil)
	m.ObserveLLM("lesson", 10*time.Millisecond, errors.New("boom"))
	m.ObserveLLM("lesson", 10*time.Millisecond, nil)

	if got := testutil.ToFloat64(m.LLMRequestsTotal.WithLabelValues("lesson", "success")); got != 2 {
		t.Fatalf("success count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.LLMRequestsTotal.WithLabelValues("lesson", "error")); got != 1 {
		t.Fatalf("error count = %v, want 1", got)
	}
}

func TestObserveRetryAndConflicts(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveRetry("onboarding-chat")
	m.ObserveRetry("onboarding-chat")
	m.ObserveAppendConflict()

	if got := testutil.ToFloat64(m.LLMRetriesTotal.WithLabelValues("onboarding-chat")); got != 2 {
		t.Fatalf("retries = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.ConversationAppendConflicts); got != 1 {
		t.Fatalf("conflicts = %v, want 1", got)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveLLM("x", time.Second, nil)
	m.ObserveRetry("x")
	m.ObserveInterpretFailure("x")
	m.ObserveAppend("create")
	m.ObserveAppendConflict()
	m.ObserveHTTP("GET", "/", 200, time.Second)
}
