package metrics

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestClassifyError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{name: "deadline", err: context.DeadlineExceeded, want: SchedulerErrorTypeDeadlineExceeded},
		{name: "canceled", err: context.Canceled, want: SchedulerErrorTypeDeadlineExceeded},
		{name: "db", err: errors.New("boom"), want: SchedulerErrorTypeDB},
		{name: "nil", err: nil, want: SchedulerErrorTypeUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := classifyError(tc.err); got != tc.want {
				t.Fatalf("expected error type %q, got %q", tc.want, got)
			}
		})
	}
}

func TestAddRecordsGenerated(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := newSchedulerMetrics(registry)

	metrics.AddRecordsGenerated("dedicated_desk", 3)
	metrics.AddRecordsGenerated("dedicated_desk", 0)
	metrics.AddRecordsGenerated("dedicated_desk", -1)

	got := testutil.ToFloat64(metrics.recordsGenerated.WithLabelValues("dedicated_desk"))
	if got != 3 {
		t.Fatalf("expected generated count 3, got %v", got)
	}
}

func TestAddOverdueSwept(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := newSchedulerMetrics(registry)

	metrics.AddOverdueSwept(2)
	metrics.AddOverdueSwept(0)

	got := testutil.ToFloat64(metrics.overdueSwept)
	if got != 2 {
		t.Fatalf("expected swept count 2, got %v", got)
	}
}
