package metrics

import (
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/taskvault/taskvault/internal/core/domain"
)

func TestOutcome(t *testing.T) {
	cases := map[string]error{
		"ok":         nil,
		"validation": domain.NewValidationError("title is required"),
		"not_found":  fmt.Errorf("lookup: %w", domain.ErrTaskNotFound),
		"storage":    domain.NewStorageError("find task", errors.New("timeout")),
		"error":      errors.New("boom"),
	}
	for want, err := range cases {
		if got := Outcome(err); got != want {
			t.Fatalf("Outcome(%v) = %q, want %q", err, got, want)
		}
	}
}

func TestTaskOperationsTotal_Increments(t *testing.T) {
	counter := TaskOperationsTotal.WithLabelValues("get", "not_found")
	before := testutil.ToFloat64(counter)
	counter.Inc()
	if got := testutil.ToFloat64(counter); got != before+1 {
		t.Fatalf("expected %v, got %v", before+1, got)
	}
}
