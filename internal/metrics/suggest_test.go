package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegister_Idempotent(t *testing.T) {
	Register()
	Register()

	SuggestQueriesTotal.WithLabelValues("metrics-test", "ok").Inc()
	if got := testutil.ToFloat64(SuggestQueriesTotal.WithLabelValues("metrics-test", "ok")); got != 1 {
		t.Errorf("suggest_queries_total = %f, want 1", got)
	}
}
