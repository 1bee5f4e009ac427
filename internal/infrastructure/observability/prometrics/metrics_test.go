package prometrics

import (
	"testing"

	"github.com/Zhima-Mochi/vending-machine/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegistry_CounterIsRegisteredOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg, "")

	c1 := r.Counter("sales_total", "sales", "item")
	c2 := r.Counter("sales_total", "sales", "item")
	c1.Add(1, observability.L("item", "Coke"))
	c2.Add(2, observability.L("item", "Coke"))

	vec := r.counters["sales_total"]
	if got := testutil.ToFloat64(vec.WithLabelValues("Coke")); got != 3 {
		t.Errorf("expected 3, got %v", got)
	}
}

func TestRegistry_Instruments(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg, "")

	counters, histograms := r.Instruments()
	if len(counters) != 5 || len(histograms) != 3 {
		t.Fatalf("unexpected instrument count: %d counters, %d histograms", len(counters), len(histograms))
	}

	counters[observability.MUsecaseRequests].Add(1,
		observability.L("use_case", "vending.purchase"),
		observability.L("outcome", "success"),
	)
	histograms[observability.MUsecaseDuration].Observe(0.01, observability.L("use_case", "vending.purchase"))

	n, err := testutil.GatherAndCount(reg, "usecase_requests_total")
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if n != 1 {
		t.Errorf("expected one usecase_requests_total series, got %d", n)
	}

	// A second call must reuse the registered vectors instead of panicking.
	r.Instruments()
}
