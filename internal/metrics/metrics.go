package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// CheckoutMetrics counts the outcomes of the checkout pipeline.
type CheckoutMetrics struct {
	Checkouts     *prometheus.CounterVec
	Payments      *prometheus.CounterVec
	Cancellations prometheus.Counter
}

// NewCheckoutMetrics registers the counters on reg. Tests pass their own
// registry to avoid collisions with the default one.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: "checkout",
		Name:      "attempts_total",
		Help:      "Checkout attempts by outcome.",
	}, []string{"outcome"})
	payments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: "checkout",
		Name:      "payments_total",
		Help:      "Payment submissions by method and outcome.",
	}, []string{"method", "outcome"})
	cancellations := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: "checkout",
		Name:      "cancellations_total",
		Help:      "Orders cancelled.",
	})

	reg.MustRegister(checkouts, payments, cancellations)
	return &CheckoutMetrics{
		Checkouts:     checkouts,
		Payments:      payments,
		Cancellations: cancellations,
	}
}

func Handler() http.Handler {
	return promhttp.Handler()
}
