package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		paymentVerifyRequests,
		paymentVerifyDuration,
		paymentsTotal,
	)
}

var (
	// Count of callback verifications grouped by result and bounded reason.
	// result: ok|fail
	// reason (fail only): bad_fields|signature_mismatch|amount_mismatch|unknown
	paymentVerifyRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_verify_requests_total",
			Help: "Count of gateway callback verifications by result and reason.",
		},
		[]string{"result", "reason"},
	)

	paymentVerifyDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "payment_verify_duration_seconds",
			Help:    "Duration of callback handling in seconds.",
			Buckets: []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"result"},
	)

	paymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_total",
			Help: "Payments by status (initiated/verified/failed).",
		},
		[]string{"status"},
	)
)

func IncPaymentVerify(result, reason string) {
	paymentVerifyRequests.WithLabelValues(result, reason).Inc()
}

func ObservePaymentVerify(result string, seconds float64) {
	paymentVerifyDuration.WithLabelValues(result).Observe(seconds)
}

func IncPayment(status string) {
	paymentsTotal.WithLabelValues(status).Inc()
}
