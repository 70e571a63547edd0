package metrics

import "github.com/prometheus/client_golang/prometheus"

// CartMetrics counts the corrections applied while repricing carts.
type CartMetrics struct {
	adjustments     *prometheus.CounterVec
	persistFailures prometheus.Counter
}

func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	adjustments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_price_adjustments_total",
		Help: "Lines dropped or clamped and campaigns cleared during cart pricing.",
	}, []string{"kind"})
	persistFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_persist_failures_total",
		Help: "Priced carts that could not be saved on a read path.",
	})
	reg.MustRegister(adjustments, persistFailures)
	return &CartMetrics{adjustments: adjustments, persistFailures: persistFailures}
}

// AddAdjustments records n adjustments of the given kind.
func (c *CartMetrics) AddAdjustments(kind string, n int) {
	if c == nil || c.adjustments == nil || n <= 0 {
		return
	}
	c.adjustments.WithLabelValues(normalizeLabel(kind)).Add(float64(n))
}

func (c *CartMetrics) IncPersistFailure() {
	if c == nil || c.persistFailures == nil {
		return
	}
	c.persistFailures.Inc()
}
