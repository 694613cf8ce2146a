package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rl1809/storefront/internal/core/domain"
)

type PrometheusMetrics struct {
	fetchTotal  *prometheus.CounterVec
	itemTotal   *prometheus.CounterVec
	commitTotal *prometheus.CounterVec
}

func NewPrometheusMetrics(reg prometheus.Registerer) (*PrometheusMetrics, error) {
	m := &PrometheusMetrics{
		fetchTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_fetch_total",
				Help: "Requests handled by the cache gateway, by outcome",
			}, []string{"outcome"}),
		itemTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inventory_items_total",
				Help: "Order line items processed by the inventory trigger, by outcome",
			}, []string{"outcome"}),
		commitTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inventory_batch_commits_total",
				Help: "Inventory batch commits, by result",
			}, []string{"result"}),
	}

	for _, c := range []prometheus.Collector{m.fetchTotal, m.itemTotal, m.commitTotal} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metric: %w", err)
		}
	}
	return m, nil
}

func (m *PrometheusMetrics) ObserveFetch(outcome string) {
	m.fetchTotal.WithLabelValues(outcome).Inc()
}

func (m *PrometheusMetrics) ObserveItem(outcome domain.ItemOutcome) {
	m.itemTotal.WithLabelValues(string(outcome)).Inc()
}

func (m *PrometheusMetrics) ObserveCommit(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.commitTotal.WithLabelValues(result).Inc()
}
