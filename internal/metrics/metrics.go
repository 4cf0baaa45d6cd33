// Package metrics exposes Prometheus metrics for the odds pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects refresh and detection metrics on a private registry
type Metrics struct {
	registry *prometheus.Registry

	RefreshesTotal    *prometheus.CounterVec
	RefreshDuration   prometheus.Histogram
	EventsFetched     *prometheus.GaugeVec
	ArbitrageFound    *prometheus.GaugeVec
	BestProfitPct     prometheus.Gauge
	ValueBetsFound    prometheus.Gauge
	APIRequestsRemain prometheus.Gauge
	ProviderErrors    *prometheus.CounterVec
	WSClients         prometheus.Gauge
	BetsSettled       *prometheus.CounterVec
	Alerts            *prometheus.CounterVec
}

// New creates and registers all collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		RefreshesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arbfinder_refreshes_total",
				Help: "Odds refreshes by outcome",
			},
			[]string{"status"},
		),
		RefreshDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "arbfinder_refresh_duration_seconds",
				Help:    "Wall time of a full odds refresh",
				Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
			},
		),
		EventsFetched: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "arbfinder_events_fetched",
				Help: "Events returned by the odds provider in the last refresh",
			},
			[]string{"sport"},
		),
		ArbitrageFound: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "arbfinder_arbitrage_live",
				Help: "Live arbitrage opportunities from the last refresh",
			},
			[]string{"sport"},
		),
		BestProfitPct: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "arbfinder_best_profit_pct",
				Help: "Highest arbitrage profit percentage in the last refresh",
			},
		),
		ValueBetsFound: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "arbfinder_value_bets",
				Help: "Value bets from the last refresh",
			},
		),
		APIRequestsRemain: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "arbfinder_odds_api_requests_remaining",
				Help: "Remaining odds API quota",
			},
		),
		ProviderErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arbfinder_provider_errors_total",
				Help: "Provider request failures",
			},
			[]string{"provider"},
		),
		WSClients: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "arbfinder_ws_clients",
				Help: "Connected WebSocket clients",
			},
		),
		BetsSettled: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arbfinder_bets_settled_total",
				Help: "Tracked bets settled by result",
			},
			[]string{"result"},
		),
		Alerts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arbfinder_alerts_total",
				Help: "Alert decisions by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
	}

	m.registry.MustRegister(
		m.RefreshesTotal,
		m.RefreshDuration,
		m.EventsFetched,
		m.ArbitrageFound,
		m.BestProfitPct,
		m.ValueBetsFound,
		m.APIRequestsRemain,
		m.ProviderErrors,
		m.WSClients,
		m.BetsSettled,
		m.Alerts,
	)

	return m
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordRefresh records one refresh run
func (m *Metrics) RecordRefresh(status string, elapsed time.Duration) {
	m.RefreshesTotal.WithLabelValues(status).Inc()
	m.RefreshDuration.Observe(elapsed.Seconds())
}

// RecordProviderError counts a failed provider call
func (m *Metrics) RecordProviderError(provider string) {
	m.ProviderErrors.WithLabelValues(provider).Inc()
}

// RecordSettled counts a settled bet
func (m *Metrics) RecordSettled(result string) {
	m.BetsSettled.WithLabelValues(result).Inc()
}

// RecordAlert counts an alert decision by outcome
func (m *Metrics) RecordAlert(kind, outcome string) {
	m.Alerts.WithLabelValues(kind, outcome).Inc()
}
