// Package metrics holds the prometheus collectors of the blood bank service.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "bloodbank"

// Metrics groups every collector. A nil *Metrics is valid and records nothing.
type Metrics struct {
	donationsRecorded *prometheus.CounterVec
	unitsCollected    *prometheus.CounterVec
	stockAdjustments  *prometheus.CounterVec
	inventoryUnits    *prometheus.GaugeVec
	donorsRegistered  prometheus.Counter
	requestsByStatus  *prometheus.CounterVec
	cacheLookups      *prometheus.CounterVec
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
}

// New registers the collectors on reg. Tests pass a fresh
// prometheus.NewRegistry() to avoid duplicate registration.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		donationsRecorded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "donations_recorded_total",
			Help:      "Donations recorded, by blood group.",
		}, []string{"blood_group"}),
		unitsCollected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "units_collected_total",
			Help:      "Units collected through donations, by blood group.",
		}, []string{"blood_group"}),
		stockAdjustments: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_adjustments_total",
			Help:      "Inventory adjustments by action and result.",
		}, []string{"action", "result"}),
		inventoryUnits: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "inventory_units",
			Help:      "Units available per blood group after the last change.",
		}, []string{"blood_group"}),
		donorsRegistered: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "donors_registered_total",
			Help:      "Donors registered.",
		}),
		requestsByStatus: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blood_request_transitions_total",
			Help:      "Blood request status transitions, by target status.",
		}, []string{"status"}),
		cacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stats_cache_lookups_total",
			Help:      "Dashboard cache lookups by outcome.",
		}, []string{"outcome"}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

func (m *Metrics) DonationRecorded(bloodGroup string, units int) {
	if m == nil {
		return
	}
	m.donationsRecorded.WithLabelValues(bloodGroup).Inc()
	m.unitsCollected.WithLabelValues(bloodGroup).Add(float64(units))
}

// StockAdjusted counts an adjustment; result is "ok" or a rejection reason.
func (m *Metrics) StockAdjusted(action, result string) {
	if m == nil {
		return
	}
	m.stockAdjustments.WithLabelValues(action, result).Inc()
}

func (m *Metrics) InventoryLevel(bloodGroup string, units int) {
	if m == nil {
		return
	}
	m.inventoryUnits.WithLabelValues(bloodGroup).Set(float64(units))
}

func (m *Metrics) DonorRegistered() {
	if m == nil {
		return
	}
	m.donorsRegistered.Inc()
}

func (m *Metrics) RequestTransition(status string) {
	if m == nil {
		return
	}
	m.requestsByStatus.WithLabelValues(status).Inc()
}

func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	m.cacheLookups.WithLabelValues(outcome).Inc()
}

// ObserveHTTP records one request. route is the gin route template so path
// parameters do not explode cardinality.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
