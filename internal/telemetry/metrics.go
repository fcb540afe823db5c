// Package telemetry holds the Prometheus collectors and the OpenTelemetry
// tracer setup for the API.
package telemetry

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Huan-Yee/Smart-Parking-and-Resources-System/internal/domain"
)

const namespace = "parking"

// otherZone labels snapshots from zones the lot is not configured with.
const otherZone = "other"

// Metrics implements app.Observer and live.Tracker.
type Metrics struct {
	eventsRecorded    *prometheus.CounterVec
	snapshotsReceived *prometheus.CounterVec
	resets            *prometheus.CounterVec
	occupied          prometheus.Gauge
	liveSubscribers   prometheus.Gauge
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec

	zones map[string]struct{}
}

// NewMetrics registers the collectors on reg. zones bounds the zone label on
// snapshot counts; any other zone ID is counted as "other".
func NewMetrics(reg prometheus.Registerer, zones ...domain.Zone) *Metrics {
	known := map[string]struct{}{domain.DefaultZoneID: {}}
	for _, z := range zones {
		known[z.ID] = struct{}{}
	}
	f := promauto.With(reg)
	return &Metrics{
		zones: known,
		eventsRecorded: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "recorded_total",
			Help:      "Entry and exit events handled, by result status.",
		}, []string{"type", "status"}),
		snapshotsReceived: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "snapshots_total",
			Help:      "Gate camera snapshots acknowledged.",
		}, []string{"zone"}),
		resets: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "admin",
			Name:      "resets_total",
			Help:      "Occupancy resets, by result status.",
		}, []string{"status"}),
		occupied: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "lot",
			Name:      "occupied",
			Help:      "Last observed occupied count.",
		}),
		liveSubscribers: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "live",
			Name:      "subscribers",
			Help:      "Open live-count subscriptions.",
		}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests served.",
		}, []string{"method", "route", "code"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

func (m *Metrics) EventRecorded(kind domain.EventType, status domain.ResultStatus) {
	m.eventsRecorded.WithLabelValues(string(kind), string(status)).Inc()
}

func (m *Metrics) SnapshotReceived(zoneID string) {
	if _, ok := m.zones[zoneID]; !ok {
		zoneID = otherZone
	}
	m.snapshotsReceived.WithLabelValues(zoneID).Inc()
}

func (m *Metrics) CountReset(status domain.ResultStatus) {
	m.resets.WithLabelValues(string(status)).Inc()
}

func (m *Metrics) OccupancyObserved(occupied int) {
	m.occupied.Set(float64(occupied))
}

func (m *Metrics) SubscriptionOpened() {
	m.liveSubscribers.Inc()
}

func (m *Metrics) SubscriptionClosed() {
	m.liveSubscribers.Dec()
}

// RequestServed records one HTTP request. route is the matched pattern, not
// the raw path, to keep label cardinality bounded.
func (m *Metrics) RequestServed(method, route string, status int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
