package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns every tracker metric on a private registry, so tests can
// build collectors side by side without duplicate registration panics.
type Collector struct {
	reg *prometheus.Registry

	RouteStops   prometheus.Gauge
	TrackerState *prometheus.GaugeVec // one series per state, 1 on the active one

	StatusRequests  prometheus.Counter
	AdminRequests   prometheus.Counter
	RecordsSkipped  prometheus.Counter
	NATSPublished   prometheus.Counter
	NATSPublishErrs prometheus.Counter
	NATSConnected   prometheus.Gauge

	StatusDuration  prometheus.Histogram
	PublishDuration prometheus.Histogram
}

var trackerStates = []string{"no_route", "no_schedule", "not_started", "at_stop", "in_transit", "completed"}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		RouteStops: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracker_route_stops",
			Help: "Number of stops in the active route.",
		}),
		TrackerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tracker_state",
			Help: "1 on the series matching the current tracker state.",
		}, []string{"state"}),
		StatusRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_status_requests_total",
			Help: "Total public status requests served.",
		}),
		AdminRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_admin_requests_total",
			Help: "Total admin requests served.",
		}),
		RecordsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_records_skipped_total",
			Help: "Total route records skipped during normalization.",
		}),
		NATSPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_nats_published_total",
			Help: "Total NATS status messages published.",
		}),
		NATSPublishErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_nats_publish_errors_total",
			Help: "Total NATS publish errors.",
		}),
		NATSConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracker_nats_connected",
			Help: "1 if NATS connection is established, 0 otherwise.",
		}),
		StatusDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tracker_status_duration_seconds",
			Help:    "Duration of status computations.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 15),
		}),
		PublishDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tracker_publish_duration_seconds",
			Help:    "Duration to marshal and publish a status message.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 15),
		}),
	}

	reg.MustRegister(
		c.RouteStops, c.TrackerState,
		c.StatusRequests, c.AdminRequests, c.RecordsSkipped,
		c.NATSPublished, c.NATSPublishErrs, c.NATSConnected,
		c.StatusDuration, c.PublishDuration,
	)
	return c
}

// SetState flips the state gauge vector so exactly one series reads 1.
func (c *Collector) SetState(state string) {
	for _, s := range trackerStates {
		v := 0.0
		if s == state {
			v = 1.0
		}
		c.TrackerState.WithLabelValues(s).Set(v)
	}
}

// NATSSetConnected implements the publisher's metrics hook.
func (c *Collector) NATSSetConnected(connected bool) {
	if connected {
		c.NATSConnected.Set(1)
	} else {
		c.NATSConnected.Set(0)
	}
}

func (c *Collector) NATSPublishedInc()              { c.NATSPublished.Inc() }
func (c *Collector) NATSPublishErrInc()             { c.NATSPublishErrs.Inc() }
func (c *Collector) PublishObserve(d time.Duration) { c.PublishDuration.Observe(d.Seconds()) }

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{})
}
