// Package metrics exposes economy events as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/talgya/serfworks/internal/engine"
)

const namespace = "serfworks"

// Collector records engine events. It implements engine.Observer.
type Collector struct {
	buildingsFinished *prometheus.CounterVec
	buildingsBurned   *prometheus.CounterVec
	buildingsRemoved  *prometheus.CounterVec

	serfRequests       *prometheus.CounterVec
	resourcesScheduled *prometheus.CounterVec
	transporterCalls   *prometheus.CounterVec
	resourcesDelivered prometheus.Counter

	tick      prometheus.Gauge
	buildings prometheus.Gauge
	flags     prometheus.Gauge

	registry *prometheus.Registry
}

var _ engine.Observer = (*Collector)(nil)

// NewCollector creates a collector with its own registry.
func NewCollector() *Collector {
	c := &Collector{
		buildingsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "buildings_finished_total",
			Help:      "Buildings whose construction completed, by type.",
		}, []string{"type"}),
		buildingsBurned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "buildings_burned_total",
			Help:      "Buildings set on fire, by type.",
		}, []string{"type"}),
		buildingsRemoved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "buildings_removed_total",
			Help:      "Buildings removed from the map, by type.",
		}, []string{"type"}),
		serfRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "serf_requests_total",
			Help:      "Serf requests issued by buildings, by outcome.",
		}, []string{"outcome"}),
		resourcesScheduled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resources_scheduled_total",
			Help:      "Flag slots routed, by destination kind.",
		}, []string{"dest"}),
		transporterCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transporter_calls_total",
			Help:      "Transporter requests issued by flags, by outcome.",
		}, []string{"outcome"}),
		resourcesDelivered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resources_delivered_total",
			Help:      "Resources handed to their destination building.",
		}),
		tick: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tick",
			Help:      "Last completed game tick.",
		}),
		buildings: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "buildings",
			Help:      "Live buildings.",
		}),
		flags: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "flags",
			Help:      "Live flags.",
		}),
		registry: prometheus.NewRegistry(),
	}
	c.registry.MustRegister(
		c.buildingsFinished, c.buildingsBurned, c.buildingsRemoved,
		c.serfRequests, c.resourcesScheduled, c.transporterCalls,
		c.resourcesDelivered, c.tick, c.buildings, c.flags,
	)
	return c
}

// Handler serves the collector's metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Registry returns the registry the metrics live in.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

func outcome(ok bool) string {
	if ok {
		return "ok"
	}
	return "failed"
}

func (c *Collector) BuildingFinished(t engine.BuildingType) {
	c.buildingsFinished.WithLabelValues(t.String()).Inc()
}

func (c *Collector) BuildingBurned(t engine.BuildingType) {
	c.buildingsBurned.WithLabelValues(t.String()).Inc()
}

func (c *Collector) BuildingRemoved(t engine.BuildingType) {
	c.buildingsRemoved.WithLabelValues(t.String()).Inc()
}

func (c *Collector) SerfRequested(ok bool) {
	c.serfRequests.WithLabelValues(outcome(ok)).Inc()
}

func (c *Collector) ResourceScheduled(known bool) {
	dest := "unknown"
	if known {
		dest = "known"
	}
	c.resourcesScheduled.WithLabelValues(dest).Inc()
}

func (c *Collector) TransporterCalled(ok bool) {
	c.transporterCalls.WithLabelValues(outcome(ok)).Inc()
}

func (c *Collector) ResourceDelivered() {
	c.resourcesDelivered.Inc()
}

func (c *Collector) TickCompleted(tick uint32, buildings, flags int) {
	c.tick.Set(float64(tick))
	c.buildings.Set(float64(buildings))
	c.flags.Set(float64(flags))
}
