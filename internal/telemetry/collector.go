package telemetry

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/san-kum/psim/internal/analysis"
	"github.com/san-kum/psim/internal/sim"
)

const namespace = "psim"

// Collector is a run observer that exports the latest sample as prometheus
// gauges. It owns its registry so several runs in one process don't clash.
type Collector struct {
	registry *prometheus.Registry
	tracker  *analysis.Tracker

	time         prometheus.Gauge
	temperature  prometheus.Gauge
	msd          prometheus.Gauge
	trackedMSD   prometheus.Gauge
	clusters     prometheus.Gauge
	coordination prometheus.Gauge
	potential    prometheus.Gauge
	steps        prometheus.Counter

	mu       sync.Mutex
	lastStep int
}

// NewCollector labels every series with the trial id. tracker may be nil.
func NewCollector(trial string, tracker *analysis.Tracker) *Collector {
	labels := prometheus.Labels{"trial": trial}
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		})
	}

	c := &Collector{
		registry:     prometheus.NewRegistry(),
		tracker:      tracker,
		time:         gauge("sim_time", "Simulated time."),
		temperature:  gauge("temperature", "Kinetic temperature."),
		msd:          gauge("msd_step", "Mean squared displacement over the last step."),
		trackedMSD:   gauge("msd_tracked", "Mean squared displacement since the start of the run."),
		clusters:     gauge("clusters", "Clusters of at least the minimum size."),
		coordination: gauge("mean_coordination", "Mean number of bonded neighbours."),
		potential:    gauge("potential_energy", "Mean pair energy per particle."),
		steps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "steps_total",
			Help:        "Integration steps completed.",
			ConstLabels: labels,
		}),
	}
	c.registry.MustRegister(
		c.time, c.temperature, c.msd, c.trackedMSD,
		c.clusters, c.coordination, c.potential, c.steps,
		collectors.NewGoCollector(),
	)
	return c
}

func (c *Collector) Observe(s *sim.State) error {
	sample := analysis.Measure(s, c.tracker)

	c.mu.Lock()
	defer c.mu.Unlock()
	if s.Step > c.lastStep {
		c.steps.Add(float64(s.Step - c.lastStep))
	}
	c.lastStep = s.Step

	c.time.Set(sample.Time)
	c.temperature.Set(sample.Temperature)
	c.msd.Set(sample.MSD)
	c.trackedMSD.Set(sample.TrackedMSD)
	c.clusters.Set(float64(sample.Clusters))
	c.coordination.Set(sample.MeanCoordination)
	c.potential.Set(sample.Potential)
	return nil
}

// StartAt counts steps from step, for resumed runs.
func (c *Collector) StartAt(step int) {
	c.mu.Lock()
	c.lastStep = step
	c.mu.Unlock()
}

func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the collector's registry in the prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
