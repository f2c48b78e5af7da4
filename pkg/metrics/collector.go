// Package metrics exposes run statistics to prometheus
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tunogya/groundhog/pkg/model"
)

// Collector is a pipeline sink that mirrors every step into prometheus metrics.
// Each collector owns its registry so several can live in one process.
type Collector struct {
	registry *prometheus.Registry

	readings      prometheus.Counter
	warmup        prometheus.Counter
	switches      prometheus.Counter
	degenerate    prometheus.Counter
	runs          prometheus.Counter
	stepSeconds   prometheus.Histogram
	lastValue     prometheus.Gauge
	lastGain      prometheus.Gauge
	lastChange    prometheus.Gauge
	lastStdDev    prometheus.Gauge
	lastPosition  prometheus.Gauge
	lastAnomalies prometheus.Gauge

	lastStep time.Time
}

// NewCollector creates and registers all groundhog metrics
func NewCollector() *Collector {
	c := &Collector{registry: prometheus.NewRegistry()}

	c.readings = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "groundhog_readings_total",
		Help: "Total readings processed",
	})
	c.warmup = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "groundhog_warmup_steps_total",
		Help: "Steps where no metric could be computed yet",
	})
	c.switches = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "groundhog_switches_total",
		Help: "Total trend switches detected",
	})
	c.degenerate = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "groundhog_degenerate_normalizations_total",
		Help: "Steps after warm-up where the Bollinger bands collapsed",
	})
	c.runs = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "groundhog_runs_total",
		Help: "Total runs finalized",
	})
	c.stepSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "groundhog_step_interval_seconds",
		Help:    "Time between consecutive readings",
		Buckets: prometheus.DefBuckets,
	})
	c.lastValue = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "groundhog_last_reading",
		Help: "Most recent reading",
	})
	c.lastGain = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "groundhog_average_gain",
		Help: "Most recent average gain",
	})
	c.lastChange = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "groundhog_percent_change",
		Help: "Most recent percent change",
	})
	c.lastStdDev = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "groundhog_standard_deviation",
		Help: "Most recent standard deviation",
	})
	c.lastPosition = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "groundhog_bollinger_position",
		Help: "Most recent Bollinger position (0 lower band, 1 upper band)",
	})
	c.lastAnomalies = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "groundhog_report_anomalies",
		Help: "Number of anomalies in the last report",
	})

	c.registry.MustRegister(
		c.readings,
		c.warmup,
		c.switches,
		c.degenerate,
		c.runs,
		c.stepSeconds,
		c.lastValue,
		c.lastGain,
		c.lastChange,
		c.lastStdDev,
		c.lastPosition,
		c.lastAnomalies,
	)

	return c
}

// WriteStep records one step
func (c *Collector) WriteStep(_ context.Context, step model.Step) error {
	c.readings.Inc()
	c.lastValue.Set(step.Reading.Value)

	if !step.Reading.ReceivedAt.IsZero() {
		if !c.lastStep.IsZero() {
			c.stepSeconds.Observe(step.Reading.ReceivedAt.Sub(c.lastStep).Seconds())
		}
		c.lastStep = step.Reading.ReceivedAt
	}

	if step.Snapshot.Empty() {
		c.warmup.Inc()
	}
	if step.Switched {
		c.switches.Inc()
	}

	if step.Snapshot.Gain.Valid {
		c.lastGain.Set(step.Snapshot.Gain.Value)
	}
	if step.Snapshot.Change.Valid {
		c.lastChange.Set(step.Snapshot.Change.Value)
	}
	if step.Snapshot.StdDev.Valid {
		c.lastStdDev.Set(step.Snapshot.StdDev.Value)
	}

	if step.Score.Valid {
		c.lastPosition.Set(step.Score.Value)
	} else if step.Snapshot.StdDev.Valid {
		// a deviation exists, so only collapsed bands leave the position absent
		c.degenerate.Inc()
	}
	return nil
}

// WriteReport records the end of a run
func (c *Collector) WriteReport(_ context.Context, report *model.Report) error {
	c.runs.Inc()
	c.lastAnomalies.Set(float64(len(report.Anomalies)))
	return nil
}

// Registry returns the registry holding the metrics
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the metrics in the prometheus text format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Routes returns a mux with /metrics and /health
func (c *Collector) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}
