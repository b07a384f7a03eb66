// Package metrics exposes conversion counters on a dedicated Prometheus registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tendant/simple-image-manip/pkg/pipeline"
)

// Collector holds the conversion metrics
type Collector struct {
	registry     *prometheus.Registry
	items        *prometheus.CounterVec
	itemDuration prometheus.Histogram
	batches      prometheus.Counter
	batchSize    prometheus.Histogram
}

// New creates a collector on a fresh registry. With processMetrics set, Go
// runtime and process collectors are registered too.
func New(processMetrics bool) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		items: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "image_manip_items_total",
			Help: "Images processed, by outcome.",
		}, []string{"status"}),
		itemDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "image_manip_item_duration_seconds",
			Help:    "Time to decode, transform and write one image.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 14),
		}),
		batches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "image_manip_batches_total",
			Help: "Batches run.",
		}),
		batchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "image_manip_batch_size",
			Help:    "Number of input paths per batch.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
	}

	c.registry.MustRegister(c.items, c.itemDuration, c.batches, c.batchSize)
	if processMetrics {
		c.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return c
}

// Observe records one finished item
func (c *Collector) Observe(item pipeline.ItemResult) {
	status := pipeline.StatusSucceeded
	if !item.Succeeded() {
		status = pipeline.StatusFailed
	}
	c.items.WithLabelValues(status).Inc()
	c.itemDuration.Observe(item.Duration.Seconds())
}

// BatchStarted records the start of a batch of n paths
func (c *Collector) BatchStarted(n int) {
	c.batches.Inc()
	c.batchSize.Observe(float64(n))
}

// Registry returns the underlying registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		Timeout: 10 * time.Second,
	})
}

// WriteTextfile writes the registry for the node_exporter textfile collector
func (c *Collector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.registry)
}
