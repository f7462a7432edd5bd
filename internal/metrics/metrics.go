// Package metrics exposes live occupancy to Prometheus.
package metrics

import (
	"context"
	"net/http"
	"time"

	"capsule/internal/app"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// OccupancySource computes the current occupancy.
type OccupancySource interface {
	Occupancy(ctx context.Context) (app.Occupancy, error)
}

// Collector recomputes occupancy on every scrape.
type Collector struct {
	src     OccupancySource
	logger  *zap.Logger
	timeout time.Duration

	total     *prometheus.Desc
	occupied  *prometheus.Desc
	available *prometheus.Desc
	rate      *prometheus.Desc
}

// NewCollector creates an occupancy collector.
func NewCollector(src OccupancySource, logger *zap.Logger) *Collector {
	return &Collector{
		src:       src,
		logger:    logger,
		timeout:   5 * time.Second,
		total:     prometheus.NewDesc("capsule_units_total", "Rentable units.", nil, nil),
		occupied:  prometheus.NewDesc("capsule_units_occupied", "Rentable units with a checked-in guest.", nil, nil),
		available: prometheus.NewDesc("capsule_units_available", "Rentable units without a guest.", nil, nil),
		rate:      prometheus.NewDesc("capsule_occupancy_rate_percent", "Occupied share of rentable units.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.total
	ch <- c.occupied
	ch <- c.available
	ch <- c.rate
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	o, err := c.src.Occupancy(ctx)
	if err != nil {
		c.logger.Warn("occupancy scrape failed", zap.Error(err))
		ch <- prometheus.NewInvalidMetric(c.total, err)
		return
	}
	ch <- prometheus.MustNewConstMetric(c.total, prometheus.GaugeValue, float64(o.Total))
	ch <- prometheus.MustNewConstMetric(c.occupied, prometheus.GaugeValue, float64(o.Occupied))
	ch <- prometheus.MustNewConstMetric(c.available, prometheus.GaugeValue, float64(o.Available))
	ch <- prometheus.MustNewConstMetric(c.rate, prometheus.GaugeValue, float64(o.OccupancyRate))
}

// NewRegistry returns a registry with the occupancy collector and the
// standard Go and process collectors.
func NewRegistry(src OccupancySource, logger *zap.Logger) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		NewCollector(src, logger),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler serves reg in the Prometheus exposition format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
