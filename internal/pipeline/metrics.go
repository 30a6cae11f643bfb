package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

type Metrics struct {
	registry             *prometheus.Registry
	runsTotal            *prometheus.CounterVec
	stageDuration        *prometheus.HistogramVec
	outputBytesTotal     *prometheus.CounterVec
	pixelsProcessedTotal prometheus.Counter
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "webpwizard_runs_total",
			Help: "Total edit runs by final status.",
		}, []string{"status"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "webpwizard_stage_duration_seconds",
			Help:    "Duration of each pipeline stage in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"stage", "status"}),
		outputBytesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "webpwizard_output_bytes_total",
			Help: "Total encoded bytes emitted per variant.",
		}, []string{"variant"}),
		pixelsProcessedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "webpwizard_pixels_processed_total",
			Help: "Total output pixels produced across all variants.",
		}),
	}
	m.registry.MustRegister(
		m.runsTotal,
		m.stageDuration,
		m.outputBytesTotal,
		m.pixelsProcessedTotal,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Push sends the current values to a Prometheus Pushgateway. An empty URL is
// a no-op.
func (m *Metrics) Push(ctx context.Context, gatewayURL, job string) error {
	if m == nil || strings.TrimSpace(gatewayURL) == "" {
		return nil
	}
	if err := push.New(gatewayURL, job).Gatherer(m.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}

func (m *Metrics) observeStage(stage string, took time.Duration, err error) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage, statusLabel(err)).Observe(took.Seconds())
}

func (m *Metrics) observeRun(result Result, err error) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(statusLabel(err)).Inc()
	if err != nil {
		return
	}
	for _, out := range result.Outputs {
		m.outputBytesTotal.WithLabelValues(out.Variant).Add(float64(out.Bytes))
		m.pixelsProcessedTotal.Add(float64(out.Width * out.Height))
	}
}

func statusLabel(err error) string {
	if err != nil {
		return "failed"
	}
	return "succeeded"
}
