// Package metrics mirrors analyzer snapshots into Prometheus collectors and
// writes them in the node-exporter textfile format.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/l33tquant/ta-statistics/internal/analytics"
)

type Exporter struct {
	registry *prometheus.Registry

	samplesTotal   prometheus.Counter
	anomaliesTotal *prometheus.CounterVec
	anomaly        *prometheus.GaugeVec
	windowCount    prometheus.Gauge
	statistic      *prometheus.GaugeVec
}

func NewExporter() *Exporter {
	e := &Exporter{
		registry: prometheus.NewRegistry(),
		samplesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rollstat_samples_total",
			Help: "Total samples processed",
		}),
		anomaliesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rollstat_anomalies_total",
			Help: "Total anomalies detected",
		}, []string{"metric"}),
		anomaly: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "rollstat_anomaly",
			Help: "Anomaly flag of the latest sample (1 if anomaly)",
		}, []string{"metric"}),
		windowCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rollstat_window_count",
			Help: "Number of samples in the rolling window",
		}),
		statistic: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "rollstat_statistic",
			Help: "Rolling window statistic of the latest snapshot",
		}, []string{"metric", "stat"}),
	}
	e.registry.MustRegister(
		e.samplesTotal,
		e.anomaliesTotal,
		e.anomaly,
		e.windowCount,
		e.statistic,
	)
	return e
}

func (e *Exporter) Registry() *prometheus.Registry { return e.registry }

func (e *Exporter) Observe(res analytics.Snapshot) {
	e.samplesTotal.Inc()
	e.windowCount.Set(float64(res.Samples))
	e.observeMetric("cpu", res.CPU)
	e.observeMetric("rps", res.RPS)
}

func (e *Exporter) observeMetric(metric string, s analytics.MetricStats) {
	if s.Anomaly {
		e.anomaly.WithLabelValues(metric).Set(1)
		e.anomaliesTotal.WithLabelValues(metric).Inc()
	} else {
		e.anomaly.WithLabelValues(metric).Set(0)
	}

	stats := map[string]*float64{
		"mean":   s.Mean,
		"stddev": s.StdDev,
		"median": s.Median,
		"min":    s.Min,
		"max":    s.Max,
		"p95":    s.P95,
		"zscore": s.ZScore,
	}
	for name, v := range stats {
		if v == nil {
			e.statistic.DeleteLabelValues(metric, name)
			continue
		}
		e.statistic.WithLabelValues(metric, name).Set(*v)
	}
}

// WriteTextfile atomically replaces path with the current metric values.
func (e *Exporter) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, e.registry); err != nil {
		return fmt.Errorf("write textfile: %w", err)
	}
	return nil
}
