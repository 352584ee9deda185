// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Oct 19th 2026
// Project: Spatial-Temporal Trends in Extreme Rainfall and Compound Flood Risk
// Class: 02-613 at Caregie Mellon University

// Package observability holds the Prometheus metrics recorded by model fits.
// Runs are batch jobs, so metrics are exported to a node-exporter textfile
// rather than scraped.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rotisserie/eris"
)

const namespace = "floodtrend"

// Metrics holds the counters, histograms and gauges for fitting runs.
type Metrics struct {
	// labels: form={null,plain,augmented}, status={converged,stopped}
	FitsTotal *prometheus.CounterVec
	// labels: form
	FitDuration *prometheus.HistogramVec
	// labels: form
	FitIterations *prometheus.HistogramVec

	InfeasibleEvaluations prometheus.Counter
	UnidentifiedParams    prometheus.Counter
	SweepInFlight         prometheus.Gauge
}

func newMetrics() *Metrics {
	return &Metrics{
		FitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fits_total",
			Help:      "Completed optimiser runs by design form and outcome.",
		}, []string{"form", "status"}),
		FitDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fit_duration_seconds",
			Help:      "Wall time of one optimiser run.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
		}, []string{"form"}),
		FitIterations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fit_iterations",
			Help:      "Major optimiser iterations per run.",
			Buckets:   []float64{1, 5, 10, 25, 50, 75, 100, 250, 500},
		}, []string{"form"}),
		InfeasibleEvaluations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "infeasible_evaluations_total",
			Help:      "Objective evaluations that hit the negative-rate barrier.",
		}),
		UnidentifiedParams: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unidentified_params_total",
			Help:      "Parameters whose standard error was clamped to zero.",
		}),
		SweepInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sweep_fits_in_flight",
			Help:      "Knot-sweep fits currently running.",
		}),
	}
}

// NewMetrics creates the metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := newMetrics()
	reg.MustRegister(
		m.FitsTotal,
		m.FitDuration,
		m.FitIterations,
		m.InfeasibleEvaluations,
		m.UnidentifiedParams,
		m.SweepInFlight,
	)
	return m
}

// NewMetricsForTesting creates unregistered metrics so tests never trip
// "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

// WriteTextfile writes everything in g to path in the Prometheus text
// format, for the node-exporter textfile collector. An empty path is a no-op.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return eris.Wrapf(err, "observability: write metrics to %s", path)
	}
	return nil
}
