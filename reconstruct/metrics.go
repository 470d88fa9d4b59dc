package reconstruct

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// solvesTotal counts finished reconstructions.
	// Labels: strategy, stop (the solver's stop reason)
	solvesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gridless",
		Subsystem: "reconstruct",
		Name:      "solves_total",
		Help:      "Total finished reconstructions",
	}, []string{"strategy", "stop"})

	// solveFailures counts reconstructions rejected with an error.
	solveFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gridless",
		Subsystem: "reconstruct",
		Name:      "failures_total",
		Help:      "Total reconstructions that returned an error",
	}, []string{"strategy"})

	solveDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gridless",
		Subsystem: "reconstruct",
		Name:      "duration_seconds",
		Help:      "Wall time of a reconstruction including the residual check",
		Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
	}, []string{"strategy"})

	solveIterations = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gridless",
		Subsystem: "reconstruct",
		Name:      "iterations",
		Help:      "Solver iterations per reconstruction",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
	}, []string{"strategy"})

	outliersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gridless",
		Subsystem: "reconstruct",
		Name:      "outliers_total",
		Help:      "Total measurements flagged as residual outliers",
	}, []string{"strategy"})

	inferencesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gridless",
		Subsystem: "reconstruct",
		Name:      "inferences_total",
		Help:      "Total Bayesian posterior computations",
	})
)

func observeSolve(res *Result) {
	solvesTotal.WithLabelValues(res.Strategy, res.Stop.String()).Inc()
	solveDuration.WithLabelValues(res.Strategy).Observe(res.Elapsed.Seconds())
	solveIterations.WithLabelValues(res.Strategy).Observe(float64(res.Iterations))
	outliersTotal.WithLabelValues(res.Strategy).Add(float64(len(res.Outliers)))
}
