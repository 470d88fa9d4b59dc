package sky

import (
	"math"
	"sort"

	"github.com/hammal/gridless/logger"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats summarizes an image.
type Stats struct {
	N      int
	Min    float64
	Max    float64
	Mean   float64
	SDev   float64
	Median float64
	// MAD is the median absolute deviation from the median, or SDev when
	// that is below 1e-9.
	MAD float64
}

// SNR returns max / sdev.
func (s Stats) SNR() float64 { return s.Max / s.SDev }

// RMAD returns max / mad.
func (s Stats) RMAD() float64 { return s.Max / s.MAD }

// Log writes the statistics as one record.
func (s Stats) Log(sink logger.Sink) {
	sink.Infow("image stats",
		"n_s", s.N,
		"snr", s.SNR(),
		"min", s.Min,
		"max", s.Max,
		"mean", s.Mean,
		"sdev", s.SDev,
		"r_mad", s.RMAD(),
		"mad", s.MAD,
		"median", s.Median,
	)
}

// ImageStats computes the statistics of values.
func ImageStats(values []float64) Stats {
	res := Stats{N: len(values)}
	if len(values) == 0 {
		return res
	}
	res.Min = floats.Min(values)
	res.Max = floats.Max(values)
	res.Mean, res.SDev = stat.PopMeanStdDev(values, nil)
	res.Median = Median(values)

	deviation := make([]float64, len(values))
	for index, value := range values {
		deviation[index] = math.Abs(res.Median - value)
	}
	res.MAD = Median(deviation)
	if res.MAD < 1e-9 {
		res.MAD = res.SDev
	}
	return res
}

// Median returns the median of values, averaging the middle pair for an
// even count.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	if len(sorted)%2 == 1 {
		return stat.Quantile(0.5, stat.Empirical, sorted, nil)
	}
	mid := len(sorted) / 2
	return 0.5 * (sorted[mid-1] + sorted[mid])
}
