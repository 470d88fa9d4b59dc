// Package observation holds the numeric arrays of one interferometric
// observation: baseline coordinates, complex visibilities and their noise.
package observation

import (
	"math"
	"math/cmplx"
	"sort"

	"github.com/hammal/gridless/errors"
	"github.com/hammal/gridless/logger"
	"github.com/hammal/gridless/operator"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Observation is a single frequency set of visibilities.
type Observation struct {
	Frequency float64
	Baselines operator.Baselines
	Vis       []complex128
	// RMS is the noise standard deviation of every visibility. It may be
	// empty when unknown.
	RMS []float64
	// Indices are the baseline indices in the source dataset, reported in
	// diagnostics.
	Indices []int
	// Pairs are the antenna index pairs when the baselines were derived
	// from antenna positions.
	Pairs [][2]int
	Info  map[string]string
}

// New validates the arrays and returns an observation. A nil indices
// defaults to 0..n-1.
func New(frequency float64, baselines operator.Baselines, vis []complex128, rms []float64, indices []int) (*Observation, error) {
	n := baselines.Len()
	if len(baselines.V) != n || len(baselines.W) != n {
		return nil, errors.Wrapf(errors.ErrShapeMismatch, "baselines u=%d v=%d w=%d", n, len(baselines.V), len(baselines.W))
	}
	if n == 0 {
		return nil, errors.Wrap(errors.ErrShapeMismatch, "observation has no baselines")
	}
	if vis != nil && len(vis) != n {
		return nil, errors.Wrapf(errors.ErrShapeMismatch, "%d visibilities for %d baselines", len(vis), n)
	}
	if len(rms) != 0 && len(rms) != n {
		return nil, errors.Wrapf(errors.ErrShapeMismatch, "%d rms values for %d baselines", len(rms), n)
	}
	if indices == nil {
		indices = make([]int, n)
		for index := range indices {
			indices[index] = index
		}
	}
	if len(indices) != n {
		return nil, errors.Wrapf(errors.ErrShapeMismatch, "%d indices for %d baselines", len(indices), n)
	}
	if frequency <= 0 {
		return nil, errors.Wrapf(errors.ErrInvalidParameter, "frequency %g", frequency)
	}
	return &Observation{
		Frequency: frequency,
		Baselines: baselines,
		Vis:       vis,
		RMS:       rms,
		Indices:   indices,
	}, nil
}

// NVis returns the number of visibilities.
func (o *Observation) NVis() int {
	return o.Baselines.Len()
}

// Frequencies returns the frequency list of the observation.
func (o *Observation) Frequencies() []float64 {
	return []float64{o.Frequency}
}

// Measurements returns the visibilities split into [real, imag].
func (o *Observation) Measurements() []float64 {
	return VisToReal(o.Vis)
}

// ToData returns the visibilities as a [2*n_vis][1][1] data array.
func (o *Observation) ToData() operator.Data {
	return operator.NewData(o.Measurements())
}

// MeanRMS returns the mean noise level, zero when unknown.
func (o *Observation) MeanRMS() float64 {
	if len(o.RMS) == 0 {
		return 0
	}
	return stat.Mean(o.RMS, nil)
}

// VisStats summarizes the visibility amplitudes.
type VisStats struct {
	P05, P50, P95, P100 float64
	Energy              float64
}

// VisStats returns the 5, 50, 95 and 100 percentiles and the sum of the
// visibility amplitudes.
func (o *Observation) VisStats() (VisStats, error) {
	if len(o.Vis) == 0 {
		return VisStats{}, errors.Wrap(errors.ErrInvalidParameter, "observation has no visibilities")
	}
	amplitudes := make([]float64, len(o.Vis))
	for index, v := range o.Vis {
		amplitudes[index] = cmplx.Abs(v)
	}
	sort.Float64s(amplitudes)
	res := VisStats{
		P05:    stat.Quantile(0.05, stat.Empirical, amplitudes, nil),
		P50:    stat.Quantile(0.5, stat.Empirical, amplitudes, nil),
		P95:    stat.Quantile(0.95, stat.Empirical, amplitudes, nil),
		P100:   amplitudes[len(amplitudes)-1],
		Energy: floats.Sum(amplitudes),
	}
	logger.ComponentLogger("observation").Infow("visibility range",
		"p05", res.P05, "p50", res.P50, "p95", res.P95, "p100", res.P100, "energy", res.Energy)
	return res, nil
}

// VisToReal splits complex visibilities into [real..., imag...].
func VisToReal(vis []complex128) []float64 {
	n := len(vis)
	res := make([]float64, 2*n)
	for index, v := range vis {
		res[index] = real(v)
		res[n+index] = imag(v)
	}
	return res
}

// RealToVis is the inverse of VisToReal.
func RealToVis(y []float64) []complex128 {
	n := len(y) / 2
	res := make([]complex128, n)
	for index := range res {
		res[index] = complex(y[index], y[n+index])
	}
	return res
}

// Select returns the observation restricted to the baselines whose length
// in metres is within [minLength, maxLength]. A non-positive maxLength is
// unbounded.
func (o *Observation) Select(minLength, maxLength float64) (*Observation, error) {
	var keep []int
	for index := 0; index < o.NVis(); index++ {
		length := math.Sqrt(o.Baselines.U[index]*o.Baselines.U[index] +
			o.Baselines.V[index]*o.Baselines.V[index] +
			o.Baselines.W[index]*o.Baselines.W[index])
		if length < minLength || (maxLength > 0 && length > maxLength) {
			continue
		}
		keep = append(keep, index)
	}
	if len(keep) == 0 {
		return nil, errors.Wrapf(errors.ErrInvalidParameter, "no baselines between %g and %g m", minLength, maxLength)
	}

	res := &Observation{
		Frequency: o.Frequency,
		Baselines: operator.Baselines{U: make([]float64, len(keep)), V: make([]float64, len(keep)), W: make([]float64, len(keep))},
		Indices:   make([]int, len(keep)),
		Info:      o.Info,
	}
	if o.Vis != nil {
		res.Vis = make([]complex128, len(keep))
	}
	if len(o.RMS) != 0 {
		res.RMS = make([]float64, len(keep))
	}
	if o.Pairs != nil {
		res.Pairs = make([][2]int, len(keep))
	}
	for to, from := range keep {
		res.Baselines.U[to] = o.Baselines.U[from]
		res.Baselines.V[to] = o.Baselines.V[from]
		res.Baselines.W[to] = o.Baselines.W[from]
		res.Indices[to] = o.Indices[from]
		if res.Vis != nil {
			res.Vis[to] = o.Vis[from]
		}
		if res.RMS != nil {
			res.RMS[to] = o.RMS[from]
		}
		if res.Pairs != nil {
			res.Pairs[to] = o.Pairs[from]
		}
	}
	return res, nil
}
