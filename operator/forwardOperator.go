package operator

import (
	"github.com/hammal/gridless/errors"
	"github.com/hammal/gridless/harmonic"
	"github.com/hammal/gridless/logger"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
)

type options struct {
	workers int
}

// Option configures an operator.
type Option func(*options)

// WithWorkers splits every operator application into n contiguous blocks of
// output entries evaluated concurrently. Each output entry is computed by a
// single worker, so results do not depend on n.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

func newOptions(opts []Option) options {
	o := options{workers: 1}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// partition runs fn over [0, n) in at most workers contiguous blocks.
func partition(n, workers int, fn func(start, stop int)) {
	if workers <= 1 || n < 2 {
		fn(0, n)
		return
	}
	if workers > n {
		workers = n
	}
	size := (n + workers - 1) / workers
	var g errgroup.Group
	for start := 0; start < n; start += size {
		start, stop := start, min(start+size, n)
		g.Go(func() error {
			fn(start, stop)
			return nil
		})
	}
	_ = g.Wait()
}

// Forward maps a sky vector of length N = n_pix to the measurement vector of
// length M = 2*n_vis*n_freq without materializing the M×N matrix.
type Forward struct {
	baselines   Baselines
	frequencies []float64
	omegas      []float64
	sphere      Geometry
	nVis        int
	nPol        int
	workers     int
}

// NewForward returns the forward operator for the given baselines,
// frequencies and sky. data must be shaped [2*n_vis][n_freq][n_pol];
// otherwise ErrShapeMismatch is returned and no operator is built.
func NewForward(baselines Baselines, frequencies []float64, data Data, sphere Geometry, opts ...Option) (*Forward, error) {
	if err := baselines.validate(); err != nil {
		return nil, err
	}
	rows, nFreq, nPol, err := data.Shape()
	if err != nil {
		return nil, err
	}
	if rows != 2*baselines.Len() {
		return nil, errors.WithHint(
			errors.Wrapf(errors.ErrShapeMismatch, "data has %d rows, expected 2*n_vis = %d", rows, 2*baselines.Len()),
			"visibilities must be split into [real, imag] before entering the operator")
	}
	if nFreq != len(frequencies) {
		return nil, errors.Wrapf(errors.ErrShapeMismatch, "data has %d frequencies, %d supplied", nFreq, len(frequencies))
	}
	if sphere.NPix() == 0 {
		return nil, errors.Wrap(errors.ErrShapeMismatch, "sky has no pixels")
	}

	o := newOptions(opts)
	omegas := make([]float64, len(frequencies))
	for index, f := range frequencies {
		omegas[index] = harmonic.Omega(f)
	}
	op := &Forward{
		baselines:   baselines,
		frequencies: frequencies,
		omegas:      omegas,
		sphere:      sphere,
		nVis:        baselines.Len(),
		nPol:        nPol,
		workers:     o.workers,
	}
	logger.ComponentLogger("operator").Debugw("created forward operator",
		logger.FieldShape, []int{2 * op.nVis * len(frequencies), sphere.NPix()},
		logger.FieldNVis, op.nVis,
		logger.FieldNFreq, len(frequencies),
	)
	return op, nil
}

// Dims returns (2*n_vis*n_freq, n_pix).
func (op *Forward) Dims() (m, n int) {
	return 2 * op.nVis * len(op.frequencies), op.sphere.NPix()
}

// Polarizations returns the number of polarizations of the data the operator
// was built for.
func (op *Forward) Polarizations() int {
	return op.nPol
}

// Apply computes the measurements dst = A x of the sky x.
func (op *Forward) Apply(dst, x []float64) {
	m, n := op.Dims()
	checkLen(dst, m)
	checkLen(x, n)
	half := m / 2
	l, mm, nMinus1, areas := op.sphere.L(), op.sphere.M(), op.sphere.NMinus1(), op.sphere.PixelAreas()

	partition(half, op.workers, func(start, stop int) {
		re := make([]float64, n)
		im := make([]float64, n)
		for row := start; row < stop; row++ {
			f := row / op.nVis
			i := row % op.nVis
			harmonic.Row(re, im, op.baselines.U[i], op.baselines.V[i], op.baselines.W[i], op.omegas[f], l, mm, nMinus1, areas)
			dst[row] = floats.Dot(x, re)
			dst[half+row] = floats.Dot(x, im)
		}
	})
}

// ApplyAdjoint computes the sky coefficients dst = A^T y, summing the
// contribution of every frequency in ascending order.
func (op *Forward) ApplyAdjoint(dst, y []float64) {
	m, n := op.Dims()
	checkLen(dst, n)
	checkLen(y, m)
	half := m / 2
	l, mm, nMinus1, areas := op.sphere.L(), op.sphere.M(), op.sphere.NMinus1(), op.sphere.PixelAreas()
	b := op.baselines

	partition(n, op.workers, func(start, stop int) {
		re := make([]float64, op.nVis)
		im := make([]float64, op.nVis)
		for pixel := start; pixel < stop; pixel++ {
			var acc float64
			for f, omega := range op.omegas {
				harmonic.Column(re, im, b.U, b.V, b.W, omega, l[pixel], mm[pixel], nMinus1[pixel], areas[pixel])
				offset := f * op.nVis
				acc += floats.Dot(re, y[offset:offset+op.nVis])
				acc += floats.Dot(im, y[half+offset:half+offset+op.nVis])
			}
			dst[pixel] = acc
		}
	})
}
