package operator

import (
	"github.com/hammal/gridless/errors"
	"github.com/hammal/gridless/harmonic"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// BackProjector is the direct imaging operator of shape (N, M). Apply maps
// measurements to the dirty image by accumulating Re(V·h) of every
// baseline's harmonic h into every pixel. ApplyAdjoint recovers approximate
// visibilities by projecting the sky onto the conjugated harmonics.
type BackProjector struct {
	baselines   Baselines
	frequencies []float64
	omegas      []float64
	sphere      Geometry
	nVis        int
	workers     int
}

// NewBackProjector returns the direct imaging operator.
func NewBackProjector(baselines Baselines, frequencies []float64, sphere Geometry, opts ...Option) (*BackProjector, error) {
	if err := baselines.validate(); err != nil {
		return nil, err
	}
	if len(frequencies) == 0 {
		return nil, errors.Wrap(errors.ErrShapeMismatch, "no frequencies")
	}
	o := newOptions(opts)
	omegas := make([]float64, len(frequencies))
	for index, f := range frequencies {
		omegas[index] = harmonic.Omega(f)
	}
	return &BackProjector{
		baselines:   baselines,
		frequencies: frequencies,
		omegas:      omegas,
		sphere:      sphere,
		nVis:        baselines.Len(),
		workers:     o.workers,
	}, nil
}

// Dims returns (n_pix, 2*n_vis*n_freq).
func (bp *BackProjector) Dims() (m, n int) {
	return bp.sphere.NPix(), 2 * bp.nVis * len(bp.frequencies)
}

// Apply accumulates the dirty image of the measurements y into dst.
func (bp *BackProjector) Apply(dst, y []float64) {
	n, m := bp.Dims()
	checkLen(dst, n)
	checkLen(y, m)
	half := m / 2
	l, mm, nMinus1, areas := bp.sphere.L(), bp.sphere.M(), bp.sphere.NMinus1(), bp.sphere.PixelAreas()

	// Baselines are accumulated in measurement order within each block of
	// pixels.
	partition(n, bp.workers, func(start, stop int) {
		re := make([]float64, stop-start)
		im := make([]float64, stop-start)
		out := dst[start:stop]
		for index := range out {
			out[index] = 0
		}
		for row := 0; row < half; row++ {
			f := row / bp.nVis
			i := row % bp.nVis
			harmonic.Row(re, im, bp.baselines.U[i], bp.baselines.V[i], bp.baselines.W[i], bp.omegas[f],
				l[start:stop], mm[start:stop], nMinus1[start:stop], areas[start:stop])
			// Re(V·h) with h = re - j·im
			floats.AddScaled(out, y[row], re)
			floats.AddScaled(out, y[half+row], im)
		}
	})
}

// ApplyAdjoint projects the sky x onto the conjugated harmonics.
func (bp *BackProjector) ApplyAdjoint(dst, x []float64) {
	n, m := bp.Dims()
	checkLen(dst, m)
	checkLen(x, n)
	half := m / 2
	l, mm, nMinus1, areas := bp.sphere.L(), bp.sphere.M(), bp.sphere.NMinus1(), bp.sphere.PixelAreas()

	partition(half, bp.workers, func(start, stop int) {
		re := make([]float64, n)
		im := make([]float64, n)
		for row := start; row < stop; row++ {
			f := row / bp.nVis
			i := row % bp.nVis
			harmonic.Row(re, im, bp.baselines.U[i], bp.baselines.V[i], bp.baselines.W[i], bp.omegas[f], l, mm, nMinus1, areas)
			dst[row] = floats.Dot(x, re)
			dst[half+row] = floats.Dot(x, im)
		}
	})
}

// DirtyImage returns the real dirty image of a single frequency complex
// visibility set, one visibility per baseline.
func (bp *BackProjector) DirtyImage(vis []complex128) []float64 {
	if len(vis) != bp.nVis {
		panic(mat.ErrShape)
	}
	y := make([]float64, 2*bp.nVis)
	for i, v := range vis {
		y[i] = real(v)
		y[bp.nVis+i] = imag(v)
	}
	single := &BackProjector{
		baselines:   bp.baselines,
		frequencies: bp.frequencies[:1],
		omegas:      bp.omegas[:1],
		sphere:      bp.sphere,
		nVis:        bp.nVis,
		workers:     bp.workers,
	}
	res := make([]float64, bp.sphere.NPix())
	single.Apply(res, y)
	return res
}
