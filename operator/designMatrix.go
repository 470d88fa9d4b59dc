package operator

import (
	"github.com/hammal/gridless/harmonic"
	"gonum.org/v1/gonum/mat"
)

// DesignMatrix returns the explicit [2*n_vis, n_pix] matrix of a single
// frequency. Rows 0..n_vis-1 are the real and rows n_vis.. the imaginary
// part of the conjugated harmonics, the same rows the forward operator uses.
func DesignMatrix(baselines Baselines, frequency float64, sphere Geometry) *mat.Dense {
	return DesignMatrixFrequencies(baselines, []float64{frequency}, sphere)
}

// DesignMatrixFrequencies stacks the design matrices of several frequencies
// in measurement vector order.
func DesignMatrixFrequencies(baselines Baselines, frequencies []float64, sphere Geometry) *mat.Dense {
	nVis := baselines.Len()
	nPix := sphere.NPix()
	half := nVis * len(frequencies)
	res := mat.NewDense(2*half, nPix, nil)
	l, m, nMinus1, areas := sphere.L(), sphere.M(), sphere.NMinus1(), sphere.PixelAreas()

	for f, frequency := range frequencies {
		omega := harmonic.Omega(frequency)
		for i := 0; i < nVis; i++ {
			row := f*nVis + i
			harmonic.Row(res.RawRowView(row), res.RawRowView(half+row),
				baselines.U[i], baselines.V[i], baselines.W[i], omega, l, m, nMinus1, areas)
		}
	}
	return res
}
