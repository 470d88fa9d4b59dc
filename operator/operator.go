// Package operator implements the measurement operator between sky pixels and
// stacked real/imaginary visibility measurements, its direct back projection
// and the explicit design matrix.
package operator

import (
	"math"

	"github.com/hammal/gridless/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// LinearOperator is a real linear map of shape (m, n) that is only
// available through its action and the action of its adjoint.
type LinearOperator interface {
	// Dims returns the number of rows and columns.
	Dims() (m, n int)
	// Apply computes dst = A x, len(dst) = m, len(x) = n.
	Apply(dst, x []float64)
	// ApplyAdjoint computes dst = A^T y, len(dst) = n, len(y) = m.
	ApplyAdjoint(dst, y []float64)
}

// Geometry is the read-only view of the sky discretization the operators
// need.
type Geometry interface {
	NPix() int
	L() []float64
	M() []float64
	NMinus1() []float64
	PixelAreas() []float64
}

// Baselines holds the (u, v, w) coordinates of every baseline in metres.
type Baselines struct {
	U, V, W []float64
}

// Len returns the number of baselines.
func (b Baselines) Len() int {
	return len(b.U)
}

func (b Baselines) validate() error {
	if len(b.V) != len(b.U) || len(b.W) != len(b.U) {
		return errors.Wrapf(errors.ErrShapeMismatch, "baselines u=%d v=%d w=%d", len(b.U), len(b.V), len(b.W))
	}
	if len(b.U) == 0 {
		return errors.Wrap(errors.ErrShapeMismatch, "no baselines")
	}
	return nil
}

// Data is a measurement array shaped [2*n_vis][n_freq][n_pol]. Row i holds
// the real part and row n_vis+i the imaginary part of visibility i.
type Data [][][]float64

// Shape returns the three dimensions of the array. It fails if the array is
// empty or ragged.
func (d Data) Shape() (rows, nFreq, nPol int, err error) {
	rows = len(d)
	if rows == 0 || len(d[0]) == 0 || len(d[0][0]) == 0 {
		return 0, 0, 0, errors.Wrap(errors.ErrShapeMismatch, "data must be of the shape [2*n_vis, n_freq, n_pol]")
	}
	nFreq = len(d[0])
	nPol = len(d[0][0])
	for row := range d {
		if len(d[row]) != nFreq {
			return 0, 0, 0, errors.Wrapf(errors.ErrShapeMismatch, "data row %d has %d frequencies, expected %d", row, len(d[row]), nFreq)
		}
		for f := range d[row] {
			if len(d[row][f]) != nPol {
				return 0, 0, 0, errors.Wrapf(errors.ErrShapeMismatch, "data[%d][%d] has %d polarizations, expected %d", row, f, len(d[row][f]), nPol)
			}
		}
	}
	return rows, nFreq, nPol, nil
}

// Measurements flattens one polarization into the measurement vector layout:
// index f*n_vis+i is the real part and M/2+f*n_vis+i the imaginary part of
// visibility i at frequency f.
func (d Data) Measurements(pol int) []float64 {
	rows, nFreq, _, err := d.Shape()
	if err != nil {
		panic(err)
	}
	nVis := rows / 2
	half := nVis * nFreq
	res := make([]float64, 2*half)
	for f := 0; f < nFreq; f++ {
		for i := 0; i < nVis; i++ {
			res[f*nVis+i] = d[i][f][pol]
			res[half+f*nVis+i] = d[nVis+i][f][pol]
		}
	}
	return res
}

// NewData returns a single frequency, single polarization data array from a
// measurement vector of length 2*n_vis.
func NewData(measurements []float64) Data {
	res := make(Data, len(measurements))
	for row, value := range measurements {
		res[row] = [][]float64{{value}}
	}
	return res
}

// AdjointError returns |<A x, y> - <x, A^T y>| relative to the larger of the
// two inner products.
func AdjointError(op LinearOperator, x, y []float64) float64 {
	m, n := op.Dims()
	ax := make([]float64, m)
	aty := make([]float64, n)
	op.Apply(ax, x)
	op.ApplyAdjoint(aty, y)
	lhs := floats.Dot(ax, y)
	rhs := floats.Dot(x, aty)
	scale := math.Max(math.Abs(lhs), math.Abs(rhs))
	if scale == 0 {
		return 0
	}
	return math.Abs(lhs-rhs) / scale
}

func checkLen(buf []float64, n int) {
	if len(buf) != n {
		panic(mat.ErrShape)
	}
}
