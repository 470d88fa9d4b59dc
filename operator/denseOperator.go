package operator

import "gonum.org/v1/gonum/mat"

// Dense exposes an explicit matrix as a LinearOperator.
type Dense struct {
	a mat.Matrix
}

// NewDense wraps a.
func NewDense(a mat.Matrix) *Dense {
	return &Dense{a: a}
}

// Dims returns the dimensions of the wrapped matrix.
func (d *Dense) Dims() (m, n int) {
	return d.a.Dims()
}

// Matrix returns the wrapped matrix.
func (d *Dense) Matrix() mat.Matrix {
	return d.a
}

// Apply computes dst = A x.
func (d *Dense) Apply(dst, x []float64) {
	m, n := d.a.Dims()
	checkLen(dst, m)
	checkLen(x, n)
	res := mat.NewVecDense(m, dst)
	res.MulVec(d.a, mat.NewVecDense(n, x))
}

// ApplyAdjoint computes dst = A^T y.
func (d *Dense) ApplyAdjoint(dst, y []float64) {
	m, n := d.a.Dims()
	checkLen(dst, n)
	checkLen(y, m)
	res := mat.NewVecDense(n, dst)
	res.MulVec(d.a.T(), mat.NewVecDense(m, y))
}
