package solve

import (
	"github.com/hammal/gridless/errors"
	"gonum.org/v1/gonum/mat"
)

// LeastSquares returns the minimum norm least squares solution of A x = b
// through the thin singular value decomposition. Singular values below
// rcond times the largest are treated as zero; rcond ≤ 0 selects
// max(m, n)·ε.
func LeastSquares(a mat.Matrix, b []float64, rcond float64) (*Result, int, error) {
	m, n := a.Dims()
	if len(b) != m {
		return nil, 0, errors.Wrapf(errors.ErrDimensionMismatch, "right hand side has length %d, matrix has %d rows", len(b), m)
	}
	if rcond <= 0 {
		rcond = float64(max(m, n)) * eps
	}

	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		return nil, 0, errors.New("singular value decomposition failed")
	}
	values := svd.Values(nil)
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	// x = V Σ⁺ U^T b
	utb := mat.NewVecDense(len(values), nil)
	utb.MulVec(u.T(), mat.NewVecDense(m, b))
	var rank int
	for index, value := range values {
		if value > rcond*values[0] {
			utb.SetVec(index, utb.AtVec(index)/value)
			rank++
			continue
		}
		utb.SetVec(index, 0)
	}
	x := mat.NewVecDense(n, nil)
	x.MulVec(&v, utb)

	r := mat.NewVecDense(m, nil)
	r.MulVec(a, x)
	r.SubVec(mat.NewVecDense(m, b), r)

	return &Result{
		X:            x.RawVector().Data,
		Stop:         StopDirect,
		ResidualNorm: mat.Norm(r, 2),
		SolutionNorm: mat.Norm(x, 2),
	}, rank, nil
}
