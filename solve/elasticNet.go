package solve

import (
	"context"
	"math"

	"github.com/hammal/gridless/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ElasticNetSettings configures ElasticNet.
type ElasticNetSettings struct {
	Lambda   float64
	L1Ratio  float64
	Tol      float64
	MaxIter  int
	Positive bool
	// X0 warm starts the coordinate descent; nil starts from zero.
	X0 []float64
}

func (s ElasticNetSettings) validate(n int) error {
	if s.Lambda < 0 {
		return errors.Wrapf(errors.ErrInvalidParameter, "elastic net lambda %g", s.Lambda)
	}
	if s.L1Ratio < 0 || s.L1Ratio > 1 {
		return errors.WithHint(
			errors.Wrapf(errors.ErrInvalidParameter, "l1 ratio %g", s.L1Ratio),
			"the l1 ratio mixes the penalties and must lie in [0, 1]")
	}
	if s.X0 != nil && len(s.X0) != n {
		return errors.Wrapf(errors.ErrDimensionMismatch, "warm start has length %d, expected %d", len(s.X0), n)
	}
	return nil
}

// ElasticNet minimizes
//
//	1/(2m) ||b - A x||² + λρ ||x||₁ + λ(1-ρ)/2 ||x||²
//
// by cyclic coordinate descent, with x ≥ 0 when Positive is set. It stops
// when the largest coordinate update is below Tol times the largest
// coordinate.
func ElasticNet(ctx context.Context, a mat.Matrix, b []float64, settings ElasticNetSettings) (*Result, error) {
	m, n := a.Dims()
	if len(b) != m {
		return nil, errors.Wrapf(errors.ErrDimensionMismatch, "right hand side has length %d, matrix has %d rows", len(b), m)
	}
	if err := settings.validate(n); err != nil {
		return nil, err
	}
	maxIter := settings.MaxIter
	if maxIter <= 0 {
		maxIter = 1000
	}
	tol := settings.Tol
	if tol <= 0 {
		tol = 1e-4
	}

	// Columns of a as contiguous rows
	at := mat.DenseCopyOf(a.T())
	colNorms := make([]float64, n)
	for j := 0; j < n; j++ {
		col := at.RawRowView(j)
		colNorms[j] = floats.Dot(col, col)
	}

	var (
		x     = make([]float64, n)
		r     = make([]float64, m)
		scale = float64(m)
		l1    = settings.Lambda * settings.L1Ratio * scale
		l2    = settings.Lambda * (1 - settings.L1Ratio) * scale
	)
	if settings.X0 != nil {
		copy(x, settings.X0)
	}
	// r = b - A x
	res := mat.NewVecDense(m, r)
	res.MulVec(a, mat.NewVecDense(n, x))
	floats.SubTo(r, b, r)

	out := &Result{X: x, Stop: StopMaxIter}
	for iter := 1; iter <= maxIter; iter++ {
		if ctx.Err() != nil {
			out.Stop = StopCancelled
			break
		}
		out.Iterations = iter

		var maxUpdate, maxCoef float64
		for j := 0; j < n; j++ {
			if colNorms[j] == 0 {
				continue
			}
			col := at.RawRowView(j)
			old := x[j]
			rho := floats.Dot(col, r) + old*colNorms[j]

			var next float64
			switch {
			case rho > l1:
				next = (rho - l1) / (colNorms[j] + l2)
			case rho < -l1 && !settings.Positive:
				next = (rho + l1) / (colNorms[j] + l2)
			}
			if next != old {
				floats.AddScaled(r, old-next, col)
				x[j] = next
			}
			maxUpdate = math.Max(maxUpdate, math.Abs(next-old))
			maxCoef = math.Max(maxCoef, math.Abs(next))
		}

		if maxCoef == 0 || maxUpdate <= tol*maxCoef {
			out.Stop = StopConverged
			break
		}
	}

	out.ResidualNorm = floats.Norm(r, 2)
	out.SolutionNorm = floats.Norm(x, 2)
	return out, nil
}

// LambdaMax returns the smallest λ for which the elastic net solution is
// zero.
func LambdaMax(a mat.Matrix, b []float64, l1Ratio float64, positive bool) float64 {
	m, n := a.Dims()
	atb := mat.NewVecDense(n, nil)
	atb.MulVec(a.T(), mat.NewVecDense(m, b))
	var best float64
	for j := 0; j < n; j++ {
		value := atb.AtVec(j)
		if !positive {
			value = math.Abs(value)
		}
		best = math.Max(best, value)
	}
	ratio := math.Max(l1Ratio, 1e-3)
	return best / (float64(m) * ratio)
}
