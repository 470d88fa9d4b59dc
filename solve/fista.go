package solve

import (
	"context"
	"math"

	"github.com/hammal/gridless/errors"
	"github.com/hammal/gridless/operator"
	"gonum.org/v1/gonum/floats"
)

// FISTASettings configures FISTA. Lipschitz is the largest eigenvalue of
// A^T A; zero estimates it by power iteration.
type FISTASettings struct {
	Alpha     float64
	MaxIter   int
	Tol       float64
	Lipschitz float64
}

// FISTA minimizes ½||b - A x||² + alpha ||x||₁ by accelerated proximal
// gradient steps of length 1/L with soft thresholding.
func FISTA(ctx context.Context, op operator.LinearOperator, b []float64, settings FISTASettings) (*Result, error) {
	m, n, err := checkOperator(op, b)
	if err != nil {
		return nil, err
	}
	if settings.Alpha < 0 {
		return nil, errors.Wrapf(errors.ErrInvalidParameter, "fista alpha %g", settings.Alpha)
	}
	maxIter := settings.MaxIter
	if maxIter <= 0 {
		maxIter = 100
	}
	lipschitz := settings.Lipschitz
	if lipschitz <= 0 {
		// power iteration approaches from below
		lipschitz = 1.01 * MaxEigenvalue(ctx, op, 100, 1e-6)
	}

	res := &Result{X: make([]float64, n), Stop: StopExact}
	if lipschitz == 0 || floats.Norm(b, 2) == 0 {
		res.ResidualNorm = floats.Norm(b, 2)
		return res, nil
	}
	step := 1 / lipschitz
	thresh := settings.Alpha * step

	var (
		x     = res.X
		xOld  = make([]float64, n)
		z     = make([]float64, n)
		r     = make([]float64, m)
		grad  = make([]float64, n)
		t     = 1.
		delta = make([]float64, n)
	)

	res.Stop = StopMaxIter
	for iter := 1; iter <= maxIter; iter++ {
		if ctx.Err() != nil {
			res.Stop = StopCancelled
			break
		}
		res.Iterations = iter
		copy(xOld, x)

		// x = soft(z + step A^T (b - A z))
		op.Apply(r, z)
		floats.SubTo(r, b, r)
		op.ApplyAdjoint(grad, r)
		floats.AddScaledTo(x, z, step, grad)
		softThreshold(x, thresh)

		// Nesterov momentum
		tNext := (1 + math.Sqrt(1+4*t*t)) / 2
		floats.SubTo(delta, x, xOld)
		floats.AddScaledTo(z, x, (t-1)/tNext, delta)
		t = tNext

		if floats.Norm(delta, 2) < settings.Tol {
			res.Stop = StopConverged
			break
		}
	}

	op.Apply(r, x)
	floats.SubTo(r, b, r)
	res.ResidualNorm = floats.Norm(r, 2)
	res.SolutionNorm = floats.Norm(x, 2)
	return res, nil
}

func softThreshold(x []float64, thresh float64) {
	for index, value := range x {
		x[index] = math.Copysign(math.Max(math.Abs(value)-thresh, 0), value)
	}
}
