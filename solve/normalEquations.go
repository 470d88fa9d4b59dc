package solve

import (
	"context"
	"math"

	"github.com/hammal/gridless/errors"
	"github.com/hammal/gridless/operator"
	"gonum.org/v1/gonum/floats"
)

// NormalSettings configures NormalEquations. X0 is the start iterate; nil
// starts from zero.
type NormalSettings struct {
	Epsilon float64
	MaxIter int
	Tol     float64
	X0      []float64
}

// NormalEquations solves (A^T A + εI) x = A^T b by conjugate gradients.
func NormalEquations(ctx context.Context, op operator.LinearOperator, b []float64, settings NormalSettings) (*Result, error) {
	m, n, err := checkOperator(op, b)
	if err != nil {
		return nil, err
	}
	if settings.X0 != nil && len(settings.X0) != n {
		return nil, errors.Wrapf(errors.ErrDimensionMismatch, "start iterate has length %d, operator has %d columns", len(settings.X0), n)
	}
	if settings.Epsilon < 0 {
		return nil, errors.Wrapf(errors.ErrInvalidParameter, "epsilon %g", settings.Epsilon)
	}
	maxIter := settings.MaxIter
	if maxIter <= 0 {
		maxIter = n
	}
	tol := settings.Tol
	if tol <= 0 {
		tol = 1e-8
	}

	var (
		x    = make([]float64, n)
		rhs  = make([]float64, n)
		r    = make([]float64, n)
		p    = make([]float64, n)
		np   = make([]float64, n)
		tmpM = make([]float64, m)
	)
	if settings.X0 != nil {
		copy(x, settings.X0)
	}

	// normal applies (A^T A + εI)
	normal := func(dst, v []float64) {
		op.Apply(tmpM, v)
		op.ApplyAdjoint(dst, tmpM)
		floats.AddScaled(dst, settings.Epsilon, v)
	}

	op.ApplyAdjoint(rhs, b)
	rhsNorm := floats.Norm(rhs, 2)
	res := &Result{X: x, Stop: StopExact}
	if rhsNorm == 0 {
		for index := range x {
			x[index] = 0
		}
		res.ResidualNorm = floats.Norm(b, 2)
		return res, nil
	}

	normal(r, x)
	floats.SubTo(r, rhs, r)
	copy(p, r)
	rs := floats.Dot(r, r)

	res.Stop = StopMaxIter
	for iter := 1; iter <= maxIter; iter++ {
		if math.Sqrt(rs) <= tol*rhsNorm {
			res.Stop = StopConverged
			break
		}
		if ctx.Err() != nil {
			res.Stop = StopCancelled
			break
		}
		res.Iterations = iter

		normal(np, p)
		curvature := floats.Dot(p, np)
		if curvature <= 0 {
			res.Stop = StopConditionLimit
			break
		}
		alpha := rs / curvature
		floats.AddScaled(x, alpha, p)
		floats.AddScaled(r, -alpha, np)
		rsNext := floats.Dot(r, r)
		floats.AddScaledTo(p, r, rsNext/rs, p)
		rs = rsNext
	}
	if res.Stop == StopMaxIter && math.Sqrt(rs) <= tol*rhsNorm {
		res.Stop = StopConverged
	}

	op.Apply(tmpM, x)
	floats.SubTo(tmpM, b, tmpM)
	res.ResidualNorm = floats.Norm(tmpM, 2)
	res.SolutionNorm = floats.Norm(x, 2)
	return res, nil
}
