// Package solve holds the iterative and regression solvers used to invert
// the measurement operator. Solvers never fail on convergence trouble: they
// return their best iterate together with the reason they stopped.
package solve

import (
	"github.com/hammal/gridless/errors"
	"github.com/hammal/gridless/operator"
)

// StopReason records why a solver returned.
type StopReason int

const (
	// StopExact means x = 0 solves the problem exactly.
	StopExact StopReason = iota
	// StopConverged means the residual met the requested tolerance.
	StopConverged
	// StopLeastSquares means the least-squares optimality condition met the
	// requested tolerance.
	StopLeastSquares
	// StopConditionLimit means the operator appears too ill-conditioned to
	// continue.
	StopConditionLimit
	// StopMaxIter means the iteration budget ran out.
	StopMaxIter
	// StopCancelled means the context was cancelled between iterations.
	StopCancelled
	// StopDirect means the problem was solved by a direct factorization.
	StopDirect
)

func (s StopReason) String() string {
	switch s {
	case StopExact:
		return "exact"
	case StopConverged:
		return "converged"
	case StopLeastSquares:
		return "least-squares"
	case StopConditionLimit:
		return "condition-limit"
	case StopMaxIter:
		return "max-iter"
	case StopCancelled:
		return "cancelled"
	case StopDirect:
		return "direct"
	default:
		return "unknown"
	}
}

// Result is the outcome of a solve.
type Result struct {
	X            []float64
	Stop         StopReason
	Iterations   int
	ResidualNorm float64
	SolutionNorm float64
}

func checkOperator(op operator.LinearOperator, b []float64) (m, n int, err error) {
	m, n = op.Dims()
	if len(b) != m {
		return 0, 0, errors.Wrapf(errors.ErrDimensionMismatch, "right hand side has length %d, operator has %d rows", len(b), m)
	}
	if n == 0 {
		return 0, 0, errors.Wrap(errors.ErrDimensionMismatch, "operator has no columns")
	}
	return m, n, nil
}
