package solve

import (
	"context"
	"math"
	"math/rand/v2"

	"github.com/hammal/gridless/operator"
	"gonum.org/v1/gonum/floats"
)

// MaxEigenvalue estimates the largest eigenvalue of A^T A by power
// iteration. It stops after maxIter iterations or when the relative change
// of the Rayleigh quotient drops below tol. The start vector is drawn from a
// fixed seed so the estimate is reproducible.
func MaxEigenvalue(ctx context.Context, op operator.LinearOperator, maxIter int, tol float64) float64 {
	m, n := op.Dims()
	rng := rand.New(rand.NewPCG(uint64(m), uint64(n)))
	x := make([]float64, n)
	for index := range x {
		x[index] = rng.NormFloat64()
	}
	floats.Scale(1/floats.Norm(x, 2), x)

	ax := make([]float64, m)
	atax := make([]float64, n)
	var lambda float64
	for iter := 0; iter < maxIter; iter++ {
		if ctx.Err() != nil {
			break
		}
		op.Apply(ax, x)
		op.ApplyAdjoint(atax, ax)
		next := floats.Dot(x, atax)
		norm := floats.Norm(atax, 2)
		if norm == 0 {
			return 0
		}
		copy(x, atax)
		floats.Scale(1/norm, x)
		if iter > 0 && math.Abs(next-lambda) <= tol*math.Abs(next) {
			lambda = next
			break
		}
		lambda = next
	}
	return lambda
}
