package solve

import (
	"context"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/hammal/gridless/errors"
	"github.com/hammal/gridless/operator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func randomMatrix(rng *rand.Rand, m, n int) *mat.Dense {
	data := make([]float64, m*n)
	for index := range data {
		data[index] = rng.NormFloat64()
	}
	return mat.NewDense(m, n, data)
}

func mulVec(a mat.Matrix, x []float64) []float64 {
	m, n := a.Dims()
	res := mat.NewVecDense(m, nil)
	res.MulVec(a, mat.NewVecDense(n, x))
	return res.RawVector().Data
}

// ridgeSolution returns (A^T A + d I)^{-1} A^T b.
func ridgeSolution(t *testing.T, a *mat.Dense, b []float64, d float64) []float64 {
	_, n := a.Dims()
	var ata mat.Dense
	ata.Mul(a.T(), a)
	for index := 0; index < n; index++ {
		ata.Set(index, index, ata.At(index, index)+d)
	}
	var x mat.VecDense
	require.NoError(t, x.SolveVec(&ata, mat.NewVecDense(n, mulVec(a.T(), b))))
	return x.RawVector().Data
}

func TestLSQRConsistentSystem(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 1))
	a := randomMatrix(rng, 8, 5)
	want := []float64{1, -2, 0.5, 3, 0}
	b := mulVec(a, want)

	res, err := LSQR(context.Background(), operator.NewDense(a), b, LSQRSettings{ATol: 1e-12, BTol: 1e-12, MaxIter: 100})
	require.NoError(t, err)
	assert.InDeltaSlice(t, want, res.X, 1e-6)
	assert.Contains(t, []StopReason{StopConverged, StopLeastSquares}, res.Stop)
	assert.Less(t, res.ResidualNorm, 1e-6)
	assert.InDelta(t, mat.Norm(mat.NewVecDense(5, want), 2), res.SolutionNorm, 1e-6)
}

func TestLSQRDampedMatchesRidge(t *testing.T) {
	rng := rand.New(rand.NewPCG(2, 2))
	a := randomMatrix(rng, 12, 6)
	b := mulVec(randomMatrix(rng, 12, 1), []float64{1})
	damp := 0.7

	res, err := LSQR(context.Background(), operator.NewDense(a), b, LSQRSettings{Damp: damp, ATol: 1e-14, BTol: 1e-14, MaxIter: 200})
	require.NoError(t, err)
	assert.InDeltaSlice(t, ridgeSolution(t, a, b, damp*damp), res.X, 1e-8)
}

func TestLSQRZeroRightHandSide(t *testing.T) {
	a := mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6})
	res, err := LSQR(context.Background(), operator.NewDense(a), make([]float64, 3), LSQRSettings{})
	require.NoError(t, err)
	assert.Equal(t, StopExact, res.Stop)
	assert.Equal(t, []float64{0, 0}, res.X)
}

func TestLSQRCancelled(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 3))
	a := randomMatrix(rng, 6, 4)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := LSQR(ctx, operator.NewDense(a), mulVec(a, []float64{1, 1, 1, 1}), LSQRSettings{})
	require.NoError(t, err)
	assert.Equal(t, StopCancelled, res.Stop)
	assert.Equal(t, 0, res.Iterations)
}

func TestLSQRMaxIter(t *testing.T) {
	rng := rand.New(rand.NewPCG(4, 4))
	a := randomMatrix(rng, 30, 20)
	res, err := LSQR(context.Background(), operator.NewDense(a), mulVec(randomMatrix(rng, 30, 1), []float64{1}), LSQRSettings{MaxIter: 3})
	require.NoError(t, err)
	assert.Equal(t, StopMaxIter, res.Stop)
	assert.Equal(t, 3, res.Iterations)
}

func TestSolversRejectMismatchedRightHandSide(t *testing.T) {
	op := operator.NewDense(mat.NewDense(3, 2, nil))
	b := make([]float64, 4)
	ctx := context.Background()

	_, err := LSQR(ctx, op, b, LSQRSettings{})
	assert.True(t, errors.Is(err, errors.ErrDimensionMismatch))
	_, err = FISTA(ctx, op, b, FISTASettings{})
	assert.True(t, errors.Is(err, errors.ErrDimensionMismatch))
	_, err = NormalEquations(ctx, op, b, NormalSettings{})
	assert.True(t, errors.Is(err, errors.ErrDimensionMismatch))
	_, err = ElasticNet(ctx, mat.NewDense(3, 2, nil), b, ElasticNetSettings{L1Ratio: 0.5})
	assert.True(t, errors.Is(err, errors.ErrDimensionMismatch))
	_, _, err = LeastSquares(mat.NewDense(3, 2, nil), b, 0)
	assert.True(t, errors.Is(err, errors.ErrDimensionMismatch))
}

func TestMaxEigenvalue(t *testing.T) {
	a := mat.NewDiagDense(3, []float64{1, 2, 3})
	got := MaxEigenvalue(context.Background(), operator.NewDense(a), 500, 1e-14)
	assert.InDelta(t, 9., got, 1e-6)
}

func TestFISTAWithoutPenaltyIsLeastSquares(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 5))
	a := randomMatrix(rng, 20, 5)
	b := mulVec(randomMatrix(rng, 20, 1), []float64{1})

	res, err := FISTA(context.Background(), operator.NewDense(a), b, FISTASettings{Alpha: 0, MaxIter: 5000, Tol: 1e-13})
	require.NoError(t, err)
	assert.InDeltaSlice(t, ridgeSolution(t, a, b, 0), res.X, 1e-6)
}

func TestFISTALargePenaltyGivesZero(t *testing.T) {
	rng := rand.New(rand.NewPCG(6, 6))
	a := randomMatrix(rng, 10, 4)
	b := mulVec(a, []float64{1, 2, 3, 4})
	alpha := 2 * mat.Norm(mat.NewVecDense(4, mulVec(a.T(), b)), math.Inf(1))

	res, err := FISTA(context.Background(), operator.NewDense(a), b, FISTASettings{Alpha: alpha, MaxIter: 50, Tol: 1e-12})
	require.NoError(t, err)
	assert.Equal(t, make([]float64, 4), res.X)
	assert.Equal(t, StopConverged, res.Stop)

	_, err = FISTA(context.Background(), operator.NewDense(a), b, FISTASettings{Alpha: -1})
	assert.True(t, errors.Is(err, errors.ErrInvalidParameter))
}

func TestSoftThreshold(t *testing.T) {
	x := []float64{-3, -0.5, 0, 0.5, 3}
	softThreshold(x, 1)
	assert.Equal(t, []float64{-2, 0, 0, 0, 2}, x)
}

func TestNormalEquations(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 7))
	a := randomMatrix(rng, 15, 6)
	b := mulVec(randomMatrix(rng, 15, 1), []float64{1})
	x0 := make([]float64, 6)
	x0[2] = 1

	res, err := NormalEquations(context.Background(), operator.NewDense(a), b, NormalSettings{Epsilon: 0.5, MaxIter: 50, Tol: 1e-12, X0: x0})
	require.NoError(t, err)
	assert.Equal(t, StopConverged, res.Stop)
	assert.InDeltaSlice(t, ridgeSolution(t, a, b, 0.5), res.X, 1e-8)

	_, err = NormalEquations(context.Background(), operator.NewDense(a), b, NormalSettings{X0: []float64{1}})
	assert.True(t, errors.Is(err, errors.ErrDimensionMismatch))
}

func TestElasticNetRecoversPositiveTruth(t *testing.T) {
	rng := rand.New(rand.NewPCG(8, 8))
	a := randomMatrix(rng, 30, 4)
	want := []float64{0.5, 2, 0, 1}
	b := mulVec(a, want)

	res, err := ElasticNet(context.Background(), a, b, ElasticNetSettings{Lambda: 1e-9, L1Ratio: 1, Tol: 1e-12, MaxIter: 20000, Positive: true})
	require.NoError(t, err)
	assert.InDeltaSlice(t, want, res.X, 1e-4)
	assert.Equal(t, StopConverged, res.Stop)
}

func TestElasticNetPositivity(t *testing.T) {
	rng := rand.New(rand.NewPCG(9, 9))
	a := randomMatrix(rng, 25, 10)
	b := mulVec(randomMatrix(rng, 25, 1), []float64{3})

	res, err := ElasticNet(context.Background(), a, b, ElasticNetSettings{Lambda: 0.01, L1Ratio: 0.5, Positive: true})
	require.NoError(t, err)
	for _, value := range res.X {
		assert.GreaterOrEqual(t, value, 0.)
	}

	// beyond λ_max the solution vanishes
	top := LambdaMax(a, b, 0.5, true)
	res, err = ElasticNet(context.Background(), a, b, ElasticNetSettings{Lambda: 1.01 * top, L1Ratio: 0.5, Positive: true})
	require.NoError(t, err)
	assert.Equal(t, make([]float64, 10), res.X)

	_, err = ElasticNet(context.Background(), a, b, ElasticNetSettings{Lambda: 1, L1Ratio: 1.5})
	assert.True(t, errors.Is(err, errors.ErrInvalidParameter))
}

func TestElasticNetCV(t *testing.T) {
	rng := rand.New(rand.NewPCG(10, 10))
	a := randomMatrix(rng, 40, 8)
	truth := []float64{0, 3, 0, 0, 1.5, 0, 0, 0}
	b := mulVec(a, truth)
	for index := range b {
		b[index] += 0.01 * rng.NormFloat64()
	}

	res, err := ElasticNetCV(context.Background(), a, b,
		ElasticNetSettings{L1Ratio: 0.9, Tol: 1e-8, MaxIter: 5000, Positive: true},
		CrossValidation{Folds: 4, NLambda: 15})
	require.NoError(t, err)
	require.Len(t, res.Path, 15)
	require.Len(t, res.MeanMSE, 15)
	assert.Contains(t, res.Path, res.Lambda)
	assert.Greater(t, res.Path[0], res.Path[14])
	for _, value := range res.X {
		assert.GreaterOrEqual(t, value, 0.)
	}
	assert.InDelta(t, 3., res.X[1], 0.2)
	assert.InDelta(t, 1.5, res.X[4], 0.2)

	_, err = ElasticNetCV(context.Background(), mat.NewDense(3, 8, nil), b[:3], ElasticNetSettings{}, CrossValidation{})
	assert.True(t, errors.Is(err, errors.ErrInvalidParameter))
}

func TestLambdaPath(t *testing.T) {
	path := LambdaPath(10, 1e-3, 4)
	assert.InDeltaSlice(t, []float64{10, 1, 0.1, 0.01}, path, 1e-12)
	assert.Equal(t, []float64{5}, LambdaPath(5, 1e-3, 1))
}

func TestLeastSquares(t *testing.T) {
	// underdetermined: minimum norm solution
	res, rank, err := LeastSquares(mat.NewDense(1, 2, []float64{1, 1}), []float64{2}, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, rank)
	assert.InDeltaSlice(t, []float64{1, 1}, res.X, 1e-12)
	assert.Equal(t, StopDirect, res.Stop)

	// rank deficient columns
	a := mat.NewDense(3, 2, []float64{1, 1, 2, 2, 3, 3})
	res, rank, err = LeastSquares(a, []float64{2, 4, 6}, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, rank)
	assert.InDeltaSlice(t, []float64{1, 1}, res.X, 1e-12)

	// overdetermined consistent
	rng := rand.New(rand.NewPCG(11, 11))
	full := randomMatrix(rng, 9, 4)
	want := []float64{1, -1, 2, 0.25}
	res, rank, err = LeastSquares(full, mulVec(full, want), 0)
	require.NoError(t, err)
	assert.Equal(t, 4, rank)
	assert.InDeltaSlice(t, want, res.X, 1e-10)
	assert.Less(t, res.ResidualNorm, 1e-10)
}

func TestStopReasonString(t *testing.T) {
	assert.Equal(t, "converged", StopConverged.String())
	assert.Equal(t, "cancelled", StopCancelled.String())
	assert.Equal(t, "unknown", StopReason(99).String())
}
