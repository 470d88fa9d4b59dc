package solve

import (
	"context"
	"math"

	"github.com/hammal/gridless/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// CrossValidation configures the regularization path search of
// ElasticNetCV.
type CrossValidation struct {
	Folds   int
	NLambda int
	// Ratio of the smallest to the largest λ on the path.
	Eps float64
}

func (cv CrossValidation) withDefaults() CrossValidation {
	if cv.Folds <= 1 {
		cv.Folds = 5
	}
	if cv.NLambda <= 0 {
		cv.NLambda = 100
	}
	if cv.Eps <= 0 || cv.Eps >= 1 {
		cv.Eps = 1e-3
	}
	return cv
}

// CVResult is the outcome of ElasticNetCV.
type CVResult struct {
	*Result
	Lambda  float64
	Path    []float64
	MeanMSE []float64
}

// LambdaPath returns n values log-spaced from top down to top*ratio.
func LambdaPath(top, ratio float64, n int) []float64 {
	res := make([]float64, n)
	if n == 1 {
		res[0] = top
		return res
	}
	floats.LogSpan(res, top*ratio, top)
	floats.Reverse(res)
	return res
}

// ElasticNetCV picks λ from a log-spaced path by K-fold cross validation
// over contiguous folds of the rows and refits on all rows. settings.Lambda
// is ignored.
func ElasticNetCV(ctx context.Context, a mat.Matrix, b []float64, settings ElasticNetSettings, cv CrossValidation) (*CVResult, error) {
	m, n := a.Dims()
	if len(b) != m {
		return nil, errors.Wrapf(errors.ErrDimensionMismatch, "right hand side has length %d, matrix has %d rows", len(b), m)
	}
	cv = cv.withDefaults()
	if cv.Folds > m {
		return nil, errors.Wrapf(errors.ErrInvalidParameter, "%d folds for %d measurements", cv.Folds, m)
	}
	settings.Lambda = 0
	settings.X0 = nil
	if err := settings.validate(n); err != nil {
		return nil, err
	}

	lambdaMax := LambdaMax(a, b, settings.L1Ratio, settings.Positive)
	if lambdaMax == 0 {
		res, err := ElasticNet(ctx, a, b, settings)
		if err != nil {
			return nil, err
		}
		return &CVResult{Result: res}, nil
	}
	path := LambdaPath(lambdaMax, cv.Eps, cv.NLambda)
	mse := make([]float64, len(path))

	for fold := 0; fold < cv.Folds; fold++ {
		start := fold * m / cv.Folds
		stop := (fold + 1) * m / cv.Folds
		train, trainB, test, testB := splitRows(a, b, start, stop)

		// Warm start down the path
		s := settings
		for index, lambda := range path {
			s.Lambda = lambda
			res, err := ElasticNet(ctx, train, trainB, s)
			if err != nil {
				return nil, err
			}
			s.X0 = res.X
			mse[index] += predictionError(test, testB, res.X) / float64(cv.Folds)
		}
		if ctx.Err() != nil {
			break
		}
	}

	best := floats.MinIdx(mse)
	settings.Lambda = path[best]
	res, err := ElasticNet(ctx, a, b, settings)
	if err != nil {
		return nil, err
	}
	return &CVResult{Result: res, Lambda: path[best], Path: path, MeanMSE: mse}, nil
}

// splitRows returns the rows outside [start, stop) and the rows inside.
func splitRows(a mat.Matrix, b []float64, start, stop int) (train *mat.Dense, trainB []float64, test *mat.Dense, testB []float64) {
	m, n := a.Dims()
	train = mat.NewDense(m-(stop-start), n, nil)
	test = mat.NewDense(stop-start, n, nil)
	trainB = make([]float64, 0, m-(stop-start))
	testB = make([]float64, 0, stop-start)
	var trainRow, testRow int
	for row := 0; row < m; row++ {
		if row >= start && row < stop {
			mat.Row(test.RawRowView(testRow), row, a)
			testB = append(testB, b[row])
			testRow++
			continue
		}
		mat.Row(train.RawRowView(trainRow), row, a)
		trainB = append(trainB, b[row])
		trainRow++
	}
	return train, trainB, test, testB
}

func predictionError(a mat.Matrix, b, x []float64) float64 {
	m, n := a.Dims()
	pred := mat.NewVecDense(m, nil)
	pred.MulVec(a, mat.NewVecDense(n, x))
	sq := make([]float64, m)
	for row := range sq {
		d := b[row] - pred.AtVec(row)
		sq[row] = d * d
	}
	res := stat.Mean(sq, nil)
	if math.IsNaN(res) {
		return math.Inf(1)
	}
	return res
}
