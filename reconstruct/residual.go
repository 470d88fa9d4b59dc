package reconstruct

import (
	"math"

	"github.com/google/uuid"
	"github.com/hammal/gridless/logger"
	"github.com/hammal/gridless/operator"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ResidualLimit is the normalized residual magnitude above which a
// measurement is reported as an outlier.
const ResidualLimit = 10.0

// Outlier is a measurement the reconstruction does not explain.
type Outlier struct {
	// Baseline is the position in the baseline arrays, Index the baseline
	// index of the source dataset.
	Baseline  int
	Index     int
	Frequency float64
	// Magnitude is |r_re + j r_im| in units of the residual's standard
	// deviation.
	Magnitude float64
	// Value is the measured visibility.
	Value   complex128
	U, V, W float64
}

// Residual returns y - A x.
func Residual(op operator.LinearOperator, y, x []float64) []float64 {
	m, _ := op.Dims()
	res := make([]float64, m)
	op.Apply(res, x)
	floats.SubTo(res, y, res)
	return res
}

// FindOutliers normalizes the residual r by its standard deviation and
// returns, in measurement order, every baseline and frequency whose complex
// magnitude exceeds ResidualLimit. A residual without spread has no outliers.
func FindOutliers(r, y []float64, baselines operator.Baselines, frequencies []float64, indices []int) []Outlier {
	sdev := stat.PopStdDev(r, nil)
	if sdev == 0 || math.IsNaN(sdev) {
		return nil
	}
	nVis := baselines.Len()
	half := len(r) / 2

	var res []Outlier
	for f, frequency := range frequencies {
		for i := 0; i < nVis; i++ {
			re := f*nVis + i
			im := half + re
			magnitude := math.Hypot(r[re], r[im]) / sdev
			if magnitude <= ResidualLimit {
				continue
			}
			res = append(res, Outlier{
				Baseline:  i,
				Index:     indices[i],
				Frequency: frequency,
				Magnitude: magnitude,
				Value:     complex(y[re], y[im]),
				U:         baselines.U[i],
				V:         baselines.V[i],
				W:         baselines.W[i],
			})
		}
	}
	return res
}

func (e *Engine) outliers(op operator.LinearOperator, x []float64, runID uuid.UUID) []Outlier {
	r := Residual(op, e.measurements, x)
	res := FindOutliers(r, e.measurements, e.problem.Baselines, e.problem.Frequencies, e.problem.Indices)
	for _, o := range res {
		e.opts.sink.Warnw("outlier residual",
			logger.FieldRunID, runID.String(),
			logger.FieldBaseline, o.Baseline,
			logger.FieldIndex, o.Index,
			logger.FieldFrequency, o.Frequency,
			logger.FieldMagnitude, o.Magnitude,
			logger.FieldValue, o.Value,
			logger.FieldUVW, []float64{o.U, o.V, o.W},
		)
	}
	return res
}
