package reconstruct

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/hammal/gridless/errors"
	"github.com/hammal/gridless/gaussian"
	"github.com/hammal/gridless/gonumExtensions"
	"github.com/hammal/gridless/logger"
	"github.com/hammal/gridless/operator"
	"github.com/hammal/gridless/sky"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Prior returns the sky prior used by Infer: every pixel independent with
// mean median(|V|) and variance p95(|V|)².
func (e *Engine) Prior() (*gaussian.Gaussian, error) {
	amplitudes := e.amplitudes()
	sort.Float64s(amplitudes)
	p50 := sky.Median(amplitudes)
	p95 := stat.Quantile(0.95, stat.Empirical, amplitudes, nil)
	if p95 == 0 {
		return nil, errors.WithHint(
			errors.Wrap(errors.ErrInvalidParameter, "visibilities carry no signal"),
			"the prior variance is derived from the 95th percentile of |V|")
	}
	nPix := e.sphere.NPix()
	e.opts.sink.Infow("sky prior", "mean", p50, "variance", p95*p95, logger.FieldNPix, nPix)
	return gaussian.NewWithCovariance(gonumExtensions.FullVec(nPix, p50), gonumExtensions.Eye(nPix, p95*p95))
}

// NoisePrecision returns the inverse of the measurement noise covariance
//
//	[D  ½D]
//	[½D  D],  D = diag(rms²)
//
// with the baseline noise repeated for every frequency.
func (e *Engine) NoisePrecision() (*mat.SymDense, error) {
	p := e.problem
	if len(p.RMS) == 0 {
		return nil, errors.WithHint(
			errors.Wrap(errors.ErrInvalidParameter, "no noise estimates"),
			"inference needs the rms of every baseline")
	}
	variances := make([]float64, 0, len(p.RMS)*len(p.Frequencies))
	for range p.Frequencies {
		for index, rms := range p.RMS {
			if rms <= 0 || math.IsNaN(rms) {
				return nil, errors.Wrapf(errors.ErrInvalidParameter, "baseline %d has rms %g", index, rms)
			}
			variances = append(variances, rms*rms)
		}
	}

	d := gonumExtensions.DiagSym(variances)
	cov := gonumExtensions.BlockDiag(d, d)
	k := len(variances)
	for index, variance := range variances {
		cov.SetSym(index, k+index, 0.5*variance)
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(cov); !ok {
		return nil, errors.Wrap(errors.ErrNotPositiveDefinite, "noise covariance")
	}
	var res mat.SymDense
	if err := chol.InverseTo(&res); err != nil {
		return nil, errors.Wrap(err, "invert noise covariance")
	}
	return &res, nil
}

// Infer returns the posterior belief over the pixel amplitudes under the
// linear Gaussian observation model and writes its mean to the sphere.
func (e *Engine) Infer(ctx context.Context) (*gaussian.Gaussian, error) {
	start := time.Now()
	noise, err := e.NoisePrecision()
	if err != nil {
		return nil, err
	}
	prior, err := e.Prior()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "inference")
	}

	a := operator.DesignMatrixFrequencies(e.problem.Baselines, e.problem.Frequencies, e.sphere)
	posterior, err := prior.BayesUpdate(noise, mat.NewVecDense(len(e.measurements), e.measurements), a)
	if err != nil {
		return nil, err
	}
	mean := posterior.Mean()
	if gonumExtensions.NANORINF(mean) {
		e.opts.sink.Warnw("posterior mean is not finite")
	}
	e.sphere.SetVisiblePixels(mean.RawVector().Data, e.opts.scale)

	inferencesTotal.Inc()
	e.opts.sink.Infow("posterior computed",
		logger.FieldNPix, posterior.Dim(),
		logger.FieldNVis, e.problem.Baselines.Len(),
		logger.FieldNFreq, len(e.problem.Frequencies),
		logger.FieldDurationMS, time.Since(start).Milliseconds(),
	)
	return posterior, nil
}

// amplitudes returns |V| for every baseline and frequency.
func (e *Engine) amplitudes() []float64 {
	half := len(e.measurements) / 2
	res := make([]float64, half)
	for index := range res {
		res[index] = math.Hypot(e.measurements[index], e.measurements[half+index])
	}
	return res
}
