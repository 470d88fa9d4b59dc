package reconstruct

import (
	"context"
	"math"
	"strings"

	"github.com/hammal/gridless/errors"
	"github.com/hammal/gridless/operator"
	"github.com/hammal/gridless/solve"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Strategy selects how the engine inverts the measurement operator. The
// set of strategies is closed: DirectLeastSquares, Ridge, ElasticNet, LSQR,
// FISTA and NormalEquations.
type Strategy interface {
	Name() string
	solve(ctx context.Context, r *run) (*solution, error)
}

// run is the per-call state handed to a strategy.
type run struct {
	engine  *Engine
	forward *operator.Forward
}

func (r *run) measurements() []float64 {
	return r.engine.measurements
}

func (r *run) nPix() int {
	return r.engine.sphere.NPix()
}

func (r *run) designMatrix() *mat.Dense {
	p := r.engine.problem
	return operator.DesignMatrixFrequencies(p.Baselines, p.Frequencies, r.engine.sphere)
}

// regularization returns λ = α/√n_pix.
func (r *run) regularization(alpha float64) float64 {
	return alpha / math.Sqrt(float64(r.nPix()))
}

type solution struct {
	*solve.Result
	lambda float64
}

// DirectLeastSquares solves the unregularized problem on the explicit design
// matrix. RCond is the relative singular value cutoff, zero for the
// machine precision default.
type DirectLeastSquares struct {
	RCond float64
}

func (DirectLeastSquares) Name() string { return "lstsq" }

func (s DirectLeastSquares) solve(_ context.Context, r *run) (*solution, error) {
	res, rank, err := solve.LeastSquares(r.designMatrix(), r.measurements(), s.RCond)
	if err != nil {
		return nil, err
	}
	if rank < r.nPix() {
		r.engine.opts.sink.Infow("rank deficient design matrix, returning the minimum norm solution",
			"rank", rank, "npix", r.nPix())
	}
	return &solution{Result: res}, nil
}

// Ridge is Tikhonov regularized least squares with weight λ = α/√n_pix on
// the explicit design matrix.
type Ridge struct {
	Alpha float64
	// Tol defaults to min(α/1e4, 1e-10).
	Tol     float64
	MaxIter int
}

func (Ridge) Name() string { return "ridge" }

func (s Ridge) solve(ctx context.Context, r *run) (*solution, error) {
	if s.Alpha < 0 {
		return nil, errors.WithHint(
			errors.Wrapf(errors.ErrInvalidParameter, "ridge alpha %g", s.Alpha),
			"ridge needs an explicit non-negative alpha")
	}
	lambda := r.regularization(s.Alpha)
	tol := s.Tol
	if tol <= 0 {
		tol = math.Min(s.Alpha/1e4, 1e-10)
	}
	if tol <= 0 {
		tol = 1e-10
	}
	res, err := solve.LSQR(ctx, operator.NewDense(r.designMatrix()), r.measurements(), solve.LSQRSettings{
		Damp:    math.Sqrt(lambda),
		ATol:    tol,
		BTol:    tol,
		MaxIter: s.MaxIter,
	})
	if err != nil {
		return nil, err
	}
	return &solution{Result: res, lambda: lambda}, nil
}

// ElasticNet is L1 and L2 regularized regression with non-negative pixel
// amplitudes. λ = α/√n_pix unless CrossValidate picks it from a path.
type ElasticNet struct {
	Alpha   float64
	L1Ratio float64
	// Tol defaults to 1e-6.
	Tol           float64
	MaxIter       int
	CrossValidate bool
	// Folds defaults to 5.
	Folds int
	// NAlphas is the length of the regularization path, 100 when zero.
	NAlphas int
}

func (ElasticNet) Name() string { return "lasso" }

func (s ElasticNet) solve(ctx context.Context, r *run) (*solution, error) {
	settings := solve.ElasticNetSettings{
		L1Ratio:  s.L1Ratio,
		Tol:      s.Tol,
		MaxIter:  s.MaxIter,
		Positive: true,
	}
	if settings.Tol <= 0 {
		settings.Tol = 1e-6
	}
	a := r.designMatrix()

	if s.CrossValidate {
		res, err := solve.ElasticNetCV(ctx, a, r.measurements(), settings, solve.CrossValidation{
			Folds:   s.Folds,
			NLambda: s.NAlphas,
		})
		if err != nil {
			return nil, err
		}
		r.engine.opts.sink.Infow("cross validated regularization",
			"lambda", res.Lambda, "l1_ratio", s.L1Ratio, "path", len(res.Path))
		return &solution{Result: res.Result, lambda: res.Lambda}, nil
	}

	if s.Alpha < 0 {
		return nil, errors.WithHint(
			errors.Wrapf(errors.ErrInvalidParameter, "elastic net alpha %g", s.Alpha),
			"set a non-negative alpha or enable cross validation")
	}
	settings.Lambda = r.regularization(s.Alpha)
	res, err := solve.ElasticNet(ctx, a, r.measurements(), settings)
	if err != nil {
		return nil, err
	}
	return &solution{Result: res, lambda: settings.Lambda}, nil
}

// LSQR is matrix-free damped least squares on the forward operator. A
// negative Damp selects the mean baseline noise.
type LSQR struct {
	Damp    float64
	MaxIter int
	ATol    float64
	BTol    float64
	ConLim  float64
}

func (LSQR) Name() string { return "lsqr" }

func (s LSQR) solve(ctx context.Context, r *run) (*solution, error) {
	damp := s.Damp
	if damp < 0 {
		damp = r.engine.problem.MeanRMS()
	}
	res, err := solve.LSQR(ctx, r.forward, r.measurements(), solve.LSQRSettings{
		Damp:    damp,
		ATol:    s.ATol,
		BTol:    s.BTol,
		ConLim:  s.ConLim,
		MaxIter: s.MaxIter,
	})
	if err != nil {
		return nil, err
	}
	return &solution{Result: res, lambda: damp * damp}, nil
}

// FISTA is matrix-free L1 regularized least squares. A negative Alpha
// selects 10^(2 - log10(n_vis)).
type FISTA struct {
	Alpha   float64
	MaxIter int
	Tol     float64
}

func (FISTA) Name() string { return "fista" }

func (s FISTA) solve(ctx context.Context, r *run) (*solution, error) {
	alpha := s.Alpha
	if alpha < 0 {
		alpha = math.Pow(10, 2-math.Log10(float64(r.engine.problem.Baselines.Len())))
	}
	res, err := solve.FISTA(ctx, r.forward, r.measurements(), solve.FISTASettings{
		Alpha:   alpha,
		MaxIter: s.MaxIter,
		Tol:     s.Tol,
	})
	if err != nil {
		return nil, err
	}
	return &solution{Result: res, lambda: alpha}, nil
}

// NormalEquations solves (AᵀA + εI)x = Aᵀy by conjugate gradients started
// from the dirty image. A negative Epsilon selects the mean baseline noise.
type NormalEquations struct {
	Epsilon float64
	MaxIter int
	Tol     float64
}

func (NormalEquations) Name() string { return "normal" }

func (s NormalEquations) solve(ctx context.Context, r *run) (*solution, error) {
	epsilon := s.Epsilon
	if epsilon < 0 {
		epsilon = r.engine.problem.MeanRMS()
	}
	x0, err := r.initialGuess()
	if err != nil {
		return nil, err
	}
	res, err := solve.NormalEquations(ctx, r.forward, r.measurements(), solve.NormalSettings{
		Epsilon: epsilon,
		MaxIter: s.MaxIter,
		Tol:     s.Tol,
		X0:      x0,
	})
	if err != nil {
		return nil, err
	}
	return &solution{Result: res, lambda: epsilon}, nil
}

// initialGuess returns the dirty image d = Aᵀy scaled by ‖d‖²/‖Ad‖², the
// least squares optimum along d.
func (r *run) initialGuess() ([]float64, error) {
	dirty, err := r.engine.DirtyImage()
	if err != nil {
		return nil, err
	}
	m, _ := r.forward.Dims()
	ad := make([]float64, m)
	r.forward.Apply(ad, dirty)
	denom := floats.Dot(ad, ad)
	if denom == 0 {
		return make([]float64, len(dirty)), nil
	}
	floats.Scale(floats.Dot(dirty, dirty)/denom, dirty)
	return dirty, nil
}

// Parameters are strategy settings as they come from configuration. A
// negative Alpha asks for the strategy's default, zero MaxIter and Tol
// select the solver defaults.
type Parameters struct {
	Alpha         float64
	L1Ratio       float64
	Tol           float64
	MaxIter       int
	CrossValidate bool
	Folds         int
}

// Strategies lists the strategy names accepted by NewStrategy.
var Strategies = []string{"lstsq", "ridge", "lasso", "lsqr", "fista", "normal"}

// NewStrategy returns the strategy called name.
func NewStrategy(name string, p Parameters) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "lstsq", "direct":
		return DirectLeastSquares{}, nil
	case "ridge", "tikhonov":
		return Ridge{Alpha: p.Alpha, Tol: p.Tol, MaxIter: p.MaxIter}, nil
	case "lasso", "elasticnet":
		return ElasticNet{
			Alpha:         p.Alpha,
			L1Ratio:       p.L1Ratio,
			Tol:           p.Tol,
			MaxIter:       p.MaxIter,
			CrossValidate: p.CrossValidate,
			Folds:         p.Folds,
		}, nil
	case "lsqr":
		return LSQR{Damp: p.Alpha, MaxIter: p.MaxIter, ATol: p.Tol, BTol: p.Tol}, nil
	case "fista":
		return FISTA{Alpha: p.Alpha, MaxIter: p.MaxIter, Tol: p.Tol}, nil
	case "normal":
		return NormalEquations{Epsilon: p.Alpha, MaxIter: p.MaxIter, Tol: p.Tol}, nil
	}
	return nil, errors.WithHintf(
		errors.Wrapf(errors.ErrInvalidParameter, "unknown strategy %q", name),
		"choose one of %s", strings.Join(Strategies, ", "))
}
