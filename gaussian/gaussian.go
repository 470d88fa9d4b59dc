// Package gaussian represents a multivariate Gaussian belief and its exact
// updates under linear-Gaussian models.
//
// A Gaussian is immutable. It is built from a covariance, a precision or
// both; the missing representation is computed on first use and cached.
package gaussian

import (
	"math"
	"math/rand/v2"
	"sync"

	"github.com/hammal/gridless/errors"
	"github.com/hammal/gridless/gonumExtensions"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Gaussian is a belief N(mean, covariance) over a D dimensional vector.
type Gaussian struct {
	mean *mat.VecDense
	// At least one of cov and prec is set at construction and never
	// written afterwards.
	cov  *mat.SymDense
	prec *mat.SymDense

	covOnce  sync.Once
	covCache *mat.SymDense
	covErr   error

	precOnce  sync.Once
	precCache *mat.SymDense
	precErr   error

	cholOnce sync.Once
	lower    *mat.TriDense
	cholErr  error
}

// New returns a Gaussian with the given mean and covariance and/or
// precision. Either representation may be nil, not both. The inputs are
// copied.
func New(mean mat.Vector, covariance, precision mat.Symmetric) (*Gaussian, error) {
	if mean == nil {
		return nil, errors.Wrap(errors.ErrDimensionMismatch, "mean is nil")
	}
	if covariance == nil && precision == nil {
		return nil, errors.WithHint(errors.ErrMissingRepresentation,
			"supply a covariance, a precision or both")
	}
	d := mean.Len()
	g := &Gaussian{mean: mat.VecDenseCopyOf(mean)}
	if covariance != nil {
		if n := covariance.SymmetricDim(); n != d {
			return nil, errors.Wrapf(errors.ErrDimensionMismatch, "covariance is %d×%d, mean has length %d", n, n, d)
		}
		g.cov = copySym(covariance)
	}
	if precision != nil {
		if n := precision.SymmetricDim(); n != d {
			return nil, errors.Wrapf(errors.ErrDimensionMismatch, "precision is %d×%d, mean has length %d", n, n, d)
		}
		g.prec = copySym(precision)
	}
	return g, nil
}

// NewWithCovariance returns N(mean, covariance).
func NewWithCovariance(mean mat.Vector, covariance mat.Symmetric) (*Gaussian, error) {
	if covariance == nil {
		return nil, errors.ErrMissingRepresentation
	}
	return New(mean, covariance, nil)
}

// NewWithPrecision returns N(mean, precision⁻¹).
func NewWithPrecision(mean mat.Vector, precision mat.Symmetric) (*Gaussian, error) {
	if precision == nil {
		return nil, errors.ErrMissingRepresentation
	}
	return New(mean, nil, precision)
}

func copySym(a mat.Symmetric) *mat.SymDense {
	res := mat.NewSymDense(a.SymmetricDim(), nil)
	res.CopySym(a)
	return res
}

// Dim returns the dimension D.
func (g *Gaussian) Dim() int {
	return g.mean.Len()
}

// Mean returns a copy of the mean.
func (g *Gaussian) Mean() *mat.VecDense {
	return mat.VecDenseCopyOf(g.mean)
}

// invert returns the inverse of a symmetric positive definite matrix.
func invert(a *mat.SymDense) (*mat.SymDense, error) {
	var chol mat.Cholesky
	if ok := chol.Factorize(a); !ok {
		return nil, errors.WithStack(errors.ErrNotPositiveDefinite)
	}
	var res mat.SymDense
	if err := chol.InverseTo(&res); err != nil {
		return nil, errors.Wrap(errors.ErrNotPositiveDefinite, err.Error())
	}
	return &res, nil
}

func (g *Gaussian) covariance() (*mat.SymDense, error) {
	if g.cov != nil {
		return g.cov, nil
	}
	g.covOnce.Do(func() {
		g.covCache, g.covErr = invert(g.prec)
	})
	return g.covCache, g.covErr
}

func (g *Gaussian) precision() (*mat.SymDense, error) {
	if g.prec != nil {
		return g.prec, nil
	}
	g.precOnce.Do(func() {
		g.precCache, g.precErr = invert(g.cov)
	})
	return g.precCache, g.precErr
}

// cholesky returns the lower Cholesky factor L of the covariance, Σ = L L^T.
func (g *Gaussian) cholesky() (*mat.TriDense, error) {
	g.cholOnce.Do(func() {
		cov, err := g.covariance()
		if err != nil {
			g.cholErr = err
			return
		}
		var chol mat.Cholesky
		if ok := chol.Factorize(cov); !ok {
			g.cholErr = errors.WithStack(errors.ErrNotPositiveDefinite)
			return
		}
		var lower mat.TriDense
		chol.LTo(&lower)
		g.lower = &lower
	})
	return g.lower, g.cholErr
}

// Covariance returns a copy of the covariance, inverting the precision on
// first use.
func (g *Gaussian) Covariance() (*mat.SymDense, error) {
	cov, err := g.covariance()
	if err != nil {
		return nil, err
	}
	return copySym(cov), nil
}

// Precision returns a copy of the precision, inverting the covariance on
// first use.
func (g *Gaussian) Precision() (*mat.SymDense, error) {
	prec, err := g.precision()
	if err != nil {
		return nil, err
	}
	return copySym(prec), nil
}

// StdDev returns the marginal standard deviations, the square roots of the
// covariance diagonal.
func (g *Gaussian) StdDev() ([]float64, error) {
	cov, err := g.covariance()
	if err != nil {
		return nil, err
	}
	res := make([]float64, g.Dim())
	for index := range res {
		res[index] = math.Sqrt(cov.At(index, index))
	}
	return res, nil
}

// BayesUpdate conditions the belief on y = A x + e, e ~ N(0, noisePrecision⁻¹).
//
//	Λ' = Λ + A^T N A
//	μ' = Λ'⁻¹ (Λ μ + A^T N y)
func (g *Gaussian) BayesUpdate(noisePrecision mat.Symmetric, y mat.Vector, a mat.Matrix) (*Gaussian, error) {
	rows, cols := a.Dims()
	if cols != g.Dim() {
		return nil, errors.Wrapf(errors.ErrDimensionMismatch, "design matrix has %d columns, belief has dimension %d", cols, g.Dim())
	}
	if rows != y.Len() {
		return nil, errors.Wrapf(errors.ErrDimensionMismatch, "design matrix has %d rows, measurement has length %d", rows, y.Len())
	}
	if noisePrecision.SymmetricDim() != rows {
		return nil, errors.Wrapf(errors.ErrDimensionMismatch, "noise precision is %d×%d, expected %d×%d",
			noisePrecision.SymmetricDim(), noisePrecision.SymmetricDim(), rows, rows)
	}
	prior, err := g.precision()
	if err != nil {
		return nil, err
	}

	// tmp = N A
	var tmp mat.Dense
	tmp.Mul(noisePrecision, a)
	// information = A^T N A
	var information mat.Dense
	information.Mul(a.T(), &tmp)
	postPrec := gonumExtensions.Symmetrize(&information)
	postPrec.AddSym(postPrec, prior)

	postCov, err := invert(postPrec)
	if err != nil {
		return nil, err
	}

	// eta = Λ μ + A^T N y
	var eta, ny mat.VecDense
	eta.MulVec(prior, g.mean)
	ny.MulVec(noisePrecision, y)
	var aty mat.VecDense
	aty.MulVec(a.T(), &ny)
	eta.AddVec(&eta, &aty)

	var mean mat.VecDense
	mean.MulVec(postCov, &eta)

	return &Gaussian{mean: &mean, cov: postCov, prec: postPrec}, nil
}

// LinearTransform returns the belief over y = A x + b, N(A μ + b, A Σ A^T).
// A nil b is zero.
func (g *Gaussian) LinearTransform(a mat.Matrix, b mat.Vector) (*Gaussian, error) {
	rows, cols := a.Dims()
	if cols != g.Dim() {
		return nil, errors.Wrapf(errors.ErrDimensionMismatch, "transform has %d columns, belief has dimension %d", cols, g.Dim())
	}
	if b != nil && b.Len() != rows {
		return nil, errors.Wrapf(errors.ErrDimensionMismatch, "offset has length %d, transform has %d rows", b.Len(), rows)
	}
	cov, err := g.covariance()
	if err != nil {
		return nil, err
	}

	var mean mat.VecDense
	mean.MulVec(a, g.mean)
	if b != nil {
		mean.AddVec(&mean, b)
	}

	// A Σ A^T
	var tmp, prop mat.Dense
	tmp.Mul(a, cov)
	prop.Mul(&tmp, a.T())

	return &Gaussian{mean: &mean, cov: gonumExtensions.Symmetrize(&prop)}, nil
}

// Block returns the marginal belief over the indices [start, stop).
func (g *Gaussian) Block(start, stop int) (*Gaussian, error) {
	if start < 0 || stop > g.Dim() || start >= stop {
		return nil, errors.Wrapf(errors.ErrDimensionMismatch, "block [%d, %d) of a %d dimensional belief", start, stop, g.Dim())
	}
	cov, err := g.covariance()
	if err != nil {
		return nil, err
	}
	mean := mat.VecDenseCopyOf(g.mean.SliceVec(start, stop))
	return &Gaussian{mean: mean, cov: copySym(cov.SliceSym(start, stop))}, nil
}

// Outer returns the joint belief of two independent beliefs, with zero
// cross covariance.
func Outer(a, b *Gaussian) (*Gaussian, error) {
	covA, err := a.covariance()
	if err != nil {
		return nil, err
	}
	covB, err := b.covariance()
	if err != nil {
		return nil, err
	}
	return &Gaussian{
		mean: gonumExtensions.ConcatVec(a.mean, b.mean),
		cov:  gonumExtensions.BlockDiag(covA, covB),
	}, nil
}

// Sample draws μ + L z with z standard normal from src.
func (g *Gaussian) Sample(src rand.Source) (*mat.VecDense, error) {
	lower, err := g.cholesky()
	if err != nil {
		return nil, err
	}
	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: src}
	z := mat.NewVecDense(g.Dim(), nil)
	for index := 0; index < g.Dim(); index++ {
		z.SetVec(index, normal.Rand())
	}
	res := mat.NewVecDense(g.Dim(), nil)
	res.MulVec(lower, z)
	res.AddVec(res, g.mean)
	return res, nil
}
