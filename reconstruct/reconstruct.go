// Package reconstruct turns visibilities into a sky image. An Engine holds
// one observation and one sky discretization and runs any Strategy against
// them, followed by the residual outlier check.
package reconstruct

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hammal/gridless/errors"
	"github.com/hammal/gridless/logger"
	"github.com/hammal/gridless/observation"
	"github.com/hammal/gridless/operator"
	"github.com/hammal/gridless/solve"
	"gonum.org/v1/gonum/floats"
)

// Sphere is the sky discretization the engine reads pixel geometry from and
// writes the recovered amplitudes to.
type Sphere interface {
	operator.Geometry
	SetVisiblePixels(values []float64, scale bool)
}

// Problem is the numeric content of an observation.
type Problem struct {
	Baselines   operator.Baselines
	Frequencies []float64
	// Data has shape [2*n_vis][n_freq][n_pol].
	Data operator.Data
	// RMS is the noise estimate per baseline, shared by all frequencies.
	RMS []float64
	// Indices are the baseline indices reported in outlier records.
	Indices []int
	// Polarization selects the data column that is imaged.
	Polarization int
}

// FromObservation returns the problem of a single frequency observation.
func FromObservation(obs *observation.Observation) Problem {
	return Problem{
		Baselines:   obs.Baselines,
		Frequencies: obs.Frequencies(),
		Data:        obs.ToData(),
		RMS:         obs.RMS,
		Indices:     obs.Indices,
	}
}

// MeanRMS returns the mean noise estimate, zero when unknown.
func (p Problem) MeanRMS() float64 {
	if len(p.RMS) == 0 {
		return 0
	}
	return floats.Sum(p.RMS) / float64(len(p.RMS))
}

type options struct {
	sink    logger.Sink
	scale   bool
	workers int
}

// Option configures an Engine.
type Option func(*options)

// WithSink routes diagnostics, including outlier records, to sink.
func WithSink(sink logger.Sink) Option {
	return func(o *options) {
		o.sink = sink
	}
}

// WithScale makes the engine scale the image when writing it to the sphere.
func WithScale(scale bool) Option {
	return func(o *options) {
		o.scale = scale
	}
}

// WithWorkers sets the fan-out of every operator application.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// Engine runs reconstructions of one problem on one sphere.
type Engine struct {
	problem      Problem
	sphere       Sphere
	measurements []float64
	opts         options
}

// New validates the problem against the sphere and returns an engine.
func New(problem Problem, sphere Sphere, opts ...Option) (*Engine, error) {
	o := options{sink: logger.NopSink(), workers: 1}
	for _, opt := range opts {
		opt(&o)
	}
	if o.sink == nil {
		o.sink = logger.NopSink()
	}

	// the operator performs the shape validation
	if _, err := operator.NewForward(problem.Baselines, problem.Frequencies, problem.Data, sphere); err != nil {
		return nil, err
	}
	_, _, nPol, _ := problem.Data.Shape()
	if problem.Polarization < 0 || problem.Polarization >= nPol {
		return nil, errors.Wrapf(errors.ErrInvalidParameter, "polarization %d of %d", problem.Polarization, nPol)
	}
	nVis := problem.Baselines.Len()
	if len(problem.RMS) != 0 && len(problem.RMS) != nVis {
		return nil, errors.Wrapf(errors.ErrShapeMismatch, "%d rms values for %d baselines", len(problem.RMS), nVis)
	}
	if problem.Indices == nil {
		problem.Indices = make([]int, nVis)
		for index := range problem.Indices {
			problem.Indices[index] = index
		}
	}
	if len(problem.Indices) != nVis {
		return nil, errors.Wrapf(errors.ErrShapeMismatch, "%d indices for %d baselines", len(problem.Indices), nVis)
	}

	return &Engine{
		problem:      problem,
		sphere:       sphere,
		measurements: problem.Data.Measurements(problem.Polarization),
		opts:         o,
	}, nil
}

// Measurements returns the measurement vector being imaged.
func (e *Engine) Measurements() []float64 {
	return e.measurements
}

func (e *Engine) forward() (*operator.Forward, error) {
	return operator.NewForward(e.problem.Baselines, e.problem.Frequencies, e.problem.Data, e.sphere,
		operator.WithWorkers(e.opts.workers))
}

// Result is the outcome of a reconstruction.
type Result struct {
	Sky          []float64
	Strategy     string
	Stop         solve.StopReason
	Iterations   int
	ResidualNorm float64
	SolutionNorm float64
	// Lambda is the effective regularization weight, zero when unregularized.
	Lambda   float64
	Outliers []Outlier
	RunID    uuid.UUID
	Elapsed  time.Duration
}

// Reconstruct runs strategy, checks the residual for outliers and writes the
// sky to the sphere. Convergence trouble is reported in Result.Stop, errors
// are reserved for invalid input.
func (e *Engine) Reconstruct(ctx context.Context, strategy Strategy) (*Result, error) {
	if strategy == nil {
		return nil, errors.Wrap(errors.ErrInvalidParameter, "no strategy")
	}
	runID := uuid.New()
	start := time.Now()

	forward, err := e.forward()
	if err != nil {
		return nil, err
	}
	sol, err := strategy.solve(ctx, &run{engine: e, forward: forward})
	if err != nil {
		solveFailures.WithLabelValues(strategy.Name()).Inc()
		return nil, errors.Wrapf(err, "%s solve", strategy.Name())
	}

	res := &Result{
		Sky:          sol.X,
		Strategy:     strategy.Name(),
		Stop:         sol.Stop,
		Iterations:   sol.Iterations,
		ResidualNorm: sol.ResidualNorm,
		SolutionNorm: sol.SolutionNorm,
		Lambda:       sol.lambda,
		RunID:        runID,
	}
	res.Outliers = e.outliers(forward, res.Sky, runID)
	e.sphere.SetVisiblePixels(res.Sky, e.opts.scale)
	res.Elapsed = time.Since(start)

	observeSolve(res)
	e.opts.sink.Infow("reconstruction finished",
		logger.FieldRunID, runID.String(),
		logger.FieldStrategy, res.Strategy,
		logger.FieldStop, res.Stop.String(),
		logger.FieldIterations, res.Iterations,
		logger.FieldResidual, res.ResidualNorm,
		logger.FieldSolution, res.SolutionNorm,
		logger.FieldLambda, res.Lambda,
		logger.FieldDurationMS, res.Elapsed.Milliseconds(),
		"outliers", len(res.Outliers),
	)
	return res, nil
}

// DirtyImage back-projects the measurements without solving.
func (e *Engine) DirtyImage() ([]float64, error) {
	bp, err := operator.NewBackProjector(e.problem.Baselines, e.problem.Frequencies, e.sphere,
		operator.WithWorkers(e.opts.workers))
	if err != nil {
		return nil, err
	}
	n, _ := bp.Dims()
	res := make([]float64, n)
	bp.Apply(res, e.measurements)
	return res, nil
}
