// Package simulate produces synthetic visibilities for a sky of point
// sources. The sky is discretized on a grid, pushed through the forward
// operator and perturbed with Gaussian noise, so the result can be fed back
// into any reconstruction strategy.
package simulate

import (
	"math/rand/v2"
	"strconv"

	"github.com/hammal/gridless/errors"
	"github.com/hammal/gridless/logger"
	"github.com/hammal/gridless/observation"
	"github.com/hammal/gridless/operator"
	"gonum.org/v1/gonum/stat/distuv"
)

// Grid is a sky discretization that can locate the pixel closest to a
// direction.
type Grid interface {
	operator.Geometry
	Nearest(el, az float64) int
}

// Source is a point source. El and Az are in radians, Flux is the
// visibility amplitude it contributes on every baseline.
type Source struct {
	El   float64 `yaml:"el"`
	Az   float64 `yaml:"az"`
	Flux float64 `yaml:"flux"`
}

// Settings configures Simulate.
type Settings struct {
	Sources []Source
	// Noise is the standard deviation of the real and the imaginary part of
	// every visibility.
	Noise   float64
	Seed    uint64
	Workers int
}

// SkyModel places each source into its nearest pixel as a brightness, flux
// divided by the pixel solid angle. Sources sharing a pixel add up.
func SkyModel(grid Grid, sources []Source) ([]float64, error) {
	res := make([]float64, grid.NPix())
	areas := grid.PixelAreas()
	for index, src := range sources {
		pixel := grid.Nearest(src.El, src.Az)
		if pixel < 0 || pixel >= len(res) {
			return nil, errors.Wrapf(errors.ErrInvalidParameter, "source %d (el=%g az=%g) is outside the grid", index, src.El, src.Az)
		}
		res[pixel] += src.Flux / areas[pixel]
	}
	return res, nil
}

// Simulate returns a copy of obs whose visibilities are those of the
// sources observed through the forward operator plus noise.
func Simulate(obs *observation.Observation, grid Grid, settings Settings) (*observation.Observation, error) {
	if settings.Noise < 0 {
		return nil, errors.Wrapf(errors.ErrInvalidParameter, "noise %g", settings.Noise)
	}
	if len(settings.Sources) == 0 {
		return nil, errors.WithHint(
			errors.Wrap(errors.ErrInvalidParameter, "no sources to simulate"),
			"add at least one source to the sky model")
	}
	x, err := SkyModel(grid, settings.Sources)
	if err != nil {
		return nil, err
	}

	n := obs.NVis()
	op, err := operator.NewForward(obs.Baselines, obs.Frequencies(),
		operator.NewData(make([]float64, 2*n)), grid, operator.WithWorkers(settings.Workers))
	if err != nil {
		return nil, err
	}
	y := make([]float64, 2*n)
	op.Apply(y, x)

	rms := make([]float64, n)
	if settings.Noise > 0 {
		noise := distuv.Normal{Mu: 0, Sigma: settings.Noise, Src: rand.NewPCG(settings.Seed, settings.Seed^0x9e3779b97f4a7c15)}
		for index := range y {
			y[index] += noise.Rand()
		}
		for index := range rms {
			rms[index] = settings.Noise
		}
	}

	res, err := observation.New(obs.Frequency, obs.Baselines, observation.RealToVis(y), rms, obs.Indices)
	if err != nil {
		return nil, err
	}
	res.Pairs = obs.Pairs
	res.Info = map[string]string{
		"simulated": "true",
		"sources":   strconv.Itoa(len(settings.Sources)),
		"noise":     strconv.FormatFloat(settings.Noise, 'g', -1, 64),
		"seed":      strconv.FormatUint(settings.Seed, 10),
	}

	logger.ComponentLogger("simulate").Infow("simulated observation",
		logger.FieldNVis, n,
		logger.FieldNPix, grid.NPix(),
		"sources", len(settings.Sources),
		"noise", settings.Noise,
	)
	return res, nil
}
