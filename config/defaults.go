package config

import (
	"runtime"

	"github.com/spf13/viper"
)

// SetDefaults sets every configuration key to its default value.
func SetDefaults(v *viper.Viper) {
	// Sky discretization: a disc of diameter fov around the zenith. A
	// positive nside overrides res.
	v.SetDefault("sphere.nside", 0)
	v.SetDefault("sphere.fov", "180deg")
	v.SetDefault("sphere.res", "2deg")

	// Solver. A negative alpha selects the strategy's own default.
	v.SetDefault("solver.strategy", "lsqr")
	v.SetDefault("solver.alpha", -1.0)
	v.SetDefault("solver.l1_ratio", 0.02)
	v.SetDefault("solver.max_iter", 0)
	v.SetDefault("solver.tol", 0.0)
	v.SetDefault("solver.cross_validate", false)
	v.SetDefault("solver.folds", 5)
	v.SetDefault("solver.workers", runtime.NumCPU())
	v.SetDefault("solver.timeout", "0s")

	// Output
	v.SetDefault("output.scale", false)
	v.SetDefault("output.csv", "sky.csv")
	v.SetDefault("output.image", "")
	v.SetDefault("output.title", "")

	// Simulation
	v.SetDefault("simulate.noise", 0.0)
	v.SetDefault("simulate.seed", 1)

	// Logging
	v.SetDefault("log.json", false)
	v.SetDefault("log.level", "info")
}
