// Package config loads the gridless configuration with viper. Values come,
// from lowest to highest precedence, from the defaults, a TOML file
// (gridless.toml in . or $HOME/.gridless, or an explicit path), GRIDLESS_
// environment variables and command line flags bound by the caller.
package config

import (
	"strings"
	"time"

	"github.com/hammal/gridless/errors"
	"github.com/hammal/gridless/reconstruct"
	"github.com/hammal/gridless/sky"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. GRIDLESS_SOLVER_ALPHA.
const EnvPrefix = "GRIDLESS"

// Config is the complete configuration.
type Config struct {
	Sphere   SphereConfig   `mapstructure:"sphere"`
	Solver   SolverConfig   `mapstructure:"solver"`
	Output   OutputConfig   `mapstructure:"output"`
	Simulate SimulateConfig `mapstructure:"simulate"`
	Log      LogConfig      `mapstructure:"log"`
}

// SphereConfig describes the sky discretization.
type SphereConfig struct {
	NSide int    `mapstructure:"nside"`
	FOV   string `mapstructure:"fov"`
	Res   string `mapstructure:"res"`
}

// SolverConfig selects and tunes the reconstruction strategy.
type SolverConfig struct {
	Strategy      string        `mapstructure:"strategy"`
	Alpha         float64       `mapstructure:"alpha"`
	L1Ratio       float64       `mapstructure:"l1_ratio"`
	MaxIter       int           `mapstructure:"max_iter"`
	Tol           float64       `mapstructure:"tol"`
	CrossValidate bool          `mapstructure:"cross_validate"`
	Folds         int           `mapstructure:"folds"`
	Workers       int           `mapstructure:"workers"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

// OutputConfig controls what is written after a run.
type OutputConfig struct {
	Scale bool   `mapstructure:"scale"`
	CSV   string `mapstructure:"csv"`
	Image string `mapstructure:"image"`
	Title string `mapstructure:"title"`
}

// SimulateConfig configures synthetic observations.
type SimulateConfig struct {
	Noise float64 `mapstructure:"noise"`
	Seed  uint64  `mapstructure:"seed"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	JSON  bool   `mapstructure:"json"`
	Level string `mapstructure:"level"`
}

// New returns a viper instance with defaults, environment binding and the
// configuration file loaded. An empty path searches for gridless.toml and
// tolerates its absence; an explicit path must exist.
func New(path string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
		return v, nil
	}

	v.SetConfigName("gridless")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.gridless")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "read config")
		}
	}
	return v, nil
}

// Decode unmarshals and validates the configuration held by v.
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load is New followed by Decode.
func Load(path string) (*Config, error) {
	v, err := New(path)
	if err != nil {
		return nil, err
	}
	return Decode(v)
}

// Validate checks the values that can be checked without data.
func (c *Config) Validate() error {
	if _, err := reconstruct.NewStrategy(c.Solver.Strategy, c.Parameters()); err != nil {
		return err
	}
	if c.Solver.L1Ratio < 0 || c.Solver.L1Ratio > 1 {
		return errors.Wrapf(errors.ErrInvalidParameter, "solver.l1_ratio %g", c.Solver.L1Ratio)
	}
	if c.Solver.Timeout < 0 {
		return errors.Wrapf(errors.ErrInvalidParameter, "solver.timeout %s", c.Solver.Timeout)
	}
	if c.Sphere.NSide < 0 {
		return errors.Wrapf(errors.ErrInvalidParameter, "sphere.nside %d", c.Sphere.NSide)
	}
	if _, err := sky.ParseResolution(c.Sphere.FOV); err != nil {
		return errors.Wrap(err, "sphere.fov")
	}
	if c.Sphere.NSide == 0 {
		if _, err := sky.ParseResolution(c.Sphere.Res); err != nil {
			return errors.Wrap(err, "sphere.res")
		}
	}
	return nil
}

// Parameters returns the strategy parameters of the solver section.
func (c *Config) Parameters() reconstruct.Parameters {
	return reconstruct.Parameters{
		Alpha:         c.Solver.Alpha,
		L1Ratio:       c.Solver.L1Ratio,
		Tol:           c.Solver.Tol,
		MaxIter:       c.Solver.MaxIter,
		CrossValidate: c.Solver.CrossValidate,
		Folds:         c.Solver.Folds,
	}
}

// Strategy returns the configured reconstruction strategy.
func (c *Config) Strategy() (reconstruct.Strategy, error) {
	return reconstruct.NewStrategy(c.Solver.Strategy, c.Parameters())
}

// Sphere builds the configured disc around the zenith.
func (c *Config) Sphere() (*sky.Healpix, error) {
	fov, err := sky.ParseResolution(c.Sphere.FOV)
	if err != nil {
		return nil, errors.Wrap(err, "sphere.fov")
	}
	radius := fov.Radians() / 2
	if c.Sphere.NSide > 0 {
		return sky.NewSubSphere(c.Sphere.NSide, 0, 0, radius)
	}
	res, err := sky.ParseResolution(c.Sphere.Res)
	if err != nil {
		return nil, errors.Wrap(err, "sphere.res")
	}
	return sky.NewSubSphereResolution(res, 0, 0, radius)
}
