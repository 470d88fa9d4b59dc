// Package commands holds the gridless subcommands.
package commands

import (
	"context"
	"os"
	"os/signal"
	"runtime"

	"github.com/hammal/gridless/config"
	"github.com/hammal/gridless/errors"
	"github.com/hammal/gridless/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// ConfigPath is the --config flag of the root command.
var ConfigPath string

// cfg is the configuration of the running command, set by Setup.
var cfg *config.Config

// flagKeys maps command line flags to configuration keys.
var flagKeys = map[string]string{
	"json-log": "log.json",
	"strategy": "solver.strategy",
	"alpha":    "solver.alpha",
	"l1-ratio": "solver.l1_ratio",
	"max-iter": "solver.max_iter",
	"tol":      "solver.tol",
	"cv":       "solver.cross_validate",
	"folds":    "solver.folds",
	"workers":  "solver.workers",
	"timeout":  "solver.timeout",
	"nside":    "sphere.nside",
	"fov":      "sphere.fov",
	"res":      "sphere.res",
	"scale":    "output.scale",
	"csv":      "output.csv",
	"image":    "output.image",
	"title":    "output.title",
	"noise":    "simulate.noise",
	"seed":     "simulate.seed",
}

// Setup loads the configuration with the command's flags bound on top and
// initializes the process logger.
func Setup(cmd *cobra.Command, _ []string) error {
	v, err := config.New(ConfigPath)
	if err != nil {
		return err
	}
	if err := bindFlags(v, cmd); err != nil {
		return err
	}
	cfg, err = config.Decode(v)
	if err != nil {
		return err
	}

	level := cfg.Log.Level
	if verbose, _ := cmd.Flags().GetCount("verbose"); verbose > 0 {
		level = "debug"
	}
	if err := logger.Initialize(cfg.Log.JSON, level); err != nil {
		return errors.Wrap(err, "initialize logger")
	}
	logger.ComponentLogger("cli").Debugw("configuration loaded",
		"config", v.ConfigFileUsed(),
		"strategy", cfg.Solver.Strategy,
		"workers", cfg.Solver.Workers,
	)
	return nil
}

func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	for name, key := range flagKeys {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return errors.Wrapf(err, "bind flag %s", name)
		}
	}
	return nil
}

// runContext returns a context cancelled on interrupt or after the
// configured solver timeout.
func runContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	if cfg.Solver.Timeout <= 0 {
		return ctx, stop
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.Solver.Timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

func addSphereFlags(cmd *cobra.Command) {
	cmd.Flags().Int("nside", 0, "HEALPix nside, overrides --res when positive")
	cmd.Flags().String("fov", "180deg", "diameter of the imaged disc around the zenith")
	cmd.Flags().String("res", "2deg", "pixel resolution, e.g. 30arcmin")
}

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("scale", false, "scale pixel values by the image median absolute deviation")
	cmd.Flags().String("csv", "sky.csv", "pixel value CSV output, empty to skip")
	cmd.Flags().String("image", "", "rendered image output (png, svg, pdf)")
	cmd.Flags().String("title", "", "title of the rendered image")
	cmd.Flags().Int("workers", runtime.NumCPU(), "goroutines per operator application")
}
