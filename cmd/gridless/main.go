package main

import (
	"fmt"
	"os"

	"github.com/hammal/gridless/cmd/gridless/commands"
	"github.com/hammal/gridless/errors"
	"github.com/hammal/gridless/logger"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "gridless",
	Short: "Gridless interferometric sky imaging",
	Long: `gridless reconstructs a sky image from interferometric visibilities
without gridding, by inverting the measurement operator directly.

Available commands:
  image    - Back-project the visibilities into a dirty image
  solve    - Reconstruct the sky with a regularized inversion strategy
  infer    - Compute the Bayesian posterior of the sky
  simulate - Write a synthetic observation of point sources

Configuration sources (in order of precedence):
  1. Command line flags
  2. Environment variables (GRIDLESS_* prefix, e.g. GRIDLESS_SOLVER_ALPHA)
  3. The file given by --config, or ./gridless.toml, or ~/.gridless/gridless.toml
  4. Default values

Examples:
  gridless image obs.yaml --res 1deg --image dirty.png
  gridless solve obs.yaml --strategy lasso --alpha 0.01 --l1-ratio 0.5
  gridless simulate layout.yaml --source 80,30,1 --noise 0.05 --out obs.yaml`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: commands.Setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&commands.ConfigPath, "config", "", "configuration file (TOML)")
	rootCmd.PersistentFlags().Bool("json-log", false, "log JSON records instead of console output")
	rootCmd.PersistentFlags().CountP("verbose", "v", "increase log verbosity")

	rootCmd.AddCommand(commands.ImageCmd)
	rootCmd.AddCommand(commands.SolveCmd)
	rootCmd.AddCommand(commands.InferCmd)
	rootCmd.AddCommand(commands.SimulateCmd)
}

func main() {
	err := rootCmd.Execute()
	logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if hint := errors.FlattenHints(err); hint != "" {
			fmt.Fprintf(os.Stderr, "hint: %s\n", hint)
		}
		os.Exit(1)
	}
}
