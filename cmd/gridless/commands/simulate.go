package commands

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"github.com/hammal/gridless/errors"
	"github.com/hammal/gridless/observation"
	"github.com/hammal/gridless/simulate"
	"github.com/hammal/gridless/sky"
	"github.com/spf13/cobra"
)

// SimulateCmd writes a synthetic observation of point sources.
var SimulateCmd = &cobra.Command{
	Use:   "simulate <layout>",
	Short: "Write a synthetic observation of point sources",
	Long: `Read the antenna positions or baselines of an observation file and
replace its visibilities by those of the given point sources, each placed
at its nearest pixel, plus Gaussian noise.

Sources are given as el,az,flux with angles in degrees.`,
	Args: cobra.ExactArgs(1),
	RunE: runSimulate,
}

var (
	simulateSources []string
	simulateOut     string
)

func init() {
	SimulateCmd.Flags().StringArrayVar(&simulateSources, "source", nil, "point source el,az,flux (repeatable)")
	SimulateCmd.Flags().StringVarP(&simulateOut, "out", "o", "simulated.yaml", "output observation file")
	SimulateCmd.Flags().Float64("noise", 0, "noise standard deviation of each visibility component")
	SimulateCmd.Flags().Uint64("seed", 1, "noise seed")
	addSphereFlags(SimulateCmd)
	SimulateCmd.Flags().Int("workers", runtime.NumCPU(), "goroutines per operator application")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	sources := make([]simulate.Source, 0, len(simulateSources))
	for _, s := range simulateSources {
		src, err := parseSource(s)
		if err != nil {
			return err
		}
		sources = append(sources, src)
	}

	layout, err := observation.Load(args[0])
	if err != nil {
		return err
	}
	sphere, err := cfg.Sphere()
	if err != nil {
		return err
	}
	obs, err := simulate.Simulate(layout, sphere, simulate.Settings{
		Sources: sources,
		Noise:   cfg.Simulate.Noise,
		Seed:    cfg.Simulate.Seed,
		Workers: cfg.Solver.Workers,
	})
	if err != nil {
		return err
	}
	if err := obs.Save(simulateOut); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d visibilities of %d sources to %s\n", obs.NVis(), len(sources), simulateOut)
	return nil
}

// parseSource parses "el,az,flux" with angles in degrees.
func parseSource(s string) (simulate.Source, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return simulate.Source{}, errors.WithHint(
			errors.Wrapf(errors.ErrInvalidParameter, "source %q", s),
			"sources are written el,az,flux with angles in degrees")
	}
	values := make([]float64, 3)
	for index, part := range parts {
		value, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return simulate.Source{}, errors.Wrapf(errors.ErrInvalidParameter, "source %q: %v", s, err)
		}
		values[index] = value
	}
	return simulate.Source{
		El:   sky.FromDegrees(values[0]).Radians(),
		Az:   sky.FromDegrees(values[1]).Radians(),
		Flux: values[2],
	}, nil
}
