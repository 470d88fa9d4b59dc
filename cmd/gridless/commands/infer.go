package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// InferCmd computes the posterior belief over the sky.
var InferCmd = &cobra.Command{
	Use:   "infer <observation>",
	Short: "Compute the Bayesian posterior of the sky",
	Long: `Condition an independent Gaussian prior on the visibilities.

The prior mean is the median visibility amplitude, the prior variance the
square of its 95th percentile. The noise covariance pairs the real and the
imaginary part of each baseline with correlation one half. The posterior mean
is written as the pixel value, the posterior standard deviation as the std
column of the CSV output. The observation must carry rms values.`,
	Args: cobra.ExactArgs(1),
	RunE: runInfer,
}

func init() {
	addSphereFlags(InferCmd)
	addOutputFlags(InferCmd)
}

func runInfer(cmd *cobra.Command, args []string) error {
	sphere, engine, err := prepare(args[0])
	if err != nil {
		return err
	}
	ctx, cancel := runContext(cmd)
	defer cancel()

	posterior, err := engine.Infer(ctx)
	if err != nil {
		return err
	}
	std, err := posterior.StdDev()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "posterior over %d pixels\n", posterior.Dim())
	return writeOutputs(sphere, std)
}
