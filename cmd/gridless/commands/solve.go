package commands

import (
	"fmt"
	"strings"

	"github.com/hammal/gridless/reconstruct"
	"github.com/spf13/cobra"
)

// SolveCmd reconstructs the sky with one inversion strategy.
var SolveCmd = &cobra.Command{
	Use:   "solve <observation>",
	Short: "Reconstruct the sky with a regularized inversion strategy",
	Long: `Invert the measurement operator with the selected strategy:

  lstsq   direct least squares on the design matrix
  ridge   Tikhonov regularization, weight alpha/sqrt(npix)
  lasso   elastic net with non-negative pixels, weight alpha/sqrt(npix)
  lsqr    matrix-free damped least squares, damping alpha
  fista   matrix-free L1 regularization, weight alpha
  normal  matrix-free conjugate gradients on the normal equations

A negative alpha selects the strategy default where one exists. Measurements
whose residual exceeds ten standard deviations are reported as outliers.`,
	Args: cobra.ExactArgs(1),
	RunE: runSolve,
}

func init() {
	SolveCmd.Flags().String("strategy", "lsqr", "one of "+strings.Join(reconstruct.Strategies, ", "))
	SolveCmd.Flags().Float64("alpha", -1, "regularization parameter")
	SolveCmd.Flags().Float64("l1-ratio", 0.02, "elastic net L1 share in [0, 1]")
	SolveCmd.Flags().Int("max-iter", 0, "iteration limit, 0 for the solver default")
	SolveCmd.Flags().Float64("tol", 0, "convergence tolerance, 0 for the solver default")
	SolveCmd.Flags().Bool("cv", false, "pick the elastic net weight by cross validation")
	SolveCmd.Flags().Int("folds", 5, "cross validation folds")
	SolveCmd.Flags().Duration("timeout", 0, "stop iterating after this long")
	addSphereFlags(SolveCmd)
	addOutputFlags(SolveCmd)
}

func runSolve(cmd *cobra.Command, args []string) error {
	strategy, err := cfg.Strategy()
	if err != nil {
		return err
	}
	sphere, engine, err := prepare(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := runContext(cmd)
	defer cancel()
	res, err := engine.Reconstruct(ctx, strategy)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %s after %d iterations in %s (run %s)\n",
		res.Strategy, res.Stop, res.Iterations, res.Elapsed, res.RunID)
	fmt.Fprintf(out, "residual norm %.6g, solution norm %.6g, lambda %.6g\n",
		res.ResidualNorm, res.SolutionNorm, res.Lambda)
	for _, o := range res.Outliers {
		fmt.Fprintf(out, "outlier baseline %d (index %d) at %.6g Hz: %.2f sigma, value %v\n",
			o.Baseline, o.Index, o.Frequency, o.Magnitude, o.Value)
	}
	return writeOutputs(sphere, nil)
}
