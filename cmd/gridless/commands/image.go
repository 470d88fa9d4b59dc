package commands

import (
	"fmt"

	"github.com/hammal/gridless/sky"
	"github.com/spf13/cobra"
)

// ImageCmd back-projects an observation into a dirty image.
var ImageCmd = &cobra.Command{
	Use:   "image <observation>",
	Short: "Back-project the visibilities into a dirty image",
	Long: `Accumulate every visibility times the conjugate harmonic into each pixel.
The dirty image is not corrected for the operator's null space but needs a
single pass over the data.`,
	Args: cobra.ExactArgs(1),
	RunE: runImage,
}

func init() {
	addSphereFlags(ImageCmd)
	addOutputFlags(ImageCmd)
}

func runImage(cmd *cobra.Command, args []string) error {
	sphere, engine, err := prepare(args[0])
	if err != nil {
		return err
	}
	dirty, err := engine.DirtyImage()
	if err != nil {
		return err
	}
	sphere.SetVisiblePixels(dirty, cfg.Output.Scale)
	fmt.Fprintf(cmd.OutOrStdout(), "dirty image: %d pixels at %s\n", sphere.NPix(), sky.ResolutionFor(sphere.NSide()))
	return writeOutputs(sphere, nil)
}
