package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/richinsley/postfx/effects"
)

func newKernelCmd() *cobra.Command {
	var radius float32
	cmd := &cobra.Command{
		Use:   "kernel",
		Short: "Print the Gaussian blur weights and per-pixel sample counts for a radius",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if radius < 0 || radius > effects.MaxBlurRadius {
				return fmt.Errorf("radius must be in [0, %d], got %g", effects.MaxBlurRadius, radius)
			}
			out := cmd.OutOrStdout()
			w := effects.GaussianWeights(radius)
			r := len(w) / 2
			fmt.Fprintf(out, "radius %g, sigma %.4f\n", radius, max(float64(radius)/3, 0.0001))
			for i, v := range w {
				fmt.Fprintf(out, "%+4d  %.6f\n", i-r, v)
			}
			sep, direct := effects.SampleCounts(radius)
			fmt.Fprintf(out, "samples per pixel: separable %d, 2-D %d\n", sep, direct)
			return nil
		},
	}
	cmd.Flags().Float32VarP(&radius, "radius", "r", 5, "blur radius in pixels")
	return cmd
}
