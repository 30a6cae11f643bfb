package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dunamismax/webpwizard/internal/transform"
)

func init() {
	// Negative angles must not be read as shorthand flags.
	boundsCmd.Flags().SetInterspersed(false)
	rootCmd.AddCommand(boundsCmd)
}

var boundsCmd = &cobra.Command{
	Use:   "bounds <width> <height> <degrees>",
	Short: `print the bounding box of a rotated image`,
	Long: `Print the pixel size of the canvas that holds a width x height image
rotated by degrees. Crop rectangles passed to "generate" are expressed in this
space. Negative angles work as plain arguments: bounds 800 600 -30.`,
	Args: cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		run(func(context.Context, *runEnv) error {
			return boundsFunc(os.Stdout, args)
		})
	},
}

func boundsFunc(out io.Writer, args []string) error {
	w, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("parse width %q: %w", args[0], err)
	}
	h, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("parse height %q: %w", args[1], err)
	}
	deg, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return fmt.Errorf("parse degrees %q: %w", args[2], err)
	}
	size := transform.RotatedBounds(w, h, deg)
	fmt.Fprintf(out, "%dx%d\n", size.Width, size.Height)
	return nil
}
