package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dunamismax/webpwizard/internal/editor"
)

func init() { rootCmd.AddCommand(sampleCmd) }

var sampleCmd = &cobra.Command{
	Use:   "sample <image> <x> <y>",
	Short: `print the hex color of a source pixel`,
	Long: `Print the color at pixel (x,y) of the untransformed source image.

The result can be passed to "generate --remove-color".`,
	Args: cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		run(func(ctx context.Context, env *runEnv) error {
			return sampleFunc(env, args)
		})
	},
}

func sampleFunc(env *runEnv, args []string) error {
	x, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("parse x %q: %w", args[1], err)
	}
	y, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("parse y %q: %w", args[2], err)
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read source: %w", err)
	}
	session, err := editor.NewSession(env.logger, data)
	if err != nil {
		return err
	}
	c, err := session.SampleColor(x, y)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, c.Hex())
	return nil
}
