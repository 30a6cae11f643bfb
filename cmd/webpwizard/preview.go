package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dunamismax/webpwizard/internal/editor"
)

func init() {
	f := previewCmd.Flags()
	f.StringVar(&previewFlags.removeColor, `remove-color`, ``, `hex color to key out`)
	f.IntVar(&previewFlags.tolerance, `tolerance`, 0, `chroma key tolerance 1-10 (default from WEBPWIZARD_TOLERANCE)`)
	f.StringVarP(&previewFlags.out, `out`, `o`, `preview.png`, `PNG file to write`)
	rootCmd.AddCommand(previewCmd)
}

var previewFlags struct {
	removeColor string
	tolerance   int
	out         string
}

var previewCmd = &cobra.Command{
	Use:   "preview <image>",
	Short: `write the chroma-keyed source as PNG`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		run(func(ctx context.Context, env *runEnv) error {
			return previewFunc(ctx, env, args[0])
		})
	},
}

func previewFunc(ctx context.Context, env *runEnv, source string) error {
	target, tolerance, err := parseChromaFlags(previewFlags.removeColor, previewFlags.tolerance, env.cfg.Output.Tolerance)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(source)
	if err != nil {
		return fmt.Errorf("read source: %w", err)
	}
	session, err := editor.NewSession(env.logger, data)
	if err != nil {
		return err
	}
	if err := session.SetChromaKey(ctx, target, tolerance); err != nil {
		return err
	}
	png, err := session.Preview()
	if err != nil {
		return err
	}
	if err := os.WriteFile(previewFlags.out, png, 0o644); err != nil {
		return fmt.Errorf("write preview: %w", err)
	}
	fmt.Fprintln(os.Stdout, previewFlags.out)
	return nil
}
