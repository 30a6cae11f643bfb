package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dunamismax/webpwizard/internal/domain"
	"github.com/dunamismax/webpwizard/internal/pipeline"
	"github.com/dunamismax/webpwizard/internal/storage"
)

func init() {
	f := generateCmd.Flags()
	f.StringVar(&genFlags.crop, `crop`, ``, `crop rectangle x,y,w,h in rotated space (default: whole rotated image)`)
	f.Float64Var(&genFlags.rotate, `rotate`, 0, `rotation in degrees, clockwise`)
	f.BoolVar(&genFlags.flipH, `flip-h`, false, `mirror horizontally`)
	f.BoolVar(&genFlags.flipV, `flip-v`, false, `mirror vertically`)
	f.BoolVar(&genFlags.flatten, `flatten`, false, `composite onto white instead of keeping transparency`)
	f.StringVar(&genFlags.removeColor, `remove-color`, ``, `hex color to key out, e.g. #00ff00`)
	f.IntVar(&genFlags.tolerance, `tolerance`, 0, `chroma key tolerance 1-10 (default from WEBPWIZARD_TOLERANCE)`)
	f.IntVar(&genFlags.width, `width`, 0, `forced width of the original variant`)
	f.IntVar(&genFlags.height, `height`, 0, `forced height of the original variant`)
	f.StringVarP(&genFlags.out, `out`, `o`, ``, `output directory (default from WEBPWIZARD_OUTPUT_DIR)`)
	f.StringVar(&genFlags.session, `session`, ``, `session id used as output subdirectory`)
	f.BoolVar(&genFlags.bucket, `bucket`, false, `upload variants to the configured bucket and print download links`)
	rootCmd.AddCommand(generateCmd)
}

var genFlags struct {
	crop        string
	rotate      float64
	flipH       bool
	flipV       bool
	flatten     bool
	removeColor string
	tolerance   int
	width       int
	height      int
	out         string
	session     string
	bucket      bool
}

var generateCmd = &cobra.Command{
	Use:   "generate <image>",
	Short: `write small, original and large WebP variants`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		run(func(ctx context.Context, env *runEnv) error {
			return generateFunc(ctx, env, args[0])
		})
	},
}

func generateFunc(ctx context.Context, env *runEnv, source string) error {
	req, err := buildEditRequest(source, env.cfg.Output.Tolerance)
	if err != nil {
		return err
	}

	proc, err := newProcessor(ctx, env)
	if err != nil {
		return err
	}

	result, err := proc.Process(ctx, req)
	if err != nil {
		return err
	}
	for _, out := range result.Outputs {
		location := out.Path
		if out.URL != "" {
			location = out.URL
		}
		fmt.Fprintf(os.Stdout, "%-8s %5dx%-5d %8d bytes  %s\n", out.Variant, out.Width, out.Height, out.Bytes, location)
	}
	return nil
}

func buildEditRequest(source string, defaultTolerance domain.Tolerance) (domain.EditRequest, error) {
	req := domain.EditRequest{
		SessionID:     genFlags.session,
		SourcePath:    source,
		Rotation:      genFlags.rotate,
		Flip:          domain.Flip{Horizontal: genFlags.flipH, Vertical: genFlags.flipV},
		PreserveAlpha: !genFlags.flatten,
		ForcedSize:    domain.ForcedSize{Width: genFlags.width, Height: genFlags.height},
	}
	if genFlags.crop != "" {
		crop, err := parseCrop(genFlags.crop)
		if err != nil {
			return domain.EditRequest{}, err
		}
		req.Crop = &crop
	}
	target, tolerance, err := parseChromaFlags(genFlags.removeColor, genFlags.tolerance, defaultTolerance)
	if err != nil {
		return domain.EditRequest{}, err
	}
	req.RemoveColor = target
	req.Tolerance = tolerance
	return req, req.Validate()
}

func newProcessor(ctx context.Context, env *runEnv) (*pipeline.Processor, error) {
	if !genFlags.bucket {
		dir := genFlags.out
		if dir == "" {
			dir = env.cfg.Output.Dir
		}
		return pipeline.NewLocalProcessor(env.logger, dir, env.metrics)
	}

	client, err := storage.NewClient(env.cfg.Storage.ClientConfig())
	if err != nil {
		return nil, err
	}
	if err := client.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return pipeline.NewObjectStoreProcessor(env.logger, pipeline.ObjectStoreEmitter{
		Storage:      client,
		OutputPrefix: env.cfg.Storage.Prefix,
		DownloadTTL:  env.cfg.Storage.DownloadTTL,
	}, env.metrics)
}
