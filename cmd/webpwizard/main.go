package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-errors/errors"
	"github.com/spf13/cobra"

	"github.com/dunamismax/webpwizard/internal/config"
	"github.com/dunamismax/webpwizard/internal/pipeline"
	"github.com/dunamismax/webpwizard/internal/telemetry"
)

var rootCmd = &cobra.Command{
	Use:          "webpwizard",
	Short:        "crop, rotate and key images into WebP variants",
	Long:         "webpwizard crops, rotates and chroma-keys an image and writes small, original and large WebP variants.",
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
		os.Exit(1)
	},
}

var (
	debug   bool
	verbose bool
)

func init() {
	cobra.EnablePrefixMatching = true
	rootCmd.PersistentFlags().BoolVar(&debug, `debug`, false, `debug errors`)
	rootCmd.PersistentFlags().BoolVarP(&verbose, `verbose`, `v`, false, `log pipeline progress to stderr`)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() *log.Logger {
	var w io.Writer = io.Discard
	if verbose || debug {
		w = os.Stderr
	}
	return log.New(w, "[webpwizard] ", log.LstdFlags|log.Lmsgprefix)
}

// run executes fn with tracing installed and metrics pushed afterwards.
func run(fn func(ctx context.Context, env *runEnv) error) {
	var err error
	if fn == nil {
		err = errors.New("nil command func")
	} else {
		err = runWithEnv(fn)
	}
	if err != nil {
		if stackFramer, ok := err.(interface{ ErrorStack() string }); debug && ok {
			fmt.Fprintln(os.Stderr, stackFramer.ErrorStack())
		} else {
			fmt.Fprintln(os.Stderr, "error: "+err.Error())
		}
		os.Exit(1)
	}
}

type runEnv struct {
	cfg     config.Config
	logger  *log.Logger
	metrics *pipeline.Metrics
}

func runWithEnv(fn func(ctx context.Context, env *runEnv) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := &runEnv{
		cfg:     config.Load(),
		logger:  newLogger(),
		metrics: pipeline.NewMetrics(),
	}

	shutdownTracing, err := telemetry.SetupTracing(ctx, env.cfg.Telemetry.TraceConfig(), env.logger)
	if err != nil {
		return errors.Wrap(err, 0)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			env.logger.Printf("tracing shutdown failed: %v", err)
		}
	}()
	defer pipeline.Shutdown()

	runErr := fn(ctx, env)
	if err := env.metrics.Push(context.Background(), env.cfg.Telemetry.PushgatewayURL, "webpwizard"); err != nil {
		env.logger.Printf("metrics push failed: %v", err)
	}
	if runErr != nil {
		return errors.Wrap(runErr, 1)
	}
	return nil
}
