package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/df07/go-recursive-raytracer/pkg/core"
)

type logOptions struct {
	level  string
	format string
}

func newRootCmd() *cobra.Command {
	logOpts := &logOptions{}

	rootCmd := &cobra.Command{
		Use:   "raytracer",
		Short: "A recursive CPU ray tracer",
		Long: `raytracer renders scenes of spheres and planes with diffuse, metal and
checkered materials. Scenes come from the built-in presets or from YAML, TOML
and JSON scene files, and images are written as PPM, PNG, BMP or TIFF.`,
		Version:       "1.0.0",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(cmd.ErrOrStderr(), logOpts.level, logOpts.format)
			if err != nil {
				return err
			}
			core.SetLogger(logger)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&logOpts.level, "log-level", "info", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&logOpts.format, "log-format", "text", "Log format: text or json")

	rootCmd.AddCommand(newRenderCmd(), newScenesCmd(), newServeCmd())
	return rootCmd
}

// newLogger builds the stderr logger selected by the persistent flags
func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q: %w", level, err)
	}

	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid --log-format %q: must be text or json", format)
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
