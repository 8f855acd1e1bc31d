package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/text/language"

	"github.com/df07/go-recursive-raytracer/pkg/core"
	"github.com/df07/go-recursive-raytracer/pkg/imageio"
	"github.com/df07/go-recursive-raytracer/pkg/loaders"
	"github.com/df07/go-recursive-raytracer/pkg/renderer"
	"github.com/df07/go-recursive-raytracer/pkg/scene"
	"github.com/df07/go-recursive-raytracer/pkg/watcher"
)

const (
	defaultGamma  = 2.0
	watchDebounce = 200 * time.Millisecond
)

type renderOptions struct {
	sceneName string
	file      string
	out       string
	format    string
	width     int
	aspect    float64
	spp       int
	depth     int
	seed      int64
	workers   int
	bottomUp  bool
	gamma     float64
	scale     int
	stamp     bool
	progress  bool
	watch     bool
	compare   string
	tolerance int
}

// renderJob is one fully layered render: scene defaults, then file, then flags
type renderJob struct {
	preset *scene.Preset
	gamma  float64
	format imageio.Format
	out    string
}

func newRenderCmd() *cobra.Command {
	opts := &renderOptions{}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a scene to an image file",
		Long: `Render a built-in scene (--scene) or a scene file (--file) and write the image.

Settings are layered: the scene's own defaults, then the scene file, then any
flag given on the command line. The output format follows --format, or the
--out extension. With no --out the image goes to output/<scene>/render_<timestamp>.png;
"--out -" writes to stdout (PPM unless --format says otherwise).`,
		Example: `  raytracer render
  raytracer render --scene checker --spp 16 --out checker.png
  raytracer render --file scenes/two-spheres.yaml --watch
  raytracer render --spp 30 --gamma 1 --out - > image.ppm
  raytracer render --scene checker --seed 7 --compare golden/checker.png`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, opts)
		},
	}

	opts.bindFlags(cmd.Flags())
	cmd.MarkFlagsMutuallyExclusive("scene", "file")

	return cmd
}

// bindFlags registers the render flags on f
func (o *renderOptions) bindFlags(f *pflag.FlagSet) {
	f.StringVarP(&o.sceneName, "scene", "s", "default", "Built-in scene: "+strings.Join(scene.BuiltinNames(), ", "))
	f.StringVarP(&o.file, "file", "f", "", "Scene file (.yaml, .yml, .toml or .json)")
	f.StringVarP(&o.out, "out", "o", "", `Output file, "-" for stdout`)
	f.StringVar(&o.format, "format", "", "Output format: ppm, ppm-binary, png, bmp or tiff")
	f.IntVar(&o.width, "width", 0, "Image width in pixels")
	f.Float64Var(&o.aspect, "aspect", 0, "Aspect ratio (width / height)")
	f.IntVar(&o.spp, "spp", 0, "Samples per pixel")
	f.IntVar(&o.depth, "depth", 0, "Maximum ray bounces")
	f.Int64Var(&o.seed, "seed", 0, "Random seed")
	f.IntVar(&o.workers, "workers", 0, "Worker goroutines (0 = one per CPU)")
	f.BoolVar(&o.bottomUp, "bottom-up", false, "Store framebuffer rows bottom to top")
	f.Float64Var(&o.gamma, "gamma", defaultGamma, "Output gamma; 1 writes linear values")
	f.IntVar(&o.scale, "scale", 1, "Integer upscale factor applied before writing")
	f.BoolVar(&o.stamp, "stamp", false, "Draw scene name and render stats into the image")
	f.BoolVar(&o.progress, "progress", false, "Print row progress to stderr")
	f.BoolVarP(&o.watch, "watch", "w", false, "Re-render whenever the scene file changes")
	f.StringVar(&o.compare, "compare", "", "Reference image to diff the render against (PPM, PNG, BMP or TIFF)")
	f.IntVar(&o.tolerance, "tolerance", 0, "Largest channel difference (0-255) --compare accepts")
}

func runRender(cmd *cobra.Command, opts *renderOptions) error {
	if !opts.watch {
		return renderOnce(cmd, opts)
	}
	if opts.file == "" {
		return errors.New("--watch requires --file")
	}

	logger := core.Logger()
	if err := renderOnce(cmd, opts); err != nil {
		logger.Error("render failed", "error", err)
	}

	fw, err := watcher.NewFileWatcher(watchDebounce)
	if err != nil {
		return err
	}
	defer fw.Close()

	changes := make(chan struct{}, 1)
	err = fw.Watch([]string{opts.file}, func(string) {
		select {
		case changes <- struct{}{}:
		default:
			// A re-render is already pending
		}
	})
	if err != nil {
		return err
	}
	fw.Start()

	fmt.Fprintf(cmd.ErrOrStderr(), "Watching %s for changes (Ctrl+C to stop)\n", opts.file)

	ctx := cmd.Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-changes:
			logger.Info("scene file changed, re-rendering", "path", opts.file)
			if err := renderOnce(cmd, opts); err != nil {
				logger.Error("render failed", "error", err)
			}
		}
	}
}

func renderOnce(cmd *cobra.Command, opts *renderOptions) error {
	job, err := opts.newJob(cmd.Flags(), time.Now())
	if err != nil {
		return err
	}

	stderr := cmd.ErrOrStderr()
	var renderOpts renderer.RenderOptions
	if opts.progress {
		renderOpts.Progress = func(done, total int) {
			fmt.Fprintf(stderr, "\rRows: %d/%d", done, total)
			if done == total {
				fmt.Fprintln(stderr)
			}
		}
	}

	fb, stats, err := job.preset.NewRaytracer().Render(cmd.Context(), renderOpts)
	if err != nil {
		return fmt.Errorf("render %s: %w", job.preset.Name, err)
	}

	imageOpts := imageio.Options{Gamma: job.gamma, Scale: opts.scale}
	if opts.stamp {
		imageOpts.Stamp = fmt.Sprintf("%s  %d spp  depth %d  %v",
			job.preset.Name, stats.SamplesPerPixel, stats.MaxDepth, stats.Duration.Round(time.Millisecond))
	}

	if err := writeImage(cmd, job, fb, imageOpts); err != nil {
		return err
	}

	fmt.Fprintln(stderr, stats.Summary(localeTag()))
	if job.out != "-" {
		fmt.Fprintf(stderr, "Render saved as %s\n", job.out)
	}

	if opts.compare != "" {
		return compareRender(cmd, opts, fb, imageio.Options{Gamma: job.gamma, Scale: opts.scale})
	}
	return nil
}

// compareRender diffs the render, without its stamp, against the --compare reference
func compareRender(cmd *cobra.Command, opts *renderOptions, fb *renderer.Framebuffer, imageOpts imageio.Options) error {
	reference, err := imageio.Load(opts.compare)
	if err != nil {
		return fmt.Errorf("compare: %w", err)
	}
	diff, err := imageio.Compare(imageio.Prepare(fb, imageOpts), reference)
	if err != nil {
		return fmt.Errorf("compare %s: %w", opts.compare, err)
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Compared with %s: %d/%d pixels differ, max delta %d, mean delta %.3f\n",
		opts.compare, diff.Pixels, diff.TotalPixels, diff.MaxDelta, diff.MeanDelta)
	if diff.MaxDelta > opts.tolerance {
		return fmt.Errorf("render differs from %s: max channel delta %d exceeds tolerance %d",
			opts.compare, diff.MaxDelta, opts.tolerance)
	}
	return nil
}

// newJob layers the flags the user actually set over the selected scene
func (o *renderOptions) newJob(flags *pflag.FlagSet, now time.Time) (*renderJob, error) {
	job := &renderJob{gamma: defaultGamma}

	if o.file != "" {
		sf, err := loaders.Load(o.file)
		if err != nil {
			return nil, err
		}
		if job.preset, err = sf.Build(); err != nil {
			return nil, fmt.Errorf("%s: %w", o.file, err)
		}
		if sf.Render.Gamma > 0 {
			job.gamma = sf.Render.Gamma
		}
	} else {
		preset, err := scene.Builtin(o.sceneName)
		if err != nil {
			return nil, err
		}
		job.preset = preset
	}

	camera := &job.preset.Camera
	sampling := &job.preset.Sampling
	if flags.Changed("width") {
		camera.Width = o.width
	}
	if flags.Changed("aspect") {
		camera.AspectRatio = o.aspect
	}
	if flags.Changed("spp") {
		sampling.SamplesPerPixel = o.spp
	}
	if flags.Changed("depth") {
		sampling.MaxDepth = o.depth
	}
	if flags.Changed("seed") {
		sampling.Seed = o.seed
	}
	if flags.Changed("workers") {
		sampling.NumWorkers = o.workers
	}
	if flags.Changed("bottom-up") {
		sampling.BottomUp = o.bottomUp
	}
	if flags.Changed("gamma") {
		job.gamma = o.gamma
	}

	switch {
	case camera.Width <= 0:
		return nil, fmt.Errorf("image width must be positive, got %d", camera.Width)
	case camera.AspectRatio <= 0:
		return nil, fmt.Errorf("aspect ratio must be positive, got %g", camera.AspectRatio)
	case sampling.SamplesPerPixel <= 0:
		return nil, fmt.Errorf("samples per pixel must be positive, got %d", sampling.SamplesPerPixel)
	case sampling.MaxDepth < 0:
		return nil, fmt.Errorf("max depth must not be negative, got %d", sampling.MaxDepth)
	case sampling.NumWorkers < 0:
		return nil, fmt.Errorf("workers must not be negative, got %d", sampling.NumWorkers)
	case job.gamma <= 0:
		return nil, fmt.Errorf("gamma must be positive, got %g", job.gamma)
	case o.scale < 1:
		return nil, fmt.Errorf("scale must be at least 1, got %d", o.scale)
	case o.tolerance < 0 || o.tolerance > 255:
		return nil, fmt.Errorf("tolerance must be between 0 and 255, got %d", o.tolerance)
	}

	format, err := o.outputFormat()
	if err != nil {
		return nil, err
	}
	job.format = format

	job.out = o.out
	if job.out == "" {
		name := safeDirName(job.preset.Name)
		job.out = filepath.Join("output", name,
			fmt.Sprintf("render_%s.%s", now.Format("20060102_150405"), format.Extension()))
	}

	return job, nil
}

// outputFormat picks --format, else the --out extension, else PPM for stdout and PNG for files
func (o *renderOptions) outputFormat() (imageio.Format, error) {
	switch {
	case o.format != "":
		return imageio.ParseFormat(o.format)
	case o.out == "-":
		return imageio.FormatPPM, nil
	case o.out != "":
		return imageio.FormatFromPath(o.out)
	default:
		return imageio.FormatPNG, nil
	}
}

func writeImage(cmd *cobra.Command, job *renderJob, fb *renderer.Framebuffer, opts imageio.Options) error {
	if job.out == "-" {
		w := bufio.NewWriter(cmd.OutOrStdout())
		if err := imageio.Encode(w, fb, job.format, opts); err != nil {
			return err
		}
		return w.Flush()
	}

	if dir := filepath.Dir(job.out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	return imageio.WriteFile(job.out, fb, job.format, opts)
}

// safeDirName makes a scene name safe to use as a directory
func safeDirName(name string) string {
	name = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == ':' {
			return '_'
		}
		return r
	}, name)
	if name == "" || name == "." || name == ".." {
		return "scene"
	}
	return name
}

// localeTag reads the user's locale from the environment for number formatting
func localeTag() language.Tag {
	for _, key := range []string{"LC_ALL", "LC_NUMERIC", "LANG"} {
		value, _, _ := strings.Cut(os.Getenv(key), ".")
		if value == "" {
			continue
		}
		if tag, err := language.Parse(value); err == nil {
			return tag
		}
	}
	return language.English
}
