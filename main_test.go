package main

import (
	"bytes"
	"context"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/df07/go-recursive-raytracer/pkg/imageio"
)

// syncBuffer lets a test read output while a command is still writing it
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestRender_PNGFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "nested", "empty.png")

	_, stderr, err := execute(t, "render", "--scene", "empty", "--width", "16", "--out", out)
	require.NoError(t, err)
	assert.Contains(t, stderr, "16x9")
	assert.Contains(t, stderr, "Render saved as "+out)

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 16, img.Bounds().Dx())
	assert.Equal(t, 9, img.Bounds().Dy())
}

func TestRender_PPMToStdout(t *testing.T) {
	stdout, stderr, err := execute(t, "render", "--scene", "empty",
		"--width", "4", "--aspect", "1", "--gamma", "1", "--out", "-")
	require.NoError(t, err)
	assert.NotContains(t, stderr, "Render saved as")

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 3+16)
	assert.Equal(t, []string{"P3", "4 4", "255"}, lines[:3])
	for _, line := range lines[3:] {
		assert.Len(t, strings.Fields(line), 3)
	}
}

func TestRender_SceneFileWithOverrides(t *testing.T) {
	out := filepath.Join(t.TempDir(), "two-spheres.bmp")

	_, _, err := execute(t, "render", "--file", filepath.Join("scenes", "two-spheres.yaml"),
		"--width", "8", "--spp", "1", "--depth", "2", "--workers", "2", "--out", out)
	require.NoError(t, err)

	fb, err := imageio.Load(out)
	require.NoError(t, err)
	assert.Equal(t, 8, fb.Width)
	assert.Equal(t, 4, fb.Height)
}

func TestRender_DefaultOutputPath(t *testing.T) {
	t.Chdir(t.TempDir())

	_, _, err := execute(t, "render", "--scene", "empty", "--width", "16", "--format", "tiff", "--scale", "2", "--stamp")
	require.NoError(t, err)

	matches, err := filepath.Glob(filepath.Join("output", "empty", "render_*.tiff"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	fb, err := imageio.Load(matches[0])
	require.NoError(t, err)
	assert.Equal(t, 32, fb.Width)
	assert.Equal(t, 18, fb.Height)
}

func TestRender_Compare(t *testing.T) {
	dir := t.TempDir()
	golden := filepath.Join(dir, "golden.png")
	args := []string{"render", "--scene", "default", "--width", "16", "--spp", "4", "--depth", "5"}

	_, _, err := execute(t, append(args, "--seed", "1", "--out", golden)...)
	require.NoError(t, err)

	t.Run("same seed matches", func(t *testing.T) {
		_, stderr, err := execute(t, append(args, "--seed", "1", "--out", filepath.Join(dir, "again.bmp"), "--compare", golden)...)
		require.NoError(t, err)
		assert.Contains(t, stderr, "Compared with "+golden+": 0/144 pixels differ")
	})

	t.Run("different seed fails", func(t *testing.T) {
		_, stderr, err := execute(t, append(args, "--seed", "2", "--out", filepath.Join(dir, "other.png"), "--compare", golden)...)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "exceeds tolerance 0")
		assert.Contains(t, stderr, "Compared with")
	})

	t.Run("within tolerance", func(t *testing.T) {
		_, _, err := execute(t, append(args, "--seed", "2", "--out", filepath.Join(dir, "loose.png"), "--compare", golden, "--tolerance", "255")...)
		require.NoError(t, err)
	})

	t.Run("size mismatch", func(t *testing.T) {
		_, _, err := execute(t, append(args, "--seed", "1", "--scale", "2", "--out", filepath.Join(dir, "big.png"), "--compare", golden)...)
		require.Error(t, err)
		assert.ErrorIs(t, err, imageio.ErrSizeMismatch)
	})
}

func TestRender_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		message string
	}{
		{"unknown scene", []string{"render", "--scene", "nope"}, "unknown scene"},
		{"scene and file", []string{"render", "--scene", "default", "--file", "scenes/two-spheres.yaml"}, "none of the others"},
		{"watch without file", []string{"render", "--watch"}, "--watch requires --file"},
		{"zero samples", []string{"render", "--spp", "0"}, "samples per pixel"},
		{"negative width", []string{"render", "--width", "-3"}, "image width"},
		{"bad format", []string{"render", "--format", "gif"}, "unknown image format"},
		{"unknown extension", []string{"render", "--out", "image.gif"}, "unknown image format"},
		{"missing file", []string{"render", "--file", "scenes/missing.yaml"}, "missing.yaml"},
		{"tolerance out of range", []string{"render", "--tolerance", "300"}, "tolerance"},
		{"missing reference", []string{"render", "--scene", "empty", "--width", "4", "--out", "-", "--compare", "absent.png"}, "compare"},
		{"bad log level", []string{"--log-level", "loud", "render"}, "log-level"},
		{"bad log format", []string{"--log-format", "xml", "render"}, "log-format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestRenderJob_Layering(t *testing.T) {
	now := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

	parse := func(t *testing.T, args ...string) *renderJob {
		t.Helper()
		opts := &renderOptions{}
		flags := pflag.NewFlagSet("render", pflag.ContinueOnError)
		opts.bindFlags(flags)
		require.NoError(t, flags.Parse(args))
		job, err := opts.newJob(flags, now)
		require.NoError(t, err)
		return job
	}

	t.Run("scene defaults", func(t *testing.T) {
		job := parse(t)
		assert.Equal(t, "default", job.preset.Name)
		assert.Equal(t, 400, job.preset.Camera.Width)
		assert.Equal(t, 100, job.preset.Sampling.SamplesPerPixel)
		assert.Equal(t, 50, job.preset.Sampling.MaxDepth)
		assert.Equal(t, defaultGamma, job.gamma)
		assert.Equal(t, imageio.FormatPNG, job.format)
		assert.Equal(t, filepath.Join("output", "default", "render_20240506_070809.png"), job.out)
	})

	t.Run("file values", func(t *testing.T) {
		job := parse(t, "--file", "scenes/two-spheres.yaml")
		assert.Equal(t, "two-spheres", job.preset.Name)
		assert.Equal(t, 64, job.preset.Sampling.SamplesPerPixel)
		assert.Equal(t, 20, job.preset.Sampling.MaxDepth)
	})

	t.Run("flags override file", func(t *testing.T) {
		job := parse(t, "--file", "scenes/two-spheres.yaml", "--spp", "3", "--depth", "0",
			"--seed", "9", "--bottom-up", "--gamma", "1", "--out", "x.ppm")
		assert.Equal(t, 3, job.preset.Sampling.SamplesPerPixel)
		assert.Equal(t, 0, job.preset.Sampling.MaxDepth)
		assert.Equal(t, int64(9), job.preset.Sampling.Seed)
		assert.True(t, job.preset.Sampling.BottomUp)
		assert.Equal(t, 1.0, job.gamma)
		assert.Equal(t, imageio.FormatPPM, job.format)
		assert.Equal(t, "x.ppm", job.out)
	})

	t.Run("format flag beats extension", func(t *testing.T) {
		job := parse(t, "--out", "image.out", "--format", "ppm-binary")
		assert.Equal(t, imageio.FormatPPMBinary, job.format)
	})

	t.Run("stdout defaults to ppm", func(t *testing.T) {
		job := parse(t, "--out", "-")
		assert.Equal(t, imageio.FormatPPM, job.format)
	})
}

func TestRender_Watch(t *testing.T) {
	dir := t.TempDir()
	sceneFile := filepath.Join(dir, "watched.yaml")
	data, err := os.ReadFile(filepath.Join("scenes", "two-spheres.yaml"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(sceneFile, data, 0o644))

	var stderr syncBuffer
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"--log-level", "error", "render", "--watch", "--file", sceneFile,
		"--width", "8", "--spp", "1", "--depth", "1", "--out", filepath.Join(dir, "out.png")})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()

	saved := func() int { return strings.Count(stderr.String(), "Render saved as") }

	require.Eventually(t, func() bool {
		return saved() == 1 && strings.Contains(stderr.String(), "Watching")
	}, 10*time.Second, 20*time.Millisecond)

	require.NoError(t, os.WriteFile(sceneFile, append(data, []byte("\n")...), 0o644))

	require.Eventually(t, func() bool { return saved() >= 2 }, 10*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("render --watch did not stop after cancellation")
	}
}

func TestScenesCommand(t *testing.T) {
	stdout, _, err := execute(t, "scenes", "--dir", "scenes")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(stdout, "Built-in Scenes:"))
	for _, id := range []string{"default", "checker", "glass", "spheregrid", "empty", "file:two-spheres", "file:glass-mix", "file:checker-plane", "file:metal-trio"} {
		assert.Contains(t, stdout, id)
	}
}

func TestServeCommand_InvalidPort(t *testing.T) {
	_, _, err := execute(t, "serve", "--port", "70000")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer

	logger, err := newLogger(&buf, "debug", "json")
	require.NoError(t, err)
	logger.Debug("hello", "n", 1)
	assert.Contains(t, buf.String(), `"msg":"hello"`)

	buf.Reset()
	logger, err = newLogger(&buf, "warn", "text")
	require.NoError(t, err)
	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown")
}

func TestLocaleTag(t *testing.T) {
	t.Setenv("LC_ALL", "")
	t.Setenv("LC_NUMERIC", "")
	t.Setenv("LANG", "de_DE.UTF-8")
	assert.Equal(t, "de-DE", localeTag().String())

	t.Setenv("LANG", "")
	assert.Equal(t, language.English, localeTag())
}
