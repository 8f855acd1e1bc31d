package renderer

import (
	"cmp"
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/df07/go-recursive-raytracer/pkg/core"
)

// minHitDistance keeps secondary rays from re-hitting the surface they left
const minHitDistance = 0.001

// SamplingConfig contains rendering configuration
type SamplingConfig struct {
	SamplesPerPixel int   // Number of rays per pixel
	MaxDepth        int   // Maximum ray bounce depth
	Seed            int64 // Base seed; row j samples with Seed+j
	NumWorkers      int   // Parallel workers, 0 = one per CPU
	BottomUp        bool  // Store framebuffer rows bottom to top
}

// DefaultSamplingConfig returns sensible default values
func DefaultSamplingConfig() SamplingConfig {
	return SamplingConfig{
		SamplesPerPixel: 100,
		MaxDepth:        50,
		Seed:            42,
	}
}

// MergeSamplingConfig returns base with every non-zero field of override applied
func MergeSamplingConfig(base, override SamplingConfig) SamplingConfig {
	result := base
	if override.SamplesPerPixel > 0 {
		result.SamplesPerPixel = override.SamplesPerPixel
	}
	if override.MaxDepth > 0 {
		result.MaxDepth = override.MaxDepth
	}
	if override.Seed != 0 {
		result.Seed = override.Seed
	}
	if override.NumWorkers > 0 {
		result.NumWorkers = override.NumWorkers
	}
	if override.BottomUp {
		result.BottomUp = true
	}
	return result
}

// Background is the vertical sky gradient seen by rays that escape the scene
type Background struct {
	Horizon core.Vec3 // Color looking straight down
	Zenith  core.Vec3 // Color looking straight up
}

// DefaultBackground blends white into light blue
func DefaultBackground() Background {
	return Background{
		Horizon: core.NewVec3(1.0, 1.0, 1.0),
		Zenith:  core.NewVec3(0.5, 0.7, 1.0),
	}
}

// Color returns the gradient color for a ray direction
func (b Background) Color(r core.Ray) core.Vec3 {
	unitDirection := r.Direction.Normalize()

	// Map y from [-1,1] to [0,1]
	t := 0.5 * (unitDirection.Y + 1.0)

	return b.Horizon.Lerp(b.Zenith, t)
}

// RenderOptions carries per-render callbacks
type RenderOptions struct {
	// Progress, if set, is called after each finished row from the rendering goroutine
	Progress func(done, total int)
	// Logger receives the render's log records; nil uses core.Logger()
	Logger *slog.Logger
}

// Raytracer shades pixels of a world seen through a camera
type Raytracer struct {
	world      core.Shape
	camera     *Camera
	background Background
	config     SamplingConfig
}

// NewRaytracer creates a new raytracer. A nil world renders only the background.
func NewRaytracer(world core.Shape, camera *Camera, background Background, config SamplingConfig) *Raytracer {
	return &Raytracer{
		world:      world,
		camera:     camera,
		background: background,
		config:     config,
	}
}

// Camera returns the camera used for primary rays
func (rt *Raytracer) Camera() *Camera { return rt.camera }

// Config returns the sampling configuration
func (rt *Raytracer) Config() SamplingConfig { return rt.config }

func (rt *Raytracer) samplesPerPixel() int {
	return max(1, rt.config.SamplesPerPixel)
}

// RayColor follows a ray through at most MaxDepth surface interactions.
// Escaping rays pick up the background, absorbed or exhausted paths are black.
func (rt *Raytracer) RayColor(ray core.Ray, sampler core.Sampler) core.Vec3 {
	throughput := core.NewVec3(1, 1, 1)
	black := core.Vec3{}

	for depth := rt.config.MaxDepth; depth > 0; depth-- {
		if ray.Direction.LengthSquared() == 0 {
			return black
		}

		var hit *core.HitRecord
		isHit := false
		if rt.world != nil {
			hit, isHit = rt.world.Hit(ray, core.NewInterval(minHitDistance, math.Inf(1)))
		}
		if !isHit {
			return throughput.MultiplyVec(rt.background.Color(ray))
		}
		if hit.Material == nil {
			return black
		}

		scatter, didScatter := hit.Material.Scatter(ray, hit, sampler)
		if !didScatter {
			return black
		}

		throughput = throughput.MultiplyVec(scatter.Attenuation)
		ray = scatter.Scattered
	}

	// Bounce limit reached, no more light is gathered
	return black
}

// SamplePixel averages SamplesPerPixel camera rays through pixel (i, j).
// A single sample goes through the pixel center. Channels are clamped to [0, 1].
func (rt *Raytracer) SamplePixel(i, j int, sampler core.Sampler) core.Vec3 {
	spp := rt.samplesPerPixel()

	var jitter core.Sampler
	if spp > 1 {
		jitter = sampler
	}

	var stats PixelStats
	for s := 0; s < spp; s++ {
		ray := rt.camera.GetRay(i, j, jitter)
		color := rt.RayColor(ray, sampler)
		if !color.IsFinite() {
			// A NaN or infinite path contributes nothing
			color = core.Vec3{}
		}
		stats.AddSample(color)
	}

	return stats.GetColor().Clamp(0.0, 1.0)
}

// RenderRow shades every pixel of image row j (0 = top)
func (rt *Raytracer) RenderRow(j int, sampler core.Sampler) []core.Vec3 {
	row := make([]core.Vec3, rt.camera.Width())
	for i := range row {
		row[i] = rt.SamplePixel(i, j, sampler)
	}
	return row
}

// Render shades the full image in parallel. Rows are seeded independently, so
// the result does not depend on the number of workers.
func (rt *Raytracer) Render(ctx context.Context, opts RenderOptions) (*Framebuffer, RenderStats, error) {
	start := time.Now()
	logger := cmp.Or(opts.Logger, core.Logger())

	width, height := rt.camera.Width(), rt.camera.Height()
	fb := NewFramebuffer(width, height, rt.config.BottomUp)

	pool := NewWorkerPool(ctx, rt, height, rt.config.NumWorkers)
	pool.Start()

	stats := RenderStats{
		Width:           width,
		Height:          height,
		SamplesPerPixel: rt.samplesPerPixel(),
		MaxDepth:        rt.config.MaxDepth,
		Workers:         pool.GetNumWorkers(),
	}

	logger.Info("render started",
		"width", width, "height", height,
		"spp", stats.SamplesPerPixel, "depth", stats.MaxDepth,
		"workers", stats.Workers)

	submitted := 0
	for j := 0; j < height; j++ {
		if ctx.Err() != nil {
			break
		}
		pool.SubmitTask(RowTask{Row: j, Seed: rt.config.Seed + int64(j)})
		submitted++
	}

	var renderErr error
	for done := 0; done < submitted; done++ {
		result, ok := pool.GetResult()
		if !ok {
			break
		}
		if result.Error != nil {
			if renderErr == nil {
				renderErr = result.Error
			}
			continue
		}

		fb.SetRow(result.Row, result.Pixels)
		stats.TotalPixels += len(result.Pixels)
		stats.TotalSamples += result.Samples
		logger.Debug("row finished", "row", result.Row, "done", done+1, "total", height)

		if opts.Progress != nil {
			opts.Progress(done+1, height)
		}
	}
	pool.Stop()

	stats.Duration = time.Since(start)

	if renderErr == nil && stats.TotalPixels < width*height {
		renderErr = ctx.Err()
	}
	if renderErr != nil {
		logger.Warn("render cancelled", "rows", stats.TotalPixels/max(1, width), "error", renderErr)
		return nil, stats, renderErr
	}

	logger.Info("render finished", "pixels", stats.TotalPixels, "samples", stats.TotalSamples, "duration", stats.Duration)
	return fb, stats, nil
}
