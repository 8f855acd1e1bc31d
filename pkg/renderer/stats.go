package renderer

import (
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/df07/go-recursive-raytracer/pkg/core"
)

// RenderStats contains statistics about the rendering process
type RenderStats struct {
	Width           int           // Image width in pixels
	Height          int           // Image height in pixels
	TotalPixels     int           // Total number of pixels rendered
	TotalSamples    int           // Total number of camera samples taken
	SamplesPerPixel int           // Samples requested per pixel
	MaxDepth        int           // Bounce limit used
	Workers         int           // Number of worker goroutines
	Duration        time.Duration // Wall-clock render time
}

// SamplesPerSecond returns the sampling throughput, or 0 before any time has elapsed
func (s RenderStats) SamplesPerSecond() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return float64(s.TotalSamples) / s.Duration.Seconds()
}

// Summary formats the statistics for humans, grouping digits per the given locale
func (s RenderStats) Summary(tag language.Tag) string {
	p := message.NewPrinter(tag)
	return p.Sprintf("%dx%d, %d pixels, %d samples (%d spp, depth %d) on %d workers in %v (%.0f samples/s)",
		s.Width, s.Height, s.TotalPixels, s.TotalSamples, s.SamplesPerPixel, s.MaxDepth,
		s.Workers, s.Duration.Round(time.Millisecond), s.SamplesPerSecond())
}

// PixelStats tracks sampling statistics for a single pixel
type PixelStats struct {
	ColorAccum  core.Vec3 // RGB accumulator for final result
	SampleCount int       // Number of samples taken
}

// AddSample adds a new color sample to the pixel statistics
func (ps *PixelStats) AddSample(color core.Vec3) {
	ps.ColorAccum = ps.ColorAccum.Add(color)
	ps.SampleCount++
}

// GetColor returns the current average color for this pixel
func (ps *PixelStats) GetColor() core.Vec3 {
	if ps.SampleCount == 0 {
		return core.Vec3{X: 0, Y: 0, Z: 0}
	}
	return ps.ColorAccum.Multiply(1.0 / float64(ps.SampleCount))
}
