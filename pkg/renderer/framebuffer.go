package renderer

import (
	"github.com/df07/go-recursive-raytracer/pkg/core"
)

// Framebuffer holds linear RGB pixels in row-major order, each channel in [0, 1].
// Rows are stored top to bottom unless BottomUp is set.
type Framebuffer struct {
	Width    int
	Height   int
	BottomUp bool
	Pixels   []core.Vec3
}

// NewFramebuffer allocates a black framebuffer
func NewFramebuffer(width, height int, bottomUp bool) *Framebuffer {
	return &Framebuffer{
		Width:    width,
		Height:   height,
		BottomUp: bottomUp,
		Pixels:   make([]core.Vec3, width*height),
	}
}

// storageRow maps an image row (0 = top) to its index in Pixels
func (fb *Framebuffer) storageRow(y int) int {
	if fb.BottomUp {
		return fb.Height - 1 - y
	}
	return y
}

// At returns the pixel at image coordinates (x, y), with y = 0 the top row
func (fb *Framebuffer) At(x, y int) core.Vec3 {
	return fb.Pixels[fb.storageRow(y)*fb.Width+x]
}

// Set stores a pixel at image coordinates (x, y)
func (fb *Framebuffer) Set(x, y int, c core.Vec3) {
	fb.Pixels[fb.storageRow(y)*fb.Width+x] = c
}

// SetRow copies a full image row (0 = top) into the buffer
func (fb *Framebuffer) SetRow(y int, row []core.Vec3) {
	start := fb.storageRow(y) * fb.Width
	copy(fb.Pixels[start:start+fb.Width], row)
}
