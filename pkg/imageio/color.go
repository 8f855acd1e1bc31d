package imageio

import (
	"image"
	"image/color"
	"math"

	"github.com/df07/go-recursive-raytracer/pkg/core"
	"github.com/df07/go-recursive-raytracer/pkg/renderer"
)

// To8Bit maps a channel in [0, 1] to [0, 255] as int(256*c), clamping out-of-range input
func To8Bit(c float64) uint8 {
	if math.IsNaN(c) || c <= 0 {
		return 0
	}
	v := 256 * c
	if v >= 255 {
		return 255
	}
	return uint8(v)
}

// ToColor applies gamma correction and converts to an opaque 8-bit color
func ToColor(c core.Vec3, gamma float64) color.RGBA {
	c = c.GammaCorrect(gamma)
	return color.RGBA{R: To8Bit(c.X), G: To8Bit(c.Y), B: To8Bit(c.Z), A: 255}
}

// ToRGBA converts a framebuffer to an upright 8-bit image
func ToRGBA(fb *renderer.Framebuffer, gamma float64) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, fb.Width, fb.Height))
	for y := 0; y < fb.Height; y++ {
		for x := 0; x < fb.Width; x++ {
			img.SetRGBA(x, y, ToColor(fb.At(x, y), gamma))
		}
	}
	return img
}
