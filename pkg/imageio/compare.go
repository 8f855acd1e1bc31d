package imageio

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/df07/go-recursive-raytracer/pkg/renderer"
)

// ErrSizeMismatch is returned when two images do not have the same dimensions
var ErrSizeMismatch = errors.New("image sizes differ")

// Difference summarizes how an 8-bit image departs from a reference, per channel
type Difference struct {
	Pixels      int     // Pixels with at least one differing channel
	MaxDelta    int     // Largest absolute channel difference, 0-255
	MeanDelta   float64 // Mean absolute channel difference over all channels
	TotalPixels int
}

// Identical reports whether no channel differs
func (d Difference) Identical() bool { return d.MaxDelta == 0 }

// Compare diffs img against reference. The reference holds 8-bit values
// scaled to [0, 1], as returned by Load.
func Compare(img *image.RGBA, reference *renderer.Framebuffer) (Difference, error) {
	bounds := img.Bounds()
	if bounds.Dx() != reference.Width || bounds.Dy() != reference.Height {
		return Difference{}, fmt.Errorf("%w: %dx%d vs reference %dx%d",
			ErrSizeMismatch, bounds.Dx(), bounds.Dy(), reference.Width, reference.Height)
	}

	diff := Difference{TotalPixels: reference.Width * reference.Height}
	total := 0
	for y := 0; y < reference.Height; y++ {
		for x := 0; x < reference.Width; x++ {
			got := img.RGBAAt(bounds.Min.X+x, bounds.Min.Y+y)
			want := reference.At(x, y)

			differs := false
			for _, pair := range [3][2]float64{
				{float64(got.R), want.X},
				{float64(got.G), want.Y},
				{float64(got.B), want.Z},
			} {
				delta := int(math.Abs(pair[0] - math.Round(pair[1]*255)))
				total += delta
				diff.MaxDelta = max(diff.MaxDelta, delta)
				differs = differs || delta > 0
			}
			if differs {
				diff.Pixels++
			}
		}
	}

	if diff.TotalPixels > 0 {
		diff.MeanDelta = float64(total) / float64(3*diff.TotalPixels)
	}
	return diff, nil
}
