package imageio

import (
	"bufio"
	"bytes"
	"fmt"
	"image"
	_ "image/png" // PNG decoder
	"io"
	"os"

	_ "golang.org/x/image/bmp"  // BMP decoder
	_ "golang.org/x/image/tiff" // TIFF decoder

	"github.com/df07/go-recursive-raytracer/pkg/core"
	"github.com/df07/go-recursive-raytracer/pkg/renderer"
)

// Load reads an image file back into a top-down framebuffer.
// Channels are the stored 8-bit values divided by 255; no gamma is undone.
func Load(path string) (*renderer.Framebuffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image file: %w", err)
	}
	defer f.Close()

	return Decode(f)
}

// Decode reads PPM (P3 or P6), PNG, BMP or TIFF data
func Decode(r io.Reader) (*renderer.Framebuffer, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(2)
	if err != nil {
		return nil, fmt.Errorf("failed to read image header: %w", err)
	}
	if bytes.Equal(magic, []byte("P3")) || bytes.Equal(magic, []byte("P6")) {
		return decodePPM(br)
	}

	// Auto-detects PNG/BMP/TIFF from the header
	img, _, err := image.Decode(br)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	fb := renderer.NewFramebuffer(bounds.Dx(), bounds.Dy(), false)
	for y := 0; y < fb.Height; y++ {
		for x := 0; x < fb.Width; x++ {
			r, g, b, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			// RGBA returns uint32 in [0, 65535]
			fb.Set(x, y, core.NewVec3(
				float64(r)/65535.0,
				float64(g)/65535.0,
				float64(b)/65535.0,
			))
		}
	}
	return fb, nil
}

func decodePPM(r *bufio.Reader) (*renderer.Framebuffer, error) {
	var magic string
	var width, height, maxVal int
	if _, err := fmt.Fscan(r, &magic, &width, &height, &maxVal); err != nil {
		return nil, fmt.Errorf("failed to read PPM header: %w", err)
	}
	if width <= 0 || height <= 0 || maxVal <= 0 || maxVal > 255 {
		return nil, fmt.Errorf("unsupported PPM header %dx%d max %d", width, height, maxVal)
	}

	fb := renderer.NewFramebuffer(width, height, false)
	scale := 1.0 / float64(maxVal)

	if magic == "P6" {
		// Exactly one whitespace byte separates the header from raster data
		if _, err := r.ReadByte(); err != nil {
			return nil, fmt.Errorf("failed to read PPM raster: %w", err)
		}
		raster := make([]byte, width*height*3)
		if _, err := io.ReadFull(r, raster); err != nil {
			return nil, fmt.Errorf("failed to read PPM raster: %w", err)
		}
		for i := range fb.Pixels {
			fb.Pixels[i] = core.NewVec3(float64(raster[3*i])*scale, float64(raster[3*i+1])*scale, float64(raster[3*i+2])*scale)
		}
		return fb, nil
	}

	for i := range fb.Pixels {
		var cr, cg, cb int
		if _, err := fmt.Fscan(r, &cr, &cg, &cb); err != nil {
			return nil, fmt.Errorf("failed to read PPM pixel %d: %w", i, err)
		}
		fb.Pixels[i] = core.NewVec3(float64(cr)*scale, float64(cg)*scale, float64(cb)*scale)
	}
	return fb, nil
}
