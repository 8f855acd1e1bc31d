package imageio

import (
	"bufio"
	"fmt"
	"image"
	"io"

	"github.com/df07/go-recursive-raytracer/pkg/renderer"
)

// WritePPM writes fb as a PPM image, top row first, with 255 as the maximum value.
// binary selects the raw P6 variant instead of plain-text P3.
func WritePPM(w io.Writer, fb *renderer.Framebuffer, gamma float64, binary bool) error {
	bw := bufio.NewWriter(w)

	magic := "P3"
	if binary {
		magic = "P6"
	}
	if _, err := fmt.Fprintf(bw, "%s\n%d %d\n255\n", magic, fb.Width, fb.Height); err != nil {
		return err
	}

	for y := 0; y < fb.Height; y++ {
		for x := 0; x < fb.Width; x++ {
			c := ToColor(fb.At(x, y), gamma)
			if err := writePPMPixel(bw, c.R, c.G, c.B, binary); err != nil {
				return err
			}
		}
	}

	return bw.Flush()
}

// writePPMImage writes an already quantized image
func writePPMImage(w io.Writer, img *image.RGBA, binary bool) error {
	bw := bufio.NewWriter(w)
	bounds := img.Bounds()

	magic := "P3"
	if binary {
		magic = "P6"
	}
	if _, err := fmt.Fprintf(bw, "%s\n%d %d\n255\n", magic, bounds.Dx(), bounds.Dy()); err != nil {
		return err
	}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := img.RGBAAt(x, y)
			if err := writePPMPixel(bw, c.R, c.G, c.B, binary); err != nil {
				return err
			}
		}
	}

	return bw.Flush()
}

func writePPMPixel(w *bufio.Writer, r, g, b uint8, binary bool) error {
	if binary {
		_, err := w.Write([]byte{r, g, b})
		return err
	}
	_, err := fmt.Fprintf(w, "%d %d %d\n", r, g, b)
	return err
}
