package imageio

import (
	"bufio"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/df07/go-recursive-raytracer/pkg/renderer"
)

// Options control the conversion from linear framebuffer to file
type Options struct {
	Gamma float64 // Gamma applied before quantization; <= 0 or 1 keeps values linear
	Scale int     // Integer upscale factor for previews; <= 1 keeps native size
	Stamp string  // Optional caption drawn in the bottom-left corner
}

// Encode writes fb to w in the given format
func Encode(w io.Writer, fb *renderer.Framebuffer, format Format, opts Options) error {
	// PPM is written straight from the framebuffer unless post-processing is requested
	if (format == FormatPPM || format == FormatPPMBinary) && opts.Scale <= 1 && opts.Stamp == "" {
		return WritePPM(w, fb, opts.Gamma, format == FormatPPMBinary)
	}

	img := Prepare(fb, opts)

	switch format {
	case FormatPPM, FormatPPMBinary:
		return writePPMImage(w, img, format == FormatPPMBinary)
	case FormatPNG:
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		return enc.Encode(w, img)
	case FormatBMP:
		return bmp.Encode(w, img)
	case FormatTIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// Prepare converts fb to an 8-bit image and applies scaling and stamping
func Prepare(fb *renderer.Framebuffer, opts Options) *image.RGBA {
	img := ToRGBA(fb, opts.Gamma)
	if opts.Scale > 1 {
		img = Upscale(img, opts.Scale)
	}
	if opts.Stamp != "" {
		Stamp(img, opts.Stamp)
	}
	return img
}

// WriteFile encodes fb into path. "-" writes to standard output.
func WriteFile(path string, fb *renderer.Framebuffer, format Format, opts Options) (err error) {
	if path == "-" {
		w := bufio.NewWriter(os.Stdout)
		if err := Encode(w, fb, format, opts); err != nil {
			return err
		}
		return w.Flush()
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close output file: %w", cerr)
		}
	}()

	w := bufio.NewWriter(f)
	if err := Encode(w, fb, format, opts); err != nil {
		return fmt.Errorf("failed to encode %s: %w", format, err)
	}
	return w.Flush()
}
