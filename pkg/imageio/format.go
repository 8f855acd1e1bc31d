// Package imageio converts rendered framebuffers to image files.
package imageio

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnknownFormat is returned for output formats that have no encoder
var ErrUnknownFormat = errors.New("unknown image format")

// Format names an output encoding
type Format string

const (
	FormatPPM       Format = "ppm"        // Plain-text P3
	FormatPPMBinary Format = "ppm-binary" // Raw P6
	FormatPNG       Format = "png"
	FormatBMP       Format = "bmp"
	FormatTIFF      Format = "tiff"
)

// Formats lists every supported output format
func Formats() []Format {
	return []Format{FormatPPM, FormatPPMBinary, FormatPNG, FormatBMP, FormatTIFF}
}

// ParseFormat validates a user-supplied format name
func ParseFormat(name string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(name)))
	switch f {
	case FormatPPM, FormatPPMBinary, FormatPNG, FormatBMP, FormatTIFF:
		return f, nil
	case "tif":
		return FormatTIFF, nil
	case "p3":
		return FormatPPM, nil
	case "p6":
		return FormatPPMBinary, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// FormatFromPath infers the format from a file extension. ".ppm" selects plain-text P3.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ppm":
		return FormatPPM, nil
	case ".png":
		return FormatPNG, nil
	case ".bmp":
		return FormatBMP, nil
	case ".tif", ".tiff":
		return FormatTIFF, nil
	}
	return "", fmt.Errorf("%w: cannot infer from %q", ErrUnknownFormat, path)
}

// Extension returns the file extension, without the dot, used for f
func (f Format) Extension() string {
	if f == FormatPPMBinary {
		return "ppm"
	}
	return string(f)
}
