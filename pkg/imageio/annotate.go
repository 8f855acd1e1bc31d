package imageio

import (
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Upscale enlarges img by an integer factor with nearest-neighbour sampling,
// keeping pixel edges sharp for inspection
func Upscale(img *image.RGBA, factor int) *image.RGBA {
	if factor <= 1 {
		return img
	}
	bounds := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx()*factor, bounds.Dy()*factor))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), img, bounds, xdraw.Src, nil)
	return dst
}

// Stamp draws a single line of text on a dark band along the bottom edge
func Stamp(img *image.RGBA, text string) {
	face := basicfont.Face7x13
	metrics := face.Metrics()
	height := int(metrics.Height>>6) + 4
	bounds := img.Bounds()

	band := image.Rect(bounds.Min.X, max(bounds.Min.Y, bounds.Max.Y-height), bounds.Max.X, bounds.Max.Y)
	draw.Draw(img, band, image.NewUniform(color.RGBA{A: 160}), image.Point{}, draw.Over)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.White),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(bounds.Min.X + 2), Y: fixed.I(bounds.Max.Y-2) - metrics.Descent},
	}
	d.DrawString(text)
}
