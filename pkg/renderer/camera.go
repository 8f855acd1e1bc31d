package renderer

import (
	"math"

	"github.com/df07/go-recursive-raytracer/pkg/core"
)

// CameraConfig contains all camera configuration parameters
type CameraConfig struct {
	Center      core.Vec3 // Camera position
	LookAt      core.Vec3 // Point the camera is looking at
	Up          core.Vec3 // Up direction (usually 0,1,0)
	Width       int       // Image width in pixels
	AspectRatio float64   // Aspect ratio (width/height)
	VFov        float64   // Vertical field of view in degrees
	FocalLength float64   // Distance from the camera center to the viewport
}

// DefaultCameraConfig looks from the origin down -Z with a 90 degree field of view
func DefaultCameraConfig() CameraConfig {
	return CameraConfig{
		Center:      core.NewVec3(0, 0, 0),
		LookAt:      core.NewVec3(0, 0, -1),
		Up:          core.NewVec3(0, 1, 0),
		Width:       400,
		AspectRatio: 16.0 / 9.0,
		VFov:        90.0,
		FocalLength: 1.0,
	}
}

// MergeCameraConfig returns base with every non-zero field of override applied.
// A zero vector or number in override means "keep the base value".
func MergeCameraConfig(base, override CameraConfig) CameraConfig {
	result := base
	if override.Center != (core.Vec3{}) {
		result.Center = override.Center
	}
	if override.LookAt != (core.Vec3{}) {
		result.LookAt = override.LookAt
	}
	if override.Up != (core.Vec3{}) {
		result.Up = override.Up
	}
	if override.Width > 0 {
		result.Width = override.Width
	}
	if override.AspectRatio > 0 {
		result.AspectRatio = override.AspectRatio
	}
	if override.VFov > 0 {
		result.VFov = override.VFov
	}
	if override.FocalLength > 0 {
		result.FocalLength = override.FocalLength
	}
	return result
}

// ImageHeight derives the pixel height from a width and aspect ratio, never less than 1
func ImageHeight(width int, aspectRatio float64) int {
	if aspectRatio <= 0 {
		return max(1, width)
	}
	return max(1, int(float64(width)/aspectRatio))
}

// Camera generates primary rays for a pinhole camera
type Camera struct {
	config      CameraConfig
	width       int
	height      int
	center      core.Vec3
	pixel00     core.Vec3 // Center of the top-left pixel
	pixelDeltaU core.Vec3 // Offset to the pixel to the right
	pixelDeltaV core.Vec3 // Offset to the pixel below
}

// NewCamera creates a camera. Missing scalar settings fall back to DefaultCameraConfig.
func NewCamera(config CameraConfig) *Camera {
	defaults := DefaultCameraConfig()
	if config.Width <= 0 {
		config.Width = defaults.Width
	}
	if config.AspectRatio <= 0 {
		config.AspectRatio = defaults.AspectRatio
	}
	if config.VFov <= 0 || config.VFov >= 180 {
		config.VFov = defaults.VFov
	}
	if config.FocalLength <= 0 {
		config.FocalLength = defaults.FocalLength
	}
	if config.Up.NearZero() {
		config.Up = defaults.Up
	}

	width := config.Width
	height := ImageHeight(width, config.AspectRatio)

	// Orthonormal basis; w points backwards from the view direction
	w := config.Center.Subtract(config.LookAt).Normalize()
	if w.NearZero() {
		w = core.NewVec3(0, 0, 1)
	}
	u := config.Up.Cross(w).Normalize()
	if u.NearZero() {
		// Up is parallel to the view direction
		u = core.NewVec3(1, 0, 0).Cross(w).Normalize()
		if u.NearZero() {
			u = core.NewVec3(0, 0, 1).Cross(w).Normalize()
		}
	}
	v := w.Cross(u)

	theta := config.VFov * math.Pi / 180.0
	viewportHeight := 2.0 * math.Tan(theta/2.0) * config.FocalLength
	viewportWidth := viewportHeight * float64(width) / float64(height)

	viewportU := u.Multiply(viewportWidth)
	viewportV := v.Multiply(-viewportHeight)
	pixelDeltaU := viewportU.Multiply(1.0 / float64(width))
	pixelDeltaV := viewportV.Multiply(1.0 / float64(height))

	upperLeft := config.Center.
		Subtract(w.Multiply(config.FocalLength)).
		Subtract(viewportU.Multiply(0.5)).
		Subtract(viewportV.Multiply(0.5))
	pixel00 := upperLeft.Add(pixelDeltaU.Add(pixelDeltaV).Multiply(0.5))

	return &Camera{
		config:      config,
		width:       width,
		height:      height,
		center:      config.Center,
		pixel00:     pixel00,
		pixelDeltaU: pixelDeltaU,
		pixelDeltaV: pixelDeltaV,
	}
}

// Width returns the image width in pixels
func (c *Camera) Width() int { return c.width }

// Height returns the image height in pixels
func (c *Camera) Height() int { return c.height }

// Config returns the effective configuration after defaults were applied
func (c *Camera) Config() CameraConfig { return c.config }

// GetRay returns the ray through pixel (i, j), with j counted from the top row.
// A nil sampler aims at the pixel center; otherwise the target is jittered
// uniformly within the pixel square.
func (c *Camera) GetRay(i, j int, sampler core.Sampler) core.Ray {
	offsetU, offsetV := 0.0, 0.0
	if sampler != nil {
		jitter := sampler.Get2D()
		offsetU = jitter.X - 0.5
		offsetV = jitter.Y - 0.5
	}

	pixelSample := c.pixel00.
		Add(c.pixelDeltaU.Multiply(float64(i) + offsetU)).
		Add(c.pixelDeltaV.Multiply(float64(j) + offsetV))

	return core.NewRay(c.center, pixelSample.Subtract(c.center))
}
