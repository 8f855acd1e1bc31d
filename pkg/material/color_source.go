package material

import (
	"math"

	"github.com/df07/go-recursive-raytracer/pkg/core"
)

// ColorSource provides spatially-varying colors for materials
type ColorSource interface {
	// Evaluate returns the color at a world-space point
	Evaluate(point core.Vec3) core.Vec3
}

// SolidColor provides uniform color
type SolidColor struct {
	Color core.Vec3
}

// NewSolidColor creates a new solid color source
func NewSolidColor(color core.Vec3) *SolidColor {
	return &SolidColor{Color: color}
}

// Evaluate returns the solid color regardless of position
func (s *SolidColor) Evaluate(point core.Vec3) core.Vec3 {
	return s.Color
}

// DefaultCheckerFrequency is used when a checker is built with a non-positive frequency
const DefaultCheckerFrequency = 10.0

// CheckerTexture is a procedural 3D checker pattern
type CheckerTexture struct {
	Odd       core.Vec3 // Color where the sine product is negative
	Even      core.Vec3 // Color elsewhere
	Frequency float64
}

// NewCheckerTexture creates a checker pattern
func NewCheckerTexture(odd, even core.Vec3, frequency float64) *CheckerTexture {
	if frequency <= 0 {
		frequency = DefaultCheckerFrequency
	}
	return &CheckerTexture{Odd: odd, Even: even, Frequency: frequency}
}

// Evaluate selects a color from the sign of sin(fx)·sin(fy)·sin(fz)
func (c *CheckerTexture) Evaluate(point core.Vec3) core.Vec3 {
	sines := math.Sin(c.Frequency*point.X) *
		math.Sin(c.Frequency*point.Y) *
		math.Sin(c.Frequency*point.Z)
	if sines < 0 {
		return c.Odd
	}
	return c.Even
}
