package material

import (
	"github.com/df07/go-recursive-raytracer/pkg/core"
)

// CheckerDiffuse is a diffuse material whose albedo follows a 3D checker pattern
type CheckerDiffuse struct {
	Pattern *CheckerTexture
}

// NewCheckerDiffuse creates a checker-diffuse material.
// A non-positive frequency falls back to DefaultCheckerFrequency.
func NewCheckerDiffuse(odd, even core.Vec3, frequency float64) *CheckerDiffuse {
	return &CheckerDiffuse{Pattern: NewCheckerTexture(odd, even, frequency)}
}

// Scatter implements core.Material
func (c *CheckerDiffuse) Scatter(rayIn core.Ray, hit *core.HitRecord, sampler core.Sampler) (core.ScatterResult, bool) {
	return diffuseScatter(rayIn, hit, sampler, c.Pattern.Evaluate(hit.Point))
}
