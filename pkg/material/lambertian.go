package material

import (
	"github.com/df07/go-recursive-raytracer/pkg/core"
)

// Lambertian represents a perfectly diffuse material
type Lambertian struct {
	Albedo ColorSource // Base color/reflectance (can be solid or procedural)
}

// NewLambertian creates a new lambertian material with solid color
func NewLambertian(albedo core.Vec3) *Lambertian {
	return &Lambertian{Albedo: NewSolidColor(albedo)}
}

// NewTexturedLambertian creates a new lambertian material with a color source
func NewTexturedLambertian(albedo ColorSource) *Lambertian {
	return &Lambertian{Albedo: albedo}
}

// Scatter implements core.Material for lambertian scattering
func (l *Lambertian) Scatter(rayIn core.Ray, hit *core.HitRecord, sampler core.Sampler) (core.ScatterResult, bool) {
	return diffuseScatter(rayIn, hit, sampler, l.Albedo.Evaluate(hit.Point))
}

// diffuseScatter bounces along normal + random unit vector. A direction that
// cancels to zero is treated as absorption.
func diffuseScatter(rayIn core.Ray, hit *core.HitRecord, sampler core.Sampler, attenuation core.Vec3) (core.ScatterResult, bool) {
	direction := hit.Normal.Add(core.RandomUnitVector(sampler))
	if direction.NearZero() {
		return core.ScatterResult{}, false
	}

	return core.ScatterResult{
		Scattered:   core.NewRayAtTime(hit.Point, direction, rayIn.Time),
		Attenuation: attenuation,
	}, true
}
