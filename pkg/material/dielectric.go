package material

import (
	"math"

	"github.com/df07/go-recursive-raytracer/pkg/core"
)

// Dielectric represents a transparent material like glass that can both reflect and refract
type Dielectric struct {
	RefractiveIndex float64   // Index of refraction (e.g., 1.5 for glass)
	Tint            core.Vec3 // Attenuation per interaction, white for clear glass
}

// NewDielectric creates a clear dielectric material
func NewDielectric(refractiveIndex float64) *Dielectric {
	return NewTintedDielectric(refractiveIndex, core.NewVec3(1.0, 1.0, 1.0))
}

// NewTintedDielectric creates a colored dielectric material
func NewTintedDielectric(refractiveIndex float64, tint core.Vec3) *Dielectric {
	return &Dielectric{RefractiveIndex: refractiveIndex, Tint: tint}
}

// Scatter implements core.Material for dielectric scattering.
// Reflection and refraction are chosen stochastically by Schlick reflectance.
func (d *Dielectric) Scatter(rayIn core.Ray, hit *core.HitRecord, sampler core.Sampler) (core.ScatterResult, bool) {
	unitDirection := rayIn.Direction.Normalize()
	if unitDirection.NearZero() || d.RefractiveIndex <= 0 {
		return core.ScatterResult{}, false
	}

	// Entering from air, or leaving back into it
	refractionRatio := d.RefractiveIndex
	if hit.FrontFace {
		refractionRatio = 1.0 / d.RefractiveIndex
	}

	cosTheta := math.Min(-unitDirection.Dot(hit.Normal), 1.0)
	sinTheta := math.Sqrt(math.Max(0, 1.0-cosTheta*cosTheta))

	// Total internal reflection
	cannotRefract := refractionRatio*sinTheta > 1.0

	var direction core.Vec3
	if cannotRefract || Reflectance(cosTheta, refractionRatio) > sampler.Get1D() {
		direction = reflect(unitDirection, hit.Normal)
	} else {
		direction = refract(unitDirection, hit.Normal, refractionRatio)
	}

	return core.ScatterResult{
		Scattered:   core.NewRayAtTime(hit.Point, direction, rayIn.Time),
		Attenuation: d.Tint,
	}, true
}

// refract bends a unit vector through a surface using Snell's law
func refract(uv, n core.Vec3, etaiOverEtat float64) core.Vec3 {
	cosTheta := math.Min(-uv.Dot(n), 1.0)
	rOutPerp := uv.Add(n.Multiply(cosTheta)).Multiply(etaiOverEtat)
	rOutParallel := n.Multiply(-math.Sqrt(math.Abs(1.0 - rOutPerp.LengthSquared())))
	return rOutPerp.Add(rOutParallel)
}

// Reflectance calculates the Fresnel reflectance using Schlick's approximation
func Reflectance(cosine, refractionRatio float64) float64 {
	r0 := (1 - refractionRatio) / (1 + refractionRatio)
	r0 = r0 * r0
	return r0 + (1-r0)*math.Pow(1-cosine, 5)
}
