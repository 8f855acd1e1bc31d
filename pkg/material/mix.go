package material

import (
	"github.com/df07/go-recursive-raytracer/pkg/core"
)

// Mix represents a material that probabilistically chooses between two materials
type Mix struct {
	Material1 core.Material
	Material2 core.Material
	Ratio     float64 // 0.0 = all material1, 1.0 = all material2
}

// NewMix creates a new mix material. Ratio is clamped to [0, 1].
func NewMix(material1, material2 core.Material, ratio float64) *Mix {
	return &Mix{
		Material1: material1,
		Material2: material2,
		Ratio:     max(0.0, min(ratio, 1.0)),
	}
}

// Scatter implements core.Material by delegating to one of the two materials.
// A nil component absorbs.
func (m *Mix) Scatter(rayIn core.Ray, hit *core.HitRecord, sampler core.Sampler) (core.ScatterResult, bool) {
	chosen := m.Material1
	if sampler.Get1D() < m.Ratio {
		chosen = m.Material2
	}
	if chosen == nil {
		return core.ScatterResult{}, false
	}
	return chosen.Scatter(rayIn, hit, sampler)
}
