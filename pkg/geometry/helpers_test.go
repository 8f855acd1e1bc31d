package geometry

import (
	"math"
	"testing"

	"github.com/df07/go-recursive-raytracer/pkg/core"
)

// DummyMaterial satisfies core.Material without scattering
type DummyMaterial struct{}

func (DummyMaterial) Scatter(rayIn core.Ray, hit *core.HitRecord, sampler core.Sampler) (core.ScatterResult, bool) {
	return core.ScatterResult{}, false
}

func assertVecNear(t *testing.T, label string, got, expected core.Vec3) {
	t.Helper()
	const tolerance = 1e-9
	if math.Abs(got.X-expected.X) > tolerance ||
		math.Abs(got.Y-expected.Y) > tolerance ||
		math.Abs(got.Z-expected.Z) > tolerance {
		t.Errorf("Expected %s %v, got %v", label, expected, got)
	}
}

// assertNormalInvariant checks the unit-length, ray-opposing shading normal
func assertNormalInvariant(t *testing.T, ray core.Ray, hit *core.HitRecord) {
	t.Helper()
	if math.Abs(hit.Normal.Length()-1) > 1e-9 {
		t.Fatalf("Normal %v is not unit length", hit.Normal)
	}
	if ray.Direction.Dot(hit.Normal) > 1e-12 {
		t.Fatalf("Normal %v does not oppose ray direction %v", hit.Normal, ray.Direction)
	}
}
