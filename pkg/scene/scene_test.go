package scene

import (
	"math"
	"math/rand"
	"testing"

	"github.com/df07/go-recursive-raytracer/pkg/core"
	"github.com/df07/go-recursive-raytracer/pkg/geometry"
	"github.com/df07/go-recursive-raytracer/pkg/material"
)

var forward = core.NewInterval(0.001, math.Inf(1))

// unboundedShape wraps a shape but reports no bounding box
type unboundedShape struct {
	core.Shape
}

func (unboundedShape) BoundingBox() (core.AABB, bool) {
	return core.AABB{}, false
}

// bruteForceHit finds the nearest hit without any box pruning
func bruteForceHit(shapes []core.Shape, ray core.Ray, rayT core.Interval) (*core.HitRecord, bool) {
	var closest *core.HitRecord
	for _, shape := range shapes {
		if hit, ok := shape.Hit(ray, rayT); ok && (closest == nil || hit.T < closest.T) {
			closest = hit
		}
	}
	return closest, closest != nil
}

func TestScene_NearestHitWins(t *testing.T) {
	sphereMaterial := material.NewLambertian(core.NewVec3(1, 0, 0))
	planeMaterial := material.NewLambertian(core.NewVec3(0, 1, 0))

	sphere := geometry.NewSphere(core.NewVec3(0, 0, -1.5), 0.5, sphereMaterial)
	plane := geometry.NewPlane(core.NewVec3(0, 0, -2), core.NewVec3(0, 0, 1), planeMaterial)
	ray := core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1))

	orders := map[string]*Scene{
		"plane first":  New(plane, sphere),
		"sphere first": New(sphere, plane),
	}

	for name, s := range orders {
		t.Run(name, func(t *testing.T) {
			hit, ok := s.Hit(ray, forward)
			if !ok {
				t.Fatal("Expected a hit")
			}
			if math.Abs(hit.T-1.0) > 1e-9 {
				t.Errorf("Expected t=1, got %f", hit.T)
			}
			if hit.Material != sphereMaterial {
				t.Errorf("Expected the sphere's material, got %v", hit.Material)
			}
		})
	}
}

func TestScene_PermutationInvariant(t *testing.T) {
	random := rand.New(rand.NewSource(5))
	mat := material.NewLambertian(core.NewVec3(0.5, 0.5, 0.5))

	shapes := []core.Shape{
		geometry.NewSphere(core.NewVec3(0, 0, -3), 1, mat),
		geometry.NewSphere(core.NewVec3(0.5, 0.2, -4), 1.5, mat),
		geometry.NewSphere(core.NewVec3(-1, -0.5, -2), 0.7, mat),
		geometry.NewPlane(core.NewVec3(0, -1, 0), core.NewVec3(0, 1, 0), mat),
		geometry.NewPlane(core.NewVec3(0, 0, -5), core.NewVec3(0.3, 0.1, 1), mat),
	}

	for n := 0; n < 200; n++ {
		ray := core.NewRay(
			core.NewVec3(random.Float64()-0.5, random.Float64()-0.5, random.Float64()),
			core.NewVec3(random.Float64()*2-1, random.Float64()*2-1, -random.Float64()),
		)

		reference, refOK := New(shapes...).Hit(ray, forward)

		for p := 0; p < 5; p++ {
			permuted := make([]core.Shape, len(shapes))
			copy(permuted, shapes)
			random.Shuffle(len(permuted), func(i, j int) { permuted[i], permuted[j] = permuted[j], permuted[i] })

			hit, ok := New(permuted...).Hit(ray, forward)
			if ok != refOK {
				t.Fatalf("Ray %v: hit reported %v in one order and %v in another", ray, refOK, ok)
			}
			if ok && (hit.T != reference.T || hit.Point != reference.Point || hit.Normal != reference.Normal) {
				t.Fatalf("Ray %v: expected t=%f, got t=%f after permutation", ray, reference.T, hit.T)
			}
		}
	}
}

func TestScene_PruningMatchesBruteForce(t *testing.T) {
	random := rand.New(rand.NewSource(17))
	mat := material.NewLambertian(core.NewVec3(0.5, 0.5, 0.5))

	var shapes []core.Shape
	for i := 0; i < 20; i++ {
		center := core.NewVec3(random.Float64()*8-4, random.Float64()*8-4, -random.Float64()*8-1)
		shapes = append(shapes, geometry.NewSphere(center, 0.2+random.Float64(), mat))
	}
	shapes = append(shapes, geometry.NewPlane(core.NewVec3(0, -4, 0), core.NewVec3(0, 1, 0), mat))
	world := New(shapes...)

	for n := 0; n < 500; n++ {
		ray := core.NewRay(core.Vec3{}, core.NewVec3(random.Float64()*2-1, random.Float64()*2-1, -1))

		want, wantOK := bruteForceHit(shapes, ray, forward)
		got, gotOK := world.Hit(ray, forward)
		if wantOK != gotOK {
			t.Fatalf("Ray %v: brute force hit=%v, scene hit=%v", ray, wantOK, gotOK)
		}
		if wantOK && got.T != want.T {
			t.Fatalf("Ray %v: expected t=%f, got %f", ray, want.T, got.T)
		}
	}

	// Directions need not be unit length; tiny ones must not be pruned as parallel
	wide := core.NewInterval(0.001, 1e300)
	hits := 0
	for n := 0; n < 500; n++ {
		d := core.NewVec3(random.Float64()*2-1, random.Float64()*2-1, -1).Multiply(1e-9)
		ray := core.NewRay(core.Vec3{}, d)

		want, wantOK := bruteForceHit(shapes, ray, wide)
		got, gotOK := world.Hit(ray, wide)
		if wantOK != gotOK {
			t.Fatalf("Ray %v: brute force hit=%v, scene hit=%v", ray, wantOK, gotOK)
		}
		if wantOK {
			hits++
			if got.T != want.T {
				t.Fatalf("Ray %v: expected t=%g, got %g", ray, want.T, got.T)
			}
		}
	}
	if hits == 0 {
		t.Fatal("Expected some short-direction rays to hit")
	}
}

func TestScene_TinyDirectionStillHits(t *testing.T) {
	sphere := geometry.NewSphere(core.NewVec3(5, 0, 0), 0.5, material.NewLambertian(core.NewVec3(1, 1, 1)))
	ray := core.NewRay(core.Vec3{}, core.NewVec3(1e-9, 0, 0))
	window := core.NewInterval(0.001, 1e300)

	exact, ok := sphere.Hit(ray, window)
	if !ok {
		t.Fatal("Expected the sphere itself to report a hit")
	}
	hit, ok := New(sphere).Hit(ray, window)
	if !ok {
		t.Fatal("Bounding box pruning discarded a true hit")
	}
	if hit.T != exact.T {
		t.Errorf("Expected t=%g, got %g", exact.T, hit.T)
	}
}

func TestScene_UnboundedMembersStillTested(t *testing.T) {
	mat := material.NewLambertian(core.NewVec3(1, 1, 1))
	sphere := unboundedShape{geometry.NewSphere(core.NewVec3(0, 0, -2), 0.5, mat)}
	s := New(sphere)

	hit, ok := s.Hit(core.NewRay(core.Vec3{}, core.NewVec3(0, 0, -1)), forward)
	if !ok || math.Abs(hit.T-1.5) > 1e-9 {
		t.Fatalf("Expected hit at t=1.5, got %v (ok=%v)", hit, ok)
	}
	if _, bounded := s.BoundingBox(); bounded {
		t.Error("Expected scene with an unbounded member to report no box")
	}
}

func TestScene_Empty(t *testing.T) {
	s := New()

	if _, ok := s.Hit(core.NewRay(core.Vec3{}, core.NewVec3(0, 0, -1)), forward); ok {
		t.Error("Expected empty scene to miss")
	}
	if _, ok := s.BoundingBox(); ok {
		t.Error("Expected empty scene to have no bounding box")
	}
}

func TestScene_BoundingBox(t *testing.T) {
	mat := material.NewLambertian(core.NewVec3(1, 1, 1))
	s := New(
		geometry.NewSphere(core.NewVec3(0, 0, 0), 1, mat),
		geometry.NewSphere(core.NewVec3(5, 1, -2), 0.5, mat),
	)

	box, ok := s.BoundingBox()
	if !ok {
		t.Fatal("Expected a bounding box")
	}
	if box.Min != core.NewVec3(-1, -1, -2.5) || box.Max != core.NewVec3(5.5, 1.5, 1) {
		t.Errorf("Unexpected bounding box %v", box)
	}
}

func TestScene_AddClear(t *testing.T) {
	mat := material.NewLambertian(core.NewVec3(1, 1, 1))
	s := New()
	s.Add(geometry.NewSphere(core.NewVec3(0, 0, -1), 0.5, mat), nil)

	if s.Len() != 1 {
		t.Fatalf("Expected nil shapes to be ignored, got %d members", s.Len())
	}

	shapes := s.Shapes()
	shapes[0] = nil
	if s.Shapes()[0] == nil {
		t.Error("Shapes should return a copy")
	}

	s.Clear()
	if s.Len() != 0 {
		t.Errorf("Expected empty scene after Clear, got %d members", s.Len())
	}
	if _, ok := s.Hit(core.NewRay(core.Vec3{}, core.NewVec3(0, 0, -1)), forward); ok {
		t.Error("Expected cleared scene to miss")
	}
}
