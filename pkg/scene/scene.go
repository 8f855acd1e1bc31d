package scene

import (
	"github.com/df07/go-recursive-raytracer/pkg/core"
)

// Scene is an ordered collection of shapes that is itself a shape
type Scene struct {
	shapes []core.Shape
}

// New creates a scene holding the given shapes
func New(shapes ...core.Shape) *Scene {
	s := &Scene{}
	s.Add(shapes...)
	return s
}

// Add appends shapes to the scene, ignoring nil entries
func (s *Scene) Add(shapes ...core.Shape) {
	for _, shape := range shapes {
		if shape != nil {
			s.shapes = append(s.shapes, shape)
		}
	}
}

// Clear removes every shape
func (s *Scene) Clear() {
	s.shapes = nil
}

// Len returns the number of shapes
func (s *Scene) Len() int {
	return len(s.shapes)
}

// Shapes returns a copy of the member list
func (s *Scene) Shapes() []core.Shape {
	out := make([]core.Shape, len(s.shapes))
	copy(out, s.shapes)
	return out
}

// Hit returns the nearest intersection over all members.
// Each member's bounding box is checked against the shrinking window first;
// members without a box are always tested exactly.
func (s *Scene) Hit(ray core.Ray, rayT core.Interval) (*core.HitRecord, bool) {
	var closestHit *core.HitRecord
	window := rayT

	for _, shape := range s.shapes {
		if box, ok := shape.BoundingBox(); ok && !box.Hit(ray, window) {
			continue
		}
		if hit, isHit := shape.Hit(ray, window); isHit {
			closestHit = hit
			window = window.WithMax(hit.T)
		}
	}

	return closestHit, closestHit != nil
}

// BoundingBox returns the union of all member boxes.
// It reports false when the scene is empty or any member is unbounded.
func (s *Scene) BoundingBox() (core.AABB, bool) {
	if len(s.shapes) == 0 {
		return core.AABB{}, false
	}

	var result core.AABB
	for i, shape := range s.shapes {
		box, ok := shape.BoundingBox()
		if !ok {
			return core.AABB{}, false
		}
		if i == 0 {
			result = box
		} else {
			result = core.SurroundingBox(result, box)
		}
	}
	return result, true
}
