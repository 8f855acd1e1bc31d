package geometry

import (
	"math"

	"github.com/df07/go-recursive-raytracer/pkg/core"
)

const (
	// planeExtent bounds the plane's box in its in-plane directions
	planeExtent = 1e5
	// planeThickness is the half-thickness of the box along an aligned normal
	planeThickness = 1e-3
	// parallelEpsilon rejects rays running (almost) along the plane
	parallelEpsilon = 1e-8
)

// AxisAlignment describes which axis a normal is parallel to
type AxisAlignment int

const (
	NotAxisAligned AxisAlignment = iota
	XAxisAligned
	YAxisAligned
	ZAxisAligned
)

// Plane represents an infinite plane defined by a point and normal
type Plane struct {
	Point    core.Vec3     // A point on the plane
	Normal   core.Vec3     // Unit normal vector
	Material core.Material // Material of the plane
}

// NewPlane creates a new plane. The normal is normalized; a zero normal
// produces a plane that never reports a hit.
func NewPlane(point, normal core.Vec3, material core.Material) *Plane {
	return &Plane{
		Point:    point,
		Normal:   normal.Normalize(),
		Material: material,
	}
}

// Hit tests if a ray intersects with the plane
func (p *Plane) Hit(ray core.Ray, rayT core.Interval) (*core.HitRecord, bool) {
	denominator := p.Normal.Dot(ray.Direction)

	// Ray is parallel to the plane (or the plane is degenerate)
	if math.Abs(denominator) < parallelEpsilon {
		return nil, false
	}

	// t = (point_on_plane - ray_origin) · normal / (ray_direction · normal)
	t := p.Point.Subtract(ray.Origin).Dot(p.Normal) / denominator
	if !rayT.Surrounds(t) {
		return nil, false
	}

	hitRecord := &core.HitRecord{
		T:        t,
		Point:    ray.At(t),
		Material: p.Material,
	}
	hitRecord.SetFaceNormal(ray, p.Normal)

	return hitRecord, true
}

// BoundingBox returns a large slab around the plane. Axis-aligned planes get
// a thin box along their normal; any other orientation gets a large cube.
func (p *Plane) BoundingBox() (core.AABB, bool) {
	extent := core.NewVec3(planeExtent, planeExtent, planeExtent)
	min := p.Point.Subtract(extent)
	max := p.Point.Add(extent)

	switch getAxisAlignment(p.Normal) {
	case XAxisAligned:
		min.X, max.X = p.Point.X-planeThickness, p.Point.X+planeThickness
	case YAxisAligned:
		min.Y, max.Y = p.Point.Y-planeThickness, p.Point.Y+planeThickness
	case ZAxisAligned:
		min.Z, max.Z = p.Point.Z-planeThickness, p.Point.Z+planeThickness
	}

	return core.NewAABB(min, max), true
}

// getAxisAlignment reports the axis a unit normal points along, if any
func getAxisAlignment(normal core.Vec3) AxisAlignment {
	const tolerance = 1e-9
	ax, ay, az := math.Abs(normal.X), math.Abs(normal.Y), math.Abs(normal.Z)

	switch {
	case ay < tolerance && az < tolerance && ax > tolerance:
		return XAxisAligned
	case ax < tolerance && az < tolerance && ay > tolerance:
		return YAxisAligned
	case ax < tolerance && ay < tolerance && az > tolerance:
		return ZAxisAligned
	default:
		return NotAxisAligned
	}
}
