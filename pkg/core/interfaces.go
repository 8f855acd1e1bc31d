package core

// Shape is anything a ray can be tested against
type Shape interface {
	// Hit returns the intersection nearest to the ray origin whose t lies inside rayT
	Hit(ray Ray, rayT Interval) (*HitRecord, bool)
	// BoundingBox returns a conservative bound, or false if the shape has none
	BoundingBox() (AABB, bool)
}

// Material decides how a ray continues after striking a surface
type Material interface {
	// Scatter returns the continuation ray and its attenuation, or false when the ray is absorbed
	Scatter(rayIn Ray, hit *HitRecord, sampler Sampler) (ScatterResult, bool)
}

// ScatterResult contains the result of material scattering
type ScatterResult struct {
	Scattered   Ray  // The scattered ray
	Attenuation Vec3 // Color attenuation
}

// HitRecord contains information about a ray-object intersection
type HitRecord struct {
	Point     Vec3     // Point of intersection
	Normal    Vec3     // Unit surface normal, always opposing the incoming ray
	T         float64  // Parameter t along the ray
	FrontFace bool     // Whether ray hit the front face
	Material  Material // Material of the hit object, shared with other shapes
}

// SetFaceNormal sets the normal vector and determines front/back face.
// outwardNormal is normalized here so callers may pass any length.
func (h *HitRecord) SetFaceNormal(ray Ray, outwardNormal Vec3) {
	outwardNormal = outwardNormal.Normalize()
	h.FrontFace = ray.Direction.Dot(outwardNormal) < 0
	if h.FrontFace {
		h.Normal = outwardNormal
	} else {
		h.Normal = outwardNormal.Negate()
	}
}
