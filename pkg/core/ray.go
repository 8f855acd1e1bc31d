package core

import "math"

// Ray represents a ray with an origin and direction.
// Direction is not required to be unit length.
type Ray struct {
	Origin    Vec3
	Direction Vec3
	Time      float64 // Reserved for motion blur, not read by the tracer
}

// NewRay creates a new ray
func NewRay(origin, direction Vec3) Ray {
	return Ray{Origin: origin, Direction: direction}
}

// NewRayAtTime creates a ray tagged with a sample time
func NewRayAtTime(origin, direction Vec3, time float64) Ray {
	return Ray{Origin: origin, Direction: direction, Time: time}
}

// At returns the point at parameter t along the ray
func (r Ray) At(t float64) Vec3 {
	return r.Origin.Add(r.Direction.Multiply(t))
}

// Interval is a range of the ray parameter t
type Interval struct {
	Min, Max float64
}

var (
	// EmptyInterval contains no values
	EmptyInterval = Interval{Min: math.Inf(1), Max: math.Inf(-1)}
	// UniverseInterval contains every value
	UniverseInterval = Interval{Min: math.Inf(-1), Max: math.Inf(1)}
)

// NewInterval creates a new interval
func NewInterval(min, max float64) Interval {
	return Interval{Min: min, Max: max}
}

// Size returns Max - Min
func (i Interval) Size() float64 {
	return i.Max - i.Min
}

// Contains reports whether min <= t <= max
func (i Interval) Contains(t float64) bool {
	return i.Min <= t && t <= i.Max
}

// Surrounds reports whether min < t < max
func (i Interval) Surrounds(t float64) bool {
	return i.Min < t && t < i.Max
}

// Clamp limits t to the interval
func (i Interval) Clamp(t float64) float64 {
	if t < i.Min {
		return i.Min
	}
	if t > i.Max {
		return i.Max
	}
	return t
}

// IsEmpty reports whether the interval holds no values
func (i Interval) IsEmpty() bool {
	return !(i.Min <= i.Max)
}

// WithMax returns a copy of the interval with a new upper bound
func (i Interval) WithMax(max float64) Interval {
	return Interval{Min: i.Min, Max: max}
}
