package server

import (
	"fmt"
	"math"
	"net/http"

	"github.com/df07/go-recursive-raytracer/pkg/core"
	"github.com/df07/go-recursive-raytracer/pkg/geometry"
	"github.com/df07/go-recursive-raytracer/pkg/material"
	"github.com/df07/go-recursive-raytracer/pkg/renderer"
	"github.com/df07/go-recursive-raytracer/pkg/scene"
)

// inspectMinDistance matches the renderer's self-intersection offset
const inspectMinDistance = 0.001

// InspectResponse represents the JSON response for object inspection
type InspectResponse struct {
	Hit          bool           `json:"hit"`
	MaterialType string         `json:"materialType"`
	GeometryType string         `json:"geometryType"`
	Point        [3]float64     `json:"point"`
	Normal       [3]float64     `json:"normal"`
	Distance     float64        `json:"distance"`
	FrontFace    bool           `json:"frontFace"`
	Properties   map[string]any `json:"properties"`
}

func vec(v core.Vec3) [3]float64 { return [3]float64{v.X, v.Y, v.Z} }

func hexColor(c core.Vec3) string {
	c = c.Clamp(0, 1)
	return fmt.Sprintf("#%02x%02x%02x", int(c.X*255), int(c.Y*255), int(c.Z*255))
}

// extractMaterialInfo extracts detailed material information with type assertions
func extractMaterialInfo(mat core.Material) (string, map[string]any) {
	properties := make(map[string]any)

	switch m := mat.(type) {
	case *material.Lambertian:
		switch albedo := m.Albedo.(type) {
		case *material.SolidColor:
			properties["albedo"] = vec(albedo.Color)
			properties["color"] = hexColor(albedo.Color)
		case *material.CheckerTexture:
			addCheckerInfo(properties, albedo)
		}
		return "lambertian", properties

	case *material.Metal:
		properties["albedo"] = vec(m.Albedo)
		properties["color"] = hexColor(m.Albedo)
		properties["fuzzness"] = m.Fuzzness
		return "metal", properties

	case *material.CheckerDiffuse:
		addCheckerInfo(properties, m.Pattern)
		return "checker", properties

	case *material.Dielectric:
		properties["refractiveIndex"] = m.RefractiveIndex
		properties["tint"] = hexColor(m.Tint)
		return "dielectric", properties

	case *material.Mix:
		type1, props1 := extractMaterialInfo(m.Material1)
		type2, props2 := extractMaterialInfo(m.Material2)
		properties["ratio"] = m.Ratio
		properties["material1"] = map[string]any{"type": type1, "properties": props1}
		properties["material2"] = map[string]any{"type": type2, "properties": props2}
		return "mix", properties

	default:
		return "unknown", properties
	}
}

func addCheckerInfo(properties map[string]any, pattern *material.CheckerTexture) {
	properties["odd"] = hexColor(pattern.Odd)
	properties["even"] = hexColor(pattern.Even)
	properties["frequency"] = pattern.Frequency
}

// extractGeometryInfo extracts detailed geometry information
func extractGeometryInfo(shape core.Shape) (string, map[string]any) {
	properties := make(map[string]any)

	switch geom := shape.(type) {
	case *geometry.Sphere:
		properties["center"] = vec(geom.Center)
		properties["radius"] = geom.Radius
		return "sphere", properties

	case *geometry.Plane:
		properties["point"] = vec(geom.Point)
		properties["normal"] = vec(geom.Normal)
		return "plane", properties

	default:
		return "unknown", properties
	}
}

// InspectResult contains information about an object hit by an inspection ray
type InspectResult struct {
	Hit       bool
	HitRecord *core.HitRecord
	Shape     core.Shape // The shape that was hit, nil if it could not be identified
}

// inspectPixel casts a ray through the center of pixel (x, y) and reports the first object hit
func inspectPixel(world *scene.Scene, camera *renderer.Camera, x, y int) InspectResult {
	ray := camera.GetRay(x, y, nil)

	hit, isHit := world.Hit(ray, core.NewInterval(inspectMinDistance, math.Inf(1)))
	if !isHit {
		return InspectResult{Hit: false}
	}

	// The scene hit record does not name the shape, so find the member with the same hit
	for _, shape := range world.Shapes() {
		shapeHit, ok := shape.Hit(ray, core.NewInterval(inspectMinDistance, hit.T+inspectMinDistance))
		if ok && shapeHit.T == hit.T {
			return InspectResult{Hit: true, HitRecord: hit, Shape: shape}
		}
	}

	return InspectResult{Hit: true, HitRecord: hit}
}

// handleInspect handles ray casting inspection requests
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	req, err := parseRenderRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid scene parameters: "+err.Error())
		return
	}

	preset, raytracer, err := s.createRaytracer(req)
	if err != nil {
		writeError(w, sceneErrorStatus(err), err.Error())
		return
	}
	camera := raytracer.Camera()

	query := r.URL.Query()
	pixelX, err := parseIntParam(query, "x", -1, 0, camera.Width()-1)
	if err != nil || pixelX < 0 {
		writeError(w, http.StatusBadRequest, "Invalid x coordinate")
		return
	}
	pixelY, err := parseIntParam(query, "y", -1, 0, camera.Height()-1)
	if err != nil || pixelY < 0 {
		writeError(w, http.StatusBadRequest, "Invalid y coordinate")
		return
	}

	result := inspectPixel(preset.World, camera, pixelX, pixelY)
	if !result.Hit {
		writeJSON(w, http.StatusOK, InspectResponse{Hit: false})
		return
	}

	materialType, materialProps := extractMaterialInfo(result.HitRecord.Material)
	geometryType, geometryProps := extractGeometryInfo(result.Shape)

	writeJSON(w, http.StatusOK, InspectResponse{
		Hit:          true,
		MaterialType: materialType,
		GeometryType: geometryType,
		Point:        vec(result.HitRecord.Point),
		Normal:       vec(result.HitRecord.Normal),
		Distance:     result.HitRecord.T,
		FrontFace:    result.HitRecord.FrontFace,
		Properties: map[string]any{
			"material": materialProps,
			"geometry": geometryProps,
		},
	})
}
