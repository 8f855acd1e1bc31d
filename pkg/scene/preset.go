package scene

import (
	"errors"
	"fmt"
	"sort"

	"github.com/df07/go-recursive-raytracer/pkg/renderer"
)

// ErrUnknownScene is returned when a built-in scene name is not registered
var ErrUnknownScene = errors.New("unknown scene")

// Preset bundles a world with the camera, sampling and background it is meant to be rendered with
type Preset struct {
	Name        string
	Description string
	World       *Scene
	Camera      renderer.CameraConfig
	Sampling    renderer.SamplingConfig
	Background  renderer.Background
}

// NewRaytracer builds a raytracer for the preset
func (p *Preset) NewRaytracer() *renderer.Raytracer {
	return renderer.NewRaytracer(p.World, renderer.NewCamera(p.Camera), p.Background, p.Sampling)
}

// Builder constructs a preset, applying an optional camera override
type Builder func(cameraOverrides ...renderer.CameraConfig) *Preset

type builtinScene struct {
	description string
	build       Builder
}

const (
	defaultDescription    = "Ground sphere with a diffuse center and two metal spheres"
	checkerDescription    = "Checkered ground plane under three spheres"
	sphereGridDescription = "Grid of metallic spheres colored across the OKLCH hue wheel"
	glassDescription      = "Clear and tinted glass beside a half-matte, half-mirror sphere"
	emptyDescription      = "No geometry, only the sky gradient"
)

var builtins = map[string]builtinScene{
	"default":    {defaultDescription, NewDefaultScene},
	"checker":    {checkerDescription, NewCheckerScene},
	"spheregrid": {sphereGridDescription, NewSphereGridScene},
	"glass":      {glassDescription, NewGlassScene},
	"empty":      {emptyDescription, NewEmptyScene},
}

// Builtin returns a fresh copy of the named built-in scene
func Builtin(name string, cameraOverrides ...renderer.CameraConfig) (*Preset, error) {
	b, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScene, name)
	}
	return b.build(cameraOverrides...), nil
}

// BuiltinNames returns the registered scene names in sorted order
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BuiltinDescription returns the one-line description of a built-in scene
func BuiltinDescription(name string) string {
	return builtins[name].description
}

// newPreset applies the first camera override, if any, on top of the scene's own camera
func newPreset(name, description string, world *Scene, camera renderer.CameraConfig, sampling renderer.SamplingConfig, cameraOverrides []renderer.CameraConfig) *Preset {
	if len(cameraOverrides) > 0 {
		camera = renderer.MergeCameraConfig(camera, cameraOverrides[0])
	}
	return &Preset{
		Name:        name,
		Description: description,
		World:       world,
		Camera:      camera,
		Sampling:    sampling,
		Background:  renderer.DefaultBackground(),
	}
}
