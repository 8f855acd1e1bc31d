package loaders

import (
	"bytes"
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/df07/go-recursive-raytracer/pkg/core"
	"github.com/df07/go-recursive-raytracer/pkg/geometry"
	"github.com/df07/go-recursive-raytracer/pkg/material"
	"github.com/df07/go-recursive-raytracer/pkg/renderer"
	"github.com/df07/go-recursive-raytracer/pkg/scene"
)

var (
	// ErrUnknownFormat is returned for scene files with an unsupported extension
	ErrUnknownFormat = errors.New("unknown scene file format")
	// ErrInvalidScene is returned when a scene file parses but cannot be built
	ErrInvalidScene = errors.New("invalid scene")
)

// Format identifies a scene file syntax
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// FormatFromPath infers the scene file syntax from its extension
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, path)
}

// Vec is an [x, y, z] triple as written in scene files
type Vec [3]float64

func (v Vec) toVec3() core.Vec3 { return core.NewVec3(v[0], v[1], v[2]) }

// vecOr returns v as a Vec3, or fallback when v is absent
func vecOr(v *Vec, fallback core.Vec3) core.Vec3 {
	if v == nil {
		return fallback
	}
	return v.toVec3()
}

// SceneFile is the top-level scene description
type SceneFile struct {
	Name        string                 `yaml:"name" toml:"name" json:"name"`
	Description string                 `yaml:"description" toml:"description" json:"description"`
	Group       string                 `yaml:"group" toml:"group" json:"group"`
	Camera      CameraCfg              `yaml:"camera" toml:"camera" json:"camera"`
	Render      RenderCfg              `yaml:"render" toml:"render" json:"render"`
	Background  *BackgroundCfg         `yaml:"background" toml:"background" json:"background,omitempty"`
	Materials   map[string]MaterialCfg `yaml:"materials" toml:"materials" json:"materials"`
	Objects     []ObjectCfg            `yaml:"objects" toml:"objects" json:"objects"`
}

// CameraCfg positions the camera; unset fields keep the default camera
type CameraCfg struct {
	LookFrom    *Vec    `yaml:"look_from" toml:"look_from" json:"look_from,omitempty"`
	LookAt      *Vec    `yaml:"look_at" toml:"look_at" json:"look_at,omitempty"`
	Up          *Vec    `yaml:"up" toml:"up" json:"up,omitempty"`
	VFov        float64 `yaml:"vfov" toml:"vfov" json:"vfov,omitempty"`
	FocalLength float64 `yaml:"focal_length" toml:"focal_length" json:"focal_length,omitempty"`
}

// RenderCfg holds image and sampling settings. Zero values keep the defaults,
// except MaxDepth and Seed where only an absent key does.
type RenderCfg struct {
	AspectRatio     float64 `yaml:"aspect_ratio" toml:"aspect_ratio" json:"aspect_ratio,omitempty"`
	ImageWidth      int     `yaml:"image_width" toml:"image_width" json:"image_width,omitempty"`
	SamplesPerPixel int     `yaml:"samples_per_pixel" toml:"samples_per_pixel" json:"samples_per_pixel,omitempty"`
	MaxDepth        *int    `yaml:"max_depth" toml:"max_depth" json:"max_depth,omitempty"`
	Seed            *int64  `yaml:"seed" toml:"seed" json:"seed,omitempty"`
	Workers         int     `yaml:"workers" toml:"workers" json:"workers,omitempty"`
	BottomUp        bool    `yaml:"bottom_up" toml:"bottom_up" json:"bottom_up,omitempty"`
	Gamma           float64 `yaml:"gamma" toml:"gamma" json:"gamma,omitempty"`
}

// BackgroundCfg overrides the sky gradient
type BackgroundCfg struct {
	Horizon *Vec `yaml:"horizon" toml:"horizon" json:"horizon,omitempty"`
	Zenith  *Vec `yaml:"zenith" toml:"zenith" json:"zenith,omitempty"`
}

// MaterialCfg describes one named material
type MaterialCfg struct {
	Type            string  `yaml:"type" toml:"type" json:"type"` // lambertian, metal, checker, dielectric or mix
	Albedo          *Vec    `yaml:"albedo" toml:"albedo" json:"albedo,omitempty"`
	Fuzz            float64 `yaml:"fuzz" toml:"fuzz" json:"fuzz,omitempty"`
	Odd             *Vec    `yaml:"odd" toml:"odd" json:"odd,omitempty"`
	Even            *Vec    `yaml:"even" toml:"even" json:"even,omitempty"`
	Frequency       float64 `yaml:"frequency" toml:"frequency" json:"frequency,omitempty"`
	RefractiveIndex float64 `yaml:"refractive_index" toml:"refractive_index" json:"refractive_index,omitempty"`
	First           string  `yaml:"first" toml:"first" json:"first,omitempty"`   // mix: material used at ratio 0
	Second          string  `yaml:"second" toml:"second" json:"second,omitempty"` // mix: material used at ratio 1
	Ratio           float64 `yaml:"ratio" toml:"ratio" json:"ratio,omitempty"`
}

// defaultRefractiveIndex is used for dielectrics that do not set one (glass)
const defaultRefractiveIndex = 1.5

// ObjectCfg describes one shape referencing a named material
type ObjectCfg struct {
	Type     string  `yaml:"type" toml:"type" json:"type"` // sphere or plane
	Center   *Vec    `yaml:"center" toml:"center" json:"center,omitempty"`
	Radius   float64 `yaml:"radius" toml:"radius" json:"radius,omitempty"`
	Point    *Vec    `yaml:"point" toml:"point" json:"point,omitempty"`
	Normal   *Vec    `yaml:"normal" toml:"normal" json:"normal,omitempty"`
	Material string  `yaml:"material" toml:"material" json:"material"`
}

// Load reads and parses a scene file, choosing the syntax from its extension
func Load(path string) (*SceneFile, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scene file: %w", err)
	}
	sf, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if sf.Name == "" {
		sf.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return sf, nil
}

// Parse decodes scene data. Unknown keys are rejected.
func Parse(data []byte, format Format) (*SceneFile, error) {
	var sf SceneFile

	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&sf); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidScene, err)
		}
	case FormatTOML:
		md, err := toml.Decode(string(data), &sf)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidScene, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("%w: unknown key %q", ErrInvalidScene, undecoded[0].String())
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&sf); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidScene, err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	return &sf, nil
}

// Build validates the description and constructs a renderable preset.
// Objects share material instances through the named material table.
func (sf *SceneFile) Build() (*scene.Preset, error) {
	materials, err := sf.buildMaterials()
	if err != nil {
		return nil, err
	}

	world := scene.New()
	for i, oc := range sf.Objects {
		m, ok := materials[oc.Material]
		if !ok {
			return nil, fmt.Errorf("%w: object %d: unknown material %q", ErrInvalidScene, i, oc.Material)
		}
		shape, err := oc.Build(m)
		if err != nil {
			return nil, fmt.Errorf("%w: object %d: %v", ErrInvalidScene, i, err)
		}
		world.Add(shape)
	}

	if sf.Render.AspectRatio < 0 || sf.Render.ImageWidth < 0 || sf.Render.SamplesPerPixel < 0 ||
		(sf.Render.MaxDepth != nil && *sf.Render.MaxDepth < 0) {
		return nil, fmt.Errorf("%w: render settings must not be negative", ErrInvalidScene)
	}

	background := renderer.DefaultBackground()
	if sf.Background != nil {
		background.Horizon = vecOr(sf.Background.Horizon, background.Horizon)
		background.Zenith = vecOr(sf.Background.Zenith, background.Zenith)
	}

	return &scene.Preset{
		Name:        sf.Name,
		Description: sf.Description,
		World:       world,
		Camera:      sf.CameraConfig(),
		Sampling:    sf.SamplingConfig(),
		Background:  background,
	}, nil
}

// buildMaterials constructs the named material table. Mixes are resolved
// after the materials they reference and may nest.
func (sf *SceneFile) buildMaterials() (map[string]core.Material, error) {
	materials := make(map[string]core.Material, len(sf.Materials))
	pending := make(map[string]MaterialCfg)
	for name, mc := range sf.Materials {
		if mc.isMix() {
			pending[name] = mc
			continue
		}
		m, err := mc.Build()
		if err != nil {
			return nil, fmt.Errorf("%w: material %q: %v", ErrInvalidScene, name, err)
		}
		materials[name] = m
	}

	for len(pending) > 0 {
		progressed := false
		for name, mc := range pending {
			first, ok1 := materials[mc.First]
			second, ok2 := materials[mc.Second]
			if !ok1 || !ok2 {
				continue
			}
			materials[name] = material.NewMix(first, second, mc.Ratio)
			delete(pending, name)
			progressed = true
		}
		if !progressed {
			name := slices.Sorted(maps.Keys(pending))[0]
			return nil, fmt.Errorf("%w: mix material %q references an unknown or cyclic material", ErrInvalidScene, name)
		}
	}

	return materials, nil
}

func (mc MaterialCfg) isMix() bool {
	return strings.EqualFold(mc.Type, "mix")
}

// CameraConfig layers the file's camera and image settings over the default camera
func (sf *SceneFile) CameraConfig() renderer.CameraConfig {
	defaults := renderer.DefaultCameraConfig()
	return renderer.CameraConfig{
		Center:      vecOr(sf.Camera.LookFrom, defaults.Center),
		LookAt:      vecOr(sf.Camera.LookAt, defaults.LookAt),
		Up:          vecOr(sf.Camera.Up, defaults.Up),
		Width:       cmp.Or(sf.Render.ImageWidth, defaults.Width),
		AspectRatio: cmp.Or(sf.Render.AspectRatio, defaults.AspectRatio),
		VFov:        cmp.Or(sf.Camera.VFov, defaults.VFov),
		FocalLength: cmp.Or(sf.Camera.FocalLength, defaults.FocalLength),
	}
}

// SamplingConfig layers the file's sampling settings over the defaults
func (sf *SceneFile) SamplingConfig() renderer.SamplingConfig {
	config := renderer.MergeSamplingConfig(renderer.DefaultSamplingConfig(), renderer.SamplingConfig{
		SamplesPerPixel: sf.Render.SamplesPerPixel,
		NumWorkers:      sf.Render.Workers,
		BottomUp:        sf.Render.BottomUp,
	})
	// Depth 0 renders black and seed 0 is a valid seed, so both survive when given
	if sf.Render.MaxDepth != nil {
		config.MaxDepth = *sf.Render.MaxDepth
	}
	if sf.Render.Seed != nil {
		config.Seed = *sf.Render.Seed
	}
	return config
}

// Build constructs the material
func (mc MaterialCfg) Build() (core.Material, error) {
	switch strings.ToLower(mc.Type) {
	case "lambertian", "diffuse":
		if mc.Albedo == nil {
			return nil, fmt.Errorf("lambertian needs an albedo")
		}
		return material.NewLambertian(mc.Albedo.toVec3()), nil
	case "metal":
		if mc.Albedo == nil {
			return nil, fmt.Errorf("metal needs an albedo")
		}
		return material.NewMetal(mc.Albedo.toVec3(), mc.Fuzz), nil
	case "checker":
		if mc.Odd == nil || mc.Even == nil {
			return nil, fmt.Errorf("checker needs odd and even colors")
		}
		return material.NewCheckerDiffuse(mc.Odd.toVec3(), mc.Even.toVec3(), mc.Frequency), nil
	case "dielectric":
		if mc.RefractiveIndex < 0 {
			return nil, fmt.Errorf("refractive index must not be negative")
		}
		ior := cmp.Or(mc.RefractiveIndex, defaultRefractiveIndex)
		return material.NewTintedDielectric(ior, vecOr(mc.Albedo, core.NewVec3(1, 1, 1))), nil
	case "mix":
		return nil, fmt.Errorf("mix materials are resolved from the scene's material table")
	}
	return nil, fmt.Errorf("unknown material type %q", mc.Type)
}

// Build constructs the shape with its resolved material
func (oc ObjectCfg) Build(m core.Material) (core.Shape, error) {
	switch strings.ToLower(oc.Type) {
	case "sphere":
		if oc.Center == nil {
			return nil, fmt.Errorf("sphere needs a center")
		}
		if oc.Radius == 0 {
			return nil, fmt.Errorf("sphere radius must be non-zero")
		}
		return geometry.NewSphere(oc.Center.toVec3(), oc.Radius, m), nil
	case "plane":
		if oc.Point == nil || oc.Normal == nil {
			return nil, fmt.Errorf("plane needs a point and a normal")
		}
		if oc.Normal.toVec3().NearZero() {
			return nil, fmt.Errorf("plane normal must be non-zero")
		}
		return geometry.NewPlane(oc.Point.toVec3(), oc.Normal.toVec3(), m), nil
	}
	return nil, fmt.Errorf("unknown object type %q", oc.Type)
}
