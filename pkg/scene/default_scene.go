package scene

import (
	"github.com/df07/go-recursive-raytracer/pkg/core"
	"github.com/df07/go-recursive-raytracer/pkg/geometry"
	"github.com/df07/go-recursive-raytracer/pkg/material"
	"github.com/df07/go-recursive-raytracer/pkg/renderer"
)

// NewDefaultScene creates the classic four-sphere scene: a huge yellow ground
// sphere, a blue diffuse sphere and a silver and a gold metal sphere
func NewDefaultScene(cameraOverrides ...renderer.CameraConfig) *Preset {
	materialGround := material.NewLambertian(core.NewVec3(0.8, 0.8, 0.0))
	materialCenter := material.NewLambertian(core.NewVec3(0.1, 0.2, 0.5))
	materialLeft := material.NewMetal(core.NewVec3(0.8, 0.8, 0.8), 0.0)
	materialRight := material.NewMetal(core.NewVec3(0.8, 0.6, 0.2), 0.0)

	world := New(
		geometry.NewSphere(core.NewVec3(0.0, -100.5, -1.0), 100.0, materialGround),
		geometry.NewSphere(core.NewVec3(0.0, 0.0, -1.2), 0.5, materialCenter),
		geometry.NewSphere(core.NewVec3(-1.0, 0.0, -1.0), 0.5, materialLeft),
		geometry.NewSphere(core.NewVec3(1.0, 0.0, -1.0), 0.5, materialRight),
	)

	return newPreset("default", defaultDescription, world, renderer.DefaultCameraConfig(), renderer.DefaultSamplingConfig(), cameraOverrides)
}

// NewCheckerScene replaces the ground sphere with a checkered infinite plane
func NewCheckerScene(cameraOverrides ...renderer.CameraConfig) *Preset {
	ground := material.NewCheckerDiffuse(
		core.NewVec3(0.2, 0.3, 0.1), // odd
		core.NewVec3(0.9, 0.9, 0.9), // even
		material.DefaultCheckerFrequency,
	)
	blue := material.NewLambertian(core.NewVec3(0.1, 0.2, 0.5))
	silver := material.NewMetal(core.NewVec3(0.8, 0.8, 0.8), 0.3)
	gold := material.NewMetal(core.NewVec3(0.8, 0.6, 0.2), 0.0)

	world := New(
		geometry.NewPlane(core.NewVec3(0, -0.5, 0), core.NewVec3(0, 1, 0), ground),
		geometry.NewSphere(core.NewVec3(0.0, 0.0, -1.2), 0.5, blue),
		geometry.NewSphere(core.NewVec3(-1.0, 0.0, -1.0), 0.5, silver),
		geometry.NewSphere(core.NewVec3(1.0, 0.0, -1.0), 0.5, gold),
	)

	camera := renderer.DefaultCameraConfig()
	camera.Center = core.NewVec3(0, 0.5, 1)
	camera.LookAt = core.NewVec3(0, 0, -1)
	camera.VFov = 60

	return newPreset("checker", checkerDescription, world, camera, renderer.DefaultSamplingConfig(), cameraOverrides)
}

// NewEmptyScene has no geometry; every pixel shows the background gradient
func NewEmptyScene(cameraOverrides ...renderer.CameraConfig) *Preset {
	sampling := renderer.DefaultSamplingConfig()
	sampling.SamplesPerPixel = 1
	return newPreset("empty", emptyDescription, New(), renderer.DefaultCameraConfig(), sampling, cameraOverrides)
}
