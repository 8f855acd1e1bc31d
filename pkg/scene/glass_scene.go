package scene

import (
	"github.com/df07/go-recursive-raytracer/pkg/core"
	"github.com/df07/go-recursive-raytracer/pkg/geometry"
	"github.com/df07/go-recursive-raytracer/pkg/material"
	"github.com/df07/go-recursive-raytracer/pkg/renderer"
)

// NewGlassScene places clear and tinted glass next to a half-matte, half-mirror
// sphere on a checkered floor. Refraction paths bounce more, so MaxDepth stays high.
func NewGlassScene(cameraOverrides ...renderer.CameraConfig) *Preset {
	floor := material.NewCheckerDiffuse(
		core.NewVec3(0.1, 0.1, 0.1),
		core.NewVec3(0.9, 0.9, 0.9),
		material.DefaultCheckerFrequency,
	)
	glass := material.NewDielectric(1.5)
	amber := material.NewTintedDielectric(1.5, core.NewVec3(1.0, 0.8, 0.4))
	satin := material.NewMix(
		material.NewLambertian(core.NewVec3(0.2, 0.4, 0.8)),
		material.NewMetal(core.NewVec3(0.9, 0.9, 0.9), 0.05),
		0.5,
	)

	world := New(
		geometry.NewPlane(core.NewVec3(0, -0.5, 0), core.NewVec3(0, 1, 0), floor),
		geometry.NewSphere(core.NewVec3(0.0, 0.0, -1.2), 0.5, glass),
		geometry.NewSphere(core.NewVec3(-1.05, -0.15, -1.0), 0.35, amber),
		geometry.NewSphere(core.NewVec3(1.05, 0.0, -1.0), 0.5, satin),
	)

	camera := renderer.DefaultCameraConfig()
	camera.Center = core.NewVec3(0, 0.6, 1.2)
	camera.LookAt = core.NewVec3(0, 0, -1)
	camera.VFov = 55

	return newPreset("glass", glassDescription, world, camera, renderer.DefaultSamplingConfig(), cameraOverrides)
}
