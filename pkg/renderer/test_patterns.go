package renderer

import (
	"math"

	"github.com/df07/go-sphere-raytracer/pkg/core"
	"github.com/df07/go-sphere-raytracer/pkg/geometry"
	"github.com/df07/go-sphere-raytracer/pkg/integrator"
	"github.com/df07/go-sphere-raytracer/pkg/scene"
)

// Diagnostic patterns write linear colors without gamma correction or sampling.

// legacyCamera spans lower-left (-2,-1,-1), horizontal (4,0,0), vertical (0,2,0) from the origin
func legacyCamera() *geometry.Camera {
	return geometry.NewCamera(geometry.CameraConfig{
		LookFrom:    core.NewVec3(0, 0, 0),
		LookAt:      core.NewVec3(0, 0, -1),
		Up:          core.NewVec3(0, 1, 0),
		VFov:        90,
		AspectRatio: 2.0,
	})
}

// fillPattern evaluates shade at the lower-left corner of every pixel, top row first
func fillPattern(width, height int, shade func(u, v float64) core.Vec3) (*Image, error) {
	img, err := NewImage(width, height)
	if err != nil {
		return nil, err
	}
	for y := 0; y < height; y++ {
		j := height - 1 - y
		for i := 0; i < width; i++ {
			u := float64(i) / float64(width)
			v := float64(j) / float64(height)
			img.Set(i, y, Quantize(shade(u, v)))
		}
	}
	return img, nil
}

// ColorRamp is a gradient with red rising left to right and green rising bottom to top
func ColorRamp(width, height int) (*Image, error) {
	return fillPattern(width, height, func(u, v float64) core.Vec3 {
		return core.NewVec3(u, v, 0.2)
	})
}

// SkyGradient shades every camera ray with the default background gradient
func SkyGradient(width, height int) (*Image, error) {
	camera := legacyCamera()
	return fillPattern(width, height, func(u, v float64) core.Vec3 {
		ray := camera.GetRay(u, v, nil)
		return integrator.Gradient(ray.Direction, scene.DefaultBackgroundTop, scene.DefaultBackgroundBottom)
	})
}

// SphereHitPattern paints rays that hit the sphere at (0,0,-1) with radius 0.5 red
// over the background gradient
func SphereHitPattern(width, height int) (*Image, error) {
	camera := legacyCamera()
	sphere := geometry.NewSphere(core.NewVec3(0, 0, -1), 0.5, core.NoMaterial)
	red := core.NewVec3(1, 0, 0)

	return fillPattern(width, height, func(u, v float64) core.Vec3 {
		ray := camera.GetRay(u, v, nil)
		if _, hit := sphere.Hit(ray, 0, math.Inf(1)); hit {
			return red
		}
		return integrator.Gradient(ray.Direction, scene.DefaultBackgroundTop, scene.DefaultBackgroundBottom)
	})
}
