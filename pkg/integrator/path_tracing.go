package integrator

import (
	"math"

	"github.com/df07/go-sphere-raytracer/pkg/core"
	"github.com/df07/go-sphere-raytracer/pkg/scene"
)

// MinHitDistance keeps scattered rays from re-hitting their own origin (shadow acne)
const MinHitDistance = 0.001

// PathTracingIntegrator implements recursive unidirectional path tracing
// with a hard bounce cap and no Russian roulette
type PathTracingIntegrator struct {
	config core.SamplingConfig
}

// NewPathTracingIntegrator creates a new path tracing integrator
func NewPathTracingIntegrator(config core.SamplingConfig) *PathTracingIntegrator {
	return &PathTracingIntegrator{
		config: config,
	}
}

// MaxDepth returns the number of scatter events allowed per camera ray
func (pt *PathTracingIntegrator) MaxDepth() int {
	return pt.config.MaxDepth
}

// RayColor computes the color for a camera ray
func (pt *PathTracingIntegrator) RayColor(ray core.Ray, scene *scene.Scene, sampler core.Sampler) core.Vec3 {
	return pt.RayColorAtDepth(ray, scene, sampler, 0)
}

// RayColorAtDepth computes the color for a ray that has already scattered depth times
func (pt *PathTracingIntegrator) RayColorAtDepth(ray core.Ray, scene *scene.Scene, sampler core.Sampler, depth int) core.Vec3 {
	hit, isHit := scene.World.Hit(ray, MinHitDistance, math.Inf(1))
	if !isHit {
		return pt.BackgroundGradient(ray, scene)
	}

	// If we've exceeded the ray bounce limit, no more light is gathered
	if depth >= pt.config.MaxDepth {
		return core.Vec3{X: 0, Y: 0, Z: 0}
	}

	// Dangling material references are treated as perfect absorbers
	mat, ok := scene.Material(hit.MaterialID)
	if !ok {
		return core.Vec3{X: 0, Y: 0, Z: 0}
	}

	scatter, didScatter := mat.Scatter(ray, hit, sampler)
	if !didScatter {
		return core.Vec3{X: 0, Y: 0, Z: 0} // Material absorbed the ray
	}

	return scatter.Attenuation.MultiplyVec(
		pt.RayColorAtDepth(scatter.Scattered, scene, sampler, depth+1))
}

// BackgroundGradient returns a gradient color based on ray direction
func (pt *PathTracingIntegrator) BackgroundGradient(r core.Ray, scene *scene.Scene) core.Vec3 {
	topColor, bottomColor := scene.GetBackgroundColors()
	return Gradient(r.Direction, topColor, bottomColor)
}

// Gradient blends bottom (straight down) to top (straight up) by the direction's height
func Gradient(direction, topColor, bottomColor core.Vec3) core.Vec3 {
	// Normalize the ray direction to get consistent results
	unitDirection := direction.Normalize()

	// Use the y-component to create a gradient (map from -1,1 to 0,1)
	t := 0.5 * (unitDirection.Y + 1.0)

	// Linear interpolation: (1-t)*bottom + t*top
	return bottomColor.Lerp(topColor, t)
}
