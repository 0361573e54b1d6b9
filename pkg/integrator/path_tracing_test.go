package integrator

import (
	"math"
	"math/rand"
	"testing"

	"github.com/df07/go-sphere-raytracer/pkg/core"
	"github.com/df07/go-sphere-raytracer/pkg/geometry"
	"github.com/df07/go-sphere-raytracer/pkg/material"
	"github.com/df07/go-sphere-raytracer/pkg/scene"
)

// createTestScene creates an empty scene looking down -z
func createTestScene() *scene.Scene {
	return scene.New(geometry.CameraConfig{
		LookFrom:    core.NewVec3(0, 0, 0),
		LookAt:      core.NewVec3(0, 0, -1),
		Up:          core.NewVec3(0, 1, 0),
		VFov:        90,
		AspectRatio: 2,
	})
}

func newTestSampler() core.Sampler {
	return core.NewRandomSampler(rand.New(rand.NewSource(42)))
}

func TestBackgroundGradient(t *testing.T) {
	sc := createTestScene()
	integrator := NewPathTracingIntegrator(core.DefaultSamplingConfig())
	sampler := newTestSampler()

	tests := []struct {
		name      string
		direction core.Vec3
		expected  core.Vec3
	}{
		{"straight up is sky blue", core.NewVec3(0, 1, 0), core.NewVec3(0.5, 0.7, 1.0)},
		{"straight down is white", core.NewVec3(0, -1, 0), core.NewVec3(1, 1, 1)},
		{"horizon is the midpoint", core.NewVec3(0, 0, -1), core.NewVec3(0.75, 0.85, 1.0)},
		{"direction length is ignored", core.NewVec3(0, 5, 0), core.NewVec3(0.5, 0.7, 1.0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ray := core.NewRay(core.NewVec3(0, 0, 0), tt.direction)
			color := integrator.RayColor(ray, sc, sampler)
			if !color.ApproxEquals(tt.expected, 1e-12) {
				t.Errorf("Expected %v, got %v", tt.expected, color)
			}
		})
	}
}

func TestBackgroundGradient_SceneColors(t *testing.T) {
	sc := createTestScene()
	sc.BackgroundTop = core.NewVec3(0, 0, 0)
	sc.BackgroundBottom = core.NewVec3(1, 0, 0)
	integrator := NewPathTracingIntegrator(core.DefaultSamplingConfig())

	color := integrator.BackgroundGradient(core.NewRay(core.Vec3{}, core.NewVec3(0, -1, 0)), sc)
	if !color.Equals(core.NewVec3(1, 0, 0)) {
		t.Errorf("Expected scene bottom color, got %v", color)
	}
}

// TestPathTracingDepthTermination traps a ray inside an inward-facing mirror
// so it would bounce forever without the depth cap
func TestPathTracingDepthTermination(t *testing.T) {
	sc := createTestScene()
	mirror := sc.AddMaterial(material.NewMetal(core.NewVec3(1, 1, 1), 0))
	sc.AddSphere(core.NewVec3(0, 0, 0), -10, mirror)

	integrator := NewPathTracingIntegrator(core.DefaultSamplingConfig())
	sampler := newTestSampler()
	ray := core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0.3, 0.2, -1))

	if color := integrator.RayColorAtDepth(ray, sc, sampler, core.DefaultMaxDepth); color != (core.Vec3{}) {
		t.Errorf("Expected black at the depth cap, got %v", color)
	}
	if color := integrator.RayColor(ray, sc, sampler); color != (core.Vec3{}) {
		t.Errorf("Expected trapped ray to terminate black, got %v", color)
	}
}

func TestPathTracingDepthCapStillShowsBackground(t *testing.T) {
	sc := createTestScene()
	integrator := NewPathTracingIntegrator(core.DefaultSamplingConfig())

	ray := core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 1, 0))
	color := integrator.RayColorAtDepth(ray, sc, newTestSampler(), core.DefaultMaxDepth+10)
	if !color.ApproxEquals(core.NewVec3(0.5, 0.7, 1.0), 1e-12) {
		t.Errorf("A miss returns the background regardless of depth, got %v", color)
	}
}

func TestPathTracingAbsorption(t *testing.T) {
	sc := createTestScene()
	// An inward-facing mirror seen from outside: every reflection points into the surface
	mirror := sc.AddMaterial(material.NewMetal(core.NewVec3(1, 1, 1), 0))
	sc.AddSphere(core.NewVec3(0, 0, -2), -0.5, mirror)

	integrator := NewPathTracingIntegrator(core.DefaultSamplingConfig())
	ray := core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1))

	if color := integrator.RayColor(ray, sc, newTestSampler()); color != (core.Vec3{}) {
		t.Errorf("Expected absorbed ray to be black, got %v", color)
	}
}

func TestPathTracingDanglingMaterialIsBlack(t *testing.T) {
	sc := createTestScene()
	sc.World.Add(geometry.NewSphere(core.NewVec3(0, 0, -1), 0.5, 42))

	integrator := NewPathTracingIntegrator(core.DefaultSamplingConfig())
	ray := core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1))

	if color := integrator.RayColor(ray, sc, newTestSampler()); color != (core.Vec3{}) {
		t.Errorf("Expected black for unknown material, got %v", color)
	}
}

func TestPathTracingDiffuseSingleBounce(t *testing.T) {
	sc := createTestScene()
	gray := sc.AddMaterial(material.NewLambertian(core.NewVec3(0.5, 0.5, 0.5)))
	sc.AddSphere(core.NewVec3(0, 0, -1), 0.5, gray)

	integrator := NewPathTracingIntegrator(core.DefaultSamplingConfig())
	sampler := newTestSampler()
	ray := core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1))

	// A convex sphere alone is left after one bounce, so the result is
	// half of some background color
	for i := 0; i < 200; i++ {
		color := integrator.RayColor(ray, sc, sampler)
		if math.Abs(color.Z-0.5) > 1e-12 {
			t.Fatalf("Expected blue channel 0.5, got %v", color)
		}
		if color.X < 0.25-1e-12 || color.X > 0.5+1e-12 || color.Y < 0.35-1e-12 || color.Y > 0.5+1e-12 {
			t.Fatalf("Color %v outside half the background range", color)
		}
	}
}

func TestPathTracingGlassIsLossless(t *testing.T) {
	sc := createTestScene()
	glass := sc.AddMaterial(material.NewDielectric(1.5))
	sc.AddSphere(core.NewVec3(0, 0, -1), 0.5, glass)

	integrator := NewPathTracingIntegrator(core.DefaultSamplingConfig())
	sampler := newTestSampler()

	for i := 0; i < 200; i++ {
		ray := core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0.2*sampler.Get1D()-0.1, 0.2*sampler.Get1D()-0.1, -1))
		color := integrator.RayColor(ray, sc, sampler)
		// Background blue is 1 everywhere and glass never attenuates
		if math.Abs(color.Z-1) > 1e-9 {
			t.Fatalf("Expected blue channel 1 through clear glass, got %v", color)
		}
	}
}

func TestPathTracingNearestSphereShades(t *testing.T) {
	sc := createTestScene()
	red := sc.AddMaterial(material.NewLambertian(core.NewVec3(1, 0, 0)))
	blue := sc.AddMaterial(material.NewLambertian(core.NewVec3(0, 0, 1)))
	sc.AddSphere(core.NewVec3(0, 0, -5), 0.5, blue)
	sc.AddSphere(core.NewVec3(0, 0, -2), 0.5, red)

	integrator := NewPathTracingIntegrator(core.DefaultSamplingConfig())
	ray := core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1))

	color := integrator.RayColor(ray, sc, newTestSampler())
	if color.Z != 0 || color.X <= 0 {
		t.Errorf("Expected red from the nearer sphere, got %v", color)
	}
}
