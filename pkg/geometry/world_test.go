package geometry

import (
	"math"
	"testing"

	"github.com/df07/go-sphere-raytracer/pkg/core"
)

func TestWorld_Hit_Empty(t *testing.T) {
	world := NewWorld()
	ray := core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1))

	if _, isHit := world.Hit(ray, 0.001, math.Inf(1)); isHit {
		t.Error("Empty world should never be hit")
	}
}

func TestWorld_Hit_NearestWins(t *testing.T) {
	near := NewSphere(core.NewVec3(0, 0, -2), 0.5, 1)
	far := NewSphere(core.NewVec3(0, 0, -4), 0.5, 2)
	overlapping := NewSphere(core.NewVec3(0, 0, -2.6), 0.5, 3)
	ray := core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1))

	// Insertion order must not influence which hit is returned
	orders := map[string][]Shape{
		"near first": {near, far, overlapping},
		"far first":  {far, overlapping, near},
		"mixed":      {overlapping, near, far},
	}

	for name, shapes := range orders {
		t.Run(name, func(t *testing.T) {
			world := NewWorld(shapes...)
			hit, isHit := world.Hit(ray, 0.001, math.Inf(1))
			if !isHit {
				t.Fatal("Expected hit, but got miss")
			}
			if math.Abs(hit.T-1.5) > 1e-9 {
				t.Errorf("Expected nearest t=1.5, got %f", hit.T)
			}
			if hit.MaterialID != 1 {
				t.Errorf("Expected material of nearest sphere (1), got %d", hit.MaterialID)
			}
		})
	}
}

func TestWorld_Hit_RespectsBounds(t *testing.T) {
	world := NewWorld(
		NewSphere(core.NewVec3(0, 0, -2), 0.5, 1),
		NewSphere(core.NewVec3(0, 0, -4), 0.5, 2),
	)
	ray := core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1))

	// Exclude the first sphere entirely
	hit, isHit := world.Hit(ray, 2.6, math.Inf(1))
	if !isHit {
		t.Fatal("Expected hit on the far sphere")
	}
	if hit.MaterialID != 2 || math.Abs(hit.T-3.5) > 1e-9 {
		t.Errorf("Expected far sphere at t=3.5, got material %d at t=%f", hit.MaterialID, hit.T)
	}

	if _, isHit := world.Hit(ray, 0.001, 1.0); isHit {
		t.Error("Expected no hit inside (0.001, 1.0)")
	}
}

func TestWorld_Add(t *testing.T) {
	world := NewWorld()
	world.Add(NewSphere(core.NewVec3(0, 0, -1), 0.5, 0))
	world.Add(NewSphere(core.NewVec3(0, -100.5, -1), 100, 1))

	if world.Len() != 2 {
		t.Errorf("Expected 2 shapes, got %d", world.Len())
	}
	if len(world.Shapes()) != 2 {
		t.Errorf("Expected Shapes() to return 2 entries, got %d", len(world.Shapes()))
	}
}

func TestWorld_HitShape(t *testing.T) {
	near := NewSphere(core.NewVec3(0, 0, -2), 0.5, 1)
	far := NewSphere(core.NewVec3(0, 0, -4), 0.5, 1)
	world := NewWorld(far, near)
	ray := core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1))

	// Both spheres share a material, so only the returned shape tells them apart
	hit, shape := world.HitShape(ray, 0.001, math.Inf(1))
	if shape != Shape(near) {
		t.Fatalf("Expected the near sphere, got %v", shape)
	}
	if math.Abs(hit.T-1.5) > 1e-9 {
		t.Errorf("Expected t=1.5, got %f", hit.T)
	}

	miss := core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 1, 0))
	if _, shape := world.HitShape(miss, 0.001, math.Inf(1)); shape != nil {
		t.Errorf("Expected no shape on a miss, got %v", shape)
	}
}
