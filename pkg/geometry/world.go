package geometry

import (
	"github.com/df07/go-sphere-raytracer/pkg/core"
)

// World is an ordered collection of shapes tested by linear scan
type World struct {
	shapes []Shape
}

// NewWorld creates a world from the given shapes
func NewWorld(shapes ...Shape) *World {
	return &World{shapes: append([]Shape(nil), shapes...)}
}

// Add appends a shape to the world
func (w *World) Add(shape Shape) {
	w.shapes = append(w.shapes, shape)
}

// Shapes returns the shapes in insertion order
func (w *World) Shapes() []Shape {
	return w.shapes
}

// Len returns the number of shapes
func (w *World) Len() int {
	return len(w.shapes)
}

// Hit returns the nearest intersection across every shape in (tMin, tMax)
func (w *World) Hit(ray core.Ray, tMin, tMax float64) (core.HitRecord, bool) {
	hit, shape := w.HitShape(ray, tMin, tMax)
	return hit, shape != nil
}

// HitShape is Hit that also returns the shape that was hit, or nil on a miss
func (w *World) HitShape(ray core.Ray, tMin, tMax float64) (core.HitRecord, Shape) {
	closest := core.HitRecord{MaterialID: core.NoMaterial}
	closestSoFar := tMax
	var closestShape Shape

	for _, shape := range w.shapes {
		if hit, isHit := shape.Hit(ray, tMin, closestSoFar); isHit {
			closestSoFar = hit.T
			closest = hit
			closestShape = shape
		}
	}

	return closest, closestShape
}
