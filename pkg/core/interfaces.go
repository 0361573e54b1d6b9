package core

// Logger interface for raytracer logging
type Logger interface {
	Printf(format string, args ...interface{})
}

// MaterialID indexes a material in a scene's material table
type MaterialID int

// NoMaterial marks a hit record that carries no material
const NoMaterial MaterialID = -1

// HitRecord contains information about a ray-object intersection
type HitRecord struct {
	T          float64    // Parameter t along the ray
	Point      Vec3       // Point of intersection
	Normal     Vec3       // Unit normal, outward for positive radii
	MaterialID MaterialID // Material of the hit object
}
