package scene

import (
	"errors"
	"fmt"
	"math"

	"github.com/df07/go-sphere-raytracer/pkg/core"
	"github.com/df07/go-sphere-raytracer/pkg/geometry"
	"github.com/df07/go-sphere-raytracer/pkg/material"
)

var (
	// ErrUnknownMaterial is returned when a sphere references a material missing from the table
	ErrUnknownMaterial = errors.New("unknown material")
	// ErrUnknownScene is returned when a scene name cannot be resolved
	ErrUnknownScene = errors.New("unknown scene")
	// ErrInvalidScene is returned for structurally invalid scene descriptions
	ErrInvalidScene = errors.New("invalid scene")
)

// DefaultImageWidth is the output width used when neither the caller nor the scene sets one
const DefaultImageWidth = 200

// Default background gradient endpoints
var (
	DefaultBackgroundTop    = core.NewVec3(0.5, 0.7, 1.0)
	DefaultBackgroundBottom = core.NewVec3(1.0, 1.0, 1.0)
)

// Scene contains all the elements needed for rendering.
// It is built once and only read while rendering, so it may be shared across workers.
type Scene struct {
	Camera           *geometry.Camera
	CameraConfig     geometry.CameraConfig
	World            *geometry.World // Objects in the scene
	Materials        *material.Table // Materials referenced by index from the spheres
	SamplingConfig   core.SamplingConfig
	BackgroundTop    core.Vec3 // Sky color for rays pointing straight up
	BackgroundBottom core.Vec3 // Color for rays pointing straight down
	ImageWidth       int       // Preferred output width, 0 if the scene has none
	ImageHeight      int       // Preferred output height, 0 if the scene has none
}

// New creates an empty scene with the given camera configuration
func New(cameraConfig geometry.CameraConfig) *Scene {
	return &Scene{
		Camera:           geometry.NewCamera(cameraConfig),
		CameraConfig:     cameraConfig,
		World:            geometry.NewWorld(),
		Materials:        material.NewTable(),
		SamplingConfig:   core.DefaultSamplingConfig(),
		BackgroundTop:    DefaultBackgroundTop,
		BackgroundBottom: DefaultBackgroundBottom,
	}
}

// AddMaterial appends a material to the scene's table
func (s *Scene) AddMaterial(m material.Material) core.MaterialID {
	return s.Materials.Add(m)
}

// AddSphere adds a sphere referencing a material by index
func (s *Scene) AddSphere(center core.Vec3, radius float64, materialID core.MaterialID) *geometry.Sphere {
	sphere := geometry.NewSphere(center, radius, materialID)
	s.World.Add(sphere)
	return sphere
}

// Spheres returns the spheres of the world in insertion order
func (s *Scene) Spheres() []*geometry.Sphere {
	spheres := make([]*geometry.Sphere, 0, s.World.Len())
	for _, shape := range s.World.Shapes() {
		if sphere, ok := shape.(*geometry.Sphere); ok {
			spheres = append(spheres, sphere)
		}
	}
	return spheres
}

// SetCamera replaces the camera
func (s *Scene) SetCamera(config geometry.CameraConfig) {
	s.CameraConfig = config
	s.Camera = geometry.NewCamera(config)
}

// FitImage resolves the output size and matches the camera aspect ratio to it.
// A zero dimension is derived from the other and the camera aspect; with both zero the
// scene's preferred size or DefaultImageWidth is used. Negative sizes pass through unchanged.
func (s *Scene) FitImage(width, height int) (int, int) {
	aspect := s.CameraConfig.AspectRatio
	if width == 0 && height == 0 {
		width, height = s.ImageWidth, s.ImageHeight
		if width == 0 && height == 0 {
			width = DefaultImageWidth
		}
	}

	switch {
	case width > 0 && height == 0 && aspect > 0:
		height = max(1, int(math.Round(float64(width)/aspect)))
	case height > 0 && width == 0 && aspect > 0:
		width = max(1, int(math.Round(float64(height)*aspect)))
	case width > 0 && height > 0:
		if imageAspect := float64(width) / float64(height); imageAspect != aspect {
			s.SetCamera(geometry.MergeCameraConfig(s.CameraConfig, geometry.CameraConfig{AspectRatio: imageAspect}))
		}
	}
	return width, height
}

// Material looks up a material by index
func (s *Scene) Material(id core.MaterialID) (material.Material, bool) {
	return s.Materials.Get(id)
}

// GetBackgroundColors returns the gradient endpoints
func (s *Scene) GetBackgroundColors() (topColor, bottomColor core.Vec3) {
	return s.BackgroundTop, s.BackgroundBottom
}

// GetPrimitiveCount returns the total number of primitive objects in the scene
func (s *Scene) GetPrimitiveCount() int {
	return s.World.Len()
}

// Validate checks that every sphere references an existing material
// and that the camera is not degenerate
func (s *Scene) Validate() error {
	for i, shape := range s.World.Shapes() {
		sphere, ok := shape.(*geometry.Sphere)
		if !ok {
			return fmt.Errorf("shape %d: only spheres are supported: %w", i, ErrInvalidScene)
		}
		if _, ok := s.Materials.Get(sphere.Material); !ok {
			return fmt.Errorf("sphere %d: material %d: %w", i, sphere.Material, ErrUnknownMaterial)
		}
		if sphere.Radius == 0 {
			return fmt.Errorf("sphere %d: zero radius: %w", i, ErrInvalidScene)
		}
	}
	if s.CameraConfig.LookFrom.Equals(s.CameraConfig.LookAt) {
		return fmt.Errorf("camera look-from equals look-at: %w", ErrInvalidScene)
	}
	if s.CameraConfig.Up.Cross(s.CameraConfig.LookFrom.Subtract(s.CameraConfig.LookAt)).LengthSquared() == 0 {
		return fmt.Errorf("camera up vector is parallel to the view direction: %w", ErrInvalidScene)
	}
	if s.CameraConfig.AspectRatio <= 0 || s.CameraConfig.VFov <= 0 || s.CameraConfig.VFov >= 180 {
		return fmt.Errorf("camera aspect %f / vfov %f out of range: %w",
			s.CameraConfig.AspectRatio, s.CameraConfig.VFov, ErrInvalidScene)
	}
	return nil
}
