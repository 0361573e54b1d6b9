package scene

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/df07/go-sphere-raytracer/pkg/core"
	"github.com/df07/go-sphere-raytracer/pkg/geometry"
	"github.com/df07/go-sphere-raytracer/pkg/material"
)

// Vector is a JSON-friendly [x, y, z] triple
type Vector [3]float64

// Vec3 converts to a core vector
func (v Vector) Vec3() core.Vec3 {
	return core.NewVec3(v[0], v[1], v[2])
}

// VectorOf converts a core vector for serialization
func VectorOf(v core.Vec3) Vector {
	return Vector{v.X, v.Y, v.Z}
}

// CameraFile describes the camera in a scene file
type CameraFile struct {
	LookFrom      Vector  `json:"lookFrom"`
	LookAt        Vector  `json:"lookAt"`
	Up            Vector  `json:"up,omitempty"`
	VFov          float64 `json:"vfov,omitempty"`
	AspectRatio   float64 `json:"aspectRatio,omitempty"`
	Aperture      float64 `json:"aperture,omitempty"`
	FocusDistance float64 `json:"focusDistance,omitempty"`
}

// SamplingFile holds optional sampling overrides
type SamplingFile struct {
	SamplesPerPixel int `json:"samplesPerPixel,omitempty"`
	MaxDepth        int `json:"maxDepth,omitempty"`
}

// BackgroundFile holds optional background gradient colors
type BackgroundFile struct {
	Top    Vector `json:"top"`
	Bottom Vector `json:"bottom"`
}

// MaterialFile describes one entry of the material table
type MaterialFile struct {
	Type            string  `json:"type"` // lambertian, metal or dielectric
	Albedo          Vector  `json:"albedo,omitempty"`
	Fuzz            float64 `json:"fuzz,omitempty"`
	RefractiveIndex float64 `json:"refractiveIndex,omitempty"`
}

// SphereFile describes one sphere; Material indexes the materials list
type SphereFile struct {
	Center   Vector  `json:"center"`
	Radius   float64 `json:"radius"`
	Material int     `json:"material"`
}

// File is the on-disk JSON representation of a scene
type File struct {
	Name        string          `json:"name,omitempty"`
	Description string          `json:"description,omitempty"`
	Camera      CameraFile      `json:"camera"`
	Sampling    *SamplingFile   `json:"sampling,omitempty"`
	Background  *BackgroundFile `json:"background,omitempty"`
	Materials   []MaterialFile  `json:"materials"`
	Spheres     []SphereFile    `json:"spheres"`
}

// Decode reads a scene file from r
func Decode(r io.Reader) (*File, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var f File
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode scene: %w", err)
	}
	return &f, nil
}

// Load reads and builds a scene from a JSON file
func Load(path string) (*Scene, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scene: %w", err)
	}
	defer file.Close()

	f, err := Decode(file)
	if err != nil {
		return nil, err
	}
	s, err := f.Build()
	if err != nil {
		return nil, fmt.Errorf("build scene %s: %w", path, err)
	}
	return s, nil
}

// Save writes a scene file as indented JSON
func Save(path string, f *File) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create scene: %w", err)
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("encode scene: %w", err)
	}
	return file.Close()
}

// CameraConfig converts the camera description, filling in defaults
func (c CameraFile) CameraConfig() geometry.CameraConfig {
	config := geometry.CameraConfig{
		LookFrom:      c.LookFrom.Vec3(),
		LookAt:        c.LookAt.Vec3(),
		Up:            c.Up.Vec3(),
		VFov:          c.VFov,
		AspectRatio:   c.AspectRatio,
		Aperture:      c.Aperture,
		FocusDistance: c.FocusDistance,
	}
	if config.Up.Equals(core.Vec3{}) {
		config.Up = core.NewVec3(0, 1, 0)
	}
	if config.VFov == 0 {
		config.VFov = 90
	}
	if config.AspectRatio == 0 {
		config.AspectRatio = 2.0
	}
	return config
}

// Material converts a material description
func (m MaterialFile) Material() (material.Material, error) {
	kind, err := material.ParseKind(m.Type)
	if err != nil {
		return material.Material{}, fmt.Errorf("%v: %w", err, ErrInvalidScene)
	}

	switch kind {
	case material.KindMetal:
		return material.NewMetal(m.Albedo.Vec3(), m.Fuzz), nil
	case material.KindDielectric:
		if m.RefractiveIndex <= 0 {
			return material.Material{}, fmt.Errorf("refractive index %f must be positive: %w", m.RefractiveIndex, ErrInvalidScene)
		}
		return material.NewDielectric(m.RefractiveIndex), nil
	default:
		return material.NewLambertian(m.Albedo.Vec3()), nil
	}
}

// Build constructs and validates a renderable scene
func (f *File) Build() (*Scene, error) {
	s := New(f.Camera.CameraConfig())

	if f.Sampling != nil {
		s.SamplingConfig = core.MergeSamplingConfig(s.SamplingConfig, core.SamplingConfig{
			SamplesPerPixel: f.Sampling.SamplesPerPixel,
			MaxDepth:        f.Sampling.MaxDepth,
		})
	}
	if f.Background != nil {
		s.BackgroundTop = f.Background.Top.Vec3()
		s.BackgroundBottom = f.Background.Bottom.Vec3()
	}

	for i, mf := range f.Materials {
		m, err := mf.Material()
		if err != nil {
			return nil, fmt.Errorf("material %d: %w", i, err)
		}
		s.AddMaterial(m)
	}
	for _, sf := range f.Spheres {
		s.AddSphere(sf.Center.Vec3(), sf.Radius, core.MaterialID(sf.Material))
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Export converts a scene back into its file representation
func Export(s *Scene) *File {
	cfg := s.CameraConfig
	f := &File{
		Camera: CameraFile{
			LookFrom:      VectorOf(cfg.LookFrom),
			LookAt:        VectorOf(cfg.LookAt),
			Up:            VectorOf(cfg.Up),
			VFov:          cfg.VFov,
			AspectRatio:   cfg.AspectRatio,
			Aperture:      cfg.Aperture,
			FocusDistance: cfg.FocusDistance,
		},
		Sampling: &SamplingFile{
			SamplesPerPixel: s.SamplingConfig.SamplesPerPixel,
			MaxDepth:        s.SamplingConfig.MaxDepth,
		},
		Background: &BackgroundFile{
			Top:    VectorOf(s.BackgroundTop),
			Bottom: VectorOf(s.BackgroundBottom),
		},
	}

	for _, m := range s.Materials.Materials() {
		mf := MaterialFile{Type: m.Kind.String()}
		switch m.Kind {
		case material.KindLambertian:
			mf.Albedo = VectorOf(m.Albedo)
		case material.KindMetal:
			mf.Albedo = VectorOf(m.Albedo)
			mf.Fuzz = m.Fuzz
		case material.KindDielectric:
			mf.RefractiveIndex = m.RefractiveIndex
		}
		f.Materials = append(f.Materials, mf)
	}
	for _, sphere := range s.Spheres() {
		f.Spheres = append(f.Spheres, SphereFile{
			Center:   VectorOf(sphere.Center),
			Radius:   sphere.Radius,
			Material: int(sphere.Material),
		})
	}
	return f
}
