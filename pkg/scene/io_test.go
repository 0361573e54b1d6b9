package scene

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/df07/go-sphere-raytracer/pkg/core"
	"github.com/df07/go-sphere-raytracer/pkg/material"
)

const bubbleSceneJSON = `{
  "name": "Glass Bubble",
  "description": "A hollow glass sphere in front of a diffuse one",
  "camera": {
    "lookFrom": [0, 0, 0],
    "lookAt": [0, 0, -1],
    "vfov": 90,
    "aspectRatio": 2
  },
  "sampling": {"samplesPerPixel": 16},
  "materials": [
    {"type": "lambertian", "albedo": [0.1, 0.2, 0.5]},
    {"type": "metal", "albedo": [0.8, 0.6, 0.2], "fuzz": 1.7},
    {"type": "dielectric", "refractiveIndex": 1.5}
  ],
  "spheres": [
    {"center": [0, 0, -1], "radius": 0.5, "material": 0},
    {"center": [1, 0, -1], "radius": 0.5, "material": 1},
    {"center": [-1, 0, -1], "radius": 0.5, "material": 2},
    {"center": [-1, 0, -1], "radius": -0.45, "material": 2}
  ]
}`

func TestDecodeAndBuild(t *testing.T) {
	f, err := Decode(strings.NewReader(bubbleSceneJSON))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	s, err := f.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if s.GetPrimitiveCount() != 4 {
		t.Errorf("Expected 4 spheres, got %d", s.GetPrimitiveCount())
	}
	if s.SamplingConfig.SamplesPerPixel != 16 {
		t.Errorf("Expected 16 samples, got %d", s.SamplingConfig.SamplesPerPixel)
	}
	if s.SamplingConfig.MaxDepth != core.DefaultMaxDepth {
		t.Errorf("Expected default depth %d, got %d", core.DefaultMaxDepth, s.SamplingConfig.MaxDepth)
	}
	if !s.CameraConfig.Up.Equals(core.NewVec3(0, 1, 0)) {
		t.Errorf("Expected default up vector, got %v", s.CameraConfig.Up)
	}
	if !s.BackgroundTop.Equals(DefaultBackgroundTop) {
		t.Errorf("Expected default background, got %v", s.BackgroundTop)
	}

	metal, _ := s.Material(1)
	if metal.Kind != material.KindMetal || metal.Fuzz != 1.0 {
		t.Errorf("Expected metal with fuzz clamped to 1, got %+v", metal)
	}
	if s.Spheres()[3].Radius != -0.45 {
		t.Errorf("Expected negative radius to be preserved, got %f", s.Spheres()[3].Radius)
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		wantErr error
	}{
		{
			name:    "unknown material type",
			json:    `{"camera": {"lookFrom": [0,0,0], "lookAt": [0,0,-1]}, "materials": [{"type": "plastic"}], "spheres": []}`,
			wantErr: ErrInvalidScene,
		},
		{
			name:    "dangling material index",
			json:    `{"camera": {"lookFrom": [0,0,0], "lookAt": [0,0,-1]}, "materials": [], "spheres": [{"center": [0,0,-1], "radius": 1, "material": 0}]}`,
			wantErr: ErrUnknownMaterial,
		},
		{
			name:    "non-positive refractive index",
			json:    `{"camera": {"lookFrom": [0,0,0], "lookAt": [0,0,-1]}, "materials": [{"type": "dielectric"}], "spheres": []}`,
			wantErr: ErrInvalidScene,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Decode(strings.NewReader(tt.json))
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if _, err := f.Build(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDecode_UnknownField(t *testing.T) {
	_, err := Decode(strings.NewReader(`{"camera": {}, "lights": []}`))
	if err == nil {
		t.Error("Expected error for unknown field")
	}
}

func TestSaveAndLoad(t *testing.T) {
	original := NewDefaultScene()
	path := filepath.Join(t.TempDir(), "default.json")

	if err := Save(path, Export(original)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.GetPrimitiveCount() != original.GetPrimitiveCount() {
		t.Errorf("Expected %d spheres, got %d", original.GetPrimitiveCount(), loaded.GetPrimitiveCount())
	}
	for i, m := range original.Materials.Materials() {
		got, ok := loaded.Material(core.MaterialID(i))
		if !ok || got != m {
			t.Errorf("Material %d: expected %+v, got %+v", i, m, got)
		}
	}
	for i, sphere := range original.Spheres() {
		if *loaded.Spheres()[i] != *sphere {
			t.Errorf("Sphere %d: expected %+v, got %+v", i, *sphere, *loaded.Spheres()[i])
		}
	}
	if loaded.CameraConfig != original.CameraConfig {
		t.Errorf("Camera: expected %+v, got %+v", original.CameraConfig, loaded.CameraConfig)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Expected error loading a missing file")
	}
}
