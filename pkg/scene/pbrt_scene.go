package scene

import (
	"fmt"

	"github.com/df07/go-sphere-raytracer/pkg/core"
	"github.com/df07/go-sphere-raytracer/pkg/geometry"
	"github.com/df07/go-sphere-raytracer/pkg/loaders"
	"github.com/df07/go-sphere-raytracer/pkg/material"
)

// LoadPBRT reads a PBRT scene restricted to spheres and builds it
func LoadPBRT(path string) (*Scene, error) {
	pbrtScene, err := loaders.LoadPBRT(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	s, err := FromPBRT(pbrtScene)
	if err != nil {
		return nil, fmt.Errorf("build scene %s: %w", path, err)
	}
	return s, nil
}

// FromPBRT converts parsed PBRT statements into a validated scene.
// Shapes without a material get PBRT's default grey diffuse material.
func FromPBRT(pbrtScene *loaders.PBRTScene) (*Scene, error) {
	s := New(pbrtCameraConfig(pbrtScene))
	if film := pbrtScene.Film; film != nil {
		xres, okX := film.GetIntParam("xresolution")
		yres, okY := film.GetIntParam("yresolution")
		if okX && okY && xres > 0 && yres > 0 {
			s.ImageWidth, s.ImageHeight = xres, yres
		}
	}

	if pbrtScene.Sampler != nil {
		if samples, ok := pbrtScene.Sampler.GetIntParam("pixelsamples"); ok {
			s.SamplingConfig.SamplesPerPixel = samples
		}
	}
	if pbrtScene.Integrator != nil {
		if depth, ok := pbrtScene.Integrator.GetIntParam("maxdepth"); ok {
			s.SamplingConfig.MaxDepth = depth
		}
	}

	ids := make([]core.MaterialID, len(pbrtScene.Materials))
	for i := range pbrtScene.Materials {
		m, err := pbrtMaterial(&pbrtScene.Materials[i])
		if err != nil {
			return nil, fmt.Errorf("material %d: %w", i, err)
		}
		ids[i] = s.AddMaterial(m)
	}

	defaultMaterial := core.NoMaterial
	for i := range pbrtScene.Shapes {
		shape := &pbrtScene.Shapes[i]
		if shape.Subtype != "sphere" {
			return nil, fmt.Errorf("shape %d: unsupported shape %q: %w", i, shape.Subtype, ErrInvalidScene)
		}

		radius, ok := shape.GetFloatParam("radius")
		if !ok {
			radius = 1
		}

		var id core.MaterialID
		if shape.MaterialIndex >= 0 {
			id = ids[shape.MaterialIndex]
		} else {
			if defaultMaterial == core.NoMaterial {
				defaultMaterial = s.AddMaterial(material.NewLambertian(core.NewVec3(0.5, 0.5, 0.5)))
			}
			id = defaultMaterial
		}
		s.AddSphere(shape.Offset, radius, id)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// pbrtCameraConfig maps LookAt, Camera and Film onto a thin-lens camera
func pbrtCameraConfig(pbrtScene *loaders.PBRTScene) geometry.CameraConfig {
	config := geometry.CameraConfig{
		LookFrom:    core.NewVec3(0, 0, 0),
		LookAt:      core.NewVec3(0, 0, -1),
		Up:          core.NewVec3(0, 1, 0),
		VFov:        90,
		AspectRatio: 2.0,
	}
	if pbrtScene.LookAt != nil {
		config.LookFrom = *pbrtScene.LookAt
		config.LookAt = *pbrtScene.LookAtTo
		config.Up = *pbrtScene.LookAtUp
	}

	if cam := pbrtScene.Camera; cam != nil {
		if fov, ok := cam.GetFloatParam("fov"); ok {
			config.VFov = fov
		}
		if lensRadius, ok := cam.GetFloatParam("lensradius"); ok {
			config.Aperture = 2 * lensRadius
		}
		if focus, ok := cam.GetFloatParam("focaldistance"); ok {
			config.FocusDistance = focus
		}
	}

	if film := pbrtScene.Film; film != nil {
		xres, okX := film.GetIntParam("xresolution")
		yres, okY := film.GetIntParam("yresolution")
		if okX && okY && xres > 0 && yres > 0 {
			config.AspectRatio = float64(xres) / float64(yres)
		}
	}
	return config
}

// pbrtMaterial maps diffuse, conductor and dielectric materials
func pbrtMaterial(stmt *loaders.PBRTStatement) (material.Material, error) {
	switch stmt.Subtype {
	case "diffuse":
		albedo := core.NewVec3(0.5, 0.5, 0.5)
		if rgb, ok := stmt.GetRGBParam("reflectance"); ok {
			albedo = *rgb
		}
		return material.NewLambertian(albedo), nil

	case "conductor":
		albedo := core.NewVec3(0.9, 0.9, 0.9)
		if rgb, ok := stmt.GetRGBParam("reflectance"); ok {
			albedo = *rgb
		}
		roughness, _ := stmt.GetFloatParam("roughness")
		return material.NewMetal(albedo, roughness), nil

	case "dielectric":
		eta, ok := stmt.GetFloatParam("eta")
		if !ok {
			eta = 1.5
		}
		if eta <= 0 {
			return material.Material{}, fmt.Errorf("eta %f must be positive: %w", eta, ErrInvalidScene)
		}
		return material.NewDielectric(eta), nil

	default:
		return material.Material{}, fmt.Errorf("unsupported material %q: %w", stmt.Subtype, ErrInvalidScene)
	}
}
