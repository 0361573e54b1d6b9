package server

import (
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/df07/go-sphere-raytracer/pkg/core"
	"github.com/df07/go-sphere-raytracer/pkg/geometry"
	"github.com/df07/go-sphere-raytracer/pkg/integrator"
	"github.com/df07/go-sphere-raytracer/pkg/material"
	"github.com/df07/go-sphere-raytracer/pkg/scene"
)

// InspectResponse represents the JSON response for object inspection
type InspectResponse struct {
	Hit          bool                   `json:"hit"`
	MaterialType string                 `json:"materialType,omitempty"`
	GeometryType string                 `json:"geometryType,omitempty"`
	Point        [3]float64             `json:"point"`
	Normal       [3]float64             `json:"normal"`
	Distance     float64                `json:"distance"`
	FrontFace    bool                   `json:"frontFace"`
	Properties   map[string]interface{} `json:"properties,omitempty"`
}

// InspectResult is the nearest sphere under a pixel
type InspectResult struct {
	Hit       bool
	HitRecord core.HitRecord
	Ray       core.Ray
	Sphere    *geometry.Sphere
}

// inspectPixel casts a ray through the center of pixel (pixelX, pixelY), row 0 at the top
func inspectPixel(sceneObj *scene.Scene, width, height, pixelX, pixelY int) InspectResult {
	u := (float64(pixelX) + 0.5) / float64(width)
	v := (float64(height-1-pixelY) + 0.5) / float64(height)

	// Fixed lens sample so repeated inspections agree
	sampler := core.NewSeededSampler(0)
	ray := sceneObj.Camera.GetRay(u, v, sampler)

	result := InspectResult{Ray: ray}
	hit, shape := sceneObj.World.HitShape(ray, integrator.MinHitDistance, math.Inf(1))
	if sphere, ok := shape.(*geometry.Sphere); ok {
		result.Hit = true
		result.HitRecord = hit
		result.Sphere = sphere
	}
	return result
}

// vec3Array converts a vector for JSON output
func vec3Array(v core.Vec3) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

// hexColor formats a linear [0,1] color as #rrggbb
func hexColor(c core.Vec3) string {
	c = c.Clamp(0, 1)
	return fmt.Sprintf("#%02x%02x%02x", int(c.X*255), int(c.Y*255), int(c.Z*255))
}

// extractMaterialInfo extracts the properties relevant to the material's kind
func extractMaterialInfo(mat material.Material) (string, map[string]interface{}) {
	properties := make(map[string]interface{})

	switch mat.Kind {
	case material.KindLambertian:
		properties["albedo"] = vec3Array(mat.Albedo)
		properties["color"] = hexColor(mat.Albedo)
	case material.KindMetal:
		properties["albedo"] = vec3Array(mat.Albedo)
		properties["color"] = hexColor(mat.Albedo)
		properties["fuzz"] = mat.Fuzz
	case material.KindDielectric:
		properties["refractiveIndex"] = mat.RefractiveIndex
		properties["color"] = "#ffffff" // Clear glass
	}
	properties["id"] = int(mat.ID)
	return mat.Kind.String(), properties
}

// handleInspect reports which sphere and material are visible at a pixel
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	req, err := parseRenderRequest(query)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid scene parameters: "+err.Error())
		return
	}

	pixelX, err := strconv.Atoi(query.Get("x"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid x coordinate")
		return
	}
	pixelY, err := strconv.Atoi(query.Get("y"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid y coordinate")
		return
	}

	sceneObj, err := s.createScene(req.Scene, req.Seed)
	if err != nil {
		writeSceneError(w, err)
		return
	}

	// Same resolution and camera aspect as /api/render
	width, height := sceneObj.FitImage(req.Width, req.Height)
	if pixelX < 0 || pixelX >= width || pixelY < 0 || pixelY >= height {
		writeError(w, http.StatusBadRequest, "Pixel coordinates out of bounds")
		return
	}

	result := inspectPixel(sceneObj, width, height, pixelX, pixelY)
	if !result.Hit {
		writeJSON(w, http.StatusOK, InspectResponse{Hit: false})
		return
	}

	hit := result.HitRecord
	properties := map[string]interface{}{
		"center": vec3Array(result.Sphere.Center),
		"radius": result.Sphere.Radius,
	}
	response := InspectResponse{
		Hit:          true,
		GeometryType: "sphere",
		Point:        vec3Array(hit.Point),
		Normal:       vec3Array(hit.Normal),
		Distance:     hit.T * result.Ray.Direction.Length(),
		FrontFace:    result.Ray.Direction.Dot(hit.Normal) < 0,
		Properties:   properties,
	}

	if mat, ok := sceneObj.Material(hit.MaterialID); ok {
		materialType, materialProps := extractMaterialInfo(mat)
		response.MaterialType = materialType
		properties["material"] = materialProps
	} else {
		response.MaterialType = "unknown"
	}

	writeJSON(w, http.StatusOK, response)
}
