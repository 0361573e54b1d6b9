package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"io/fs"
	"log"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/df07/go-sphere-raytracer/pkg/core"
	"github.com/df07/go-sphere-raytracer/pkg/ppm"
	"github.com/df07/go-sphere-raytracer/pkg/renderer"
	"github.com/df07/go-sphere-raytracer/pkg/scene"
)

// Server handles web requests for the sphere raytracer
type Server struct {
	port      int
	scenesDir string
	renders   atomic.Int64 // Render counter used for log prefixes
}

// NewServer creates a new web server serving scene files from scenesDir
func NewServer(port int, scenesDir string) *Server {
	return &Server{port: port, scenesDir: scenesDir}
}

// RenderRequest represents a render request from the client
type RenderRequest struct {
	Scene   string // Scene id, e.g. "default" or "file:glass-bubble"
	Width   int    // Image width, 0 derives it from Height and the scene's aspect ratio
	Height  int    // Image height, 0 derives it from Width and the scene's aspect ratio
	Samples int    // Samples per pixel, 0 keeps the scene default
	Depth   int    // Maximum bounce depth, 0 keeps the scene default
	Seed    int64  // Random seed
	Format  string // "png" or "ppm"
}

// Handler returns the HTTP routes of the server
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/scenes", s.handleScenes)
	mux.HandleFunc("/api/render", s.handleRender)
	mux.HandleFunc("/api/inspect", s.handleInspect)
	return mux
}

// Start starts the web server
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	log.Printf("Starting web server on http://localhost%s", addr)
	return http.ListenAndServe(addr, s.Handler())
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleScenes lists the built-in scenes and the scene files on disk
func (s *Server) handleScenes(w http.ResponseWriter, r *http.Request) {
	scenes, err := scene.ListAllScenes(s.scenesDir)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, scenes)
}

// handleRender renders a scene and responds with the encoded image
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	req, err := parseRenderRequest(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	sceneObj, err := s.createScene(req.Scene, req.Seed)
	if err != nil {
		writeSceneError(w, err)
		return
	}

	width, height := sceneObj.FitImage(req.Width, req.Height)
	renderID := fmt.Sprintf("render-%d", s.renders.Add(1))
	raytracer, err := renderer.NewRaytracer(sceneObj, renderer.RenderConfig{
		Width:  width,
		Height: height,
		Seed:   req.Seed,
	}, NewWebLogger(renderID, log.Default()))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	raytracer.MergeSamplingConfig(core.SamplingConfig{
		SamplesPerPixel: req.Samples,
		MaxDepth:        req.Depth,
	})

	// Client disconnects cancel the render
	img, _, err := raytracer.RenderParallel(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "Render error: "+err.Error())
		return
	}

	var buf bytes.Buffer
	contentType := "image/png"
	if req.Format == "ppm" {
		contentType = "image/x-portable-pixmap"
		err = ppm.Encode(&buf, img)
	} else {
		err = png.Encode(&buf, img.ToRGBA())
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to encode image: "+err.Error())
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Printf("%s: failed to write response: %v", renderID, err)
	}
}

// parseRenderRequest parses and validates the render query parameters
func parseRenderRequest(values url.Values) (*RenderRequest, error) {
	req := &RenderRequest{
		Scene:  values.Get("scene"),
		Format: values.Get("format"),
	}
	if req.Scene == "" {
		req.Scene = "default"
	}
	if req.Format == "" {
		req.Format = "png"
	}
	if req.Format != "png" && req.Format != "ppm" {
		return nil, fmt.Errorf("format must be png or ppm, got: %s", req.Format)
	}

	var err error
	if req.Width, err = parseIntParam(values, "width", 0, 1, 2000); err != nil {
		return nil, err
	}
	if req.Height, err = parseIntParam(values, "height", 0, 1, 2000); err != nil {
		return nil, err
	}
	if req.Samples, err = parseIntParam(values, "samples", 0, 1, 10000); err != nil {
		return nil, err
	}
	if req.Depth, err = parseIntParam(values, "depth", 0, 1, 1000); err != nil {
		return nil, err
	}
	if req.Seed, err = parseInt64Param(values, "seed", 42); err != nil {
		return nil, err
	}

	// Performance warning
	if req.Width*req.Height > 800*600 && req.Samples > 100 {
		log.Printf("Render warning: Large image with high samples may render slowly")
	}

	return req, nil
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// parseInt64Param parses an unbounded 64-bit integer parameter from URL query
func parseInt64Param(values url.Values, key string, defaultValue int64) (int64, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// createScene resolves a built-in scene or a "file:" scene from the scenes directory.
// Raw paths are not accepted over HTTP.
func (s *Server) createScene(sceneID string, seed int64) (*scene.Scene, error) {
	if name, ok := strings.CutPrefix(sceneID, "file:"); ok {
		if name == "" || name != filepath.Base(name) {
			return nil, fmt.Errorf("%q: %w", sceneID, scene.ErrUnknownScene)
		}
		for _, ext := range []string{".json", ".pbrt"} {
			sceneObj, err := scene.ByName(filepath.Join(s.scenesDir, name+ext), nil)
			if err != nil && errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return sceneObj, err
		}
		return nil, fmt.Errorf("%q: %w", sceneID, scene.ErrUnknownScene)
	}
	if ext := filepath.Ext(sceneID); ext != "" {
		return nil, fmt.Errorf("%q: %w", sceneID, scene.ErrUnknownScene)
	}
	return scene.ByName(sceneID, core.NewSeededSampler(seed))
}

// writeSceneError maps scene lookup failures to HTTP status codes
func writeSceneError(w http.ResponseWriter, err error) {
	if errors.Is(err, scene.ErrUnknownScene) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeError(w, http.StatusUnprocessableEntity, err.Error())
}

// writeJSON writes v as a JSON response
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

// writeError writes a JSON error body
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
