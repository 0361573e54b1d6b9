package renderer

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/df07/go-sphere-raytracer/pkg/core"
	"github.com/df07/go-sphere-raytracer/pkg/integrator"
	"github.com/df07/go-sphere-raytracer/pkg/scene"
)

// RenderConfig contains the output and scheduling parameters of a render
type RenderConfig struct {
	Width      int   // Image width in pixels
	Height     int   // Image height in pixels
	NumWorkers int   // Number of parallel workers (0 = use CPU count)
	Seed       int64 // Base seed for all random streams
}

// DefaultRenderConfig returns sensible default values
func DefaultRenderConfig() RenderConfig {
	return RenderConfig{
		Width:      200,
		Height:     100,
		NumWorkers: 0,
		Seed:       42,
	}
}

// Raytracer turns a scene into an image by sampling every pixel through the camera
type Raytracer struct {
	scene      *scene.Scene
	integrator integrator.Integrator
	config     RenderConfig
	sampling   core.SamplingConfig
	logger     core.Logger
}

// NewRaytracer creates a raytracer using the scene's sampling configuration
func NewRaytracer(s *scene.Scene, config RenderConfig, logger core.Logger) (*Raytracer, error) {
	if config.Width <= 0 || config.Height <= 0 {
		return nil, fmt.Errorf("render %dx%d: %w", config.Width, config.Height, ErrInvalidDimensions)
	}
	if logger == nil {
		logger = nopLogger{}
	}

	rt := &Raytracer{
		scene:  s,
		config: config,
		logger: logger,
	}
	rt.SetSamplingConfig(s.SamplingConfig)
	return rt, nil
}

// SetSamplingConfig replaces the sampling configuration
func (rt *Raytracer) SetSamplingConfig(config core.SamplingConfig) {
	rt.sampling = config
	rt.integrator = integrator.NewPathTracingIntegrator(config)
}

// MergeSamplingConfig overlays the non-zero fields of config onto the current configuration
func (rt *Raytracer) MergeSamplingConfig(config core.SamplingConfig) {
	rt.SetSamplingConfig(core.MergeSamplingConfig(rt.sampling, config))
}

// GetSamplingConfig returns the current sampling configuration
func (rt *Raytracer) GetSamplingConfig() core.SamplingConfig {
	return rt.sampling
}

// SamplePixel estimates the color of pixel (i, j), where j counts scanlines from the bottom
func (rt *Raytracer) SamplePixel(i, j int, sampler core.Sampler) PixelStats {
	width := float64(rt.config.Width)
	height := float64(rt.config.Height)

	var ps PixelStats
	for s := 0; s < rt.sampling.SamplesPerPixel; s++ {
		u := (float64(i) + sampler.Get1D()) / width
		v := (float64(j) + sampler.Get1D()) / height

		ray := rt.scene.Camera.GetRay(u, v, sampler)
		ps.AddSample(rt.integrator.RayColor(ray, rt.scene, sampler))
	}
	return ps
}

// RenderRow renders image row y (0 is the top) into img
func (rt *Raytracer) RenderRow(img *Image, y int, sampler core.Sampler) RenderStats {
	j := rt.config.Height - 1 - y
	row := img.Row(y)

	var stats RenderStats
	for i := range row {
		ps := rt.SamplePixel(i, j, sampler)
		row[i] = ps.RGB()
		stats.TotalPixels++
		stats.TotalSamples += ps.SampleCount
	}
	return stats
}

// Render renders the whole image sequentially with a single random stream,
// scanning from the top row down
func (rt *Raytracer) Render() (*Image, RenderStats) {
	start := time.Now()
	img, _ := NewImage(rt.config.Width, rt.config.Height)
	sampler := core.NewSeededSampler(rt.config.Seed)

	rt.logger.Printf("Rendering %d spheres at %dx%d with %d samples per pixel (max depth %d)\n",
		rt.scene.GetPrimitiveCount(), rt.config.Width, rt.config.Height, rt.sampling.SamplesPerPixel, rt.sampling.MaxDepth)

	var stats RenderStats
	for y := 0; y < rt.config.Height; y++ {
		stats.Add(rt.RenderRow(img, y, sampler))
	}
	stats.Duration = time.Since(start)

	rt.logger.Printf("Render complete in %v (%d samples)\n", stats.Duration, stats.TotalSamples)
	return img, stats
}

// RenderParallel renders rows concurrently. Every row has its own random stream
// seeded from Seed and the row index, so the image does not depend on the worker count.
func (rt *Raytracer) RenderParallel(ctx context.Context) (*Image, RenderStats, error) {
	start := time.Now()
	img, _ := NewImage(rt.config.Width, rt.config.Height)

	numWorkers := rt.config.NumWorkers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	pool := NewWorkerPool(rt, numWorkers, rt.config.Height)
	rt.logger.Printf("Rendering %d spheres at %dx%d with %d samples per pixel using %d workers\n",
		rt.scene.GetPrimitiveCount(), rt.config.Width, rt.config.Height, rt.sampling.SamplesPerPixel, pool.GetNumWorkers())
	pool.Start(ctx)

	for y := 0; y < rt.config.Height; y++ {
		pool.SubmitTask(RowTask{
			Row:     y,
			Image:   img,
			Sampler: core.NewSeededSampler(rt.config.Seed + int64(y)),
		})
	}
	pool.Stop()

	var stats RenderStats
	var firstErr error
	for {
		result, ok := pool.GetResult()
		if !ok {
			break
		}
		if result.Error != nil && firstErr == nil {
			firstErr = result.Error
		}
		stats.Add(result.Stats)
	}
	stats.Duration = time.Since(start)

	if firstErr != nil {
		rt.logger.Printf("Render aborted after %v: %v\n", stats.Duration, firstErr)
		return nil, stats, firstErr
	}

	rt.logger.Printf("Render complete in %v (%d samples)\n", stats.Duration, stats.TotalSamples)
	return img, stats, nil
}
