package renderer

import (
	"context"
	"errors"
	"testing"

	"github.com/df07/go-sphere-raytracer/pkg/core"
	"github.com/df07/go-sphere-raytracer/pkg/geometry"
	"github.com/df07/go-sphere-raytracer/pkg/material"
	"github.com/df07/go-sphere-raytracer/pkg/scene"
)

// testLogger collects log lines instead of printing them
type testLogger struct {
	lines []string
}

func (l *testLogger) Printf(format string, args ...interface{}) {
	l.lines = append(l.lines, format)
}

// createTestScene returns the default scene with cheap sampling settings
func createTestScene() *scene.Scene {
	s := scene.NewDefaultScene()
	s.SamplingConfig = core.SamplingConfig{SamplesPerPixel: 4, MaxDepth: 5}
	return s
}

// createSkyScene returns a scene with nothing in it, so every ray shows the background
func createSkyScene() *scene.Scene {
	s := scene.New(geometry.CameraConfig{
		LookFrom:    core.NewVec3(0, 0, 0),
		LookAt:      core.NewVec3(0, 0, -1),
		Up:          core.NewVec3(0, 1, 0),
		VFov:        90,
		AspectRatio: 2.0,
	})
	s.SamplingConfig = core.SamplingConfig{SamplesPerPixel: 2, MaxDepth: 5}
	return s
}

// silhouetteSize returns the bounding box of the pure black pixels
func silhouetteSize(img *Image) (width, height int) {
	minX, minY, maxX, maxY := img.Width, img.Height, -1, -1
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			if img.At(x, y) == (RGB{}) {
				minX, maxX = min(minX, x), max(maxX, x)
				minY, maxY = min(minY, y), max(maxY, y)
			}
		}
	}
	if maxX < 0 {
		return 0, 0
	}
	return maxX - minX + 1, maxY - minY + 1
}

func TestRaytracer_SphereAheadRendersAsCircle(t *testing.T) {
	// A 3:2 camera rendered into a 2:1 image
	s := scene.New(geometry.CameraConfig{
		LookFrom:    core.NewVec3(0, 0, 0),
		LookAt:      core.NewVec3(0, 0, -1),
		Up:          core.NewVec3(0, 1, 0),
		VFov:        90,
		AspectRatio: 1.5,
	})
	black := s.AddMaterial(material.NewLambertian(core.NewVec3(0, 0, 0)))
	s.AddSphere(core.NewVec3(0, 0, -3), 1, black)
	s.SamplingConfig = core.SamplingConfig{SamplesPerPixel: 4, MaxDepth: 2}

	width, height := s.FitImage(200, 100)
	rt, err := NewRaytracer(s, RenderConfig{Width: width, Height: height, Seed: 1}, nil)
	if err != nil {
		t.Fatalf("NewRaytracer failed: %v", err)
	}
	img, _ := rt.Render()

	w, h := silhouetteSize(img)
	if w == 0 {
		t.Fatal("Expected the sphere to be visible")
	}
	// tan(asin(1/3)) * 50 px per unit is about 17.7 px of radius
	if w < 30 || w > 40 {
		t.Errorf("Unexpected silhouette width %d", w)
	}
	if diff := w - h; diff < -2 || diff > 2 {
		t.Errorf("Sphere should render as a circle, got %dx%d", w, h)
	}
}

func TestNewRaytracer_InvalidDimensions(t *testing.T) {
	_, err := NewRaytracer(createTestScene(), RenderConfig{Width: 0, Height: 10}, nil)
	if !errors.Is(err, ErrInvalidDimensions) {
		t.Errorf("Expected ErrInvalidDimensions, got %v", err)
	}
}

func TestRaytracer_SamplingConfig(t *testing.T) {
	rt, err := NewRaytracer(createTestScene(), RenderConfig{Width: 4, Height: 2}, nil)
	if err != nil {
		t.Fatalf("NewRaytracer failed: %v", err)
	}

	if got := rt.GetSamplingConfig(); got.SamplesPerPixel != 4 || got.MaxDepth != 5 {
		t.Errorf("Expected scene sampling config, got %+v", got)
	}

	rt.MergeSamplingConfig(core.SamplingConfig{SamplesPerPixel: 9})
	if got := rt.GetSamplingConfig(); got.SamplesPerPixel != 9 || got.MaxDepth != 5 {
		t.Errorf("Merge should only override samples, got %+v", got)
	}
}

func TestRaytracer_RenderStats(t *testing.T) {
	logger := &testLogger{}
	rt, err := NewRaytracer(createTestScene(), RenderConfig{Width: 8, Height: 4, Seed: 1}, logger)
	if err != nil {
		t.Fatalf("NewRaytracer failed: %v", err)
	}

	img, stats := rt.Render()

	if img.Width != 8 || img.Height != 4 || len(img.Pix) != 32 {
		t.Fatalf("Unexpected image shape %dx%d (%d pixels)", img.Width, img.Height, len(img.Pix))
	}
	if stats.TotalPixels != 32 {
		t.Errorf("Expected 32 pixels, got %d", stats.TotalPixels)
	}
	if stats.TotalSamples != 32*4 {
		t.Errorf("Expected %d samples, got %d", 32*4, stats.TotalSamples)
	}
	if stats.AverageSamples() != 4 {
		t.Errorf("Expected 4 average samples, got %f", stats.AverageSamples())
	}
	if len(logger.lines) == 0 {
		t.Error("Expected render progress to be logged")
	}
}

func TestRaytracer_RenderIsDeterministic(t *testing.T) {
	config := RenderConfig{Width: 10, Height: 5, Seed: 7}

	rt1, _ := NewRaytracer(createTestScene(), config, nil)
	rt2, _ := NewRaytracer(createTestScene(), config, nil)

	img1, _ := rt1.Render()
	img2, _ := rt2.Render()

	for i := range img1.Pix {
		if img1.Pix[i] != img2.Pix[i] {
			t.Fatalf("Pixel %d differs between runs with the same seed: %v vs %v", i, img1.Pix[i], img2.Pix[i])
		}
	}
}

func TestRaytracer_TopRowIsSky(t *testing.T) {
	rt, _ := NewRaytracer(createSkyScene(), RenderConfig{Width: 20, Height: 10, Seed: 3}, nil)
	img, _ := rt.Render()

	top := img.At(10, 0)
	bottom := img.At(10, img.Height-1)

	// Both gradient endpoints have full blue
	if top.B != 255 || bottom.B != 255 {
		t.Errorf("Expected full blue everywhere, got top %v bottom %v", top, bottom)
	}
	// The top of the image looks up into the bluer part of the sky
	if top.R >= bottom.R {
		t.Errorf("Top row should be bluer than bottom row: top %v bottom %v", top, bottom)
	}
}

func TestRaytracer_RenderParallelMatchesAcrossWorkerCounts(t *testing.T) {
	render := func(workers int) *Image {
		rt, err := NewRaytracer(createTestScene(), RenderConfig{Width: 12, Height: 6, NumWorkers: workers, Seed: 5}, nil)
		if err != nil {
			t.Fatalf("NewRaytracer failed: %v", err)
		}
		img, stats, err := rt.RenderParallel(context.Background())
		if err != nil {
			t.Fatalf("RenderParallel failed: %v", err)
		}
		if stats.TotalPixels != 72 {
			t.Errorf("Expected 72 pixels, got %d", stats.TotalPixels)
		}
		return img
	}

	single := render(1)
	multi := render(4)

	for i := range single.Pix {
		if single.Pix[i] != multi.Pix[i] {
			t.Fatalf("Pixel %d differs between 1 and 4 workers: %v vs %v", i, single.Pix[i], multi.Pix[i])
		}
	}
}

func TestRaytracer_RenderParallelCancelled(t *testing.T) {
	rt, _ := NewRaytracer(createTestScene(), RenderConfig{Width: 8, Height: 8, NumWorkers: 2}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	img, _, err := rt.RenderParallel(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if img != nil {
		t.Error("Expected no image from a cancelled render")
	}
}

func TestWorkerPool_ProcessesAllRows(t *testing.T) {
	rt, _ := NewRaytracer(createSkyScene(), RenderConfig{Width: 4, Height: 3}, nil)
	img, _ := NewImage(4, 3)

	pool := NewWorkerPool(rt, 2, 3)
	if pool.GetNumWorkers() != 2 {
		t.Errorf("Expected 2 workers, got %d", pool.GetNumWorkers())
	}
	pool.Start(context.Background())
	for y := 0; y < 3; y++ {
		pool.SubmitTask(RowTask{Row: y, Image: img, Sampler: core.NewSeededSampler(int64(y))})
	}
	pool.Stop()

	seen := make(map[int]bool)
	for {
		result, ok := pool.GetResult()
		if !ok {
			break
		}
		if result.Error != nil {
			t.Errorf("Row %d failed: %v", result.Row, result.Error)
		}
		if result.Stats.TotalPixels != 4 {
			t.Errorf("Row %d: expected 4 pixels, got %d", result.Row, result.Stats.TotalPixels)
		}
		seen[result.Row] = true
	}
	if len(seen) != 3 {
		t.Errorf("Expected results for 3 rows, got %d", len(seen))
	}

	for _, p := range img.Pix {
		if p.B != 255 {
			t.Errorf("Expected every sky pixel to be rendered, got %v", p)
			break
		}
	}
}
