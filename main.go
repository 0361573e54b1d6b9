package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/df07/go-sphere-raytracer/pkg/core"
	"github.com/df07/go-sphere-raytracer/pkg/ppm"
	"github.com/df07/go-sphere-raytracer/pkg/renderer"
	"github.com/df07/go-sphere-raytracer/pkg/scene"
)

// options holds the parsed command line
type options struct {
	scene   string
	config  string
	width   int
	height  int
	samples int
	depth   int
	workers int
	seed    int64
	out     string
	format  string
}

// patternHeight is the default height of the diagnostic patterns
const patternHeight = 100

// patterns are diagnostic images that need no scene
var patterns = map[string]func(width, height int) (*renderer.Image, error){
	"ramp":       renderer.ColorRamp,
	"sky":        renderer.SkyGradient,
	"hit-sphere": renderer.SphereHitPattern,
}

func main() {
	var opts options
	flag.StringVar(&opts.scene, "scene", "default", "Scene name, diagnostic pattern, or path to a .json or .pbrt scene file")
	flag.StringVar(&opts.config, "config", "", "Scene file (overrides -scene)")
	flag.IntVar(&opts.width, "width", 0, "Image width in pixels (0 = from -height and the scene's aspect ratio)")
	flag.IntVar(&opts.height, "height", 0, "Image height in pixels (0 = from -width and the scene's aspect ratio)")
	flag.IntVar(&opts.samples, "samples", 0, "Samples per pixel (0 = scene default)")
	flag.IntVar(&opts.depth, "depth", 0, "Maximum bounce depth (0 = scene default)")
	flag.IntVar(&opts.workers, "workers", 0, "Number of parallel workers (0 = CPU count, 1 = sequential)")
	flag.Int64Var(&opts.seed, "seed", 42, "Random seed")
	flag.StringVar(&opts.out, "out", "", "Output file (default output/<scene>/render_<timestamp>.<format>)")
	flag.StringVar(&opts.format, "format", "ppm", "Output format: 'ppm' or 'png'")
	help := flag.Bool("help", false, "Show help information")
	flag.Parse()

	if *help {
		printHelp()
		return
	}

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Println("Sphere Raytracer")
	fmt.Println("Usage: raytracer [options]")
	fmt.Println()
	fmt.Println("Options:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("Available scenes:")
	scenes, err := scene.ListAllScenes("scenes")
	if err == nil {
		for _, info := range scenes {
			id := info.ID
			if info.Type == "file" {
				id = info.FilePath
			}
			fmt.Printf("  %-24s %s\n", id, info.Description)
		}
	}
	fmt.Println()
	fmt.Println("Diagnostic patterns:")
	fmt.Println("  ramp                     Red/green color ramp")
	fmt.Println("  sky                      Background gradient only")
	fmt.Println("  hit-sphere               Red sphere silhouette over the background")
}

func run(opts options) error {
	if opts.format != "ppm" && opts.format != "png" {
		return fmt.Errorf("unknown format %q", opts.format)
	}

	sceneName := opts.scene
	if opts.config != "" {
		sceneName = opts.config
	}

	fmt.Println("Starting Sphere Raytracer...")

	var img *renderer.Image
	if pattern, ok := patterns[sceneName]; ok {
		fmt.Printf("Using %s pattern...\n", sceneName)
		var err error
		width, height := patternSize(opts.width, opts.height)
		img, err = pattern(width, height)
		if err != nil {
			return err
		}
	} else {
		s, err := createScene(sceneName, opts.seed)
		if err != nil {
			return err
		}
		img, err = renderScene(s, opts)
		if err != nil {
			return err
		}
	}

	filename := opts.out
	if filename == "" {
		filename = defaultOutputPath(sceneName, opts.format, time.Now())
	}
	if err := writeImage(filename, opts.format, img); err != nil {
		return err
	}

	fmt.Printf("Render saved as %s\n", filename)
	return nil
}

// createScene resolves a built-in scene name or a scene file
func createScene(name string, seed int64) (*scene.Scene, error) {
	if name == "" {
		return nil, errors.New("scene name must not be empty")
	}
	return scene.ByName(name, core.NewSeededSampler(seed))
}

// patternSize fills in unset pattern dimensions for the patterns' fixed 2:1 camera
func patternSize(width, height int) (int, int) {
	switch {
	case width == 0 && height == 0:
		return 2 * patternHeight, patternHeight
	case height == 0:
		return width, max(1, width/2)
	case width == 0:
		return 2 * height, height
	}
	return width, height
}

// renderScene applies the command line overrides and renders s
func renderScene(s *scene.Scene, opts options) (*renderer.Image, error) {
	width, height := s.FitImage(opts.width, opts.height)
	rt, err := renderer.NewRaytracer(s, renderer.RenderConfig{
		Width:      width,
		Height:     height,
		NumWorkers: opts.workers,
		Seed:       opts.seed,
	}, renderer.NewDefaultLogger())
	if err != nil {
		return nil, err
	}
	rt.MergeSamplingConfig(core.SamplingConfig{
		SamplesPerPixel: opts.samples,
		MaxDepth:        opts.depth,
	})

	if opts.workers == 1 {
		img, stats := rt.Render()
		fmt.Printf("Samples per pixel: %.1f\n", stats.AverageSamples())
		return img, nil
	}

	img, stats, err := rt.RenderParallel(context.Background())
	if err != nil {
		return nil, err
	}
	fmt.Printf("Samples per pixel: %.1f\n", stats.AverageSamples())
	return img, nil
}

// defaultOutputPath builds output/<scene>/render_<timestamp>.<format>
func defaultOutputPath(sceneName, format string, now time.Time) string {
	dir := strings.TrimSuffix(filepath.Base(sceneName), filepath.Ext(sceneName))
	timestamp := now.Format("20060102_150405")
	return filepath.Join("output", dir, fmt.Sprintf("render_%s.%s", timestamp, format))
}

// writeImage saves img as PPM or PNG, creating the parent directory
func writeImage(filename, format string, img *renderer.Image) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	if format == "ppm" {
		return ppm.Save(filename, img)
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	defer file.Close()

	if err := png.Encode(file, img.ToRGBA()); err != nil {
		return fmt.Errorf("saving PNG: %w", err)
	}
	return file.Close()
}
