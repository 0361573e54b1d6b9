package scene

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/df07/go-sphere-raytracer/pkg/core"
	"github.com/df07/go-sphere-raytracer/pkg/loaders"
)

// SceneInfo represents a discovered scene with its metadata
type SceneInfo struct {
	ID          string `json:"id"`          // Unique identifier
	DisplayName string `json:"displayName"` // UI display name
	Description string `json:"description"` // Optional description
	Type        string `json:"type"`        // "builtin" or "file"
	FilePath    string `json:"filePath"`    // Path to scene file (file type only)
}

// builtinScene pairs metadata with a constructor.
// Constructors receive a sampler for scenes with randomized placement.
type builtinScene struct {
	info  SceneInfo
	build func(sampler core.Sampler) *Scene
}

var builtinScenes = []builtinScene{
	{
		info: SceneInfo{
			ID:          "default",
			DisplayName: "Default Scene",
			Description: "Diffuse, metal and hollow glass spheres on a large ground sphere",
			Type:        "builtin",
		},
		build: func(core.Sampler) *Scene { return NewDefaultScene() },
	},
	{
		info: SceneInfo{
			ID:          "random",
			DisplayName: "Random Spheres",
			Description: "Hundreds of small random spheres around three large feature spheres",
			Type:        "builtin",
		},
		build: func(sampler core.Sampler) *Scene { return NewRandomScene(sampler) },
	},
}

// Names returns the identifiers of the built-in scenes
func Names() []string {
	names := make([]string, 0, len(builtinScenes))
	for _, b := range builtinScenes {
		names = append(names, b.info.ID)
	}
	return names
}

// ByName builds a built-in scene, or loads a scene file when name ends in .json or .pbrt
func ByName(name string, sampler core.Sampler) (*Scene, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return Load(name)
	case ".pbrt":
		return LoadPBRT(name)
	}
	for _, b := range builtinScenes {
		if b.info.ID == name {
			return b.build(sampler), nil
		}
	}
	return nil, fmt.Errorf("%q (built-in scenes: %s): %w", name, strings.Join(Names(), ", "), ErrUnknownScene)
}

// ListSceneFiles scans the scenes directory and returns discovered JSON and PBRT scenes
func ListSceneFiles(dir string) ([]SceneInfo, error) {
	if _, err := os.Stat(dir); err != nil {
		// No scenes directory, nothing to list
		return []SceneInfo{}, nil
	}

	var files []string
	for _, pattern := range []string{"*.json", "*.pbrt"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("failed to scan scenes directory: %w", err)
		}
		files = append(files, matches...)
	}

	var scenes []SceneInfo
	for _, filePath := range files {
		sceneInfo, err := ParseSceneMetadata(filePath)
		if err != nil {
			// Skip unreadable files but keep listing the rest
			continue
		}
		scenes = append(scenes, sceneInfo)
	}

	// Sort scenes by display name
	sort.Slice(scenes, func(i, j int) bool {
		return scenes[i].DisplayName < scenes[j].DisplayName
	})

	return scenes, nil
}

// ParseSceneMetadata reads the name and description of a scene file.
// PBRT files carry no metadata, so they are only checked for parse errors.
func ParseSceneMetadata(filePath string) (SceneInfo, error) {
	filename := filepath.Base(filePath)
	nameWithoutExt := strings.TrimSuffix(filename, filepath.Ext(filename))

	sceneInfo := SceneInfo{
		ID:          "file:" + nameWithoutExt,
		DisplayName: titleCase(nameWithoutExt),
		Type:        "file",
		FilePath:    filePath,
	}

	if strings.EqualFold(filepath.Ext(filename), ".pbrt") {
		if _, err := loaders.LoadPBRT(filePath); err != nil {
			return sceneInfo, err
		}
		sceneInfo.Description = "PBRT scene"
		return sceneInfo, nil
	}

	file, err := os.Open(filePath)
	if err != nil {
		return sceneInfo, err
	}
	defer file.Close()

	f, err := Decode(file)
	if err != nil {
		return sceneInfo, err
	}
	if f.Name != "" {
		sceneInfo.DisplayName = f.Name
	}
	sceneInfo.Description = f.Description
	return sceneInfo, nil
}

// ListAllScenes returns the built-in scenes followed by scene files found in dir
func ListAllScenes(dir string) ([]SceneInfo, error) {
	scenes := make([]SceneInfo, 0, len(builtinScenes))
	for _, b := range builtinScenes {
		scenes = append(scenes, b.info)
	}

	fileScenes, err := ListSceneFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list scene files: %w", err)
	}
	return append(scenes, fileScenes...), nil
}

// titleCase converts a file name like "glass-bubble" to "Glass Bubble"
func titleCase(s string) string {
	// Replace hyphens and underscores with spaces
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")

	// Title case each word
	words := strings.Fields(s)
	for i, word := range words {
		if len(word) > 0 {
			words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
		}
	}

	return strings.Join(words, " ")
}
