package loaders

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/df07/go-recursive-raytracer/pkg/core"
	"github.com/df07/go-recursive-raytracer/pkg/scene"
)

const (
	builtinGroup   = "Built-in Scenes"
	sceneFileGroup = "Scene Files"
)

// SceneInfo represents a discovered scene with its metadata
type SceneInfo struct {
	ID          string `json:"id"`                 // Unique identifier
	Name        string `json:"name"`               // Scene name
	DisplayName string `json:"displayName"`        // UI display name
	Description string `json:"description"`        // Optional description
	Group       string `json:"group"`              // Grouping category
	Type        string `json:"type"`               // "builtin" or "file"
	FilePath    string `json:"filePath,omitempty"` // Path to the scene file (file type only)
}

// SceneGroup represents a group of related scenes
type SceneGroup struct {
	Name   string      `json:"name"`
	Scenes []SceneInfo `json:"scenes"`
}

// ScenesResponse represents the complete response for /api/scenes
type ScenesResponse struct {
	Groups []SceneGroup `json:"groups"`
}

// BuiltinScenes describes every registered built-in scene
func BuiltinScenes() []SceneInfo {
	var scenes []SceneInfo
	for _, name := range scene.BuiltinNames() {
		scenes = append(scenes, SceneInfo{
			ID:          name,
			Name:        name,
			DisplayName: titleCase(name),
			Description: scene.BuiltinDescription(name),
			Group:       builtinGroup,
			Type:        "builtin",
		})
	}
	return scenes
}

// ListSceneFiles scans dir for YAML, TOML and JSON scene files.
// A missing directory yields an empty list; unparseable files are skipped with a warning.
func ListSceneFiles(dir string) ([]SceneInfo, error) {
	if dir == "" {
		return []SceneInfo{}, nil
	}
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return []SceneInfo{}, nil
		}
		return nil, fmt.Errorf("failed to scan scenes directory: %w", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan scenes directory: %w", err)
	}

	scenes := []SceneInfo{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		filePath := filepath.Join(dir, entry.Name())
		if _, err := FormatFromPath(filePath); err != nil {
			continue
		}

		sf, err := Load(filePath)
		if err != nil {
			// Keep going so one broken file does not hide the rest
			core.Logger().Warn("skipping scene file", "path", filePath, "error", err)
			continue
		}
		scenes = append(scenes, sceneFileInfo(filePath, sf))
	}

	// Sort scenes by display name
	sort.Slice(scenes, func(i, j int) bool {
		return scenes[i].DisplayName < scenes[j].DisplayName
	})

	return scenes, nil
}

func sceneFileInfo(filePath string, sf *SceneFile) SceneInfo {
	base := strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))

	info := SceneInfo{
		ID:          "file:" + base,
		Name:        sf.Name,
		DisplayName: sf.Name,
		Description: sf.Description,
		Group:       sf.Group,
		Type:        "file",
		FilePath:    filePath,
	}
	if info.Name == base {
		info.DisplayName = titleCase(base)
	}
	if info.Group == "" {
		info.Group = sceneFileGroup
	}
	return info
}

// ListAllScenes returns both built-in scenes and scene files in dir, grouped by category
func ListAllScenes(dir string) (ScenesResponse, error) {
	var response ScenesResponse

	files, err := ListSceneFiles(dir)
	if err != nil {
		return response, fmt.Errorf("failed to list scene files: %w", err)
	}

	allScenes := append(BuiltinScenes(), files...)

	// Group scenes by their Group field
	groupMap := make(map[string][]SceneInfo)
	for _, s := range allScenes {
		groupMap[s.Group] = append(groupMap[s.Group], s)
	}

	// Built-in first, then alphabetical
	var groupNames []string
	for groupName := range groupMap {
		if groupName != builtinGroup {
			groupNames = append(groupNames, groupName)
		}
	}
	sort.Strings(groupNames)

	if builtInGroup, exists := groupMap[builtinGroup]; exists {
		response.Groups = append(response.Groups, SceneGroup{
			Name:   builtinGroup,
			Scenes: builtInGroup,
		})
	}

	for _, groupName := range groupNames {
		response.Groups = append(response.Groups, SceneGroup{
			Name:   groupName,
			Scenes: groupMap[groupName],
		})
	}

	return response, nil
}

// Resolve turns a scene identifier into a preset: built-in names, "file:<base>"
// identifiers from dir, or a direct path to a scene file
func Resolve(id, dir string) (*scene.Preset, error) {
	if base, ok := strings.CutPrefix(id, "file:"); ok {
		files, err := ListSceneFiles(dir)
		if err != nil {
			return nil, err
		}
		for _, info := range files {
			if info.ID == id {
				return LoadPreset(info.FilePath)
			}
		}
		return nil, fmt.Errorf("%w: no scene file %q in %s", scene.ErrUnknownScene, base, dir)
	}

	if _, err := FormatFromPath(id); err == nil {
		return LoadPreset(id)
	}
	return scene.Builtin(id)
}

// LoadPreset loads and builds a scene file in one step
func LoadPreset(path string) (*scene.Preset, error) {
	sf, err := Load(path)
	if err != nil {
		return nil, err
	}
	preset, err := sf.Build()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return preset, nil
}

// titleCase converts a filename-style string to title case
// e.g., "two-spheres" -> "Two Spheres"
func titleCase(s string) string {
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")

	words := strings.Fields(s)
	for i, word := range words {
		if len(word) > 0 {
			words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
		}
	}

	return strings.Join(words, " ")
}
