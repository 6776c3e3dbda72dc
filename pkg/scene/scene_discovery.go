package scene

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Scene source types
const (
	TypeBuiltin = "builtin"
	TypeJSON    = "json"
)

const builtinGroup = "Built-in Scenes"

// SceneInfo represents a discovered scene with its metadata
type SceneInfo struct {
	ID          string `json:"id"`          // Unique identifier
	Name        string `json:"name"`        // Scene name
	DisplayName string `json:"displayName"` // UI display name
	Description string `json:"description"` // Optional description
	Group       string `json:"group"`       // Grouping category
	Type        string `json:"type"`        // "builtin" or "json"
	FilePath    string `json:"filePath"`    // Path to JSON file (json type only)
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

type builtinScene struct {
	info  SceneInfo
	build func() *Scene
}

var builtinScenes = []builtinScene{
	{
		info: SceneInfo{
			ID:          "acoustic-lab",
			Name:        "Acoustic Lab",
			DisplayName: "Acoustic Lab",
			Description: "Empty, furnished, treated and large untreated rooms side by side",
			Group:       builtinGroup,
			Type:        TypeBuiltin,
		},
		build: NewAcousticLabScene,
	},
	{
		info: SceneInfo{
			ID:          "shoebox",
			Name:        "Shoebox",
			DisplayName: "Shoebox",
			Description: "Single reflective 10x4x7m room traced per octave",
			Group:       builtinGroup,
			Type:        TypeBuiltin,
		},
		build: NewShoeboxScene,
	},
}

// BuiltinScenes returns metadata for the scenes compiled into the binary
func BuiltinScenes() []SceneInfo {
	out := make([]SceneInfo, len(builtinScenes))
	for i, b := range builtinScenes {
		out[i] = b.info
	}
	return out
}

// findScenesDir returns dir if set, otherwise the first of "scenes" or
// "../scenes" that exists, or "" when there is none
func findScenesDir(dir string) string {
	if dir != "" {
		return dir
	}
	for _, path := range []string{"scenes", "../scenes"} {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ListJSONScenes scans the scenes directory and returns discovered JSON scenes.
// An empty dir searches "scenes" and "../scenes".
func ListJSONScenes(dir string) ([]SceneInfo, error) {
	scenesDir := findScenesDir(dir)
	if scenesDir == "" {
		// No scenes directory found, return empty list
		return []SceneInfo{}, nil
	}

	files, err := filepath.Glob(filepath.Join(scenesDir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan scenes directory: %v", err)
	}

	var scenes []SceneInfo
	for _, filePath := range files {
		info, err := ParseSceneMetadata(filePath)
		if err != nil {
			// Log warning but continue processing other files
			fmt.Printf("Warning: failed to parse metadata for %s: %v\n", filePath, err)
			continue
		}
		scenes = append(scenes, info)
	}

	sort.Slice(scenes, func(i, j int) bool {
		return scenes[i].DisplayName < scenes[j].DisplayName
	})

	return scenes, nil
}

// ParseSceneMetadata reads the name, description and group of a JSON scene
// file without building it. Missing fields fall back to the file name.
func ParseSceneMetadata(filePath string) (SceneInfo, error) {
	base := sceneNameFromPath(filePath)
	info := SceneInfo{
		ID:          "json:" + base,
		Name:        titleCase(base),
		DisplayName: titleCase(base),
		Group:       "Scene Files",
		Type:        TypeJSON,
		FilePath:    filePath,
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return info, err
	}
	var meta struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Group       string `json:"group"`
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return info, err
	}

	if meta.Name != "" {
		info.Name = meta.Name
		info.DisplayName = meta.Name
	}
	info.Description = meta.Description
	if meta.Group != "" {
		info.Group = meta.Group
	}
	return info, nil
}

// ListAllScenes returns both built-in and JSON scenes, grouped by category
func ListAllScenes(dir string) (ScenesResponse, error) {
	var response ScenesResponse

	jsonScenes, err := ListJSONScenes(dir)
	if err != nil {
		return response, fmt.Errorf("failed to list JSON scenes: %v", err)
	}

	allScenes := append(BuiltinScenes(), jsonScenes...)

	groupMap := make(map[string][]SceneInfo)
	for _, info := range allScenes {
		groupMap[info.Group] = append(groupMap[info.Group], info)
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

// Load builds and preprocesses a scene by ID: a built-in name, "json:<name>"
// for a file in the scenes directory, or a path to a .json file
func Load(id, dir string) (*Scene, error) {
	for _, b := range builtinScenes {
		if b.info.ID == id {
			s := b.build()
			if err := s.Preprocess(); err != nil {
				return nil, err
			}
			return s, nil
		}
	}

	if name, ok := strings.CutPrefix(id, "json:"); ok {
		scenesDir := findScenesDir(dir)
		if scenesDir == "" {
			return nil, fmt.Errorf("unknown scene %q: no scenes directory", id)
		}
		return LoadSceneFile(filepath.Join(scenesDir, name+".json"))
	}

	if strings.HasSuffix(id, ".json") {
		return LoadSceneFile(id)
	}

	return nil, fmt.Errorf("unknown scene %q", id)
}

func sceneNameFromPath(path string) string {
	filename := filepath.Base(path)
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}

// titleCase converts a filename-style string to title case
// e.g., "small-studio" -> "Small Studio"
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
