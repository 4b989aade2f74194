package geometry

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadProjectFromFile loads a project definition from a JSON file
func LoadProjectFromFile(filepath string) (*Project, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read project file: %w", err)
	}
	return ParseProject(data)
}

// ParseProject decodes a project definition. Building and unit names must be
// unique within their scope since they become scene object ids.
func ParseProject(data []byte) (*Project, error) {
	var project Project
	if err := json.Unmarshal(data, &project); err != nil {
		return nil, fmt.Errorf("failed to parse project JSON: %w", err)
	}

	seen := make(map[string]bool, len(project.Buildings))
	for i, b := range project.Buildings {
		if b.Name == "" {
			return nil, fmt.Errorf("building %d has no name", i)
		}
		if seen[b.Name] {
			return nil, fmt.Errorf("duplicate building name %q", b.Name)
		}
		seen[b.Name] = true

		units := make(map[string]bool, len(b.Units))
		for j, u := range b.Units {
			if u.Name == "" {
				return nil, fmt.Errorf("building %q unit %d has no name", b.Name, j)
			}
			if units[u.Name] {
				return nil, fmt.Errorf("building %q has duplicate unit %q", b.Name, u.Name)
			}
			units[u.Name] = true
		}
	}

	return &project, nil
}

// UnitID is the scene id of a unit; unit names are only unique per building.
func UnitID(building, unit string) string {
	return building + "/" + unit
}
