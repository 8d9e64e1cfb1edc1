package geom

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// surfaceFile is the JSON schema of one surface entry in a geometry file.
type surfaceFile struct {
	GeometryID uint64      `json:"geometry_id"`
	Transform  [16]float64 `json:"transform"`
}

// Load reads a geometry description file: a JSON array of surfaces, each
// with a geometry_id and a row-major 4x4 transform.
func Load(path string) (StaticGeometry, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("geometry file must have .json extension, got %q", ext)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read geometry file: %w", err)
	}

	var entries []surfaceFile
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse geometry file %s: %w", cleanPath, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("geometry file %s contains no surfaces", cleanPath)
	}

	g := make(StaticGeometry, len(entries))
	for _, e := range entries {
		id := SurfaceID(e.GeometryID)
		if _, dup := g[id]; dup {
			return nil, fmt.Errorf("geometry file %s: duplicate surface %d", cleanPath, e.GeometryID)
		}
		g[id] = Surface{ID: id, Transform: e.Transform}
	}
	return g, nil
}
