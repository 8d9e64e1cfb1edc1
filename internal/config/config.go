// Package config holds the run configuration for the residual pipeline.
// The JSON schema uses pointer fields so partial config files are safe:
// omitted fields fall back to defaults through the getter methods.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// RunConfig is the root configuration for one pipeline run.
type RunConfig struct {
	// Input
	InputDir     *string `json:"input_dir,omitempty"`
	Events       *int    `json:"events,omitempty"`
	Skip         *int    `json:"skip,omitempty"`
	GeometryFile *string `json:"geometry_file,omitempty"`

	// Output
	ResidualFile *string `json:"residual_file,omitempty"`
	StateFile    *string `json:"state_file,omitempty"`
	RunStore     *string `json:"run_store,omitempty"` // sqlite path, empty disables

	// Seeding
	RNGSeed     *uint64  `json:"rng_seed,omitempty"`
	LocStddev   *float64 `json:"loc_stddev,omitempty"`
	AngleStddev *float64 `json:"angle_stddev,omitempty"`
	TimeStddev  *float64 `json:"time_stddev,omitempty"`

	// Truth resolution
	ContributorPolicy *string `json:"contributor_policy,omitempty"`
}

// Getter methods return the configured value or the documented default.

func (c *RunConfig) GetInputDir() string {
	if c.InputDir != nil {
		return *c.InputDir
	}
	return "."
}

func (c *RunConfig) GetEvents() int {
	if c.Events != nil {
		return *c.Events
	}
	return 1
}

func (c *RunConfig) GetSkip() int {
	if c.Skip != nil {
		return *c.Skip
	}
	return 0
}

func (c *RunConfig) GetGeometryFile() string {
	if c.GeometryFile != nil {
		return *c.GeometryFile
	}
	return ""
}

func (c *RunConfig) GetResidualFile() string {
	if c.ResidualFile != nil {
		return *c.ResidualFile
	}
	return "residual.csv"
}

func (c *RunConfig) GetStateFile() string {
	if c.StateFile != nil {
		return *c.StateFile
	}
	return "state.csv"
}

func (c *RunConfig) GetRunStore() string {
	if c.RunStore != nil {
		return *c.RunStore
	}
	return ""
}

func (c *RunConfig) GetRNGSeed() uint64 {
	if c.RNGSeed != nil {
		return *c.RNGSeed
	}
	return 42
}

func (c *RunConfig) GetContributorPolicy() string {
	if c.ContributorPolicy != nil {
		return *c.ContributorPolicy
	}
	return "first-seen"
}

// EmptyRunConfig returns a RunConfig with all fields unset.
func EmptyRunConfig() *RunConfig {
	return &RunConfig{}
}

// LoadRunConfig loads a RunConfig from a JSON file. Partial files are fine;
// unset fields keep their defaults.
func LoadRunConfig(path string) (*RunConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyRunConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", cleanPath, err)
	}
	return cfg, nil
}
