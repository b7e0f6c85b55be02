// Package pipeline defines the declarative two-stage ingestion pipeline.
//
// The pipeline job does no data work itself: it materializes and validates
// the fetch-then-load definition so external schedulers can consume it.
// It runs independently of the other jobs.
package pipeline

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/justapithecus/prospect/iox"
)

// Stage is one unit of work in the pipeline definition.
type Stage struct {
	Name      string   `yaml:"name"`
	Command   string   `yaml:"command"`
	DependsOn []string `yaml:"depends_on,omitempty"`
}

// Definition is the declarative pipeline: an ordered stage list with
// explicit dependencies.
type Definition struct {
	Name     string  `yaml:"name"`
	Schedule string  `yaml:"schedule"`
	Stages   []Stage `yaml:"stages"`
}

// Default returns the finance ingestion pipeline: fetch feeding load.
func Default() *Definition {
	return &Definition{
		Name:     "finance_ingestion",
		Schedule: "@daily",
		Stages: []Stage{
			{Name: "fetch", Command: "prospect fetch"},
			{Name: "load", Command: "prospect load", DependsOn: []string{"fetch"}},
		},
	}
}

// Validate checks stage names are unique and dependencies resolve to
// earlier stages, which also rules out cycles.
func (d *Definition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("pipeline name is required")
	}
	if len(d.Stages) == 0 {
		return fmt.Errorf("pipeline has no stages")
	}

	seen := make(map[string]bool, len(d.Stages))
	for _, s := range d.Stages {
		if s.Name == "" {
			return fmt.Errorf("stage with empty name")
		}
		if seen[s.Name] {
			return fmt.Errorf("duplicate stage %q", s.Name)
		}
		for _, dep := range s.DependsOn {
			if !seen[dep] {
				return fmt.Errorf("stage %q depends on unknown or later stage %q", s.Name, dep)
			}
		}
		seen[s.Name] = true
	}
	return nil
}

// WriteFile validates and atomically serializes the definition to path.
func (d *Definition) WriteFile(path string) error {
	if err := d.Validate(); err != nil {
		return fmt.Errorf("invalid pipeline: %w", err)
	}
	data, err := yaml.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal pipeline: %w", err)
	}
	return iox.WriteFileAtomic(path, data, 0o644)
}

// ReadFile loads and validates a definition from path.
func ReadFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pipeline: %w", err)
	}
	var d Definition
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse pipeline: %w", err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}
