// Package pipeline loads chain definitions from YAML or JSON files, so
// deployments can describe stage sequences declaratively and bind them to
// registered stage factories at runtime.
package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cascadehq/cascade/pkg/domain"
	"github.com/cascadehq/cascade/pkg/registry"
)

// StageSpec names one registered stage and its construction arguments.
type StageSpec struct {
	Use  string         `yaml:"use" json:"use"`
	With map[string]any `yaml:"with" json:"with"`
}

// Definition is one named pipeline: an ordered stage list.
type Definition struct {
	Description string      `yaml:"description" json:"description"`
	Stages      []StageSpec `yaml:"stages" json:"stages"`
}

// File is the top-level structure of a pipelines.yaml.
type File struct {
	Pipelines map[string]Definition `yaml:"pipelines" json:"pipelines"`
}

// Load reads a pipeline file from disk. JSON is accepted for .json paths,
// everything else is treated as YAML.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pipeline file: %w", err)
	}

	if strings.ToLower(filepath.Ext(path)) == ".json" {
		var f File
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("failed to parse pipeline json: %w", err)
		}
		return &f, nil
	}
	return Parse(data)
}

// Parse decodes YAML pipeline definitions.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse pipeline yaml: %w", err)
	}
	return &f, nil
}

// Get returns the named definition.
func (f *File) Get(name string) (Definition, error) {
	def, ok := f.Pipelines[name]
	if !ok {
		return Definition{}, fmt.Errorf("pipeline %q not defined", name)
	}
	return def, nil
}

// Validate checks that every stage reference resolves against the registry
// and that no pipeline is empty.
func (f *File) Validate(reg *registry.Registry) error {
	for name, def := range f.Pipelines {
		if len(def.Stages) == 0 {
			return fmt.Errorf("pipeline %q has no stages", name)
		}
		for i, spec := range def.Stages {
			if spec.Use == "" {
				return fmt.Errorf("pipeline %q stage %d is missing 'use'", name, i)
			}
			if !reg.Has(spec.Use) {
				return fmt.Errorf("pipeline %q references unknown stage %q", name, spec.Use)
			}
		}
	}
	return nil
}

// Chain builds a fresh Chain of by-name descriptors from the definition.
// Each call returns an independent chain, since chains are mutated during
// execution.
func (d Definition) Chain() *domain.Chain {
	descs := make([]domain.Descriptor, 0, len(d.Stages))
	for _, spec := range d.Stages {
		descs = append(descs, domain.RefWith(spec.Use, spec.With))
	}
	return domain.NewChain(descs...)
}
