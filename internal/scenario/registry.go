// Package scenario holds the table of named model runs and the runner that
// executes them through the harness and asserts they completed.
package scenario

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/me/momtest/pkg/model"
)

// Registry is an immutable, ordered set of scenarios. Build it once at
// startup; Merge returns a new registry instead of changing this one.
type Registry struct {
	byName map[string]model.Scenario
	order  []string
}

// NewRegistry builds a registry. Names must be unique and every scenario
// needs a model type and experiment.
func NewRegistry(scenarios ...model.Scenario) (*Registry, error) {
	r := &Registry{byName: make(map[string]model.Scenario, len(scenarios))}
	for _, sc := range scenarios {
		if err := validate(sc); err != nil {
			return nil, err
		}
		if _, dup := r.byName[sc.Name]; dup {
			return nil, fmt.Errorf("duplicate scenario %q", sc.Name)
		}
		r.byName[sc.Name] = sc
		r.order = append(r.order, sc.Name)
	}
	return r, nil
}

func validate(sc model.Scenario) error {
	switch {
	case sc.Name == "":
		return fmt.Errorf("scenario name is required")
	case sc.ModelType == "":
		return fmt.Errorf("scenario %q: model_type is required", sc.Name)
	case sc.Experiment == "":
		return fmt.Errorf("scenario %q: experiment is required", sc.Name)
	}
	return nil
}

// Merge returns a registry holding r's scenarios with overrides applied.
// An override replaces the scenario of the same name in place; new names
// are appended in the order given.
func (r *Registry) Merge(overrides []model.Scenario) (*Registry, error) {
	merged := r.All()
	index := make(map[string]int, len(merged))
	for i, sc := range merged {
		index[sc.Name] = i
	}
	seen := make(map[string]bool, len(overrides))
	for _, sc := range overrides {
		if seen[sc.Name] {
			return nil, fmt.Errorf("duplicate scenario %q in overrides", sc.Name)
		}
		seen[sc.Name] = true
		if i, ok := index[sc.Name]; ok {
			merged[i] = sc
			continue
		}
		index[sc.Name] = len(merged)
		merged = append(merged, sc)
	}
	return NewRegistry(merged...)
}

// File is the YAML layout of a scenario file.
type File struct {
	Scenarios []model.Scenario `yaml:"scenarios"`
}

// LoadFile reads a YAML scenario file and merges it over base.
func LoadFile(path string, base *Registry) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse scenario file %s: %w", path, err)
	}
	reg, err := base.Merge(f.Scenarios)
	if err != nil {
		return nil, fmt.Errorf("scenario file %s: %w", path, err)
	}
	return reg, nil
}

// Get returns the named scenario or an *model.UnknownScenarioError.
func (r *Registry) Get(name string) (model.Scenario, error) {
	sc, ok := r.byName[name]
	if !ok {
		return model.Scenario{}, &model.UnknownScenarioError{Name: name, Known: r.Names()}
	}
	return sc, nil
}

// Names returns scenario names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// All returns every scenario in registration order.
func (r *Registry) All() []model.Scenario {
	out := make([]model.Scenario, 0, len(r.order))
	for _, n := range r.order {
		out = append(out, r.byName[n])
	}
	return out
}

// Enabled returns the scenarios run when no names are given.
func (r *Registry) Enabled() []model.Scenario {
	var out []model.Scenario
	for _, n := range r.order {
		if sc := r.byName[n]; !sc.Disabled {
			out = append(out, sc)
		}
	}
	return out
}

// Len is the number of registered scenarios.
func (r *Registry) Len() int {
	return len(r.order)
}
