// Package artifacts loads trained model parameters and serves them behind the
// Model port. Artifacts are YAML documents; one family per document.
package artifacts

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gopkg.in/yaml.v3"

	"github.com/vinprj/predictml/internal/core/domain"
	"github.com/vinprj/predictml/internal/core/ports/output"
)

type Artifact struct {
	Name        string             `yaml:"name"`
	Version     string             `yaml:"version"`
	Family      domain.ModelFamily `yaml:"family"`
	Description string             `yaml:"description"`
	Accuracy    *float64           `yaml:"accuracy"`
	Linear      *LinearParams      `yaml:"linear,omitempty"`
	Tree        *TreeParams        `yaml:"tree,omitempty"`
	Forest      *ForestParams      `yaml:"forest,omitempty"`

	// FeatureImportance holds one non-negative weight per model input.
	FeatureImportance []float64 `yaml:"feature_importance,omitempty"`

	// Source is the file the artifact was read from, empty for built-ins.
	Source string `yaml:"-"`
}

type LinearParams struct {
	Intercept    float64   `yaml:"intercept"`
	Coefficients []float64 `yaml:"coefficients"`
}

type TreeParams struct {
	Nodes []Node `yaml:"nodes"`
}

type ForestParams struct {
	Trees []TreeParams `yaml:"trees"`
}

// Node is one entry of a flattened decision tree. Internal nodes send
// x[Feature] <= Threshold to Left, everything else to Right.
type Node struct {
	Feature   int     `yaml:"feature"`
	Threshold float64 `yaml:"threshold"`
	Left      int     `yaml:"left"`
	Right     int     `yaml:"right"`
	Leaf      bool    `yaml:"leaf"`
	Value     float64 `yaml:"value"`
}

// Parse decodes a single artifact document. Unknown keys are rejected.
func Parse(r io.Reader) (*Artifact, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var a Artifact
	if err := dec.Decode(&a); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", domain.ErrInvalidArtifact, err)
	}
	if a.Name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidArtifact)
	}
	if a.Version == "" {
		return nil, fmt.Errorf("%w: version is required for %q", domain.ErrInvalidArtifact, a.Name)
	}
	return &a, nil
}

func LoadFile(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact %s: %w", path, err)
	}
	a, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	a.Source = path
	return a, nil
}

// LoadDir reads every *.yaml / *.yml file in dir, sorted by file name.
func LoadDir(dir string) ([]*Artifact, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read artifact dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && isArtifactFile(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var errs []error
	arts := make([]*Artifact, 0, len(names))
	for _, n := range names {
		a, err := LoadFile(filepath.Join(dir, n))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		arts = append(arts, a)
	}
	return arts, errors.Join(errs...)
}

// Build validates the parameters against the expected feature count and
// returns the model.
func (a *Artifact) Build(features int) (ports.Model, error) {
	switch a.Family {
	case domain.FamilyLinear:
		if a.Linear == nil {
			return nil, fmt.Errorf("%w: %q has no linear parameters", domain.ErrInvalidArtifact, a.Name)
		}
		return newLinear(a.Linear, features)
	case domain.FamilyTree:
		if a.Tree == nil {
			return nil, fmt.Errorf("%w: %q has no tree parameters", domain.ErrInvalidArtifact, a.Name)
		}
		return newTree(a.Tree, features)
	case domain.FamilyForest:
		if a.Forest == nil {
			return nil, fmt.Errorf("%w: %q has no forest parameters", domain.ErrInvalidArtifact, a.Name)
		}
		return newForest(a.Forest, features)
	default:
		return nil, fmt.Errorf("%w: unknown family %q", domain.ErrInvalidArtifact, a.Family)
	}
}

// Importance validates the published feature weights. It returns nil when the
// artifact carries none.
func (a *Artifact) Importance(features int) ([]float64, error) {
	if len(a.FeatureImportance) == 0 {
		return nil, nil
	}
	if len(a.FeatureImportance) != features {
		return nil, fmt.Errorf("%w: %q has %d feature importance weights, want %d",
			domain.ErrFeatureArity, a.Name, len(a.FeatureImportance), features)
	}
	if floats.HasNaN(a.FeatureImportance) || floats.Min(a.FeatureImportance) < 0 ||
		math.IsInf(floats.Sum(a.FeatureImportance), 0) {
		return nil, fmt.Errorf("%w: %q feature importance must be finite and non-negative", domain.ErrInvalidArtifact, a.Name)
	}
	if floats.Sum(a.FeatureImportance) == 0 {
		return nil, fmt.Errorf("%w: %q feature importance is all zero", domain.ErrInvalidArtifact, a.Name)
	}
	out := make([]float64, features)
	copy(out, a.FeatureImportance)
	return out, nil
}

func isArtifactFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}
