package artifacts

import (
	"context"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/vinprj/predictml/internal/core/domain"
	"github.com/vinprj/predictml/internal/core/ports/output"
	"github.com/vinprj/predictml/internal/metrics"
)

var _ ports.ModelProvider = (*Registry)(nil)

type deployed struct {
	model      ports.Model
	version    string
	importance []float64
}

// Registry holds the served model of every catalogued name. Deploy updates the
// model metadata and swaps the model under one write lock, so a prediction
// running inside Use always sees a matching version.
type Registry struct {
	catalog  domain.Catalog
	metadata ports.MetadataRepository

	mu     sync.RWMutex
	models map[string]deployed
}

func NewRegistry(catalog domain.Catalog, metadata ports.MetadataRepository) *Registry {
	return &Registry{
		catalog:  catalog,
		metadata: metadata,
		models:   make(map[string]deployed),
	}
}

func (r *Registry) Use(name string, fn func(ports.Model) error) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.models[name]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrModelMissing, name)
	}
	return fn(d.model)
}

func (r *Registry) Deploy(ctx context.Context, a *Artifact) error {
	spec, ok := r.catalog.Lookup(a.Name)
	if !ok || !spec.Served {
		return fmt.Errorf("%w: %q is not a served model", domain.ErrInvalidArtifact, a.Name)
	}
	if a.Family != spec.Family {
		return fmt.Errorf("%w: %q expects family %s, got %s", domain.ErrInvalidArtifact, a.Name, spec.Family, a.Family)
	}

	model, err := a.Build(len(spec.Fields))
	if err != nil {
		return err
	}
	importance, err := a.Importance(len(spec.Fields))
	if err != nil {
		return err
	}

	description := a.Description
	if description == "" {
		description = spec.DisplayName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.metadata.Upsert(ctx, &domain.ModelMetadata{
		ModelName:      a.Name,
		CurrentVersion: a.Version,
		Description:    description,
		Accuracy:       a.Accuracy,
	}); err != nil {
		return fmt.Errorf("update metadata for %s: %w", a.Name, err)
	}

	r.models[a.Name] = deployed{model: model, version: a.Version, importance: importance}
	metrics.ModelDeployments.WithLabelValues(a.Name).Inc()

	log.WithFields(log.Fields{
		"model":   a.Name,
		"version": a.Version,
		"family":  a.Family,
		"source":  sourceLabel(a.Source),
	}).Info("model deployed")
	return nil
}

// DeployAll deploys in order and stops at the first failure.
func (r *Registry) DeployAll(ctx context.Context, arts []*Artifact) error {
	for _, a := range arts {
		if err := r.Deploy(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) Importance(name string) ([]float64, string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.models[name]
	if !ok {
		return nil, "", fmt.Errorf("%w: %s", domain.ErrModelMissing, name)
	}
	if len(d.importance) == 0 {
		return nil, d.version, fmt.Errorf("%w: %s %s", domain.ErrNoImportance, name, d.version)
	}
	out := make([]float64, len(d.importance))
	copy(out, d.importance)
	return out, d.version, nil
}

func sourceLabel(src string) string {
	if src == "" {
		return "builtin"
	}
	return src
}
