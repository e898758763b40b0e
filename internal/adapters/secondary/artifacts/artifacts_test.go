package artifacts

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vinprj/predictml/internal/core/domain"
	"github.com/vinprj/predictml/internal/core/ports/output"
	"github.com/vinprj/predictml/internal/testutil"
)

const salaryV2 = `
name: salary
version: v2.0
family: linear
description: Linear Regression
accuracy: 0.99
linear:
  intercept: 30000
  coefficients: [10000]
`

func infer(t *testing.T, r *Registry, name string, features []float64) domain.Inference {
	t.Helper()
	var out domain.Inference
	err := r.Use(name, func(m ports.Model) error {
		var err error
		out, err = m.Infer(features)
		return err
	})
	require.NoError(t, err)
	return out
}

func servedVersions(r *Registry) map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]string, len(r.models))
	for name, d := range r.models {
		out[name] = d.version
	}
	return out
}

func deployBuiltins(t *testing.T) (*Registry, *testutil.MockMetadataRepo) {
	t.Helper()
	meta := new(testutil.MockMetadataRepo)
	meta.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	arts, err := Builtin()
	require.NoError(t, err)

	reg := NewRegistry(domain.DefaultCatalog(), meta)
	require.NoError(t, reg.DeployAll(context.Background(), arts))
	return reg, meta
}

func TestBuiltin_DeploysServedModels(t *testing.T) {
	reg, meta := deployBuiltins(t)

	assert.Equal(t, map[string]string{"crop": "v1.0", "house": "v1.0", "salary": "v1.0"}, servedVersions(reg))
	meta.AssertNumberOfCalls(t, "Upsert", 3)
	meta.AssertCalled(t, "Upsert", mock.Anything, mock.MatchedBy(func(m *domain.ModelMetadata) bool {
		return m.ModelName == "house" && m.CurrentVersion == "v1.0" && m.Description == "Random Forest"
	}))
}

func TestLinear_Salary(t *testing.T) {
	reg, _ := deployBuiltins(t)

	out := infer(t, reg, "salary", []float64{5})
	assert.InDelta(t, 73041.99, out.Value, 0.001)
	assert.Nil(t, out.Confidence)
}

func TestForest_House(t *testing.T) {
	reg, _ := deployBuiltins(t)

	out := infer(t, reg, "house", []float64{2000, 3, 2})
	assert.InDelta(t, 416666.67, out.Value, 0.01)
	require.NotNil(t, out.Confidence)
	assert.Greater(t, *out.Confidence, 0.0)
	assert.LessOrEqual(t, *out.Confidence, 1.0)

	rural := infer(t, reg, "house", []float64{1000, 2, 0})
	assert.Less(t, rural.Value, out.Value)
}

func TestTree_Crop(t *testing.T) {
	reg, _ := deployBuiltins(t)

	tests := []struct {
		rainfall, temperature, want float64
	}{
		{500, 20, 2.1},
		{500, 25, 1.6},
		{800, 25, 3.4},
		{800, 35, 2.7},
		{600, 22, 2.1},
	}
	for _, tt := range tests {
		out := infer(t, reg, "crop", []float64{tt.rainfall, tt.temperature})
		assert.Equal(t, tt.want, out.Value)
	}
}

func TestForest_AgreementGivesFullConfidence(t *testing.T) {
	leaf := TreeParams{Nodes: []Node{{Leaf: true, Value: 10}}}
	m, err := newForest(&ForestParams{Trees: []TreeParams{leaf, leaf}}, 1)
	require.NoError(t, err)

	out, err := m.Infer([]float64{0})
	require.NoError(t, err)
	assert.Equal(t, 10.0, out.Value)
	assert.Equal(t, 1.0, *out.Confidence)
}

func TestForest_SingleTree(t *testing.T) {
	m, err := newForest(&ForestParams{Trees: []TreeParams{{Nodes: []Node{{Leaf: true, Value: 4}}}}}, 1)
	require.NoError(t, err)

	out, err := m.Infer([]float64{0})
	require.NoError(t, err)
	assert.Equal(t, 1.0, *out.Confidence)
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name     string
		artifact Artifact
		features int
		target   error
	}{
		{"linear arity", Artifact{Name: "x", Family: domain.FamilyLinear, Linear: &LinearParams{Coefficients: []float64{1, 2}}}, 1, domain.ErrFeatureArity},
		{"missing params", Artifact{Name: "x", Family: domain.FamilyTree}, 1, domain.ErrInvalidArtifact},
		{"unknown family", Artifact{Name: "x", Family: "svm"}, 1, domain.ErrInvalidArtifact},
		{"backward child", Artifact{Name: "x", Family: domain.FamilyTree, Tree: &TreeParams{Nodes: []Node{
			{Feature: 0, Left: 0, Right: 1}, {Leaf: true},
		}}}, 1, domain.ErrInvalidArtifact},
		{"feature out of range", Artifact{Name: "x", Family: domain.FamilyTree, Tree: &TreeParams{Nodes: []Node{
			{Feature: 3, Left: 1, Right: 2}, {Leaf: true}, {Leaf: true},
		}}}, 2, domain.ErrFeatureArity},
		{"empty forest", Artifact{Name: "x", Family: domain.FamilyForest, Forest: &ForestParams{}}, 1, domain.ErrInvalidArtifact},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.artifact.Build(tt.features)
			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse(strings.NewReader("name: salary\nfamily: linear\n"))
	assert.ErrorIs(t, err, domain.ErrInvalidArtifact)

	_, err = Parse(strings.NewReader("name: salary\nversion: v1\nweights: [1]\n"))
	assert.ErrorIs(t, err, domain.ErrInvalidArtifact)
}

func TestRegistry_DeployRejects(t *testing.T) {
	meta := new(testutil.MockMetadataRepo)
	reg := NewRegistry(domain.DefaultCatalog(), meta)

	err := reg.Deploy(context.Background(), &Artifact{Name: "stock", Version: "v1", Family: domain.FamilyLinear})
	assert.ErrorIs(t, err, domain.ErrInvalidArtifact)

	err = reg.Deploy(context.Background(), &Artifact{Name: "salary", Version: "v1", Family: domain.FamilyTree})
	assert.ErrorIs(t, err, domain.ErrInvalidArtifact)

	meta.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestRegistry_MetadataFailureKeepsOldModel(t *testing.T) {
	reg, meta := deployBuiltins(t)
	meta.ExpectedCalls = nil
	meta.On("Upsert", mock.Anything, mock.Anything).Return(errors.New("db down"))

	a, err := Parse(strings.NewReader(salaryV2))
	require.NoError(t, err)

	err = reg.Deploy(context.Background(), a)
	assert.Error(t, err)
	assert.Equal(t, "v1.0", servedVersions(reg)["salary"])
}

func TestRegistry_Importance(t *testing.T) {
	reg, _ := deployBuiltins(t)

	weights, version, err := reg.Importance("house")
	require.NoError(t, err)
	assert.Equal(t, "v1.0", version)
	assert.Equal(t, []float64{0.55, 0.2, 0.25}, weights)

	// callers get a copy
	weights[0] = 9
	again, _, err := reg.Importance("house")
	require.NoError(t, err)
	assert.Equal(t, 0.55, again[0])

	a, err := Parse(strings.NewReader(salaryV2))
	require.NoError(t, err)
	require.NoError(t, reg.Deploy(context.Background(), a))
	_, version, err = reg.Importance("salary")
	assert.ErrorIs(t, err, domain.ErrNoImportance)
	assert.Equal(t, "v2.0", version)

	_, _, err = NewRegistry(domain.DefaultCatalog(), new(testutil.MockMetadataRepo)).Importance("crop")
	assert.ErrorIs(t, err, domain.ErrModelMissing)
}

func TestArtifact_ImportanceErrors(t *testing.T) {
	tests := []struct {
		name    string
		weights []float64
		target  error
	}{
		{"wrong length", []float64{0.5, 0.5}, domain.ErrFeatureArity},
		{"negative", []float64{0.5, -0.1, 0.6}, domain.ErrInvalidArtifact},
		{"all zero", []float64{0, 0, 0}, domain.ErrInvalidArtifact},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &Artifact{Name: "house", FeatureImportance: tt.weights}
			_, err := a.Importance(3)
			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestRegistry_DeployRejectsBadImportance(t *testing.T) {
	reg, _ := deployBuiltins(t)

	a, err := Parse(strings.NewReader(salaryV2 + "feature_importance: [0.5, 0.5]\n"))
	require.NoError(t, err)
	assert.ErrorIs(t, reg.Deploy(context.Background(), a), domain.ErrFeatureArity)
	assert.Equal(t, "v1.0", servedVersions(reg)["salary"])
}

func TestRegistry_UseMissing(t *testing.T) {
	reg := NewRegistry(domain.DefaultCatalog(), new(testutil.MockMetadataRepo))

	err := reg.Use("salary", func(ports.Model) error { return nil })
	assert.ErrorIs(t, err, domain.ErrModelMissing)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "salary.yaml"), []byte(salaryV2), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("ignored"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yml"), []byte("name: [\n"), 0o644))

	arts, err := LoadDir(dir)
	assert.Error(t, err)
	require.Len(t, arts, 1)
	assert.Equal(t, "v2.0", arts[0].Version)
	assert.Equal(t, filepath.Join(dir, "salary.yaml"), arts[0].Source)
}

func TestWatcher_RedeploysOnWrite(t *testing.T) {
	reg, _ := deployBuiltins(t)
	dir := t.TempDir()

	w := NewWatcher(reg, dir)
	w.debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "salary.yaml"), []byte(salaryV2), 0o644))

	assert.Eventually(t, func() bool {
		return servedVersions(reg)["salary"] == "v2.0"
	}, 3*time.Second, 20*time.Millisecond)

	out := infer(t, reg, "salary", []float64{1})
	assert.Equal(t, 40000.0, out.Value)

	cancel()
	assert.NoError(t, <-done)
}
