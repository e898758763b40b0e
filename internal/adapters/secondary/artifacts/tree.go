package artifacts

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/vinprj/predictml/internal/core/domain"
)

type treeModel struct {
	nodes []Node
}

// newTree requires children to come after their parent, which rules out cycles.
func newTree(p *TreeParams, features int) (*treeModel, error) {
	if len(p.Nodes) == 0 {
		return nil, fmt.Errorf("%w: tree has no nodes", domain.ErrInvalidArtifact)
	}
	for i, n := range p.Nodes {
		if n.Leaf {
			continue
		}
		if n.Feature < 0 || n.Feature >= features {
			return nil, fmt.Errorf("%w: node %d splits on feature %d of %d",
				domain.ErrFeatureArity, i, n.Feature, features)
		}
		for _, child := range []int{n.Left, n.Right} {
			if child <= i || child >= len(p.Nodes) {
				return nil, fmt.Errorf("%w: node %d has invalid child %d", domain.ErrInvalidArtifact, i, child)
			}
		}
	}

	nodes := make([]Node, len(p.Nodes))
	copy(nodes, p.Nodes)
	return &treeModel{nodes: nodes}, nil
}

func (m *treeModel) Infer(features []float64) (domain.Inference, error) {
	v, err := m.eval(features)
	if err != nil {
		return domain.Inference{}, err
	}
	return domain.Inference{Value: v}, nil
}

func (m *treeModel) eval(features []float64) (float64, error) {
	i := 0
	for {
		n := m.nodes[i]
		if n.Leaf {
			return n.Value, nil
		}
		if n.Feature >= len(features) {
			return 0, domain.ErrFeatureArity
		}
		if features[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// forestModel averages its trees. Confidence shrinks as the trees disagree:
// 1 - stddev/|mean|, clamped to [0, 1].
type forestModel struct {
	trees []*treeModel
}

func newForest(p *ForestParams, features int) (*forestModel, error) {
	if len(p.Trees) == 0 {
		return nil, fmt.Errorf("%w: forest has no trees", domain.ErrInvalidArtifact)
	}
	trees := make([]*treeModel, 0, len(p.Trees))
	for i := range p.Trees {
		t, err := newTree(&p.Trees[i], features)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		trees = append(trees, t)
	}
	return &forestModel{trees: trees}, nil
}

func (m *forestModel) Infer(features []float64) (domain.Inference, error) {
	values := make([]float64, len(m.trees))
	for i, t := range m.trees {
		v, err := t.eval(features)
		if err != nil {
			return domain.Inference{}, err
		}
		values[i] = v
	}

	mean, std := stat.MeanStdDev(values, nil)
	if math.IsNaN(std) {
		std = 0
	}

	conf := 0.0
	if mean != 0 {
		conf = math.Max(0, math.Min(1, 1-std/math.Abs(mean)))
	}
	return domain.Inference{Value: mean, Confidence: &conf}, nil
}
