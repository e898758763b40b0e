package artifacts

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/vinprj/predictml/internal/core/domain"
)

type linearModel struct {
	intercept    float64
	coefficients []float64
}

func newLinear(p *LinearParams, features int) (*linearModel, error) {
	if len(p.Coefficients) != features {
		return nil, fmt.Errorf("%w: linear model has %d coefficients, want %d",
			domain.ErrFeatureArity, len(p.Coefficients), features)
	}
	coef := make([]float64, len(p.Coefficients))
	copy(coef, p.Coefficients)
	return &linearModel{intercept: p.Intercept, coefficients: coef}, nil
}

func (m *linearModel) Infer(features []float64) (domain.Inference, error) {
	if len(features) != len(m.coefficients) {
		return domain.Inference{}, domain.ErrFeatureArity
	}
	return domain.Inference{Value: m.intercept + floats.Dot(m.coefficients, features)}, nil
}
