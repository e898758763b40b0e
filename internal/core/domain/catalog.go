package domain

import (
	"encoding/json"
	"errors"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

type FieldKind string

const (
	FieldNumber   FieldKind = "number"
	FieldInteger  FieldKind = "integer"
	FieldCategory FieldKind = "category"
)

type ModelFamily string

const (
	FamilyLinear ModelFamily = "linear"
	FamilyTree   ModelFamily = "tree"
	FamilyForest ModelFamily = "forest"
)

// FieldSpec declares one input of a model. For categorical fields the position
// of an option in Options is its encoded ordinal.
type FieldSpec struct {
	Name    string
	Label   string
	Unit    string
	Kind    FieldKind
	Min     *float64
	Max     *float64
	Options []string
}

type ModelSpec struct {
	Name        string
	DisplayName string
	Family      ModelFamily
	OutputKey   string
	Fields      []FieldSpec
	// Served is false for models that are catalogued for clients but have no
	// artifact behind them.
	Served bool
}

type Catalog map[string]ModelSpec

func bound(v float64) *float64 { return &v }

// DefaultCatalog is the single definition of every model's inputs and encoding.
func DefaultCatalog() Catalog {
	specs := []ModelSpec{
		{
			Name: "salary", DisplayName: "Linear Regression", Family: FamilyLinear,
			OutputKey: "predicted_salary", Served: true,
			Fields: []FieldSpec{
				{Name: "years_experience", Label: "Years of Experience", Unit: "years", Kind: FieldNumber, Min: bound(0), Max: bound(50)},
			},
		},
		{
			Name: "house", DisplayName: "Random Forest", Family: FamilyForest,
			OutputKey: "predicted_price", Served: true,
			Fields: []FieldSpec{
				{Name: "area", Label: "Area", Unit: "sq ft", Kind: FieldNumber, Min: bound(100), Max: bound(50000)},
				{Name: "bedrooms", Label: "Bedrooms", Kind: FieldInteger, Min: bound(1), Max: bound(10)},
				{Name: "location", Label: "Location", Kind: FieldCategory, Options: []string{"rural", "suburban", "urban"}},
			},
		},
		{
			Name: "crop", DisplayName: "Decision Tree", Family: FamilyTree,
			OutputKey: "predicted_yield", Served: true,
			Fields: []FieldSpec{
				{Name: "rainfall", Label: "Rainfall", Unit: "mm", Kind: FieldNumber, Min: bound(0), Max: bound(5000)},
				{Name: "temperature", Label: "Temperature", Unit: "°C", Kind: FieldNumber, Min: bound(-10), Max: bound(55)},
			},
		},
		{
			Name: "stock", DisplayName: "LSTM (simulated)", OutputKey: "predicted_price",
			Fields: []FieldSpec{
				{Name: "current_price", Label: "Current Price", Unit: "USD", Kind: FieldNumber, Min: bound(0.01)},
				{Name: "days_ahead", Label: "Days Ahead", Unit: "days", Kind: FieldInteger, Min: bound(1), Max: bound(30)},
			},
		},
		{
			Name: "weather", DisplayName: "Random Forest", OutputKey: "predicted_temperature",
			Fields: []FieldSpec{
				{Name: "current_temp", Label: "Current Temperature", Unit: "°C", Kind: FieldNumber, Min: bound(-50), Max: bound(60)},
				{Name: "current_humidity", Label: "Current Humidity", Unit: "%", Kind: FieldNumber, Min: bound(0), Max: bound(100)},
				{Name: "days_ahead", Label: "Days Ahead", Unit: "days", Kind: FieldInteger, Min: bound(1), Max: bound(14)},
			},
		},
	}

	c := make(Catalog, len(specs))
	for _, s := range specs {
		c[s.Name] = s
	}
	return c
}

func (c Catalog) Lookup(name string) (ModelSpec, bool) {
	s, ok := c[name]
	return s, ok
}

// Names returns the catalogued model names in sorted order.
func (c Catalog) Names() []string {
	names := make([]string, 0, len(c))
	for n := range c {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Validate checks fields against the schema and returns the normalised input:
// numbers as float64 and categories lower-cased. The first failure is returned.
func (s ModelSpec) Validate(fields map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(s.Fields))

	for _, f := range s.Fields {
		raw, ok := fields[f.Name]
		if !ok {
			return nil, NewValidationError(f.Name, "field required")
		}
		v, err := f.normalise(raw)
		if err != nil {
			return nil, err
		}
		out[f.Name] = v
	}

	if len(fields) != len(s.Fields) {
		extra := make([]string, 0)
		for k := range fields {
			if !s.hasField(k) {
				extra = append(extra, k)
			}
		}
		sort.Strings(extra)
		if len(extra) > 0 {
			return nil, NewValidationError(extra[0], "unexpected field for model %q", s.Name)
		}
	}

	return out, nil
}

// Encode builds the ordered feature vector from input returned by Validate.
func (s ModelSpec) Encode(input map[string]any) []float64 {
	features := make([]float64, len(s.Fields))
	for i, f := range s.Fields {
		switch v := input[f.Name].(type) {
		case float64:
			features[i] = v
		case string:
			features[i] = float64(f.ordinal(v))
		}
	}
	return features
}

func (s ModelSpec) hasField(name string) bool {
	for _, f := range s.Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

var validate = validator.New()

// Tag is the validator tag for the checks that apply after coercion: numeric
// bounds for numbers, the option set for categories.
func (f FieldSpec) Tag() string {
	if f.Kind == FieldCategory {
		return "oneof=" + strings.Join(f.Options, " ")
	}
	rules := make([]string, 0, 2)
	if f.Min != nil {
		rules = append(rules, "gte="+formatBound(*f.Min))
	}
	if f.Max != nil {
		rules = append(rules, "lte="+formatBound(*f.Max))
	}
	return strings.Join(rules, ",")
}

func (f FieldSpec) normalise(raw any) (any, error) {
	var value any
	if f.Kind == FieldCategory {
		str, ok := raw.(string)
		if !ok {
			return nil, NewValidationError(f.Name, "must be a string")
		}
		value = strings.ToLower(strings.TrimSpace(str))
	} else {
		n, err := toNumber(raw)
		if err != nil {
			return nil, NewValidationError(f.Name, "must be a number")
		}
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return nil, NewValidationError(f.Name, "must be a finite number")
		}
		if f.Kind == FieldInteger && n != math.Trunc(n) {
			return nil, NewValidationError(f.Name, "must be an integer")
		}
		value = n
	}

	if tag := f.Tag(); tag != "" {
		if err := validate.Var(value, tag); err != nil {
			return nil, f.validationError(err)
		}
	}
	return value, nil
}

func (f FieldSpec) validationError(err error) *ValidationError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return NewValidationError(f.Name, "invalid value")
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "gte":
		return NewValidationError(f.Name, "must be >= %s", fe.Param())
	case "lte":
		return NewValidationError(f.Name, "must be <= %s", fe.Param())
	case "oneof":
		return NewValidationError(f.Name, "must be one of: %s", strings.Join(f.Options, ", "))
	default:
		return NewValidationError(f.Name, "failed %s check", fe.Tag())
	}
}

func (f FieldSpec) ordinal(option string) int {
	for i, o := range f.Options {
		if o == option {
			return i
		}
	}
	return -1
}

func toNumber(raw any) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	case string:
		return strconv.ParseFloat(strings.TrimSpace(v), 64)
	default:
		return 0, strconv.ErrSyntax
	}
}

func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
