package pipeline

import (
	"cmp"
	"fmt"
	"strings"

	"awesomeml/internal/models"

	"github.com/shopspring/decimal"
)

// Transformer is a fit/transform step applied to the features before the estimator.
type Transformer interface {
	Fit(X [][]decimal.Decimal) error
	Transform(X [][]decimal.Decimal) ([][]decimal.Decimal, error)
	Name() string
	Reset()
	// Clone returns an unfitted step configured like the receiver.
	Clone() Transformer
}

// Pipeline chains transformers in front of an estimator. It is an Estimator itself,
// so it can be cross validated or swapped in wherever a bare model is expected.
type Pipeline[L cmp.Ordered] struct {
	steps     []Transformer
	estimator models.Estimator[L]
}

var _ models.Estimator[int] = (*Pipeline[int])(nil)

func New[L cmp.Ordered](estimator models.Estimator[L], steps ...Transformer) *Pipeline[L] {
	return &Pipeline[L]{steps: steps, estimator: estimator}
}

func (p *Pipeline[L]) Fit(X [][]decimal.Decimal, y []L) error {
	if len(y) == 0 {
		return &models.EmptyInputError{Model: p.estimator.GetName()}
	}

	// Steps are fitted on clones until the estimator accepts y, so a rejected fit
	// leaves every step as it was.
	inputs := make([][][]decimal.Decimal, len(p.steps))
	for i, step := range p.steps {
		staged := step.Clone()
		if err := staged.Fit(X); err != nil {
			return fmt.Errorf("fit %s: %w", step.Name(), err)
		}
		transformed, err := staged.Transform(X)
		if err != nil {
			return fmt.Errorf("transform %s: %w", step.Name(), err)
		}
		inputs[i] = X
		X = transformed
	}

	if err := p.estimator.Fit(X, y); err != nil {
		return err
	}

	for i, step := range p.steps {
		if err := step.Fit(inputs[i]); err != nil {
			return fmt.Errorf("fit %s: %w", step.Name(), err)
		}
	}
	return nil
}

func (p *Pipeline[L]) Predict(X [][]decimal.Decimal) ([]L, error) {
	X, err := p.Transform(X)
	if err != nil {
		return nil, err
	}
	return p.estimator.Predict(X)
}

// Transform runs X through every fitted step without touching the estimator.
func (p *Pipeline[L]) Transform(X [][]decimal.Decimal) ([][]decimal.Decimal, error) {
	for _, step := range p.steps {
		transformed, err := step.Transform(X)
		if err != nil {
			return nil, fmt.Errorf("transform %s: %w", step.Name(), err)
		}
		X = transformed
	}
	return X, nil
}

func (p *Pipeline[L]) Classes() ([]L, error) {
	return p.estimator.Classes()
}

func (p *Pipeline[L]) GetName() string {
	names := make([]string, 0, len(p.steps)+1)
	for _, step := range p.steps {
		names = append(names, step.Name())
	}
	names = append(names, p.estimator.GetName())
	return strings.Join(names, " -> ")
}

func (p *Pipeline[L]) GetParams() map[string]any {
	params := p.estimator.GetParams()
	steps := make([]string, len(p.steps))
	for i, step := range p.steps {
		steps[i] = step.Name()
	}
	params["steps"] = steps
	return params
}

func (p *Pipeline[L]) Reset() {
	for _, step := range p.steps {
		step.Reset()
	}
	p.estimator.Reset()
}

func (p *Pipeline[L]) Estimator() models.Estimator[L] {
	return p.estimator
}
