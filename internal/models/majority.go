package models

import (
	"bytes"
	"cmp"
	"encoding/gob"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"
)

const MajorityName = "MajorityClass"

var _ Estimator[int] = (*MajorityClassifier[int])(nil)

// fittedState is the immutable snapshot produced by a successful Fit.
type fittedState[L cmp.Ordered] struct {
	classes  []L
	majority L
}

// MajorityClassifier always predicts the most frequent label seen during Fit.
// Ties go to the smallest label. A nil state means the model is unfitted.
//
// Fit must not run concurrently with any other call on the same instance.
// Predict only reads the current snapshot and may be called from many goroutines.
type MajorityClassifier[L cmp.Ordered] struct {
	BaseModel
	width OutputWidth
	state *fittedState[L]
}

func NewMajorityClassifier[L cmp.Ordered](width OutputWidth) *MajorityClassifier[L] {
	return &MajorityClassifier[L]{
		width: width,
		BaseModel: BaseModel{
			Name: MajorityName,
			Params: map[string]any{
				"output_width": int(width),
			},
		},
	}
}

func (mc *MajorityClassifier[L]) Fit(X [][]decimal.Decimal, y []L) error {
	if len(y) == 0 {
		return &EmptyInputError{Model: mc.Name}
	}

	classes, counts := CountClasses(y)
	for _, class := range classes {
		if err := mc.width.Check(class); err != nil {
			return err
		}
	}

	best := 0
	for i := 1; i < len(counts); i++ {
		if counts[i] > counts[best] {
			best = i
		}
	}

	mc.state = &fittedState[L]{
		classes:  classes,
		majority: classes[best],
	}
	return nil
}

func (mc *MajorityClassifier[L]) Predict(X [][]decimal.Decimal) ([]L, error) {
	state := mc.state
	if state == nil {
		return nil, &NotFittedError{Model: mc.Name}
	}

	predictions := make([]L, len(X))
	for i := range predictions {
		predictions[i] = state.majority
	}
	return predictions, nil
}

func (mc *MajorityClassifier[L]) Classes() ([]L, error) {
	state := mc.state
	if state == nil {
		return nil, &NotFittedError{Model: mc.Name}
	}
	return slices.Clone(state.classes), nil
}

func (mc *MajorityClassifier[L]) MajorityClass() (L, error) {
	state := mc.state
	if state == nil {
		var zero L
		return zero, &NotFittedError{Model: mc.Name}
	}
	return state.majority, nil
}

func (mc *MajorityClassifier[L]) IsFitted() bool {
	return mc.state != nil
}

func (mc *MajorityClassifier[L]) OutputWidth() OutputWidth {
	return mc.width
}

func (mc *MajorityClassifier[L]) Reset() {
	mc.state = nil
}

type majorityWire[L cmp.Ordered] struct {
	Width    OutputWidth
	Fitted   bool
	Classes  []L
	Majority L
}

func (mc *MajorityClassifier[L]) GobEncode() ([]byte, error) {
	wire := majorityWire[L]{Width: mc.width}
	if mc.state != nil {
		wire.Fitted = true
		wire.Classes = mc.state.classes
		wire.Majority = mc.state.majority
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(wire); err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", MajorityName, err)
	}
	return buf.Bytes(), nil
}

func (mc *MajorityClassifier[L]) GobDecode(data []byte) error {
	var wire majorityWire[L]
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&wire); err != nil {
		return fmt.Errorf("failed to decode %s: %w", MajorityName, err)
	}

	*mc = *NewMajorityClassifier[L](wire.Width)
	if !wire.Fitted {
		return nil
	}
	if !slices.Contains(wire.Classes, wire.Majority) {
		return fmt.Errorf("corrupt %s: majority class %v not among classes %v", MajorityName, wire.Majority, wire.Classes)
	}
	mc.state = &fittedState[L]{
		classes:  wire.Classes,
		majority: wire.Majority,
	}
	return nil
}
