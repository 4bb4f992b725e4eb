package preprocessing

import (
	"fmt"
	"slices"
)

// LabelEncoder maps string labels onto dense ints. Classes are numbered in
// ascending order, so encoding the same labels always yields the same ints.
type LabelEncoder struct {
	Classes    []string
	ClassToInt map[string]int
	IsFitted   bool
}

func NewLabelEncoder() *LabelEncoder {
	return &LabelEncoder{
		ClassToInt: make(map[string]int),
	}
}

func (le *LabelEncoder) Fit(labels []string) {
	le.Classes = slices.Clone(labels)
	slices.Sort(le.Classes)
	le.Classes = slices.Compact(le.Classes)

	le.ClassToInt = make(map[string]int, len(le.Classes))
	for i, label := range le.Classes {
		le.ClassToInt[label] = i
	}

	le.IsFitted = true
}

func (le *LabelEncoder) Transform(labels []string) ([]int, error) {
	if !le.IsFitted {
		return nil, fmt.Errorf("LabelEncoder must be fitted before transform")
	}

	result := make([]int, len(labels))
	for i, label := range labels {
		val, ok := le.ClassToInt[label]
		if !ok {
			return nil, fmt.Errorf("unknown label: %s", label)
		}
		result[i] = val
	}

	return result, nil
}

func (le *LabelEncoder) FitTransform(labels []string) ([]int, error) {
	le.Fit(labels)
	return le.Transform(labels)
}

func (le *LabelEncoder) InverseTransform(encoded []int) ([]string, error) {
	if !le.IsFitted {
		return nil, fmt.Errorf("LabelEncoder must be fitted before inverse transform")
	}

	result := make([]string, len(encoded))
	for i, val := range encoded {
		if val < 0 || val >= len(le.Classes) {
			return nil, fmt.Errorf("unknown encoding: %d", val)
		}
		result[i] = le.Classes[val]
	}

	return result, nil
}
