package models

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"
)

// Estimator is the fit/predict contract every classifier in this module honours.
// Pipelines, cross validation and the experiment runner only talk to this interface.
type Estimator[L cmp.Ordered] interface {
	Fit(X [][]decimal.Decimal, y []L) error
	Predict(X [][]decimal.Decimal) ([]L, error)
	Classes() ([]L, error)
	GetName() string
	GetParams() map[string]any
	Reset()
}

type BaseModel struct {
	Name   string
	Params map[string]any
}

func (bm *BaseModel) GetType() string {
	return bm.Name
}

func (bm *BaseModel) GetName() string {
	return bm.Name
}

func (bm *BaseModel) GetParams() map[string]any {
	params := make(map[string]any, len(bm.Params))
	for k, v := range bm.Params {
		params[k] = v
	}
	return params
}

// ExtractClasses returns the distinct labels of y in ascending order.
func ExtractClasses[L cmp.Ordered](y []L) []L {
	classes, _ := CountClasses(y)
	return classes
}

// CountClasses returns the distinct labels of y in ascending order together with
// the number of occurrences of each, aligned index by index.
func CountClasses[L cmp.Ordered](y []L) ([]L, []int) {
	classCount := make(map[L]int)
	for _, label := range y {
		classCount[label]++
	}

	classes := make([]L, 0, len(classCount))
	for class := range classCount {
		classes = append(classes, class)
	}
	slices.Sort(classes)

	counts := make([]int, len(classes))
	for i, class := range classes {
		counts[i] = classCount[class]
	}

	return classes, counts
}
