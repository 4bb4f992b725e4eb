package data

import (
	"cmp"
	"fmt"

	"github.com/shopspring/decimal"
)

type DataValidator struct{}

func NewDataValidator() *DataValidator {
	return &DataValidator{}
}

// ValidateFeatures checks that X is a non-empty rectangular matrix with at least one column.
func (dv *DataValidator) ValidateFeatures(X [][]decimal.Decimal) error {
	if len(X) == 0 {
		return fmt.Errorf("dataset is empty")
	}

	nFeatures := len(X[0])
	if nFeatures == 0 {
		return fmt.Errorf("features cannot be empty")
	}

	for i, sample := range X {
		if len(sample) != nFeatures {
			return fmt.Errorf("inconsistent feature count at sample %d: expected %d, got %d", i, nFeatures, len(sample))
		}
	}

	return nil
}

func ValidateDataset[L cmp.Ordered](X [][]decimal.Decimal, y []L) error {
	dv := DataValidator{}
	if err := dv.ValidateFeatures(X); err != nil {
		return err
	}

	if len(X) != len(y) {
		return fmt.Errorf("feature matrix and labels have different lengths: %d vs %d", len(X), len(y))
	}

	return nil
}

type FeatureStats struct {
	Name string
	Min  decimal.Decimal
	Max  decimal.Decimal
	Mean decimal.Decimal
}

type DatasetStats struct {
	Samples           int
	Features          int
	ClassDistribution map[string]int
	FeatureStats      []FeatureStats
}

func (dv *DataValidator) GetDatasetStats(ds *Dataset) DatasetStats {
	stats := DatasetStats{
		Samples:           ds.Len(),
		ClassDistribution: make(map[string]int),
	}
	for _, label := range ds.Labels {
		stats.ClassDistribution[label]++
	}
	if ds.Len() == 0 {
		return stats
	}

	stats.Features = len(ds.X[0])
	stats.FeatureStats = make([]FeatureStats, stats.Features)
	for j := 0; j < stats.Features; j++ {
		values := make([]decimal.Decimal, ds.Len())
		for i := range ds.X {
			values[i] = ds.X[i][j]
		}

		name := fmt.Sprintf("f%d", j)
		if j < len(ds.Features) {
			name = ds.Features[j]
		}
		stats.FeatureStats[j] = FeatureStats{
			Name: name,
			Min:  decimal.Min(values[0], values[1:]...),
			Max:  decimal.Max(values[0], values[1:]...),
			Mean: decimal.Avg(values[0], values[1:]...),
		}
	}

	return stats
}
