package models

import (
	"cmp"
	"fmt"
)

const AlgorithmMajority = "majority"

type ModelConfig struct {
	Algorithm   string
	OutputWidth OutputWidth
}

func CreateModel[L cmp.Ordered](config ModelConfig) (Estimator[L], error) {
	switch config.Algorithm {
	case AlgorithmMajority, "baseline":
		return NewMajorityClassifier[L](config.OutputWidth), nil

	default:
		return nil, fmt.Errorf("unknown algorithm: %s", config.Algorithm)
	}
}

func DefaultConfig(algorithm string) ModelConfig {
	config := ModelConfig{Algorithm: algorithm}

	switch algorithm {
	case AlgorithmMajority, "baseline":
		config.OutputWidth = Width8
	}

	return config
}

// Factory returns a constructor producing fresh, unfitted estimators for config.
// Cross validation uses it so that folds never share fitted state.
func Factory[L cmp.Ordered](config ModelConfig) (func() Estimator[L], error) {
	if _, err := CreateModel[L](config); err != nil {
		return nil, err
	}
	return func() Estimator[L] {
		model, _ := CreateModel[L](config)
		return model
	}, nil
}
