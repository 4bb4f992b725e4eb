package preprocessing

import (
	"fmt"
	"math"

	"awesomeml/internal/pipeline"

	"github.com/shopspring/decimal"
)

const (
	ScaleMinMax   = "minmax"
	ScaleStandard = "standard"
	ScaleRaw      = "raw"
)

// Scaler rescales feature columns.
type Scaler struct {
	ScaleType   string
	IsFitted    bool
	FeatureMin  []decimal.Decimal
	FeatureMax  []decimal.Decimal
	FeatureMean []decimal.Decimal
	FeatureStd  []decimal.Decimal
}

func NewScaler(scaleType string) *Scaler {
	return &Scaler{ScaleType: canonicalScaleType(scaleType)}
}

func canonicalScaleType(scaleType string) string {
	switch scaleType {
	case "minmax", "normalized":
		return ScaleMinMax
	case "standard", "standardized":
		return ScaleStandard
	case "raw", "none", "":
		return ScaleRaw
	}
	return scaleType
}

var _ pipeline.Transformer = (*Scaler)(nil)

func (s *Scaler) Clone() pipeline.Transformer {
	return NewScaler(s.ScaleType)
}

func (s *Scaler) Name() string {
	return "Scaler(" + s.ScaleType + ")"
}

func (s *Scaler) Fit(X [][]decimal.Decimal) error {
	if len(X) == 0 {
		return fmt.Errorf("scaler: empty dataset")
	}

	nFeatures := len(X[0])
	for i, row := range X {
		if len(row) != nFeatures {
			return fmt.Errorf("scaler: row %d has %d features, expected %d", i, len(row), nFeatures)
		}
	}

	s.FeatureMin = make([]decimal.Decimal, nFeatures)
	s.FeatureMax = make([]decimal.Decimal, nFeatures)
	s.FeatureMean = make([]decimal.Decimal, nFeatures)
	s.FeatureStd = make([]decimal.Decimal, nFeatures)

	switch s.ScaleType {
	case ScaleMinMax:
		s.fitMinMax(X)
	case ScaleStandard:
		s.fitStandard(X)
	case ScaleRaw:
	default:
		return fmt.Errorf("unknown scale type: %s", s.ScaleType)
	}

	s.IsFitted = true
	return nil
}

func (s *Scaler) Transform(X [][]decimal.Decimal) ([][]decimal.Decimal, error) {
	if !s.IsFitted {
		return nil, fmt.Errorf("scaler must be fitted before transform")
	}

	result := make([][]decimal.Decimal, len(X))
	for i := range X {
		if s.ScaleType != ScaleRaw && len(X[i]) != len(s.FeatureMin) {
			return nil, fmt.Errorf("scaler: row %d has %d features, fitted on %d", i, len(X[i]), len(s.FeatureMin))
		}

		result[i] = make([]decimal.Decimal, len(X[i]))
		for j, value := range X[i] {
			switch s.ScaleType {
			case ScaleMinMax:
				result[i][j] = s.transformMinMax(value, j)
			case ScaleStandard:
				result[i][j] = s.transformStandard(value, j)
			default:
				result[i][j] = value
			}
		}
	}

	return result, nil
}

func (s *Scaler) FitTransform(X [][]decimal.Decimal) ([][]decimal.Decimal, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

func (s *Scaler) Reset() {
	s.IsFitted = false
	s.FeatureMin = nil
	s.FeatureMax = nil
	s.FeatureMean = nil
	s.FeatureStd = nil
}

func (s *Scaler) fitMinMax(X [][]decimal.Decimal) {
	for j := range s.FeatureMin {
		s.FeatureMin[j] = X[0][j]
		s.FeatureMax[j] = X[0][j]

		for i := 1; i < len(X); i++ {
			if X[i][j].LessThan(s.FeatureMin[j]) {
				s.FeatureMin[j] = X[i][j]
			}
			if X[i][j].GreaterThan(s.FeatureMax[j]) {
				s.FeatureMax[j] = X[i][j]
			}
		}
	}
}

func (s *Scaler) fitStandard(X [][]decimal.Decimal) {
	nSamples := decimal.NewFromInt(int64(len(X)))

	for j := range s.FeatureMean {
		sum := decimal.Zero
		for i := range X {
			sum = sum.Add(X[i][j])
		}
		s.FeatureMean[j] = sum.Div(nSamples)

		variance := decimal.Zero
		for i := range X {
			diff := X[i][j].Sub(s.FeatureMean[j])
			variance = variance.Add(diff.Mul(diff))
		}
		variance = variance.Div(nSamples)

		varFloat, _ := variance.Float64()
		s.FeatureStd[j] = decimal.NewFromFloat(math.Sqrt(varFloat))
		if s.FeatureStd[j].IsZero() {
			s.FeatureStd[j] = decimal.NewFromInt(1)
		}
	}
}

func (s *Scaler) transformMinMax(value decimal.Decimal, featureIndex int) decimal.Decimal {
	span := s.FeatureMax[featureIndex].Sub(s.FeatureMin[featureIndex])
	if span.IsZero() {
		return decimal.Zero
	}
	return value.Sub(s.FeatureMin[featureIndex]).Div(span)
}

func (s *Scaler) transformStandard(value decimal.Decimal, featureIndex int) decimal.Decimal {
	return value.Sub(s.FeatureMean[featureIndex]).Div(s.FeatureStd[featureIndex])
}
