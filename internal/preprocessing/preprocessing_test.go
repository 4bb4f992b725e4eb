package preprocessing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(values ...float64) []decimal.Decimal {
	row := make([]decimal.Decimal, len(values))
	for i, v := range values {
		row[i] = decimal.NewFromFloat(v)
	}
	return row
}

func TestScaler_MinMax(t *testing.T) {
	X := [][]decimal.Decimal{dec(1, 10), dec(3, 10), dec(5, 10)}

	scaler := NewScaler("normalized")
	out, err := scaler.FitTransform(X)
	require.NoError(t, err)

	assert.True(t, out[0][0].Equal(decimal.Zero))
	assert.True(t, out[1][0].Equal(decimal.NewFromFloat(0.5)))
	assert.True(t, out[2][0].Equal(decimal.NewFromInt(1)))
	// constant column collapses to zero
	assert.True(t, out[1][1].IsZero())
}

func TestScaler_Standard(t *testing.T) {
	X := [][]decimal.Decimal{dec(2), dec(4), dec(6)}

	scaler := NewScaler(ScaleStandard)
	out, err := scaler.FitTransform(X)
	require.NoError(t, err)

	assert.True(t, scaler.FeatureMean[0].Equal(decimal.NewFromInt(4)))
	assert.True(t, out[1][0].IsZero())
	assert.True(t, out[0][0].IsNegative())
	assert.True(t, out[2][0].IsPositive())
}

func TestScaler_Raw(t *testing.T) {
	X := [][]decimal.Decimal{dec(2.5, -1)}

	out, err := NewScaler("none").FitTransform(X)
	require.NoError(t, err)
	assert.Equal(t, X, out)

	out[0][0] = decimal.NewFromInt(7)
	assert.True(t, X[0][0].Equal(decimal.NewFromFloat(2.5)), "transform must copy")
}

func TestScaler_Errors(t *testing.T) {
	_, err := NewScaler(ScaleMinMax).Transform([][]decimal.Decimal{dec(1)})
	assert.EqualError(t, err, "scaler must be fitted before transform")

	assert.Error(t, NewScaler(ScaleMinMax).Fit(nil))
	assert.EqualError(t, NewScaler("log").Fit([][]decimal.Decimal{dec(1)}), "unknown scale type: log")
	assert.Error(t, NewScaler(ScaleMinMax).Fit([][]decimal.Decimal{dec(1, 2), dec(1)}))

	scaler := NewScaler(ScaleMinMax)
	require.NoError(t, scaler.Fit([][]decimal.Decimal{dec(1, 2)}))
	_, err = scaler.Transform([][]decimal.Decimal{dec(1)})
	assert.Error(t, err)

	scaler.Reset()
	assert.False(t, scaler.IsFitted)
}

func TestScaler_Clone(t *testing.T) {
	scaler := NewScaler("normalized")
	require.NoError(t, scaler.Fit([][]decimal.Decimal{dec(1), dec(2)}))

	clone, ok := scaler.Clone().(*Scaler)
	require.True(t, ok)
	assert.Equal(t, ScaleMinMax, clone.ScaleType)
	assert.False(t, clone.IsFitted)

	require.NoError(t, clone.Fit([][]decimal.Decimal{dec(5), dec(9)}))
	assert.True(t, scaler.FeatureMax[0].Equal(decimal.NewFromInt(2)))
}

func TestLabelEncoder_Deterministic(t *testing.T) {
	labels := []string{"virginica", "setosa", "versicolor", "setosa"}

	encoder := NewLabelEncoder()
	encoded, err := encoder.FitTransform(labels)
	require.NoError(t, err)

	assert.Equal(t, []string{"setosa", "versicolor", "virginica"}, encoder.Classes)
	assert.Equal(t, []int{2, 0, 1, 0}, encoded)

	decoded, err := encoder.InverseTransform(encoded)
	require.NoError(t, err)
	assert.Equal(t, labels, decoded)
}

func TestLabelEncoder_Errors(t *testing.T) {
	encoder := NewLabelEncoder()
	_, err := encoder.Transform([]string{"a"})
	assert.Error(t, err)
	_, err = encoder.InverseTransform([]int{0})
	assert.Error(t, err)

	encoder.Fit([]string{"a"})
	_, err = encoder.Transform([]string{"b"})
	assert.EqualError(t, err, "unknown label: b")
	_, err = encoder.InverseTransform([]int{3})
	assert.EqualError(t, err, "unknown encoding: 3")
}
