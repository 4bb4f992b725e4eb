package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateModel(t *testing.T) {
	model, err := CreateModel[int](DefaultConfig(AlgorithmMajority))
	require.NoError(t, err)
	assert.Equal(t, MajorityName, model.GetName())
	assert.Equal(t, map[string]any{"output_width": 8}, model.GetParams())

	_, err = CreateModel[int](ModelConfig{Algorithm: "knn"})
	assert.EqualError(t, err, "unknown algorithm: knn")
}

func TestFactory_ProducesIndependentModels(t *testing.T) {
	newModel, err := Factory[string](ModelConfig{Algorithm: AlgorithmMajority})
	require.NoError(t, err)

	a, b := newModel(), newModel()
	require.NoError(t, a.Fit(nil, []string{"x"}))

	_, err = b.Predict(nil)
	var notFitted *NotFittedError
	assert.ErrorAs(t, err, &notFitted)
}

func TestParseOutputWidth(t *testing.T) {
	for _, bits := range []int{0, 8, 16, 32, 64} {
		w, err := ParseOutputWidth(bits)
		require.NoError(t, err)
		assert.Equal(t, bits, int(w))
	}

	_, err := ParseOutputWidth(12)
	assert.Error(t, err)
	_, err = ParseOutputWidth(264)
	assert.Error(t, err)
}

func TestOutputWidth_Check(t *testing.T) {
	assert.NoError(t, Width8.Check(255))
	assert.NoError(t, Width8.Check(uint8(0)))
	assert.NoError(t, Width8.Check(2.0))
	assert.Error(t, Width8.Check(2.5))
	assert.Error(t, Width8.Check(256))
	assert.Error(t, Width8.Check("2"))
	assert.NoError(t, Width64.Check(uint64(1<<63)))
	assert.NoError(t, WidthUnchecked.Check("anything"))
	assert.Equal(t, uint64(65535), Width16.Max())
}

func TestCountClasses(t *testing.T) {
	classes, counts := CountClasses([]string{"b", "a", "b", "c", "b"})
	assert.Equal(t, []string{"a", "b", "c"}, classes)
	assert.Equal(t, []int{1, 3, 1}, counts)

	assert.Equal(t, []int{1, 4}, ExtractClasses([]int{4, 1, 4}))
}
