package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	color.NoColor = true
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	root, a := newRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := execute(root, a)
	return stdout.String(), stderr.String(), err
}

type recordingCloser struct {
	closed int
}

func (c *recordingCloser) Close() error {
	c.closed++
	return nil
}

func train(t *testing.T, dataset string, extra ...string) string {
	t.Helper()
	dir := t.TempDir()
	args := append([]string{"train", "--data", dataset, "--output", dir}, extra...)
	out, _, err := run(t, args...)
	require.NoError(t, err, out)

	matches, err := filepath.Glob(filepath.Join(dir, "*.model"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	return matches[0]
}

func TestTrain(t *testing.T) {
	dir := t.TempDir()
	out, _, err := run(t, "train", "--data", "testdata/iris_sample.csv", "--output", dir, "--cv-folds", "2")
	require.NoError(t, err)

	assert.Contains(t, out, "Loaded 8 samples with 4 features")
	assert.Contains(t, out, "predicts 2 for every sample")
	// each stratified fold holds one 0, one 1 and two 2s
	assert.Contains(t, out, "0.5000 +/- 0.0000")
	assert.Contains(t, out, "Model saved to")

	metadata, err := filepath.Glob(filepath.Join(dir, "*.txt"))
	require.NoError(t, err)
	require.Len(t, metadata, 1)
}

func TestTrain_StringLabels(t *testing.T) {
	path := train(t, "testdata/species.csv", "--cv-folds", "0")

	out, _, err := run(t, "inspect", "--model", path)
	require.NoError(t, err)
	// the training side holds one sample of each species, so the tie goes to the smallest
	assert.Contains(t, out, "Majority class: setosa")
	assert.Contains(t, out, "Classes: [setosa versicolor virginica]")
}

func TestTrain_Errors(t *testing.T) {
	_, _, err := run(t, "train")
	assert.Error(t, err)

	_, _, err = run(t, "train", "--data", "testdata/missing.csv", "--output", t.TempDir())
	assert.Error(t, err)

	_, _, err = run(t, "train", "--data", "testdata/iris_sample.csv", "--output-width", "12", "--output", t.TempDir())
	assert.Error(t, err)

	_, _, err = run(t, "train", "--data", "testdata/iris_sample.csv", "--preprocess", "log", "--output", t.TempDir())
	assert.ErrorContains(t, err, "unknown scale type")
}

func TestTrain_WidthTooNarrow(t *testing.T) {
	dataset := filepath.Join(t.TempDir(), "wide.csv")
	content := "x,label\n1,300\n2,300\n3,300\n4,1\n5,1\n6,300\n"
	require.NoError(t, os.WriteFile(dataset, []byte(content), 0o644))

	_, _, err := run(t, "train", "--data", dataset, "--cv-folds", "0", "--output", t.TempDir())
	assert.ErrorContains(t, err, "8-bit")

	path := train(t, dataset, "--cv-folds", "0", "--output-width", "16")
	out, _, err := run(t, "inspect", "--model", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Majority class: 300")
	assert.Contains(t, out, "Output width: 16")
}

func TestPredict(t *testing.T) {
	path := train(t, "testdata/iris_sample.csv", "--cv-folds", "0", "--preprocess", "minmax")

	out, stderr, err := run(t, "predict", "--model", path, "--data", "testdata/iris_sample.csv", "--label-col", "4", "--batch-size", "3")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 9)
	assert.Equal(t, "row,prediction", lines[0])
	assert.Equal(t, "0,2", lines[1])
	assert.Equal(t, "7,2", lines[8])
	assert.Contains(t, stderr, "8 predictions")
}

func TestPredict_IncompleteRows(t *testing.T) {
	path := train(t, "testdata/iris_sample.csv", "--cv-folds", "0", "--preprocess", "minmax")
	dataset := filepath.Join(t.TempDir(), "gaps.csv")
	content := "a,b,c,d\n5.0,3.6,1.4,0.2\n,2.8,,1.3\n6.7,3.1,5.6,2.4\n6.2,2.9,4.3,1.3\n"
	require.NoError(t, os.WriteFile(dataset, []byte(content), 0o644))

	out, stderr, err := run(t, "predict", "--model", path, "--data", dataset, "--batch-size", "2")
	require.NoError(t, err)
	assert.Equal(t, "row,prediction\n0,2\n1,2\n2,2\n3,2\n", out)
	assert.Contains(t, stderr, "4 predictions")
}

func TestPredict_ToFile(t *testing.T) {
	path := train(t, "testdata/species.csv", "--cv-folds", "0")
	output := filepath.Join(t.TempDir(), "predictions.csv")

	_, _, err := run(t, "predict", "--model", path, "--data", "testdata/species.csv", "--label-col", "4", "--output", output)
	require.NoError(t, err)

	content, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "row,prediction\n0,setosa\n1,setosa\n2,setosa\n3,setosa\n", string(content))
}

func TestEvaluate(t *testing.T) {
	path := train(t, "testdata/iris_sample.csv", "--cv-folds", "0")

	out, _, err := run(t, "evaluate", "--model", path, "--data", "testdata/iris_sample.csv")
	require.NoError(t, err)
	assert.Contains(t, out, "MajorityClass on testdata/iris_sample.csv (8 samples)")
	assert.Contains(t, out, "Accuracy: 0.5000")
}

func TestCV(t *testing.T) {
	out, _, err := run(t, "cv", "--data", "testdata/iris_sample.csv", "--folds", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "2-fold cross-validation of Scaler(raw) -> MajorityClass")
	assert.Contains(t, out, "fold 2: 0.5000")

	_, _, err = run(t, "cv", "--data", "testdata/iris_sample.csv", "--folds", "1")
	assert.Error(t, err)
}

func TestExperiment(t *testing.T) {
	grid := filepath.Join(t.TempDir(), "experiment.yaml")
	require.NoError(t, os.WriteFile(grid, []byte(`
experiment:
  preprocessing: [raw, minmax]
  train_test_splits: [0.7]
  cross_validation:
    folds: 2
`), 0o644))
	dir := t.TempDir()

	out, _, err := run(t, "experiment", "--grid", grid, "--data", "testdata/iris_sample.csv", "--output", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Total experiments: 2")
	assert.Contains(t, out, "Best accuracy")

	results, err := filepath.Glob(filepath.Join(dir, "experiment_*", "experiment_results.csv"))
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestInspect_Dataset(t *testing.T) {
	out, _, err := run(t, "inspect", "--data", "testdata/iris_sample.csv")
	require.NoError(t, err)
	assert.Contains(t, out, "Samples: 8, features: 4")
	assert.Contains(t, out, "2: 4 (50.0%)")
	assert.Contains(t, out, "sepal_length")

	_, _, err = run(t, "inspect")
	assert.Error(t, err)
}

func TestConfigFlag(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("logger:\n  level: verbose\n"), 0o644))

	_, _, err := run(t, "--config", cfg, "cv", "--data", "testdata/iris_sample.csv")
	assert.ErrorContains(t, err, "invalid config")
}

func TestExecute_ClosesOnFailure(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "awesomeml.log")
	cfg := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("logger:\n  file: "+logFile+"\n"), 0o644))

	root, a := newRootCmd()
	recorder := &recordingCloser{}
	a.closers = append(a.closers, recorder)
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"--config", cfg, "train", "--data", "testdata/missing.csv"})

	err := execute(root, a)
	assert.ErrorContains(t, err, "failed to open dataset")
	assert.Equal(t, 1, recorder.closed)
	assert.Empty(t, a.closers)
}

func TestServe_RefusesUnknownModel(t *testing.T) {
	_, _, err := run(t, "serve", "--model", filepath.Join(t.TempDir(), "missing.model"))
	assert.ErrorContains(t, err, "failed to open file")
}
