package experiment

import (
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"awesomeml/internal/data"
	"awesomeml/internal/evaluation"
	"awesomeml/internal/models"
	"awesomeml/internal/pipeline"
	"awesomeml/internal/preprocessing"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

type ExperimentConfig struct {
	Experiment struct {
		Preprocessing   []string  `yaml:"preprocessing"`
		TrainTestSplits []float64 `yaml:"train_test_splits"`
		Seeds           []int64   `yaml:"seeds"`
		Stratified      bool      `yaml:"stratified"`
		CrossValidation struct {
			Folds int `yaml:"folds"`
		} `yaml:"cross_validation"`
		Algorithms struct {
			Majority struct {
				OutputWidth []int `yaml:"output_width"`
			} `yaml:"majority"`
		} `yaml:"algorithms"`
	} `yaml:"experiment"`
}

func DefaultExperimentConfig() *ExperimentConfig {
	config := &ExperimentConfig{}
	config.Experiment.Preprocessing = []string{preprocessing.ScaleRaw}
	config.Experiment.TrainTestSplits = []float64{0.7}
	config.Experiment.Seeds = []int64{1}
	config.Experiment.Stratified = true
	config.Experiment.CrossValidation.Folds = 5
	config.Experiment.Algorithms.Majority.OutputWidth = []int{int(models.Width8)}
	return config
}

func LoadConfig(configFile string) (*ExperimentConfig, error) {
	content, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read experiment config: %w", err)
	}

	config := DefaultExperimentConfig()
	if err := yaml.Unmarshal(content, config); err != nil {
		return nil, fmt.Errorf("failed to parse experiment config: %w", err)
	}

	for _, split := range config.Experiment.TrainTestSplits {
		if split <= 0 || split >= 1 {
			return nil, fmt.Errorf("train_test_splits: %v is not in (0, 1)", split)
		}
	}
	for _, bits := range config.Experiment.Algorithms.Majority.OutputWidth {
		if _, err := models.ParseOutputWidth(bits); err != nil {
			return nil, err
		}
	}

	return config, nil
}

type ExperimentRunner struct {
	Config *ExperimentConfig
	Logger zerolog.Logger
}

func NewRunner(config *ExperimentConfig, logger zerolog.Logger) *ExperimentRunner {
	return &ExperimentRunner{Config: config, Logger: logger}
}

type ExperimentResult struct {
	Dataset        string
	Algorithm      string
	Parameters     string
	Preprocessing  string
	TrainTestSplit string
	Seed           int64
	MajorityClass  string
	Accuracy       float64
	Precision      float64
	Recall         float64
	F1Score        float64
	CVMean         float64
	CVStd          float64
	TrainingTimeMs int64
	Error          string
}

// RunAllExperiments evaluates the baseline on every cell of the configured grid.
// A failing cell is recorded with its error rather than aborting the grid.
func (r *ExperimentRunner) RunAllExperiments(ds *data.Dataset) ([]ExperimentResult, error) {
	if ds.Len() == 0 {
		return nil, fmt.Errorf("dataset %s is empty", ds.Source)
	}

	encoder := preprocessing.NewLabelEncoder()
	y, isInt := ds.IntLabels()
	if !isInt {
		var err error
		if y, err = encoder.FitTransform(ds.Labels); err != nil {
			return nil, err
		}
	}

	decode := func(label int) string {
		if isInt {
			return fmt.Sprint(label)
		}
		names, err := encoder.InverseTransform([]int{label})
		if err != nil {
			return fmt.Sprint(label)
		}
		return names[0]
	}

	cfg := r.Config.Experiment
	var results []ExperimentResult

	for _, prep := range cfg.Preprocessing {
		for _, split := range cfg.TrainTestSplits {
			for _, seed := range cfg.Seeds {
				for _, bits := range cfg.Algorithms.Majority.OutputWidth {
					width, _ := models.ParseOutputWidth(bits)
					result := r.evaluate(ds, y, prep, split, seed, width, decode)
					results = append(results, result)

					var event *zerolog.Event
					if result.Error != "" {
						event = r.Logger.Warn().Str("error", result.Error)
					} else {
						event = r.Logger.Info()
					}
					event.Str("preprocessing", prep).
						Float64("train_share", split).
						Int64("seed", seed).
						Int("output_width", bits).
						Float64("accuracy", result.Accuracy).
						Msg("experiment cell finished")
				}
			}
		}
	}

	return results, nil
}

func (r *ExperimentRunner) evaluate(
	ds *data.Dataset,
	y []int,
	prep string,
	split float64,
	seed int64,
	width models.OutputWidth,
	decode func(int) string,
) ExperimentResult {
	modelConfig := models.ModelConfig{Algorithm: models.AlgorithmMajority, OutputWidth: width}
	newPipeline := func() models.Estimator[int] {
		return pipeline.New[int](models.NewMajorityClassifier[int](width), preprocessing.NewScaler(prep))
	}
	model := newPipeline()

	result := ExperimentResult{
		Dataset:        ds.Source,
		Algorithm:      modelConfig.Algorithm,
		Parameters:     fmt.Sprintf("%v", model.GetParams()),
		Preprocessing:  prep,
		TrainTestSplit: fmt.Sprintf("%.0f-%.0f", split*100, (1-split)*100),
		Seed:           seed,
	}

	splitter := evaluation.NewTrainTestSplitter(1-split, seed, true)
	var parts *evaluation.Split[int]
	var err error
	if r.Config.Experiment.Stratified {
		parts, err = evaluation.StratifiedTrainTest(splitter, ds.X, y)
	} else {
		parts, err = evaluation.TrainTest(splitter, ds.X, y)
	}
	if err != nil {
		result.Error = err.Error()
		return result
	}

	startTime := time.Now()
	if err := model.Fit(parts.XTrain, parts.YTrain); err != nil {
		result.Error = err.Error()
		return result
	}
	result.TrainingTimeMs = time.Since(startTime).Milliseconds()

	predictions, err := model.Predict(parts.XTest)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	if len(predictions) > 0 {
		result.MajorityClass = decode(predictions[0])
	}

	metrics, err := evaluation.CalculateMetrics(parts.YTest, predictions, models.ExtractClasses(y))
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.Accuracy = metrics.Accuracy
	result.Precision = metrics.MacroPrecision
	result.Recall = metrics.MacroRecall
	result.F1Score = metrics.MacroF1

	if folds := r.Config.Experiment.CrossValidation.Folds; folds > 0 {
		cv := evaluation.NewCrossValidator(folds, r.Config.Experiment.Stratified)
		cv.RandomSeed = seed
		cv.Logger = r.Logger
		cvResult, err := evaluation.CrossValidate(cv, ds.X, y, newPipeline)
		if err != nil {
			result.Error = err.Error()
			return result
		}
		result.CVMean = cvResult.Mean
		result.CVStd = cvResult.Std
	}

	return result
}

// BestResult returns the successful result with the highest accuracy.
func BestResult(results []ExperimentResult) (ExperimentResult, bool) {
	var best ExperimentResult
	found := false
	for _, result := range results {
		if result.Error != "" {
			continue
		}
		if !found || result.Accuracy > best.Accuracy {
			best = result
			found = true
		}
	}
	return best, found
}

func ExportResults(results []ExperimentResult, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	writer.Write([]string{
		"Dataset", "Algorithm", "Parameters", "Preprocessing",
		"TrainTestSplit", "Seed", "MajorityClass", "Accuracy", "Precision", "Recall", "F1Score",
		"CVMean", "CVStd", "TrainingTimeMs", "Error",
	})

	for _, result := range results {
		writer.Write([]string{
			result.Dataset,
			result.Algorithm,
			result.Parameters,
			result.Preprocessing,
			result.TrainTestSplit,
			fmt.Sprintf("%d", result.Seed),
			result.MajorityClass,
			fmt.Sprintf("%.4f", result.Accuracy),
			fmt.Sprintf("%.4f", result.Precision),
			fmt.Sprintf("%.4f", result.Recall),
			fmt.Sprintf("%.4f", result.F1Score),
			fmt.Sprintf("%.4f", result.CVMean),
			fmt.Sprintf("%.4f", result.CVStd),
			fmt.Sprintf("%d", result.TrainingTimeMs),
			result.Error,
		})
	}

	writer.Flush()
	return writer.Error()
}
