package persistence

import (
	"encoding/gob"
	"fmt"
	"os"
	"strconv"
	"time"

	"awesomeml/internal/models"
	"awesomeml/internal/pipeline"
	"awesomeml/internal/preprocessing"

	"github.com/shopspring/decimal"
)

// ModelBundle is what gets written to a .model file. Labels are always modelled
// as ints: integer datasets keep their own values, other datasets go through
// Encoder and are decoded again on the way out.
type ModelBundle struct {
	Model     *models.MajorityClassifier[int]
	Scaler    *preprocessing.Scaler
	Encoder   *preprocessing.LabelEncoder
	Metadata  BundleMetadata
	CreatedAt time.Time
}

type BundleMetadata struct {
	RunID        string
	ModelName    string
	Dataset      string
	Accuracy     float64
	Precision    float64
	Recall       float64
	F1Score      float64
	CVMean       float64
	CVStd        float64
	TrainingTime time.Duration
	Features     []string
	Classes      []string
	Parameters   map[string]string
}

func NewModelBundle(model *models.MajorityClassifier[int], scaler *preprocessing.Scaler, encoder *preprocessing.LabelEncoder) *ModelBundle {
	params := make(map[string]string)
	for k, v := range model.GetParams() {
		params[k] = fmt.Sprint(v)
	}
	if scaler != nil {
		params["preprocessing"] = scaler.ScaleType
	}

	return &ModelBundle{
		Model:     model,
		Scaler:    scaler,
		Encoder:   encoder,
		CreatedAt: time.Now(),
		Metadata: BundleMetadata{
			ModelName:  model.GetName(),
			Parameters: params,
		},
	}
}

// Pipeline reassembles the fitted scaler and model into one estimator.
func (mb *ModelBundle) Pipeline() *pipeline.Pipeline[int] {
	if mb.Scaler == nil {
		return pipeline.New[int](mb.Model)
	}
	return pipeline.New[int](mb.Model, mb.Scaler)
}

// PredictLabels predicts and renders labels the way they appeared in the training data.
func (mb *ModelBundle) PredictLabels(X [][]decimal.Decimal) ([]string, error) {
	predictions, err := mb.Pipeline().Predict(X)
	if err != nil {
		return nil, err
	}
	return mb.DecodeLabels(predictions)
}

func (mb *ModelBundle) DecodeLabels(encoded []int) ([]string, error) {
	if mb.Encoder != nil {
		return mb.Encoder.InverseTransform(encoded)
	}
	labels := make([]string, len(encoded))
	for i, v := range encoded {
		labels[i] = strconv.Itoa(v)
	}
	return labels, nil
}

// EncodeLabels is the inverse of DecodeLabels, used to score a bundle on new data.
func (mb *ModelBundle) EncodeLabels(labels []string) ([]int, error) {
	if mb.Encoder != nil {
		return mb.Encoder.Transform(labels)
	}
	encoded := make([]int, len(labels))
	for i, label := range labels {
		v, err := strconv.Atoi(label)
		if err != nil {
			return nil, fmt.Errorf("label %q is not an integer: %w", label, err)
		}
		encoded[i] = v
	}
	return encoded, nil
}

func (mb *ModelBundle) Save(filename string) error {
	if mb.Model == nil || !mb.Model.IsFitted() {
		return fmt.Errorf("refusing to save an unfitted model")
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	encoder := gob.NewEncoder(file)
	if err := encoder.Encode(mb); err != nil {
		return fmt.Errorf("failed to encode bundle: %w", err)
	}

	return file.Sync()
}

func LoadModelBundle(filename string) (*ModelBundle, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var bundle ModelBundle
	decoder := gob.NewDecoder(file)
	if err := decoder.Decode(&bundle); err != nil {
		return nil, fmt.Errorf("failed to decode bundle: %w", err)
	}
	if bundle.Model == nil {
		return nil, fmt.Errorf("bundle %s holds no model", filename)
	}

	return &bundle, nil
}

func (mb *ModelBundle) SaveMetadata(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	fmt.Fprintf(file, "Run: %s\n", mb.Metadata.RunID)
	fmt.Fprintf(file, "Model: %s\n", mb.Metadata.ModelName)
	fmt.Fprintf(file, "Dataset: %s\n", mb.Metadata.Dataset)
	fmt.Fprintf(file, "Created: %s\n", mb.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(file, "Classes: %v\n", mb.Metadata.Classes)
	fmt.Fprintf(file, "Accuracy: %.4f\n", mb.Metadata.Accuracy)
	fmt.Fprintf(file, "Precision: %.4f\n", mb.Metadata.Precision)
	fmt.Fprintf(file, "Recall: %.4f\n", mb.Metadata.Recall)
	fmt.Fprintf(file, "F1 Score: %.4f\n", mb.Metadata.F1Score)
	fmt.Fprintf(file, "CV: %.4f +/- %.4f\n", mb.Metadata.CVMean, mb.Metadata.CVStd)
	fmt.Fprintf(file, "Training Time: %v\n", mb.Metadata.TrainingTime)

	return nil
}
