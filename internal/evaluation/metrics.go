package evaluation

import (
	"cmp"
	"fmt"
	"math"
	"strings"
)

type ClassificationMetrics[L cmp.Ordered] struct {
	Accuracy          float64            `json:"accuracy"`
	BalancedAccuracy  float64            `json:"balanced_accuracy"`
	MacroPrecision    float64            `json:"macro_precision"`
	MacroRecall       float64            `json:"macro_recall"`
	MacroF1           float64            `json:"macro_f1"`
	WeightedPrecision float64            `json:"weighted_precision"`
	WeightedRecall    float64            `json:"weighted_recall"`
	WeightedF1        float64            `json:"weighted_f1"`
	Classes           []L                `json:"classes"`
	PerClassMetrics   map[L]ClassMetrics `json:"per_class_metrics"`
	ConfusionMatrix   [][]int            `json:"confusion_matrix"`
	ClassSupport      map[L]int          `json:"class_support"`
	NumSamples        int                `json:"num_samples"`
	NumClasses        int                `json:"num_classes"`
}

type ClassMetrics struct {
	Precision   float64 `json:"precision"`
	Recall      float64 `json:"recall"`
	F1Score     float64 `json:"f1_score"`
	Specificity float64 `json:"specificity"`
	Support     int     `json:"support"`
}

// CalculateMetrics scores yPred against yTrue. Labels outside classes are counted
// for accuracy but left out of the confusion matrix.
func CalculateMetrics[L cmp.Ordered](yTrue, yPred []L, classes []L) (*ClassificationMetrics[L], error) {
	if len(yTrue) != len(yPred) {
		return nil, fmt.Errorf("label length mismatch: %d true vs %d predicted", len(yTrue), len(yPred))
	}
	if len(yTrue) == 0 {
		return nil, fmt.Errorf("cannot score an empty prediction set")
	}
	if len(classes) == 0 {
		return nil, fmt.Errorf("cannot score without classes")
	}

	numSamples := len(yTrue)
	numClasses := len(classes)

	confusionMatrix := buildConfusionMatrix(yTrue, yPred, classes)

	classSupport := make(map[L]int)
	for _, class := range yTrue {
		classSupport[class]++
	}

	perClassMetrics := make(map[L]ClassMetrics)
	var macroPrec, macroRec, macroF1 float64
	var weightedPrec, weightedRec, weightedF1 float64
	totalSupport := 0

	for i, class := range classes {
		tp := confusionMatrix[i][i]
		fp, fn, tn := 0, 0, 0

		for j := range classes {
			if j != i {
				fp += confusionMatrix[j][i]
				fn += confusionMatrix[i][j]
			}
			for k := range classes {
				if j != i && k != i {
					tn += confusionMatrix[j][k]
				}
			}
		}

		precision := safeDivide(float64(tp), float64(tp+fp))
		recall := safeDivide(float64(tp), float64(tp+fn))
		f1 := safeDivide(2*precision*recall, precision+recall)
		specificity := safeDivide(float64(tn), float64(tn+fp))

		support := classSupport[class]
		perClassMetrics[class] = ClassMetrics{
			Precision:   precision,
			Recall:      recall,
			F1Score:     f1,
			Specificity: specificity,
			Support:     support,
		}

		macroPrec += precision
		macroRec += recall
		macroF1 += f1

		weightedPrec += precision * float64(support)
		weightedRec += recall * float64(support)
		weightedF1 += f1 * float64(support)
		totalSupport += support
	}

	correct := 0
	for i, pred := range yPred {
		if pred == yTrue[i] {
			correct++
		}
	}

	return &ClassificationMetrics[L]{
		Accuracy:          float64(correct) / float64(numSamples),
		BalancedAccuracy:  macroRec / float64(numClasses),
		MacroPrecision:    macroPrec / float64(numClasses),
		MacroRecall:       macroRec / float64(numClasses),
		MacroF1:           macroF1 / float64(numClasses),
		WeightedPrecision: safeDivide(weightedPrec, float64(totalSupport)),
		WeightedRecall:    safeDivide(weightedRec, float64(totalSupport)),
		WeightedF1:        safeDivide(weightedF1, float64(totalSupport)),
		Classes:           classes,
		PerClassMetrics:   perClassMetrics,
		ConfusionMatrix:   confusionMatrix,
		ClassSupport:      classSupport,
		NumSamples:        numSamples,
		NumClasses:        numClasses,
	}, nil
}

func Accuracy[L cmp.Ordered](yTrue, yPred []L) float64 {
	if len(yTrue) == 0 || len(yTrue) != len(yPred) {
		return 0
	}
	correct := 0
	for i, pred := range yPred {
		if pred == yTrue[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(yTrue))
}

func buildConfusionMatrix[L cmp.Ordered](yTrue, yPred []L, classes []L) [][]int {
	matrix := make([][]int, len(classes))
	for i := range matrix {
		matrix[i] = make([]int, len(classes))
	}

	classToIdx := make(map[L]int, len(classes))
	for i, class := range classes {
		classToIdx[class] = i
	}

	for i := range yTrue {
		trueIdx, trueOk := classToIdx[yTrue[i]]
		predIdx, predOk := classToIdx[yPred[i]]
		if trueOk && predOk {
			matrix[trueIdx][predIdx]++
		}
	}

	return matrix
}

func safeDivide(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0.0
	}
	result := numerator / denominator
	if math.IsNaN(result) || math.IsInf(result, 0) {
		return 0.0
	}
	return result
}

func (m *ClassificationMetrics[L]) FormatMetrics() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Accuracy: %.4f\n", m.Accuracy)
	fmt.Fprintf(&b, "Balanced Accuracy: %.4f\n", m.BalancedAccuracy)
	fmt.Fprintf(&b, "Macro Avg - Precision: %.4f, Recall: %.4f, F1: %.4f\n",
		m.MacroPrecision, m.MacroRecall, m.MacroF1)
	fmt.Fprintf(&b, "Weighted Avg - Precision: %.4f, Recall: %.4f, F1: %.4f\n",
		m.WeightedPrecision, m.WeightedRecall, m.WeightedF1)
	return b.String()
}
