package evaluation

import (
	"cmp"
	"fmt"
	"maps"
	"math"
	"math/rand"
	"slices"
	"sync"
	"time"

	"awesomeml/internal/models"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type CrossValidator struct {
	NFolds     int
	Stratified bool
	Shuffle    bool
	RandomSeed int64
	Parallel   bool
	MaxWorkers int
	Logger     zerolog.Logger
}

type CVResult struct {
	Scores []float64
	Mean   float64
	Std    float64
	Took   time.Duration
}

func NewCrossValidator(nFolds int, stratified bool) *CrossValidator {
	return &CrossValidator{
		NFolds:     nFolds,
		Stratified: stratified,
		Shuffle:    true,
		RandomSeed: 42,
		Parallel:   true,
		MaxWorkers: 4,
		Logger:     zerolog.Nop(),
	}
}

// CrossValidate scores a fresh estimator from newModel on every fold. Folds never
// share an estimator, so the parallel path needs no locking around Fit.
func CrossValidate[L cmp.Ordered](
	cv *CrossValidator,
	X [][]decimal.Decimal,
	y []L,
	newModel func() models.Estimator[L],
) (*CVResult, error) {
	if len(X) != len(y) {
		return nil, fmt.Errorf("feature matrix and labels have different lengths: %d vs %d", len(X), len(y))
	}

	folds, err := KFoldSplit(cv, y)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	scores := make([]float64, len(folds))
	errs := make([]error, len(folds))

	if cv.Parallel && cv.MaxWorkers > 1 {
		workers := min(cv.MaxWorkers, len(folds))

		jobs := make(chan int, len(folds))
		var wg sync.WaitGroup

		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range jobs {
					scores[i], errs[i] = evaluateFold(X, y, newModel(), folds[i])
				}
			}()
		}

		for i := range folds {
			jobs <- i
		}
		close(jobs)
		wg.Wait()
	} else {
		for i := range folds {
			scores[i], errs[i] = evaluateFold(X, y, newModel(), folds[i])
		}
	}

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("fold %d failed: %w", i, err)
		}
		cv.Logger.Debug().Int("fold", i).Int("test_size", len(folds[i])).Float64("accuracy", scores[i]).Msg("fold scored")
	}

	mean, std := calculateStats(scores)
	result := &CVResult{Scores: scores, Mean: mean, Std: std, Took: time.Since(start)}
	cv.Logger.Info().
		Int("folds", len(folds)).
		Bool("stratified", cv.Stratified).
		Float64("mean", mean).
		Float64("std", std).
		Dur("took", result.Took).
		Msg("cross validation finished")

	return result, nil
}

func evaluateFold[L cmp.Ordered](
	X [][]decimal.Decimal,
	y []L,
	model models.Estimator[L],
	testIndices []int,
) (float64, error) {
	testSet := make(map[int]bool, len(testIndices))
	for _, idx := range testIndices {
		testSet[idx] = true
	}

	trainIndices := make([]int, 0, len(X)-len(testIndices))
	for i := range X {
		if !testSet[i] {
			trainIndices = append(trainIndices, i)
		}
	}

	split := gather(X, y, trainIndices, testIndices)
	if err := model.Fit(split.XTrain, split.YTrain); err != nil {
		return 0, err
	}

	predictions, err := model.Predict(split.XTest)
	if err != nil {
		return 0, err
	}

	return Accuracy(split.YTest, predictions), nil
}

// KFoldSplit returns the test indices of each fold. Stratified folds deal every
// class's samples round robin so each fold sees the class mix of the whole set.
func KFoldSplit[L cmp.Ordered](cv *CrossValidator, y []L) ([][]int, error) {
	n := len(y)
	if cv.NFolds < 2 || cv.NFolds > n {
		return nil, fmt.Errorf("invalid number of folds: %d (must be between 2 and %d)", cv.NFolds, n)
	}

	rng := rand.New(rand.NewSource(cv.RandomSeed))
	shuffle := func(indices []int) {
		if cv.Shuffle {
			rng.Shuffle(len(indices), func(i, j int) {
				indices[i], indices[j] = indices[j], indices[i]
			})
		}
	}

	folds := make([][]int, cv.NFolds)

	if cv.Stratified {
		classIndices := make(map[L][]int)
		for i, label := range y {
			classIndices[label] = append(classIndices[label], i)
		}

		next := 0
		for _, class := range slices.Sorted(maps.Keys(classIndices)) {
			indices := classIndices[class]
			shuffle(indices)
			for _, idx := range indices {
				folds[next] = append(folds[next], idx)
				next = (next + 1) % cv.NFolds
			}
		}
		return folds, nil
	}

	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	shuffle(indices)

	foldSize := n / cv.NFolds
	for i := 0; i < cv.NFolds; i++ {
		start := i * foldSize
		end := start + foldSize
		if i == cv.NFolds-1 {
			end = n
		}
		folds[i] = slices.Clone(indices[start:end])
	}

	return folds, nil
}

func calculateStats(scores []float64) (mean, std float64) {
	if len(scores) == 0 {
		return 0, 0
	}

	sum := 0.0
	for _, s := range scores {
		sum += s
	}
	mean = sum / float64(len(scores))

	if len(scores) > 1 {
		variance := 0.0
		for _, s := range scores {
			diff := s - mean
			variance += diff * diff
		}
		variance /= float64(len(scores) - 1)
		std = math.Sqrt(variance)
	}

	return mean, std
}
