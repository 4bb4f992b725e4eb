package evaluation

import (
	"cmp"
	"fmt"
	"maps"
	"math/rand"
	"slices"

	"github.com/shopspring/decimal"
)

type Split[L cmp.Ordered] struct {
	XTrain [][]decimal.Decimal
	XTest  [][]decimal.Decimal
	YTrain []L
	YTest  []L
}

type TrainTestSplitter struct {
	testSize   float64
	randomSeed int64
	shuffle    bool
}

func NewTrainTestSplitter(testSize float64, randomSeed int64, shuffle bool) *TrainTestSplitter {
	return &TrainTestSplitter{
		testSize:   testSize,
		randomSeed: randomSeed,
		shuffle:    shuffle,
	}
}

func (tts *TrainTestSplitter) validate(nX, nY int) error {
	if nX != nY {
		return fmt.Errorf("x and y must have the same length")
	}
	if nX == 0 {
		return fmt.Errorf("cannot split empty dataset")
	}
	if tts.testSize <= 0 || tts.testSize >= 1 {
		return fmt.Errorf("test size must be between 0 and 1")
	}
	return nil
}

func TrainTest[L cmp.Ordered](tts *TrainTestSplitter, X [][]decimal.Decimal, y []L) (*Split[L], error) {
	if err := tts.validate(len(X), len(y)); err != nil {
		return nil, err
	}

	indices := make([]int, len(X))
	for i := range indices {
		indices[i] = i
	}

	if tts.shuffle {
		rng := rand.New(rand.NewSource(tts.randomSeed))
		rng.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}

	testCount := int(float64(len(X)) * tts.testSize)
	if testCount == 0 {
		testCount = 1
	}
	trainCount := len(X) - testCount
	if trainCount == 0 {
		return nil, fmt.Errorf("test size %.2f leaves no training samples", tts.testSize)
	}

	return gather(X, y, indices[:trainCount], indices[trainCount:]), nil
}

// StratifiedTrainTest keeps each class's share roughly equal across both sides.
func StratifiedTrainTest[L cmp.Ordered](tts *TrainTestSplitter, X [][]decimal.Decimal, y []L) (*Split[L], error) {
	if err := tts.validate(len(X), len(y)); err != nil {
		return nil, err
	}

	classIndices := make(map[L][]int)
	for i, label := range y {
		classIndices[label] = append(classIndices[label], i)
	}

	var trainIndices, testIndices []int
	rng := rand.New(rand.NewSource(tts.randomSeed))

	// iterate classes in sorted order so a fixed seed reproduces the same split
	for _, class := range slices.Sorted(maps.Keys(classIndices)) {
		indices := classIndices[class]
		if tts.shuffle {
			rng.Shuffle(len(indices), func(i, j int) {
				indices[i], indices[j] = indices[j], indices[i]
			})
		}

		testCount := int(float64(len(indices)) * tts.testSize)
		if testCount == 0 && len(indices) > 1 {
			testCount = 1
		}

		trainCount := len(indices) - testCount
		trainIndices = append(trainIndices, indices[:trainCount]...)
		testIndices = append(testIndices, indices[trainCount:]...)
	}

	if len(testIndices) == 0 || len(trainIndices) == 0 {
		return nil, fmt.Errorf("stratified split with test size %.2f produced an empty side", tts.testSize)
	}

	if tts.shuffle {
		rng.Shuffle(len(trainIndices), func(i, j int) {
			trainIndices[i], trainIndices[j] = trainIndices[j], trainIndices[i]
		})
		rng.Shuffle(len(testIndices), func(i, j int) {
			testIndices[i], testIndices[j] = testIndices[j], testIndices[i]
		})
	}

	return gather(X, y, trainIndices, testIndices), nil
}

func gather[L cmp.Ordered](X [][]decimal.Decimal, y []L, trainIndices, testIndices []int) *Split[L] {
	split := &Split[L]{
		XTrain: make([][]decimal.Decimal, len(trainIndices)),
		XTest:  make([][]decimal.Decimal, len(testIndices)),
		YTrain: make([]L, len(trainIndices)),
		YTest:  make([]L, len(testIndices)),
	}

	for i, idx := range trainIndices {
		split.XTrain[i] = X[idx]
		split.YTrain[i] = y[idx]
	}
	for i, idx := range testIndices {
		split.XTest[i] = X[idx]
		split.YTest[i] = y[idx]
	}

	return split
}
