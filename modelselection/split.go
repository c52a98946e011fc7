// Package modelselection provides train/test splitting, k-fold
// cross-validation and grid search over estimator hyperparameters.
package modelselection

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/takara-ml/prepro/pkg/errors"
)

// Fold holds the train and test row indices of one cross-validation fold.
type Fold struct {
	TrainIndices []int
	TestIndices  []int
}

// Splitter is the interface for cross-validation splitters.
type Splitter interface {
	// Split generates train/test indices for each fold. y is only
	// consulted by stratified splitters. Asking for more folds than
	// there are samples is an error.
	Split(X, y mat.Matrix) ([]Fold, error)

	// GetNSplits returns the number of folds.
	GetNSplits() int
}

// KFold splits samples into k consecutive folds, each used once as the
// test set.
type KFold struct {
	NSplits    int
	Shuffle    bool
	RandomSeed int
}

// NewKFold creates a k-fold splitter. Fewer than 2 splits falls back to 5.
func NewKFold(nSplits int, shuffle bool, randomSeed int) *KFold {
	if nSplits < 2 {
		nSplits = 5
	}
	return &KFold{
		NSplits:    nSplits,
		Shuffle:    shuffle,
		RandomSeed: randomSeed,
	}
}

// GetNSplits returns the number of folds.
func (kf *KFold) GetNSplits() int {
	return kf.NSplits
}

// Split generates train/test indices for each fold.
func (kf *KFold) Split(X, _ mat.Matrix) ([]Fold, error) {
	nSamples, _ := X.Dims()
	if kf.NSplits > nSamples {
		return nil, errors.NewValidationError("n_splits",
			fmt.Sprintf("cannot be greater than the number of samples (%d)", nSamples), kf.NSplits)
	}

	indices := make([]int, nSamples)
	for i := range indices {
		indices[i] = i
	}

	if kf.Shuffle {
		r := rand.New(rand.NewPCG(uint64(kf.RandomSeed), uint64(kf.RandomSeed)))
		r.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}

	folds := make([]Fold, kf.NSplits)
	foldSize := nSamples / kf.NSplits
	remainder := nSamples % kf.NSplits

	currentIdx := 0
	for i := 0; i < kf.NSplits; i++ {
		testSize := foldSize
		if i < remainder {
			testSize++
		}

		testIndices := make([]int, testSize)
		copy(testIndices, indices[currentIdx:currentIdx+testSize])

		testSet := make(map[int]bool, testSize)
		for _, idx := range testIndices {
			testSet[idx] = true
		}

		trainIndices := make([]int, 0, nSamples-testSize)
		for _, idx := range indices {
			if !testSet[idx] {
				trainIndices = append(trainIndices, idx)
			}
		}

		folds[i] = Fold{
			TrainIndices: trainIndices,
			TestIndices:  testIndices,
		}

		currentIdx += testSize
	}

	return folds, nil
}

// StratifiedKFold splits samples into k folds while keeping per-fold class
// proportions close to the full set's.
type StratifiedKFold struct {
	NSplits    int
	Shuffle    bool
	RandomSeed int
}

// NewStratifiedKFold creates a stratified k-fold splitter. Fewer than 2
// splits falls back to 5.
func NewStratifiedKFold(nSplits int, shuffle bool, randomSeed int) *StratifiedKFold {
	if nSplits < 2 {
		nSplits = 5
	}
	return &StratifiedKFold{
		NSplits:    nSplits,
		Shuffle:    shuffle,
		RandomSeed: randomSeed,
	}
}

// GetNSplits returns the number of folds.
func (skf *StratifiedKFold) GetNSplits() int {
	return skf.NSplits
}

// Split generates stratified train/test indices for each fold. Class
// membership is read from column 0 of y.
func (skf *StratifiedKFold) Split(X, y mat.Matrix) ([]Fold, error) {
	nSamples, _ := X.Dims()
	if skf.NSplits > nSamples {
		return nil, errors.NewValidationError("n_splits",
			fmt.Sprintf("cannot be greater than the number of samples (%d)", nSamples), skf.NSplits)
	}

	classIndices, classOrder := groupByClass(y, nSamples)

	// Every fold needs at least one test sample from every class,
	// otherwise a trailing fold ends up with an empty test set.
	for _, label := range classOrder {
		if len(classIndices[label]) < skf.NSplits {
			return nil, errors.NewValidationError("n_splits",
				fmt.Sprintf("cannot be greater than the number of members in each class (class %g has %d)",
					label, len(classIndices[label])), skf.NSplits)
		}
	}

	if skf.Shuffle {
		r := rand.New(rand.NewPCG(uint64(skf.RandomSeed), uint64(skf.RandomSeed)))
		for _, label := range classOrder {
			indices := classIndices[label]
			r.Shuffle(len(indices), func(i, j int) {
				indices[i], indices[j] = indices[j], indices[i]
			})
		}
	}

	folds := make([]Fold, skf.NSplits)
	for i := range folds {
		folds[i] = Fold{
			TrainIndices: make([]int, 0),
			TestIndices:  make([]int, 0),
		}
	}

	// Distribute each class across folds proportionally.
	for _, label := range classOrder {
		indices := classIndices[label]
		nClass := len(indices)
		foldSize := nClass / skf.NSplits
		remainder := nClass % skf.NSplits

		currentIdx := 0
		for i := 0; i < skf.NSplits; i++ {
			testSize := foldSize
			if i < remainder {
				testSize++
			}
			for j := 0; j < testSize && currentIdx < nClass; j++ {
				folds[i].TestIndices = append(folds[i].TestIndices, indices[currentIdx])
				currentIdx++
			}
		}
	}

	// Train sets are the complement of each test set.
	for i := 0; i < skf.NSplits; i++ {
		testSet := make(map[int]bool, len(folds[i].TestIndices))
		for _, idx := range folds[i].TestIndices {
			testSet[idx] = true
		}
		for j := 0; j < nSamples; j++ {
			if !testSet[j] {
				folds[i].TrainIndices = append(folds[i].TrainIndices, j)
			}
		}
	}

	return folds, nil
}

// groupByClass buckets row indices by the label in column 0 of y, returning
// the buckets and a deterministic (sorted) label order.
func groupByClass(y mat.Matrix, nSamples int) (map[float64][]int, []float64) {
	classIndices := make(map[float64][]int)
	for i := 0; i < nSamples; i++ {
		label := y.At(i, 0)
		classIndices[label] = append(classIndices[label], i)
	}

	classOrder := make([]float64, 0, len(classIndices))
	for label := range classIndices {
		classOrder = append(classOrder, label)
	}
	sort.Float64s(classOrder)

	return classIndices, classOrder
}

// SplitOptions configures TrainTestSplit.
type SplitOptions struct {
	// TestSize is the fraction of samples in the test set, in (0, 1).
	TestSize float64

	// Shuffle controls whether samples are shuffled before splitting.
	Shuffle bool

	// Seed seeds the shuffle.
	Seed int

	// Stratify splits each class of y proportionally, preserving class
	// balance in both partitions.
	Stratify bool
}

// DefaultSplitOptions returns the conventional 75/25 shuffled split.
func DefaultSplitOptions() SplitOptions {
	return SplitOptions{
		TestSize: 0.25,
		Shuffle:  true,
		Seed:     42,
	}
}

// TrainTestSplit partitions X and y into train and test subsets.
//
// With Stratify set, every class with at least two members gets at least
// one test sample and class proportions carry over to both partitions;
// single-member classes go to the training set. When every class is a
// singleton nothing can be allocated to the test set and an error is
// returned.
func TrainTestSplit(X, y mat.Matrix, opts SplitOptions) (XTrain, XTest, yTrain, yTest mat.Matrix, err error) {
	nSamples, nFeatures := X.Dims()
	if nSamples == 0 || nFeatures == 0 {
		return nil, nil, nil, nil, errors.NewModelError("TrainTestSplit", "empty data", errors.ErrEmptyData)
	}
	yRows, _ := y.Dims()
	if yRows != nSamples {
		return nil, nil, nil, nil, errors.NewDimensionError("TrainTestSplit", nSamples, yRows, 0)
	}
	if opts.TestSize <= 0 || opts.TestSize >= 1 {
		return nil, nil, nil, nil, errors.NewValidationError("test_size", "must be in (0, 1)", opts.TestSize)
	}

	r := rand.New(rand.NewPCG(uint64(opts.Seed), uint64(opts.Seed)))

	var testIndices []int
	if opts.Stratify {
		testIndices = stratifiedTestIndices(y, nSamples, opts, r)
		if len(testIndices) == 0 {
			// Every class was a singleton, so the allocation rule sent
			// everything to train.
			return nil, nil, nil, nil, errors.NewValidationError("stratify",
				"every class has a single member, no test sample can be allocated", opts.Stratify)
		}
	} else {
		indices := make([]int, nSamples)
		for i := range indices {
			indices[i] = i
		}
		if opts.Shuffle {
			r.Shuffle(nSamples, func(i, j int) {
				indices[i], indices[j] = indices[j], indices[i]
			})
		}
		nTest := int(math.Round(float64(nSamples) * opts.TestSize))
		if nTest < 1 {
			nTest = 1
		}
		if nTest >= nSamples {
			nTest = nSamples - 1
		}
		testIndices = indices[:nTest]
	}

	testSet := make(map[int]bool, len(testIndices))
	for _, idx := range testIndices {
		testSet[idx] = true
	}
	trainIndices := make([]int, 0, nSamples-len(testIndices))
	for i := 0; i < nSamples; i++ {
		if !testSet[i] {
			trainIndices = append(trainIndices, i)
		}
	}

	XTrain, yTrain = ExtractRows(X, y, trainIndices)
	XTest, yTest = ExtractRows(X, y, testIndices)
	return XTrain, XTest, yTrain, yTest, nil
}

// stratifiedTestIndices allocates a proportional test share per class.
func stratifiedTestIndices(y mat.Matrix, nSamples int, opts SplitOptions, r *rand.Rand) []int {
	classIndices, classOrder := groupByClass(y, nSamples)

	var testIndices []int
	for _, label := range classOrder {
		indices := classIndices[label]
		if opts.Shuffle {
			r.Shuffle(len(indices), func(i, j int) {
				indices[i], indices[j] = indices[j], indices[i]
			})
		}

		nClass := len(indices)
		if nClass < 2 {
			// A singleton class cannot appear on both sides; keep it
			// for training.
			continue
		}

		nTest := int(math.Round(float64(nClass) * opts.TestSize))
		if nTest < 1 {
			nTest = 1
		}
		if nTest >= nClass {
			nTest = nClass - 1
		}
		testIndices = append(testIndices, indices[:nTest]...)
	}

	return testIndices
}

// ExtractRows builds new matrices from the selected rows of X and y.
func ExtractRows(X, y mat.Matrix, indices []int) (mat.Matrix, mat.Matrix) {
	_, xCols := X.Dims()
	_, yCols := y.Dims()

	subX := mat.NewDense(len(indices), xCols, nil)
	subY := mat.NewDense(len(indices), yCols, nil)
	for i, idx := range indices {
		for j := 0; j < xCols; j++ {
			subX.Set(i, j, X.At(idx, j))
		}
		for j := 0; j < yCols; j++ {
			subY.Set(i, j, y.At(idx, j))
		}
	}
	return subX, subY
}
