package preprocessing

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/takara-ml/prepro/core/model"
	"github.com/takara-ml/prepro/core/parallel"
	"github.com/takara-ml/prepro/pkg/errors"
)

// Imputation strategies for SimpleImputer.
const (
	// StrategyMean fills missing cells with the column mean.
	StrategyMean = "mean"
	// StrategyMedian fills missing cells with the column median.
	StrategyMedian = "median"
	// StrategyMostFrequent fills missing cells with the column mode;
	// ties break toward the smaller value.
	StrategyMostFrequent = "most_frequent"
	// StrategyConstant fills missing cells with FillValue.
	StrategyConstant = "constant"
)

// SimpleImputer fills missing (NaN) cells with a per-column statistic
// learned during fitting.
type SimpleImputer struct {
	model.BaseEstimator

	// Strategy selects the fill statistic.
	Strategy string

	// FillValue is the constant used by StrategyConstant.
	FillValue float64

	// Statistics holds the learned per-column fill values.
	Statistics []float64

	// NFeatures is the number of features seen during fitting.
	NFeatures int
}

// NewSimpleImputer creates a SimpleImputer with the given strategy.
func NewSimpleImputer(strategy string) *SimpleImputer {
	return &SimpleImputer{Strategy: strategy}
}

// NewConstantImputer creates a SimpleImputer filling with a constant.
func NewConstantImputer(fillValue float64) *SimpleImputer {
	return &SimpleImputer{Strategy: StrategyConstant, FillValue: fillValue}
}

// Fit computes the per-column fill statistic over the observed (non-NaN)
// values of X. A column with no observed values falls back to 0 (or
// FillValue for the constant strategy) and emits an AllMissingWarning.
func (si *SimpleImputer) Fit(X mat.Matrix) error {
	switch si.Strategy {
	case StrategyMean, StrategyMedian, StrategyMostFrequent, StrategyConstant:
	default:
		return errors.NewValidationError("strategy",
			`must be one of "mean", "median", "most_frequent", "constant"`, si.Strategy)
	}

	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("SimpleImputer.Fit", "empty data", errors.ErrEmptyData)
	}

	si.NFeatures = c
	si.Statistics = make([]float64, c)

	for j := 0; j < c; j++ {
		if si.Strategy == StrategyConstant {
			si.Statistics[j] = si.FillValue
			continue
		}

		observed := make([]float64, 0, r)
		for i := 0; i < r; i++ {
			if v := X.At(i, j); !math.IsNaN(v) {
				observed = append(observed, v)
			}
		}

		if len(observed) == 0 {
			errors.Warn(errors.NewAllMissingWarning("SimpleImputer", j, 0))
			si.Statistics[j] = 0
			continue
		}

		switch si.Strategy {
		case StrategyMean:
			sum := 0.0
			for _, v := range observed {
				sum += v
			}
			si.Statistics[j] = sum / float64(len(observed))
		case StrategyMedian:
			sort.Float64s(observed)
			si.Statistics[j] = quantileSorted(observed, 0.5)
		case StrategyMostFrequent:
			sort.Float64s(observed)
			si.Statistics[j] = modeSorted(observed)
		}
	}

	si.SetFitted()
	return nil
}

// modeSorted returns the most frequent value of an ascending slice. Ties
// break toward the smaller value because the scan runs in order.
func modeSorted(sorted []float64) float64 {
	mode := sorted[0]
	bestCount := 0
	i := 0
	for i < len(sorted) {
		j := i
		for j < len(sorted) && sorted[j] == sorted[i] {
			j++
		}
		if j-i > bestCount {
			bestCount = j - i
			mode = sorted[i]
		}
		i = j
	}
	return mode
}

// Transform replaces NaN cells of X with the fitted statistics. Observed
// values pass through unchanged.
func (si *SimpleImputer) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !si.IsFitted() {
		return nil, errors.NewNotFittedError("SimpleImputer", "Transform")
	}

	r, c := X.Dims()
	if c != si.NFeatures {
		return nil, errors.NewDimensionError("SimpleImputer.Transform", si.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := X.At(i, j)
			if math.IsNaN(v) {
				v = si.Statistics[j]
			}
			result.Set(i, j, v)
		}
	}

	return result, nil
}

// FitTransform fits on X and imputes it in one call.
func (si *SimpleImputer) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := si.Fit(X); err != nil {
		return nil, err
	}
	return si.Transform(X)
}

// String returns a readable description of the imputer.
func (si *SimpleImputer) String() string {
	if si.Strategy == StrategyConstant {
		return fmt.Sprintf("SimpleImputer(strategy=%q, fill_value=%g)", si.Strategy, si.FillValue)
	}
	return fmt.Sprintf("SimpleImputer(strategy=%q)", si.Strategy)
}

// knnParallelThreshold is the row count above which the KNN imputer's
// distance pass runs in parallel.
const knnParallelThreshold = 256

// KNNImputer fills missing cells with the mean of the k nearest rows that
// have the cell observed. Distance between rows is NaN-aware euclidean:
// only coordinates observed in both rows contribute, scaled up by the
// ratio of total to shared coordinates, matching scikit-learn's
// nan_euclidean convention.
type KNNImputer struct {
	model.BaseEstimator

	// K is the number of donor neighbors (default 5).
	K int

	// NFeatures is the number of features seen during fitting.
	NFeatures int

	// fitData is the training matrix donors are drawn from.
	fitData *mat.Dense

	// columnMeans is the fallback fill when a cell has no donors at all.
	columnMeans []float64
}

// NewKNNImputer creates a KNNImputer with the given neighbor count.
func NewKNNImputer(k int) *KNNImputer {
	if k < 1 {
		k = 5
	}
	return &KNNImputer{K: k}
}

// Fit stores X as the donor pool and computes column means as the fallback
// fill for cells with no eligible donors.
func (ki *KNNImputer) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("KNNImputer.Fit", "empty data", errors.ErrEmptyData)
	}

	ki.NFeatures = c
	ki.fitData = mat.DenseCopyOf(X)
	ki.columnMeans = make([]float64, c)

	for j := 0; j < c; j++ {
		sum := 0.0
		count := 0
		for i := 0; i < r; i++ {
			if v := X.At(i, j); !math.IsNaN(v) {
				sum += v
				count++
			}
		}
		if count == 0 {
			errors.Warn(errors.NewAllMissingWarning("KNNImputer", j, 0))
			continue
		}
		ki.columnMeans[j] = sum / float64(count)
	}

	ki.SetFitted()
	return nil
}

// nanEuclidean returns the NaN-aware euclidean distance between row i of a
// and row k of b, or NaN when the rows share no observed coordinates.
func nanEuclidean(a mat.Matrix, i int, b mat.Matrix, k, cols int) float64 {
	sum := 0.0
	shared := 0
	for j := 0; j < cols; j++ {
		x := a.At(i, j)
		y := b.At(k, j)
		if math.IsNaN(x) || math.IsNaN(y) {
			continue
		}
		d := x - y
		sum += d * d
		shared++
	}
	if shared == 0 {
		return math.NaN()
	}
	return math.Sqrt(sum * float64(cols) / float64(shared))
}

// donor pairs a candidate row with its distance to the query row.
type donor struct {
	dist  float64
	value float64
}

// Transform fills each missing cell of X from the k nearest fitted rows
// that have the cell observed. Rows are processed in parallel for large
// inputs.
func (ki *KNNImputer) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !ki.IsFitted() {
		return nil, errors.NewNotFittedError("KNNImputer", "Transform")
	}

	r, c := X.Dims()
	if c != ki.NFeatures {
		return nil, errors.NewDimensionError("KNNImputer.Transform", ki.NFeatures, c, 1)
	}

	result := mat.DenseCopyOf(X)
	fitRows, _ := ki.fitData.Dims()

	parallel.ParallelizeWithThreshold(r, knnParallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			for j := 0; j < c; j++ {
				if !math.IsNaN(X.At(i, j)) {
					continue
				}

				donors := make([]donor, 0, fitRows)
				for k := 0; k < fitRows; k++ {
					value := ki.fitData.At(k, j)
					if math.IsNaN(value) {
						continue
					}
					dist := nanEuclidean(X, i, ki.fitData, k, c)
					if math.IsNaN(dist) {
						continue
					}
					donors = append(donors, donor{dist: dist, value: value})
				}

				if len(donors) == 0 {
					result.Set(i, j, ki.columnMeans[j])
					continue
				}

				sort.Slice(donors, func(a, b int) bool { return donors[a].dist < donors[b].dist })
				k := ki.K
				if k > len(donors) {
					k = len(donors)
				}
				sum := 0.0
				for _, d := range donors[:k] {
					sum += d.value
				}
				result.Set(i, j, sum/float64(k))
			}
		}
	})

	return result, nil
}

// FitTransform fits on X and imputes it in one call.
func (ki *KNNImputer) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := ki.Fit(X); err != nil {
		return nil, err
	}
	return ki.Transform(X)
}

// String returns a readable description of the imputer.
func (ki *KNNImputer) String() string {
	if !ki.IsFitted() {
		return fmt.Sprintf("KNNImputer(k=%d)", ki.K)
	}
	return fmt.Sprintf("KNNImputer(k=%d, n_features=%d)", ki.K, ki.NFeatures)
}
