package preprocessing

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/takara-ml/prepro/core/model"
	"github.com/takara-ml/prepro/pkg/errors"
)

// FrequencyEncoder encodes each category as its relative frequency in the
// training data. Unseen categories transform to 0 with a warning, since a
// frequency of zero is the honest estimate for a never-observed value.
type FrequencyEncoder struct {
	model.BaseEstimator

	// Frequencies maps category to relative frequency, per column.
	Frequencies []map[string]float64

	// NFeatures is the number of input columns seen during fitting.
	NFeatures int
}

// NewFrequencyEncoder creates a FrequencyEncoder.
func NewFrequencyEncoder() *FrequencyEncoder {
	return &FrequencyEncoder{}
}

// Fit learns per-column category frequencies from X.
func (fe *FrequencyEncoder) Fit(X [][]string) error {
	rows, cols, err := validateCategorical("FrequencyEncoder.Fit", X)
	if err != nil {
		return err
	}

	fe.NFeatures = cols
	fe.Frequencies = make([]map[string]float64, cols)

	for j := 0; j < cols; j++ {
		counts := make(map[string]float64)
		for i := 0; i < rows; i++ {
			counts[X[i][j]]++
		}
		for category := range counts {
			counts[category] /= float64(rows)
		}
		fe.Frequencies[j] = counts
	}

	fe.SetFitted()
	return nil
}

// Transform encodes X as a matrix of category frequencies.
func (fe *FrequencyEncoder) Transform(X [][]string) (mat.Matrix, error) {
	if !fe.IsFitted() {
		return nil, errors.NewNotFittedError("FrequencyEncoder", "Transform")
	}

	rows, cols, err := validateCategorical("FrequencyEncoder.Transform", X)
	if err != nil {
		return nil, err
	}
	if cols != fe.NFeatures {
		return nil, errors.NewDimensionError("FrequencyEncoder.Transform", fe.NFeatures, cols, 1)
	}

	result := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			freq, ok := fe.Frequencies[j][X[i][j]]
			if !ok {
				errors.Warn(errors.NewUnknownCategoryWarning("FrequencyEncoder", j, X[i][j]))
			}
			result.Set(i, j, freq)
		}
	}

	return result, nil
}

// FitTransform fits on X and encodes it in one call.
func (fe *FrequencyEncoder) FitTransform(X [][]string) (mat.Matrix, error) {
	if err := fe.Fit(X); err != nil {
		return nil, err
	}
	return fe.Transform(X)
}

// String returns a readable description of the encoder.
func (fe *FrequencyEncoder) String() string {
	if !fe.IsFitted() {
		return "FrequencyEncoder()"
	}
	return fmt.Sprintf("FrequencyEncoder(n_features=%d)", fe.NFeatures)
}

// TargetEncoder replaces each category with a smoothed mean of a numeric
// target. The encoding for a category with count n and mean m blends toward
// the global target mean g:
//
//	encoded = (n*m + smoothing*g) / (n + smoothing)
//
// Smoothing keeps rare categories from memorizing their few target values.
// Unseen categories transform to the global mean.
type TargetEncoder struct {
	model.BaseEstimator

	// Encodings maps category to smoothed target mean, per column.
	Encodings []map[string]float64

	// GlobalMean is the overall target mean from fitting.
	GlobalMean float64

	// Smoothing is the blend weight toward the global mean (default 1.0).
	Smoothing float64

	// NFeatures is the number of input columns seen during fitting.
	NFeatures int
}

// NewTargetEncoder creates a TargetEncoder with the given smoothing weight.
func NewTargetEncoder(smoothing float64) *TargetEncoder {
	return &TargetEncoder{Smoothing: smoothing}
}

// NewTargetEncoderDefault creates a TargetEncoder with smoothing 1.0.
func NewTargetEncoderDefault() *TargetEncoder {
	return NewTargetEncoder(1.0)
}

// Fit learns per-column smoothed target means from X and the target y.
// y must have one value per row of X.
func (te *TargetEncoder) Fit(X [][]string, y *mat.VecDense) error {
	if te.Smoothing < 0 {
		return errors.NewValidationError("smoothing", "must be non-negative", te.Smoothing)
	}

	rows, cols, err := validateCategorical("TargetEncoder.Fit", X)
	if err != nil {
		return err
	}
	if y == nil || y.Len() != rows {
		got := 0
		if y != nil {
			got = y.Len()
		}
		return errors.NewDimensionError("TargetEncoder.Fit", rows, got, 0)
	}

	sum := 0.0
	for i := 0; i < rows; i++ {
		sum += y.AtVec(i)
	}
	te.GlobalMean = sum / float64(rows)

	te.NFeatures = cols
	te.Encodings = make([]map[string]float64, cols)

	for j := 0; j < cols; j++ {
		sums := make(map[string]float64)
		counts := make(map[string]float64)
		for i := 0; i < rows; i++ {
			sums[X[i][j]] += y.AtVec(i)
			counts[X[i][j]]++
		}

		encoding := make(map[string]float64, len(sums))
		for category, catSum := range sums {
			n := counts[category]
			encoding[category] = (catSum + te.Smoothing*te.GlobalMean) / (n + te.Smoothing)
		}
		te.Encodings[j] = encoding
	}

	te.SetFitted()
	return nil
}

// Transform encodes X using the fitted smoothed target means.
func (te *TargetEncoder) Transform(X [][]string) (mat.Matrix, error) {
	if !te.IsFitted() {
		return nil, errors.NewNotFittedError("TargetEncoder", "Transform")
	}

	rows, cols, err := validateCategorical("TargetEncoder.Transform", X)
	if err != nil {
		return nil, err
	}
	if cols != te.NFeatures {
		return nil, errors.NewDimensionError("TargetEncoder.Transform", te.NFeatures, cols, 1)
	}

	result := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			encoded, ok := te.Encodings[j][X[i][j]]
			if !ok {
				errors.Warn(errors.NewUnknownCategoryWarning("TargetEncoder", j, X[i][j]))
				encoded = te.GlobalMean
			}
			result.Set(i, j, encoded)
		}
	}

	return result, nil
}

// FitTransform fits on X and y, then encodes X in one call.
func (te *TargetEncoder) FitTransform(X [][]string, y *mat.VecDense) (mat.Matrix, error) {
	if err := te.Fit(X, y); err != nil {
		return nil, err
	}
	return te.Transform(X)
}

// String returns a readable description of the encoder.
func (te *TargetEncoder) String() string {
	if !te.IsFitted() {
		return fmt.Sprintf("TargetEncoder(smoothing=%g)", te.Smoothing)
	}
	return fmt.Sprintf("TargetEncoder(smoothing=%g, n_features=%d)", te.Smoothing, te.NFeatures)
}
