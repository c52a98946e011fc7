// Package preprocessing provides fit/transform feature preprocessing:
// scalers for numeric ranges, encoders for categorical data, imputers for
// missing values, and datetime/cyclical feature extraction.
//
// All transformers embed model.BaseEstimator and follow the same contract:
// Fit learns statistics from training data, Transform applies them to new
// data with the same number of columns, and Transform before Fit returns a
// NotFittedError. Missing numeric values are NaN.
package preprocessing

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/takara-ml/prepro/core/model"
	"github.com/takara-ml/prepro/pkg/errors"
)

// minScale is the spread below which a feature is treated as constant and
// its scale clamped to 1 to avoid division by zero.
const minScale = 1e-8

// StandardScaler standardizes features to zero mean and unit variance.
type StandardScaler struct {
	model.BaseEstimator

	// Mean is the per-feature mean learned during fitting.
	Mean []float64

	// Scale is the per-feature standard deviation learned during fitting.
	Scale []float64

	// NFeatures is the number of features seen during fitting.
	NFeatures int

	// WithMean controls whether the mean is subtracted (default: true).
	WithMean bool

	// WithStd controls whether values are divided by the standard
	// deviation (default: true).
	WithStd bool
}

// NewStandardScaler creates a StandardScaler.
//
// Example:
//
//	scaler := preprocessing.NewStandardScaler(true, true)
//	err := scaler.Fit(X)
//	XScaled, err := scaler.Transform(X)
func NewStandardScaler(withMean, withStd bool) *StandardScaler {
	return &StandardScaler{
		WithMean: withMean,
		WithStd:  withStd,
	}
}

// NewStandardScalerDefault creates a StandardScaler with both centering and
// scaling enabled.
func NewStandardScalerDefault() *StandardScaler {
	return NewStandardScaler(true, true)
}

// Fit computes the per-feature mean and standard deviation of X.
func (s *StandardScaler) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("StandardScaler.Fit", "empty data", errors.ErrEmptyData)
	}

	s.NFeatures = c
	s.Mean = make([]float64, c)
	s.Scale = make([]float64, c)

	for j := 0; j < c; j++ {
		sum := 0.0
		for i := 0; i < r; i++ {
			sum += X.At(i, j)
		}
		// The scale is the deviation about the mean even when centering
		// is disabled; only the subtraction at transform time is skipped.
		mean := sum / float64(r)
		if s.WithMean {
			s.Mean[j] = mean
		}

		if !s.WithStd {
			s.Scale[j] = 1.0
			continue
		}

		sumSquares := 0.0
		for i := 0; i < r; i++ {
			diff := X.At(i, j) - mean
			sumSquares += diff * diff
		}
		variance := sumSquares / float64(r)
		s.Scale[j] = math.Sqrt(variance)

		if math.Abs(s.Scale[j]) < minScale {
			errors.Warn(errors.NewConstantFeatureWarning("StandardScaler", j, X.At(0, j)))
			s.Scale[j] = 1.0
		}
	}

	s.SetFitted()
	return nil
}

// Transform standardizes X using the fitted statistics.
func (s *StandardScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !s.IsFitted() {
		return nil, errors.NewNotFittedError("StandardScaler", "Transform")
	}

	r, c := X.Dims()
	if c != s.NFeatures {
		return nil, errors.NewDimensionError("StandardScaler.Transform", s.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			result.Set(i, j, (X.At(i, j)-s.Mean[j])/s.Scale[j])
		}
	}

	return result, nil
}

// FitTransform fits on X and transforms it in one call.
func (s *StandardScaler) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// InverseTransform maps standardized data back to the original scale.
func (s *StandardScaler) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	if !s.IsFitted() {
		return nil, errors.NewNotFittedError("StandardScaler", "InverseTransform")
	}

	r, c := X.Dims()
	if c != s.NFeatures {
		return nil, errors.NewDimensionError("StandardScaler.InverseTransform", s.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			result.Set(i, j, X.At(i, j)*s.Scale[j]+s.Mean[j])
		}
	}

	return result, nil
}

// GetParams returns the scaler's configuration parameters.
func (s *StandardScaler) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"with_mean": s.WithMean,
		"with_std":  s.WithStd,
	}
}

// String returns a readable description of the scaler.
func (s *StandardScaler) String() string {
	if !s.IsFitted() {
		return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t)", s.WithMean, s.WithStd)
	}
	return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t, n_features=%d)",
		s.WithMean, s.WithStd, s.NFeatures)
}

// MinMaxScaler rescales features to a fixed range, [0, 1] by default.
type MinMaxScaler struct {
	model.BaseEstimator

	// DataMin is the per-feature minimum of the training data.
	DataMin []float64

	// DataMax is the per-feature maximum of the training data.
	DataMax []float64

	// Scale is the per-feature data range (max - min), clamped for
	// constant features.
	Scale []float64

	// NFeatures is the number of features seen during fitting.
	NFeatures int

	// FeatureRange is the target range [min, max] after scaling.
	FeatureRange [2]float64
}

// NewMinMaxScaler creates a MinMaxScaler with the given target range.
func NewMinMaxScaler(featureRange [2]float64) *MinMaxScaler {
	return &MinMaxScaler{
		FeatureRange: featureRange,
	}
}

// NewMinMaxScalerDefault creates a MinMaxScaler targeting [0, 1].
func NewMinMaxScalerDefault() *MinMaxScaler {
	return NewMinMaxScaler([2]float64{0.0, 1.0})
}

// Fit computes the per-feature minimum and maximum of X.
func (m *MinMaxScaler) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("MinMaxScaler.Fit", "empty data", errors.ErrEmptyData)
	}
	if m.FeatureRange[1] <= m.FeatureRange[0] {
		return errors.NewValidationError("feature_range", "max must be greater than min", m.FeatureRange)
	}

	m.NFeatures = c
	m.DataMin = make([]float64, c)
	m.DataMax = make([]float64, c)
	m.Scale = make([]float64, c)

	for j := 0; j < c; j++ {
		min := X.At(0, j)
		max := X.At(0, j)

		for i := 1; i < r; i++ {
			val := X.At(i, j)
			if val < min {
				min = val
			}
			if val > max {
				max = val
			}
		}

		m.DataMin[j] = min
		m.DataMax[j] = max

		dataRange := max - min
		if math.Abs(dataRange) < minScale {
			errors.Warn(errors.NewConstantFeatureWarning("MinMaxScaler", j, min))
			m.Scale[j] = 1.0
		} else {
			m.Scale[j] = dataRange
		}
	}

	m.SetFitted()
	return nil
}

// Transform rescales X into the target range using the fitted statistics.
func (m *MinMaxScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !m.IsFitted() {
		return nil, errors.NewNotFittedError("MinMaxScaler", "Transform")
	}

	r, c := X.Dims()
	if c != m.NFeatures {
		return nil, errors.NewDimensionError("MinMaxScaler.Transform", m.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	featureRange := m.FeatureRange[1] - m.FeatureRange[0]
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			// X_scaled = (X - data_min) / (data_max - data_min) * range + range_min
			scaled := (X.At(i, j)-m.DataMin[j])/m.Scale[j]*featureRange + m.FeatureRange[0]
			result.Set(i, j, scaled)
		}
	}

	return result, nil
}

// FitTransform fits on X and transforms it in one call.
func (m *MinMaxScaler) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := m.Fit(X); err != nil {
		return nil, err
	}
	return m.Transform(X)
}

// InverseTransform maps scaled data back to the original range.
func (m *MinMaxScaler) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	if !m.IsFitted() {
		return nil, errors.NewNotFittedError("MinMaxScaler", "InverseTransform")
	}

	r, c := X.Dims()
	if c != m.NFeatures {
		return nil, errors.NewDimensionError("MinMaxScaler.InverseTransform", m.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	featureRange := m.FeatureRange[1] - m.FeatureRange[0]
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			original := (X.At(i, j)-m.FeatureRange[0])/featureRange*m.Scale[j] + m.DataMin[j]
			result.Set(i, j, original)
		}
	}

	return result, nil
}

// GetParams returns the scaler's configuration parameters.
func (m *MinMaxScaler) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"feature_range": m.FeatureRange,
	}
}

// String returns a readable description of the scaler.
func (m *MinMaxScaler) String() string {
	if !m.IsFitted() {
		return fmt.Sprintf("MinMaxScaler(feature_range=[%.1f, %.1f])",
			m.FeatureRange[0], m.FeatureRange[1])
	}
	return fmt.Sprintf("MinMaxScaler(feature_range=[%.1f, %.1f], n_features=%d)",
		m.FeatureRange[0], m.FeatureRange[1], m.NFeatures)
}

// RobustScaler scales features using statistics that are robust to
// outliers: the median and the interquartile range (Q3 - Q1).
type RobustScaler struct {
	model.BaseEstimator

	// Center is the per-feature median learned during fitting.
	Center []float64

	// Scale is the per-feature interquartile range learned during fitting.
	Scale []float64

	// NFeatures is the number of features seen during fitting.
	NFeatures int

	// WithCentering controls whether the median is subtracted
	// (default: true).
	WithCentering bool

	// WithScaling controls whether values are divided by the IQR
	// (default: true).
	WithScaling bool
}

// NewRobustScaler creates a RobustScaler.
func NewRobustScaler(withCentering, withScaling bool) *RobustScaler {
	return &RobustScaler{
		WithCentering: withCentering,
		WithScaling:   withScaling,
	}
}

// NewRobustScalerDefault creates a RobustScaler with both centering and
// scaling enabled.
func NewRobustScalerDefault() *RobustScaler {
	return NewRobustScaler(true, true)
}

// Fit computes the per-feature median and interquartile range of X.
func (rs *RobustScaler) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("RobustScaler.Fit", "empty data", errors.ErrEmptyData)
	}

	rs.NFeatures = c
	rs.Center = make([]float64, c)
	rs.Scale = make([]float64, c)

	column := make([]float64, r)
	for j := 0; j < c; j++ {
		for i := 0; i < r; i++ {
			column[i] = X.At(i, j)
		}
		sort.Float64s(column)

		if rs.WithCentering {
			rs.Center[j] = quantileSorted(column, 0.5)
		}

		if rs.WithScaling {
			iqr := quantileSorted(column, 0.75) - quantileSorted(column, 0.25)
			if math.Abs(iqr) < minScale {
				errors.Warn(errors.NewConstantFeatureWarning("RobustScaler", j, column[0]))
				iqr = 1.0
			}
			rs.Scale[j] = iqr
		} else {
			rs.Scale[j] = 1.0
		}
	}

	rs.SetFitted()
	return nil
}

// quantileSorted returns the q-quantile of an ascending slice using linear
// interpolation between adjacent order statistics.
func quantileSorted(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	pos := q * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// Transform scales X using the fitted median and IQR.
func (rs *RobustScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !rs.IsFitted() {
		return nil, errors.NewNotFittedError("RobustScaler", "Transform")
	}

	r, c := X.Dims()
	if c != rs.NFeatures {
		return nil, errors.NewDimensionError("RobustScaler.Transform", rs.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			result.Set(i, j, (X.At(i, j)-rs.Center[j])/rs.Scale[j])
		}
	}

	return result, nil
}

// FitTransform fits on X and transforms it in one call.
func (rs *RobustScaler) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := rs.Fit(X); err != nil {
		return nil, err
	}
	return rs.Transform(X)
}

// InverseTransform maps robust-scaled data back to the original scale.
func (rs *RobustScaler) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	if !rs.IsFitted() {
		return nil, errors.NewNotFittedError("RobustScaler", "InverseTransform")
	}

	r, c := X.Dims()
	if c != rs.NFeatures {
		return nil, errors.NewDimensionError("RobustScaler.InverseTransform", rs.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			result.Set(i, j, X.At(i, j)*rs.Scale[j]+rs.Center[j])
		}
	}

	return result, nil
}

// GetParams returns the scaler's configuration parameters.
func (rs *RobustScaler) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"with_centering": rs.WithCentering,
		"with_scaling":   rs.WithScaling,
	}
}

// String returns a readable description of the scaler.
func (rs *RobustScaler) String() string {
	if !rs.IsFitted() {
		return fmt.Sprintf("RobustScaler(with_centering=%t, with_scaling=%t)", rs.WithCentering, rs.WithScaling)
	}
	return fmt.Sprintf("RobustScaler(with_centering=%t, with_scaling=%t, n_features=%d)",
		rs.WithCentering, rs.WithScaling, rs.NFeatures)
}
