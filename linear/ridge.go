// Package linear provides linear models. Ridge is the reference estimator
// used by grid search: its single Alpha hyperparameter makes it the
// simplest thing worth tuning.
package linear

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/takara-ml/prepro/core/model"
	"github.com/takara-ml/prepro/core/parallel"
	"github.com/takara-ml/prepro/metrics"
	"github.com/takara-ml/prepro/pkg/errors"
)

// parallelThreshold is the row count above which design-matrix assembly
// runs in parallel.
const parallelThreshold = 1000

// Ridge is linear regression with L2 regularization, solved in closed form
// by the normal equations:
//
//	w = (X^T X + alpha*I)^(-1) X^T y
//
// The intercept is not penalized. Alpha of 0 reduces to ordinary least
// squares.
type Ridge struct {
	model.BaseEstimator

	// Alpha is the L2 penalty strength. Must be non-negative.
	Alpha float64

	// Weights holds the fitted coefficients, one per feature.
	Weights *mat.VecDense

	// Intercept is the fitted bias term.
	Intercept float64

	// NFeatures is the number of features seen during fitting.
	NFeatures int
}

// NewRidge creates a Ridge model with the given penalty strength.
func NewRidge(alpha float64) *Ridge {
	return &Ridge{Alpha: alpha}
}

// Fit learns the coefficients from X and the column vector y.
func (rm *Ridge) Fit(X, y mat.Matrix) error {
	if rm.Alpha < 0 {
		return errors.NewValidationError("alpha", "must be non-negative", rm.Alpha)
	}

	r, c := X.Dims()
	ry, cy := y.Dims()

	if r == 0 || c == 0 {
		return errors.NewModelError("Ridge.Fit", "empty data", errors.ErrEmptyData)
	}
	if ry != r {
		return errors.NewDimensionError("Ridge.Fit", r, ry, 0)
	}
	if cy != 1 {
		return errors.NewValueError("Ridge.Fit", "y must be a column vector")
	}

	rm.NFeatures = c

	// Prepend a ones column for the intercept term.
	XWithIntercept := mat.NewDense(r, c+1, nil)
	parallel.ParallelizeWithThreshold(r, parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			XWithIntercept.Set(i, 0, 1.0)
			for j := 0; j < c; j++ {
				XWithIntercept.Set(i, j+1, X.At(i, j))
			}
		}
	})

	var XT mat.Dense
	XT.CloneFrom(XWithIntercept.T())

	var XTX mat.Dense
	XTX.Mul(&XT, XWithIntercept)

	// Add the L2 penalty to the diagonal, skipping the intercept row.
	for j := 1; j <= c; j++ {
		XTX.Set(j, j, XTX.At(j, j)+rm.Alpha)
	}

	var XTXInv mat.Dense
	if err := XTXInv.Inverse(&XTX); err != nil {
		return errors.NewModelError("Ridge.Fit", "singular matrix", errors.ErrSingularMatrix)
	}

	yVec := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		yVec.SetVec(i, y.At(i, 0))
	}

	var XTy mat.VecDense
	XTy.MulVec(&XT, yVec)

	weights := mat.NewVecDense(c+1, nil)
	weights.MulVec(&XTXInv, &XTy)

	rm.Intercept = weights.AtVec(0)
	rm.Weights = mat.NewVecDense(c, nil)
	for i := 0; i < c; i++ {
		rm.Weights.SetVec(i, weights.AtVec(i+1))
	}

	rm.SetFitted()
	return nil
}

// Predict returns predictions for the rows of X as an n×1 matrix.
func (rm *Ridge) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !rm.IsFitted() {
		return nil, errors.NewNotFittedError("Ridge", "Predict")
	}

	r, c := X.Dims()
	if c != rm.NFeatures {
		return nil, errors.NewDimensionError("Ridge.Predict", rm.NFeatures, c, 1)
	}

	result := mat.NewDense(r, 1, nil)
	parallel.ParallelizeWithThreshold(r, parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			pred := rm.Intercept
			for j := 0; j < c; j++ {
				pred += X.At(i, j) * rm.Weights.AtVec(j)
			}
			result.Set(i, 0, pred)
		}
	})

	return result, nil
}

// Score returns the coefficient of determination R² on X and y.
func (rm *Ridge) Score(X, y mat.Matrix) (float64, error) {
	pred, err := rm.Predict(X)
	if err != nil {
		return 0, err
	}

	yVec, err := metrics.ColumnVector(y)
	if err != nil {
		return 0, err
	}
	predVec, err := metrics.ColumnVector(pred)
	if err != nil {
		return 0, err
	}

	return metrics.R2(yVec, predVec)
}

// GetParams returns the model's configuration parameters.
func (rm *Ridge) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"alpha": rm.Alpha,
	}
}

// String returns a readable description of the model.
func (rm *Ridge) String() string {
	if !rm.IsFitted() {
		return fmt.Sprintf("Ridge(alpha=%g)", rm.Alpha)
	}
	return fmt.Sprintf("Ridge(alpha=%g, n_features=%d)", rm.Alpha, rm.NFeatures)
}
