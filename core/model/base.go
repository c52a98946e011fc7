package model

// EstimatorState represents the training state of an estimator.
type EstimatorState int

const (
	// NotFitted means the estimator has not been fitted yet.
	NotFitted EstimatorState = iota
	// Fitted means the estimator has learned its parameters.
	Fitted
)

// BaseEstimator is the embedded base for every estimator and transformer.
// It tracks whether Fit has been called so that Transform, Predict and
// InverseTransform can refuse to run on unlearned state.
type BaseEstimator struct {
	state EstimatorState
}

// IsFitted reports whether the estimator has been fitted.
func (e *BaseEstimator) IsFitted() bool {
	return e.state == Fitted
}

// SetFitted marks the estimator as fitted.
func (e *BaseEstimator) SetFitted() {
	e.state = Fitted
}

// Reset returns the estimator to its unfitted state.
func (e *BaseEstimator) Reset() {
	e.state = NotFitted
}

// GobEncode serializes the fitted flag so persisted estimators come back
// ready to use. Gob cannot reflect over the unexported state field.
func (e *BaseEstimator) GobEncode() ([]byte, error) {
	return []byte{byte(e.state)}, nil
}

// GobDecode restores the fitted flag.
func (e *BaseEstimator) GobDecode(data []byte) error {
	if len(data) > 0 {
		e.state = EstimatorState(data[0])
	}
	return nil
}
