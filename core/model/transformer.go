package model

import "gonum.org/v1/gonum/mat"

// Transformer is the interface for unsupervised data transformations.
type Transformer interface {
	// Fit learns the parameters needed for the transformation.
	Fit(X mat.Matrix) error

	// Transform applies the learned transformation to X.
	Transform(X mat.Matrix) (mat.Matrix, error)

	// FitTransform fits on X and transforms it in one call.
	FitTransform(X mat.Matrix) (mat.Matrix, error)
}

// InverseTransformer is implemented by transformers whose output can be
// mapped back to the original representation.
type InverseTransformer interface {
	Transformer

	// InverseTransform reverses Transform.
	InverseTransform(X mat.Matrix) (mat.Matrix, error)
}

// SupervisedTransformer is the interface for transformations that need the
// target vector during fitting, such as target encoding.
type SupervisedTransformer interface {
	// Fit learns the transformation from X and the target y.
	Fit(X mat.Matrix, y mat.Matrix) error

	// Transform applies the learned transformation to X.
	Transform(X mat.Matrix) (mat.Matrix, error)
}
