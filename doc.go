// Package prepro provides scikit-learn-style data preprocessing and model
// selection for Go, designed for feature pipelines that run inside backend
// services rather than notebooks.
//
// Every transformer follows the familiar fit/transform contract: Fit learns
// statistics from training data, Transform applies them to new data, and
// calling Transform before Fit returns a NotFittedError instead of silently
// producing garbage.
//
// # Quick Start
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/takara-ml/prepro/preprocessing"
//	    "gonum.org/v1/gonum/mat"
//	)
//
//	func main() {
//	    X := mat.NewDense(4, 2, []float64{
//	        1, 10,
//	        2, 20,
//	        3, 30,
//	        4, 40,
//	    })
//
//	    scaler := preprocessing.NewStandardScaler(true, true)
//	    XScaled, err := scaler.FitTransform(X)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(mat.Formatted(XScaled))
//	}
//
// # Packages
//
//   - preprocessing: scalers, categorical encoders, imputers, datetime and
//     cyclical feature extraction
//   - modelselection: train/test splitting, k-fold cross-validation, grid
//     search
//   - linear: ridge regression, the reference estimator for grid search
//   - metrics: regression and classification metrics
//   - dataset: column-typed tables and CSV ingestion
//   - core/model: estimator interfaces and persistence
//   - core/parallel: parallel processing utilities
//
// Matrices are gonum mat.Matrix values throughout; missing numeric values
// are represented as NaN.
package prepro
