package log

// Transformer and operation context.
// These attributes identify which estimator is doing what.
const (
	// TransformerKey identifies the estimator or transformer type.
	// Examples: "StandardScaler", "OneHotEncoder", "GridSearchCV"
	TransformerKey = "model.name"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "transform", "fit_transform",
	// "inverse_transform", "split", "search"
	OperationKey = "ml.operation"

	// ComponentKey identifies the package performing the operation.
	// Examples: "preprocessing", "modelselection", "linear"
	ComponentKey = "ml.component"
)

// Data shape and characteristics.
const (
	// SamplesKey is the number of samples (rows) being processed.
	SamplesKey = "data.samples"

	// FeaturesKey is the number of features (columns) being processed.
	FeaturesKey = "data.features"

	// MissingKey is the number of missing cells seen by an imputer.
	MissingKey = "data.missing"

	// CategoriesKey is the vocabulary size learned by an encoder.
	CategoriesKey = "data.categories"
)

// Model selection context.
const (
	// FoldKey is the index of the current cross-validation fold.
	FoldKey = "cv.fold"

	// FoldsKey is the total number of cross-validation folds.
	FoldsKey = "cv.folds"

	// CandidateKey is the index of the current grid-search candidate.
	CandidateKey = "search.candidate"

	// ParamsKey holds the parameter assignment of a candidate.
	ParamsKey = "search.params"

	// ScoreKey is the evaluation score of a fold or candidate.
	ScoreKey = "search.score"
)

// Performance metrics.
const (
	// DurationMsKey records the execution time of an operation in
	// milliseconds.
	DurationMsKey = "perf.duration_ms"

	// R2ScoreKey records the R² coefficient of determination.
	R2ScoreKey = "metrics.r2_score"

	// AccuracyKey records classification accuracy in [0, 1].
	AccuracyKey = "metrics.accuracy"
)
