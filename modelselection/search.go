package modelselection

import (
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/takara-ml/prepro/core/model"
	"github.com/takara-ml/prepro/core/parallel"
	"github.com/takara-ml/prepro/pkg/errors"
	"github.com/takara-ml/prepro/pkg/log"
)

// Params is one hyperparameter assignment, name to value.
type Params map[string]interface{}

// ParamGrid maps each hyperparameter name to the values to try. The grid
// expands to the cartesian product of all value lists.
type ParamGrid map[string][]interface{}

// Candidates expands the grid into all parameter assignments. Keys are
// iterated in sorted order so the candidate order is deterministic.
func (g ParamGrid) Candidates() []Params {
	keys := make([]string, 0, len(g))
	for k := range g {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	candidates := []Params{{}}
	for _, key := range keys {
		values := g[key]
		expanded := make([]Params, 0, len(candidates)*len(values))
		for _, base := range candidates {
			for _, value := range values {
				next := make(Params, len(base)+1)
				for k, v := range base {
					next[k] = v
				}
				next[key] = value
				expanded = append(expanded, next)
			}
		}
		candidates = expanded
	}
	return candidates
}

// Constructor builds a fresh estimator for a parameter assignment. Grid
// search calls it once per candidate per fold so that no fitted state
// leaks between evaluations.
type Constructor func(params Params) (model.Regressor, error)

// ScorerFunc evaluates a fitted estimator on held-out data. Higher scores
// are better.
type ScorerFunc func(est model.Regressor, X, y mat.Matrix) (float64, error)

// ScoreDefault scores with the estimator's own Score method (R² for
// regressors).
func ScoreDefault(est model.Regressor, X, y mat.Matrix) (float64, error) {
	return est.Score(X, y)
}

// CrossValScore fits a fresh estimator per fold and returns the held-out
// score of each fold. A nil scorer uses ScoreDefault.
func CrossValScore(construct func() (model.Regressor, error), X, y mat.Matrix, splitter Splitter, scorer ScorerFunc) ([]float64, error) {
	if splitter == nil {
		return nil, errors.NewValidationError("splitter", "must not be nil", nil)
	}
	if scorer == nil {
		scorer = ScoreDefault
	}

	folds, err := splitter.Split(X, y)
	if err != nil {
		return nil, err
	}
	scores := make([]float64, len(folds))

	for i, fold := range folds {
		trainX, trainY := ExtractRows(X, y, fold.TrainIndices)
		testX, testY := ExtractRows(X, y, fold.TestIndices)

		est, err := construct()
		if err != nil {
			return nil, errors.Wrapf(err, "fold %d construction failed", i)
		}
		if err := est.Fit(trainX, trainY); err != nil {
			return nil, errors.Wrapf(err, "fold %d training failed", i)
		}

		score, err := scorer(est, testX, testY)
		if err != nil {
			return nil, errors.Wrapf(err, "fold %d scoring failed", i)
		}
		scores[i] = score
	}

	return scores, nil
}

// CandidateResult records the cross-validation outcome of one parameter
// assignment.
type CandidateResult struct {
	Params     Params
	FoldScores []float64
	MeanScore  float64
	StdScore   float64
}

// GridSearchCV exhaustively evaluates a parameter grid by cross-validation
// and keeps the best assignment. Candidates are evaluated in parallel; the
// same folds are reused for every candidate so scores are comparable.
type GridSearchCV struct {
	model.BaseEstimator

	// Constructor builds an estimator for a candidate assignment.
	Constructor Constructor

	// Grid is the hyperparameter grid to search.
	Grid ParamGrid

	// CV is the fold splitter. Nil defaults to 5-fold shuffled KFold.
	CV Splitter

	// Scorer evaluates held-out performance. Nil uses ScoreDefault.
	Scorer ScorerFunc

	// Refit refits the best candidate on the full data after the search.
	Refit bool

	// Search results, populated by Fit.
	CVResults     []CandidateResult
	BestIndex     int
	BestParams    Params
	BestScore     float64
	BestEstimator model.Regressor
}

// NewGridSearchCV creates a grid search with refitting enabled.
func NewGridSearchCV(constructor Constructor, grid ParamGrid, cv Splitter) *GridSearchCV {
	return &GridSearchCV{
		Constructor: constructor,
		Grid:        grid,
		CV:          cv,
		Refit:       true,
	}
}

// Fit runs the search over X and y.
func (gs *GridSearchCV) Fit(X, y mat.Matrix) error {
	if gs.Constructor == nil {
		return errors.NewValidationError("constructor", "must not be nil", nil)
	}
	if len(gs.Grid) == 0 {
		return errors.NewValidationError("grid", "must not be empty", gs.Grid)
	}
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("GridSearchCV.Fit", "empty data", errors.ErrEmptyData)
	}

	cv := gs.CV
	if cv == nil {
		cv = NewKFold(5, true, 42)
	}
	scorer := gs.Scorer
	if scorer == nil {
		scorer = ScoreDefault
	}

	logger := log.GetLogger().With(
		log.ComponentKey, "modelselection",
		log.TransformerKey, "GridSearchCV",
	)

	started := time.Now()
	candidates := gs.Grid.Candidates()
	if len(candidates) == 0 {
		return errors.NewValidationError("grid", "every parameter needs at least one value", gs.Grid)
	}
	folds, err := cv.Split(X, y)
	if err != nil {
		return err
	}

	logger.Info("starting grid search",
		log.OperationKey, "search",
		log.SamplesKey, r,
		log.FeaturesKey, c,
		log.FoldsKey, len(folds),
		"search.candidates", len(candidates),
	)

	results := make([]CandidateResult, len(candidates))
	evalErrors := make([]error, len(candidates))

	parallel.Parallelize(len(candidates), func(start, end int) {
		for idx := start; idx < end; idx++ {
			result, err := gs.evaluateCandidate(candidates[idx], X, y, folds, scorer)
			if err != nil {
				evalErrors[idx] = errors.Wrapf(err, "candidate %d (%v) failed", idx, candidates[idx])
				continue
			}
			results[idx] = result

			logger.Debug("candidate evaluated",
				log.CandidateKey, idx,
				log.ParamsKey, fmt.Sprintf("%v", candidates[idx]),
				log.ScoreKey, result.MeanScore,
			)
		}
	})

	for _, err := range evalErrors {
		if err != nil {
			return err
		}
	}

	gs.CVResults = results
	gs.BestIndex = 0
	gs.BestScore = results[0].MeanScore
	for i := 1; i < len(results); i++ {
		if results[i].MeanScore > gs.BestScore {
			gs.BestIndex = i
			gs.BestScore = results[i].MeanScore
		}
	}
	gs.BestParams = results[gs.BestIndex].Params

	logger.Info("grid search complete",
		log.CandidateKey, gs.BestIndex,
		log.ParamsKey, fmt.Sprintf("%v", gs.BestParams),
		log.ScoreKey, gs.BestScore,
		log.DurationMsKey, time.Since(started).Milliseconds(),
	)

	if gs.Refit {
		best, err := gs.Constructor(gs.BestParams)
		if err != nil {
			return errors.Wrap(err, "refit construction failed")
		}
		if err := best.Fit(X, y); err != nil {
			return errors.Wrap(err, "refit training failed")
		}
		gs.BestEstimator = best
	}

	gs.SetFitted()
	return nil
}

// evaluateCandidate scores one parameter assignment across all folds.
func (gs *GridSearchCV) evaluateCandidate(params Params, X, y mat.Matrix, folds []Fold, scorer ScorerFunc) (CandidateResult, error) {
	result := CandidateResult{
		Params:     params,
		FoldScores: make([]float64, len(folds)),
	}

	for i, fold := range folds {
		trainX, trainY := ExtractRows(X, y, fold.TrainIndices)
		testX, testY := ExtractRows(X, y, fold.TestIndices)

		est, err := gs.Constructor(params)
		if err != nil {
			return CandidateResult{}, err
		}
		if err := est.Fit(trainX, trainY); err != nil {
			return CandidateResult{}, err
		}

		score, err := scorer(est, testX, testY)
		if err != nil {
			return CandidateResult{}, err
		}
		result.FoldScores[i] = score
	}

	result.MeanScore = mean(result.FoldScores)
	result.StdScore = std(result.FoldScores, result.MeanScore)
	return result, nil
}

// Predict delegates to the refitted best estimator.
func (gs *GridSearchCV) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !gs.IsFitted() {
		return nil, errors.NewNotFittedError("GridSearchCV", "Predict")
	}
	if gs.BestEstimator == nil {
		return nil, errors.NewValueError("GridSearchCV.Predict", "search ran with Refit disabled")
	}
	return gs.BestEstimator.Predict(X)
}

// Score delegates to the refitted best estimator.
func (gs *GridSearchCV) Score(X, y mat.Matrix) (float64, error) {
	if !gs.IsFitted() {
		return 0, errors.NewNotFittedError("GridSearchCV", "Score")
	}
	if gs.BestEstimator == nil {
		return 0, errors.NewValueError("GridSearchCV.Score", "search ran with Refit disabled")
	}
	return gs.BestEstimator.Score(X, y)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func std(values []float64, mean float64) float64 {
	if len(values) <= 1 {
		return 0
	}
	sumSq := 0.0
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(len(values)-1))
}
