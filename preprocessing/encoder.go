package preprocessing

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/takara-ml/prepro/core/model"
	"github.com/takara-ml/prepro/pkg/errors"
)

// CategoricalTransformer is the interface shared by encoders that turn
// string categories into numeric features. X is row-major: X[i][j] is the
// value of column j in sample i, and every row must have the same length.
type CategoricalTransformer interface {
	// Fit learns the per-column vocabularies from X.
	Fit(X [][]string) error

	// Transform encodes X using the fitted vocabularies.
	Transform(X [][]string) (mat.Matrix, error)
}

// Unknown-category policies for OneHotEncoder.
const (
	// HandleUnknownError rejects categories not seen during fitting.
	HandleUnknownError = "error"
	// HandleUnknownIgnore encodes unseen categories as an all-zero block
	// and emits an UnknownCategoryWarning.
	HandleUnknownIgnore = "ignore"
)

// validateCategorical checks that X is non-empty and rectangular, returning
// its dimensions.
func validateCategorical(op string, X [][]string) (int, int, error) {
	if len(X) == 0 || len(X[0]) == 0 {
		return 0, 0, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	cols := len(X[0])
	for _, row := range X {
		if len(row) != cols {
			return 0, 0, errors.NewDimensionError(op, cols, len(row), 1)
		}
	}
	return len(X), cols, nil
}

// sortedVocabulary returns the unique values of a column in sorted order
// with their ranks.
func sortedVocabulary(values []string) ([]string, map[string]int) {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		seen[v] = struct{}{}
	}
	vocab := make([]string, 0, len(seen))
	for v := range seen {
		vocab = append(vocab, v)
	}
	sort.Strings(vocab)
	index := make(map[string]int, len(vocab))
	for i, v := range vocab {
		index[v] = i
	}
	return vocab, index
}

// LabelEncoder encodes a 1-D slice of string labels as integers 0..K-1.
// Classes are assigned in sorted order, so the mapping is independent of
// the order labels appear in.
type LabelEncoder struct {
	model.BaseEstimator

	// Classes holds the sorted vocabulary learned during fitting.
	Classes []string

	index map[string]int
}

// NewLabelEncoder creates a LabelEncoder.
func NewLabelEncoder() *LabelEncoder {
	return &LabelEncoder{}
}

// Fit learns the label vocabulary from y.
func (le *LabelEncoder) Fit(y []string) error {
	if len(y) == 0 {
		return errors.NewModelError("LabelEncoder.Fit", "empty data", errors.ErrEmptyData)
	}
	le.Classes, le.index = sortedVocabulary(y)
	le.SetFitted()
	return nil
}

// Transform encodes labels as integers. Unseen labels are an error, since
// a label encoder's output feeds directly into class-indexed structures.
func (le *LabelEncoder) Transform(y []string) ([]int, error) {
	if !le.IsFitted() {
		return nil, errors.NewNotFittedError("LabelEncoder", "Transform")
	}
	out := make([]int, len(y))
	for i, v := range y {
		idx, ok := le.index[v]
		if !ok {
			return nil, errors.NewValueError("LabelEncoder.Transform", fmt.Sprintf("unseen label %q", v))
		}
		out[i] = idx
	}
	return out, nil
}

// FitTransform fits on y and encodes it in one call.
func (le *LabelEncoder) FitTransform(y []string) ([]int, error) {
	if err := le.Fit(y); err != nil {
		return nil, err
	}
	return le.Transform(y)
}

// InverseTransform maps encoded integers back to their labels.
func (le *LabelEncoder) InverseTransform(y []int) ([]string, error) {
	if !le.IsFitted() {
		return nil, errors.NewNotFittedError("LabelEncoder", "InverseTransform")
	}
	out := make([]string, len(y))
	for i, v := range y {
		if v < 0 || v >= len(le.Classes) {
			return nil, errors.NewValueError("LabelEncoder.InverseTransform", fmt.Sprintf("label index %d out of range [0, %d)", v, len(le.Classes)))
		}
		out[i] = le.Classes[v]
	}
	return out, nil
}

// String returns a readable description of the encoder.
func (le *LabelEncoder) String() string {
	if !le.IsFitted() {
		return "LabelEncoder()"
	}
	return fmt.Sprintf("LabelEncoder(n_classes=%d)", len(le.Classes))
}

// OneHotEncoder encodes categorical columns as binary indicator features.
// Each input column expands into one output column per category, ordered by
// the sorted per-column vocabulary.
type OneHotEncoder struct {
	model.BaseEstimator

	// Categories holds the sorted vocabulary of each input column.
	Categories [][]string

	// HandleUnknown selects the policy for categories not seen during
	// fitting: HandleUnknownError (default) or HandleUnknownIgnore.
	HandleUnknown string

	// DropFirst drops the first category of every column, the usual way
	// to avoid collinearity with an intercept term.
	DropFirst bool

	// NFeatures is the number of input columns seen during fitting.
	NFeatures int

	indices []map[string]int
}

// NewOneHotEncoder creates a OneHotEncoder with the default error policy
// for unknown categories.
func NewOneHotEncoder() *OneHotEncoder {
	return &OneHotEncoder{HandleUnknown: HandleUnknownError}
}

// Fit learns the per-column vocabularies from X.
func (oh *OneHotEncoder) Fit(X [][]string) error {
	if oh.HandleUnknown != HandleUnknownError && oh.HandleUnknown != HandleUnknownIgnore {
		return errors.NewValidationError("handle_unknown", `must be "error" or "ignore"`, oh.HandleUnknown)
	}

	rows, cols, err := validateCategorical("OneHotEncoder.Fit", X)
	if err != nil {
		return err
	}

	oh.NFeatures = cols
	oh.Categories = make([][]string, cols)
	oh.indices = make([]map[string]int, cols)

	column := make([]string, rows)
	for j := 0; j < cols; j++ {
		for i := 0; i < rows; i++ {
			column[i] = X[i][j]
		}
		oh.Categories[j], oh.indices[j] = sortedVocabulary(column)
	}

	oh.SetFitted()
	return nil
}

// outputWidth returns the number of encoded columns contributed by input
// column j, and the offset of that block in the output matrix.
func (oh *OneHotEncoder) outputWidth(j int) int {
	width := len(oh.Categories[j])
	if oh.DropFirst {
		width--
	}
	return width
}

// Transform encodes X as a binary indicator matrix.
func (oh *OneHotEncoder) Transform(X [][]string) (mat.Matrix, error) {
	if !oh.IsFitted() {
		return nil, errors.NewNotFittedError("OneHotEncoder", "Transform")
	}

	rows, cols, err := validateCategorical("OneHotEncoder.Transform", X)
	if err != nil {
		return nil, err
	}
	if cols != oh.NFeatures {
		return nil, errors.NewDimensionError("OneHotEncoder.Transform", oh.NFeatures, cols, 1)
	}

	totalWidth := 0
	offsets := make([]int, cols)
	for j := 0; j < cols; j++ {
		offsets[j] = totalWidth
		totalWidth += oh.outputWidth(j)
	}

	result := mat.NewDense(rows, totalWidth, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			idx, ok := oh.indices[j][X[i][j]]
			if !ok {
				if oh.HandleUnknown == HandleUnknownError {
					return nil, errors.NewValueError("OneHotEncoder.Transform", fmt.Sprintf("unknown category %q in column %d", X[i][j], j))
				}
				errors.Warn(errors.NewUnknownCategoryWarning("OneHotEncoder", j, X[i][j]))
				continue
			}
			if oh.DropFirst {
				if idx == 0 {
					continue
				}
				idx--
			}
			result.Set(i, offsets[j]+idx, 1.0)
		}
	}

	return result, nil
}

// FitTransform fits on X and encodes it in one call.
func (oh *OneHotEncoder) FitTransform(X [][]string) (mat.Matrix, error) {
	if err := oh.Fit(X); err != nil {
		return nil, err
	}
	return oh.Transform(X)
}

// FeatureNames returns the encoded column names in output order, formed as
// "<prefix>_<category>" from the given per-column prefixes. Prefixes may be
// nil, in which case "x0", "x1", ... are used.
func (oh *OneHotEncoder) FeatureNames(prefixes []string) ([]string, error) {
	if !oh.IsFitted() {
		return nil, errors.NewNotFittedError("OneHotEncoder", "FeatureNames")
	}
	if prefixes != nil && len(prefixes) != oh.NFeatures {
		return nil, errors.NewDimensionError("OneHotEncoder.FeatureNames", oh.NFeatures, len(prefixes), 1)
	}

	var names []string
	for j, vocab := range oh.Categories {
		prefix := fmt.Sprintf("x%d", j)
		if prefixes != nil {
			prefix = prefixes[j]
		}
		start := 0
		if oh.DropFirst {
			start = 1
		}
		for _, category := range vocab[start:] {
			names = append(names, prefix+"_"+category)
		}
	}
	return names, nil
}

// String returns a readable description of the encoder.
func (oh *OneHotEncoder) String() string {
	if !oh.IsFitted() {
		return fmt.Sprintf("OneHotEncoder(handle_unknown=%q, drop_first=%t)", oh.HandleUnknown, oh.DropFirst)
	}
	return fmt.Sprintf("OneHotEncoder(handle_unknown=%q, drop_first=%t, n_features=%d)",
		oh.HandleUnknown, oh.DropFirst, oh.NFeatures)
}

// OrdinalEncoder encodes categorical columns as float ranks. The rank order
// is either an explicit per-column category list supplied at construction,
// or the sorted vocabulary observed during fitting.
type OrdinalEncoder struct {
	model.BaseEstimator

	// Categories holds the rank-ordered vocabulary of each column.
	Categories [][]string

	// NFeatures is the number of input columns seen during fitting.
	NFeatures int

	explicit [][]string
	indices  []map[string]int
}

// NewOrdinalEncoder creates an OrdinalEncoder that ranks categories by
// sorted order.
func NewOrdinalEncoder() *OrdinalEncoder {
	return &OrdinalEncoder{}
}

// NewOrdinalEncoderWithCategories creates an OrdinalEncoder with explicit
// per-column orderings, for ordinal scales like low < medium < high where
// lexicographic order is wrong.
func NewOrdinalEncoderWithCategories(categories [][]string) *OrdinalEncoder {
	return &OrdinalEncoder{explicit: categories}
}

// Fit learns (or validates, when explicit orderings were supplied) the
// per-column vocabularies from X.
func (oe *OrdinalEncoder) Fit(X [][]string) error {
	rows, cols, err := validateCategorical("OrdinalEncoder.Fit", X)
	if err != nil {
		return err
	}

	if oe.explicit != nil && len(oe.explicit) != cols {
		return errors.NewDimensionError("OrdinalEncoder.Fit", len(oe.explicit), cols, 1)
	}

	oe.NFeatures = cols
	oe.Categories = make([][]string, cols)
	oe.indices = make([]map[string]int, cols)

	column := make([]string, rows)
	for j := 0; j < cols; j++ {
		for i := 0; i < rows; i++ {
			column[i] = X[i][j]
		}

		if oe.explicit != nil {
			index := make(map[string]int, len(oe.explicit[j]))
			for rank, category := range oe.explicit[j] {
				index[category] = rank
			}
			// Every observed value must be covered by the supplied ordering.
			for _, v := range column {
				if _, ok := index[v]; !ok {
					return errors.NewValidationError("categories",
						fmt.Sprintf("column %d contains %q which is not in the supplied ordering", j, v), v)
				}
			}
			oe.Categories[j] = append([]string(nil), oe.explicit[j]...)
			oe.indices[j] = index
		} else {
			oe.Categories[j], oe.indices[j] = sortedVocabulary(column)
		}
	}

	oe.SetFitted()
	return nil
}

// Transform encodes X as a matrix of category ranks.
func (oe *OrdinalEncoder) Transform(X [][]string) (mat.Matrix, error) {
	if !oe.IsFitted() {
		return nil, errors.NewNotFittedError("OrdinalEncoder", "Transform")
	}

	rows, cols, err := validateCategorical("OrdinalEncoder.Transform", X)
	if err != nil {
		return nil, err
	}
	if cols != oe.NFeatures {
		return nil, errors.NewDimensionError("OrdinalEncoder.Transform", oe.NFeatures, cols, 1)
	}

	result := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			rank, ok := oe.indices[j][X[i][j]]
			if !ok {
				return nil, errors.NewValueError("OrdinalEncoder.Transform", fmt.Sprintf("unknown category %q in column %d", X[i][j], j))
			}
			result.Set(i, j, float64(rank))
		}
	}

	return result, nil
}

// FitTransform fits on X and encodes it in one call.
func (oe *OrdinalEncoder) FitTransform(X [][]string) (mat.Matrix, error) {
	if err := oe.Fit(X); err != nil {
		return nil, err
	}
	return oe.Transform(X)
}

// InverseTransform maps a rank matrix back to categories.
func (oe *OrdinalEncoder) InverseTransform(X mat.Matrix) ([][]string, error) {
	if !oe.IsFitted() {
		return nil, errors.NewNotFittedError("OrdinalEncoder", "InverseTransform")
	}

	rows, cols := X.Dims()
	if cols != oe.NFeatures {
		return nil, errors.NewDimensionError("OrdinalEncoder.InverseTransform", oe.NFeatures, cols, 1)
	}

	out := make([][]string, rows)
	for i := 0; i < rows; i++ {
		out[i] = make([]string, cols)
		for j := 0; j < cols; j++ {
			rank := int(X.At(i, j))
			if rank < 0 || rank >= len(oe.Categories[j]) {
				return nil, errors.NewValueError("OrdinalEncoder.InverseTransform",
					fmt.Sprintf("rank %d out of range for column %d", rank, j))
			}
			out[i][j] = oe.Categories[j][rank]
		}
	}

	return out, nil
}

// String returns a readable description of the encoder.
func (oe *OrdinalEncoder) String() string {
	if !oe.IsFitted() {
		return "OrdinalEncoder()"
	}
	return fmt.Sprintf("OrdinalEncoder(n_features=%d)", oe.NFeatures)
}
