package preprocessing

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/takara-ml/prepro/pkg/errors"
)

func TestLabelEncoder(t *testing.T) {
	t.Run("sorted class assignment", func(t *testing.T) {
		le := NewLabelEncoder()
		encoded, err := le.FitTransform([]string{"dog", "cat", "bird", "dog"})
		require.NoError(t, err)

		// Classes come out sorted regardless of input order.
		if diff := cmp.Diff([]string{"bird", "cat", "dog"}, le.Classes); diff != "" {
			t.Errorf("classes mismatch (-want +got):\n%s", diff)
		}
		assert.Equal(t, []int{2, 1, 0, 2}, encoded)
	})

	t.Run("round trip", func(t *testing.T) {
		le := NewLabelEncoder()
		labels := []string{"red", "green", "blue", "green"}
		encoded, err := le.FitTransform(labels)
		require.NoError(t, err)

		decoded, err := le.InverseTransform(encoded)
		require.NoError(t, err)
		assert.Equal(t, labels, decoded)
	})

	t.Run("unseen label is an error", func(t *testing.T) {
		le := NewLabelEncoder()
		require.NoError(t, le.Fit([]string{"a", "b"}))

		_, err := le.Transform([]string{"c"})
		require.Error(t, err)
		var ve *errors.ValueError
		assert.True(t, errors.As(err, &ve))
	})

	t.Run("not fitted", func(t *testing.T) {
		le := NewLabelEncoder()
		_, err := le.Transform([]string{"a"})
		var nfe *errors.NotFittedError
		assert.True(t, errors.As(err, &nfe))
	})
}

func TestOneHotEncoder(t *testing.T) {
	X := [][]string{
		{"red"},
		{"blue"},
		{"green"},
		{"red"},
	}

	t.Run("basic encoding", func(t *testing.T) {
		oh := NewOneHotEncoder()
		encoded, err := oh.FitTransform(X)
		require.NoError(t, err)

		// Vocabulary sorted: blue, green, red.
		if diff := cmp.Diff([][]string{{"blue", "green", "red"}}, oh.Categories); diff != "" {
			t.Errorf("categories mismatch (-want +got):\n%s", diff)
		}

		want := mat.NewDense(4, 3, []float64{
			0, 0, 1,
			1, 0, 0,
			0, 1, 0,
			0, 0, 1,
		})
		assert.True(t, mat.Equal(want, encoded), "encoded matrix mismatch")
	})

	t.Run("drop first", func(t *testing.T) {
		oh := NewOneHotEncoder()
		oh.DropFirst = true
		encoded, err := oh.FitTransform(X)
		require.NoError(t, err)

		// "blue" is dropped, so blue rows are all zero.
		want := mat.NewDense(4, 2, []float64{
			0, 1,
			0, 0,
			1, 0,
			0, 1,
		})
		assert.True(t, mat.Equal(want, encoded), "encoded matrix mismatch")
	})

	t.Run("feature names", func(t *testing.T) {
		oh := NewOneHotEncoder()
		require.NoError(t, oh.Fit(X))

		names, err := oh.FeatureNames([]string{"color"})
		require.NoError(t, err)
		assert.Equal(t, []string{"color_blue", "color_green", "color_red"}, names)

		defaultNames, err := oh.FeatureNames(nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"x0_blue", "x0_green", "x0_red"}, defaultNames)
	})

	t.Run("unknown category error policy", func(t *testing.T) {
		oh := NewOneHotEncoder()
		require.NoError(t, oh.Fit(X))

		_, err := oh.Transform([][]string{{"yellow"}})
		require.Error(t, err)
		var ve *errors.ValueError
		assert.True(t, errors.As(err, &ve))
	})

	t.Run("unknown category ignore policy", func(t *testing.T) {
		var warned error
		errors.SetWarningHandler(func(w error) { warned = w })
		defer errors.SetWarningHandler(nil)

		oh := NewOneHotEncoder()
		oh.HandleUnknown = HandleUnknownIgnore
		require.NoError(t, oh.Fit(X))

		encoded, err := oh.Transform([][]string{{"yellow"}})
		require.NoError(t, err)

		// Unseen category encodes as an all-zero row.
		want := mat.NewDense(1, 3, nil)
		assert.True(t, mat.Equal(want, encoded))

		var ucw *errors.UnknownCategoryWarning
		require.True(t, errors.As(warned, &ucw))
		assert.Equal(t, "yellow", ucw.Category)
	})

	t.Run("invalid policy", func(t *testing.T) {
		oh := NewOneHotEncoder()
		oh.HandleUnknown = "explode"
		err := oh.Fit(X)
		var ve *errors.ValidationError
		assert.True(t, errors.As(err, &ve))
	})

	t.Run("ragged input", func(t *testing.T) {
		oh := NewOneHotEncoder()
		err := oh.Fit([][]string{{"a", "b"}, {"a"}})
		var de *errors.DimensionError
		assert.True(t, errors.As(err, &de))
	})
}

func TestOneHotEncoderMultiColumn(t *testing.T) {
	X := [][]string{
		{"red", "s"},
		{"blue", "m"},
		{"red", "l"},
	}

	oh := NewOneHotEncoder()
	encoded, err := oh.FitTransform(X)
	require.NoError(t, err)

	// Column 0 expands to {blue, red}, column 1 to {l, m, s}.
	want := mat.NewDense(3, 5, []float64{
		0, 1, 0, 0, 1,
		1, 0, 0, 1, 0,
		0, 1, 1, 0, 0,
	})
	assert.True(t, mat.Equal(want, encoded), "encoded matrix mismatch")

	names, err := oh.FeatureNames([]string{"color", "size"})
	require.NoError(t, err)
	assert.Equal(t, []string{"color_blue", "color_red", "size_l", "size_m", "size_s"}, names)
}

func TestOrdinalEncoder(t *testing.T) {
	t.Run("sorted ranks by default", func(t *testing.T) {
		oe := NewOrdinalEncoder()
		encoded, err := oe.FitTransform([][]string{{"c"}, {"a"}, {"b"}})
		require.NoError(t, err)

		want := mat.NewDense(3, 1, []float64{2, 0, 1})
		assert.True(t, mat.Equal(want, encoded))
	})

	t.Run("explicit ordering", func(t *testing.T) {
		oe := NewOrdinalEncoderWithCategories([][]string{{"low", "medium", "high"}})
		encoded, err := oe.FitTransform([][]string{{"high"}, {"low"}, {"medium"}, {"low"}})
		require.NoError(t, err)

		want := mat.NewDense(4, 1, []float64{2, 0, 1, 0})
		assert.True(t, mat.Equal(want, encoded))

		decoded, err := oe.InverseTransform(encoded)
		require.NoError(t, err)
		if diff := cmp.Diff([][]string{{"high"}, {"low"}, {"medium"}, {"low"}}, decoded); diff != "" {
			t.Errorf("decoded mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("explicit ordering must cover observed values", func(t *testing.T) {
		oe := NewOrdinalEncoderWithCategories([][]string{{"low", "high"}})
		err := oe.Fit([][]string{{"low"}, {"medium"}})
		require.Error(t, err)
		var ve *errors.ValidationError
		assert.True(t, errors.As(err, &ve))
	})

	t.Run("rank out of range on inverse", func(t *testing.T) {
		oe := NewOrdinalEncoder()
		require.NoError(t, oe.Fit([][]string{{"a"}, {"b"}}))

		_, err := oe.InverseTransform(mat.NewDense(1, 1, []float64{5}))
		var ve *errors.ValueError
		assert.True(t, errors.As(err, &ve))
	})
}
