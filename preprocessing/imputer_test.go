package preprocessing

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/takara-ml/prepro/pkg/errors"
)

var nan = math.NaN()

func TestSimpleImputer(t *testing.T) {
	tests := []struct {
		name     string
		strategy string
		X        *mat.Dense
		want     *mat.Dense
	}{
		{
			name:     "mean",
			strategy: StrategyMean,
			X: mat.NewDense(4, 2, []float64{
				1, 10,
				nan, 20,
				3, nan,
				5, 30,
			}),
			want: mat.NewDense(4, 2, []float64{
				1, 10,
				3, 20,
				3, 20,
				5, 30,
			}),
		},
		{
			name:     "median",
			strategy: StrategyMedian,
			X: mat.NewDense(5, 1, []float64{
				1, 2, nan, 4, 100,
			}),
			want: mat.NewDense(5, 1, []float64{
				1, 2, 3, 4, 100,
			}),
		},
		{
			name:     "most frequent",
			strategy: StrategyMostFrequent,
			X: mat.NewDense(5, 1, []float64{
				2, 2, 7, nan, 7,
			}),
			// Tie between 2 and 7 breaks toward the smaller value.
			want: mat.NewDense(5, 1, []float64{
				2, 2, 7, 2, 7,
			}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			imputer := NewSimpleImputer(tt.strategy)
			got, err := imputer.FitTransform(tt.X)
			if err != nil {
				t.Fatalf("FitTransform failed: %v", err)
			}
			matNear(t, got, tt.want, 1e-10)
		})
	}
}

func TestConstantImputer(t *testing.T) {
	imputer := NewConstantImputer(-1)
	X := mat.NewDense(3, 1, []float64{nan, 2, nan})
	got, err := imputer.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}
	matNear(t, got, mat.NewDense(3, 1, []float64{-1, 2, -1}), 0)
}

func TestSimpleImputerAllMissingColumn(t *testing.T) {
	var warned error
	errors.SetWarningHandler(func(w error) { warned = w })
	defer errors.SetWarningHandler(nil)

	imputer := NewSimpleImputer(StrategyMean)
	X := mat.NewDense(2, 2, []float64{
		1, nan,
		2, nan,
	})
	got, err := imputer.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}

	// An all-missing column falls back to zero.
	matNear(t, got, mat.NewDense(2, 2, []float64{1, 0, 2, 0}), 0)

	var amw *errors.AllMissingWarning
	if !errors.As(warned, &amw) {
		t.Errorf("expected AllMissingWarning, got %v", warned)
	}
}

func TestSimpleImputerInvalidStrategy(t *testing.T) {
	imputer := NewSimpleImputer("mode")
	err := imputer.Fit(mat.NewDense(1, 1, []float64{1}))
	if err == nil {
		t.Fatal("unknown strategy should fail")
	}
	var ve *errors.ValidationError
	if !errors.As(err, &ve) {
		t.Errorf("expected ValidationError, got %v", err)
	}
}

func TestSimpleImputerNotFitted(t *testing.T) {
	imputer := NewSimpleImputer(StrategyMean)
	_, err := imputer.Transform(mat.NewDense(1, 1, []float64{1}))
	var nfe *errors.NotFittedError
	if !errors.As(err, &nfe) {
		t.Errorf("expected NotFittedError, got %v", err)
	}
}

func TestKNNImputer(t *testing.T) {
	// Two tight rows near (1, 1) and one far row. A query near the tight
	// pair should be filled from those two donors.
	XFit := mat.NewDense(3, 2, []float64{
		1, 1,
		1, 1.1,
		10, 10,
	})

	imputer := NewKNNImputer(2)
	if err := imputer.Fit(XFit); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	got, err := imputer.Transform(mat.NewDense(1, 2, []float64{1, nan}))
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}

	if want := 1.05; math.Abs(got.At(0, 1)-want) > 1e-10 {
		t.Errorf("imputed value = %g, want %g", got.At(0, 1), want)
	}
	if got.At(0, 0) != 1 {
		t.Errorf("observed value changed: %g", got.At(0, 0))
	}
}

func TestKNNImputerFewerDonorsThanK(t *testing.T) {
	// Only one row has column 1 observed, so k shrinks to the donor count.
	XFit := mat.NewDense(2, 2, []float64{
		1, 7,
		2, nan,
	})

	imputer := NewKNNImputer(5)
	if err := imputer.Fit(XFit); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	got, err := imputer.Transform(mat.NewDense(1, 2, []float64{1.5, nan}))
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	if got.At(0, 1) != 7 {
		t.Errorf("imputed value = %g, want 7", got.At(0, 1))
	}
}

func TestKNNImputerColumnMeanFallback(t *testing.T) {
	// The query row has nothing observed, so no distance can be computed
	// and the column mean fills in.
	XFit := mat.NewDense(2, 2, []float64{
		2, 4,
		4, 8,
	})

	imputer := NewKNNImputer(2)
	if err := imputer.Fit(XFit); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	got, err := imputer.Transform(mat.NewDense(1, 2, []float64{nan, nan}))
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	if got.At(0, 0) != 3 {
		t.Errorf("column 0 fallback = %g, want 3", got.At(0, 0))
	}
	if got.At(0, 1) != 6 {
		t.Errorf("column 1 fallback = %g, want 6", got.At(0, 1))
	}
}

func TestKNNImputerDefaultK(t *testing.T) {
	imputer := NewKNNImputer(0)
	if imputer.K != 5 {
		t.Errorf("K = %d, want default 5", imputer.K)
	}
}

func TestNanEuclidean(t *testing.T) {
	a := mat.NewDense(1, 3, []float64{1, nan, 3})
	b := mat.NewDense(1, 3, []float64{2, 5, nan})

	// Only column 0 is shared: distance sqrt(1 * 3/1).
	got := nanEuclidean(a, 0, b, 0, 3)
	if want := math.Sqrt(3); math.Abs(got-want) > 1e-12 {
		t.Errorf("distance = %g, want %g", got, want)
	}

	// No shared coordinates.
	c := mat.NewDense(1, 2, []float64{nan, 1})
	d := mat.NewDense(1, 2, []float64{1, nan})
	if !math.IsNaN(nanEuclidean(c, 0, d, 0, 2)) {
		t.Error("expected NaN distance with no shared coordinates")
	}
}
