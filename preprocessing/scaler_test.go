package preprocessing

import (
	"bytes"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/takara-ml/prepro/core/model"
	"github.com/takara-ml/prepro/pkg/errors"
)

func matNear(t *testing.T, got mat.Matrix, want mat.Matrix, tol float64) {
	t.Helper()
	gr, gc := got.Dims()
	wr, wc := want.Dims()
	if gr != wr || gc != wc {
		t.Fatalf("dims mismatch: got %dx%d, want %dx%d", gr, gc, wr, wc)
	}
	for i := 0; i < gr; i++ {
		for j := 0; j < gc; j++ {
			if math.Abs(got.At(i, j)-want.At(i, j)) > tol {
				t.Errorf("element (%d,%d) = %g, want %g", i, j, got.At(i, j), want.At(i, j))
			}
		}
	}
}

func TestStandardScaler(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		1, 10,
		2, 20,
		3, 30,
		4, 40,
	})

	scaler := NewStandardScalerDefault()
	XScaled, err := scaler.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}

	// Each column should have mean 0 and unit standard deviation.
	r, c := XScaled.Dims()
	for j := 0; j < c; j++ {
		sum := 0.0
		for i := 0; i < r; i++ {
			sum += XScaled.At(i, j)
		}
		mean := sum / float64(r)
		if math.Abs(mean) > 1e-10 {
			t.Errorf("column %d mean = %g, want 0", j, mean)
		}

		sumSq := 0.0
		for i := 0; i < r; i++ {
			diff := XScaled.At(i, j) - mean
			sumSq += diff * diff
		}
		std := math.Sqrt(sumSq / float64(r))
		if math.Abs(std-1) > 1e-10 {
			t.Errorf("column %d std = %g, want 1", j, std)
		}
	}

	// Round trip.
	XBack, err := scaler.InverseTransform(XScaled)
	if err != nil {
		t.Fatalf("InverseTransform failed: %v", err)
	}
	matNear(t, XBack, X, 1e-10)
}

func TestStandardScalerWithoutCentering(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{2, 4, 6})

	scaler := NewStandardScaler(false, true)
	if err := scaler.Fit(X); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	if scaler.Mean[0] != 0 {
		t.Errorf("mean = %g, want 0 with centering disabled", scaler.Mean[0])
	}
	// The scale is still the population std about the mean: the mean of
	// {2, 4, 6} is 4, so std is sqrt((4+0+4)/3).
	wantScale := math.Sqrt(8.0 / 3.0)
	if math.Abs(scaler.Scale[0]-wantScale) > 1e-10 {
		t.Errorf("scale = %g, want %g", scaler.Scale[0], wantScale)
	}

	// Matches the scale a centering scaler computes on the same data.
	centered := NewStandardScalerDefault()
	if err := centered.Fit(X); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if math.Abs(scaler.Scale[0]-centered.Scale[0]) > 1e-12 {
		t.Errorf("scale = %g, differs from centered scaler's %g", scaler.Scale[0], centered.Scale[0])
	}

	// Transform only divides; the mean is not subtracted.
	got, err := scaler.Transform(X)
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	if want := 2.0 / wantScale; math.Abs(got.At(0, 0)-want) > 1e-10 {
		t.Errorf("transformed value = %g, want %g", got.At(0, 0), want)
	}
}

func TestStandardScalerConstantFeature(t *testing.T) {
	var warned error
	errors.SetWarningHandler(func(w error) { warned = w })
	defer errors.SetWarningHandler(nil)

	X := mat.NewDense(3, 1, []float64{5, 5, 5})
	scaler := NewStandardScalerDefault()
	XScaled, err := scaler.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}

	// Constant feature scales to 0, not NaN or Inf.
	for i := 0; i < 3; i++ {
		if XScaled.At(i, 0) != 0 {
			t.Errorf("row %d = %g, want 0", i, XScaled.At(i, 0))
		}
	}

	var cfw *errors.ConstantFeatureWarning
	if !errors.As(warned, &cfw) {
		t.Errorf("expected ConstantFeatureWarning, got %v", warned)
	}
}

func TestStandardScalerErrors(t *testing.T) {
	scaler := NewStandardScalerDefault()

	if _, err := scaler.Transform(mat.NewDense(1, 1, []float64{1})); err == nil {
		t.Error("Transform before Fit should fail")
	} else {
		var nfe *errors.NotFittedError
		if !errors.As(err, &nfe) {
			t.Errorf("expected NotFittedError, got %v", err)
		}
	}

	if err := scaler.Fit(&mat.Dense{}); err == nil {
		t.Error("Fit on empty matrix should fail")
	}

	if err := scaler.Fit(mat.NewDense(2, 2, []float64{1, 2, 3, 4})); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if _, err := scaler.Transform(mat.NewDense(2, 3, nil)); err == nil {
		t.Error("Transform with wrong column count should fail")
	} else {
		var de *errors.DimensionError
		if !errors.As(err, &de) {
			t.Errorf("expected DimensionError, got %v", err)
		}
	}
}

func TestMinMaxScaler(t *testing.T) {
	tests := []struct {
		name         string
		featureRange [2]float64
		X            *mat.Dense
		want         *mat.Dense
	}{
		{
			name:         "default range",
			featureRange: [2]float64{0, 1},
			X:            mat.NewDense(3, 1, []float64{1, 2, 3}),
			want:         mat.NewDense(3, 1, []float64{0, 0.5, 1}),
		},
		{
			name:         "custom range",
			featureRange: [2]float64{-1, 1},
			X:            mat.NewDense(3, 1, []float64{10, 20, 30}),
			want:         mat.NewDense(3, 1, []float64{-1, 0, 1}),
		},
		{
			name:         "two features",
			featureRange: [2]float64{0, 1},
			X:            mat.NewDense(2, 2, []float64{0, 100, 10, 200}),
			want:         mat.NewDense(2, 2, []float64{0, 0, 1, 1}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scaler := NewMinMaxScaler(tt.featureRange)
			got, err := scaler.FitTransform(tt.X)
			if err != nil {
				t.Fatalf("FitTransform failed: %v", err)
			}
			matNear(t, got, tt.want, 1e-10)

			back, err := scaler.InverseTransform(got)
			if err != nil {
				t.Fatalf("InverseTransform failed: %v", err)
			}
			matNear(t, back, tt.X, 1e-10)
		})
	}
}

func TestMinMaxScalerInvalidRange(t *testing.T) {
	scaler := NewMinMaxScaler([2]float64{1, 0})
	err := scaler.Fit(mat.NewDense(2, 1, []float64{1, 2}))
	if err == nil {
		t.Fatal("Fit with inverted feature range should fail")
	}
	var ve *errors.ValidationError
	if !errors.As(err, &ve) {
		t.Errorf("expected ValidationError, got %v", err)
	}
}

func TestRobustScaler(t *testing.T) {
	// Median 3, Q1 2, Q3 4, IQR 2. The outlier barely moves the scale.
	X := mat.NewDense(5, 1, []float64{1, 2, 3, 4, 100})

	scaler := NewRobustScalerDefault()
	XScaled, err := scaler.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}

	if got := scaler.Center[0]; got != 3 {
		t.Errorf("median = %g, want 3", got)
	}
	if got := scaler.Scale[0]; got != 2 {
		t.Errorf("IQR = %g, want 2", got)
	}

	want := mat.NewDense(5, 1, []float64{-1, -0.5, 0, 0.5, 48.5})
	matNear(t, XScaled, want, 1e-10)

	back, err := scaler.InverseTransform(XScaled)
	if err != nil {
		t.Fatalf("InverseTransform failed: %v", err)
	}
	matNear(t, back, X, 1e-10)
}

func TestRobustScalerQuantileInterpolation(t *testing.T) {
	// Four points: Q1 at position 0.75 interpolates between 1 and 2.
	X := mat.NewDense(4, 1, []float64{1, 2, 3, 4})

	scaler := NewRobustScalerDefault()
	if err := scaler.Fit(X); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	if got, want := scaler.Center[0], 2.5; math.Abs(got-want) > 1e-10 {
		t.Errorf("median = %g, want %g", got, want)
	}
	if got, want := scaler.Scale[0], 1.5; math.Abs(got-want) > 1e-10 {
		t.Errorf("IQR = %g, want %g", got, want)
	}
}

func TestScalerPersistenceRoundTrip(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{1, 4, 2, 5, 3, 6})

	scaler := NewStandardScalerDefault()
	if err := scaler.Fit(X); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	var buf bytes.Buffer
	if err := model.SaveModelToWriter(scaler, &buf); err != nil {
		t.Fatalf("SaveModelToWriter failed: %v", err)
	}

	loaded := &StandardScaler{}
	if err := model.LoadModelFromReader(loaded, &buf); err != nil {
		t.Fatalf("LoadModelFromReader failed: %v", err)
	}

	if !loaded.IsFitted() {
		t.Fatal("loaded scaler lost its fitted state")
	}
	want, err := scaler.Transform(X)
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	got, err := loaded.Transform(X)
	if err != nil {
		t.Fatalf("Transform on loaded scaler failed: %v", err)
	}
	matNear(t, got, want, 1e-12)
}

func TestTransformerInterfaces(t *testing.T) {
	// The scalers must satisfy the shared transformer contracts.
	var _ model.InverseTransformer = NewStandardScalerDefault()
	var _ model.InverseTransformer = NewMinMaxScalerDefault()
	var _ model.InverseTransformer = NewRobustScalerDefault()
}
