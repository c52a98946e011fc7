package metrics

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestAccuracy(t *testing.T) {
	tests := []struct {
		name    string
		yTrue   []float64
		yPred   []float64
		want    float64
		wantErr bool
	}{
		{
			name:  "all correct",
			yTrue: []float64{0, 1, 2},
			yPred: []float64{0, 1, 2},
			want:  1,
		},
		{
			name:  "half correct",
			yTrue: []float64{0, 1, 0, 1},
			yPred: []float64{0, 0, 0, 0},
			want:  0.5,
		},
		{
			name:  "none correct",
			yTrue: []float64{1, 1},
			yPred: []float64{0, 0},
			want:  0,
		},
		{
			name:    "length mismatch",
			yTrue:   []float64{1, 2},
			yPred:   []float64{1},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Accuracy(mat.NewVecDense(len(tt.yTrue), tt.yTrue), mat.NewVecDense(len(tt.yPred), tt.yPred))
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Accuracy = %g, want %g", got, tt.want)
			}
		})
	}
}

func TestAccuracyLabels(t *testing.T) {
	got, err := AccuracyLabels([]int{0, 1, 2, 1}, []int{0, 1, 1, 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 0.75 {
		t.Errorf("AccuracyLabels = %g, want 0.75", got)
	}

	if _, err := AccuracyLabels(nil, nil); err == nil {
		t.Error("expected error for empty slices")
	}
	if _, err := AccuracyLabels([]int{1}, []int{1, 2}); err == nil {
		t.Error("expected error for mismatched lengths")
	}
}
