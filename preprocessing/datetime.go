package preprocessing

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/takara-ml/prepro/core/model"
	"github.com/takara-ml/prepro/pkg/errors"
)

// Datetime components extractable by DatetimeFeaturizer.
const (
	ComponentYear      = "year"
	ComponentMonth     = "month"
	ComponentDay       = "day"
	ComponentHour      = "hour"
	ComponentMinute    = "minute"
	ComponentWeekday   = "weekday"
	ComponentDayOfYear = "day_of_year"
	ComponentIsWeekend = "is_weekend"
)

// DefaultDatetimeComponents is the component set used when none is given.
var DefaultDatetimeComponents = []string{
	ComponentYear, ComponentMonth, ComponentDay,
	ComponentHour, ComponentWeekday, ComponentIsWeekend,
}

// DatetimeFeaturizer expands timestamps into numeric calendar features,
// one column per requested component. Weekday follows time.Weekday
// (Sunday=0); is_weekend is 1 for Saturday and Sunday.
type DatetimeFeaturizer struct {
	model.BaseEstimator

	// Components is the ordered list of features to extract.
	Components []string
}

// NewDatetimeFeaturizer creates a featurizer for the given components, or
// DefaultDatetimeComponents when components is empty.
func NewDatetimeFeaturizer(components ...string) *DatetimeFeaturizer {
	if len(components) == 0 {
		components = append([]string(nil), DefaultDatetimeComponents...)
	}
	return &DatetimeFeaturizer{Components: components}
}

// Fit validates the component list. The featurizer learns nothing from the
// data, but keeps the fit/transform surface so it composes with the rest
// of the package.
func (df *DatetimeFeaturizer) Fit(times []time.Time) error {
	if len(times) == 0 {
		return errors.NewModelError("DatetimeFeaturizer.Fit", "empty data", errors.ErrEmptyData)
	}
	for _, component := range df.Components {
		if !validComponent(component) {
			return errors.NewValidationError("components", "unknown datetime component", component)
		}
	}
	df.SetFitted()
	return nil
}

func validComponent(component string) bool {
	switch component {
	case ComponentYear, ComponentMonth, ComponentDay, ComponentHour,
		ComponentMinute, ComponentWeekday, ComponentDayOfYear, ComponentIsWeekend:
		return true
	}
	return false
}

// Transform extracts the configured components from each timestamp.
func (df *DatetimeFeaturizer) Transform(times []time.Time) (mat.Matrix, error) {
	if !df.IsFitted() {
		return nil, errors.NewNotFittedError("DatetimeFeaturizer", "Transform")
	}
	if len(times) == 0 {
		return nil, errors.NewModelError("DatetimeFeaturizer.Transform", "empty data", errors.ErrEmptyData)
	}

	result := mat.NewDense(len(times), len(df.Components), nil)
	for i, t := range times {
		for j, component := range df.Components {
			result.Set(i, j, extractComponent(t, component))
		}
	}
	return result, nil
}

func extractComponent(t time.Time, component string) float64 {
	switch component {
	case ComponentYear:
		return float64(t.Year())
	case ComponentMonth:
		return float64(t.Month())
	case ComponentDay:
		return float64(t.Day())
	case ComponentHour:
		return float64(t.Hour())
	case ComponentMinute:
		return float64(t.Minute())
	case ComponentWeekday:
		return float64(t.Weekday())
	case ComponentDayOfYear:
		return float64(t.YearDay())
	case ComponentIsWeekend:
		if wd := t.Weekday(); wd == time.Saturday || wd == time.Sunday {
			return 1
		}
		return 0
	}
	return math.NaN()
}

// FitTransform fits on times and extracts features in one call.
func (df *DatetimeFeaturizer) FitTransform(times []time.Time) (mat.Matrix, error) {
	if err := df.Fit(times); err != nil {
		return nil, err
	}
	return df.Transform(times)
}

// FeatureNames returns the output column names in order.
func (df *DatetimeFeaturizer) FeatureNames() []string {
	return append([]string(nil), df.Components...)
}

// String returns a readable description of the featurizer.
func (df *DatetimeFeaturizer) String() string {
	return fmt.Sprintf("DatetimeFeaturizer(components=%v)", df.Components)
}

// CyclicalEncoder represents a periodic feature as a point on the unit
// circle, so that the ends of the period are close together: hour 23 and
// hour 0 encode to neighboring values instead of opposite extremes.
//
// A value v with period p maps to [sin(2*pi*v/p), cos(2*pi*v/p)].
type CyclicalEncoder struct {
	model.BaseEstimator

	// Period is the cycle length: 24 for hours, 7 for weekdays, 12 for
	// months.
	Period float64

	// NFeatures is the number of input columns seen during fitting. Each
	// expands into a sin/cos pair.
	NFeatures int
}

// NewCyclicalEncoder creates a CyclicalEncoder with the given period.
func NewCyclicalEncoder(period float64) *CyclicalEncoder {
	return &CyclicalEncoder{Period: period}
}

// Fit validates the period and records the input width.
func (ce *CyclicalEncoder) Fit(X mat.Matrix) error {
	if ce.Period <= 0 {
		return errors.NewValidationError("period", "must be positive", ce.Period)
	}
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("CyclicalEncoder.Fit", "empty data", errors.ErrEmptyData)
	}
	ce.NFeatures = c
	ce.SetFitted()
	return nil
}

// Transform maps every input column to an adjacent sin/cos column pair.
func (ce *CyclicalEncoder) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !ce.IsFitted() {
		return nil, errors.NewNotFittedError("CyclicalEncoder", "Transform")
	}

	r, c := X.Dims()
	if c != ce.NFeatures {
		return nil, errors.NewDimensionError("CyclicalEncoder.Transform", ce.NFeatures, c, 1)
	}

	result := mat.NewDense(r, 2*c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			angle := 2 * math.Pi * X.At(i, j) / ce.Period
			result.Set(i, 2*j, math.Sin(angle))
			result.Set(i, 2*j+1, math.Cos(angle))
		}
	}
	return result, nil
}

// FitTransform fits on X and encodes it in one call.
func (ce *CyclicalEncoder) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := ce.Fit(X); err != nil {
		return nil, err
	}
	return ce.Transform(X)
}

// InverseTransform recovers values in [0, Period) from sin/cos pairs.
func (ce *CyclicalEncoder) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	if !ce.IsFitted() {
		return nil, errors.NewNotFittedError("CyclicalEncoder", "InverseTransform")
	}

	r, c := X.Dims()
	if c != 2*ce.NFeatures {
		return nil, errors.NewDimensionError("CyclicalEncoder.InverseTransform", 2*ce.NFeatures, c, 1)
	}

	result := mat.NewDense(r, ce.NFeatures, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < ce.NFeatures; j++ {
			angle := math.Atan2(X.At(i, 2*j), X.At(i, 2*j+1))
			if angle < 0 {
				angle += 2 * math.Pi
			}
			result.Set(i, j, angle*ce.Period/(2*math.Pi))
		}
	}
	return result, nil
}

// String returns a readable description of the encoder.
func (ce *CyclicalEncoder) String() string {
	return fmt.Sprintf("CyclicalEncoder(period=%g)", ce.Period)
}
