// Package errors provides the error and warning system used across prepro.
// It is inspired by scikit-learn's exception and warning hierarchy: errors
// carry structured context and stack traces, warnings are non-fatal and go
// through a process-wide, replaceable handler.
package errors

import (
	"fmt"
	"log"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	Global warning handling
//
// ===========================================================================

var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		log.Printf("prepro-Warning: %v\n", w)
	}
	// zerolog warn function, injected by pkg/log to avoid an import cycle.
	zerologWarnFunc func(warning error)
)

// SetWarningHandler replaces the process-wide warning handler. Use it to
// silence warnings or route them into your own logging.
//
// Example:
//
//	errors.SetWarningHandler(func(w error) {
//	    // ignore warnings
//	})
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc installs a zerolog-backed warning sink. It exists so
// pkg/log can register itself without a circular import.
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn emits a warning. A registered zerolog sink takes precedence over the
// plain handler.
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	if zerologWarnFunc != nil {
		zerologWarnFunc(w)
		return
	}

	if warningHandler != nil {
		warningHandler(w)
	}
}

// ===========================================================================
//
//	Warning types
//
// ===========================================================================

// UnknownCategoryWarning is emitted when a category not seen during fitting
// appears at transform time and the encoder is configured to tolerate it.
type UnknownCategoryWarning struct {
	Encoder  string
	Column   int
	Category string
}

func (w *UnknownCategoryWarning) Error() string {
	return fmt.Sprintf("%s: unknown category %q in column %d, encoding as zero", w.Encoder, w.Category, w.Column)
}

// MarshalZerologObject adds the structured warning fields to a zerolog event.
func (w *UnknownCategoryWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("encoder", w.Encoder).
		Int("column", w.Column).
		Str("category", w.Category).
		Str("type", "UnknownCategoryWarning")
}

// NewUnknownCategoryWarning creates a new UnknownCategoryWarning.
func NewUnknownCategoryWarning(encoder string, column int, category string) *UnknownCategoryWarning {
	return &UnknownCategoryWarning{Encoder: encoder, Column: column, Category: category}
}

// ConstantFeatureWarning is emitted when a feature has zero spread during
// fitting, so its scale is clamped to 1 to avoid division by zero.
type ConstantFeatureWarning struct {
	Scaler string
	Column int
	Value  float64
}

func (w *ConstantFeatureWarning) Error() string {
	return fmt.Sprintf("%s: feature %d is constant (value=%g), scale clamped to 1", w.Scaler, w.Column, w.Value)
}

// MarshalZerologObject adds the structured warning fields to a zerolog event.
func (w *ConstantFeatureWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("scaler", w.Scaler).
		Int("column", w.Column).
		Float64("value", w.Value).
		Str("type", "ConstantFeatureWarning")
}

// NewConstantFeatureWarning creates a new ConstantFeatureWarning.
func NewConstantFeatureWarning(scaler string, column int, value float64) *ConstantFeatureWarning {
	return &ConstantFeatureWarning{Scaler: scaler, Column: column, Value: value}
}

// DataConversionWarning is emitted when data is implicitly converted, for
// example when a numeric-looking CSV column is parsed as float64.
type DataConversionWarning struct {
	FromType string
	ToType   string
	Reason   string
}

func (w *DataConversionWarning) Error() string {
	return fmt.Sprintf("data converted from %s to %s. Reason: %s", w.FromType, w.ToType, w.Reason)
}

// MarshalZerologObject adds the structured warning fields to a zerolog event.
func (w *DataConversionWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("from_type", w.FromType).
		Str("to_type", w.ToType).
		Str("reason", w.Reason).
		Str("type", "DataConversionWarning")
}

// NewDataConversionWarning creates a new DataConversionWarning.
func NewDataConversionWarning(from, to, reason string) *DataConversionWarning {
	return &DataConversionWarning{FromType: from, ToType: to, Reason: reason}
}

// AllMissingWarning is emitted when an imputer fits a column that contains
// no observed values, so the fill statistic falls back to a default.
type AllMissingWarning struct {
	Imputer  string
	Column   int
	Fallback float64
}

func (w *AllMissingWarning) Error() string {
	return fmt.Sprintf("%s: column %d has no observed values, falling back to %g", w.Imputer, w.Column, w.Fallback)
}

// MarshalZerologObject adds the structured warning fields to a zerolog event.
func (w *AllMissingWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("imputer", w.Imputer).
		Int("column", w.Column).
		Float64("fallback", w.Fallback).
		Str("type", "AllMissingWarning")
}

// NewAllMissingWarning creates a new AllMissingWarning.
func NewAllMissingWarning(imputer string, column int, fallback float64) *AllMissingWarning {
	return &AllMissingWarning{Imputer: imputer, Column: column, Fallback: fallback}
}

// ===========================================================================
//
//	Structured error types
//
// ===========================================================================

// NotFittedError is returned when Transform, Predict or InverseTransform is
// called on an estimator before Fit.
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("prepro: %s: this estimator is not fitted yet. Call Fit() before using %s()", e.ModelName, e.Method)
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.ModelName).
		Str("method", e.Method).
		Str("type", "NotFittedError")
}

// NewNotFittedError creates a NotFittedError with a stack trace attached.
func NewNotFittedError(modelName, method string) error {
	err := &NotFittedError{ModelName: modelName, Method: method}
	return errors.WithStack(err)
}

// DimensionError is returned when input dimensions do not match what the
// estimator learned during fitting.
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns/features
}

func (e *DimensionError) Error() string {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	return fmt.Sprintf("prepro: %s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, axisName, e.Expected, e.Got)
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("axis_name", axisName).
		Str("type", "DimensionError")
}

// NewDimensionError creates a DimensionError with a stack trace attached.
func NewDimensionError(op string, expected, got, axis int) error {
	err := &DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}
	return errors.WithStack(err)
}

// ValidationError is returned when a constructor or method parameter fails
// validation.
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("prepro: validation failed for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ValidationError")
}

// NewValidationError creates a ValidationError with a stack trace attached.
func NewValidationError(param, reason string, value interface{}) error {
	err := &ValidationError{ParamName: param, Reason: reason, Value: value}
	return errors.WithStack(err)
}

// ValueError is returned when an argument value is invalid for an operation,
// for example an unseen label passed to LabelEncoder.Transform.
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("prepro: %s: %s", e.Op, e.Message)
}

// NewValueError creates a ValueError with a stack trace attached.
func NewValueError(op, message string) error {
	err := &ValueError{Op: op, Message: message}
	return errors.WithStack(err)
}

// ModelError is a general estimator error wrapping an underlying cause.
type ModelError struct {
	Op   string
	Kind string
	Err  error
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("prepro: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("prepro: %s: %s", e.Op, e.Kind)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// NewModelError creates a ModelError with a stack trace attached.
func NewModelError(op, kind string, err error) error {
	modelErr := &ModelError{Op: op, Kind: kind, Err: err}
	return errors.WithStack(modelErr)
}

// ===========================================================================
//
//	cockroachdb/errors wrappers
//
// ===========================================================================

// Is reports whether err matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain matching target's type.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with a message.
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New creates a new error.
func New(message string) error {
	return errors.New(message)
}

// Newf creates a new formatted error.
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack attaches a stack trace to an error.
func WithStack(err error) error {
	return errors.WithStack(err)
}

// ===========================================================================
//
//	Common sentinel errors
//
// ===========================================================================

var (
	// ErrEmptyData is returned when an empty matrix or vector is passed in.
	ErrEmptyData = New("empty data")

	// ErrSingularMatrix is returned when a linear solve hits a singular matrix.
	ErrSingularMatrix = New("singular matrix")

	// ErrNotImplemented is returned for declared but unimplemented features.
	ErrNotImplemented = New("not implemented")
)
