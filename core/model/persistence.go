package model

import (
	"encoding/gob"
	"fmt"
	"io"
	"os"
)

// SaveModel writes a fitted estimator to a file using gob encoding.
// The estimator must be a struct (typically embedding BaseEstimator) whose
// exported fields capture the fitted state.
//
// Example:
//
//	scaler := preprocessing.NewStandardScalerDefault()
//	// ... fit ...
//	err := model.SaveModel(scaler, "scaler.gob")
func SaveModel(model interface{}, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	encoder := gob.NewEncoder(file)
	if err := encoder.Encode(model); err != nil {
		return fmt.Errorf("failed to encode model: %w", err)
	}

	return nil
}

// LoadModel reads a gob-encoded estimator from a file into model, which
// must be a pointer to the matching struct type.
func LoadModel(model interface{}, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	decoder := gob.NewDecoder(file)
	if err := decoder.Decode(model); err != nil {
		return fmt.Errorf("failed to decode model: %w", err)
	}

	return nil
}

// SaveModelToWriter writes a fitted estimator to w using gob encoding.
func SaveModelToWriter(model interface{}, w io.Writer) error {
	encoder := gob.NewEncoder(w)
	if err := encoder.Encode(model); err != nil {
		return fmt.Errorf("failed to encode model: %w", err)
	}
	return nil
}

// LoadModelFromReader reads a gob-encoded estimator from r into model.
func LoadModelFromReader(model interface{}, r io.Reader) error {
	decoder := gob.NewDecoder(r)
	if err := decoder.Decode(model); err != nil {
		return fmt.Errorf("failed to decode model: %w", err)
	}
	return nil
}
