package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
)

var ErrFeatureMismatch = errors.New("feature vector length does not match model")

type LinearRegression struct {
	Intercept    float64   `json:"intercept"`
	Coefficients []float64 `json:"coefficients"`
	// FeatureNames is optional; when present it must line up with the
	// columns artifact.
	FeatureNames []string `json:"feature_names,omitempty"`
}

func (lr *LinearRegression) NumFeatures() int {
	return len(lr.Coefficients)
}

// Predict returns the raw linear estimate. The result is not clamped, so
// extreme inputs can produce negative values.
func (lr *LinearRegression) Predict(features []float64) (float64, error) {
	if len(lr.Coefficients) == 0 {
		return 0, errors.New("model not loaded")
	}
	if len(features) != len(lr.Coefficients) {
		return 0, fmt.Errorf("%w: got %d, want %d", ErrFeatureMismatch, len(features), len(lr.Coefficients))
	}
	sum := lr.Intercept
	for i, x := range features {
		sum += lr.Coefficients[i] * x
	}
	return sum, nil
}

func (lr *LinearRegression) Validate() error {
	if len(lr.Coefficients) == 0 {
		return errors.New("model has no coefficients")
	}
	if math.IsNaN(lr.Intercept) || math.IsInf(lr.Intercept, 0) {
		return errors.New("model intercept is not finite")
	}
	for i, c := range lr.Coefficients {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return fmt.Errorf("coefficient %d is not finite", i)
		}
	}
	if len(lr.FeatureNames) > 0 && len(lr.FeatureNames) != len(lr.Coefficients) {
		return fmt.Errorf("model lists %d feature names for %d coefficients", len(lr.FeatureNames), len(lr.Coefficients))
	}
	return nil
}

func (lr *LinearRegression) Save(path string) error {
	if err := lr.Validate(); err != nil {
		return err
	}
	payload, err := json.MarshalIndent(lr, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o600)
}

func (lr *LinearRegression) Load(path string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read model: %w", err)
	}
	var loaded LinearRegression
	if err := json.Unmarshal(payload, &loaded); err != nil {
		return fmt.Errorf("decode model %s: %w", path, err)
	}
	if err := loaded.Validate(); err != nil {
		return fmt.Errorf("model %s: %w", path, err)
	}
	*lr = loaded
	return nil
}
