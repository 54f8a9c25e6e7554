package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ColumnsArtifact is the column layout written by the training job.
type ColumnsArtifact struct {
	DataColumns      []string `json:"data_columns"`
	BaselineLocation string   `json:"baseline_location,omitempty"`
}

func LoadColumns(path string) (*ColumnsArtifact, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}
	var artifact ColumnsArtifact
	if err := json.Unmarshal(payload, &artifact); err != nil {
		return nil, fmt.Errorf("decode columns %s: %w", path, err)
	}
	if len(artifact.DataColumns) <= numBaseColumns {
		return nil, fmt.Errorf("columns %s: data_columns missing or malformed", path)
	}
	return &artifact, nil
}

func (a *ColumnsArtifact) Save(path string) error {
	payload, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o600)
}

// Encoder builds the feature encoder described by the artifact.
func (a *ColumnsArtifact) Encoder() (*FeatureEncoder, error) {
	return NewFeatureEncoder(a.DataColumns, a.BaselineLocation)
}

// VerifyModel checks that model expects exactly the vectors enc produces.
func VerifyModel(enc *FeatureEncoder, model Regressor) error {
	if enc == nil || model == nil {
		return errors.New("encoder and model are required")
	}
	if model.NumFeatures() != enc.Width() {
		return fmt.Errorf("%w: model expects %d features, columns artifact describes %d",
			ErrFeatureMismatch, model.NumFeatures(), enc.Width())
	}
	lr, ok := model.(*LinearRegression)
	if !ok || len(lr.FeatureNames) == 0 {
		return nil
	}
	for i, name := range lr.FeatureNames {
		if name != enc.columns[i] {
			return fmt.Errorf("%w: model feature %d is %q, columns artifact has %q",
				ErrFeatureMismatch, i, name, enc.columns[i])
		}
	}
	return nil
}
