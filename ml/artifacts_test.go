package ml

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadColumns(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "columns.json")
	artifact := &ColumnsArtifact{DataColumns: testColumns, BaselineLocation: "Other"}
	if err := artifact.Save(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	loaded, err := LoadColumns(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	enc, err := loaded.Encoder()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if enc.Catalog().Baseline() != "Other" || enc.Catalog().Len() != 5 {
		t.Fatalf("unexpected catalog: %v", enc.Catalog().Names())
	}

	malformed := filepath.Join(dir, "malformed.json")
	if err := os.WriteFile(malformed, []byte(`{"data_columns":["total_sqft"]}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadColumns(malformed); err == nil {
		t.Fatal("expected error for short data_columns")
	}
}

func TestVerifyModel(t *testing.T) {
	enc := newTestEncoder(t, "")

	ok := &LinearRegression{Coefficients: make([]float64, len(testColumns)), FeatureNames: testColumns}
	if err := VerifyModel(enc, ok); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	narrow := &LinearRegression{Coefficients: make([]float64, len(testColumns)-1)}
	if err := VerifyModel(enc, narrow); !errors.Is(err, ErrFeatureMismatch) {
		t.Fatalf("expected ErrFeatureMismatch, got %v", err)
	}

	renamed := append([]string(nil), testColumns...)
	renamed[1], renamed[2] = renamed[2], renamed[1]
	swapped := &LinearRegression{Coefficients: make([]float64, len(testColumns)), FeatureNames: renamed}
	if err := VerifyModel(enc, swapped); !errors.Is(err, ErrFeatureMismatch) {
		t.Fatalf("expected ErrFeatureMismatch, got %v", err)
	}
}
