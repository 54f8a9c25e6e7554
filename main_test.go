package main

import (
	"errors"
	"path/filepath"
	"testing"

	"homeprice/config"
	"homeprice/db"
	"homeprice/ml"
)

func writeArtifacts(t *testing.T, dir string, coefficients int) *config.Config {
	t.Helper()
	columns := &ml.ColumnsArtifact{DataColumns: []string{"total_sqft", "bath", "bhk", "Hebbal", "Whitefield"}}
	model := &ml.LinearRegression{Intercept: 250000, Coefficients: make([]float64, coefficients)}
	for i := range model.Coefficients {
		model.Coefficients[i] = float64(1000 * (i + 1))
	}

	cfg := config.Default()
	cfg.Artifacts.ColumnsPath = filepath.Join(dir, "columns.json")
	cfg.Artifacts.ModelPath = filepath.Join(dir, "model.json")
	cfg.Artifacts.BundlePath = filepath.Join(dir, "artifacts.db")
	if err := columns.Save(cfg.Artifacts.ColumnsPath); err != nil {
		t.Fatal(err)
	}
	if err := model.Save(cfg.Artifacts.ModelPath); err != nil {
		t.Fatal(err)
	}
	return cfg
}

func TestLoadArtifactsJSON(t *testing.T) {
	cfg := writeArtifacts(t, t.TempDir(), 5)

	encoder, model, err := loadArtifacts(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if encoder.Width() != 5 || model.NumFeatures() != 5 || encoder.Catalog().Len() != 2 {
		t.Fatalf("unexpected artifacts: width=%d features=%d", encoder.Width(), model.NumFeatures())
	}
}

func TestLoadArtifactsSQLite(t *testing.T) {
	cfg := writeArtifacts(t, t.TempDir(), 5)

	columns, err := ml.LoadColumns(cfg.Artifacts.ColumnsPath)
	if err != nil {
		t.Fatal(err)
	}
	model := &ml.LinearRegression{}
	if err := model.Load(cfg.Artifacts.ModelPath); err != nil {
		t.Fatal(err)
	}
	store, err := db.CreateArtifactStore(cfg.Artifacts.BundlePath)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.SaveArtifacts(columns, model); err != nil {
		t.Fatal(err)
	}
	store.Close()

	cfg.Artifacts.Source = config.SourceSQLite
	encoder, loaded, err := loadArtifacts(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	vector, err := encoder.Encode(1000, 2, 2, "Hebbal")
	if err != nil {
		t.Fatal(err)
	}
	want, _ := model.Predict(vector)
	if got, err := loaded.Predict(vector); err != nil || got != want {
		t.Fatalf("expected %v, got %v (%v)", want, got, err)
	}
}

func TestLoadArtifactsWidthMismatch(t *testing.T) {
	cfg := writeArtifacts(t, t.TempDir(), 4)

	_, _, err := loadArtifacts(cfg)
	if !errors.Is(err, ml.ErrFeatureMismatch) {
		t.Fatalf("expected ErrFeatureMismatch, got %v", err)
	}
}
