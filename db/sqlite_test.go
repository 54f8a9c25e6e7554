package db

import (
	"path/filepath"
	"testing"

	"homeprice/ml"
)

func TestArtifactBundle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "artifacts.db")
	columns := &ml.ColumnsArtifact{
		DataColumns:      []string{"total_sqft", "bath", "bhk", "Electronic City", "Whitefield"},
		BaselineLocation: "Other",
	}
	model := &ml.LinearRegression{
		Intercept:    -125000.5,
		Coefficients: []float64{5200, 110000, 180000, -350000, 900000},
	}

	writer, err := CreateArtifactStore(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := writer.SaveArtifacts(columns, model); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Saving again replaces rather than appends.
	if err := writer.SaveArtifacts(columns, model); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	writer.Close()

	store, err := OpenArtifactStore(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer store.Close()

	loadedColumns, err := store.LoadColumns()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(loadedColumns.DataColumns) != 5 || loadedColumns.DataColumns[3] != "Electronic City" {
		t.Fatalf("unexpected columns: %v", loadedColumns.DataColumns)
	}
	if loadedColumns.BaselineLocation != "Other" {
		t.Fatalf("unexpected baseline %q", loadedColumns.BaselineLocation)
	}

	loadedModel, err := store.LoadLinearModel()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	enc, err := loadedColumns.Encoder()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ml.VerifyModel(enc, loadedModel); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	vector := []float64{1000, 2, 2, 0, 1}
	want, _ := model.Predict(vector)
	got, err := loadedModel.Predict(vector)
	if err != nil || got != want {
		t.Fatalf("expected %v, got %v (%v)", want, got, err)
	}
}

func TestOpenArtifactStoreMissingFile(t *testing.T) {
	if _, err := OpenArtifactStore(filepath.Join(t.TempDir(), "missing.db")); err == nil {
		t.Fatal("expected error opening missing bundle read-only")
	}
}

func TestLoadFromEmptyBundle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.db")
	store, err := CreateArtifactStore(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer store.Close()

	if _, err := store.LoadColumns(); err == nil {
		t.Fatal("expected error for bundle without columns")
	}
	if _, err := store.LoadLinearModel(); err == nil {
		t.Fatal("expected error for bundle without model")
	}
}
