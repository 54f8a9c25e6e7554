package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"homeprice/db"
	"homeprice/ml"
)

func main() {
	columnsPath := flag.String("columns", "./artifacts/columns.json", "columns artifact path")
	modelPath := flag.String("model", "./artifacts/model.json", "linear model artifact path")
	bundlePath := flag.String("out", "./artifacts/artifacts.db", "SQLite bundle output path")
	flag.Parse()

	if err := pack(*columnsPath, *modelPath, *bundlePath); err != nil {
		log.Fatalf("failed to pack artifacts: %v", err)
	}
	fmt.Printf("artifacts packed into %s\n", *bundlePath)
}

// pack checks that the two JSON artifacts agree and writes them into one
// SQLite bundle.
func pack(columnsPath, modelPath, bundlePath string) error {
	columns, err := ml.LoadColumns(columnsPath)
	if err != nil {
		return err
	}
	model := &ml.LinearRegression{}
	if err := model.Load(modelPath); err != nil {
		return err
	}

	encoder, err := columns.Encoder()
	if err != nil {
		return fmt.Errorf("columns artifact: %w", err)
	}
	if err := ml.VerifyModel(encoder, model); err != nil {
		return err
	}
	log.Printf("columns=%d locations=%d baseline=%q", encoder.Width(), encoder.Catalog().Len(), encoder.Catalog().Baseline())

	if err := os.MkdirAll(filepath.Dir(bundlePath), 0o755); err != nil {
		return fmt.Errorf("create bundle dir: %w", err)
	}
	store, err := db.CreateArtifactStore(bundlePath)
	if err != nil {
		return err
	}
	defer store.Close()

	return store.SaveArtifacts(columns, model)
}
