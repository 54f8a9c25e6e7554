package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	_ "github.com/mattn/go-sqlite3"

	"homeprice/ml"
)

const schema = `
    CREATE TABLE IF NOT EXISTS data_columns (
        position INTEGER PRIMARY KEY,
        name TEXT NOT NULL
    );
    CREATE TABLE IF NOT EXISTS coefficients (
        position INTEGER PRIMARY KEY,
        value REAL NOT NULL
    );
    CREATE TABLE IF NOT EXISTS artifact_meta (
        key TEXT PRIMARY KEY,
        value TEXT NOT NULL
    );
    `

const (
	metaBaselineLocation = "baseline_location"
	metaModelType        = "model_type"
	metaIntercept        = "intercept"
)

// ArtifactStore keeps the columns artifact and the trained model in a single
// SQLite file.
type ArtifactStore struct {
	db *sql.DB
}

// OpenArtifactStore opens a bundle for reading.
func OpenArtifactStore(path string) (*ArtifactStore, error) {
	database, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, err
	}
	if err := database.Ping(); err != nil {
		database.Close()
		return nil, fmt.Errorf("open artifact bundle %s: %w", path, err)
	}
	return &ArtifactStore{db: database}, nil
}

// CreateArtifactStore opens or creates a bundle for writing.
func CreateArtifactStore(path string) (*ArtifactStore, error) {
	database, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := database.Exec(schema); err != nil {
		database.Close()
		return nil, fmt.Errorf("create artifact schema: %w", err)
	}
	return &ArtifactStore{db: database}, nil
}

func (s *ArtifactStore) Close() error {
	return s.db.Close()
}

// SaveArtifacts replaces the bundle contents in one transaction.
func (s *ArtifactStore) SaveArtifacts(columns *ml.ColumnsArtifact, model *ml.LinearRegression) error {
	if columns == nil || model == nil {
		return errors.New("columns and model are required")
	}
	if err := model.Validate(); err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	if err := saveArtifacts(tx, columns, model); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func saveArtifacts(tx *sql.Tx, columns *ml.ColumnsArtifact, model *ml.LinearRegression) error {
	for _, table := range []string{"data_columns", "coefficients", "artifact_meta"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return err
		}
	}

	columnStmt, err := tx.Prepare(`INSERT INTO data_columns (position, name) VALUES (?, ?)`)
	if err != nil {
		return err
	}
	defer columnStmt.Close()
	for i, name := range columns.DataColumns {
		if _, err := columnStmt.Exec(i, name); err != nil {
			return err
		}
	}

	coefStmt, err := tx.Prepare(`INSERT INTO coefficients (position, value) VALUES (?, ?)`)
	if err != nil {
		return err
	}
	defer coefStmt.Close()
	for i, c := range model.Coefficients {
		if _, err := coefStmt.Exec(i, c); err != nil {
			return err
		}
	}

	meta := map[string]string{
		metaModelType: ml.ModelTypeLinearRegression,
		metaIntercept: strconv.FormatFloat(model.Intercept, 'g', -1, 64),
	}
	if columns.BaselineLocation != "" {
		meta[metaBaselineLocation] = columns.BaselineLocation
	}
	for k, v := range meta {
		if _, err := tx.Exec(`INSERT INTO artifact_meta (key, value) VALUES (?, ?)`, k, v); err != nil {
			return err
		}
	}
	return nil
}

// LoadColumns reads the columns artifact from the bundle.
func (s *ArtifactStore) LoadColumns() (*ml.ColumnsArtifact, error) {
	rows, err := s.db.Query(`SELECT name FROM data_columns ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query data columns: %w", err)
	}
	defer rows.Close()

	artifact := &ml.ColumnsArtifact{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		artifact.DataColumns = append(artifact.DataColumns, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(artifact.DataColumns) == 0 {
		return nil, errors.New("artifact bundle has no data columns")
	}

	baseline, _, err := s.meta(metaBaselineLocation)
	if err != nil {
		return nil, err
	}
	artifact.BaselineLocation = baseline
	return artifact, nil
}

// LoadLinearModel reads the model from the bundle. Feature names are taken
// from the stored data columns.
func (s *ArtifactStore) LoadLinearModel() (*ml.LinearRegression, error) {
	modelType, ok, err := s.meta(metaModelType)
	if err != nil {
		return nil, err
	}
	if ok && modelType != ml.ModelTypeLinearRegression {
		return nil, fmt.Errorf("unsupported model type %q", modelType)
	}

	interceptText, ok, err := s.meta(metaIntercept)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.New("artifact bundle has no intercept")
	}
	intercept, err := strconv.ParseFloat(interceptText, 64)
	if err != nil {
		return nil, fmt.Errorf("parse intercept: %w", err)
	}

	rows, err := s.db.Query(`SELECT value FROM coefficients ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query coefficients: %w", err)
	}
	defer rows.Close()

	model := &ml.LinearRegression{Intercept: intercept}
	for rows.Next() {
		var c float64
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		model.Coefficients = append(model.Coefficients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	columns, err := s.LoadColumns()
	if err != nil {
		return nil, err
	}
	model.FeatureNames = columns.DataColumns

	if err := model.Validate(); err != nil {
		return nil, fmt.Errorf("artifact bundle: %w", err)
	}
	return model, nil
}

func (s *ArtifactStore) meta(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM artifact_meta WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read %s: %w", key, err)
	}
	return value, true, nil
}
