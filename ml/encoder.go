package ml

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

const (
	ColumnTotalSqft = "total_sqft"
	ColumnBath      = "bath"
	ColumnBHK       = "bhk"

	numBaseColumns = 3
)

// EncodingError reports an input the encoder refuses to place in a vector.
type EncodingError struct {
	Field  string
	Value  interface{}
	Reason string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encode %s=%v: %s", e.Field, e.Value, e.Reason)
}

// FeatureEncoder maps a property description onto the feature layout the
// model was trained with.
type FeatureEncoder struct {
	columns []string
	sqftIdx int
	bathIdx int
	bhkIdx  int
	catalog *LocationCatalog
}

// NewFeatureEncoder builds an encoder from the ordered data columns of the
// training artifact. The first three columns must be total_sqft, bath and
// bhk in whatever order training used; every later column is a location
// indicator. baseline names the location dropped during training and may be
// empty.
func NewFeatureEncoder(columns []string, baseline string) (*FeatureEncoder, error) {
	if len(columns) <= numBaseColumns {
		return nil, fmt.Errorf("expected %d base columns followed by locations, got %d columns", numBaseColumns, len(columns))
	}

	e := &FeatureEncoder{
		columns: append([]string(nil), columns...),
		sqftIdx: -1,
		bathIdx: -1,
		bhkIdx:  -1,
	}
	for i := 0; i < numBaseColumns; i++ {
		switch strings.ToLower(strings.TrimSpace(columns[i])) {
		case ColumnTotalSqft:
			e.sqftIdx = i
		case ColumnBath:
			e.bathIdx = i
		case ColumnBHK:
			e.bhkIdx = i
		default:
			return nil, fmt.Errorf("unexpected base column %q at position %d", columns[i], i)
		}
	}
	if e.sqftIdx < 0 || e.bathIdx < 0 || e.bhkIdx < 0 {
		return nil, errors.New("base columns must be total_sqft, bath and bhk")
	}

	catalog, err := newLocationCatalog(columns[numBaseColumns:], baseline, numBaseColumns)
	if err != nil {
		return nil, err
	}
	e.catalog = catalog
	return e, nil
}

func (e *FeatureEncoder) Catalog() *LocationCatalog {
	return e.catalog
}

// Width is the length of every vector Encode returns.
func (e *FeatureEncoder) Width() int {
	return len(e.columns)
}

func (e *FeatureEncoder) Columns() []string {
	return append([]string(nil), e.columns...)
}

// Encode builds the feature vector for one property.
//
// A location missing from the catalog is encoded like the baseline location,
// with every indicator left at zero. A linear model cannot tell an unseen
// location apart from the reference category, so this is not an error.
func (e *FeatureEncoder) Encode(totalSqft float64, bhk, bath int, location string) ([]float64, error) {
	if math.IsNaN(totalSqft) || math.IsInf(totalSqft, 0) || totalSqft <= 0 {
		return nil, &EncodingError{Field: ColumnTotalSqft, Value: totalSqft, Reason: "must be a positive finite number"}
	}
	if bhk < 1 {
		return nil, &EncodingError{Field: ColumnBHK, Value: bhk, Reason: "must be at least 1"}
	}
	if bath < 1 {
		return nil, &EncodingError{Field: ColumnBath, Value: bath, Reason: "must be at least 1"}
	}

	vector := make([]float64, len(e.columns))
	vector[e.sqftIdx] = totalSqft
	vector[e.bathIdx] = float64(bath)
	vector[e.bhkIdx] = float64(bhk)

	if _, slot, ok := e.catalog.Lookup(location); ok && slot != baselineSlot {
		vector[slot] = 1
	}
	return vector, nil
}
