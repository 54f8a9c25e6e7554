package ml

import (
	"errors"
	"math"
	"testing"
)

var testColumns = []string{
	"total_sqft", "bath", "bhk",
	"1st Block Jayanagar", "Electronic City", "Whitefield", "Yerawada, Pune",
}

func newTestEncoder(t *testing.T, baseline string) *FeatureEncoder {
	t.Helper()
	enc, err := NewFeatureEncoder(testColumns, baseline)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return enc
}

func countOnes(vector []float64) int {
	n := 0
	for _, v := range vector[numBaseColumns:] {
		if v == 1 {
			n++
		} else if v != 0 {
			return -1
		}
	}
	return n
}

func TestEncodeLayout(t *testing.T) {
	enc := newTestEncoder(t, "")

	vector, err := enc.Encode(1000, 2, 3, "Whitefield")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vector) != enc.Width() || enc.Width() != len(testColumns) {
		t.Fatalf("expected width %d, got %d", len(testColumns), len(vector))
	}
	if vector[0] != 1000 || vector[1] != 3 || vector[2] != 2 {
		t.Fatalf("unexpected base slots: %v", vector[:3])
	}
	if vector[5] != 1 {
		t.Fatalf("expected Whitefield slot set: %v", vector)
	}
	if countOnes(vector) != 1 {
		t.Fatalf("expected exactly one location slot: %v", vector)
	}
}

func TestEncodeFollowsArtifactColumnOrder(t *testing.T) {
	enc, err := NewFeatureEncoder([]string{"total_sqft", "bhk", "bath", "Whitefield"}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	vector, err := enc.Encode(750, 4, 1, "whitefield")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []float64{750, 4, 1, 1}
	for i := range want {
		if vector[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, vector)
		}
	}
}

func TestEncodeUnknownLocationUsesBaseline(t *testing.T) {
	enc := newTestEncoder(t, "")

	vector, err := enc.Encode(1200, 3, 2, "Nonexistent Place Zzz")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vector) != enc.Width() {
		t.Fatalf("expected width %d, got %d", enc.Width(), len(vector))
	}
	if countOnes(vector) != 0 {
		t.Fatalf("expected all location slots zero: %v", vector)
	}
}

func TestEncodeNamedBaseline(t *testing.T) {
	enc := newTestEncoder(t, "Other")

	if enc.Width() != len(testColumns) {
		t.Fatalf("baseline must not add a slot: width %d", enc.Width())
	}
	names := enc.Catalog().Names()
	if len(names) != len(testColumns)-numBaseColumns+1 || names[0] != "Other" {
		t.Fatalf("unexpected catalog: %v", names)
	}

	vector, err := enc.Encode(1200, 3, 2, "other")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if countOnes(vector) != 0 {
		t.Fatalf("expected baseline encoding: %v", vector)
	}
}

func TestEncodeLocationMatching(t *testing.T) {
	enc := newTestEncoder(t, "")

	cases := []string{"Electronic City", "electronic city", "  ELECTRONIC CITY\t"}
	for _, loc := range cases {
		vector, err := enc.Encode(900, 2, 2, loc)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if vector[4] != 1 || countOnes(vector) != 1 {
			t.Fatalf("location %q not matched: %v", loc, vector)
		}
	}

	name, _, ok := enc.Catalog().Lookup("yerawada, pune")
	if !ok || name != "Yerawada, Pune" {
		t.Fatalf("expected canonical spelling, got %q ok=%v", name, ok)
	}
}

func TestEncodeRejectsInvalidInput(t *testing.T) {
	enc := newTestEncoder(t, "")

	tests := []struct {
		name  string
		sqft  float64
		bhk   int
		bath  int
		field string
	}{
		{"zero sqft", 0, 2, 2, ColumnTotalSqft},
		{"negative sqft", -10, 2, 2, ColumnTotalSqft},
		{"nan sqft", math.NaN(), 2, 2, ColumnTotalSqft},
		{"inf sqft", math.Inf(1), 2, 2, ColumnTotalSqft},
		{"zero bhk", 1000, 0, 2, ColumnBHK},
		{"zero bath", 1000, 2, 0, ColumnBath},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := enc.Encode(tt.sqft, tt.bhk, tt.bath, "Whitefield")
			var encErr *EncodingError
			if !errors.As(err, &encErr) {
				t.Fatalf("expected EncodingError, got %v", err)
			}
			if encErr.Field != tt.field {
				t.Fatalf("expected field %s, got %s", tt.field, encErr.Field)
			}
		})
	}
}

func TestNewFeatureEncoderRejectsBadSchema(t *testing.T) {
	tests := []struct {
		name     string
		columns  []string
		baseline string
	}{
		{"too few columns", []string{"total_sqft", "bath", "bhk"}, ""},
		{"unknown base column", []string{"total_sqft", "bath", "balcony", "Whitefield"}, ""},
		{"repeated base column", []string{"total_sqft", "bath", "bath", "Whitefield"}, ""},
		{"empty location", []string{"total_sqft", "bath", "bhk", " "}, ""},
		{"duplicate location", []string{"total_sqft", "bath", "bhk", "Whitefield", "WHITEFIELD"}, ""},
		{"baseline with column", []string{"total_sqft", "bath", "bhk", "Whitefield"}, "whitefield"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewFeatureEncoder(tt.columns, tt.baseline); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestCatalogNamesIsCopy(t *testing.T) {
	enc := newTestEncoder(t, "")
	names := enc.Catalog().Names()
	names[0] = "mutated"
	if enc.Catalog().Names()[0] != "1st Block Jayanagar" {
		t.Fatal("catalog mutated through Names()")
	}
}
