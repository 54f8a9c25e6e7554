package predict

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Request field names, shared by the JSON and form encodings.
const (
	FieldTotalSqft = "total_sqft"
	FieldLocation  = "location"
	FieldBHK       = "bhk"
	FieldBath      = "bath"
)

const maxRoomCount = math.MaxInt32

// Query is a validated prediction request.
type Query struct {
	TotalSqft float64
	BHK       int
	Bath      int
	Location  string
}

// Validate checks every field of a loosely-typed request and returns either
// a Query or a *ValidationError naming all invalid fields.
//
// Numbers may arrive as JSON numbers or numeric strings. bhk and bath must be
// whole numbers, so "2.0" is accepted and "2.5" is not. A missing key, null,
// "null" and "" all count as missing.
func Validate(raw map[string]interface{}) (Query, error) {
	var (
		q    Query
		errs []FieldError
	)
	fail := func(field, format string, args ...interface{}) {
		errs = append(errs, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	sqft, present, ok := numberField(raw, FieldTotalSqft)
	switch {
	case !present:
		fail(FieldTotalSqft, "%s is required", FieldTotalSqft)
	case !ok:
		fail(FieldTotalSqft, "%s must be a number", FieldTotalSqft)
	case math.IsNaN(sqft) || math.IsInf(sqft, 0):
		fail(FieldTotalSqft, "%s must be a finite number", FieldTotalSqft)
	case sqft <= 0:
		fail(FieldTotalSqft, "%s must be greater than 0", FieldTotalSqft)
	default:
		q.TotalSqft = sqft
	}

	switch v := raw[FieldLocation].(type) {
	case nil:
		fail(FieldLocation, "%s is required", FieldLocation)
	case string:
		if loc := strings.TrimSpace(v); loc == "" {
			fail(FieldLocation, "%s must not be empty", FieldLocation)
		} else {
			q.Location = loc
		}
	default:
		fail(FieldLocation, "%s must be a string", FieldLocation)
	}

	q.BHK = countField(raw, FieldBHK, fail)
	q.Bath = countField(raw, FieldBath, fail)

	if len(errs) > 0 {
		return Query{}, &ValidationError{Fields: errs}
	}
	return q, nil
}

func countField(raw map[string]interface{}, field string, fail func(string, string, ...interface{})) int {
	n, present, ok := numberField(raw, field)
	switch {
	case !present:
		fail(field, "%s is required", field)
	case !ok || math.IsNaN(n) || math.IsInf(n, 0):
		fail(field, "%s must be a number", field)
	case n != math.Trunc(n):
		fail(field, "%s must be a whole number", field)
	case n < 1:
		fail(field, "%s must be at least 1", field)
	case n > maxRoomCount:
		fail(field, "%s is too large", field)
	default:
		return int(n)
	}
	return 0
}

// numberField reads a numeric field. present is false when the field is
// missing or blank; ok is false when it is present but not numeric.
func numberField(raw map[string]interface{}, field string) (value float64, present, ok bool) {
	switch v := raw[field].(type) {
	case nil:
		return 0, false, false
	case json.Number:
		f, err := strconv.ParseFloat(v.String(), 64)
		return f, true, err == nil
	case float64:
		return v, true, true
	case float32:
		return float64(v), true, true
	case int:
		return float64(v), true, true
	case int64:
		return float64(v), true, true
	case string:
		s := strings.TrimSpace(v)
		if s == "" || strings.EqualFold(s, "null") {
			return 0, false, false
		}
		f, err := strconv.ParseFloat(s, 64)
		return f, true, err == nil
	default:
		return 0, true, false
	}
}
