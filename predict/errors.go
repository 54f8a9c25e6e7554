package predict

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEncodingContract means validated input was still refused by the
	// feature encoder. It is a server fault, not a client one.
	ErrEncodingContract = errors.New("feature encoding contract violated")
	// ErrModelUnavailable means the model is missing or its inference failed.
	ErrModelUnavailable = errors.New("model unavailable")
)

// FieldError describes one invalid request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every invalid field of a request.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Message
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(msgs, "; "))
}

// HasField reports whether field is among the failures.
func (e *ValidationError) HasField(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}
