package validation

import (
	"fmt"
	"strings"
)

// Kinds classify why a field was rejected.
const (
	KindRequired      = "required"
	KindTooSmall      = "too_small"
	KindTooBig        = "too_big"
	KindInvalidFormat = "invalid_format"
	KindInvalidEnum   = "invalid_enum"
	KindMismatch      = "mismatch"
	KindInvalidType   = "invalid_type"
	KindInvalidJSON   = "invalid_json"
	KindCustom        = "custom"
)

// FieldError describes one rejected field. Field uses the JSON name.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Kind    string `json:"kind"`
}

// Errors is the ordered list of field errors for one rejected input.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fmt.Sprintf("%s: %s", fe.Field, fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Fields returns the names of the rejected fields, in order.
func (e Errors) Fields() []string {
	out := make([]string, len(e))
	for i, fe := range e {
		out[i] = fe.Field
	}
	return out
}

// Single builds an Errors value holding one field error.
func Single(field, kind, message string) Errors {
	return Errors{{Field: field, Message: message, Kind: kind}}
}
