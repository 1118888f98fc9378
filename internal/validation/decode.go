package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
)

// DecodeJSON decodes a JSON request body into dst. Fields already set in
// dst are kept unless the body overrides them, so a partial body can be
// overlaid on an existing value.
//
// Malformed input is reported as Errors; a body over the server's size
// limit is returned as *http.MaxBytesError.
func DecodeJSON(r io.Reader, dst any) error {
	err := json.NewDecoder(r).Decode(dst)
	if err == nil {
		return nil
	}

	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
		maxErr    *http.MaxBytesError
	)
	switch {
	case errors.Is(err, io.EOF):
		return Single("body", KindRequired, "Request body is required")
	case errors.As(err, &maxErr):
		return err
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return Single("body", KindInvalidJSON, "Request body is not valid JSON")
	case errors.As(err, &typeErr):
		field := typeErr.Field
		if field == "" {
			return Single("body", KindInvalidType, "Request body must be a JSON object")
		}
		return Single(field, KindInvalidType,
			fmt.Sprintf("%s must be %s, got %s", field, jsonTypeName(typeErr.Type), typeErr.Value))
	default:
		return Single("body", KindInvalidJSON, err.Error())
	}
}

func jsonTypeName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return "a string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "an integer"
	case reflect.Float32, reflect.Float64:
		return "a number"
	case reflect.Bool:
		return "a boolean"
	case reflect.Slice, reflect.Array:
		return "an array"
	default:
		return "an object"
	}
}
