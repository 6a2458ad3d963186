package common

import (
	"encoding/json"
	"net/http"
	"reflect"
)

// ErrorBody represents a consistent error payload returned by the API.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Envelope is the success body of every API response.
type Envelope struct {
	Data any `json:"data"`
	Meta any `json:"meta,omitempty"`
}

// JSON writes the provided value to the response writer as JSON.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Data writes v inside the {"data": ...} envelope. Nil slices are rendered
// as empty arrays so list endpoints never return null.
func Data(w http.ResponseWriter, status int, v any) {
	JSON(w, status, Envelope{Data: emptyIfNilSlice(v)})
}

// Page writes a list with its paging metadata.
func Page(w http.ResponseWriter, status int, v any, meta any) {
	JSON(w, status, Envelope{Data: emptyIfNilSlice(v), Meta: meta})
}

// JSONError renders an error response using the canonical error shape.
func JSONError(w http.ResponseWriter, status int, code, message string, details any) {
	JSON(w, status, map[string]any{
		"error": ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

func emptyIfNilSlice(v any) any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice && rv.IsNil() {
		return reflect.MakeSlice(rv.Type(), 0, 0).Interface()
	}
	return v
}
