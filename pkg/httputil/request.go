package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/gorilla/mux"
)

// ErrNotJSON is returned when a request body is not declared as JSON
var ErrNotJSON = errors.New("request content type is not application/json")

// IsJSON reports whether the request declares a JSON body. Media type
// parameters such as charset are allowed.
func IsJSON(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(ct)
	return err == nil && mediaType == "application/json"
}

// ParseStrictJSON requires a JSON content type and decodes exactly one JSON
// value, rejecting fields dest does not declare.
func ParseStrictJSON(r *http.Request, dest interface{}) error {
	if !IsJSON(r) {
		return ErrNotJSON
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid JSON: unexpected data after the body")
	}
	return nil
}

// ParsePathString extracts a string path parameter
func ParsePathString(r *http.Request, key string) (string, error) {
	str := mux.Vars(r)[key]
	if str == "" {
		return "", fmt.Errorf("missing path parameter: %s", key)
	}
	return str, nil
}
