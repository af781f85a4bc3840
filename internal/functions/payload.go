package functions

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
)

// MaxBodyBytes bounds the request body read for a payload.
const MaxBodyBytes = 32 << 20

// routeParam returns the named route parameter, unescaped.
func routeParam(r *http.Request, name string) string {
	value := chi.URLParam(r, name)
	if value == "" {
		return ""
	}
	// chi matches on RawPath when the path needed escaping
	if r.URL.RawPath != "" {
		if unescaped, err := url.PathUnescape(value); err == nil {
			return unescaped
		}
	}
	return value
}

// bodyField returns the raw JSON value of name in the body's top-level
// object. A body that is not a JSON object, or a null value, counts as absent.
// A body over MaxBodyBytes is an error.
func bodyField(r *http.Request, name string) (json.RawMessage, bool, error) {
	if r.Body == nil {
		return nil, false, nil
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, MaxBodyBytes+1))
	if err != nil {
		return nil, false, nil
	}
	if len(data) > MaxBodyBytes {
		return nil, false, errBodyTooLarge
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, false, nil
	}

	raw, ok := fields[name]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, false, nil
	}
	return raw, true, nil
}

// stringField extracts a non-empty string payload from the route or body.
func stringField(r *http.Request, name, missingMessage string) (string, error) {
	if v := routeParam(r, name); v != "" {
		return v, nil
	}

	raw, ok, err := bodyField(r, name)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", missingField(missingMessage)
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", invalidArgument(missingMessage, err)
	}
	if s == "" {
		return "", missingField(missingMessage)
	}
	return s, nil
}
