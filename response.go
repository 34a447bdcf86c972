package qbitapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
)

// Result is a raw API response awaiting casting into the shape the caller
// asked for: plain text, integer, bytes, or a structured JSON value.
type Result struct {
	StatusCode int
	Header     http.Header

	cookies []*http.Cookie
	body    []byte
	simple  bool
}

// Text returns the response body as a string.
func (r *Result) Text() string {
	return string(r.body)
}

// Bytes returns the raw response body.
func (r *Result) Bytes() []byte {
	return r.body
}

// Int parses the response body as an integer.
func (r *Result) Int() (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(string(r.body)))
	if err != nil {
		return 0, &ResponseParseError{Err: err}
	}
	return n, nil
}

// Int64 parses the response body as a 64-bit integer.
func (r *Result) Int64() (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(string(r.body)), 10, 64)
	if err != nil {
		return 0, &ResponseParseError{Err: err}
	}
	return n, nil
}

// JSON decodes the response body into v. Malformed JSON or an unexpected
// shape returns a ResponseParseError; a decode failure is never papered over
// with a zero value.
func (r *Result) JSON(v any) error {
	if err := json.Unmarshal(r.body, v); err != nil {
		return &ResponseParseError{Err: err}
	}
	return nil
}

// SimpleJSON decodes the response body into plain Go values (maps, slices,
// numbers) without any rich typing - the simple-responses shape.
func (r *Result) SimpleJSON() (any, error) {
	var v any
	if err := json.Unmarshal(r.body, &v); err != nil {
		return nil, &ResponseParseError{Err: err}
	}
	return v, nil
}

// Simple reports whether this response was requested in simple-responses
// mode. Domain methods use it to decide whether to bind decoded records to
// the client.
func (r *Result) Simple() bool {
	return r.simple
}
