// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP
// request data: month parameter extraction, body parsing for both
// JSON and form-encoded payloads, and method guards.

package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// MonthParams holds parsed year/month values from request parameters.
type MonthParams struct {
	Year  int
	Month int
}

// ParseMonthParams extracts year and month from query parameters,
// using the current date as defaults. Months outside 1..12 fall back
// to the current month.
func ParseMonthParams(query url.Values) MonthParams {
	now := time.Now()
	params := MonthParams{
		Year:  now.Year(),
		Month: int(now.Month()),
	}

	if v := strings.TrimSpace(query.Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil && y > 0 {
			params.Year = y
		}
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		if m, err := strconv.Atoi(v); err == nil && m >= 1 && m <= 12 {
			params.Month = m
		}
	}

	return params
}

// RequestBodyParser handles different content types for request body
// parsing. It supports both JSON and form-encoded data, commonly used
// with HTMX delete requests.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]interface{}
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}

	p.body, p.err = io.ReadAll(r.Body)
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if strings.Contains(p.contentType, "application/json") {
		p.err = json.Unmarshal(p.body, &p.jsonData)
		return p.err
	}

	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Get returns the sanitized value for a key from whichever encoding
// the body carried.
func (p *RequestBodyParser) Get(key string) string {
	if err := p.Parse(); err != nil {
		return ""
	}

	if p.jsonData != nil {
		return sanitizeInput(stringValue(p.jsonData[key]))
	}
	return sanitizeInput(p.formData.Get(key))
}

// IsJSON reports whether the request carried a JSON body.
func (p *RequestBodyParser) IsJSON() bool {
	return strings.Contains(p.contentType, "application/json")
}

// stringValue converts a decoded JSON value to a string.
func stringValue(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// RequireMethod validates the request method against the allowed list.
// It returns nil when the method is acceptable, otherwise a prepared
// 405 response.
func RequireMethod(r *http.Request, methods ...string) *HTMXResponseBuilder {
	for _, m := range methods {
		if r.Method == m {
			return nil
		}
	}
	return MethodNotAllowedError(strings.Join(methods, ", "))
}

// RequirePOST validates that the request uses POST.
func RequirePOST(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodPost)
}

// RequireDeleteOrPOST validates that the request uses DELETE or POST.
// HTML forms cannot issue DELETE, so POST is accepted as an alias.
func RequireDeleteOrPOST(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodDelete, http.MethodPost)
}

// ParseFormOrFail parses the request form, writing a 400 response on
// failure. It reports whether parsing succeeded.
func ParseFormOrFail(w http.ResponseWriter, r *http.Request) bool {
	if err := r.ParseForm(); err != nil {
		BadRequest("요청 형식이 올바르지 않습니다").Write(w)
		return false
	}
	return true
}
