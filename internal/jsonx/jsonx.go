// Package jsonx extracts JSON values embedded in free-form model output.
//
// Language models rarely return bare JSON: they wrap it in commentary, code
// fences, or apologies. Instead of requiring the whole message to parse,
// this package scans for the first balanced object or array span and decodes
// only that. Strictness here would turn harmless chatter into failures, so
// the scanners are deliberately lenient about surrounding text while staying
// exact about JSON string and escape rules inside the span.
package jsonx

import (
	"encoding/json"
	"errors"
)

// ErrNoValue indicates that no balanced JSON span was found in the input.
var ErrNoValue = errors.New("no JSON value found")

// FirstObject returns the first balanced {...} span in s.
// Braces inside JSON strings are ignored. Returns ErrNoValue when the text
// contains no object or the first candidate never closes.
func FirstObject(s string) (string, error) {
	return firstSpan(s, '{', '}')
}

// FirstArray returns the first balanced [...] span in s, with the same
// string-awareness as FirstObject.
func FirstArray(s string) (string, error) {
	return firstSpan(s, '[', ']')
}

// firstSpan scans for the first balanced open..close span, tracking JSON
// string boundaries so that delimiters inside quoted text do not count.
func firstSpan(s string, open, close byte) (string, error) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			// Quotes before the span opens belong to surrounding prose,
			// not to a JSON string.
			if start != -1 {
				inString = true
			}
		case open:
			if start == -1 {
				start = i
			}
			depth++
		case close:
			if start == -1 {
				continue
			}
			depth--
			if depth == 0 {
				return s[start : i+1], nil
			}
		}
	}

	return "", ErrNoValue
}

// DecodeObject locates the first balanced object span in s and unmarshals it
// into v. The span must be valid JSON; a malformed span is an error even
// when a later well-formed object exists, matching the "first candidate
// wins" contract of FirstObject.
func DecodeObject(s string, v any) error {
	span, err := FirstObject(s)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(span), v)
}

// StringArray locates the first balanced array span in s and decodes it as a
// JSON array of strings.
func StringArray(s string) ([]string, error) {
	span, err := FirstArray(s)
	if err != nil {
		return nil, err
	}
	var out []string
	if err := json.Unmarshal([]byte(span), &out); err != nil {
		return nil, err
	}
	return out, nil
}
