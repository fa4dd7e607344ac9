// Package textjson pulls a JSON object out of free-form model output.
//
// Language models often wrap JSON in a markdown code fence or surround it with
// prose. Extract removes a fence if present and returns the span from the
// first '{' to the last '}'. The span is greedy, so nested objects and trailing
// braces inside string values survive; prose containing braces after the
// object does not.
package textjson

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoObject is returned when the text contains no {...} span.
var ErrNoObject = errors.New("no JSON object found in text")

// Extract returns the candidate JSON object text from s.
func Extract(s string) (string, error) {
	s = StripCodeFence(s)
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", ErrNoObject
	}
	end := strings.LastIndexByte(s, '}')
	if end < start {
		return "", ErrNoObject
	}
	return s[start : end+1], nil
}

// Decode extracts the object from s and unmarshals it into v.
func Decode(s string, v any) error {
	obj, err := Extract(s)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(obj), v); err != nil {
		return fmt.Errorf("decode extracted object: %w", err)
	}
	return nil
}

// StripCodeFence removes a surrounding ``` or ```json fence. Text without a
// leading fence is returned trimmed but otherwise unchanged.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// Drop the info string ("json", "JSON", ...) up to the end of the first line.
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		if info := strings.TrimSpace(s[:nl]); !strings.ContainsAny(info, "{}") {
			s = s[nl+1:]
		}
	}
	if end := strings.LastIndex(s, "```"); end >= 0 {
		s = s[:end]
	}
	return strings.TrimSpace(s)
}
