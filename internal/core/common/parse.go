package common

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DecodeArray isolates and unmarshals the first JSON array in an LLM
// response. It tolerates surrounding prose and markdown fences but insists
// the isolated substring decodes to an array of T; anything else is an
// error the caller turns into "no results". Lenient decoding stays inside
// this function and does not leak past the parse boundary.
func DecodeArray[T any](response string) ([]T, error) {
	text := StripFences(response)

	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no JSON array found in response")
	}

	var out []T
	if err := json.Unmarshal([]byte(text[start:end+1]), &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON array: %w", err)
	}
	return out, nil
}

// StripFences removes a surrounding markdown code fence, if present.
func StripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	lines := strings.Split(text, "\n")
	if len(lines) > 1 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[1 : len(lines)-1]
	} else {
		lines = lines[1:]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// Truncate caps s at max runes. LLM output caps are character counts, not
// byte counts, so multi-byte text never gets split mid-rune.
func Truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
