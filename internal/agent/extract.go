package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	"careerpilot-backend/internal/shared/telemetry"
)

// ParseError reports that no usable structure could be recovered from a
// completion response. It is retryable: the model can be asked again.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string { return "extract structured response: " + e.Reason }

// ExtractJSON locates the outermost JSON object or array in free-form model
// output, tolerating surrounding prose and code-fence markers.
func ExtractJSON(raw string) (json.RawMessage, error) {
	text := stripCodeFences(raw)
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, &ParseError{Reason: "empty response"}
	}

	start := -1
	for i, r := range text {
		if r == '{' || r == '[' {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, &ParseError{Reason: "no JSON object or array found"}
	}

	candidate := text[start:]
	end := balancedEnd(candidate)
	if end < 0 {
		// Unbalanced output, often truncated generation. Fall back to the
		// whole tail so json.Valid gives the final verdict.
		end = len(candidate)
	}
	payload := json.RawMessage(candidate[:end])
	if !json.Valid(payload) {
		return nil, &ParseError{Reason: "located JSON is invalid"}
	}
	return payload, nil
}

// Decode extracts and unmarshals the JSON payload in raw into T.
func Decode[T any](raw string) (T, error) {
	var out T
	payload, err := ExtractJSON(raw)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(payload, &out); err != nil {
		return out, &ParseError{Reason: fmt.Sprintf("decode payload: %v", err)}
	}
	return out, nil
}

// balancedEnd returns the index just past the closing delimiter matching the
// first rune, honoring strings and escape sequences. Returns -1 if unbalanced.
func balancedEnd(s string) int {
	if len(s) == 0 {
		return -1
	}
	open := s[0]
	var close byte
	switch open {
	case '{':
		close = '}'
	case '[':
		close = ']'
	default:
		return -1
	}

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
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return -1
}

func stripCodeFences(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.Contains(text, "```") {
		return text
	}
	// Keep the content of the first fenced block when one exists.
	first := strings.Index(text, "```")
	rest := text[first+3:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		// Drop a language tag such as ```json.
		head := strings.TrimSpace(rest[:nl])
		if len(head) <= 10 && !strings.ContainsAny(head, "{}[]") {
			rest = rest[nl+1:]
		}
	}
	if closing := strings.Index(rest, "```"); closing >= 0 {
		rest = rest[:closing]
	}
	return strings.TrimSpace(rest)
}

// ClampScore forces value into [min, max], logging a warning when the model
// produced an out-of-range number instead of failing the whole result.
func ClampScore(value float64, min, max float64, field string) float64 {
	if value < min || value > max {
		telemetry.Warn("extract.clamp", map[string]any{
			"field": field,
			"value": value,
			"min":   min,
			"max":   max,
		})
	}
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// EnsureSlice returns an empty slice in place of nil so callers never see an
// absent array where the domain model expects a container.
func EnsureSlice[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
