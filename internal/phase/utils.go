package phase

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	trailingComma = regexp.MustCompile(`,(\s*[}\]])`)
	bareKey       = regexp.MustCompile(`([{,]\s*)([a-zA-Z_][a-zA-Z0-9_]*)\s*:`)
)

// CleanJSONResponse removes markdown code blocks from AI responses and fixes common JSON issues.
// This handles responses that come wrapped in ```json ... ``` or just ``` ... ```
func CleanJSONResponse(response string) string {
	response = strings.TrimSpace(response)

	if strings.HasPrefix(response, "```") {
		response = strings.TrimPrefix(response, "```")
		if nl := strings.IndexByte(response, '\n'); nl >= 0 && !strings.ContainsAny(response[:nl], "{[") {
			response = response[nl+1:]
		}
		if end := strings.LastIndex(response, "```"); end >= 0 {
			response = response[:end]
		}
		response = strings.TrimSpace(response)
	}

	return extractJSON(response)
}

// extractJSON attempts to find and extract valid JSON from a response that may contain other text
func extractJSON(response string) string {
	if isValidJSON(response) {
		return response
	}

	start := strings.IndexByte(response, '{')
	if start == -1 {
		return response
	}

	end := matchingBrace(response, start)
	if end == -1 {
		return response
	}

	candidate := response[start:end]
	if isValidJSON(candidate) {
		return candidate
	}

	candidate = fixJSONString(candidate)
	if isValidJSON(candidate) {
		return candidate
	}

	return response
}

// matchingBrace returns the index just past the brace that closes the one
// at start, skipping braces inside string literals.
func matchingBrace(s string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return -1
}

// fixJSONString attempts to fix common JSON string issues
func fixJSONString(jsonStr string) string {
	jsonStr = escapeControlChars(jsonStr)
	jsonStr = trailingComma.ReplaceAllString(jsonStr, "$1")
	if isValidJSON(jsonStr) {
		return jsonStr
	}
	return bareKey.ReplaceAllString(jsonStr, `$1"$2":`)
}

// escapeControlChars escapes raw newlines and tabs that appear inside
// string literals.
func escapeControlChars(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString := false
	escaped := false
	for _, r := range s {
		switch {
		case escaped:
			escaped = false
		case inString && r == '\\':
			escaped = true
		case r == '"':
			inString = !inString
		case inString && r == '\n':
			b.WriteString(`\n`)
			continue
		case inString && r == '\r':
			b.WriteString(`\r`)
			continue
		case inString && r == '\t':
			b.WriteString(`\t`)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// isValidJSON checks if a string is valid JSON
func isValidJSON(str string) bool {
	var js interface{}
	return json.Unmarshal([]byte(str), &js) == nil
}

// DecodeObject parses raw as a JSON object and returns its members
// undecoded so callers can tell absent fields from zero values.
func DecodeObject(raw string) (map[string]json.RawMessage, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return nil, fmt.Errorf("response is not a JSON object: %w", err)
	}
	if obj == nil {
		return nil, fmt.Errorf("response is not a JSON object: null")
	}
	return obj, nil
}

// IsArray reports whether raw is a JSON array.
func IsArray(raw json.RawMessage) bool {
	t := strings.TrimLeftFunc(string(raw), unicode.IsSpace)
	return strings.HasPrefix(t, "[")
}

// isObject reports whether raw is a JSON object.
func isObject(raw json.RawMessage) bool {
	t := strings.TrimLeftFunc(string(raw), unicode.IsSpace)
	return strings.HasPrefix(t, "{")
}

// CharCount is the user-visible length of s: runes, not bytes.
func CharCount(s string) int {
	return utf8.RuneCountInString(s)
}

// TruncateWords shortens s to at most limit characters, cutting at the
// last word boundary and appending an ellipsis. Strings already within the
// limit are returned unchanged.
func TruncateWords(s string, limit int) string {
	if limit <= 0 || CharCount(s) <= limit {
		return s
	}
	if limit == 1 {
		return "…"
	}

	runes := []rune(s)
	cut := string(runes[:limit-1])
	if i := strings.LastIndexFunc(cut, unicode.IsSpace); i > 0 {
		cut = cut[:i]
	}
	cut = strings.TrimRightFunc(cut, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	})
	if cut == "" {
		cut = string(runes[:limit-1])
	}
	return cut + "…"
}

// ContainsFold reports whether substr appears in s ignoring case.
func ContainsFold(s, substr string) bool {
	if substr == "" {
		return false
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
