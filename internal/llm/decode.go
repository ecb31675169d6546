package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Model output is free-form text that usually, but not always, contains the
// JSON we asked for. Decoding runs a layered fallback and never panics:
// direct parse -> outermost brace block -> bracket-balance repair ->
// per-field scraping (ScrapeString/ScrapeFloat/ScrapeBool at call sites).

// DecodeJSON decodes a model response into v, trying progressively more
// forgiving strategies. Returns an error only when every layer fails; the
// caller is expected to fall back to an explicit default value.
func DecodeJSON(raw string, v any) error {
	raw = stripCodeFences(raw)

	// Layer 1: direct parse
	if err := json.Unmarshal([]byte(raw), v); err == nil {
		return nil
	}

	// Layer 2: outermost brace block
	if block := outerBraceBlock(raw); block != "" {
		if err := json.Unmarshal([]byte(block), v); err == nil {
			return nil
		}

		// Layer 3: bracket-balance repair on the block
		if repaired := repairJSON(block); repaired != block {
			if err := json.Unmarshal([]byte(repaired), v); err == nil {
				return nil
			}
		}
	}

	return fmt.Errorf("no decodable JSON in model response (%d bytes)", len(raw))
}

// stripCodeFences removes ```json ... ``` wrappers models like to add.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

// outerBraceBlock returns the substring from the first '{' to its matching
// closing brace, or to the last '}' when balancing fails.
func outerBraceBlock(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
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
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}

	// Unbalanced: take to the last closing brace and let repair handle it
	if end := strings.LastIndexByte(s, '}'); end > start {
		return s[start : end+1]
	}
	return s[start:]
}

var trailingComma = regexp.MustCompile(`,\s*([}\]])`)

// repairJSON applies cheap syntactic fixes: single quotes on keys, trailing
// commas, and missing closing brackets.
func repairJSON(s string) string {
	s = trailingComma.ReplaceAllString(s, "$1")

	// Append closers for any unbalanced braces/brackets
	var stack []byte
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
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) > 0 && stack[len(stack)-1] == c {
				stack = stack[:len(stack)-1]
			}
		}
	}
	if inString {
		s += `"`
	}
	for i := len(stack) - 1; i >= 0; i-- {
		s += string(stack[i])
	}
	return s
}

// ScrapeString pulls a single string field out of raw text by pattern,
// for responses too mangled to parse as JSON at all.
func ScrapeString(raw, field string) (string, bool) {
	re := regexp.MustCompile(`"` + regexp.QuoteMeta(field) + `"\s*[:：]\s*"((?:[^"\\]|\\.)*)"`)
	m := re.FindStringSubmatch(raw)
	if m == nil {
		return "", false
	}
	var out string
	if json.Unmarshal([]byte(`"`+m[1]+`"`), &out) != nil {
		return m[1], true
	}
	return out, true
}

// ScrapeFloat pulls a numeric field out of raw text by pattern.
func ScrapeFloat(raw, field string) (float64, bool) {
	re := regexp.MustCompile(`"` + regexp.QuoteMeta(field) + `"\s*[:：]\s*"?(-?\d+(?:\.\d+)?)"?`)
	m := re.FindStringSubmatch(raw)
	if m == nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ScrapeBool pulls a boolean field out of raw text by pattern.
func ScrapeBool(raw, field string) (bool, bool) {
	re := regexp.MustCompile(`"` + regexp.QuoteMeta(field) + `"\s*[:：]\s*"?(true|false)"?`)
	m := re.FindStringSubmatch(raw)
	if m == nil {
		return false, false
	}
	return m[1] == "true", true
}
