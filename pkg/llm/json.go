package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// thinkTagPattern matches <think>...</think> blocks some models emit before their answer.
var thinkTagPattern = regexp.MustCompile(`(?s)<think>.*?</think>`)

// jsonFencePattern matches a ```json fenced block.
var jsonFencePattern = regexp.MustCompile("(?is)```json\\s*(.*?)```")

// StripThinking removes <think> blocks and surrounding whitespace.
func StripThinking(response string) string {
	return strings.TrimSpace(thinkTagPattern.ReplaceAllString(response, ""))
}

// ExtractJSON returns the JSON object in a model response. A ```json fenced
// block wins when it holds valid JSON; otherwise the first balanced object
// (or array) is used.
func ExtractJSON(response string) (string, error) {
	cleaned := StripThinking(response)

	if m := jsonFencePattern.FindStringSubmatch(cleaned); m != nil {
		body := strings.TrimSpace(m[1])
		if json.Valid([]byte(body)) {
			return body, nil
		}
	}

	objStart := strings.IndexByte(cleaned, '{')
	arrStart := strings.IndexByte(cleaned, '[')

	if objStart >= 0 && (arrStart < 0 || objStart < arrStart) {
		if s, ok := extractBalancedJSON(cleaned[objStart:], '{', '}'); ok && json.Valid([]byte(s)) {
			return s, nil
		}
	}
	if arrStart >= 0 {
		if s, ok := extractBalancedJSON(cleaned[arrStart:], '[', ']'); ok && json.Valid([]byte(s)) {
			return s, nil
		}
	}

	if json.Valid([]byte(cleaned)) && cleaned != "" {
		return cleaned, nil
	}
	return "", fmt.Errorf("no valid JSON found in response")
}

// extractBalancedJSON returns the prefix of s that closes the structure
// opened at s[0]. Brackets inside JSON strings are ignored.
func extractBalancedJSON(s string, openChar, closeChar byte) (string, bool) {
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]

		if escaped {
			escaped = false
			continue
		}
		if c == '\\' && inString {
			escaped = true
			continue
		}
		if c == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}

		switch c {
		case openChar:
			depth++
		case closeChar:
			depth--
			if depth == 0 {
				return s[:i+1], true
			}
		}
	}
	return "", false
}

// ParseJSONResponse extracts JSON from a response and unmarshals it into T.
func ParseJSONResponse[T any](response string) (T, error) {
	var result T

	jsonStr, err := ExtractJSON(response)
	if err != nil {
		return result, err
	}
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return result, fmt.Errorf("unmarshal JSON: %w", err)
	}
	return result, nil
}
