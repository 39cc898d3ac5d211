package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNotJSONObject is returned when model output holds no JSON object.
var ErrNotJSONObject = errors.New("response is not a JSON object")

// ExtractJSON strips markdown code fences and surrounding prose from a model
// response and returns the first complete JSON object. If no complete object
// is found the cleaned text is returned unchanged and left for the decoder to
// reject.
func ExtractJSON(text string) string {
	// Remove common markdown code block markers
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	text = strings.TrimSpace(text)

	start := strings.Index(text, "{")
	if start == -1 {
		return text
	}

	braceCount := 0
	inString := false
	escape := false

	for i := start; i < len(text); i++ {
		char := text[i]

		if escape {
			escape = false
			continue
		}
		if char == '\\' {
			escape = true
			continue
		}
		if char == '"' {
			inString = !inString
			continue
		}

		// Only count braces outside of strings
		if !inString {
			switch char {
			case '{':
				braceCount++
			case '}':
				braceCount--
				if braceCount == 0 {
					return text[start : i+1]
				}
			}
		}
	}

	return text
}

// ParseObject decodes the JSON object embedded in a model response.
func ParseObject(text string) (map[string]any, error) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(ExtractJSON(text)), &obj); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotJSONObject, err)
	}
	if obj == nil {
		return nil, ErrNotJSONObject
	}
	return obj, nil
}
