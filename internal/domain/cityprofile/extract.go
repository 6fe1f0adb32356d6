package cityprofile

import (
	"encoding/json"
	"strings"
)

// ExtractJSONObject pulls the first JSON object out of free-form model text.
// Code fences and surrounding prose are tolerated; the candidate substring
// runs from the first '{' to the last '}'. Returns false when no valid
// object can be parsed.
func ExtractJSONObject(text string) (json.RawMessage, bool) {
	sanitized := strings.TrimSpace(text)
	sanitized = strings.TrimPrefix(sanitized, "```json")
	sanitized = strings.TrimSuffix(sanitized, "```")
	sanitized = strings.Trim(sanitized, "`")

	start := strings.Index(sanitized, "{")
	end := strings.LastIndex(sanitized, "}")
	if start < 0 || end <= start {
		return nil, false
	}

	candidate := sanitized[start : end+1]
	if !json.Valid([]byte(candidate)) {
		return nil, false
	}
	return json.RawMessage(candidate), true
}
