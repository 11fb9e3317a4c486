package llm

import (
	"encoding/json"
	"strings"
)

// JSONObject strips code fences and surrounding prose from a model reply and
// returns the outermost {...} span.
func JSONObject(raw string) string {
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "{") || !strings.HasSuffix(text, "}") {
		start := strings.Index(text, "{")
		end := strings.LastIndex(text, "}")
		if start >= 0 && end > start {
			text = text[start : end+1]
		}
	}
	return text
}

// DecodeObject decodes the JSON object embedded in raw into v.
func DecodeObject(raw string, v any) error {
	return json.Unmarshal([]byte(JSONObject(raw)), v)
}

// DecodeObjectStrict is DecodeObject but rejects keys v does not declare.
func DecodeObjectStrict(raw string, v any) error {
	dec := json.NewDecoder(strings.NewReader(JSONObject(raw)))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
