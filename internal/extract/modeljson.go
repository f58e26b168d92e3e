package extract

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	fencedBlockPattern = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")
	braceBlockPattern  = regexp.MustCompile(`(?s)\{.*?\}`)
)

// DecodeModelJSON pulls one JSON object out of raw recognizer output.
// Models wrap their answers unpredictably, so three strategies are
// tried in order: a fenced ```json block, the first bare {...} block,
// and finally the whole payload. The first strategy whose text parses
// as a JSON object wins; if none does, ErrNoJSON is returned.
func DecodeModelJSON(raw string) (map[string]any, error) {
	if m := fencedBlockPattern.FindStringSubmatch(raw); m != nil {
		if obj, err := decodeObject(m[1]); err == nil {
			return obj, nil
		}
	}

	if m := braceBlockPattern.FindString(raw); m != "" {
		if obj, err := decodeObject(m); err == nil {
			return obj, nil
		}
	}

	if obj, err := decodeObject(strings.TrimSpace(raw)); err == nil {
		return obj, nil
	}

	return nil, ErrNoJSON
}

func decodeObject(s string) (map[string]any, error) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil, err
	}
	return obj, nil
}

// stringField fetches a trimmed string field from decoded model
// output, tolerating missing keys and non-string values.
func stringField(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}
