package llm

import (
	"encoding/json"
	"strings"
)

// ExtractJSON returns the first well-formed JSON object embedded in s. Models
// often wrap the object in prose or code fences.
func ExtractJSON(s string) (string, bool) {
	for start := strings.IndexByte(s, '{'); start >= 0; {
		dec := json.NewDecoder(strings.NewReader(s[start:]))
		var raw json.RawMessage
		if err := dec.Decode(&raw); err == nil && len(raw) > 0 && raw[0] == '{' {
			return string(raw), true
		}
		next := strings.IndexByte(s[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", false
}
