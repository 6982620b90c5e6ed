package fill

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/kalambet/smartfill/internal/accessibility"
)

const unknown = "Unknown"

// Payload is the flat trigger record sent by bridges and the automation
// hook. Every field is optional.
type Payload struct {
	AppName         string `json:"appName"`
	WindowTitle     string `json:"windowTitle"`
	FieldLabel      string `json:"fieldLabel"`
	FieldRole       string `json:"fieldRole"`
	SurroundingText string `json:"surroundingText"`
	SelectedText    string `json:"selectedText"`
}

// Snapshot converts the payload into the element snapshot the pipeline
// consumes. Missing names become "Unknown"; bridge fields are always
// treated as editable.
func (p Payload) Snapshot() accessibility.Snapshot {
	or := func(s string) string {
		if strings.TrimSpace(s) == "" {
			return unknown
		}
		return s
	}
	surrounding := p.SurroundingText
	if r := []rune(surrounding); len(r) > accessibility.MaxSurroundingText {
		surrounding = string(r[:accessibility.MaxSurroundingText])
	}
	return accessibility.Snapshot{
		AppName:         or(p.AppName),
		WindowTitle:     or(p.WindowTitle),
		Label:           or(p.FieldLabel),
		Role:            or(p.FieldRole),
		SurroundingText: surrounding,
		SelectedText:    p.SelectedText,
		Editable:        true,
	}
}

// ParsePayload accepts either inline JSON or a path to a file holding it.
func ParsePayload(arg string) (Payload, error) {
	raw := strings.TrimSpace(arg)
	if raw == "" {
		return Payload{}, fmt.Errorf("empty payload")
	}
	if !strings.HasPrefix(raw, "{") {
		b, err := os.ReadFile(raw)
		if err != nil {
			return Payload{}, fmt.Errorf("reading payload file: %w", err)
		}
		raw = string(b)
	}
	var p Payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return Payload{}, fmt.Errorf("decoding payload: %w", err)
	}
	return p, nil
}
