package config

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// secretKeys never belong in config.json.
var secretKeys = []string{"api_key"}

// backfill adds every section and key of def that raw lacks. Nested sections
// are merged key by key; existing values are never overwritten.
func backfill(raw map[string]any, def AppConfig) (bool, error) {
	doc, err := toDocument(def)
	if err != nil {
		return false, err
	}
	return mergeMissing(raw, doc), nil
}

func mergeMissing(dst, src map[string]any) bool {
	changed := false
	for k, sv := range src {
		dv, ok := dst[k]
		if !ok {
			dst[k] = sv
			changed = true
			continue
		}
		sm, sok := sv.(map[string]any)
		dm, dok := dv.(map[string]any)
		if sok && dok {
			if mergeMissing(dm, sm) {
				changed = true
			}
		} else if sok && !dok {
			// A scalar where a section belongs cannot be merged.
			dst[k] = sv
			changed = true
		}
	}
	return changed
}

// stripSecrets removes secret keys from every section and reports whether
// any were present.
func stripSecrets(doc map[string]any) bool {
	removed := false
	for _, v := range doc {
		sec, ok := v.(map[string]any)
		if !ok {
			continue
		}
		for _, k := range secretKeys {
			if _, ok := sec[k]; ok {
				delete(sec, k)
				removed = true
			}
		}
	}
	return removed
}

func toDocument(cfg AppConfig) (map[string]any, error) {
	b, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return doc, nil
}

func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
