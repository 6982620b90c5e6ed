package config

import (
	"fmt"
	"sort"
)

// KeyInfo describes a config key for display purposes.
type KeyInfo struct {
	Key    string
	EnvVar string
	Value  string
}

// ShowAll returns all displayable key/value pairs of cfg, including the
// api_key_stored flag but never the credential itself.
func ShowAll(cfg AppConfig) []KeyInfo {
	var result []KeyInfo
	for _, s := range specs {
		if s.extract == nil {
			continue
		}
		result = append(result, KeyInfo{
			Key:    s.key,
			EnvVar: s.env,
			Value:  fmt.Sprintf("%v", s.extract(cfg)),
		})
	}
	return result
}

// ValidKeys returns the list of settable config key names.
func ValidKeys() []string {
	var keys []string
	for _, s := range specs {
		if !s.secret {
			keys = append(keys, s.key)
		}
	}
	return keys
}

// TemplateNames returns the stored template names in sorted order.
func TemplateNames(cfg AppConfig) []string {
	names := make([]string, 0, len(cfg.Templates))
	for name := range cfg.Templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DeleteTemplate removes a template and persists the change.
func (s *Store) DeleteTemplate(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cfg.Templates[name]; !ok {
		return fmt.Errorf("template %q not found", name)
	}
	delete(s.cfg.Templates, name)
	return s.saveLocked()
}
