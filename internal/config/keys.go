package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
)

type keyType int

const (
	kString keyType = iota
	kInt
	kBool
	kFloat
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	choices []string
	apply   func(cfg *AppConfig, v any)
	extract func(cfg AppConfig) any
}

// Providers lists the supported llm.provider values.
var Providers = []string{"openai", "openrouter", "gemini", "ollama", "none"}

var specs = []keySpec{
	{
		key: "llm.provider", typ: kString, env: "SMARTFILL_LLM_PROVIDER", choices: Providers,
		apply:   func(cfg *AppConfig, v any) { cfg.LLM.Provider = v.(string) },
		extract: func(cfg AppConfig) any { return cfg.LLM.Provider },
	},
	{
		key: "llm.api_key", typ: kString, env: "SMARTFILL_API_KEY",
		secret: true,
	},
	{
		key: "llm.api_key_stored", typ: kBool,
		secret:  true,
		extract: func(cfg AppConfig) any { return cfg.LLM.APIKeyStored },
	},
	{
		key: "llm.model", typ: kString, env: "SMARTFILL_LLM_MODEL",
		apply:   func(cfg *AppConfig, v any) { cfg.LLM.Model = v.(string) },
		extract: func(cfg AppConfig) any { return cfg.LLM.Model },
	},
	{
		key: "llm.base_url", typ: kString, env: "SMARTFILL_LLM_BASE_URL",
		apply:   func(cfg *AppConfig, v any) { cfg.LLM.BaseURL = v.(string) },
		extract: func(cfg AppConfig) any { return cfg.LLM.BaseURL },
	},
	{
		key: "llm.openrouter_model", typ: kString, env: "SMARTFILL_LLM_OPENROUTER_MODEL",
		apply:   func(cfg *AppConfig, v any) { cfg.LLM.OpenRouterModel = v.(string) },
		extract: func(cfg AppConfig) any { return cfg.LLM.OpenRouterModel },
	},
	{
		key: "llm.gemini_model", typ: kString, env: "SMARTFILL_LLM_GEMINI_MODEL",
		apply:   func(cfg *AppConfig, v any) { cfg.LLM.GeminiModel = v.(string) },
		extract: func(cfg AppConfig) any { return cfg.LLM.GeminiModel },
	},
	{
		key: "llm.ollama_base_url", typ: kString, env: "SMARTFILL_OLLAMA_BASE_URL",
		apply:   func(cfg *AppConfig, v any) { cfg.LLM.OllamaBaseURL = v.(string) },
		extract: func(cfg AppConfig) any { return cfg.LLM.OllamaBaseURL },
	},
	{
		key: "llm.ollama_model", typ: kString, env: "SMARTFILL_OLLAMA_MODEL",
		apply:   func(cfg *AppConfig, v any) { cfg.LLM.OllamaModel = v.(string) },
		extract: func(cfg AppConfig) any { return cfg.LLM.OllamaModel },
	},
	{
		key: "llm.temperature", typ: kFloat, env: "SMARTFILL_LLM_TEMPERATURE",
		apply:   func(cfg *AppConfig, v any) { cfg.LLM.Temperature = v.(float64) },
		extract: func(cfg AppConfig) any { return cfg.LLM.Temperature },
	},
	{
		key: "llm.max_tokens", typ: kInt, env: "SMARTFILL_LLM_MAX_TOKENS",
		apply:   func(cfg *AppConfig, v any) { cfg.LLM.MaxTokens = v.(int) },
		extract: func(cfg AppConfig) any { return cfg.LLM.MaxTokens },
	},
	{
		key: "llm.timeout_seconds", typ: kInt, env: "SMARTFILL_LLM_TIMEOUT_SECONDS",
		apply:   func(cfg *AppConfig, v any) { cfg.LLM.TimeoutSeconds = v.(int) },
		extract: func(cfg AppConfig) any { return cfg.LLM.TimeoutSeconds },
	},
	{
		key: "ui.theme", typ: kString, choices: []string{"system", "light", "dark"},
		apply:   func(cfg *AppConfig, v any) { cfg.UI.Theme = v.(string) },
		extract: func(cfg AppConfig) any { return cfg.UI.Theme },
	},
	{
		key: "ui.shortcut", typ: kString,
		apply:   func(cfg *AppConfig, v any) { cfg.UI.Shortcut = v.(string) },
		extract: func(cfg AppConfig) any { return cfg.UI.Shortcut },
	},
	{
		key: "ui.show_animations", typ: kBool,
		apply:   func(cfg *AppConfig, v any) { cfg.UI.ShowAnimations = v.(bool) },
		extract: func(cfg AppConfig) any { return cfg.UI.ShowAnimations },
	},
	{
		key: "ui.no_color", typ: kBool, env: "SMARTFILL_NO_COLOR",
		apply:   func(cfg *AppConfig, v any) { cfg.UI.NoColor = v.(bool) },
		extract: func(cfg AppConfig) any { return cfg.UI.NoColor },
	},
	{
		key: "active_profile", typ: kString, env: "SMARTFILL_PROFILE",
		apply:   func(cfg *AppConfig, v any) { cfg.ActiveProfile = v.(string) },
		extract: func(cfg AppConfig) any { return cfg.ActiveProfile },
	},
	{
		key: "privacy.local_processing_preferred", typ: kBool,
		apply:   func(cfg *AppConfig, v any) { cfg.Privacy.LocalProcessingPreferred = v.(bool) },
		extract: func(cfg AppConfig) any { return cfg.Privacy.LocalProcessingPreferred },
	},
	{
		key: "privacy.anonymize_sensitive_data", typ: kBool,
		apply:   func(cfg *AppConfig, v any) { cfg.Privacy.AnonymizeSensitiveData = v.(bool) },
		extract: func(cfg AppConfig) any { return cfg.Privacy.AnonymizeSensitiveData },
	},
	{
		key: "privacy.keep_history", typ: kBool, env: "SMARTFILL_KEEP_HISTORY",
		apply:   func(cfg *AppConfig, v any) { cfg.Privacy.KeepHistory = v.(bool) },
		extract: func(cfg AppConfig) any { return cfg.Privacy.KeepHistory },
	},
	{
		key: "accessibility.permissions_granted", typ: kBool,
		apply:   func(cfg *AppConfig, v any) { cfg.Accessibility.PermissionsGranted = v.(bool) },
		extract: func(cfg AppConfig) any { return cfg.Accessibility.PermissionsGranted },
	},
	{
		key: "accessibility.keystroke_delay_ms", typ: kInt,
		apply:   func(cfg *AppConfig, v any) { cfg.Accessibility.KeystrokeDelayMS = v.(int) },
		extract: func(cfg AppConfig) any { return cfg.Accessibility.KeystrokeDelayMS },
	},
	{
		key: "server.port", typ: kInt, env: "SMARTFILL_SERVER_PORT",
		apply:   func(cfg *AppConfig, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg AppConfig) any { return cfg.Server.Port },
	},
	{
		key: "log.level", typ: kString, env: "SMARTFILL_LOG_LEVEL", choices: []string{"debug", "info", "warn", "error"},
		apply:   func(cfg *AppConfig, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg AppConfig) any { return cfg.Log.Level },
	},
}

// lookupSpec accepts both "section.key" and, for top-level scalars such as
// active_profile, the bare section name.
func lookupSpec(key string) (keySpec, bool) {
	key = strings.TrimSuffix(key, ".")
	for _, s := range specs {
		if s.key == key {
			return s, true
		}
	}
	return keySpec{}, false
}

func (s keySpec) parse(raw string) (any, error) {
	var v any
	switch s.typ {
	case kString:
		v = raw
	case kInt:
		i, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid integer value for %s: %w", s.key, err)
		}
		v = i
	case kBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid bool value for %s: %w", s.key, err)
		}
		v = b
	case kFloat:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid float value for %s: %w", s.key, err)
		}
		v = f
	}
	if len(s.choices) > 0 && !slices.Contains(s.choices, raw) {
		return nil, fmt.Errorf("invalid value %q for %s (one of: %s)", raw, s.key, strings.Join(s.choices, ", "))
	}
	return v, nil
}

func applyEnvOverrides(cfg *AppConfig) {
	for _, s := range specs {
		if s.env == "" || s.apply == nil {
			continue
		}
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		v, err := s.parse(raw)
		if err != nil {
			fmt.Fprintf(os.Stderr, "[WARN] ignoring env var %s=%q: %v\n", s.env, raw, err)
			continue
		}
		s.apply(cfg, v)
	}
}
