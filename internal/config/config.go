package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// SecretService is the credential store service name used for every secret
// the application keeps outside of config.json.
const SecretService = "smartfill"

type AppConfig struct {
	AppVersion    string              `json:"app_version"`
	LLM           LLMConfig           `json:"llm"`
	UI            UIConfig            `json:"ui"`
	ActiveProfile string              `json:"active_profile"`
	Templates     map[string]string   `json:"templates"`
	Privacy       PrivacyConfig       `json:"privacy"`
	Accessibility AccessibilityConfig `json:"accessibility"`
	Server        ServerConfig        `json:"server"`
	Log           LogConfig           `json:"log"`
}

type LLMConfig struct {
	Provider        string  `json:"provider"`
	APIKeyStored    bool    `json:"api_key_stored"`
	Model           string  `json:"model"`
	BaseURL         string  `json:"base_url"`
	OpenRouterModel string  `json:"openrouter_model"`
	GeminiModel     string  `json:"gemini_model"`
	OllamaBaseURL   string  `json:"ollama_base_url"`
	OllamaModel     string  `json:"ollama_model"`
	Temperature     float64 `json:"temperature"`
	MaxTokens       int     `json:"max_tokens"`
	TimeoutSeconds  int     `json:"timeout_seconds"`
}

type UIConfig struct {
	Theme          string `json:"theme"`
	Shortcut       string `json:"shortcut"`
	ShowAnimations bool   `json:"show_animations"`
	NoColor        bool   `json:"no_color"`
}

type PrivacyConfig struct {
	LocalProcessingPreferred bool `json:"local_processing_preferred"`
	AnonymizeSensitiveData   bool `json:"anonymize_sensitive_data"`
	KeepHistory              bool `json:"keep_history"`
}

type AccessibilityConfig struct {
	PermissionsGranted bool `json:"permissions_granted"`
	KeystrokeDelayMS   int  `json:"keystroke_delay_ms"`
}

type ServerConfig struct {
	Port int `json:"port"`
}

type LogConfig struct {
	Level string `json:"level"`
}

func defaults() AppConfig {
	return AppConfig{
		AppVersion: "0.1.0",
		LLM: LLMConfig{
			Provider:        "openai",
			Model:           "gpt-4o",
			BaseURL:         "https://api.openai.com/v1",
			OpenRouterModel: "openai/gpt-4o-mini",
			GeminiModel:     "gemini-2.0-flash",
			OllamaBaseURL:   "http://localhost:11434",
			OllamaModel:     "llama3",
			Temperature:     0.7,
			MaxTokens:       1500,
			TimeoutSeconds:  30,
		},
		UI: UIConfig{
			Theme:          "system",
			Shortcut:       "Cmd+Shift+F",
			ShowAnimations: true,
		},
		ActiveProfile: "default",
		Templates: map[string]string{
			"default_reply": "Thank you for your message. I will get back to you soon.",
		},
		Privacy: PrivacyConfig{
			AnonymizeSensitiveData: true,
			KeepHistory:            true,
		},
		Accessibility: AccessibilityConfig{
			KeystrokeDelayMS: 10,
		},
		Server: ServerConfig{
			Port: 4100,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Defaults returns the canonical default configuration.
func Defaults() AppConfig {
	return defaults()
}

// Store owns config.json and the credential store that holds the LLM
// provider key. The in-memory value mirrors the file; environment overrides
// are applied on read only and never persisted.
type Store struct {
	mu      sync.Mutex
	backend Backend
	secrets SecretStore
	cfg     AppConfig
}

// Open loads config.json from the application directory, creating or
// backfilling it as needed, with secrets kept in the platform keychain.
func Open() (*Store, error) {
	return OpenWith(NewFileBackend(filepath.Join(Dir(), "config.json")), NewKeychain())
}

// OpenWith is Open with explicit collaborators.
func OpenWith(b Backend, secrets SecretStore) (*Store, error) {
	s := &Store{backend: b, secrets: secrets}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Load reads the backend, backfills every missing section and key from the
// defaults and rewrites the file when anything had to be added. A corrupt
// file is replaced by the defaults.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok, err := s.backend.Read()
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}

	if !ok {
		s.cfg = defaults()
		return s.saveLocked()
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		slog.Warn("config file is corrupt, resetting to defaults", "error", err)
		s.cfg = defaults()
		return s.saveLocked()
	}

	changed, err := backfill(raw, defaults())
	if err != nil {
		return err
	}
	if stripSecrets(raw) {
		changed = true
	}

	merged, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("encoding merged config: %w", err)
	}
	var cfg AppConfig
	if err := json.Unmarshal(merged, &cfg); err != nil {
		slog.Warn("config file has invalid values, resetting to defaults", "error", err)
		s.cfg = defaults()
		return s.saveLocked()
	}
	if cfg.Templates == nil {
		cfg.Templates = map[string]string{}
	}
	s.cfg = cfg

	if changed {
		slog.Info("config backfilled with new defaults")
		return s.saveLocked()
	}
	return nil
}

// Config returns the effective configuration: the stored values with
// SMARTFILL_* environment overrides applied.
func (s *Store) Config() AppConfig {
	s.mu.Lock()
	cfg := s.cfg
	cfg.Templates = copyTemplates(s.cfg.Templates)
	s.mu.Unlock()

	applyEnvOverrides(&cfg)
	return cfg
}

// Save writes the current configuration. Secret keys are stripped even
// though Set never stores them.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

func (s *Store) saveLocked() error {
	b, err := json.Marshal(s.cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(b, &doc); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	stripSecrets(doc)

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := s.backend.Write(out); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// ErrUnknownKey is returned by Get and Set for a section or key the
// configuration does not define.
var ErrUnknownKey = errors.New("unknown config key")

// Get returns a whole section when key is empty, otherwise the single value.
func (s *Store) Get(section, key string) (any, error) {
	doc, err := toDocument(s.Config())
	if err != nil {
		return nil, err
	}
	sec, ok := doc[section]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKey, section)
	}
	if key == "" {
		return sec, nil
	}
	m, ok := sec.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a section", ErrUnknownKey, section)
	}
	v, ok := m[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownKey, section, key)
	}
	return v, nil
}

// Set assigns a single value and optionally persists it. The provider
// credential (llm.api_key) is routed to the secret store and only the
// llm.api_key_stored flag is recorded in config. Template names are free-form.
func (s *Store) Set(section, key, value string, persist bool) error {
	if section == "llm" && key == "api_key" {
		return s.setAPIKey(value, persist)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if section == "templates" {
		if key == "" {
			return fmt.Errorf("template name must not be empty")
		}
		if s.cfg.Templates == nil {
			s.cfg.Templates = map[string]string{}
		}
		s.cfg.Templates[key] = value
	} else {
		spec, ok := lookupSpec(section + "." + key)
		if !ok {
			return fmt.Errorf("%w: %s.%s", ErrUnknownKey, section, key)
		}
		if spec.secret {
			return fmt.Errorf("cannot set %s.%s directly", section, key)
		}
		v, err := spec.parse(value)
		if err != nil {
			return err
		}
		spec.apply(&s.cfg, v)
	}

	if !persist {
		return nil
	}
	return s.saveLocked()
}

func apiKeyAccount(provider string) string {
	return provider + "_api_key"
}

func (s *Store) setAPIKey(value string, persist bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account := apiKeyAccount(s.cfg.LLM.Provider)
	if value == "" {
		err := s.secrets.Delete(SecretService, account)
		if err != nil && !errors.Is(err, ErrSecretNotFound) {
			return fmt.Errorf("deleting API key: %w", err)
		}
		s.cfg.LLM.APIKeyStored = false
	} else {
		if err := s.secrets.Set(SecretService, account, value); err != nil {
			return fmt.Errorf("storing API key: %w", err)
		}
		s.cfg.LLM.APIKeyStored = true
	}

	if !persist {
		return nil
	}
	return s.saveLocked()
}

// APIKey returns the credential for the active provider. SMARTFILL_API_KEY
// takes precedence over the secret store. A stale api_key_stored flag is
// cleared when the credential turns out to be missing.
func (s *Store) APIKey() (string, error) {
	if v := os.Getenv("SMARTFILL_API_KEY"); v != "" {
		return v, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key, err := s.secrets.Get(SecretService, apiKeyAccount(s.cfg.LLM.Provider))
	if err != nil && !errors.Is(err, ErrSecretNotFound) {
		return "", fmt.Errorf("reading API key: %w", err)
	}
	if key == "" && s.cfg.LLM.APIKeyStored {
		slog.Warn("api_key_stored is set but no key was found, clearing flag", "provider", s.cfg.LLM.Provider)
		s.cfg.LLM.APIKeyStored = false
		if err := s.saveLocked(); err != nil {
			return "", err
		}
	}
	return key, nil
}

// APIToken returns the bearer token for the local HTTP hook, generating and
// storing one on first use.
func (s *Store) APIToken() (string, error) {
	if v := os.Getenv("SMARTFILL_API_TOKEN"); v != "" {
		return v, nil
	}
	tok, err := s.secrets.Get(SecretService, "api_token")
	if err == nil && tok != "" {
		return tok, nil
	}
	if err != nil && !errors.Is(err, ErrSecretNotFound) {
		return "", fmt.Errorf("reading API token: %w", err)
	}
	tok, err = newToken()
	if err != nil {
		return "", err
	}
	if err := s.secrets.Set(SecretService, "api_token", tok); err != nil {
		return "", fmt.Errorf("storing API token: %w", err)
	}
	return tok, nil
}

func copyTemplates(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
