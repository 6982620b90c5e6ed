package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// mockKeychain is an in-memory SecretStore.
type mockKeychain struct {
	values map[string]string
	getErr error
}

func newMockKeychain() *mockKeychain {
	return &mockKeychain{values: make(map[string]string)}
}

func (m *mockKeychain) Get(service, account string) (string, error) {
	if m.getErr != nil {
		return "", m.getErr
	}
	v, ok := m.values[service+"/"+account]
	if !ok {
		return "", ErrSecretNotFound
	}
	return v, nil
}

func (m *mockKeychain) Set(service, account, value string) error {
	m.values[service+"/"+account] = value
	return nil
}

func (m *mockKeychain) Delete(service, account string) error {
	if _, ok := m.values[service+"/"+account]; !ok {
		return ErrSecretNotFound
	}
	delete(m.values, service+"/"+account)
	return nil
}

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if content != "" {
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	return path
}

func readDoc(t *testing.T, path string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("parsing %s: %v", path, err)
	}
	return doc
}

func openTemp(t *testing.T, content string) (*Store, string, *mockKeychain) {
	t.Helper()
	path := writeTempConfig(t, content)
	kc := newMockKeychain()
	s, err := OpenWith(NewFileBackend(path), kc)
	if err != nil {
		t.Fatalf("OpenWith: %v", err)
	}
	return s, path, kc
}

// TestDefaults verifies a missing file yields the documented defaults and is created.
func TestDefaults(t *testing.T) {
	s, path, _ := openTemp(t, "")
	cfg := s.Config()

	if cfg.LLM.Provider != "openai" {
		t.Errorf("LLM.Provider = %q, want openai", cfg.LLM.Provider)
	}
	if cfg.LLM.Model != "gpt-4o" {
		t.Errorf("LLM.Model = %q, want gpt-4o", cfg.LLM.Model)
	}
	if cfg.LLM.OllamaBaseURL != "http://localhost:11434" {
		t.Errorf("LLM.OllamaBaseURL = %q", cfg.LLM.OllamaBaseURL)
	}
	if cfg.LLM.Temperature != 0.7 {
		t.Errorf("LLM.Temperature = %v, want 0.7", cfg.LLM.Temperature)
	}
	if cfg.LLM.MaxTokens != 1500 {
		t.Errorf("LLM.MaxTokens = %d, want 1500", cfg.LLM.MaxTokens)
	}
	if cfg.ActiveProfile != "default" {
		t.Errorf("ActiveProfile = %q, want default", cfg.ActiveProfile)
	}
	if cfg.Templates["default_reply"] == "" {
		t.Error("default_reply template missing")
	}
	if !cfg.Privacy.AnonymizeSensitiveData {
		t.Error("Privacy.AnonymizeSensitiveData should default to true")
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not created: %v", err)
	}
}

// TestBackfillMissingSection verifies a config without a privacy section
// gains it with defaults, both in memory and on disk.
func TestBackfillMissingSection(t *testing.T) {
	content := `{
  "app_version": "0.0.9",
  "llm": {"provider": "ollama", "model": "custom"},
  "active_profile": "work"
}`
	s, path, _ := openTemp(t, content)
	cfg := s.Config()

	if cfg.LLM.Provider != "ollama" {
		t.Errorf("existing value overwritten: provider = %q", cfg.LLM.Provider)
	}
	if cfg.LLM.Model != "custom" {
		t.Errorf("existing value overwritten: model = %q", cfg.LLM.Model)
	}
	if cfg.LLM.MaxTokens != 1500 {
		t.Errorf("missing llm key not backfilled: max_tokens = %d", cfg.LLM.MaxTokens)
	}
	if cfg.AppVersion != "0.0.9" {
		t.Errorf("AppVersion = %q, want preserved 0.0.9", cfg.AppVersion)
	}
	if !cfg.Privacy.AnonymizeSensitiveData {
		t.Error("privacy section not backfilled")
	}

	doc := readDoc(t, path)
	privacy, ok := doc["privacy"].(map[string]any)
	if !ok {
		t.Fatalf("privacy section missing on disk: %v", doc)
	}
	if privacy["anonymize_sensitive_data"] != true {
		t.Errorf("privacy.anonymize_sensitive_data on disk = %v", privacy["anonymize_sensitive_data"])
	}
	llm := doc["llm"].(map[string]any)
	if llm["model"] != "custom" {
		t.Errorf("llm.model on disk = %v", llm["model"])
	}
}

func TestCorruptConfigResetsToDefaults(t *testing.T) {
	s, path, _ := openTemp(t, "{not json")
	if got := s.Config().LLM.Provider; got != "openai" {
		t.Errorf("provider = %q, want openai", got)
	}
	doc := readDoc(t, path)
	if _, ok := doc["llm"]; !ok {
		t.Error("defaults not written over corrupt file")
	}
}

// TestLoadStripsSecret verifies an api_key accidentally present on disk is removed.
func TestLoadStripsSecret(t *testing.T) {
	_, path, _ := openTemp(t, `{"llm": {"provider": "openai", "api_key": "sk-leaked"}}`)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "sk-leaked") {
		t.Fatalf("secret still on disk: %s", data)
	}
}

func TestSetAPIKeyGoesToSecretStore(t *testing.T) {
	t.Setenv("SMARTFILL_API_KEY", "")
	s, path, kc := openTemp(t, "")

	if err := s.Set("llm", "api_key", "sk-test", true); err != nil {
		t.Fatalf("Set api_key: %v", err)
	}
	if kc.values["smartfill/openai_api_key"] != "sk-test" {
		t.Errorf("secret store = %v", kc.values)
	}
	if !s.Config().LLM.APIKeyStored {
		t.Error("api_key_stored not set")
	}

	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "sk-test") {
		t.Fatalf("secret written to config: %s", data)
	}
	doc := readDoc(t, path)
	if doc["llm"].(map[string]any)["api_key_stored"] != true {
		t.Error("api_key_stored not persisted")
	}

	key, err := s.APIKey()
	if err != nil || key != "sk-test" {
		t.Errorf("APIKey() = %q, %v", key, err)
	}
}

func TestClearAPIKey(t *testing.T) {
	t.Setenv("SMARTFILL_API_KEY", "")
	s, _, kc := openTemp(t, "")

	// Clearing a key that was never stored is not an error.
	if err := s.Set("llm", "api_key", "", true); err != nil {
		t.Fatalf("clearing missing key: %v", err)
	}

	if err := s.Set("llm", "api_key", "sk-test", true); err != nil {
		t.Fatal(err)
	}
	if err := s.Set("llm", "api_key", "", true); err != nil {
		t.Fatalf("clearing key: %v", err)
	}
	if len(kc.values) != 0 {
		t.Errorf("secret not deleted: %v", kc.values)
	}
	if s.Config().LLM.APIKeyStored {
		t.Error("api_key_stored still set")
	}
}

func TestAPIKeyCorrectsStaleFlag(t *testing.T) {
	t.Setenv("SMARTFILL_API_KEY", "")
	s, path, _ := openTemp(t, `{"llm": {"provider": "openai", "api_key_stored": true}}`)

	key, err := s.APIKey()
	if err != nil {
		t.Fatalf("APIKey: %v", err)
	}
	if key != "" {
		t.Errorf("key = %q, want empty", key)
	}
	if s.Config().LLM.APIKeyStored {
		t.Error("stale flag not cleared")
	}
	if readDoc(t, path)["llm"].(map[string]any)["api_key_stored"] != false {
		t.Error("corrected flag not persisted")
	}
}

func TestAPIKeySecretStoreError(t *testing.T) {
	t.Setenv("SMARTFILL_API_KEY", "")
	s, _, kc := openTemp(t, "")
	kc.getErr = errors.New("locked")

	if _, err := s.APIKey(); err == nil {
		t.Fatal("expected error from locked keychain")
	}
}

// TestEnvOverride verifies that environment variables override file values without being persisted.
func TestEnvOverride(t *testing.T) {
	s, path, _ := openTemp(t, `{"llm": {"provider": "openai", "model": "file-model"}}`)

	t.Setenv("SMARTFILL_LLM_MODEL", "env-model")
	t.Setenv("SMARTFILL_LLM_MAX_TOKENS", "not-a-number")

	cfg := s.Config()
	if cfg.LLM.Model != "env-model" {
		t.Errorf("Model = %q, want env-model", cfg.LLM.Model)
	}
	if cfg.LLM.MaxTokens != 1500 {
		t.Errorf("invalid env override applied: MaxTokens = %d", cfg.LLM.MaxTokens)
	}

	if err := s.Save(); err != nil {
		t.Fatal(err)
	}
	if got := readDoc(t, path)["llm"].(map[string]any)["model"]; got != "file-model" {
		t.Errorf("env override persisted: model on disk = %v", got)
	}
}

func TestSetTypedValues(t *testing.T) {
	s, path, _ := openTemp(t, "")

	tests := []struct {
		section, key, value string
		wantErr             bool
	}{
		{"llm", "temperature", "0.2", false},
		{"llm", "max_tokens", "200", false},
		{"llm", "max_tokens", "many", true},
		{"llm", "provider", "ollama", false},
		{"llm", "provider", "bogus", true},
		{"ui", "show_animations", "false", false},
		{"active_profile", "", "work", false},
		{"llm", "api_key_stored", "true", true},
		{"nope", "key", "x", true},
	}
	for _, tt := range tests {
		err := s.Set(tt.section, tt.key, tt.value, true)
		if (err != nil) != tt.wantErr {
			t.Errorf("Set(%s, %s, %s) err = %v, wantErr %v", tt.section, tt.key, tt.value, err, tt.wantErr)
		}
	}

	cfg := s.Config()
	if cfg.LLM.Temperature != 0.2 || cfg.LLM.MaxTokens != 200 || cfg.LLM.Provider != "ollama" {
		t.Errorf("llm = %+v", cfg.LLM)
	}
	if cfg.UI.ShowAnimations {
		t.Error("show_animations not updated")
	}
	if cfg.ActiveProfile != "work" {
		t.Errorf("ActiveProfile = %q", cfg.ActiveProfile)
	}
	if cfg.LLM.APIKeyStored {
		t.Error("api_key_stored must not be settable")
	}
	if readDoc(t, path)["active_profile"] != "work" {
		t.Error("active_profile not persisted")
	}
}

func TestSetWithoutPersist(t *testing.T) {
	s, path, _ := openTemp(t, "")
	if err := s.Set("llm", "model", "in-memory", false); err != nil {
		t.Fatal(err)
	}
	if s.Config().LLM.Model != "in-memory" {
		t.Error("in-memory value not set")
	}
	if readDoc(t, path)["llm"].(map[string]any)["model"] != "gpt-4o" {
		t.Error("value persisted despite persist=false")
	}
}

func TestGet(t *testing.T) {
	s, _, _ := openTemp(t, "")

	v, err := s.Get("llm", "provider")
	if err != nil || v != "openai" {
		t.Errorf("Get(llm, provider) = %v, %v", v, err)
	}
	sec, err := s.Get("privacy", "")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := sec.(map[string]any); !ok {
		t.Errorf("Get(privacy) = %T, want section map", sec)
	}
	if _, err := s.Get("llm", "api_key"); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("Get(llm, api_key) err = %v, want ErrUnknownKey", err)
	}
}

func TestTemplates(t *testing.T) {
	s, _, _ := openTemp(t, "")
	if err := s.Set("templates", "signoff", "Best regards", true); err != nil {
		t.Fatal(err)
	}
	names := TemplateNames(s.Config())
	if len(names) != 2 || names[0] != "default_reply" || names[1] != "signoff" {
		t.Errorf("TemplateNames = %v", names)
	}
	if err := s.DeleteTemplate("signoff"); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteTemplate("signoff"); err == nil {
		t.Error("expected error deleting missing template")
	}
}

func TestShowAllOmitsCredential(t *testing.T) {
	for _, ki := range ShowAll(Defaults()) {
		if ki.Key == "llm.api_key" {
			t.Fatal("ShowAll must not list llm.api_key")
		}
	}
	for _, k := range ValidKeys() {
		if k == "llm.api_key" || k == "llm.api_key_stored" {
			t.Fatalf("ValidKeys lists secret %s", k)
		}
	}
}

func TestAPITokenGeneratedOnce(t *testing.T) {
	t.Setenv("SMARTFILL_API_TOKEN", "")
	s, _, _ := openTemp(t, "")
	a, err := s.APIToken()
	if err != nil {
		t.Fatal(err)
	}
	b, err := s.APIToken()
	if err != nil {
		t.Fatal(err)
	}
	if a == "" || a != b {
		t.Errorf("tokens %q and %q, want stable non-empty", a, b)
	}
}
