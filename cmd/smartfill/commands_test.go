package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalambet/smartfill/internal/api"
	"github.com/kalambet/smartfill/internal/config"
)

// memSecrets is an in-memory credential store.
type memSecrets struct {
	mu sync.Mutex
	m  map[string]string
}

func (s *memSecrets) Get(service, account string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m[service+"/"+account]
	if !ok {
		return "", config.ErrSecretNotFound
	}
	return v, nil
}

func (s *memSecrets) Set(service, account, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.m == nil {
		s.m = map[string]string{}
	}
	s.m[service+"/"+account] = value
	return nil
}

func (s *memSecrets) Delete(service, account string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, service+"/"+account)
	return nil
}

// useTestApp points openApp and openConfig at a temporary directory with
// the LLM disabled.
func useTestApp(t *testing.T) (*config.Store, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := config.OpenWith(config.NewFileBackend(filepath.Join(dir, "config.json")), &memSecrets{})
	require.NoError(t, err)
	require.NoError(t, store.Set("llm", "provider", "none", true))

	oldApp, oldConfig := openApp, openConfig
	openApp = func(ctx context.Context) (*app, error) { return buildApp(ctx, store, dir) }
	openConfig = func() (*config.Store, error) { return store, nil }
	t.Cleanup(func() { openApp, openConfig = oldApp, oldConfig })
	return store, dir
}

func seedProfile(t *testing.T) {
	t.Helper()
	a, err := openApp(context.Background())
	require.NoError(t, err)
	defer a.Close()
	require.NoError(t, a.profiles.Update("basic", "name", "Grace Hopper"))
	require.NoError(t, a.profiles.Update("basic", "email", "grace@example.com"))
	require.NoError(t, a.profiles.Update("basic", "location", "Arlington, Virginia, USA"))
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestFillPrintsProfileValue(t *testing.T) {
	useTestApp(t)
	seedProfile(t)

	out, err := execute(t, "fill", `{"appName":"Safari","fieldLabel":"Email address"}`)
	require.NoError(t, err)
	assert.Equal(t, "grace@example.com\n", out)

	out, err = execute(t, "fill", `{"fieldLabel":"Country"}`)
	require.NoError(t, err)
	assert.Equal(t, "USA\n", out)
}

func TestFillFromFile(t *testing.T) {
	_, dir := useTestApp(t)
	seedProfile(t)

	path := filepath.Join(dir, "ctx.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"fieldLabel":"Full Name"}`), 0o600))

	out, err := execute(t, "fill", path)
	require.NoError(t, err)
	assert.Equal(t, "Grace Hopper\n", out)
}

func TestFillPasswordPrintsPlaceholder(t *testing.T) {
	useTestApp(t)
	out, err := execute(t, "fill", `{"fieldLabel":"Password"}`)
	require.NoError(t, err)
	assert.Equal(t, "******\n", out)
}

func TestFillErrorsStartWithError(t *testing.T) {
	useTestApp(t)

	cases := map[string][]string{
		"missing payload":  {"fill"},
		"invalid json":     {"fill", "{nope"},
		"missing file":     {"fill", "/nonexistent/ctx.json"},
		"generation fails": {"fill", `{"fieldLabel":"Why do you want this role?"}`},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			out, err := execute(t, args...)
			assert.True(t, errors.Is(err, errReported), "err = %v", err)
			assert.True(t, strings.HasPrefix(out, "Error:"), "out = %q", out)
			assert.Equal(t, 1, strings.Count(out, "\n"))
		})
	}
}

func TestFillDisabledBackendMessage(t *testing.T) {
	useTestApp(t)
	_, err := runFill(context.Background(), nil, []string{`{"fieldLabel":"Tell us about yourself"}`}, false)
	require.Error(t, err)
	assert.Equal(t, "Error: LLM is disabled.", err.Error())
}

func TestFillReadsStdin(t *testing.T) {
	useTestApp(t)
	seedProfile(t)
	text, err := runFill(context.Background(), strings.NewReader(`{"fieldLabel":"City"}`), []string{"-"}, false)
	require.NoError(t, err)
	assert.Equal(t, "Arlington", text)
}

func TestFillViaServer(t *testing.T) {
	useTestApp(t)
	seedProfile(t)

	a, err := openApp(context.Background())
	require.NoError(t, err)
	defer a.Close()
	srv := httptest.NewServer(api.NewHandler(api.Deps{Fills: a.fills, Profile: a.profiles, History: a.history, Token: "tok"}))
	defer srv.Close()

	old := newAPIClient
	newAPIClient = func() (*apiClient, error) {
		return &apiClient{baseURL: srv.URL, token: "tok", httpClient: srv.Client()}, nil
	}
	defer func() { newAPIClient = old }()

	text, err := runFill(context.Background(), nil, []string{`{"fieldLabel":"Email"}`}, true)
	require.NoError(t, err)
	assert.Equal(t, "grace@example.com", text)

	_, err = runFill(context.Background(), nil, []string{`{"fieldLabel":"Cover letter"}`}, true)
	require.Error(t, err)
	assert.Equal(t, "Error: LLM is disabled.", err.Error())
}

func TestProfileSetAndGet(t *testing.T) {
	useTestApp(t)

	_, err := execute(t, "profile", "set", "skills.languages", "Go, COBOL")
	require.NoError(t, err)

	out, err := execute(t, "profile", "get", "skills.languages")
	require.NoError(t, err)
	assert.JSONEq(t, `["Go","COBOL"]`, out)

	_, err = execute(t, "profile", "set", "basic.phone", "+1 555 0100")
	require.NoError(t, err)
	out, err = execute(t, "profile", "get", "basic.phone")
	require.NoError(t, err)
	assert.Equal(t, "+1 555 0100\n", out)
}

func TestProfileExportImportRoundTrip(t *testing.T) {
	_, dir := useTestApp(t)
	seedProfile(t)

	path := filepath.Join(dir, "profile.yaml")
	_, err := execute(t, "profile", "export", "--output", path)
	require.NoError(t, err)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "Grace Hopper")

	require.NoError(t, os.WriteFile(path, bytes.Replace(b, []byte("Grace Hopper"), []byte("Grace B. Hopper"), 1), 0o600))
	_, err = execute(t, "profile", "import", path)
	require.NoError(t, err)

	out, err := execute(t, "profile", "get", "basic.name")
	require.NoError(t, err)
	assert.Equal(t, "Grace B. Hopper\n", out)
}

func TestProfileList(t *testing.T) {
	useTestApp(t)
	seedProfile(t)
	out, err := execute(t, "profile", "list")
	require.NoError(t, err)
	assert.Equal(t, "* default\n", out)
}

func TestConfigSetAndGet(t *testing.T) {
	store, _ := useTestApp(t)

	_, err := execute(t, "config", "set", "llm.temperature", "0.2")
	require.NoError(t, err)
	assert.Equal(t, 0.2, store.Config().LLM.Temperature)

	out, err := execute(t, "config", "get", "llm.temperature")
	require.NoError(t, err)
	assert.Equal(t, "0.2\n", out)

	_, err = execute(t, "config", "set", "llm.provider", "skynet")
	assert.Error(t, err)

	_, err = execute(t, "config", "set", "llm.api_key", "sk-x")
	assert.Error(t, err)
}

func TestConfigSetKeyAndClear(t *testing.T) {
	store, _ := useTestApp(t)
	require.NoError(t, store.Set("llm", "provider", "openai", true))

	_, err := execute(t, "config", "set-key", "sk-test")
	require.NoError(t, err)
	assert.True(t, store.Config().LLM.APIKeyStored)
	key, err := store.APIKey()
	require.NoError(t, err)
	assert.Equal(t, "sk-test", key)

	_, err = execute(t, "config", "clear-key")
	require.NoError(t, err)
	assert.False(t, store.Config().LLM.APIKeyStored)
}

func TestTemplatesCommands(t *testing.T) {
	useTestApp(t)

	_, err := execute(t, "templates", "set", "thanks", "Thanks, talk soon.")
	require.NoError(t, err)

	out, err := execute(t, "templates", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Thanks, talk soon.")

	_, err = execute(t, "templates", "delete", "thanks")
	require.NoError(t, err)
	_, err = execute(t, "templates", "delete", "thanks")
	assert.Error(t, err)
}

func TestHistoryAfterFill(t *testing.T) {
	useTestApp(t)
	seedProfile(t)

	_, err := execute(t, "fill", `{"appName":"Mail","fieldLabel":"Email"}`)
	require.NoError(t, err)

	out, err := execute(t, "history", "--limit", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "returned")
	assert.Contains(t, out, `"Email"`)
}

func TestSplitKey(t *testing.T) {
	s, k := splitKey("work_experience.0.title")
	assert.Equal(t, "work_experience", s)
	assert.Equal(t, "0.title", k)

	s, k = splitKey("active_profile")
	assert.Equal(t, "active_profile", s)
	assert.Equal(t, "", k)
}

func TestColorize(t *testing.T) {
	old := noColor
	defer func() { noColor = old }()

	noColor = true
	assert.Equal(t, "hi", colorize(colorRed, "hi"))

	noColor = false
	assert.Contains(t, colorize(colorRed, "hi"), "\033[")
}

func TestStatusLinesGoToStderr(t *testing.T) {
	useTestApp(t)
	var errBuf bytes.Buffer
	old := stderr
	stderr = &errBuf
	defer func() { stderr = old }()

	out, err := execute(t, "templates", "set", "sig", "Best, G.")
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Contains(t, errBuf.String(), `Saved template "sig"`)
}

func TestHistoryEntryAndSchema(t *testing.T) {
	useTestApp(t)
	seedProfile(t)
	t.Cleanup(func() {
		historyCmd.Flags().Set("id", "")
		historyCmd.Flags().Set("stats", "false")
	})

	_, err := execute(t, "fill", `{"appName":"Mail","fieldLabel":"Email"}`)
	require.NoError(t, err)

	a, err := openApp(context.Background())
	require.NoError(t, err)
	fills, err := a.history.RecentFills(1)
	a.Close()
	require.NoError(t, err)
	require.Len(t, fills, 1)

	out, err := execute(t, "history", "--id", fills[0].ID)
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, fills[0].ID, got["id"])
	assert.Equal(t, "Email Address", got["field_type"])

	_, err = execute(t, "history", "--id", "missing")
	assert.Error(t, err)

	var errBuf bytes.Buffer
	old := stderr
	stderr = &errBuf
	defer func() { stderr = old }()
	historyCmd.Flags().Set("id", "")
	_, err = execute(t, "history", "--stats")
	require.NoError(t, err)
	assert.Contains(t, errBuf.String(), "Schema version")
}
