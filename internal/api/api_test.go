package api

import (
	"context"
	"testing"

	"github.com/kalambet/smartfill/internal/classify"
	"github.com/kalambet/smartfill/internal/fill"
	"github.com/kalambet/smartfill/internal/llm"
	"github.com/kalambet/smartfill/internal/profile"
	"github.com/kalambet/smartfill/internal/resolve"
	"github.com/kalambet/smartfill/internal/storage"
	"github.com/kalambet/smartfill/internal/vault"
)

const testToken = "test-token"

type stubBackend struct {
	reply string
	err   error
}

func (b stubBackend) Complete(context.Context, llm.Request) (string, error) {
	return b.reply, b.err
}

func newTestDeps(t *testing.T, backend llm.Completer) Deps {
	t.Helper()
	c, err := vault.New([]byte("api test key"))
	if err != nil {
		t.Fatalf("vault.New: %v", err)
	}
	mgr := profile.NewManager(profile.NewStore(t.TempDir(), c), "default")
	if err := mgr.Update("basic", "name", "Ada Lovelace"); err != nil {
		t.Fatalf("seeding profile: %v", err)
	}
	if err := mgr.Update("basic", "email", "ada@example.com"); err != nil {
		t.Fatalf("seeding profile: %v", err)
	}

	history, err := storage.Open(t.TempDir())
	if err != nil {
		t.Fatalf("opening history: %v", err)
	}
	t.Cleanup(func() { history.Close() })

	svc := fill.New(fill.Config{
		Classifier: classify.New(nil),
		Resolver:   resolve.New(backend, resolve.WithLanguageDetector(nil)),
		Profiles:   mgr,
		History:    history,
	})
	return Deps{Fills: svc, Profile: mgr, History: history, Token: testToken}
}
