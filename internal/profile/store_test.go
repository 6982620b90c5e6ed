package profile

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/kalambet/smartfill/internal/vault"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

// failingCipher cannot decrypt anything.
type failingCipher struct{}

func (failingCipher) Encrypt(p []byte) (string, error) { return "sealed", nil }
func (failingCipher) Decrypt(string) ([]byte, error)   { return nil, errors.New("bad key") }

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	c, err := vault.New([]byte("test key material"))
	if err != nil {
		t.Fatalf("vault.New: %v", err)
	}
	dir := t.TempDir()
	return NewStoreWithClock(dir, c, fixedClock{time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}), dir
}

// skillsEqual compares skills by content and order.
var skillsEqual = cmp.Comparer(func(a, b *Skills) bool {
	if a.Len() != b.Len() {
		return false
	}
	ca, cb := a.Categories(), b.Categories()
	for i := range ca {
		if ca[i] != cb[i] {
			return false
		}
		va, _ := a.Get(ca[i])
		vb, _ := b.Get(cb[i])
		if !cmp.Equal(va, vb) {
			return false
		}
	}
	return true
})

func sampleData() Data {
	d := Default()
	d.Basic.Name = "李明"
	d.Basic.Email = "li@example.com"
	d.Basic.Location = "Shanghai, Shanghai, China"
	d.Education = []Education{{Period: "2012-2016", School: "Fudan", Degree: "BSc", Major: "CS"}}
	d.WorkExperience = []Job{
		{Company: "Acme", Period: "2022-2024", Title: "Engineer", Highlights: []string{"Shipped X", "Führte Y ein"}},
		{Company: "Initech", Period: "2018-2022", Title: "Developer", Highlights: []string{}},
	}
	d.Skills.Set("languages", []string{"Go", "Python"})
	d.Portfolio.PersonalWebsite = "https://li.dev"
	return d
}

func TestStoreRoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	in := &Profile{ID: "default", Data: sampleData()}
	if err := s.Save(in); err != nil {
		t.Fatalf("Save: %v", err)
	}
	out, err := s.Load("default")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(in.Data, out.Data, skillsEqual); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
	if !out.UpdatedAt.Equal(in.UpdatedAt) {
		t.Errorf("UpdatedAt = %v, want %v", out.UpdatedAt, in.UpdatedAt)
	}
}

func TestStoreRoundTripEmptyLists(t *testing.T) {
	s, _ := newTestStore(t)
	d := Default()
	d.Education = []Education{}
	d.Projects = []Project{}
	if err := s.Save(&Profile{ID: "empty", Data: d}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	out, err := s.Load("empty")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(d, out.Data, skillsEqual); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveWritesEncryptedContainer(t *testing.T) {
	s, dir := newTestStore(t)
	if err := s.Save(&Profile{ID: "default", Data: sampleData()}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	raw, err := os.ReadFile(filepath.Join(dir, "default.json"))
	if err != nil {
		t.Fatal(err)
	}
	var c map[string]any
	if err := json.Unmarshal(raw, &c); err != nil {
		t.Fatalf("container is not JSON: %v", err)
	}
	if c["profile_id"] != "default" {
		t.Errorf("profile_id = %v", c["profile_id"])
	}
	if _, ok := c["data"].(string); !ok {
		t.Errorf("data is %T, want ciphertext string", c["data"])
	}
	if c["updated_at"] != "2024-05-01T12:00:00Z" {
		t.Errorf("updated_at = %v", c["updated_at"])
	}
}

func TestLoadMissingCreatesDefault(t *testing.T) {
	s, dir := newTestStore(t)
	p, err := s.Load("fresh")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(p.Data.WorkExperience) != 1 || !p.Data.WorkExperience[0].IsEmpty() {
		t.Errorf("WorkExperience = %+v, want one empty placeholder", p.Data.WorkExperience)
	}
	if _, err := os.Stat(filepath.Join(dir, "fresh.json")); err != nil {
		t.Errorf("default profile not persisted: %v", err)
	}
}

func TestLoadLegacyPlaintext(t *testing.T) {
	s, dir := newTestStore(t)
	legacy := `{"version":"1.0","data":{"basic":{"name":"Ada","email":"ada@example.com","birth_year":1815},"skills":{"math":"analysis, engines"},"hobbies":{"list":["chess"]}}}`
	if err := os.WriteFile(filepath.Join(dir, "legacy.json"), []byte(legacy), 0o600); err != nil {
		t.Fatal(err)
	}
	p, err := s.Load("legacy")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Data.Basic.Name != "Ada" || p.Data.Basic.BirthYear != "1815" {
		t.Errorf("Basic = %+v", p.Data.Basic)
	}
	if got, _ := p.Data.Skills.Get("math"); !cmp.Equal(got, []string{"analysis", "engines"}) {
		t.Errorf("skills.math = %v", got)
	}
	if p.Data.Education == nil || p.Data.WorkExperience == nil || p.Data.Projects == nil {
		t.Error("missing top-level sections after load")
	}
	if _, ok := p.Data.Extra["hobbies"]; !ok {
		t.Error("unknown section dropped")
	}

	// Saving converts to the encrypted container and keeps unknown sections.
	if err := s.Save(p); err != nil {
		t.Fatalf("Save: %v", err)
	}
	again, err := s.Load("legacy")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := again.Data.Extra["hobbies"]; !ok {
		t.Error("unknown section dropped on save")
	}
}

func TestLoadStructuredDataWithoutDecryption(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir, failingCipher{})
	body := `{"profile_id":"p","data":{"basic":{"name":"Grace"}},"updated_at":1714564800.5}`
	if err := os.WriteFile(filepath.Join(dir, "p.json"), []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	p, err := s.Load("p")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Data.Basic.Name != "Grace" {
		t.Errorf("Name = %q, want Grace", p.Data.Basic.Name)
	}
	if p.UpdatedAt.Unix() != 1714564800 {
		t.Errorf("UpdatedAt = %v", p.UpdatedAt)
	}
}

func TestLoadCorruptFallsBackToDefault(t *testing.T) {
	s, dir := newTestStore(t)
	path := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	p, err := s.Load("bad")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Data.Basic.Name != "" || len(p.Data.Education) != 1 {
		t.Errorf("expected default skeleton, got %+v", p.Data)
	}
}

func TestLoadUndecryptable(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir, failingCipher{})
	body := `{"profile_id":"p","data":"Zm9vYmFy","updated_at":"2024-05-01T12:00:00Z"}`
	if err := os.WriteFile(filepath.Join(dir, "p.json"), []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	p, err := s.Load("p")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Data.Basic.Name != "" {
		t.Errorf("expected default skeleton, got %+v", p.Data.Basic)
	}
}

func TestSaveWithoutCipher(t *testing.T) {
	s := NewStore(t.TempDir(), nil)
	err := s.Save(&Profile{ID: "default", Data: Default()})
	if !errors.Is(err, ErrNoCipher) {
		t.Fatalf("err = %v, want ErrNoCipher", err)
	}
}

func TestInvalidID(t *testing.T) {
	s, _ := newTestStore(t)
	if _, err := s.Load("../etc/passwd"); err == nil {
		t.Error("expected error for path traversal id")
	}
}

func TestListAndDelete(t *testing.T) {
	s, _ := newTestStore(t)
	for _, id := range []string{"work", "default"} {
		if err := s.Save(&Profile{ID: id, Data: Default()}); err != nil {
			t.Fatal(err)
		}
	}
	ids, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"default", "work"}, ids); diff != "" {
		t.Errorf("List mismatch (-want +got):\n%s", diff)
	}
	if err := s.Delete("work"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete("work"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete err = %v, want ErrNotFound", err)
	}
}
