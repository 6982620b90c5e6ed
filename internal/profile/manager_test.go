package profile

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kalambet/smartfill/internal/llm"
)

type stubCompleter struct {
	reply string
	err   error
	calls int
}

func (s *stubCompleter) Complete(_ context.Context, _ llm.Request) (string, error) {
	s.calls++
	return s.reply, s.err
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	s, _ := newTestStore(t)
	return NewManager(s, "default")
}

func TestUpdateBasicPersists(t *testing.T) {
	m := newTestManager(t)
	if err := m.Update("basic", "email", "a@b.com"); err != nil {
		t.Fatalf("Update: %v", err)
	}
	// A second manager on the same store sees the write: there is no cache.
	other := NewManager(m.store, "default")
	v, ok, err := other.Get("basic", "email")
	if err != nil || !ok {
		t.Fatalf("Get: %v, %v", ok, err)
	}
	if v != "a@b.com" {
		t.Errorf("email = %v, want a@b.com", v)
	}
}

func TestUpdateSplitsLists(t *testing.T) {
	m := newTestManager(t)
	if err := m.Update("skills", "languages", " Go, Rust ,, Zig "); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := m.Update("work_experience", "0.highlights", "Shipped X, Cut costs"); err != nil {
		t.Fatalf("Update: %v", err)
	}
	p, err := m.Profile()
	if err != nil {
		t.Fatal(err)
	}
	got, _ := p.Data.Skills.Get("languages")
	if diff := cmp.Diff([]string{"Go", "Rust", "Zig"}, got); diff != "" {
		t.Errorf("skills mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Shipped X", "Cut costs"}, p.Data.WorkExperience[0].Highlights); diff != "" {
		t.Errorf("highlights mismatch (-want +got):\n%s", diff)
	}
	// New categories go after the default ones.
	cats := p.Data.Skills.Categories()
	if cats[len(cats)-1] != "languages" {
		t.Errorf("categories = %v, want languages last", cats)
	}
}

func TestUpdateIndexedAppend(t *testing.T) {
	m := newTestManager(t)
	if err := m.Update("education", "1.school", "MIT"); err != nil {
		t.Fatalf("Update append: %v", err)
	}
	if err := m.Update("education", "5.school", "MIT"); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("out of range err = %v, want ErrInvalidKey", err)
	}
	if err := m.Update("education", "0.gpa", "4.0"); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("unknown field err = %v, want ErrInvalidKey", err)
	}
	v, ok, _ := m.Get("education", "1.school")
	if !ok || v != "MIT" {
		t.Errorf("education.1.school = %v, %v", v, ok)
	}
}

func TestUpdateCreatesSection(t *testing.T) {
	m := newTestManager(t)
	if err := m.Update("hobbies", "list", []string{"chess"}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := m.Update("hobbies", "list", "chess, go"); err != nil {
		t.Fatalf("Update: %v", err)
	}
	v, ok, err := m.Get("hobbies", "list")
	if err != nil || !ok {
		t.Fatalf("Get: %v %v", ok, err)
	}
	if diff := cmp.Diff([]any{"chess", "go"}, v); diff != "" {
		t.Errorf("hobbies.list mismatch (-want +got):\n%s", diff)
	}
}

func TestAddJobKeepsMostRecentFirst(t *testing.T) {
	m := newTestManager(t)
	if err := m.AddJob(Job{Company: "Initech", Title: "Developer"}); err != nil {
		t.Fatal(err)
	}
	if err := m.AddJob(Job{Company: "Acme", Title: "Engineer"}); err != nil {
		t.Fatal(err)
	}
	p, err := m.Profile()
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Data.WorkExperience) != 2 {
		t.Fatalf("len = %d, want 2 (placeholder replaced)", len(p.Data.WorkExperience))
	}
	if cur, _ := p.Data.CurrentJob(); cur.Company != "Acme" {
		t.Errorf("current job = %q, want Acme", cur.Company)
	}
}

func TestSummaryEmptyProfile(t *testing.T) {
	m := newTestManager(t)
	s, err := m.Summary()
	if err != nil {
		t.Fatal(err)
	}
	if s != "User Profile Summary:" {
		t.Errorf("Summary = %q, want header only", s)
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleData())
	for _, want := range []string{
		"Basic Information:\n  Name: 李明\n  Email: li@example.com",
		"Education:\n  Fudan - BSc in CS (2012-2016)",
		"Work Experience:\n  Engineer at Acme (2022-2024)\n    - Shipped X",
		"Skills:\n  Languages: Go, Python",
		"Portfolio:\n  Website: https://li.dev",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("summary missing %q:\n%s", want, s)
		}
	}
	if strings.Contains(s, "Projects:") {
		t.Errorf("empty projects section rendered:\n%s", s)
	}
	if s != Summarize(sampleData()) {
		t.Error("Summarize is not deterministic")
	}
}

func TestYAMLRoundTrip(t *testing.T) {
	in := sampleData()
	out, err := ExportYAML(in)
	if err != nil {
		t.Fatalf("ExportYAML: %v", err)
	}
	if !strings.Contains(string(out), "name: 李明") {
		t.Errorf("export not in block style:\n%s", out)
	}
	back, err := ImportYAML(out)
	if err != nil {
		t.Fatalf("ImportYAML: %v", err)
	}
	if diff := cmp.Diff(in, back, skillsEqual); diff != "" {
		t.Errorf("yaml round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestParseResumeAndMerge(t *testing.T) {
	c := &stubCompleter{reply: "Here you go:\n```json\n" + `{"basic":{"name":"Jane Roe","email":"jane@x.io"},
"work_experience":[{"company":"Acme","period":"2021-","title":"SRE","highlights":["On-call lead"]}],
"skills":{"cloud":["AWS","GCP"]}}` + "\n```"}

	parsed, err := ParseResume(context.Background(), c, "Jane Roe\nSRE at Acme")
	if err != nil {
		t.Fatalf("ParseResume: %v", err)
	}

	d := Default()
	d.Basic.Email = "keep@me.com"
	MergeMissing(&d, parsed)

	if d.Basic.Name != "Jane Roe" {
		t.Errorf("Name = %q", d.Basic.Name)
	}
	if d.Basic.Email != "keep@me.com" {
		t.Errorf("existing email overwritten: %q", d.Basic.Email)
	}
	if cur, _ := d.CurrentJob(); cur.Title != "SRE" {
		t.Errorf("current job = %+v", cur)
	}
	if got, _ := d.Skills.Get("cloud"); len(got) != 2 {
		t.Errorf("skills.cloud = %v", got)
	}
}

func TestParseResumeErrors(t *testing.T) {
	if _, err := ParseResume(context.Background(), &stubCompleter{reply: "no json"}, "text"); err == nil {
		t.Error("expected error for reply without JSON")
	}
	backendErr := &llm.Error{Kind: llm.KindAuth, Provider: "OpenAI"}
	_, err := ParseResume(context.Background(), &stubCompleter{err: backendErr}, "text")
	if !errors.Is(err, llm.ErrAuth) {
		t.Errorf("err = %v, want ErrAuth", err)
	}
	c := &stubCompleter{}
	if _, err := ParseResume(context.Background(), c, "   "); err == nil || c.calls != 0 {
		t.Errorf("empty text: err = %v, calls = %d", err, c.calls)
	}
}
