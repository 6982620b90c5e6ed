package fill

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalambet/smartfill/internal/accessibility"
	"github.com/kalambet/smartfill/internal/classify"
	"github.com/kalambet/smartfill/internal/llm"
	"github.com/kalambet/smartfill/internal/profile"
	"github.com/kalambet/smartfill/internal/resolve"
	"github.com/kalambet/smartfill/internal/storage"
)

type fakeAX struct {
	trusted  bool
	snap     accessibility.Snapshot
	focusErr error
	setErr   error
	inserted string
}

func (f *fakeAX) Trusted(context.Context) bool { return f.trusted }
func (f *fakeAX) FocusedElement(context.Context) (accessibility.Snapshot, error) {
	return f.snap, f.focusErr
}
func (f *fakeAX) SetValue(_ context.Context, text string) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.inserted = text
	return nil
}
func (f *fakeAX) TypeRune(context.Context, rune) error { return f.setErr }

type fakeProfiles struct {
	data profile.Data
	err  error
}

func (f *fakeProfiles) ID() string { return "work" }
func (f *fakeProfiles) Profile() (*profile.Profile, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &profile.Profile{ID: "work", Data: f.data}, nil
}

type fakeHistory struct {
	fills []storage.Fill
}

func (h *fakeHistory) RecordFill(f storage.Fill) (storage.Fill, error) {
	h.fills = append(h.fills, f)
	return f, nil
}

type fixedBackend struct {
	reply string
	err   error
}

func (b fixedBackend) Complete(context.Context, llm.Request) (string, error) {
	return b.reply, b.err
}

func newService(ax accessibility.Accessibility, backend llm.Completer) (*Service, *fakeHistory) {
	d := profile.Default()
	d.Basic.Email = "ming@example.com"
	h := &fakeHistory{}
	return New(Config{
		AX:         ax,
		Classifier: classify.New(nil),
		Resolver:   resolve.New(backend, resolve.WithLanguageDetector(nil)),
		Profiles:   &fakeProfiles{data: d},
		History:    h,
	}), h
}

func TestTriggerInsertsProfileValue(t *testing.T) {
	ax := &fakeAX{trusted: true, snap: accessibility.Snapshot{AppName: "Safari", Label: "Email", Editable: true}}
	s, h := newService(ax, nil)

	out, err := s.Trigger(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ming@example.com", ax.inserted)
	assert.Equal(t, "Email Address", out.Classification.FieldType)

	require.Len(t, h.fills, 1)
	assert.Equal(t, storage.OutcomeFilled, h.fills[0].Outcome)
	assert.Equal(t, "trigger", h.fills[0].Source)
	assert.Equal(t, "work", h.fills[0].ProfileID)
	assert.Equal(t, len("ming@example.com"), h.fills[0].Chars)
}

func TestTriggerWithoutPermission(t *testing.T) {
	s, h := newService(&fakeAX{}, nil)
	_, err := s.Trigger(context.Background())
	assert.ErrorIs(t, err, ErrContext)
	assert.ErrorIs(t, err, accessibility.ErrPermissionDenied)
	assert.Empty(t, h.fills)
}

func TestTriggerNoFocusedElement(t *testing.T) {
	s, _ := newService(&fakeAX{trusted: true, focusErr: accessibility.ErrNoFocusedElement}, nil)
	_, err := s.Trigger(context.Background())
	assert.ErrorIs(t, err, ErrContext)
}

func TestTriggerNotEditable(t *testing.T) {
	ax := &fakeAX{trusted: true, snap: accessibility.Snapshot{Label: "Email"}}
	s, _ := newService(ax, nil)
	_, err := s.Trigger(context.Background())
	assert.ErrorIs(t, err, ErrNotEditable)
	assert.Empty(t, ax.inserted)
}

func TestTriggerSkipsPasswordFields(t *testing.T) {
	ax := &fakeAX{trusted: true, snap: accessibility.Snapshot{Label: "Password", Editable: true}}
	s, h := newService(ax, nil)

	out, err := s.Trigger(context.Background())
	assert.ErrorIs(t, err, ErrSuppressed)
	assert.Equal(t, resolve.PasswordPlaceholder, out.Content.Text)
	assert.Empty(t, ax.inserted)
	require.Len(t, h.fills, 1)
	assert.Equal(t, storage.OutcomeSuppressed, h.fills[0].Outcome)
}

func TestTriggerGenerationFailure(t *testing.T) {
	ax := &fakeAX{trusted: true, snap: accessibility.Snapshot{Label: "Why do you want this job?", Editable: true}}
	s, h := newService(ax, nil)

	out, err := s.Trigger(context.Background())
	assert.ErrorIs(t, err, ErrGeneration)
	assert.Equal(t, resolve.Error, out.Content.Kind)
	assert.Empty(t, ax.inserted)
	require.Len(t, h.fills, 1)
	assert.Equal(t, storage.OutcomeFailed, h.fills[0].Outcome)
	assert.Contains(t, h.fills[0].Error, "Error:")
}

func TestTriggerInsertFailure(t *testing.T) {
	ax := &fakeAX{
		trusted: true,
		snap:    accessibility.Snapshot{Label: "Email", Editable: true},
		setErr:  errors.New("element went away"),
	}
	s, _ := newService(ax, nil)
	_, err := s.Trigger(context.Background())
	assert.ErrorIs(t, err, ErrInsert)
}

func TestResolveReturnsGeneratedText(t *testing.T) {
	s, h := newService(nil, fixedBackend{reply: "I enjoy building tools."})
	out, err := s.Resolve(context.Background(), "cli", accessibility.Snapshot{Label: "Tell us about yourself", Editable: true})
	require.NoError(t, err)
	assert.Equal(t, "I enjoy building tools.", out.Content.Text)
	require.Len(t, h.fills, 1)
	assert.Equal(t, storage.OutcomeReturned, h.fills[0].Outcome)
	assert.Equal(t, "cli", h.fills[0].Source)
}

func TestResolvePasswordIsPlaceholder(t *testing.T) {
	s, _ := newService(nil, nil)
	out, err := s.Resolve(context.Background(), "cli", accessibility.Snapshot{Label: "Password"})
	require.NoError(t, err)
	assert.Equal(t, resolve.Suppressed, out.Content.Kind)
	assert.Equal(t, resolve.PasswordPlaceholder, out.Content.Text)
}

func TestResolveProfileErrorStillResolves(t *testing.T) {
	s := New(Config{
		Classifier: classify.New(nil),
		Resolver:   resolve.New(nil),
		Profiles:   &fakeProfiles{err: errors.New("disk gone")},
	})
	out, err := s.Resolve(context.Background(), "cli", accessibility.Snapshot{Label: "Email"})
	assert.ErrorIs(t, err, ErrGeneration)
	assert.Equal(t, "Email Address", out.Classification.FieldType)
}
