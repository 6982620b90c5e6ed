package profile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

// Cipher encrypts profile payloads at rest. Implemented by vault.Cipher.
type Cipher interface {
	Encrypt(plaintext []byte) (string, error)
	Decrypt(payload string) ([]byte, error)
}

// ErrNoCipher is returned by Save when no encryption capability is available.
var ErrNoCipher = errors.New("encryption not available")

// ErrNotFound is returned for operations on a profile that does not exist.
var ErrNotFound = errors.New("profile not found")

var validID = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Store persists one JSON file per profile under dir.
type Store struct {
	dir    string
	cipher Cipher
	clock  Clock
}

// NewStore returns a Store rooted at dir. cipher may be nil, in which case
// profiles load but cannot be saved.
func NewStore(dir string, cipher Cipher) *Store {
	return &Store{dir: dir, cipher: cipher, clock: realClock{}}
}

// NewStoreWithClock is NewStore with a custom clock (for testing).
func NewStoreWithClock(dir string, cipher Cipher, clock Clock) *Store {
	return &Store{dir: dir, cipher: cipher, clock: clock}
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// container is the on-disk envelope. Data holds either ciphertext (a JSON
// string) or, for legacy files, the profile object itself.
type container struct {
	ProfileID string          `json:"profile_id,omitempty"`
	Version   any             `json:"version,omitempty"`
	Data      json.RawMessage `json:"data"`
	UpdatedAt any             `json:"updated_at,omitempty"`
}

// Load reads a profile. A missing file yields the default skeleton, which
// is persisted immediately. An unreadable or undecodable file is logged and
// replaced in memory by the default skeleton; it is only overwritten by the
// next save.
func (s *Store) Load(id string) (*Profile, error) {
	if !validID.MatchString(id) {
		return nil, fmt.Errorf("invalid profile id %q", id)
	}

	raw, err := os.ReadFile(s.path(id))
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("reading profile failed, using default", "profile", id, "error", err)
			return s.fresh(id), nil
		}
		p := s.fresh(id)
		if err := s.Save(p); err != nil {
			slog.Warn("persisting new default profile failed", "profile", id, "error", err)
		} else {
			slog.Info("created default profile", "profile", id)
		}
		return p, nil
	}

	data, updated, err := s.decode(raw)
	if err != nil {
		slog.Warn("profile file is unreadable, using default", "profile", id, "error", err)
		return s.fresh(id), nil
	}
	return &Profile{ID: id, Data: data, UpdatedAt: updated}, nil
}

func (s *Store) fresh(id string) *Profile {
	return &Profile{ID: id, Data: Default(), UpdatedAt: s.clock.Now()}
}

func (s *Store) decode(raw []byte) (Data, time.Time, error) {
	var c container
	if err := json.Unmarshal(raw, &c); err != nil {
		return Data{}, time.Time{}, fmt.Errorf("parsing container: %w", err)
	}
	updated := parseUpdatedAt(c.UpdatedAt)

	payload := bytes.TrimSpace(c.Data)
	if len(payload) == 0 || bytes.Equal(payload, []byte("null")) {
		return Data{}, time.Time{}, errors.New("container has no data")
	}

	var d Data
	switch payload[0] {
	case '{':
		// Legacy plaintext container, or an encrypted container whose
		// payload was never encrypted.
		if err := json.Unmarshal(payload, &d); err != nil {
			return Data{}, time.Time{}, fmt.Errorf("parsing plaintext profile: %w", err)
		}
		return d, updated, nil
	case '"':
		var ct string
		if err := json.Unmarshal(payload, &ct); err != nil {
			return Data{}, time.Time{}, fmt.Errorf("parsing ciphertext: %w", err)
		}
		if s.cipher == nil {
			return Data{}, time.Time{}, ErrNoCipher
		}
		plain, err := s.cipher.Decrypt(ct)
		if err != nil {
			return Data{}, time.Time{}, fmt.Errorf("decrypting profile: %w", err)
		}
		if err := json.Unmarshal(plain, &d); err != nil {
			return Data{}, time.Time{}, fmt.Errorf("parsing decrypted profile: %w", err)
		}
		return d, updated, nil
	default:
		return Data{}, time.Time{}, fmt.Errorf("unexpected data payload")
	}
}

// parseUpdatedAt accepts RFC 3339 strings and Unix seconds.
func parseUpdatedAt(v any) time.Time {
	switch t := v.(type) {
	case string:
		if ts, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return ts
		}
	case float64:
		sec := int64(t)
		return time.Unix(sec, int64((t-float64(sec))*1e9))
	}
	return time.Time{}
}

// Save encrypts p and writes the encrypted container, replacing the file.
func (s *Store) Save(p *Profile) error {
	if s.cipher == nil {
		return ErrNoCipher
	}
	if !validID.MatchString(p.ID) {
		return fmt.Errorf("invalid profile id %q", p.ID)
	}

	plain, err := json.Marshal(p.Data)
	if err != nil {
		return fmt.Errorf("encoding profile: %w", err)
	}
	ct, err := s.cipher.Encrypt(plain)
	if err != nil {
		return fmt.Errorf("encrypting profile: %w", err)
	}

	p.UpdatedAt = s.clock.Now().UTC()
	ctJSON, err := json.Marshal(ct)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(container{
		ProfileID: p.ID,
		Data:      ctJSON,
		UpdatedAt: p.UpdatedAt.Format(time.RFC3339Nano),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding container: %w", err)
	}

	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("creating profiles dir: %w", err)
	}
	tmp := s.path(p.ID) + ".tmp"
	if err := os.WriteFile(tmp, out, 0o600); err != nil {
		return fmt.Errorf("writing profile: %w", err)
	}
	if err := os.Rename(tmp, s.path(p.ID)); err != nil {
		return fmt.Errorf("writing profile: %w", err)
	}
	return nil
}

// List returns the ids of all stored profiles, sorted.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing profiles: %w", err)
	}
	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		id := strings.TrimSuffix(name, ".json")
		if validID.MatchString(id) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Delete removes a stored profile.
func (s *Store) Delete(id string) error {
	if !validID.MatchString(id) {
		return fmt.Errorf("invalid profile id %q", id)
	}
	if err := os.Remove(s.path(id)); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("deleting profile: %w", err)
	}
	return nil
}
