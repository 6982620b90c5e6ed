package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Backend persists the raw config document.
type Backend interface {
	Read() (data []byte, ok bool, err error)
	Write(data []byte) error
}

// fileBackend stores config.json under the application directory.
type fileBackend struct {
	path string
}

// NewFileBackend returns a Backend for the JSON file at path.
func NewFileBackend(path string) Backend {
	return &fileBackend{path: path}
}

func (b *fileBackend) Read() ([]byte, bool, error) {
	data, err := os.ReadFile(b.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

// Write replaces the whole file via a temp file and rename.
func (b *fileBackend) Write(data []byte) error {
	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	tmp := b.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, b.path)
}

// Dir returns the application directory holding config.json, profiles, the
// encryption key and the history database. SMARTFILL_HOME overrides it.
func Dir() string {
	if d := os.Getenv("SMARTFILL_HOME"); d != "" {
		return d
	}
	return defaultDir()
}

// ProfilesDir returns the directory holding one file per profile.
func ProfilesDir() string {
	return filepath.Join(Dir(), "profiles")
}
