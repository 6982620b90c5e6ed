//go:build !darwin

package config

import (
	"os"
	"path/filepath"
)

func defaultDir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".config")
		} else {
			return "smartfill-data"
		}
	}
	return filepath.Join(dir, "smartfill")
}

// APIKeyHint tells the user where the provider credential is kept.
func APIKeyHint(provider string) string {
	return secretsFilePath() + " (service: " + SecretService + ", account: " + apiKeyAccount(provider) + ")"
}
