//go:build darwin

package config

import (
	"os"
	"path/filepath"
)

func defaultDir() string {
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, "Library", "Application Support", "SmartFill")
	}
	return "smartfill-data"
}

// APIKeyHint tells the user where the provider credential is kept.
func APIKeyHint(provider string) string {
	return "macOS Keychain (service: " + SecretService + ", account: " + apiKeyAccount(provider) + ")"
}
