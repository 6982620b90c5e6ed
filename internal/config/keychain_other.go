//go:build !darwin

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

func secretsFilePath() string {
	return filepath.Join(Dir(), "secrets.json")
}

func readSecrets() (map[string]map[string]string, error) {
	data, err := os.ReadFile(secretsFilePath())
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]map[string]string{}, nil
		}
		return nil, fmt.Errorf("keychain not available: %w", err)
	}
	var secrets map[string]map[string]string
	if err := json.Unmarshal(data, &secrets); err != nil {
		return nil, fmt.Errorf("parsing secrets file: %w", err)
	}
	if secrets == nil {
		secrets = map[string]map[string]string{}
	}
	return secrets, nil
}

func writeSecrets(secrets map[string]map[string]string) error {
	p := secretsFilePath()
	if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
		return fmt.Errorf("creating secrets dir: %w", err)
	}
	out, err := json.MarshalIndent(secrets, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p, out, 0o600)
}

func keychainGet(service, account string) (string, error) {
	secrets, err := readSecrets()
	if err != nil {
		return "", err
	}
	val, ok := secrets[service][account]
	if !ok {
		return "", ErrSecretNotFound
	}
	return val, nil
}

func keychainSet(service, account, value string) error {
	secrets, err := readSecrets()
	if err != nil {
		return err
	}
	if secrets[service] == nil {
		secrets[service] = make(map[string]string)
	}
	secrets[service][account] = value
	return writeSecrets(secrets)
}

func keychainDelete(service, account string) error {
	secrets, err := readSecrets()
	if err != nil {
		return err
	}
	if _, ok := secrets[service][account]; !ok {
		return ErrSecretNotFound
	}
	delete(secrets[service], account)
	return writeSecrets(secrets)
}
