//go:build darwin

package config

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// security exits with 44 when the item does not exist.
const errSecItemNotFound = 44

func keychainGet(service, account string) (string, error) {
	out, err := exec.Command(
		"security", "find-generic-password",
		"-s", service,
		"-a", account,
		"-w",
	).Output()
	if err != nil {
		if isNotFound(err) {
			return "", ErrSecretNotFound
		}
		return "", fmt.Errorf("reading keychain item %s/%s: %w", service, account, err)
	}
	return strings.TrimSpace(string(out)), nil
}

func keychainSet(service, account, value string) error {
	out, err := exec.Command(
		"security", "add-generic-password",
		"-U",
		"-s", service,
		"-a", account,
		"-w", value,
	).CombinedOutput()
	if err != nil {
		return fmt.Errorf("writing keychain item %s/%s: %w, output: %s", service, account, err, strings.TrimSpace(string(out)))
	}
	return nil
}

func keychainDelete(service, account string) error {
	err := exec.Command(
		"security", "delete-generic-password",
		"-s", service,
		"-a", account,
	).Run()
	if err != nil {
		if isNotFound(err) {
			return ErrSecretNotFound
		}
		return fmt.Errorf("deleting keychain item %s/%s: %w", service, account, err)
	}
	return nil
}

func isNotFound(err error) bool {
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr) && exitErr.ExitCode() == errSecItemNotFound
}
