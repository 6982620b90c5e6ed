package config

import "errors"

// ErrSecretNotFound is returned by a SecretStore when no value exists for
// the service/account pair.
var ErrSecretNotFound = errors.New("secret not found")

// SecretStore abstracts the OS credential store.
type SecretStore interface {
	Get(service, account string) (string, error)
	Set(service, account, value string) error
	Delete(service, account string) error
}

// NewKeychain returns the platform credential store: the login keychain on
// macOS, a 0600 secrets file elsewhere.
func NewKeychain() SecretStore {
	return keychain{}
}

type keychain struct{}

func (keychain) Get(service, account string) (string, error) {
	return keychainGet(service, account)
}

func (keychain) Set(service, account, value string) error {
	return keychainSet(service, account, value)
}

func (keychain) Delete(service, account string) error {
	return keychainDelete(service, account)
}
