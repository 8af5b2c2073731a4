// Package credential stores mailbox secrets in the system keyring.
package credential

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/99designs/keyring"
)

const serviceName = "mull"

// PasswordEnv overrides the keyring for the IMAP/SMTP password.
const PasswordEnv = "MULL_IMAP_PASSWORD"

// ErrNotFound is returned when no credential is stored under a key.
var ErrNotFound = stderrors.New("credential not found")

// Store reads and writes credentials.
type Store struct {
	ring keyring.Keyring
}

// Open returns a Store backed by the first available system keyring, or
// an encrypted file under baseDir/credentials.
func Open(baseDir string) (*Store, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  filepath.Join(baseDir, "credentials"),
		FilePasswordFunc:         keyring.FixedStringPrompt("mull-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return &Store{ring: ring}, nil
}

// NewStore wraps an existing keyring.
func NewStore(ring keyring.Keyring) *Store {
	return &Store{ring: ring}
}

// Get retrieves a credential value by key.
func (s *Store) Get(key string) (string, error) {
	item, err := s.ring.Get(key)
	if err != nil {
		if stderrors.Is(err, keyring.ErrKeyNotFound) {
			return "", fmt.Errorf("getting credential %q: %w", key, ErrNotFound)
		}
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}
	return string(item.Data), nil
}

// Set stores a credential value by key.
func (s *Store) Set(key, value string) error {
	err := s.ring.Set(keyring.Item{
		Key:  key,
		Data: []byte(value),
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}
	return nil
}

// Delete removes a credential by key.
func (s *Store) Delete(key string) error {
	if err := s.ring.Remove(key); err != nil {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}
	return nil
}

// PasswordKey is the keyring key for a mailbox account.
func PasswordKey(username string) string {
	return "mailbox:" + username
}

// MailboxPassword resolves the password for username, preferring the
// environment over the keyring. A nil store skips the keyring.
func MailboxPassword(s *Store, username string) (string, error) {
	if pw := os.Getenv(PasswordEnv); pw != "" {
		return pw, nil
	}
	if s == nil {
		return "", ErrNotFound
	}
	return s.Get(PasswordKey(username))
}
