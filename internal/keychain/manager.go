// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package keychain is the secure credential store of the marketplace client.
//
// It holds exactly one secret, the serialized session cookie, under the key
// "session_cookie" in the OS keychain/credential store, and it is the only
// package that touches device-level secure storage. There is no caching
// layer: every Get goes to the underlying store, and storage failures are
// returned to the caller as *StoreError.
package keychain

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/99designs/keyring"
	"golang.org/x/term"

	"marketplace/cli/internal/xdg"
)

// Global keychain manager instance
var (
	globalManager *Manager
	mu            sync.Mutex
)

// ServiceName identifies our keychain/credential store namespace.
const ServiceName = "marketplace"

// KeySessionCookie is the single secure-storage key used by the client.
const KeySessionCookie = "session_cookie"

// EnvKeyringPassword supplies the passphrase of the encrypted file keyring
// used when no native backend is available.
const EnvKeyringPassword = "MARKETPLACE_KEYRING_PASSWORD"

// StoreError reports a failed secure-storage operation.
type StoreError struct {
	Op  string // "get", "set", "clear"
	Key string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("keychain %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Manager provides thread-safe access to the session credential.
type Manager struct {
	mu      sync.RWMutex
	ring    keyring.Keyring
	backend keychainBackend
}

// keychainBackend defines the interface for native keychain operations.
type keychainBackend interface {
	Set(key, value string) error
	Get(key string) (string, error)
	Delete(key string) error
}

// errNotFound is returned by native backends when a key is absent.
var errNotFound = errors.New("key not found")

// NewManager creates a new keychain manager with the OS keyring initialized.
func NewManager() (*Manager, error) {
	// Try native security backend first on macOS
	if runtime.GOOS == "darwin" {
		backend, err := newSecurityBackend()
		if err == nil {
			return &Manager{backend: backend}, nil
		}
		// Fall through to keyring library if security command fails
	}

	ring, err := openRing()
	if err != nil {
		return nil, err
	}
	return NewManagerWithKeyring(ring), nil
}

// NewManagerWithKeyring wraps an already opened keyring, e.g.
// keyring.NewArrayKeyring in tests.
func NewManagerWithKeyring(ring keyring.Keyring) *Manager {
	return &Manager{ring: ring}
}

// GetManager returns the process-wide keychain manager.
// If initialization fails, it will retry on subsequent calls.
func GetManager() (*Manager, error) {
	mu.Lock()
	defer mu.Unlock()

	if globalManager != nil {
		return globalManager, nil
	}

	m, err := NewManager()
	if err != nil {
		return nil, err
	}
	globalManager = m
	return globalManager, nil
}

// openRing opens the OS keyring, preferring native platform backends and
// falling back to an encrypted file keyring on Linux.
func openRing() (keyring.Keyring, error) {
	cfg := keyring.Config{
		ServiceName:             ServiceName,
		PassPrefix:              ServiceName,
		LibSecretCollectionName: "login",
		KWalletAppID:            ServiceName,
		KWalletFolder:           ServiceName,
		FilePasswordFunc:        passphrasePrompt,
	}

	switch runtime.GOOS {
	case "darwin":
		// Pass requires 'pass' utility installed: brew install pass
		cfg.AllowedBackends = []keyring.BackendType{keyring.KeychainBackend, keyring.PassBackend}
	case "windows":
		cfg.AllowedBackends = []keyring.BackendType{keyring.WinCredBackend}
		cfg.WinCredPrefix = ServiceName
	default:
		cfg.AllowedBackends = []keyring.BackendType{
			keyring.SecretServiceBackend,
			keyring.KWalletBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		}
		dir, err := xdg.DataDir()
		if err != nil {
			return nil, err
		}
		cfg.FileDir = filepath.Join(dir, "keyring")
	}

	ring, err := keyring.Open(cfg)
	if err != nil {
		if runtime.GOOS == "darwin" {
			return nil, errors.New("macOS Keychain unavailable. On macOS 26.0+, install 'pass': brew install pass gnupg && gpg --generate-key && pass init <gpg-key-id>")
		}
		return nil, fmt.Errorf("secure storage unavailable: %w", err)
	}
	return ring, nil
}

// passphrasePrompt unlocks the file keyring from the environment or an
// interactive terminal.
func passphrasePrompt(prompt string) (string, error) {
	if v := os.Getenv(EnvKeyringPassword); v != "" {
		return v, nil
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("file keyring is locked; set %s", EnvKeyringPassword)
	}
	fmt.Fprintf(os.Stderr, "%s: ", prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Get returns the stored session credential. ok is false when none is stored.
func (m *Manager) Get() (cred string, ok bool, err error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.backend != nil {
		v, err := m.backend.Get(KeySessionCookie)
		if errors.Is(err, errNotFound) {
			return "", false, nil
		}
		if err != nil {
			return "", false, &StoreError{Op: "get", Key: KeySessionCookie, Err: err}
		}
		return v, v != "", nil
	}

	it, err := m.ring.Get(KeySessionCookie)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, &StoreError{Op: "get", Key: KeySessionCookie, Err: err}
	}
	if len(it.Data) == 0 {
		return "", false, nil
	}
	return string(it.Data), true, nil
}

// Set replaces the stored session credential.
func (m *Manager) Set(cred string) error {
	if cred == "" {
		return &StoreError{Op: "set", Key: KeySessionCookie, Err: errors.New("empty credential")}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var err error
	if m.backend != nil {
		err = m.backend.Set(KeySessionCookie, cred)
	} else {
		err = m.ring.Set(keyring.Item{
			Key:         KeySessionCookie,
			Data:        []byte(cred),
			Label:       "Marketplace session",
			Description: "marketplace session cookie",
		})
	}
	if err != nil {
		return &StoreError{Op: "set", Key: KeySessionCookie, Err: err}
	}
	return nil
}

// Clear removes the stored session credential. Clearing an empty store
// succeeds.
func (m *Manager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var err error
	if m.backend != nil {
		err = m.backend.Delete(KeySessionCookie)
	} else {
		err = m.ring.Remove(KeySessionCookie)
	}
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) && !errors.Is(err, errNotFound) {
		return &StoreError{Op: "clear", Key: KeySessionCookie, Err: err}
	}
	return nil
}
