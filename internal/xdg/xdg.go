// Package xdg resolves XDG Base Directory paths for the marketplace CLI.
//
// Configuration lives under the config dir, while the embedded browser profile
// (its cookie jar is the "shared device cookie storage" of the login flow) and
// the file keyring fallback live under the data dir. Every directory is created
// with private permissions.
package xdg

import (
	"os"
	"path/filepath"
)

const appDir = "marketplace"

// ConfigDir returns the XDG config directory for marketplace.
// It falls back to ~/.config/marketplace when XDG_CONFIG_HOME is unset.
func ConfigDir() (string, error) {
	return resolve("XDG_CONFIG_HOME", ".config")
}

// DataDir returns the XDG data directory for marketplace.
// It falls back to ~/.local/share/marketplace when XDG_DATA_HOME is unset.
func DataDir() (string, error) {
	return resolve("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

// StateDir returns the XDG state directory for marketplace.
// It falls back to ~/.local/state/marketplace when XDG_STATE_HOME is unset.
func StateDir() (string, error) {
	return resolve("XDG_STATE_HOME", filepath.Join(".local", "state"))
}

// Sub returns a private subdirectory of dir, creating it if missing.
func Sub(dir string, name string) (string, error) {
	p := filepath.Join(dir, name)
	if err := os.MkdirAll(p, 0o700); err != nil {
		return "", err
	}
	return p, nil
}

func resolve(env string, homeRel string) (string, error) {
	base := os.Getenv(env)
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, homeRel)
	}
	dir := filepath.Join(base, appDir)
	if err := os.MkdirAll(dir, 0o700); err != nil { // private dir
		return "", err
	}
	return dir, nil
}
