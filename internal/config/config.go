// Package config loads and stores CLI configuration in the XDG config dir.
// Only non-secret settings are kept here; the session credential goes to the
// OS keychain.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"marketplace/cli/internal/xdg"
)

// Environment variables that override values read from the config file.
const (
	EnvBaseURL   = "MARKETPLACE_BASE_URL"
	EnvAppScheme = "MARKETPLACE_APP_SCHEME"
	EnvBrowser   = "MARKETPLACE_BROWSER"
	EnvLogLevel  = "MARKETPLACE_LOG_LEVEL"
)

// Default values used when the config file is missing or a field is empty.
const (
	DefaultBaseURL   = "https://marketplace.example.com"
	DefaultAppScheme = "marketplace"
	DefaultLoginPath = "/api/login"
	DefaultLogLevel  = "warn"
)

// DefaultDenyHosts lists identity-provider hosts the embedded login flow passes
// through. Navigations to these never count as a completed login.
var DefaultDenyHosts = []string{
	"accounts.google.com",
	"appleid.apple.com",
	"www.facebook.com",
	"m.facebook.com",
	"login.microsoftonline.com",
	"github.com",
}

// Config holds non-sensitive CLI settings.
type Config struct {
	BaseURL   string  `json:"base_url"`
	AppScheme string  `json:"app_scheme"`
	LoginPath string  `json:"login_path"`
	LogLevel  string  `json:"log_level"`
	Browser   Browser `json:"browser"`
	// DenyHosts are identity-provider hosts, see DefaultDenyHosts.
	DenyHosts []string `json:"deny_hosts"`
	// SettleDelay is waited after the harvested cookie is stored and before it
	// is verified. Zero disables it.
	SettleDelay Duration `json:"settle_delay"`
	// HTTPTimeout bounds backend calls. Zero leaves the platform default.
	HTTPTimeout Duration `json:"http_timeout"`
}

// Browser configures the embedded browser used by the login flow.
type Browser struct {
	// Path to a Chrome/Chromium binary. Empty means auto-detect.
	Path string `json:"path"`
	// ProfileDir persists the browser cookie jar between runs.
	// Empty means <data dir>/browser-profile.
	ProfileDir string `json:"profile_dir"`
	Headless   bool   `json:"headless"`
}

// Duration is a time.Duration that marshals as a Go duration string ("1s").
type Duration time.Duration

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON accepts either a duration string or a number of nanoseconds.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		if s == "" {
			*d = 0
			return nil
		}
		v, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(v)
		return nil
	}
	var n int64
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("invalid duration %s", string(b))
	}
	*d = Duration(n)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		BaseURL:   DefaultBaseURL,
		AppScheme: DefaultAppScheme,
		LoginPath: DefaultLoginPath,
		LogLevel:  DefaultLogLevel,
		DenyHosts: append([]string(nil), DefaultDenyHosts...),
	}
}

// Path returns the path to the config file.
func Path() (string, error) {
	dir, err := xdg.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads configuration; missing file returns defaults. Environment
// overrides are applied on top of either.
func Load() (Config, error) {
	p, err := Path()
	if err != nil {
		return Config{}, err
	}
	return LoadFile(p)
}

// LoadFile reads configuration from p.
func LoadFile(p string) (Config, error) {
	return loadFile(p, true)
}

// LoadStored reads the config file without environment overrides, for
// editing it in place.
func LoadStored() (Config, error) {
	p, err := Path()
	if err != nil {
		return Config{}, err
	}
	return loadFile(p, false)
}

func loadFile(p string, withEnv bool) (Config, error) {
	c := Defaults()
	data, err := os.ReadFile(p)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return c, err
	default:
		if err := json.Unmarshal(data, &c); err != nil {
			return c, fmt.Errorf("parse %s: %w", p, err)
		}
	}
	if withEnv {
		c.applyEnv()
	}
	c.fillDefaults()
	return c, c.Validate()
}

// Save writes configuration with 0600 permissions.
func Save(c Config) error {
	p, err := Path()
	if err != nil {
		return err
	}
	return SaveFile(p, c)
}

// SaveFile writes configuration to p.
func SaveFile(p string, c Config) error {
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p, b, 0o600)
}

// Validate reports configuration values the flows cannot work with.
func (c Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base_url: scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("base_url: missing host")
	}
	if c.AppScheme == "" || strings.ContainsAny(c.AppScheme, ":/ ") {
		return fmt.Errorf("app_scheme: invalid value %q", c.AppScheme)
	}
	if !strings.HasPrefix(c.LoginPath, "/") {
		return fmt.Errorf("login_path: must start with '/', got %q", c.LoginPath)
	}
	if c.SettleDelay < 0 || c.HTTPTimeout < 0 {
		return errors.New("durations must not be negative")
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvBaseURL)); v != "" {
		c.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvAppScheme)); v != "" {
		c.AppScheme = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvBrowser)); v != "" {
		c.Browser.Path = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		c.LogLevel = v
	}
}

func (c *Config) fillDefaults() {
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.AppScheme == "" {
		c.AppScheme = DefaultAppScheme
	}
	if c.LoginPath == "" {
		c.LoginPath = DefaultLoginPath
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.DenyHosts == nil {
		c.DenyHosts = append([]string(nil), DefaultDenyHosts...)
	}
}

// BrowserProfileDir returns the configured profile dir or the default one.
func (c Config) BrowserProfileDir() (string, error) {
	if c.Browser.ProfileDir != "" {
		return c.Browser.ProfileDir, nil
	}
	dir, err := xdg.DataDir()
	if err != nil {
		return "", err
	}
	return xdg.Sub(dir, "browser-profile")
}
