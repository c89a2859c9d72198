package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile_MissingFileYieldsDefaults(t *testing.T) {
	clearEnv(t)
	c, err := LoadFile(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, c.BaseURL)
	assert.Equal(t, DefaultAppScheme, c.AppScheme)
	assert.Equal(t, DefaultLoginPath, c.LoginPath)
	assert.Equal(t, DefaultDenyHosts, c.DenyHosts)
	assert.Zero(t, c.SettleDelay)
}

func TestLoadFile_ParsesAndOverrides(t *testing.T) {
	clearEnv(t)
	p := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(p, []byte(`{
		"base_url": "https://shop.example.org/",
		"settle_delay": "750ms",
		"http_timeout": "20s",
		"deny_hosts": ["idp.example.net"]
	}`), 0o600))

	t.Setenv(EnvAppScheme, "shopapp")

	c, err := LoadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "https://shop.example.org", c.BaseURL)
	assert.Equal(t, "shopapp", c.AppScheme)
	assert.Equal(t, 750*time.Millisecond, c.SettleDelay.Std())
	assert.Equal(t, 20*time.Second, c.HTTPTimeout.Std())
	assert.Equal(t, []string{"idp.example.net"}, c.DenyHosts)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "bad scheme", mutate: func(c *Config) { c.BaseURL = "ftp://x" }, wantErr: true},
		{name: "no host", mutate: func(c *Config) { c.BaseURL = "https://" }, wantErr: true},
		{name: "app scheme with colon", mutate: func(c *Config) { c.AppScheme = "app:" }, wantErr: true},
		{name: "relative login path", mutate: func(c *Config) { c.LoginPath = "api/login" }, wantErr: true},
		{name: "negative delay", mutate: func(c *Config) { c.SettleDelay = -1 }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Defaults()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSaveFileRoundTripKeepsDurationsReadable(t *testing.T) {
	clearEnv(t)
	p := filepath.Join(t.TempDir(), "config.json")
	c := Defaults()
	c.SettleDelay = Duration(time.Second)
	require.NoError(t, SaveFile(p, c))

	raw, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"settle_delay": "1s"`)

	info, err := os.Stat(p)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvBaseURL, EnvAppScheme, EnvBrowser, EnvLogLevel} {
		t.Setenv(k, "")
	}
}

func TestLoadStored_IgnoresEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	p, err := Path()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(p, []byte(`{"base_url": "https://stored.example.com"}`), 0o600))

	t.Setenv(EnvBaseURL, "http://127.0.0.1:8787")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8787", c.BaseURL)

	stored, err := LoadStored()
	require.NoError(t, err)
	assert.Equal(t, "https://stored.example.com", stored.BaseURL)
}
