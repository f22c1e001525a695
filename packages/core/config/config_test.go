package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/hitclient/packages/core/env"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.True(t, cfg.IsDefault())
	assert.Equal(t, 30*time.Second, cfg.TimeoutDuration())
	assert.Equal(t, 10*time.Second, cfg.ReachabilityInterval())
	assert.False(t, cfg.GetVerbose())
	assert.False(t, cfg.GetNoColor())
	assert.True(t, cfg.ReachabilityEnabled())
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_JSON(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "hitclient.json", `{
		"hostURL": "https://api.example.com",
		"timeout": 5000,
		"headers": {"Accept": "application/json"},
		"rateLimit": 2.5,
		"verbose": true,
		"reachability": {"probeAddress": "example.com:443", "disabled": true},
		"app": {"name": "Shopper", "version": "2.4.0", "build": "118"}
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com", cfg.HostURL)
	assert.Equal(t, 5*time.Second, cfg.TimeoutDuration())
	assert.Equal(t, "application/json", cfg.Headers["Accept"])
	assert.Equal(t, 2.5, cfg.RateLimit)
	assert.True(t, cfg.GetVerbose())
	assert.False(t, cfg.ReachabilityEnabled())
	assert.Equal(t, "example.com:443", cfg.Reachability.ProbeAddress)
	// unspecified nested values keep their defaults
	assert.Equal(t, 10000, cfg.Reachability.Interval)
	assert.Equal(t, "en0", cfg.Device.Interface)
	assert.Equal(t, "Shopper", cfg.App.Name)
	assert.False(t, cfg.IsDefault())
}

func TestLoadConfig_YAML(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "hitclient.yaml", `
hostURL: https://staging.example.com
timeout: 1500
noColor: true
headers:
  X-Client: hitclient
device:
  interface: wlan0
app:
  storeID: "1511450688"
  region: us
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "https://staging.example.com", cfg.HostURL)
	assert.Equal(t, 1500, cfg.Timeout)
	assert.True(t, cfg.GetNoColor())
	assert.Equal(t, "hitclient", cfg.Headers["X-Client"])
	assert.Equal(t, "wlan0", cfg.Device.Interface)
	assert.Equal(t, "1511450688", cfg.App.StoreID)
	assert.Equal(t, "us", cfg.App.Region)
}

func TestLoadConfig_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadConfig(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, dir, "broken.json", `{"timeout": "soon"`))
	assert.ErrorContains(t, err, "failed to parse config")

	_, err = LoadConfig(writeConfig(t, dir, "broken.yaml", "timeout: [1"))
	assert.ErrorContains(t, err, "failed to parse config")
}

func TestFindAndLoadConfig(t *testing.T) {
	dir := t.TempDir()

	cfg, err := FindAndLoadConfig(dir)
	require.NoError(t, err)
	assert.True(t, cfg.IsDefault())

	writeConfig(t, dir, "hitclient.yaml", "hostURL: https://from-yaml.example.com\n")
	writeConfig(t, dir, ".hitclient.json", `{"hostURL": "https://from-json.example.com"}`)

	cfg, err = FindAndLoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "https://from-json.example.com", cfg.HostURL)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("HITCLIENT_HOST_URL", "https://env.example.com")
	t.Setenv("HITCLIENT_TIMEOUT", "2500")
	t.Setenv("HITCLIENT_HEADERS", "X-One:1,X-Two:2")
	t.Setenv("HITCLIENT_VERBOSE", "true")
	t.Setenv("HITCLIENT_REACHABILITY_PROBE_ADDRESS", "10.0.0.1:53")
	t.Setenv("HITCLIENT_APP_STORE_ID", "42")

	cfg := DefaultConfig()
	cfg.LogLevel = "error"
	require.NoError(t, cfg.ApplyEnv())

	assert.Equal(t, "https://env.example.com", cfg.HostURL)
	assert.Equal(t, 2500, cfg.Timeout)
	assert.Equal(t, map[string]string{"X-One": "1", "X-Two": "2"}, cfg.Headers)
	assert.True(t, cfg.GetVerbose())
	assert.Equal(t, "10.0.0.1:53", cfg.Reachability.ProbeAddress)
	assert.Equal(t, "42", cfg.App.StoreID)
	// unset variables leave fields untouched
	assert.Equal(t, "error", cfg.LogLevel)
	assert.Equal(t, 10000, cfg.Reachability.Interval)
}

func TestApplyEnv_InvalidValue(t *testing.T) {
	t.Setenv("HITCLIENT_TIMEOUT", "soon")

	err := DefaultConfig().ApplyEnv()
	assert.ErrorContains(t, err, "failed to load config from environment")
}

func TestExpand(t *testing.T) {
	t.Setenv("HITCLIENT_TEST_TOKEN", "s3cret")

	r := env.NewResolver()
	r.SetVariable("tenant", "acme")

	cfg := DefaultConfig()
	cfg.HostURL = "https://{{tenant}}.example.com"
	cfg.Headers = map[string]string{"Authorization": "Bearer {{$HITCLIENT_TEST_TOKEN}}"}
	cfg.Device.Token = "{{$HITCLIENT_TEST_TOKEN}}"

	expanded := cfg.Expand(r)

	assert.Equal(t, "https://acme.example.com", expanded.HostURL)
	assert.Equal(t, "Bearer s3cret", expanded.Headers["Authorization"])
	assert.Equal(t, "s3cret", expanded.Device.Token)
	assert.Equal(t, "https://{{tenant}}.example.com", cfg.HostURL)
}

func TestExpand_ConfiguredVariables(t *testing.T) {
	r := env.NewResolver()
	r.SetVariable("region", "us")

	cfg := DefaultConfig()
	cfg.Variables = map[string]string{"region": "eu", "tenant": "acme"}
	cfg.HostURL = "https://{{tenant}}.{{region}}.example.com"
	cfg.Headers = map[string]string{"X-Device-Token": "{{deviceToken}}"}
	cfg.Device.Token = "tok-{{tenant}}"

	expanded := cfg.Expand(r)

	assert.Equal(t, "https://acme.eu.example.com", expanded.HostURL, "configured variables take precedence")
	assert.Equal(t, "tok-acme", expanded.Device.Token)
	assert.Equal(t, "tok-acme", expanded.Headers["X-Device-Token"])
	assert.False(t, r.HasUnresolvedVariables(cfg.HostURL))
	assert.Equal(t, []string{"missing"}, r.GetUnresolvedVariables("{{tenant}}/{{missing}}"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) { c.HostURL = "https://api.example.com" }},
		{name: "bad scheme", mutate: func(c *Config) { c.HostURL = "ftp://api.example.com" }, wantErr: "scheme must be http or https"},
		{name: "unparseable", mutate: func(c *Config) { c.HostURL = "http://[::1" }, wantErr: "invalid hostURL"},
		{name: "negative timeout", mutate: func(c *Config) { c.Timeout = -1 }, wantErr: "invalid timeout"},
		{name: "negative rate", mutate: func(c *Config) { c.RateLimit = -2 }, wantErr: "invalid rateLimit"},
		{name: "negative interval", mutate: func(c *Config) { c.Reachability.Interval = -5 }, wantErr: "invalid reachability interval"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestMerge(t *testing.T) {
	base := DefaultConfig()
	base.Headers = map[string]string{"Accept": "application/json", "X-Keep": "1"}

	other := &Config{
		HostURL:      "https://override.example.com",
		Timeout:      1000,
		Headers:      map[string]string{"Accept": "text/plain"},
		NoColor:      BoolPtr(true),
		Reachability: ReachabilityConfig{Disabled: BoolPtr(true)},
		App:          AppConfig{Name: "Shopper"},
		Device:       DeviceConfig{Identifier: "kiosk-3"},
		Variables:    map[string]string{"tenant": "acme"},
	}

	merged := base.Merge(other)

	assert.Equal(t, "https://override.example.com", merged.HostURL)
	assert.Equal(t, 1000, merged.Timeout)
	assert.Equal(t, "text/plain", merged.Headers["Accept"])
	assert.Equal(t, "1", merged.Headers["X-Keep"])
	assert.True(t, merged.GetNoColor())
	assert.False(t, merged.GetVerbose())
	assert.False(t, merged.ReachabilityEnabled())
	assert.Equal(t, "1.1.1.1:443", merged.Reachability.ProbeAddress)
	assert.Equal(t, "Shopper", merged.App.Name)
	assert.Equal(t, "kiosk-3", merged.Device.Identifier)
	assert.Equal(t, "acme", merged.Variables["tenant"])

	// inputs are not mutated
	assert.Equal(t, "application/json", base.Headers["Accept"])
	assert.Nil(t, base.Variables)
	assert.Same(t, base, base.Merge(nil))
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.HostURL = "https://api.example.com"
	cfg.App.Name = "Shopper"

	for _, name := range []string{"saved.json", "saved.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, cfg.SaveConfig(path))

			loaded, err := LoadConfig(path)
			require.NoError(t, err)
			assert.Equal(t, cfg.HostURL, loaded.HostURL)
			assert.Equal(t, cfg.App, loaded.App)
			assert.Equal(t, cfg.Reachability.ProbeAddress, loaded.Reachability.ProbeAddress)
		})
	}
}
