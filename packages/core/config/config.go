package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/abdul-hamid-achik/hitclient/packages/core/env"
)

// EnvPrefix is the prefix of environment variables read by ApplyEnv
const EnvPrefix = "HITCLIENT"

// Config represents the hitclient configuration
type Config struct {
	HostURL string `json:"hostURL,omitempty" yaml:"hostURL,omitempty" split_words:"true"`
	// Timeout is in milliseconds
	Timeout int `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	// Headers are sent with every request
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	// Variables are substituted for {{name}} references
	Variables map[string]string `json:"variables,omitempty" yaml:"variables,omitempty"`
	// RateLimit is in requests per second, 0 disables
	RateLimit    float64            `json:"rateLimit,omitempty" yaml:"rateLimit,omitempty" split_words:"true"`
	LogLevel     string             `json:"logLevel,omitempty" yaml:"logLevel,omitempty" split_words:"true"`
	Verbose      *bool              `json:"verbose,omitempty" yaml:"verbose,omitempty"`
	NoColor      *bool              `json:"noColor,omitempty" yaml:"noColor,omitempty" split_words:"true"`
	Reachability ReachabilityConfig `json:"reachability" yaml:"reachability"`
	Device       DeviceConfig       `json:"device" yaml:"device"`
	App          AppConfig          `json:"app" yaml:"app"`
}

type ReachabilityConfig struct {
	ProbeAddress string `json:"probeAddress,omitempty" yaml:"probeAddress,omitempty" split_words:"true"`
	// Interval is in milliseconds
	Interval  int    `json:"interval,omitempty" yaml:"interval,omitempty"`
	WatchPath string `json:"watchPath,omitempty" yaml:"watchPath,omitempty" split_words:"true"`
	Disabled  *bool  `json:"disabled,omitempty" yaml:"disabled,omitempty"`
}

type DeviceConfig struct {
	// Identifier overrides the identifier derived from the machine
	Identifier string `json:"identifier,omitempty" yaml:"identifier,omitempty"`
	Interface  string `json:"interface,omitempty" yaml:"interface,omitempty"`
	Token      string `json:"token,omitempty" yaml:"token,omitempty"`
}

type AppConfig struct {
	Name    string `json:"name,omitempty" yaml:"name,omitempty"`
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
	Build   string `json:"build,omitempty" yaml:"build,omitempty"`
	StoreID string `json:"storeID,omitempty" yaml:"storeID,omitempty" split_words:"true"`
	Region  string `json:"region,omitempty" yaml:"region,omitempty"`
}

// BoolPtr returns a pointer to a bool value
func BoolPtr(b bool) *bool {
	return &b
}

// getBool returns the value of a bool pointer, or the default if nil
func getBool(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}

// GetVerbose returns the verbose setting, defaulting to false
func (c *Config) GetVerbose() bool {
	return getBool(c.Verbose, false)
}

// GetNoColor returns the no color setting, defaulting to false
func (c *Config) GetNoColor() bool {
	return getBool(c.NoColor, false)
}

// ReachabilityEnabled reports whether requests are gated on connectivity
func (c *Config) ReachabilityEnabled() bool {
	return !getBool(c.Reachability.Disabled, false)
}

func (c *Config) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Millisecond
}

func (c *Config) ReachabilityInterval() time.Duration {
	return time.Duration(c.Reachability.Interval) * time.Millisecond
}

// ConfigFilenames contains the possible config file names
var ConfigFilenames = []string{
	".hitclient.json",
	"hitclient.json",
	".hitclient.yaml",
	"hitclient.yaml",
	".hitclient.yml",
}

// LoadConfig loads configuration from the specified path or searches for config files
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		return loadConfigFromFile(path)
	}

	return FindAndLoadConfig(".")
}

// FindAndLoadConfig searches for a config file in the given directory
func FindAndLoadConfig(dir string) (*Config, error) {
	for _, filename := range ConfigFilenames {
		configPath := filepath.Join(dir, filename)
		if _, err := os.Stat(configPath); err == nil {
			return loadConfigFromFile(configPath)
		}
	}

	return DefaultConfig(), nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func loadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	config := DefaultConfig()
	if isYAML(path) {
		err = yaml.Unmarshal(data, config)
	} else {
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	return config, nil
}

// ApplyEnv overlays HITCLIENT_* environment variables onto the config, e.g.
// HITCLIENT_HOST_URL or HITCLIENT_REACHABILITY_PROBE_ADDRESS. Unset variables
// leave fields untouched.
func (c *Config) ApplyEnv() error {
	if err := envconfig.Process(EnvPrefix, c); err != nil {
		return fmt.Errorf("failed to load config from environment: %w", err)
	}
	return nil
}

// Expand resolves {{$VAR}} and {{name}} references in the host URL, headers and
// device token. Configured variables are added to r, and the resolved device
// token is available to the headers as {{deviceToken}}.
func (c *Config) Expand(r *env.Resolver) *Config {
	r.SetVariables(c.Variables)

	result := *c
	result.Device.Token = r.Resolve(c.Device.Token)
	if result.Device.Token != "" {
		r.SetVariable("deviceToken", result.Device.Token)
	}
	result.HostURL = r.Resolve(c.HostURL)
	result.Headers = r.ResolveAll(c.Headers)
	return &result
}

// Validate checks values that would otherwise fail at request time
func (c *Config) Validate() error {
	if c.HostURL != "" {
		u, err := url.Parse(c.HostURL)
		if err != nil {
			return fmt.Errorf("invalid hostURL: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("invalid hostURL %q: scheme must be http or https", c.HostURL)
		}
	}
	if c.Timeout < 0 {
		return fmt.Errorf("invalid timeout %d: must not be negative", c.Timeout)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("invalid rateLimit %v: must not be negative", c.RateLimit)
	}
	if c.Reachability.Interval < 0 {
		return fmt.Errorf("invalid reachability interval %d: must not be negative", c.Reachability.Interval)
	}
	return nil
}

// Merge merges another config into this one, with other taking precedence
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	result := *c // Copy

	if other.HostURL != "" {
		result.HostURL = other.HostURL
	}
	if other.Timeout > 0 {
		result.Timeout = other.Timeout
	}
	if other.RateLimit > 0 {
		result.RateLimit = other.RateLimit
	}
	if other.LogLevel != "" {
		result.LogLevel = other.LogLevel
	}

	// Boolean flags - only override if explicitly set in other config
	if other.Verbose != nil {
		result.Verbose = other.Verbose
	}
	if other.NoColor != nil {
		result.NoColor = other.NoColor
	}

	if other.Reachability.ProbeAddress != "" {
		result.Reachability.ProbeAddress = other.Reachability.ProbeAddress
	}
	if other.Reachability.Interval > 0 {
		result.Reachability.Interval = other.Reachability.Interval
	}
	if other.Reachability.WatchPath != "" {
		result.Reachability.WatchPath = other.Reachability.WatchPath
	}
	if other.Reachability.Disabled != nil {
		result.Reachability.Disabled = other.Reachability.Disabled
	}

	if other.Device.Identifier != "" {
		result.Device.Identifier = other.Device.Identifier
	}
	if other.Device.Interface != "" {
		result.Device.Interface = other.Device.Interface
	}
	if other.Device.Token != "" {
		result.Device.Token = other.Device.Token
	}

	if other.App.Name != "" {
		result.App.Name = other.App.Name
	}
	if other.App.Version != "" {
		result.App.Version = other.App.Version
	}
	if other.App.Build != "" {
		result.App.Build = other.App.Build
	}
	if other.App.StoreID != "" {
		result.App.StoreID = other.App.StoreID
	}
	if other.App.Region != "" {
		result.App.Region = other.App.Region
	}

	result.Headers = mergeMaps(c.Headers, other.Headers)
	result.Variables = mergeMaps(c.Variables, other.Variables)

	return &result
}

// mergeMaps returns base overlaid with override without mutating either
func mergeMaps(base, override map[string]string) map[string]string {
	if len(override) == 0 {
		return base
	}
	merged := make(map[string]string, len(base)+len(override))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range override {
		merged[k] = v
	}
	return merged
}

// SaveConfig saves the configuration as YAML or JSON depending on the extension
func (c *Config) SaveConfig(path string) error {
	var data []byte
	var err error
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
