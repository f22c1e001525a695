package config

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		HostURL:   "",
		Timeout:   30000, // 30 seconds
		Headers:   nil,
		RateLimit: 0,
		LogLevel:  "warn",
		Verbose:   BoolPtr(false),
		NoColor:   BoolPtr(false),
		Reachability: ReachabilityConfig{
			ProbeAddress: "1.1.1.1:443",
			Interval:     10000, // 10 seconds
			WatchPath:    "/etc/resolv.conf",
			Disabled:     BoolPtr(false),
		},
		Device: DeviceConfig{
			Interface: "en0",
		},
	}
}

// IsDefault returns true if the config matches defaults
func (c *Config) IsDefault() bool {
	defaults := DefaultConfig()
	return c.HostURL == defaults.HostURL &&
		c.Timeout == defaults.Timeout &&
		len(c.Headers) == 0 &&
		c.RateLimit == defaults.RateLimit &&
		c.LogLevel == defaults.LogLevel &&
		c.GetVerbose() == defaults.GetVerbose() &&
		c.GetNoColor() == defaults.GetNoColor() &&
		c.ReachabilityEnabled() == defaults.ReachabilityEnabled() &&
		c.Reachability.ProbeAddress == defaults.Reachability.ProbeAddress &&
		c.Reachability.Interval == defaults.Reachability.Interval &&
		c.Reachability.WatchPath == defaults.Reachability.WatchPath &&
		c.Device == defaults.Device &&
		c.App == defaults.App
}
