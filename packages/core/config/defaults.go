package config

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		DefaultHost:     "example.org",
		Headers:         nil,
		FollowRedirects: boolPtr(false),
		MaxRedirects:    10,
		RemoteAddr:      "127.0.0.1",
		SpoolDir:        "",
		Verbose:         boolPtr(false),
		NoColor:         boolPtr(false),
	}
}

// IsDefault returns true if the config matches defaults
func (c *Config) IsDefault() bool {
	defaults := DefaultConfig()
	return c.DefaultHost == defaults.DefaultHost &&
		len(c.Headers) == 0 &&
		c.GetFollowRedirects() == defaults.GetFollowRedirects() &&
		c.MaxRedirects == defaults.MaxRedirects &&
		c.RemoteAddr == defaults.RemoteAddr &&
		c.SpoolDir == defaults.SpoolDir &&
		c.GetVerbose() == defaults.GetVerbose() &&
		c.GetNoColor() == defaults.GetNoColor() &&
		len(c.Variables) == 0 &&
		c.EnvFile == defaults.EnvFile
}
