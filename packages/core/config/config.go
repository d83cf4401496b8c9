package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the hittest configuration
type Config struct {
	DefaultHost     string            `json:"defaultHost,omitempty" yaml:"defaultHost,omitempty"`
	Headers         map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"` // Default headers for every request
	FollowRedirects *bool             `json:"followRedirects,omitempty" yaml:"followRedirects,omitempty"`
	MaxRedirects    int               `json:"maxRedirects,omitempty" yaml:"maxRedirects,omitempty"`
	RemoteAddr      string            `json:"remoteAddr,omitempty" yaml:"remoteAddr,omitempty"`
	SpoolDir        string            `json:"spoolDir,omitempty" yaml:"spoolDir,omitempty"` // Directory for upload spool files
	Verbose         *bool             `json:"verbose,omitempty" yaml:"verbose,omitempty"`
	NoColor         *bool             `json:"noColor,omitempty" yaml:"noColor,omitempty"`
	Variables       map[string]string `json:"variables,omitempty" yaml:"variables,omitempty"` // Fixture variables for {{name}} references
	EnvFile         string            `json:"envFile,omitempty" yaml:"envFile,omitempty"`
}

// boolPtr returns a pointer to a bool value
func boolPtr(b bool) *bool {
	return &b
}

// BoolPtr is exported version of boolPtr for external use
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

// GetFollowRedirects returns the follow redirects setting, defaulting to false
func (c *Config) GetFollowRedirects() bool {
	return getBool(c.FollowRedirects, false)
}

// GetVerbose returns the verbose setting, defaulting to false
func (c *Config) GetVerbose() bool {
	return getBool(c.Verbose, false)
}

// GetNoColor returns the no color setting, defaulting to false
func (c *Config) GetNoColor() bool {
	return getBool(c.NoColor, false)
}

// ConfigFilenames contains the possible config file names
var ConfigFilenames = []string{
	".hittest.json",
	"hittest.json",
	".hittest.yaml",
	".hittest.yml",
	".hittestrc",
}

// LoadConfig loads configuration from the specified path or searches for config files
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		return loadConfigFromFile(path)
	}

	// Search for config file in current directory
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

	// Return defaults if no config file found
	return DefaultConfig(), nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// loadConfigFromFile loads configuration from a specific file. YAML files
// are recognized by extension; everything else is JSON.
func loadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
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

// Merge merges another config into this one, with other taking precedence
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	result := *c // Copy

	if other.DefaultHost != "" {
		result.DefaultHost = other.DefaultHost
	}
	if other.MaxRedirects > 0 {
		result.MaxRedirects = other.MaxRedirects
	}
	if other.RemoteAddr != "" {
		result.RemoteAddr = other.RemoteAddr
	}
	if other.SpoolDir != "" {
		result.SpoolDir = other.SpoolDir
	}

	// Boolean flags - only override if explicitly set in other config
	if other.FollowRedirects != nil {
		result.FollowRedirects = other.FollowRedirects
	}
	if other.Verbose != nil {
		result.Verbose = other.Verbose
	}
	if other.NoColor != nil {
		result.NoColor = other.NoColor
	}

	if other.EnvFile != "" {
		result.EnvFile = other.EnvFile
	}

	result.Headers = mergeStrings(c.Headers, other.Headers)
	result.Variables = mergeStrings(c.Variables, other.Variables)

	return &result
}

// mergeStrings merges into a fresh map so neither input is modified
func mergeStrings(base, other map[string]string) map[string]string {
	if len(other) == 0 {
		return base
	}
	merged := make(map[string]string, len(base)+len(other))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range other {
		merged[k] = v
	}
	return merged
}

// SaveConfig saves the configuration to a file, as YAML when the path says so
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
