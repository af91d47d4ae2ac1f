// Package config provides configuration management for the TubeBrief client.
// It handles loading and parsing YAML configuration files, and provides structured
// access to application settings including the summarization backend address,
// OAuth client settings, credential storage location, and polling behavior.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application's configuration, loaded from a YAML file.
type Config struct {
	// BackendBaseURL is the base URL of the summarization backend.
	BackendBaseURL string `yaml:"backend-base-url"`

	// OAuthClientID is the Google OAuth client identifier used for sign-in.
	OAuthClientID string `yaml:"oauth-client-id"`

	// CallbackPort is the local port the OAuth redirect callback server listens on.
	CallbackPort int `yaml:"callback-port"`

	// AuthDir is the directory where the credential file is stored.
	AuthDir string `yaml:"auth-dir"`

	// HistoryFile is the path of the local summary history database.
	HistoryFile string `yaml:"history-file"`

	// PollIntervalSeconds is the fixed interval between job status checks.
	PollIntervalSeconds int `yaml:"poll-interval-seconds"`

	// ProgressStepSeconds is the interval between cosmetic progress step advances.
	ProgressStepSeconds int `yaml:"progress-step-seconds"`

	// CallbackTimeoutSeconds bounds how long the login flow waits for the
	// browser redirect before giving up.
	CallbackTimeoutSeconds int `yaml:"callback-timeout-seconds"`

	// Debug enables or disables debug-level logging.
	Debug bool `yaml:"debug"`

	// LoggingToFile switches log output from stdout to rotating files.
	LoggingToFile bool `yaml:"logging-to-file"`

	// ProxyURL is the URL of an optional proxy server to use for outbound requests.
	ProxyURL string `yaml:"proxy-url"`
}

// DefaultConfig returns a configuration populated with working defaults.
// Values loaded from the YAML file override these.
func DefaultConfig() *Config {
	return &Config{
		BackendBaseURL:         "https://api.tubebrief.dev",
		CallbackPort:           8085,
		AuthDir:                "~/.tubebrief",
		HistoryFile:            "~/.tubebrief/history.db",
		PollIntervalSeconds:    5,
		ProgressStepSeconds:    2,
		CallbackTimeoutSeconds: 300,
	}
}

// LoadConfig reads a YAML configuration file from the given path,
// unmarshals it into a Config struct on top of the defaults, and returns it.
//
// Parameters:
//   - configFile: The path to the YAML configuration file
//
// Returns:
//   - *Config: The loaded configuration
//   - error: An error if the configuration could not be loaded
func LoadConfig(configFile string) (*Config, error) {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err = yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// PollInterval returns the job status polling interval as a duration.
func (c *Config) PollInterval() time.Duration {
	if c.PollIntervalSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// ProgressStepInterval returns the cosmetic progress advance interval as a duration.
func (c *Config) ProgressStepInterval() time.Duration {
	if c.ProgressStepSeconds <= 0 {
		return 2 * time.Second
	}
	return time.Duration(c.ProgressStepSeconds) * time.Second
}

// CallbackTimeout returns how long the login flow waits for the OAuth redirect.
func (c *Config) CallbackTimeout() time.Duration {
	if c.CallbackTimeoutSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.CallbackTimeoutSeconds) * time.Second
}
