// Package config handles CrewLink configuration loading and validation.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

// Config is the root configuration structure for CrewLink.
type Config struct {
	// Server settings for the marketplace API.
	Server ServerConfig `yaml:"server" mapstructure:"server"`

	// Auth settings.
	Auth AuthConfig `yaml:"auth" mapstructure:"auth"`

	// Polling settings for background refresh.
	Polling PollingConfig `yaml:"polling" mapstructure:"polling"`

	// Logging settings.
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`

	// TUI settings.
	TUI TUIConfig `yaml:"tui" mapstructure:"tui"`

	// StateDir is where CrewLink stores drafts and local session state
	// (default: ~/.local/share/crewlink).
	StateDir string `yaml:"state_dir" mapstructure:"state_dir"`
}

// ServerConfig contains marketplace API settings.
type ServerConfig struct {
	// BaseURL is the API root, e.g. https://api.example.com.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// AuthConfig contains credential settings.
type AuthConfig struct {
	// TokenFile is a file containing the bearer token. The
	// CREWLINK_AUTH_TOKEN env var takes precedence when set.
	TokenFile string `yaml:"token_file" mapstructure:"token_file"`

	// Token is the bearer token itself. Prefer TokenFile or the env
	// var; a token in the config file is visible to anyone who can
	// read it.
	Token string `yaml:"token" mapstructure:"token"`
}

// PollingConfig contains background refresh intervals.
type PollingConfig struct {
	// ConversationInterval is how often the conversation list refreshes.
	ConversationInterval time.Duration `yaml:"conversation_interval" mapstructure:"conversation_interval"`

	// MessageInterval is how often the open conversation refreshes.
	MessageInterval time.Duration `yaml:"message_interval" mapstructure:"message_interval"`

	// UnreadInterval is how often the unread badge refreshes.
	UnreadInterval time.Duration `yaml:"unread_interval" mapstructure:"unread_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level" mapstructure:"level"`

	// Format is the output format (json, console).
	Format string `yaml:"format" mapstructure:"format"`

	// File is an optional log file path. The TUI owns the terminal, so
	// console logging defaults off unless a file is set.
	File string `yaml:"file" mapstructure:"file"`
}

// TUIConfig contains TUI settings.
type TUIConfig struct {
	// Theme is the color theme (default, light).
	Theme string `yaml:"theme" mapstructure:"theme"`

	// ShowTimestamps shows per-message clock times in the transcript.
	ShowTimestamps bool `yaml:"show_timestamps" mapstructure:"show_timestamps"`

	// CompactMode collapses the conversation list to a single line per
	// entry.
	CompactMode bool `yaml:"compact_mode" mapstructure:"compact_mode"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Server: ServerConfig{
			BaseURL: "",
			Timeout: 15 * time.Second,
		},
		Auth: AuthConfig{},
		Polling: PollingConfig{
			ConversationInterval: 60 * time.Second,
			MessageInterval:      60 * time.Second,
			UnreadInterval:       30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		TUI: TUIConfig{
			Theme:          "default",
			ShowTimestamps: true,
			CompactMode:    false,
		},
		StateDir: filepath.Join(homeDir, ".local", "share", "crewlink"),
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.BaseURL == "" {
		return fmt.Errorf("server.base_url is required")
	}
	u, err := url.Parse(c.Server.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("server.base_url must be an absolute URL")
	}

	if c.Server.Timeout < time.Second {
		return fmt.Errorf("server.timeout must be at least 1s")
	}

	if c.Polling.ConversationInterval < time.Second {
		return fmt.Errorf("polling.conversation_interval must be at least 1s")
	}
	if c.Polling.MessageInterval < time.Second {
		return fmt.Errorf("polling.message_interval must be at least 1s")
	}
	if c.Polling.UnreadInterval < time.Second {
		return fmt.Errorf("polling.unread_interval must be at least 1s")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error")
	}

	return nil
}

// EnsureDirectories creates required directories.
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.StateDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", c.StateDir, err)
	}
	return nil
}

// ResolveToken returns the bearer token with the documented precedence:
// env var, then token file, then the inline config value.
func (c *Config) ResolveToken() (string, error) {
	if token := os.Getenv("CREWLINK_AUTH_TOKEN"); token != "" {
		return token, nil
	}
	if c.Auth.TokenFile != "" {
		data, err := os.ReadFile(c.Auth.TokenFile)
		if err != nil {
			return "", fmt.Errorf("failed to read token file: %w", err)
		}
		return trimToken(string(data)), nil
	}
	if c.Auth.Token != "" {
		return c.Auth.Token, nil
	}
	return "", fmt.Errorf("no auth token configured: set CREWLINK_AUTH_TOKEN, auth.token_file, or auth.token")
}

// SessionStatePath returns the local session state file path.
func (c *Config) SessionStatePath() string {
	return filepath.Join(c.StateDir, "session.json")
}

func trimToken(s string) string {
	for len(s) > 0 {
		last := s[len(s)-1]
		if last != '\n' && last != '\r' && last != ' ' && last != '\t' {
			break
		}
		s = s[:len(s)-1]
	}
	return s
}
