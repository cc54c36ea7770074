// Package config handles user configuration for coursechat.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/lokhin/coursechat/internal/models"
)

// MarkdownConfig configures markdown rendering options
type MarkdownConfig struct {
	Style            string `json:"style"` // "dark", "light", or path to JSON theme
	PreserveNewLines bool   `json:"preserve_newlines"`
}

// Config represents the user configuration
type Config struct {
	// BaseURL is the backend endpoint all requests go to.
	BaseURL string `json:"base_url"`
	// UserID and UserEmail identify the account on the backend. They are
	// forwarded with every chat request so answers use that user's courses.
	UserID    int    `json:"user_id"`
	UserEmail string `json:"user_email"`
	// PollIntervalSeconds is the cadence for background task polling.
	// Default is 2. Minimum is 1.
	PollIntervalSeconds int `json:"poll_interval_seconds"`
	// Verbose enables detailed logging output during operations.
	Verbose         bool           `json:"verbose"`
	CopyToClipboard bool           `json:"copy_to_clipboard"`
	Markdown        MarkdownConfig `json:"markdown,omitempty"`
}

// DefaultMarkdownConfig returns the default markdown configuration
func DefaultMarkdownConfig() MarkdownConfig {
	return MarkdownConfig{
		Style:            "dark",
		PreserveNewLines: true,
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		BaseURL:             models.DefaultBaseURL,
		PollIntervalSeconds: 2,
		Verbose:             false,
		CopyToClipboard:     false,
		Markdown:            DefaultMarkdownConfig(),
	}
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(home, ".coursechat"), nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist
func EnsureConfigDir() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}

	// 0o700: the directory holds account identity
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.json"), nil
}

// LoadConfig loads the configuration from disk and applies environment
// overrides. A .env file in the working directory is honored when present.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	configPath, err := GetConfigPath()
	if err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnv(&cfg)
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnv(&cfg)
	return cfg, nil
}

// applyEnv layers COURSECHAT_* environment variables over the file config.
func applyEnv(cfg *Config) {
	_ = godotenv.Load() // missing .env is fine

	if v := strings.TrimSpace(os.Getenv("COURSECHAT_BASE_URL")); v != "" {
		cfg.BaseURL = strings.TrimSuffix(v, "/")
	}
	if v := strings.TrimSpace(os.Getenv("COURSECHAT_USER_EMAIL")); v != "" {
		cfg.UserEmail = v
	}
	if v := strings.TrimSpace(os.Getenv("COURSECHAT_USER_ID")); v != "" {
		if id, err := strconv.Atoi(v); err == nil {
			cfg.UserID = id
		}
	}
	if v := strings.TrimSpace(os.Getenv("COURSECHAT_POLL_INTERVAL")); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs >= 1 {
			cfg.PollIntervalSeconds = secs
		}
	}
	if v := strings.TrimSpace(os.Getenv("COURSECHAT_VERBOSE")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Verbose = b
		}
	}

	if cfg.PollIntervalSeconds < 1 {
		cfg.PollIntervalSeconds = 1
	}
}

// SaveConfig saves the configuration to disk
func SaveConfig(cfg Config) error {
	configDir, err := EnsureConfigDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(configDir, "config.json")

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// 0o600: the file carries the account email
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
