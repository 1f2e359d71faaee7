package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

const (
	envConfigPath       = "BOTFLOW_CONFIG"
	envTelegramBotToken = "TELEGRAM_BOT_TOKEN"
	envPrefix           = "botflow"
)

// Config is the root runtime configuration loaded from config.json.
type Config struct {
	Telegram TelegramConfig `json:"telegram"`
	Polling  PollingConfig  `json:"polling,omitempty"`
	Logging  LoggingConfig  `json:"logging,omitempty"`
}

// TelegramConfig configures the Bot API connection.
type TelegramConfig struct {
	Token      string   `json:"token"`
	APIBaseURL string   `json:"api_base_url,omitempty"`
	AllowFrom  []string `json:"allow_from,omitempty"`
}

// PollingConfig controls the long-poll loop.
type PollingConfig struct {
	TimeoutSeconds int `json:"timeout_seconds,omitempty"`
	BackoffSeconds int `json:"backoff_seconds,omitempty"`
}

// LoggingConfig controls structured log output format and verbosity.
type LoggingConfig struct {
	Format    string `json:"format,omitempty"`
	Level     string `json:"level,omitempty"`
	AddSource bool   `json:"add_source,omitempty"`
}

// envOverrides are the environment settings layered on top of file config,
// resolved via envconfig with the BOTFLOW_ prefix.
type envOverrides struct {
	TelegramToken  string `envconfig:"TELEGRAM_TOKEN"`
	APIBaseURL     string `envconfig:"API_BASE_URL"`
	AllowFrom      string `envconfig:"ALLOW_FROM"`
	TimeoutSeconds int    `envconfig:"POLL_TIMEOUT_SECONDS"`
	BackoffSeconds int    `envconfig:"POLL_BACKOFF_SECONDS"`
}

// LoadConfig resolves config.json, unmarshals it, and applies environment
// overrides.
func LoadConfig() (*Config, error) {
	configPath, err := findConfigPath()
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyEnvOverrides injects env-driven settings on top of file config. The
// plain TELEGRAM_BOT_TOKEN variable is honored for compatibility with common
// bot deployments.
func applyEnvOverrides(cfg *Config) error {
	var overrides envOverrides
	if err := envconfig.Process(envPrefix, &overrides); err != nil {
		return fmt.Errorf("read environment overrides: %w", err)
	}

	if overrides.TelegramToken != "" {
		cfg.Telegram.Token = overrides.TelegramToken
	}
	if token := strings.TrimSpace(os.Getenv(envTelegramBotToken)); token != "" {
		cfg.Telegram.Token = token
	}
	if overrides.APIBaseURL != "" {
		cfg.Telegram.APIBaseURL = overrides.APIBaseURL
	}
	if overrides.AllowFrom != "" {
		cfg.Telegram.AllowFrom = parseCSV(overrides.AllowFrom)
	}
	if overrides.TimeoutSeconds > 0 {
		cfg.Polling.TimeoutSeconds = overrides.TimeoutSeconds
	}
	if overrides.BackoffSeconds > 0 {
		cfg.Polling.BackoffSeconds = overrides.BackoffSeconds
	}

	return nil
}

// parseCSV splits comma-separated values and returns a trimmed compact slice.
func parseCSV(input string) []string {
	parts := strings.Split(input, ",")
	clean := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		clean = append(clean, trimmed)
	}

	if len(clean) == 0 {
		return nil
	}

	return clean
}

// findConfigPath resolves the active config file location.
//
// Precedence is BOTFLOW_CONFIG first, then cwd-local and home fallback paths.
func findConfigPath() (string, error) {
	if value := strings.TrimSpace(os.Getenv(envConfigPath)); value != "" {
		if info, err := os.Stat(value); err == nil && !info.IsDir() {
			return value, nil
		}
		return "", fmt.Errorf("%s does not point to a file: %s", envConfigPath, value)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get current working directory: %w", err)
	}

	candidates := []string{
		filepath.Join(cwd, "config.json"),
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".botflow", "config.json"))
	}

	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("config.json not found (checked %s)", strings.Join(candidates, ", "))
}
