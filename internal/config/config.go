// Package config loads agentdeck configuration from the environment and
// an optional YAML config file.
package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// defaultTimeout applies to plain API calls. Streams are not bounded by
// it; they run until the server finishes or the user cancels.
const defaultTimeout = 30 * time.Second

// Config holds all configuration values.
type Config struct {
	// Agent platform connection
	ServerURL string
	Token     string
	Timeout   time.Duration

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// fileConfig mirrors the optional YAML config file. Environment
// variables win over file values.
type fileConfig struct {
	ServerURL string `yaml:"server_url"`
	Token     string `yaml:"token"`
	Timeout   string `yaml:"timeout"`
	LogFile   string `yaml:"log_file"`
	LogLevel  string `yaml:"log_level"`
}

// Load reads configuration from environment variables, filling gaps from
// the config file and then from defaults. It never fails; malformed
// values fall back to their defaults.
func Load() Config {
	file := loadFile()

	return Config{
		ServerURL: firstOf(os.Getenv("AGENTDECK_SERVER_URL"), file.ServerURL, "http://localhost:8787"),
		Token:     firstOf(os.Getenv("AGENTDECK_TOKEN"), file.Token, ""),
		Timeout:   parseTimeout(firstOf(os.Getenv("AGENTDECK_TIMEOUT"), file.Timeout, "")),
		LogFile:   firstOf(os.Getenv("AGENTDECK_LOG_FILE"), file.LogFile, "/tmp/agentdeck.log"),
		LogLevel:  parseLogLevel(firstOf(os.Getenv("AGENTDECK_LOG_LEVEL"), file.LogLevel, "INFO")),
	}
}

// configPath returns the config file location: AGENTDECK_CONFIG if set,
// otherwise ~/.config/agentdeck/config.yaml.
func configPath() string {
	if p := os.Getenv("AGENTDECK_CONFIG"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "agentdeck", "config.yaml")
}

// loadFile reads the YAML config file. A missing or unreadable file is
// not an error; it just contributes nothing.
func loadFile() fileConfig {
	var cfg fileConfig

	path := configPath()
	if path == "" {
		return cfg
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fileConfig{}
	}
	return cfg
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func parseTimeout(s string) time.Duration {
	if s == "" {
		return defaultTimeout
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return defaultTimeout
	}
	return d
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
