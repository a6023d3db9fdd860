/*
 * Copyright (c) 2026 The FinchDB Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

/*
Package config provides configuration management for FinchDB.

The configuration system supports multiple sources with clear precedence:
 1. Command-line flags (highest priority)
 2. Environment variables
 3. Configuration file
 4. Default values (lowest priority)

Configuration File Format:
The configuration file uses a simple key = value format.

Example configuration file:

	# FinchDB Configuration
	data_dir = "/var/lib/finchdb"
	log_level = "info"
	log_json = false
	encryption_enabled = false
	history_file = "~/.finch_history"

Environment Variables:
  - FINCHDB_DATA_DIR: Directory for table files
  - FINCHDB_LOG_LEVEL: Log level (debug, info, warn, error)
  - FINCHDB_LOG_JSON: Enable JSON logging (true/false)
  - FINCHDB_ENCRYPTION_ENABLED: Enable at-rest page encryption (true/false)
  - FINCHDB_ENCRYPTION_PASSPHRASE: Passphrase for encryption key derivation
    (required when encryption is enabled)
  - FINCHDB_HISTORY_FILE: Shell history file path
  - FINCHDB_CONFIG_FILE: Path to configuration file
*/
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Environment variable names for configuration.
const (
	EnvDataDir              = "FINCHDB_DATA_DIR"
	EnvLogLevel             = "FINCHDB_LOG_LEVEL"
	EnvLogJSON              = "FINCHDB_LOG_JSON"
	EnvEncryptionEnabled    = "FINCHDB_ENCRYPTION_ENABLED"
	EnvEncryptionPassphrase = "FINCHDB_ENCRYPTION_PASSPHRASE"
	EnvHistoryFile          = "FINCHDB_HISTORY_FILE"
	EnvConfigFile           = "FINCHDB_CONFIG_FILE"
)

// GetDefaultDataDir returns the default directory for table storage.
// For root users, it uses /var/lib/finchdb (Filesystem Hierarchy Standard).
// For non-root users, it uses ~/.local/share/finchdb (XDG Base Directory).
func GetDefaultDataDir() string {
	if os.Getuid() == 0 {
		return "/var/lib/finchdb"
	}
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "finchdb")
	}
	if home := os.Getenv("HOME"); home != "" {
		return filepath.Join(home, ".local", "share", "finchdb")
	}
	return "./data"
}

// defaultHistoryFile returns the default shell history path.
func defaultHistoryFile() string {
	if home := os.Getenv("HOME"); home != "" {
		return filepath.Join(home, ".finch_history")
	}
	return ".finch_history"
}

// DefaultConfigPaths are the configuration file locations searched in order.
var DefaultConfigPaths = []string{
	"/etc/finchdb/finchdb.conf",
	"$HOME/.config/finchdb/finchdb.conf",
	"./finchdb.conf",
}

// Config holds all configuration values for FinchDB.
type Config struct {
	// Storage configuration
	DataDir string `json:"data_dir"`

	// Encryption configuration for data at rest
	EncryptionEnabled    bool   `json:"encryption_enabled"`
	EncryptionPassphrase string `json:"-"` // Not persisted to file for security

	// Logging configuration
	LogLevel string `json:"log_level"`
	LogJSON  bool   `json:"log_json"`

	// Shell configuration
	HistoryFile string `json:"history_file"`

	// Metadata
	ConfigFile string `json:"-"` // Path to loaded config file
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		DataDir:           GetDefaultDataDir(),
		EncryptionEnabled: false,
		LogLevel:          "info",
		LogJSON:           false,
		HistoryFile:       defaultHistoryFile(),
	}
}

// Manager handles configuration loading, validation, and access.
type Manager struct {
	config *Config
	mu     sync.RWMutex
}

// NewManager creates a new configuration manager with default values.
func NewManager() *Manager {
	return &Manager{config: DefaultConfig()}
}

// Global manager instance for convenience.
var globalManager = NewManager()

// Global returns the global configuration manager.
func Global() *Manager {
	return globalManager
}

// Get returns the current configuration.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	// Return a copy to prevent external modification
	cfg := *m.config
	return &cfg
}

// Set updates the configuration.
func (m *Manager) Set(cfg *Config) {
	m.mu.Lock()
	m.config = cfg
	m.mu.Unlock()
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	var errs []string

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("invalid log_level: %s (must be debug, info, warn, or error)", c.LogLevel))
	}

	if c.DataDir == "" {
		errs = append(errs, "data_dir cannot be empty")
	}

	if c.EncryptionEnabled && c.EncryptionPassphrase == "" {
		errs = append(errs, fmt.Sprintf(
			"encryption is enabled but no passphrase is set (set %s)", EnvEncryptionPassphrase))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// LoadFromFile loads configuration from a key = value file.
func (m *Manager) LoadFromFile(path string) error {
	path = os.ExpandEnv(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := parseConfig(string(data), cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ConfigFile = path
	m.Set(cfg)
	return nil
}

// LoadFromEnv loads configuration from environment variables.
// This merges with existing configuration (env vars override file values).
func (m *Manager) LoadFromEnv() {
	cfg := m.Get()

	if v := os.Getenv(EnvDataDir); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv(EnvLogJSON); v != "" {
		cfg.LogJSON = strings.ToLower(v) == "true" || v == "1"
	}
	if v := os.Getenv(EnvEncryptionEnabled); v != "" {
		cfg.EncryptionEnabled = strings.ToLower(v) == "true" || v == "1"
	}
	if v := os.Getenv(EnvEncryptionPassphrase); v != "" {
		cfg.EncryptionPassphrase = v
	}
	if v := os.Getenv(EnvHistoryFile); v != "" {
		cfg.HistoryFile = v
	}

	m.Set(cfg)
}

// FindConfigFile searches for a configuration file in default locations.
// Returns the path to the first file found, or empty string if none found.
func FindConfigFile() string {
	if envPath := os.Getenv(EnvConfigFile); envPath != "" {
		if _, err := os.Stat(os.ExpandEnv(envPath)); err == nil {
			return os.ExpandEnv(envPath)
		}
	}

	for _, path := range DefaultConfigPaths {
		expandedPath := os.ExpandEnv(path)
		if _, err := os.Stat(expandedPath); err == nil {
			return expandedPath
		}
	}

	return ""
}

// Load loads configuration from all sources with proper precedence.
// Order: defaults -> config file -> environment variables
// Command-line flags should be applied after calling this function.
func (m *Manager) Load() error {
	configPath := FindConfigFile()
	if configPath != "" {
		if err := m.LoadFromFile(configPath); err != nil {
			return err
		}
	}

	m.LoadFromEnv()

	return nil
}

// parseConfig parses the simple key = value configuration format.
func parseConfig(data string, cfg *Config) error {
	lines := strings.Split(data, "\n")

	for lineNum, line := range lines {
		// Remove comments
		if idx := strings.Index(line, "#"); idx != -1 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)

		if line == "" {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("line %d: invalid syntax: %s", lineNum+1, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Remove quotes from string values
		if len(value) >= 2 && ((value[0] == '"' && value[len(value)-1] == '"') ||
			(value[0] == '\'' && value[len(value)-1] == '\'')) {
			value = value[1 : len(value)-1]
		}

		applyConfigValue(cfg, key, value)
	}

	return nil
}

// applyConfigValue applies a key-value pair to the configuration.
// Unknown keys are ignored for forward compatibility.
func applyConfigValue(cfg *Config, key, value string) {
	switch key {
	case "data_dir":
		cfg.DataDir = value
	case "log_level":
		cfg.LogLevel = value
	case "log_json":
		cfg.LogJSON = strings.ToLower(value) == "true" || value == "1"
	case "encryption_enabled":
		cfg.EncryptionEnabled = strings.ToLower(value) == "true" || value == "1"
	case "history_file":
		cfg.HistoryFile = value
	}
}

// String returns a string representation of the configuration.
func (c *Config) String() string {
	var sb strings.Builder
	sb.WriteString("FinchDB Configuration:\n")
	sb.WriteString(fmt.Sprintf("  Data Dir:     %s\n", c.DataDir))
	sb.WriteString(fmt.Sprintf("  Encryption:   %v\n", c.EncryptionEnabled))
	sb.WriteString(fmt.Sprintf("  Log Level:    %s\n", c.LogLevel))
	sb.WriteString(fmt.Sprintf("  Log JSON:     %v\n", c.LogJSON))
	sb.WriteString(fmt.Sprintf("  History File: %s\n", c.HistoryFile))
	if c.ConfigFile != "" {
		sb.WriteString(fmt.Sprintf("  Config File:  %s\n", c.ConfigFile))
	}
	return sb.String()
}

// Render returns the configuration in the key = value file format.
func (c *Config) Render() string {
	var sb strings.Builder
	sb.WriteString("# FinchDB Configuration File\n\n")
	sb.WriteString("# Storage\n")
	sb.WriteString(fmt.Sprintf("data_dir = \"%s\"\n\n", c.DataDir))
	sb.WriteString("# Data-at-rest encryption\n")
	sb.WriteString(fmt.Sprintf("# When enabled, you MUST set %s\n", EnvEncryptionPassphrase))
	sb.WriteString("# WARNING: Keep your passphrase safe - data cannot be recovered without it!\n")
	sb.WriteString(fmt.Sprintf("encryption_enabled = %v\n\n", c.EncryptionEnabled))
	sb.WriteString("# Logging\n")
	sb.WriteString(fmt.Sprintf("log_level = \"%s\"\n", c.LogLevel))
	sb.WriteString(fmt.Sprintf("log_json = %v\n\n", c.LogJSON))
	sb.WriteString("# Shell\n")
	sb.WriteString(fmt.Sprintf("history_file = \"%s\"\n", c.HistoryFile))
	return sb.String()
}

// SaveToFile saves the configuration to a file.
func (c *Config) SaveToFile(path string) error {
	path = os.ExpandEnv(path)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(c.Render()), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
