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

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.DataDir == "" {
		t.Error("Expected a default data_dir, got empty")
	}
	if cfg.EncryptionEnabled {
		t.Errorf("Expected default encryption_enabled false, got %v", cfg.EncryptionEnabled)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("Expected default log_level 'info', got '%s'", cfg.LogLevel)
	}
	if cfg.LogJSON {
		t.Errorf("Expected default log_json false, got %v", cfg.LogJSON)
	}
	if cfg.HistoryFile == "" {
		t.Error("Expected a default history_file, got empty")
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *Config
		wantErr bool
	}{
		{
			name:    "valid defaults",
			cfg:     DefaultConfig(),
			wantErr: false,
		},
		{
			name: "invalid log level",
			cfg: func() *Config {
				cfg := DefaultConfig()
				cfg.LogLevel = "loud"
				return cfg
			}(),
			wantErr: true,
		},
		{
			name: "empty data_dir",
			cfg: func() *Config {
				cfg := DefaultConfig()
				cfg.DataDir = ""
				return cfg
			}(),
			wantErr: true,
		},
		{
			name: "encryption without passphrase",
			cfg: func() *Config {
				cfg := DefaultConfig()
				cfg.EncryptionEnabled = true
				return cfg
			}(),
			wantErr: true,
		},
		{
			name: "encryption with passphrase",
			cfg: func() *Config {
				cfg := DefaultConfig()
				cfg.EncryptionEnabled = true
				cfg.EncryptionPassphrase = "secret"
				return cfg
			}(),
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "finchdb.conf")
	content := `
# FinchDB test configuration
data_dir = "/tmp/finch-test"
log_level = "debug"
log_json = true
encryption_enabled = false
history_file = '/tmp/finch_history'
unknown_key = "ignored"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	m := NewManager()
	if err := m.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	cfg := m.Get()
	if cfg.DataDir != "/tmp/finch-test" {
		t.Errorf("data_dir = %s", cfg.DataDir)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log_level = %s", cfg.LogLevel)
	}
	if !cfg.LogJSON {
		t.Error("log_json not applied")
	}
	if cfg.HistoryFile != "/tmp/finch_history" {
		t.Errorf("history_file = %s", cfg.HistoryFile)
	}
	if cfg.ConfigFile != path {
		t.Errorf("config_file = %s", cfg.ConfigFile)
	}
}

func TestLoadFromFileInvalidSyntax(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.conf")
	if err := os.WriteFile(path, []byte("this is not a key value pair\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	m := NewManager()
	if err := m.LoadFromFile(path); err == nil {
		t.Error("expected parse error, got nil")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv(EnvDataDir, "/env/data")
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvLogJSON, "true")
	t.Setenv(EnvEncryptionEnabled, "1")
	t.Setenv(EnvEncryptionPassphrase, "env-secret")
	t.Setenv(EnvHistoryFile, "/env/history")

	m := NewManager()
	m.LoadFromEnv()

	cfg := m.Get()
	if cfg.DataDir != "/env/data" {
		t.Errorf("data_dir = %s", cfg.DataDir)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("log_level = %s", cfg.LogLevel)
	}
	if !cfg.LogJSON {
		t.Error("log_json not applied")
	}
	if !cfg.EncryptionEnabled {
		t.Error("encryption_enabled not applied")
	}
	if cfg.EncryptionPassphrase != "env-secret" {
		t.Error("encryption_passphrase not applied")
	}
	if cfg.HistoryFile != "/env/history" {
		t.Errorf("history_file = %s", cfg.HistoryFile)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "finchdb.conf")
	if err := os.WriteFile(path, []byte("log_level = \"debug\"\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(EnvLogLevel, "error")

	m := NewManager()
	if err := m.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	m.LoadFromEnv()

	if got := m.Get().LogLevel; got != "error" {
		t.Errorf("log_level = %s, want env value 'error'", got)
	}
}

func TestSaveAndReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "saved.conf")

	cfg := DefaultConfig()
	cfg.DataDir = "/saved/data"
	cfg.LogLevel = "warn"
	if err := cfg.SaveToFile(path); err != nil {
		t.Fatalf("SaveToFile failed: %v", err)
	}

	m := NewManager()
	if err := m.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	got := m.Get()
	if got.DataDir != "/saved/data" || got.LogLevel != "warn" {
		t.Errorf("reloaded config = %+v", got)
	}
}

func TestRenderNeverContainsPassphrase(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EncryptionEnabled = true
	cfg.EncryptionPassphrase = "super-secret"

	if strings.Contains(cfg.Render(), "super-secret") {
		t.Error("rendered config leaks the passphrase")
	}
	if strings.Contains(cfg.String(), "super-secret") {
		t.Error("String() leaks the passphrase")
	}
}
