// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML loading, env var expansion, duration parsing and validation

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

const validConfig = `
server:
  http_addr: "0.0.0.0:8080"

database:
  path: "./test.db"

whatsapp:
  token: "wa-token"
  phone_number_id: "12345"
  api_version: "v21.0"
  verify_token: "verify-me"
  app_secret: "shhh"

openai:
  api_key: "sk-test"
  model: "gpt-4o-mini"
  timeout: "45s"

dedupe:
  ttl: "5m"
  max_entries: 128

logging:
  level: "debug"
  format: "json"

metrics:
  enabled: true
  path: "/metrics"
`

func TestLoad_ValidConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.HTTPAddr != "0.0.0.0:8080" {
		t.Errorf("Server.HTTPAddr = %q, want %q", cfg.Server.HTTPAddr, "0.0.0.0:8080")
	}
	if cfg.Database.Path != "./test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "./test.db")
	}
	if cfg.WhatsApp.Token != "wa-token" {
		t.Errorf("WhatsApp.Token = %q, want %q", cfg.WhatsApp.Token, "wa-token")
	}
	if cfg.WhatsApp.PhoneNumberID != "12345" {
		t.Errorf("WhatsApp.PhoneNumberID = %q, want %q", cfg.WhatsApp.PhoneNumberID, "12345")
	}
	if cfg.OpenAI.Timeout != 45*time.Second {
		t.Errorf("OpenAI.Timeout = %v, want %v", cfg.OpenAI.Timeout, 45*time.Second)
	}
	if cfg.Dedupe.TTL != 5*time.Minute {
		t.Errorf("Dedupe.TTL = %v, want %v", cfg.Dedupe.TTL, 5*time.Minute)
	}
	if cfg.Dedupe.MaxEntries != 128 {
		t.Errorf("Dedupe.MaxEntries = %d, want 128", cfg.Dedupe.MaxEntries)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
	if !cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled = false, want true")
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("TEST_WA_TOKEN", "expanded-token")
	t.Setenv("TEST_OPENAI_KEY", "sk-expanded")

	content := `
server:
  http_addr: ":8080"
database:
  path: "./test.db"
whatsapp:
  token: "${TEST_WA_TOKEN}"
  phone_number_id: "12345"
  verify_token: "v"
openai:
  api_key: "${TEST_OPENAI_KEY}"
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.WhatsApp.Token != "expanded-token" {
		t.Errorf("WhatsApp.Token = %q, want %q", cfg.WhatsApp.Token, "expanded-token")
	}
	if cfg.OpenAI.APIKey != "sk-expanded" {
		t.Errorf("OpenAI.APIKey = %q, want %q", cfg.OpenAI.APIKey, "sk-expanded")
	}
}

func TestLoad_Defaults(t *testing.T) {
	content := `
server:
  http_addr: ":8080"
database:
  path: "./test.db"
whatsapp:
  token: "t"
  phone_number_id: "12345"
  verify_token: "v"
openai:
  api_key: "sk-test"
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.WhatsApp.APIVersion != "v21.0" {
		t.Errorf("WhatsApp.APIVersion = %q, want default %q", cfg.WhatsApp.APIVersion, "v21.0")
	}
	if cfg.OpenAI.Model != "gpt-4o-mini" {
		t.Errorf("OpenAI.Model = %q, want default %q", cfg.OpenAI.Model, "gpt-4o-mini")
	}
	if cfg.Dedupe.TTL != 10*time.Minute {
		t.Errorf("Dedupe.TTL = %v, want default %v", cfg.Dedupe.TTL, 10*time.Minute)
	}
	if cfg.Dedupe.MaxEntries != 4096 {
		t.Errorf("Dedupe.MaxEntries = %d, want default 4096", cfg.Dedupe.MaxEntries)
	}
	if cfg.Metrics.Path != "/metrics" {
		t.Errorf("Metrics.Path = %q, want default %q", cfg.Metrics.Path, "/metrics")
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	content := strings.Replace(validConfig, `timeout: "45s"`, `timeout: "not-a-duration"`, 1)
	_, err := Load(writeConfig(t, content))
	if err == nil {
		t.Fatal("Load() expected error for invalid duration")
	}
	if !strings.Contains(err.Error(), "openai.timeout") {
		t.Errorf("error = %v, want mention of openai.timeout", err)
	}
}

func TestLoad_MissingRequiredFields(t *testing.T) {
	tests := []struct {
		name    string
		remove  string
		wantErr string
	}{
		{"missing http_addr", `http_addr: "0.0.0.0:8080"`, "server.http_addr"},
		{"missing database path", `path: "./test.db"`, "database.path"},
		{"missing whatsapp token", `token: "wa-token"`, "whatsapp.token"},
		{"missing phone number id", `phone_number_id: "12345"`, "whatsapp.phone_number_id"},
		{"missing verify token", `verify_token: "verify-me"`, "whatsapp.verify_token"},
		{"missing openai key", `api_key: "sk-test"`, "openai.api_key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content := strings.Replace(validConfig, tt.remove, "", 1)
			_, err := Load(writeConfig(t, content))
			if err == nil {
				t.Fatal("Load() expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Fatal("Load() expected error for missing file")
	}
}
