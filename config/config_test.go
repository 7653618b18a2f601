package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadNormalizesServerPort(t *testing.T) {
	tests := []struct {
		name string
		port string
		want string
	}{
		{"bare number", "8080", "8080"},
		{"leading colon stripped", ":9090", "9090"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, "server:\n  port: \""+tt.port+"\"\n")
			t.Setenv("CONFIG_PATH", path)

			cfg := Load()
			if cfg.Server.Port != tt.want {
				t.Errorf("port = %q, want %q", cfg.Server.Port, tt.want)
			}
		})
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "server:\n  port: \"8080\"\n")
	t.Setenv("CONFIG_PATH", path)

	cfg := Load()
	if cfg.Pipeline.BatchLimit != 50 {
		t.Errorf("batch limit = %d, want 50", cfg.Pipeline.BatchLimit)
	}
	if cfg.Pipeline.IntervalSeconds != 300 {
		t.Errorf("interval = %d, want 300", cfg.Pipeline.IntervalSeconds)
	}
	if cfg.Agent.TimeoutSeconds != 15 {
		t.Errorf("agent timeout = %d, want 15", cfg.Agent.TimeoutSeconds)
	}
	if cfg.Mail.Folder != "INBOX" {
		t.Errorf("folder = %q, want INBOX", cfg.Mail.Folder)
	}
}
