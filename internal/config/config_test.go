package config

import (
	"os"
	"path/filepath"
	"testing"
)

func validConfig() Config {
	cfg := Config{HTTP: HTTPConfig{Port: 8080}}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_Defaults(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MaxChanges(t *testing.T) {
	for _, k := range []int{0, 4} {
		cfg := validConfig()
		cfg.Search.MaxChanges = k
		if err := cfg.Validate(); err == nil {
			t.Errorf("expected error for max_changes=%d", k)
		}
	}
}

func TestValidate_ProgressEvery(t *testing.T) {
	cfg := validConfig()
	cfg.Search.ProgressEvery = 251

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for progress_every above 250")
	}

	expected := "search.progress_every must be between 1 and 250, got 251"
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_Workers(t *testing.T) {
	cfg := validConfig()
	cfg.Search.Workers = 65

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for too many workers")
	}
}

func TestValidate_LogLevel(t *testing.T) {
	validLevels := []string{"", "debug", "info", "warn", "error"}

	for _, level := range validLevels {
		t.Run("level="+level, func(t *testing.T) {
			cfg := validConfig()
			cfg.Logging.Level = level
			if err := cfg.Validate(); err != nil {
				t.Fatalf("unexpected error for valid level %q: %v", level, err)
			}
		})
	}

	cfg := validConfig()
	cfg.Logging.Level = "trace"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 90 {
		t.Errorf("expected WriteTimeoutSec=90, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.Search.MaxChanges != 3 {
		t.Errorf("expected MaxChanges=3, got %d", cfg.Search.MaxChanges)
	}
	if cfg.Search.ProgressEvery != 250 {
		t.Errorf("expected ProgressEvery=250, got %d", cfg.Search.ProgressEvery)
	}
	if cfg.Search.YieldEvery != 2000 {
		t.Errorf("expected YieldEvery=2000, got %d", cfg.Search.YieldEvery)
	}
	if cfg.Search.Workers != 1 {
		t.Errorf("expected Workers=1, got %d", cfg.Search.Workers)
	}
	if cfg.Search.TimeoutSec != 60 {
		t.Errorf("expected TimeoutSec=60, got %d", cfg.Search.TimeoutSec)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must be valid: %v", err)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("CPFV_TEST_PORT", "9090")

	tests := []struct {
		input    string
		expected string
	}{
		{"port: ${CPFV_TEST_PORT}", "port: 9090"},
		{"port: ${CPFV_TEST_MISSING:-7070}", "port: 7070"},
		{"port: ${CPFV_TEST_PORT:-7070}", "port: 9090"},
		{"key: ${CPFV_TEST_MISSING}", "key: "},
	}

	for _, tc := range tests {
		got := string(expandEnvVars([]byte(tc.input)))
		if got != tc.expected {
			t.Errorf("expandEnvVars(%q) = %q, want %q", tc.input, got, tc.expected)
		}
	}
}

func TestLoadFile(t *testing.T) {
	t.Setenv("CPFV_TEST_WORKERS", "4")

	path := filepath.Join(t.TempDir(), "test.yaml")
	data := []byte("http:\n  port: 8081\nsearch:\n  workers: ${CPFV_TEST_WORKERS}\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.HTTP.Port != 8081 {
		t.Errorf("expected port 8081, got %d", cfg.HTTP.Port)
	}
	if cfg.Search.Workers != 4 {
		t.Errorf("expected workers 4, got %d", cfg.Search.Workers)
	}
	if cfg.Search.MaxChanges != 3 {
		t.Errorf("expected default max_changes 3, got %d", cfg.Search.MaxChanges)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_LocalConfig(t *testing.T) {
	cfg, err := Load("local")
	if err != nil {
		t.Fatalf("Load(local): %v", err)
	}
	if cfg.HTTP.Port <= 0 {
		t.Errorf("expected a port, got %d", cfg.HTTP.Port)
	}
}
