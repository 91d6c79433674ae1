package server

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/iwvelando/construction-pricing/pkg/constants"
)

func TestLoadConfigDefaultsWhenMissing(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Address == "" {
		t.Fatalf("expected default address, got empty")
	}
	if cfg.UploadSizeBytes() <= 0 {
		t.Fatalf("expected positive default max upload size, got %d", cfg.UploadSizeBytes())
	}
	if cfg.DatabasePath != constants.DefaultDatabasePath {
		t.Fatalf("expected default database path, got %q", cfg.DatabasePath)
	}
	if cfg.Logging.Level != "" || cfg.Logging.Format != "" || cfg.Logging.OutputFile != "" {
		t.Fatalf("expected empty logging defaults, got %+v", cfg.Logging)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "server-config.yaml")

	contents := []byte(`address: 127.0.0.1:9000
maxUploadSize: 2M
databasePath: /var/lib/pricing/projects.db
logging:
  level: debug
  format: console
  outputFile: /tmp/server.log
`)
	if err := os.WriteFile(path, contents, 0600); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Address != "127.0.0.1:9000" {
		t.Fatalf("expected address override, got %s", cfg.Address)
	}
	if cfg.UploadSizeBytes() != 2*1024*1024 {
		t.Fatalf("expected max upload override, got %d", cfg.UploadSizeBytes())
	}
	if cfg.DatabasePath != "/var/lib/pricing/projects.db" {
		t.Fatalf("expected database path override, got %s", cfg.DatabasePath)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("expected logging level debug, got %s", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "console" {
		t.Fatalf("expected logging format console, got %s", cfg.Logging.Format)
	}
	if cfg.Logging.OutputFile != "/tmp/server.log" {
		t.Fatalf("expected logging outputFile /tmp/server.log, got %s", cfg.Logging.OutputFile)
	}
}

func TestLoadConfigInvalidYaml(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")

	if err := os.WriteFile(path, []byte("maxUploadSize: invalid"), 0600); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error for invalid YAML but got nil")
	}
}

func TestParseSize(t *testing.T) {
	tests := map[string]int64{
		"":          constants.DefaultMaxUploadSizeBytes,
		"1024":      1024,
		"512b":      512,
		"256K":      256 * 1024,
		"1m":        1024 * 1024,
		"3MB":       3 * 1024 * 1024,
		"2G":        2 * 1024 * 1024 * 1024,
		"  4096   ": 4096,
	}

	for input, expected := range tests {
		got, err := ParseSize(input)
		if err != nil {
			t.Fatalf("parseSize(%q) returned error: %v", input, err)
		}
		if got != expected {
			t.Fatalf("parseSize(%q) = %d, expected %d", input, got, expected)
		}
	}

	if _, err := ParseSize("1TB"); err == nil {
		t.Fatal("expected error for unsupported unit")
	}
	if _, err := ParseSize("abc"); err == nil {
		t.Fatal("expected error for invalid number")
	}
}

func TestLoadConfigEnvironmentOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "server-config.yaml")
	if err := os.WriteFile(path, []byte("address: 127.0.0.1:9000\nmaxUploadSize: 2M\n"), 0600); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	t.Setenv(EnvAddress, "0.0.0.0:7000")
	t.Setenv(EnvDatabasePath, filepath.Join(dir, "env.db"))
	t.Setenv(EnvMaxUploadSize, "512K")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Address != "0.0.0.0:7000" {
		t.Fatalf("expected address from environment, got %s", cfg.Address)
	}
	if cfg.DatabasePath != filepath.Join(dir, "env.db") {
		t.Fatalf("expected database path from environment, got %s", cfg.DatabasePath)
	}
	if cfg.UploadSizeBytes() != 512*1024 {
		t.Fatalf("expected upload size from environment, got %d", cfg.UploadSizeBytes())
	}
}

func TestLoadConfigInvalidEnvironmentSize(t *testing.T) {
	t.Setenv(EnvMaxUploadSize, "lots")

	if _, err := LoadConfig(""); err == nil {
		t.Fatal("expected error for invalid upload size in the environment")
	}
}

func TestLoadDotEnv(t *testing.T) {
	const key = "PRICING_DOTENV_TEST_VALUE"
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("failed to unset %s: %v", key, err)
	}
	t.Cleanup(func() {
		_ = os.Unsetenv(key)
	})

	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte(key+"=from-dotenv\n"), 0600); err != nil {
		t.Fatalf("failed to write dotenv file: %v", err)
	}

	if err := LoadDotEnv(filepath.Join(dir, "missing.env"), path); err != nil {
		t.Fatalf("LoadDotEnv() error = %v", err)
	}
	if got := os.Getenv(key); got != "from-dotenv" {
		t.Fatalf("expected value from dotenv file, got %q", got)
	}
}

func TestLoadDotEnvKeepsExistingValues(t *testing.T) {
	const key = "PRICING_DOTENV_TEST_EXISTING"
	t.Setenv(key, "from-environment")

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(key+"=from-dotenv\n"), 0600); err != nil {
		t.Fatalf("failed to write dotenv file: %v", err)
	}

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv() error = %v", err)
	}
	if got := os.Getenv(key); got != "from-environment" {
		t.Fatalf("expected existing value to win, got %q", got)
	}
}
