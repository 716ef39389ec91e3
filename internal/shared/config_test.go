package shared

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Ledger.Path != "./cmx.db" {
			t.Errorf("expected ledger path ./cmx.db, got %s", config.Ledger.Path)
		}

		if config.Source.Driver != "sqlserver" {
			t.Errorf("expected source driver sqlserver, got %s", config.Source.Driver)
		}

		if config.API.BaseURL != "http://localhost:3001" {
			t.Errorf("expected api base url http://localhost:3001, got %s", config.API.BaseURL)
		}

		if config.Migration.BatchSize != 10 {
			t.Errorf("expected batch size 10, got %d", config.Migration.BatchSize)
		}

		if config.Migration.FallbackAuthor != "One Sports" {
			t.Errorf("expected fallback author One Sports, got %s", config.Migration.FallbackAuthor)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Ledger.Path != defaultConfig.Ledger.Path {
			t.Errorf("created config ledger path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[source]
driver = "sqlite3"
dsn = "/custom/legacy.db"
max_open_conns = 2
max_idle_conns = 1

[ledger]
path = "/custom/ledger.db"

[api]
base_url = "https://cms.example.com"
migration_key = "test_key"
rate_limit = 5.0
burst = 2
retry_attempts = 1
retry_delay_ms = 100

[media]
base_dir = "/assets"
base_url = "https://img.example.com"

[migration]
batch_size = 25
batch_workers = 3
record_workers = 5
fallback_author = "House Account"
email_domain = "example.com"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Source.DSN != "/custom/legacy.db" {
			t.Errorf("expected source dsn /custom/legacy.db, got %s", config.Source.DSN)
		}
		if config.API.MigrationKey != "test_key" {
			t.Errorf("expected migration key test_key, got %s", config.API.MigrationKey)
		}
		if config.Migration.BatchSize != 25 {
			t.Errorf("expected batch size 25, got %d", config.Migration.BatchSize)
		}
		if config.Migration.FallbackAuthor != "House Account" {
			t.Errorf("expected fallback author House Account, got %s", config.Migration.FallbackAuthor)
		}
	})

	t.Run("LoadConfig missing file", func(t *testing.T) {
		if _, err := LoadConfig("/does/not/exist/config.toml"); err == nil {
			t.Error("expected error for missing config file")
		}
	})

	t.Run("LoadConfig invalid TOML", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")
		if err := os.WriteFile(configPath, []byte("not [valid toml"), 0644); err != nil {
			t.Fatal(err)
		}

		if _, err := LoadConfig(configPath); err == nil {
			t.Error("expected error for invalid TOML")
		}
	})
}
