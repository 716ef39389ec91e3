package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Source    SourceConfig    `toml:"source"`
	Ledger    LedgerConfig    `toml:"ledger"`
	API       APIConfig       `toml:"api"`
	Media     MediaConfig     `toml:"media"`
	Migration MigrationConfig `toml:"migration"`
}

// SourceConfig contains connection settings for the legacy database.
type SourceConfig struct {
	Driver       string `toml:"driver"`
	DSN          string `toml:"dsn"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LedgerConfig contains settings for the local SQLite ledger database.
type LedgerConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// APIConfig contains destination CMS API settings.
type APIConfig struct {
	BaseURL       string      `toml:"base_url"`
	MigrationKey  string      `toml:"migration_key"`
	RateLimit     float64     `toml:"rate_limit"`
	Burst         int         `toml:"burst"`
	RetryAttempts int         `toml:"retry_attempts"`
	RetryDelayMS  int         `toml:"retry_delay_ms"`
	OAuth         OAuthConfig `toml:"oauth"`
}

// OAuthConfig contains optional client-credentials settings for the
// destination API. When TokenURL is empty the static migration key is used.
type OAuthConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	TokenURL     string `toml:"token_url"`
}

// MediaConfig contains settings for locating and uploading legacy media.
type MediaConfig struct {
	BaseDir               string `toml:"base_dir"`
	BaseURL               string `toml:"base_url"`
	DefaultAssetID        string `toml:"default_asset_id"`
	UploadCaptionFallback string `toml:"upload_caption_fallback"`
}

// MigrationConfig contains batch processing defaults.
type MigrationConfig struct {
	BatchSize      int    `toml:"batch_size"`
	MaxBatches     int    `toml:"max_batches"`
	StartOffset    int    `toml:"start_offset"`
	BatchWorkers   int    `toml:"batch_workers"`
	RecordWorkers  int    `toml:"record_workers"`
	FallbackAuthor string `toml:"fallback_author"`
	EmailDomain    string `toml:"email_domain"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s: %w", path, ErrInvalidInput)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
