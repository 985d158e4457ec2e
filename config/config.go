package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	// HTTP server configuration
	HTTP HTTPConfig

	// Quote source configuration
	Quotes QuotesConfig

	// Snapshot persistence configuration
	Snapshot SnapshotConfig

	// Production toggles JSON logging
	Production bool
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	Addr               string
	CORSAllowedOrigins string
	RequestTimeoutSec  int
}

// QuotesConfig holds quote source configuration
type QuotesConfig struct {
	StocksBaseURL string
	StocksAPIKey  string
	QuotesBaseURL string
	QuotesAPIKey  string

	// InteractiveTimeoutSec bounds each ticker lookup during a
	// user-triggered refresh. ImportTimeoutSec bounds lookups during a
	// reconciliation refresh, which may hit a cold external lookup and
	// so gets a longer budget.
	InteractiveTimeoutSec int
	ImportTimeoutSec      int
}

// SnapshotConfig holds snapshot persistence configuration
type SnapshotConfig struct {
	// Dir is the directory for file snapshots, used when DatabaseURL is empty.
	Dir         string
	DatabaseURL string
}

// yamlConfig mirrors Config for the optional YAML config file.
type yamlConfig struct {
	HTTP struct {
		Addr               string `yaml:"addr"`
		CORSAllowedOrigins string `yaml:"cors_allowed_origins"`
		RequestTimeoutSec  int    `yaml:"request_timeout_seconds"`
	} `yaml:"http"`
	Quotes struct {
		StocksBaseURL         string `yaml:"stocks_base_url"`
		StocksAPIKey          string `yaml:"stocks_api_key"`
		QuotesBaseURL         string `yaml:"quotes_base_url"`
		QuotesAPIKey          string `yaml:"quotes_api_key"`
		InteractiveTimeoutSec int    `yaml:"interactive_timeout_seconds"`
		ImportTimeoutSec      int    `yaml:"import_timeout_seconds"`
	} `yaml:"quotes"`
	Snapshot struct {
		Dir         string `yaml:"dir"`
		DatabaseURL string `yaml:"database_url"`
	} `yaml:"snapshot"`
	Production bool `yaml:"production"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		HTTP: HTTPConfig{
			Addr:               getEnvString("HTTP_ADDR", ":8080"),
			CORSAllowedOrigins: getEnvString("CORS_ALLOWED_ORIGINS", "*"),
			RequestTimeoutSec:  getEnvInt("HTTP_REQUEST_TIMEOUT_SECONDS", 60),
		},
		Quotes: QuotesConfig{
			StocksBaseURL:         getEnvString("STOCKS_API_BASE_URL", "http://localhost:8081/api"),
			StocksAPIKey:          os.Getenv("STOCKS_API_KEY"),
			QuotesBaseURL:         getEnvString("QUOTES_API_BASE_URL", "http://localhost:8081/api"),
			QuotesAPIKey:          os.Getenv("QUOTES_API_KEY"),
			InteractiveTimeoutSec: getEnvInt("QUOTE_INTERACTIVE_TIMEOUT_SECONDS", 10),
			ImportTimeoutSec:      getEnvInt("QUOTE_IMPORT_TIMEOUT_SECONDS", 30),
		},
		Snapshot: SnapshotConfig{
			Dir:         getEnvString("SNAPSHOT_DIR", "data"),
			DatabaseURL: os.Getenv("DATABASE_URL"),
		},
		Production: getEnvBool("PRODUCTION", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFile loads configuration from a YAML file, with environment
// defaults for anything the file leaves unset.
func LoadFile(path string) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var y yamlConfig
	if err := yaml.Unmarshal(data, &y); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if y.HTTP.Addr != "" {
		cfg.HTTP.Addr = y.HTTP.Addr
	}
	if y.HTTP.CORSAllowedOrigins != "" {
		cfg.HTTP.CORSAllowedOrigins = y.HTTP.CORSAllowedOrigins
	}
	if y.HTTP.RequestTimeoutSec > 0 {
		cfg.HTTP.RequestTimeoutSec = y.HTTP.RequestTimeoutSec
	}
	if y.Quotes.StocksBaseURL != "" {
		cfg.Quotes.StocksBaseURL = y.Quotes.StocksBaseURL
	}
	if y.Quotes.StocksAPIKey != "" {
		cfg.Quotes.StocksAPIKey = y.Quotes.StocksAPIKey
	}
	if y.Quotes.QuotesBaseURL != "" {
		cfg.Quotes.QuotesBaseURL = y.Quotes.QuotesBaseURL
	}
	if y.Quotes.QuotesAPIKey != "" {
		cfg.Quotes.QuotesAPIKey = y.Quotes.QuotesAPIKey
	}
	if y.Quotes.InteractiveTimeoutSec > 0 {
		cfg.Quotes.InteractiveTimeoutSec = y.Quotes.InteractiveTimeoutSec
	}
	if y.Quotes.ImportTimeoutSec > 0 {
		cfg.Quotes.ImportTimeoutSec = y.Quotes.ImportTimeoutSec
	}
	if y.Snapshot.Dir != "" {
		cfg.Snapshot.Dir = y.Snapshot.Dir
	}
	if y.Snapshot.DatabaseURL != "" {
		cfg.Snapshot.DatabaseURL = y.Snapshot.DatabaseURL
	}
	if y.Production {
		cfg.Production = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Quotes.StocksBaseURL == "" {
		return fmt.Errorf("STOCKS_API_BASE_URL must not be empty")
	}
	if c.Quotes.QuotesBaseURL == "" {
		return fmt.Errorf("QUOTES_API_BASE_URL must not be empty")
	}
	if c.Quotes.InteractiveTimeoutSec <= 0 {
		return fmt.Errorf("QUOTE_INTERACTIVE_TIMEOUT_SECONDS must be positive, got %d", c.Quotes.InteractiveTimeoutSec)
	}
	if c.Quotes.ImportTimeoutSec <= 0 {
		return fmt.Errorf("QUOTE_IMPORT_TIMEOUT_SECONDS must be positive, got %d", c.Quotes.ImportTimeoutSec)
	}
	if c.Quotes.ImportTimeoutSec < c.Quotes.InteractiveTimeoutSec {
		return fmt.Errorf("import timeout (%ds) must not be shorter than interactive timeout (%ds)",
			c.Quotes.ImportTimeoutSec, c.Quotes.InteractiveTimeoutSec)
	}
	if c.HTTP.RequestTimeoutSec <= 0 {
		return fmt.Errorf("HTTP_REQUEST_TIMEOUT_SECONDS must be positive, got %d", c.HTTP.RequestTimeoutSec)
	}
	if c.Snapshot.DatabaseURL == "" && c.Snapshot.Dir == "" {
		return fmt.Errorf("either DATABASE_URL or SNAPSHOT_DIR must be set")
	}
	return nil
}

// HasDatabase returns true if database configuration is available
func (c *Config) HasDatabase() bool {
	return c.Snapshot.DatabaseURL != ""
}

func getEnvString(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// NewTestConfig creates a Config with default values for testing
func NewTestConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Addr:               ":0",
			CORSAllowedOrigins: "*",
			RequestTimeoutSec:  60,
		},
		Quotes: QuotesConfig{
			StocksBaseURL:         "http://localhost:8081/api",
			QuotesBaseURL:         "http://localhost:8081/api",
			InteractiveTimeoutSec: 10,
			ImportTimeoutSec:      30,
		},
		Snapshot: SnapshotConfig{
			Dir: "data",
		},
	}
}
