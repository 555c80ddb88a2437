package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	// HTTP Server
	Port               string `koanf:"PORT"`
	RateLimitPerMinute int    `koanf:"RATE_LIMIT_PER_MINUTE"`
	// TrustedProxies is a comma-separated list of CIDRs allowed to set
	// X-Forwarded-For.
	TrustedProxies string `koanf:"TRUSTED_PROXIES"`

	// Backend selection
	Backend string `koanf:"LEDGER_BACKEND"`

	// CSV file
	CSVPath string `koanf:"LEDGER_CSV_PATH"`

	// SQLite
	SQLiteDBPath string `koanf:"SQLITE_DB_PATH"`

	// Postgres
	PostgresHost     string `koanf:"POSTGRES_HOST"`
	PostgresPort     int    `koanf:"POSTGRES_PORT"`
	PostgresDB       string `koanf:"POSTGRES_DB"`
	PostgresUser     string `koanf:"POSTGRES_USER"`
	PostgresPassword string `koanf:"POSTGRES_PASSWORD"`
	PostgresSSLMode  string `koanf:"POSTGRES_SSLMODE"`

	// Google Sheets
	GoogleSpreadsheetID      string `koanf:"GOOGLE_SPREADSHEET_ID"`
	GoogleSheetName          string `koanf:"GOOGLE_SHEET_NAME"`
	GoogleServiceAccountFile string `koanf:"GOOGLE_SERVICE_ACCOUNT_FILE"`
	GoogleServiceAccountJSON string `koanf:"GOOGLE_SERVICE_ACCOUNT_JSON"`

	// AMQP (optional change notifications)
	AMQPURL        string `koanf:"AMQP_URL"`
	AMQPExchange   string `koanf:"AMQP_EXCHANGE"`
	AMQPRoutingKey string `koanf:"AMQP_ROUTING_KEY"`

	// Report cache
	ReportCacheSize int           `koanf:"REPORT_CACHE_SIZE"`
	ReportCacheTTL  time.Duration `koanf:"REPORT_CACHE_TTL"`

	// Logging
	LogLevel  string `koanf:"LOG_LEVEL"`
	LogFormat string `koanf:"LOG_FORMAT"`
}

// Backends lists the accepted LEDGER_BACKEND values.
var Backends = []string{"memory", "csv", "sqlite", "postgres", "sheets"}

// Defaults returns the configuration used when no variable is set.
func Defaults() *Config {
	return &Config{
		Port:            "8081",
		Backend:         "csv",
		CSVPath:         "./data/ledger.csv",
		SQLiteDBPath:    "./data/ledger.db",
		PostgresHost:    "localhost",
		PostgresPort:    5432,
		PostgresDB:      "ledger",
		PostgresUser:    "ledger",
		PostgresSSLMode: "disable",
		GoogleSheetName: "Ledger",
		AMQPExchange:    "ledger",
		AMQPRoutingKey:  "ledger.changed",
		ReportCacheSize: 64,
		ReportCacheTTL:  5 * time.Minute,
		LogLevel:        "INFO",
		LogFormat:       "text",
	}
}

// Load reads the environment over Defaults.
func Load() (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", nil), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := Defaults()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf", FlatPaths: true}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

// PostgresDSN builds the connection URL for the postgres backend.
func (c *Config) PostgresDSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.PostgresUser, c.PostgresPassword),
		Host:     fmt.Sprintf("%s:%d", c.PostgresHost, c.PostgresPort),
		Path:     "/" + c.PostgresDB,
		RawQuery: url.Values{"sslmode": {c.PostgresSSLMode}}.Encode(),
	}
	return u.String()
}

// TrustedProxyList splits TrustedProxies, dropping blank entries.
func (c *Config) TrustedProxyList() []string {
	var out []string
	for _, p := range strings.Split(c.TrustedProxies, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}
	for _, cidr := range c.TrustedProxyList() {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			errors = append(errors, fmt.Sprintf("invalid trusted proxy '%s': must be a CIDR", cidr))
		}
	}

	// Validate backend
	isValidBackend := false
	for _, backend := range Backends {
		if c.Backend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid ledger backend '%s': must be one of %v", c.Backend, Backends))
	}

	switch c.Backend {
	case "csv":
		if c.CSVPath == "" {
			errors = append(errors, "CSV path cannot be empty when using csv backend")
		} else if msg := ensureDir(c.CSVPath); msg != "" {
			errors = append(errors, msg)
		}
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if msg := ensureDir(c.SQLiteDBPath); msg != "" {
			errors = append(errors, msg)
		}
	case "postgres":
		if c.PostgresHost == "" {
			errors = append(errors, "POSTGRES_HOST is required when using postgres backend")
		}
		if c.PostgresPort < 1 || c.PostgresPort > 65535 {
			errors = append(errors, fmt.Sprintf("invalid postgres port %d: must be between 1 and 65535", c.PostgresPort))
		}
		if c.PostgresDB == "" {
			errors = append(errors, "POSTGRES_DB is required when using postgres backend")
		}
		if c.PostgresUser == "" {
			errors = append(errors, "POSTGRES_USER is required when using postgres backend")
		}
	case "sheets":
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
		}
		if c.GoogleSheetName == "" {
			errors = append(errors, "Google Sheet name is required when using sheets backend")
		}
		hasFile := c.GoogleServiceAccountFile != ""
		if !hasFile && c.GoogleServiceAccountJSON == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_SERVICE_ACCOUNT_JSON must be provided for sheets backend")
		}
		if hasFile {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
	}

	// Validate report cache
	if c.ReportCacheSize < 0 {
		errors = append(errors, fmt.Sprintf("invalid report cache size %d: must not be negative", c.ReportCacheSize))
	}
	if c.ReportCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid report cache TTL %v: must not be negative", c.ReportCacheTTL))
	}

	// Validate logging
	switch strings.ToUpper(c.LogLevel) {
	case "DEBUG", "INFO", "WARN", "ERROR":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be DEBUG, INFO, WARN or ERROR", c.LogLevel))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// ensureDir creates the parent directory of path when missing and returns a
// validation message on failure.
func ensureDir(path string) string {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return ""
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Sprintf("cannot create directory '%s': %v", dir, err)
		}
	}
	return ""
}
