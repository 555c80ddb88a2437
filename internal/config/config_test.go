package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig(mutate func(*Config)) Config {
	cfg := *Defaults()
	cfg.Backend = "memory"
	if mutate != nil {
		mutate(&cfg)
	}
	return cfg
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		wantErr     bool
		errorString string
	}{
		{
			name:    "valid memory backend config",
			config:  validConfig(nil),
			wantErr: false,
		},
		{
			name: "valid csv backend config",
			config: validConfig(func(c *Config) {
				c.Backend = "csv"
				c.CSVPath = filepath.Join(t.TempDir(), "ledger.csv")
			}),
			wantErr: false,
		},
		{
			name:        "invalid port - non-numeric",
			config:      validConfig(func(c *Config) { c.Port = "abc" }),
			wantErr:     true,
			errorString: "invalid port 'abc': must be a number",
		},
		{
			name:        "invalid port - out of range low",
			config:      validConfig(func(c *Config) { c.Port = "0" }),
			wantErr:     true,
			errorString: "invalid port 0: must be between 1 and 65535",
		},
		{
			name:        "invalid port - out of range high",
			config:      validConfig(func(c *Config) { c.Port = "70000" }),
			wantErr:     true,
			errorString: "invalid port 70000: must be between 1 and 65535",
		},
		{
			name:        "invalid ledger backend",
			config:      validConfig(func(c *Config) { c.Backend = "invalid" }),
			wantErr:     true,
			errorString: "invalid ledger backend 'invalid': must be one of [memory csv sqlite postgres sheets]",
		},
		{
			name: "csv backend missing path",
			config: validConfig(func(c *Config) {
				c.Backend = "csv"
				c.CSVPath = ""
			}),
			wantErr:     true,
			errorString: "CSV path cannot be empty when using csv backend",
		},
		{
			name: "sqlite backend missing database path",
			config: validConfig(func(c *Config) {
				c.Backend = "sqlite"
				c.SQLiteDBPath = ""
			}),
			wantErr:     true,
			errorString: "SQLite database path cannot be empty when using sqlite backend",
		},
		{
			name: "postgres backend missing host",
			config: validConfig(func(c *Config) {
				c.Backend = "postgres"
				c.PostgresHost = ""
			}),
			wantErr:     true,
			errorString: "POSTGRES_HOST is required when using postgres backend",
		},
		{
			name: "postgres backend bad port",
			config: validConfig(func(c *Config) {
				c.Backend = "postgres"
				c.PostgresPort = 0
			}),
			wantErr:     true,
			errorString: "invalid postgres port 0",
		},
		{
			name:        "invalid AMQP URL",
			config:      validConfig(func(c *Config) { c.AMQPURL = "://invalid-url" }),
			wantErr:     true,
			errorString: "invalid AMQP URL",
		},
		{
			name:        "invalid AMQP URL scheme",
			config:      validConfig(func(c *Config) { c.AMQPURL = "http://localhost:5672/" }),
			wantErr:     true,
			errorString: "invalid AMQP URL scheme 'http': must be 'amqp' or 'amqps'",
		},
		{
			name: "AMQP URL without exchange",
			config: validConfig(func(c *Config) {
				c.AMQPURL = "amqp://localhost:5672/"
				c.AMQPExchange = ""
			}),
			wantErr:     true,
			errorString: "AMQP exchange name cannot be empty when AMQP URL is provided",
		},
		{
			name: "sheets backend missing spreadsheet ID",
			config: validConfig(func(c *Config) {
				c.Backend = "sheets"
				c.GoogleServiceAccountJSON = "{}"
			}),
			wantErr:     true,
			errorString: "Google Spreadsheet ID is required when using sheets backend",
		},
		{
			name: "sheets backend missing credentials",
			config: validConfig(func(c *Config) {
				c.Backend = "sheets"
				c.GoogleSpreadsheetID = "123456789"
			}),
			wantErr:     true,
			errorString: "either GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_SERVICE_ACCOUNT_JSON must be provided for sheets backend",
		},
		{
			name:        "negative cache size",
			config:      validConfig(func(c *Config) { c.ReportCacheSize = -1 }),
			wantErr:     true,
			errorString: "invalid report cache size -1: must not be negative",
		},
		{
			name:        "negative cache TTL",
			config:      validConfig(func(c *Config) { c.ReportCacheTTL = -time.Second }),
			wantErr:     true,
			errorString: "invalid report cache TTL -1s: must not be negative",
		},
		{
			name:        "invalid log level",
			config:      validConfig(func(c *Config) { c.LogLevel = "loud" }),
			wantErr:     true,
			errorString: "invalid log level 'loud'",
		},
		{
			name:        "invalid log format",
			config:      validConfig(func(c *Config) { c.LogFormat = "xml" }),
			wantErr:     true,
			errorString: "invalid log format 'xml'",
		},
		{
			name:        "zero rate limit",
			config:      validConfig(func(c *Config) { c.RateLimitPerMinute = 0 }),
			wantErr:     true,
			errorString: "invalid rate limit 0",
		},
		{
			name:    "trusted proxies",
			config:  validConfig(func(c *Config) { c.TrustedProxies = "10.1.0.0/16, 192.0.2.0/24" }),
			wantErr: false,
		},
		{
			name:        "invalid trusted proxy",
			config:      validConfig(func(c *Config) { c.TrustedProxies = "10.1.0.0/16,proxy.local" }),
			wantErr:     true,
			errorString: "invalid trusted proxy 'proxy.local': must be a CIDR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				if err == nil {
					t.Errorf("Config.Validate() error = nil, wantErr %v", tt.wantErr)
					return
				}
				if tt.errorString != "" && !strings.Contains(err.Error(), tt.errorString) {
					t.Errorf("Config.Validate() error = %v, want error containing %v", err.Error(), tt.errorString)
				}
			} else {
				if err != nil {
					t.Errorf("Config.Validate() error = %v, wantErr %v", err, tt.wantErr)
				}
			}
		})
	}
}

func TestConfig_ValidateReportsEveryProblem(t *testing.T) {
	cfg := validConfig(func(c *Config) {
		c.Port = "abc"
		c.LogFormat = "xml"
	})
	err := cfg.Validate()
	if err == nil {
		t.Fatal("Config.Validate() error = nil, want error")
	}
	for _, want := range []string{"invalid port 'abc'", "invalid log format 'xml'"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Config.Validate() error = %v, want it to mention %q", err, want)
		}
	}
}

func TestConfig_ValidateWithFiles(t *testing.T) {
	tmpDir := t.TempDir()

	accountFile := filepath.Join(tmpDir, "service-account.json")
	if err := os.WriteFile(accountFile, []byte(`{"type":"service_account"}`), 0644); err != nil {
		t.Fatalf("Failed to create test service account file: %v", err)
	}

	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name: "valid sheets backend with file",
			config: validConfig(func(c *Config) {
				c.Backend = "sheets"
				c.GoogleSpreadsheetID = "123456789"
				c.GoogleServiceAccountFile = accountFile
			}),
			wantErr: false,
		},
		{
			name: "sheets backend with non-existent file",
			config: validConfig(func(c *Config) {
				c.Backend = "sheets"
				c.GoogleSpreadsheetID = "123456789"
				c.GoogleServiceAccountFile = "/non/existent/file.json"
			}),
			wantErr: true,
		},
		{
			name: "sqlite backend creates missing directory",
			config: validConfig(func(c *Config) {
				c.Backend = "sqlite"
				c.SQLiteDBPath = filepath.Join(tmpDir, "nested", "ledger.db")
			}),
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Config.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	if _, err := os.Stat(filepath.Join(tmpDir, "nested")); err != nil {
		t.Errorf("expected sqlite directory to be created: %v", err)
	}
}

func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad(t *testing.T) {
	keys := []string{"PORT", "LEDGER_BACKEND", "SQLITE_DB_PATH", "POSTGRES_PORT", "REPORT_CACHE_SIZE", "REPORT_CACHE_TTL", "LOG_LEVEL", "TRUSTED_PROXIES"}

	t.Run("default values", func(t *testing.T) {
		clearEnv(t, keys...)

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Port != "8081" {
			t.Errorf("Load() Port = %v, want 8081", cfg.Port)
		}
		if cfg.Backend != "csv" {
			t.Errorf("Load() Backend = %v, want csv", cfg.Backend)
		}
		if cfg.PostgresPort != 5432 {
			t.Errorf("Load() PostgresPort = %v, want 5432", cfg.PostgresPort)
		}
		if cfg.ReportCacheTTL != 5*time.Minute {
			t.Errorf("Load() ReportCacheTTL = %v, want 5m", cfg.ReportCacheTTL)
		}
	})

	t.Run("environment variables", func(t *testing.T) {
		clearEnv(t, keys...)
		t.Setenv("PORT", "9090")
		t.Setenv("LEDGER_BACKEND", "sqlite")
		t.Setenv("SQLITE_DB_PATH", "/tmp/test.db")
		t.Setenv("POSTGRES_PORT", "6543")
		t.Setenv("REPORT_CACHE_SIZE", "8")
		t.Setenv("REPORT_CACHE_TTL", "90s")
		t.Setenv("LOG_LEVEL", "DEBUG")
		t.Setenv("TRUSTED_PROXIES", "203.0.113.0/24, ,198.51.100.0/24")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Port != "9090" {
			t.Errorf("Load() Port = %v, want 9090", cfg.Port)
		}
		if cfg.Backend != "sqlite" {
			t.Errorf("Load() Backend = %v, want sqlite", cfg.Backend)
		}
		if cfg.SQLiteDBPath != "/tmp/test.db" {
			t.Errorf("Load() SQLiteDBPath = %v, want /tmp/test.db", cfg.SQLiteDBPath)
		}
		if cfg.PostgresPort != 6543 {
			t.Errorf("Load() PostgresPort = %v, want 6543", cfg.PostgresPort)
		}
		if cfg.ReportCacheSize != 8 {
			t.Errorf("Load() ReportCacheSize = %v, want 8", cfg.ReportCacheSize)
		}
		if cfg.ReportCacheTTL != 90*time.Second {
			t.Errorf("Load() ReportCacheTTL = %v, want 90s", cfg.ReportCacheTTL)
		}
		if cfg.LogLevel != "DEBUG" {
			t.Errorf("Load() LogLevel = %v, want DEBUG", cfg.LogLevel)
		}
		if got := cfg.TrustedProxyList(); len(got) != 2 || got[0] != "203.0.113.0/24" || got[1] != "198.51.100.0/24" {
			t.Errorf("Load() TrustedProxyList = %v, want two CIDRs", got)
		}
	})
}

func TestPostgresDSN(t *testing.T) {
	cfg := validConfig(func(c *Config) {
		c.PostgresUser = "app"
		c.PostgresPassword = "p@ss"
		c.PostgresHost = "db"
		c.PostgresPort = 5433
		c.PostgresDB = "books"
	})
	want := "postgres://app:p%40ss@db:5433/books?sslmode=disable"
	if got := cfg.PostgresDSN(); got != want {
		t.Errorf("PostgresDSN() = %v, want %v", got, want)
	}
}
