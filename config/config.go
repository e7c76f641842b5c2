// Package config loads storefront settings from a YAML file, a .env file and
// environment variables, in increasing order of precedence.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration
type Config struct {
	Env      string         `yaml:"env"`
	API      APIConfig      `yaml:"api"`
	Server   ServerConfig   `yaml:"server"`
	Search   SearchConfig   `yaml:"search"`
	Logging  LoggingConfig  `yaml:"logging"`
	Database DatabaseConfig `yaml:"database"`
	Export   ExportConfig   `yaml:"export"`
}

// APIConfig describes the remote storefront API
type APIConfig struct {
	BaseURL   string  `yaml:"base_url"`
	Timeout   string  `yaml:"timeout"`    // empty means transport default
	RateLimit float64 `yaml:"rate_limit"` // requests per second, 0 disables
	UserAgent string  `yaml:"user_agent"`
}

// ServerConfig configures the backend-for-frontend server
type ServerConfig struct {
	Port       string `yaml:"port"`
	VisitorTTL string `yaml:"visitor_ttl"`
}

// SearchConfig configures search-as-you-type
type SearchConfig struct {
	Debounce string `yaml:"debounce"`
}

// LoggingConfig configures the zap logger
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DatabaseConfig configures the optional activity journal database
type DatabaseConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
}

// ExportConfig configures order summary export and thumbnails
type ExportConfig struct {
	ChromePath        string `yaml:"chrome_path"`
	ThumbnailCacheDir string `yaml:"thumbnail_cache_dir"`
}

// DefaultConfig returns the configuration used when nothing is set
func DefaultConfig() *Config {
	return &Config{
		Env: "development",
		API: APIConfig{
			RateLimit: 10,
			UserAgent: "storefront-client/1.0",
		},
		Server: ServerConfig{
			Port:       "8080",
			VisitorTTL: "30m",
		},
		Search: SearchConfig{
			Debounce: "500ms",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Database: DatabaseConfig{
			Port:    "5432",
			SSLMode: "disable",
		},
		Export: ExportConfig{
			ThumbnailCacheDir: "cache/images",
		},
	}
}

// LoadDotEnv loads a .env file outside production.
// Values from the file override the process environment.
func LoadDotEnv(path string) (bool, error) {
	if os.Getenv("ENV") == "production" {
		return false, nil
	}
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Overload(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return true, nil
}

// Load reads configuration from the YAML file at path (optional) and applies
// environment overrides. A missing file yields defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("ENV"); v != "" {
		c.Env = v
	}
	if v := os.Getenv("STOREFRONT_API_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("API_TIMEOUT"); v != "" {
		c.API.Timeout = v
	}
	if v := os.Getenv("API_RATE_LIMIT"); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			c.API.RateLimit = n
		}
	}
	if v := os.Getenv("PORT"); v != "" {
		// PORT from some hosts includes a leading colon
		c.Server.Port = strings.TrimPrefix(v, ":")
	}
	if v := os.Getenv("VISITOR_TTL"); v != "" {
		c.Server.VisitorTTL = v
	}
	if v := os.Getenv("SEARCH_DEBOUNCE"); v != "" {
		c.Search.Debounce = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
	if v := os.Getenv("DB_HOST"); v != "" {
		c.Database.Host = v
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		c.Database.Port = v
	}
	if v := os.Getenv("DB_USER"); v != "" {
		c.Database.User = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		c.Database.Name = v
	}
	if v := os.Getenv("DB_SSLMODE"); v != "" {
		c.Database.SSLMode = v
	}
	if v := os.Getenv("CHROME_PATH"); v != "" {
		c.Export.ChromePath = v
	}
	if v := os.Getenv("THUMBNAIL_CACHE_DIR"); v != "" {
		c.Export.ThumbnailCacheDir = v
	}
}

// Validate checks required fields and duration formats
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("storefront API URL not configured (set STOREFRONT_API_URL or api.base_url)")
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid storefront API URL: %q", c.API.BaseURL)
	}
	if c.API.RateLimit < 0 {
		return fmt.Errorf("api rate limit must not be negative: %v", c.API.RateLimit)
	}

	durations := map[string]string{
		"search.debounce":    c.Search.Debounce,
		"server.visitor_ttl": c.Server.VisitorTTL,
	}
	if c.API.Timeout != "" {
		durations["api.timeout"] = c.API.Timeout
	}
	for name, raw := range durations {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, raw, err)
		}
		if d <= 0 {
			return fmt.Errorf("%s must be greater than 0", name)
		}
	}
	return nil
}

// IsProduction reports whether the process runs in production
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// SearchDebounce returns the search quiescence window
func (c *Config) SearchDebounce() time.Duration {
	return parseDuration(c.Search.Debounce, 500*time.Millisecond)
}

// APITimeout returns the per-request timeout, 0 for the transport default
func (c *Config) APITimeout() time.Duration {
	return parseDuration(c.API.Timeout, 0)
}

// VisitorTTL returns how long an idle visitor view model is kept
func (c *Config) VisitorTTL() time.Duration {
	return parseDuration(c.Server.VisitorTTL, 30*time.Minute)
}

// ListenAddr returns the address the server listens on.
// 0.0.0.0 accepts connections from all interfaces (required in containers).
func (c *Config) ListenAddr() string {
	return "0.0.0.0:" + c.Server.Port
}

// Enabled reports whether a journal database is configured
func (d DatabaseConfig) Enabled() bool {
	return d.URL != "" || (d.Host != "" && d.User != "" && d.Name != "")
}

// ConnString returns the connection string for the pgx driver
func (d DatabaseConfig) ConnString() (string, error) {
	if d.URL != "" {
		return d.URL, nil
	}
	if d.Host == "" || d.User == "" || d.Name == "" {
		return "", fmt.Errorf("database connection variables not set. Set DATABASE_URL or DB_HOST, DB_USER, DB_NAME")
	}

	port := d.Port
	if port == "" {
		port = "5432"
	}
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}

	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, port, d.User, d.Password, d.Name, sslmode), nil
}

func parseDuration(raw string, def time.Duration) time.Duration {
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return d
}
