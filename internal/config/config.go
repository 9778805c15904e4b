// Package config provides centralized configuration management for the
// grid server and its command-line client. Settings come from environment
// variables with defaults and are validated on startup to fail fast on
// misconfiguration.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds the remote-call server configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Pages    PagesConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ClientConfig holds the sections used by command-line clients, which
// never touch the database.
type ClientConfig struct {
	Transport TransportConfig
	Pages     PagesConfig
	Logging   LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`
	IdleTimeout  time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string (required)
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL" required:"true"`

	MaxConns        int           `env:"DB_MAX_CONNS" default:"20"`
	MinConns        int           `env:"DB_MIN_CONNS" default:"4"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`

	// CallTimeout bounds one procedure call, including every row of a save (default: 30s)
	CallTimeout time.Duration `env:"DB_CALL_TIMEOUT" default:"30s"`

	// MaxConcurrentSaves bounds parallel save transactions (default: 5)
	MaxConcurrentSaves int           `env:"DB_MAX_CONCURRENT_SAVES" default:"5"`
	SaveWait           time.Duration `env:"DB_SAVE_WAIT" default:"10s"`
}

// TransportConfig holds the remote-call client settings.
type TransportConfig struct {
	// BaseURL is the remote-call server root, e.g. http://localhost:8080
	BaseURL string `env:"GRID_BASE_URL" default:"http://localhost:8080"`

	Timeout time.Duration `env:"GRID_TIMEOUT" default:"30s"`

	// RetryCount applies to queries only; saves are never retried (default: 2)
	RetryCount int `env:"GRID_RETRY_COUNT" default:"2"`

	// Certs and KeyInfo are forwarded as the jCerts and KeyInfo form fields.
	Certs   string `env:"GRID_CERTS"`
	KeyInfo string `env:"GRID_KEY_INFO"`

	APIKey string `env:"GRID_API_KEY"`

	Debug bool `env:"GRID_DEBUG" default:"false"`
}

// PagesConfig locates page definitions.
type PagesConfig struct {
	// Dir holds *.yaml page definitions (default: pages)
	Dir string `env:"PAGES_DIR" default:"pages"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 300)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"300"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// RequireAPIKey rejects calls without a valid X-API-Key header (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted keys
	APIKeys []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
