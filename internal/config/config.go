// Package config handles application configuration and environment loading.
package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Engine names accepted by ENGINE.
const (
	EngineAthena = "athena"
	EngineLocal  = "local"
)

// Result sources accepted by ATHENA_RESULT_SOURCE.
const (
	ResultSourceAPI = "api"
	ResultSourceS3  = "s3"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// AthenaConfig holds the remote query engine settings.
type AthenaConfig struct {
	Database       string  // catalog database holding the price table
	OutputLocation string  // s3:// prefix the engine writes results to
	WorkGroup      string  // optional workgroup
	Region         string  // AWS region (default us-east-1)
	Endpoint       *string // endpoint override, nil for the AWS default
	AccessKeyID    *string // static credentials, nil to use the default chain
	SecretKey      *string
	ResultSource   string // "api" (GetQueryResults) or "s3" (download the CSV)
}

// HasStaticCredentials returns true if both static credential fields are set.
func (a *AthenaConfig) HasStaticCredentials() bool {
	return a.AccessKeyID != nil && a.SecretKey != nil
}

// Config holds the configuration for the HTTP API and its query engine.
type Config struct {
	ListenAddr string // HTTP listen address (default ":8080")
	LogLevel   string // log level: debug, info, warn, error (default "info")
	Env        string // environment: "development" (default) or "production"

	Engine        string // "athena" (default) or "local"
	Athena        AthenaConfig
	LocalSeedPath string // CSV or Parquet file loaded into the local engine

	PriceTable         string        // table queried by GET /crypto
	PollInterval       time.Duration // delay between status checks (default 500ms)
	QueryTimeout       time.Duration // deadline for one request's job (default 25s)
	StatusCheckRetries int           // retries for a failing status check (default 2)

	// Rate limiting
	RateLimitRPS   float64 // sustained requests per second (default 20)
	RateLimitBurst int     // burst capacity (default 40)

	// CORS
	CORSAllowedOrigins []string // allowed origins for CORS (default: ["*"])

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsProduction returns true when the server is running in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// AllowsAnyOrigin returns true when CORS is configured with the wildcard origin.
func (c *Config) AllowsAnyOrigin() bool {
	for _, o := range c.CORSAllowedOrigins {
		if o == "*" {
			return true
		}
	}
	return false
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		ListenAddr:    os.Getenv("LISTEN_ADDR"),
		LogLevel:      os.Getenv("LOG_LEVEL"),
		Env:           os.Getenv("ENV"),
		Engine:        strings.ToLower(strings.TrimSpace(os.Getenv("ENGINE"))),
		LocalSeedPath: os.Getenv("LOCAL_SEED_PATH"),
		PriceTable:    os.Getenv("PRICE_TABLE"),
		Athena: AthenaConfig{
			Database:       os.Getenv("ATHENA_DATABASE"),
			OutputLocation: os.Getenv("ATHENA_OUTPUT_LOCATION"),
			WorkGroup:      os.Getenv("ATHENA_WORKGROUP"),
			Region:         os.Getenv("AWS_REGION"),
			ResultSource:   strings.ToLower(strings.TrimSpace(os.Getenv("ATHENA_RESULT_SOURCE"))),
		},
	}

	// Optional engine overrides, only set if present
	if v := os.Getenv("ATHENA_ENDPOINT"); v != "" {
		cfg.Athena.Endpoint = &v
	}
	if v := os.Getenv("AWS_ACCESS_KEY_ID"); v != "" {
		cfg.Athena.AccessKeyID = &v
	}
	if v := os.Getenv("AWS_SECRET_ACCESS_KEY"); v != "" {
		cfg.Athena.SecretKey = &v
	}

	var err error
	if cfg.PollInterval, err = parseDurationEnv("POLL_INTERVAL", 500*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.QueryTimeout, err = parseDurationEnv("QUERY_TIMEOUT", 25*time.Second); err != nil {
		return nil, err
	}
	if v := os.Getenv("STATUS_CHECK_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("STATUS_CHECK_RETRIES must be a non-negative integer, got %q", v)
		}
		cfg.StatusCheckRetries = n
	} else {
		cfg.StatusCheckRetries = 2
	}

	// Rate limiting
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("RATE_LIMIT_RPS must be a non-negative number, got %q", v)
		}
		cfg.RateLimitRPS = f
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("RATE_LIMIT_BURST must be a non-negative integer, got %q", v)
		}
		cfg.RateLimitBurst = n
	}

	// CORS
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		cfg.CORSAllowedOrigins = compactNonEmpty(origins)
	}

	// Defaults
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Engine == "" {
		cfg.Engine = EngineAthena
	}
	if cfg.PriceTable == "" {
		cfg.PriceTable = "crypto_prices"
	}
	if cfg.Athena.Region == "" {
		cfg.Athena.Region = "us-east-1"
	}
	if cfg.Athena.ResultSource == "" {
		cfg.Athena.ResultSource = ResultSourceAPI
	}
	if cfg.RateLimitRPS == 0 {
		cfg.RateLimitRPS = 20
	}
	if cfg.RateLimitBurst == 0 {
		cfg.RateLimitBurst = 40
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if !tableNamePattern.MatchString(c.PriceTable) {
		return fmt.Errorf("PRICE_TABLE %q is not a valid table identifier", c.PriceTable)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive")
	}
	if c.QueryTimeout <= 0 {
		return fmt.Errorf("QUERY_TIMEOUT must be positive")
	}

	switch c.Engine {
	case EngineAthena:
		if c.Athena.Database == "" {
			return fmt.Errorf("ATHENA_DATABASE is required when ENGINE=athena")
		}
		if !strings.HasPrefix(c.Athena.OutputLocation, "s3://") {
			return fmt.Errorf("ATHENA_OUTPUT_LOCATION must be an s3:// URI, got %q", c.Athena.OutputLocation)
		}
		if (c.Athena.AccessKeyID == nil) != (c.Athena.SecretKey == nil) {
			return fmt.Errorf("both AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set together")
		}
		switch c.Athena.ResultSource {
		case ResultSourceAPI, ResultSourceS3:
		default:
			return fmt.Errorf("ATHENA_RESULT_SOURCE must be %q or %q, got %q", ResultSourceAPI, ResultSourceS3, c.Athena.ResultSource)
		}
	case EngineLocal:
		if c.LocalSeedPath == "" {
			c.Warnings = append(c.Warnings, "LOCAL_SEED_PATH not set; the local engine starts with an empty price table")
		}
		if c.IsProduction() {
			return fmt.Errorf("ENGINE=local is not allowed in production (ENV=production)")
		}
	default:
		return fmt.Errorf("ENGINE must be %q or %q, got %q", EngineAthena, EngineLocal, c.Engine)
	}

	if c.IsProduction() && c.AllowsAnyOrigin() {
		c.Warnings = append(c.Warnings, "CORS wildcard (*) is enabled in production")
	}
	return nil
}

func parseDurationEnv(key string, defaultVal time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func compactNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// LoadDotEnv reads a .env file and sets any variables not already in the environment.
// Lines must be in KEY=VALUE format. Comments (#) and blank lines are skipped.
func LoadDotEnv(path string) error {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return nil // .env not found is not an error
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = stripQuotes(strings.TrimSpace(value))
		// Only set if not already in the environment (env vars take precedence)
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("setenv %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}

// stripQuotes removes surrounding double or single quotes from a value.
// Only strips if both the first and last characters are matching quotes.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
