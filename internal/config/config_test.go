package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable LoadFromEnv reads so host settings cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"LISTEN_ADDR", "LOG_LEVEL", "ENV", "ENGINE", "LOCAL_SEED_PATH", "PRICE_TABLE",
		"ATHENA_DATABASE", "ATHENA_OUTPUT_LOCATION", "ATHENA_WORKGROUP", "AWS_REGION",
		"ATHENA_RESULT_SOURCE", "ATHENA_ENDPOINT", "AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY",
		"POLL_INTERVAL", "QUERY_TIMEOUT", "STATUS_CHECK_RETRIES",
		"RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "CORS_ALLOWED_ORIGINS",
	} {
		t.Setenv(k, "")
	}
}

func setAthenaEnv(t *testing.T) {
	t.Helper()
	clearEnv(t)
	t.Setenv("ATHENA_DATABASE", "crypto_db")
	t.Setenv("ATHENA_OUTPUT_LOCATION", "s3://athena-results/prices/")
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	setAthenaEnv(t)

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, EngineAthena, cfg.Engine)
	assert.Equal(t, "crypto_prices", cfg.PriceTable)
	assert.Equal(t, 500*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, 25*time.Second, cfg.QueryTimeout)
	assert.Equal(t, 2, cfg.StatusCheckRetries)
	assert.Equal(t, "us-east-1", cfg.Athena.Region)
	assert.Equal(t, ResultSourceAPI, cfg.Athena.ResultSource)
	assert.Nil(t, cfg.Athena.Endpoint)
	assert.False(t, cfg.Athena.HasStaticCredentials())
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.True(t, cfg.AllowsAnyOrigin())
	assert.InDelta(t, 20.0, cfg.RateLimitRPS, 0.001)
	assert.Equal(t, 40, cfg.RateLimitBurst)
}

func TestLoadFromEnv_AllVarsSet(t *testing.T) {
	setAthenaEnv(t)
	t.Setenv("ATHENA_WORKGROUP", "dashboards")
	t.Setenv("ATHENA_ENDPOINT", "http://localhost:4566")
	t.Setenv("AWS_ACCESS_KEY_ID", "AKIA")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")
	t.Setenv("ATHENA_RESULT_SOURCE", "S3")
	t.Setenv("POLL_INTERVAL", "250ms")
	t.Setenv("QUERY_TIMEOUT", "10s")
	t.Setenv("STATUS_CHECK_RETRIES", "0")
	t.Setenv("PRICE_TABLE", "analytics.btc_daily")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "dashboards", cfg.Athena.WorkGroup)
	require.NotNil(t, cfg.Athena.Endpoint)
	assert.Equal(t, "http://localhost:4566", *cfg.Athena.Endpoint)
	assert.True(t, cfg.Athena.HasStaticCredentials())
	assert.Equal(t, ResultSourceS3, cfg.Athena.ResultSource)
	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, 10*time.Second, cfg.QueryTimeout)
	assert.Equal(t, 0, cfg.StatusCheckRetries)
	assert.Equal(t, "analytics.btc_daily", cfg.PriceTable)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.AllowsAnyOrigin())
}

func TestLoadFromEnv_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"missing database", map[string]string{"ATHENA_DATABASE": ""}, "ATHENA_DATABASE"},
		{"bad output location", map[string]string{"ATHENA_OUTPUT_LOCATION": "/tmp/out"}, "ATHENA_OUTPUT_LOCATION"},
		{"half credentials", map[string]string{"AWS_ACCESS_KEY_ID": "AKIA"}, "AWS_SECRET_ACCESS_KEY"},
		{"bad result source", map[string]string{"ATHENA_RESULT_SOURCE": "ftp"}, "ATHENA_RESULT_SOURCE"},
		{"injected table", map[string]string{"PRICE_TABLE": "prices; DROP TABLE x"}, "PRICE_TABLE"},
		{"bad poll interval", map[string]string{"POLL_INTERVAL": "soon"}, "POLL_INTERVAL"},
		{"zero timeout", map[string]string{"QUERY_TIMEOUT": "0s"}, "QUERY_TIMEOUT"},
		{"negative retries", map[string]string{"STATUS_CHECK_RETRIES": "-1"}, "STATUS_CHECK_RETRIES"},
		{"unknown engine", map[string]string{"ENGINE": "bigquery"}, "ENGINE"},
		{"malformed rps", map[string]string{"RATE_LIMIT_RPS": "fast"}, "RATE_LIMIT_RPS"},
		{"negative rps", map[string]string{"RATE_LIMIT_RPS": "-5"}, "RATE_LIMIT_RPS"},
		{"malformed burst", map[string]string{"RATE_LIMIT_BURST": "ten"}, "RATE_LIMIT_BURST"},
		{"negative burst", map[string]string{"RATE_LIMIT_BURST": "-1"}, "RATE_LIMIT_BURST"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setAthenaEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadFromEnv()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFromEnv_LocalEngine(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENGINE", "local")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, EngineLocal, cfg.Engine)
	require.Len(t, cfg.Warnings, 1)
	assert.Contains(t, cfg.Warnings[0], "LOCAL_SEED_PATH")
}

func TestLoadFromEnv_LocalEngineRejectedInProduction(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENGINE", "local")
	t.Setenv("ENV", "production")

	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "production")
}

func TestSlogLevel(t *testing.T) {
	t.Parallel()

	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"ERROR":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		cfg := &Config{LogLevel: in}
		assert.Equal(t, want, cfg.SlogLevel(), in)
	}
}

func TestLoadDotEnv_FileNotFound(t *testing.T) {
	err := LoadDotEnv("/nonexistent/.env")
	assert.NoError(t, err)
}

func TestLoadDotEnv_ParsesAndKeepsExisting(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	content := "# comment\n\nDOTENV_NEW='quoted value'\nDOTENV_EXISTING=from-file\nnot a pair\n"
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o600))

	t.Setenv("DOTENV_EXISTING", "from-env")
	t.Setenv("DOTENV_NEW", "")

	require.NoError(t, LoadDotEnv(envFile))
	assert.Equal(t, "quoted value", os.Getenv("DOTENV_NEW"))
	assert.Equal(t, "from-env", os.Getenv("DOTENV_EXISTING"))
}

func TestStripQuotes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "abc", stripQuotes(`"abc"`))
	assert.Equal(t, "abc", stripQuotes(`'abc'`))
	assert.Equal(t, `"abc'`, stripQuotes(`"abc'`))
	assert.Equal(t, `"`, stripQuotes(`"`))
}
