package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnv_OverlaysSetVariables(t *testing.T) {
	t.Setenv("PRINTPEAK_DATABASE_DSN", "postgres://env")
	t.Setenv("PRINTPEAK_ACCESS_TOKEN_TTL", "5m")
	t.Setenv("PRINTPEAK_PAYMENT_FLOOR", "7500")
	t.Setenv("PRINTPEAK_STRIPE_SECRET_KEY", "sk_test_123")
	t.Setenv("PRINTPEAK_CORS_ORIGINS", "https://a.example, https://b.example ,")

	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)

	assert.Equal(t, "postgres://env", cfg.DatabaseDSN)
	assert.Equal(t, 5*time.Minute, cfg.AccessTokenValidityDuration)
	assert.Equal(t, int64(7500), cfg.PaymentFloor)
	assert.Equal(t, "sk_test_123", cfg.StripeSecretKey)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, "printpeak", cfg.S3Bucket, "unset variables keep defaults")
}

func TestParseEnv_MalformedValuesIgnored(t *testing.T) {
	t.Setenv("PRINTPEAK_ACCESS_TOKEN_TTL", "forever")
	t.Setenv("PRINTPEAK_PAYMENT_FLOOR", "lots")

	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)

	assert.Equal(t, 60*time.Minute, cfg.AccessTokenValidityDuration)
	assert.Equal(t, int64(5000), cfg.PaymentFloor)
}

func TestParseEnv_LoadsDotenvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("PRINTPEAK_S3_BUCKET=from-dotenv\n"), 0o600))

	orig := dotenvFiles
	dotenvFiles = []string{path}
	t.Cleanup(func() {
		dotenvFiles = orig
		_ = os.Unsetenv("PRINTPEAK_S3_BUCKET")
	})

	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)

	assert.Equal(t, "from-dotenv", cfg.S3Bucket)
}
