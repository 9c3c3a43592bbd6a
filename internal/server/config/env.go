package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// envPrefix namespaces every variable read by parseEnv.
const envPrefix = "PRINTPEAK_"

// dotenvFiles are loaded, if present, before the environment is read.
// Variables already set in the process environment win over file values.
var dotenvFiles = []string{".env"}

// parseEnv overlays PRINTPEAK_* environment variables on config. Unset or
// malformed variables leave the current value in place.
func parseEnv(config *Config) {
	for _, f := range dotenvFiles {
		if _, err := os.Stat(f); err == nil {
			_ = godotenv.Load(f)
		}
	}

	envString(&config.EndpointAddrHTTP, "ADDRESS")
	envString(&config.DatabaseDSN, "DATABASE_DSN")
	envString(&config.SecretKey, "SECRET_KEY")
	envDuration(&config.AccessTokenValidityDuration, "ACCESS_TOKEN_TTL")
	envDuration(&config.RefreshTokenValidityDuration, "REFRESH_TOKEN_TTL")
	envString(&config.S3RootUser, "S3_ROOT_USER")
	envString(&config.S3RootPassword, "S3_ROOT_PASSWORD")
	envString(&config.S3Bucket, "S3_BUCKET")
	envString(&config.S3Region, "S3_REGION")
	envString(&config.S3BaseEndpoint, "S3_BASE_ENDPOINT")
	envString(&config.S3PublicURL, "S3_PUBLIC_URL")
	envString(&config.StripeSecretKey, "STRIPE_SECRET_KEY")
	envString(&config.StripeWebhookSecret, "STRIPE_WEBHOOK_SECRET")
	envString(&config.StripeCurrency, "STRIPE_CURRENCY")
	envInt64(&config.PaymentFloor, "PAYMENT_FLOOR")
	envString(&config.CheckoutSuccessURL, "CHECKOUT_SUCCESS_URL")
	envString(&config.CheckoutCancelURL, "CHECKOUT_CANCEL_URL")
	envString(&config.RedisAddr, "REDIS_ADDR")
	envString(&config.RedisPassword, "REDIS_PASSWORD")
	envString(&config.SESSender, "SES_SENDER")
	envString(&config.SESRegion, "SES_REGION")
	envInt64(&config.MaxUploadBytes, "MAX_UPLOAD_BYTES")
	envString(&config.LogLevel, "LOG_LEVEL")

	if v, ok := os.LookupEnv(envPrefix + "CORS_ORIGINS"); ok && v != "" {
		config.CORSOrigins = splitList(v)
	}
}

func envString(dst *string, key string) {
	if v, ok := os.LookupEnv(envPrefix + key); ok && v != "" {
		*dst = v
	}
}

func envDuration(dst *time.Duration, key string) {
	v, ok := os.LookupEnv(envPrefix + key)
	if !ok || v == "" {
		return
	}
	if d, err := time.ParseDuration(v); err == nil {
		*dst = d
	}
}

func envInt64(dst *int64, key string) {
	v, ok := os.LookupEnv(envPrefix + key)
	if !ok || v == "" {
		return
	}
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		*dst = n
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
