package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/printpeak/internal/flagx"
	"github.com/dmitrijs2005/printpeak/internal/timex"
)

// JsonConfig is the on-disk shape of the JSON configuration file. Durations
// use timex.Duration so both "15m" and integer nanoseconds are accepted.
type JsonConfig struct {
	EndpointAddrHTTP             string         `json:"endpoint_addr_http"`
	DatabaseDSN                  string         `json:"database_dsn"`
	SecretKey                    string         `json:"secret_key"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration"`
	S3RootUser                   string         `json:"s3_root_user"`
	S3RootPassword               string         `json:"s3_root_password"`
	S3Bucket                     string         `json:"s3_bucket"`
	S3Region                     string         `json:"s3_region"`
	S3BaseEndpoint               string         `json:"s3_base_endpoint"`
	S3PublicURL                  string         `json:"s3_public_url"`
	StripeSecretKey              string         `json:"stripe_secret_key"`
	StripeWebhookSecret          string         `json:"stripe_webhook_secret"`
	StripeCurrency               string         `json:"stripe_currency"`
	PaymentFloor                 int64          `json:"payment_floor"`
	CheckoutSuccessURL           string         `json:"checkout_success_url"`
	CheckoutCancelURL            string         `json:"checkout_cancel_url"`
	RedisAddr                    string         `json:"redis_addr"`
	RedisPassword                string         `json:"redis_password"`
	SESSender                    string         `json:"ses_sender"`
	SESRegion                    string         `json:"ses_region"`
	CORSOrigins                  []string       `json:"cors_origins"`
	MaxUploadBytes               int64          `json:"max_upload_bytes"`
	LogLevel                     string         `json:"log_level"`
}

// parseJson overlays values from the JSON file named by -c/-config onto
// config. Keys missing from the file keep their current value. An unreadable
// file or invalid JSON panics, since the server cannot start misconfigured.
func parseJson(config *Config) {
	path := flagx.JsonConfigFlags()
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	if c.AccessTokenValidityDuration.Duration > 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshTokenValidityDuration.Duration > 0 {
		config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	}
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.S3PublicURL, c.S3PublicURL)
	setString(&config.StripeSecretKey, c.StripeSecretKey)
	setString(&config.StripeWebhookSecret, c.StripeWebhookSecret)
	setString(&config.StripeCurrency, c.StripeCurrency)
	if c.PaymentFloor > 0 {
		config.PaymentFloor = c.PaymentFloor
	}
	setString(&config.CheckoutSuccessURL, c.CheckoutSuccessURL)
	setString(&config.CheckoutCancelURL, c.CheckoutCancelURL)
	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.RedisPassword, c.RedisPassword)
	setString(&config.SESSender, c.SESSender)
	setString(&config.SESRegion, c.SESRegion)
	if len(c.CORSOrigins) > 0 {
		config.CORSOrigins = c.CORSOrigins
	}
	if c.MaxUploadBytes > 0 {
		config.MaxUploadBytes = c.MaxUploadBytes
	}
	setString(&config.LogLevel, c.LogLevel)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
