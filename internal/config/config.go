package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables

	TokenSecret string
	TokenTTL    time.Duration

	TOTPIssuer string

	VerifyAPIKey     string
	VerifyAPISecret  string
	VerifyBrand      string
	VerifyBaseURL    string
	VerifyCodeLength int
	// A pending handle older than this is reaped by DynamoDB TTL.
	VerifyHandleTTL time.Duration

	SNSRegion     string
	AlertsEnabled bool

	AllowedOrigins []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users               string
	VerificationHandles string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort: getEnv("APP_PORT", "3000"),
		AppEnv:  getEnv("APP_ENV", "development"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Users:               getEnv("DYNAMO_TABLE_USERS", "users"),
			VerificationHandles: getEnv("DYNAMO_TABLE_VERIFICATION_HANDLES", "verification_handles"),
		},

		TokenSecret: getEnv("JWT_SECRET", ""),
		TokenTTL:    time.Duration(getEnvInt("JWT_EXPIRY_HOURS", 24)) * time.Hour,
		TOTPIssuer:  getEnv("TOTP_ISSUER", "Quiz Game"),

		VerifyAPIKey:     getEnv("VERIFY_API_KEY", ""),
		VerifyAPISecret:  getEnv("VERIFY_API_SECRET", ""),
		VerifyBrand:      getEnv("VERIFY_BRAND", "QuizGame"),
		VerifyBaseURL:    getEnv("VERIFY_BASE_URL", "https://api.nexmo.com"),
		VerifyCodeLength: getEnvInt("VERIFY_CODE_LENGTH", 6),
		VerifyHandleTTL:  time.Duration(getEnvInt("VERIFY_HANDLE_TTL_MINUTES", 15)) * time.Minute,

		SNSRegion:     getEnv("SNS_REGION", "us-east-1"),
		AlertsEnabled: getEnvBool("SECURITY_ALERTS_ENABLED", false),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
