package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"

	AggregateLegacy     = "legacy"
	AggregateTransition = "transition"
)

type Config struct {
	// Store
	StoreBackend string

	// Database (postgres backend)
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// MongoDB (mongo backend)
	MongoURI      string
	MongoDatabase string

	// Auth0
	Auth0Domain           string
	Auth0Audience         string
	Auth0IssuerBaseURL    string
	Auth0TokenSigningAlg  string
	Auth0MgmtClientID     string
	Auth0MgmtClientSecret string
	Auth0Timeout          time.Duration

	// Icon storage (S3 compatible)
	S3Bucket    string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Endpoint  string

	// Rate limiting
	RedisURL           string
	RateLimitPerMinute int

	// Evaluations
	AggregateMode        string
	ContentFilterEnabled bool

	// Observability
	SentryDSN        string
	LogRetentionDays int

	// Server
	Port        string
	CORSOrigins string
	AppEnv      string
}

func Load() *Config {
	return &Config{
		StoreBackend: getEnv("STORE_BACKEND", BackendPostgres),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "peer_evaluation"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnv("MONGO_DATABASE", "peer_evaluation"),

		Auth0Domain:           getEnv("AUTH0_DOMAIN", ""),
		Auth0Audience:         getEnv("AUTH0_API_AUDIENCE", ""),
		Auth0IssuerBaseURL:    getEnv("AUTH0_ISSUER_BASE_URL", ""),
		Auth0TokenSigningAlg:  getEnv("AUTH0_TOKEN_SIGNING_ALG", "RS256"),
		Auth0MgmtClientID:     getEnv("AUTH0_MANAGEMENT_API_CLIENT_ID", ""),
		Auth0MgmtClientSecret: getEnv("AUTH0_MANAGEMENT_API_CLIENT_SECRET", ""),
		Auth0Timeout:          parseDuration(getEnv("AUTH0_TIMEOUT", "10s")),

		S3Bucket:    getEnv("S3_BUCKET", ""),
		S3Region:    getEnv("S3_REGION", "us-east-1"),
		S3AccessKey: getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey: getEnv("S3_SECRET_KEY", ""),
		S3Endpoint:  getEnv("S3_ENDPOINT", ""),

		RedisURL:           getEnv("REDIS_URL", ""),
		RateLimitPerMinute: parseInt(getEnv("RATE_LIMIT_PER_MINUTE", "60"), 60),

		AggregateMode:        getEnv("EVALUATION_AGGREGATE_MODE", AggregateLegacy),
		ContentFilterEnabled: parseBool(getEnv("CONTENT_FILTER_ENABLED", "true")),

		SentryDSN:        getEnv("SENTRY_DSN", ""),
		LogRetentionDays: parseInt(getEnv("LOG_RETENTION_DAYS", "30"), 30),

		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
		AppEnv:      getEnv("APP_ENV", "development"),
	}
}

// Validate reports the first missing or inconsistent setting.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendPostgres:
		if c.DBPassword == "" {
			return errors.New("DB_PASSWORD environment variable is required")
		}
	case BackendMongo:
		if c.MongoURI == "" {
			return errors.New("MONGO_URI environment variable is required")
		}
	default:
		return errors.New("STORE_BACKEND must be postgres or mongo")
	}
	if c.Auth0Domain == "" || c.Auth0Audience == "" || c.Auth0IssuerBaseURL == "" {
		return errors.New("AUTH0_DOMAIN, AUTH0_API_AUDIENCE and AUTH0_ISSUER_BASE_URL are required")
	}
	if c.S3Bucket == "" {
		return errors.New("S3_BUCKET environment variable is required")
	}
	if c.AggregateMode != AggregateLegacy && c.AggregateMode != AggregateTransition {
		return errors.New("EVALUATION_AGGREGATE_MODE must be legacy or transition")
	}
	return nil
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

// Issuer returns the issuer base URL with the trailing slash Auth0 puts in the iss claim.
func (c *Config) Issuer() string {
	return strings.TrimRight(c.Auth0IssuerBaseURL, "/") + "/"
}

// JWKSURL is the provider's published key set.
func (c *Config) JWKSURL() string {
	return c.Issuer() + ".well-known/jwks.json"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false
	}
	return b
}
