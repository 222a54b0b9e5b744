package config

import (
	"fmt"

	pkgconfig "github.com/maheshsanger8-debug/MadhavParjapatiArt--sub000/pkg/config"
)

// Config holds all configuration for the storefront service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"STOREFRONT_HTTP_PORT" envDefault:"8080"`

	// PostgreSQL (site asset records)
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"storefront"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"storefront_secret"`
	PostgresDB   string `env:"STOREFRONT_DB_NAME" envDefault:"storefront_db"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Redis (remote document store)
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// External product catalog
	CatalogBaseURL string `env:"CATALOG_BASE_URL" envDefault:"http://localhost:8001"`

	// Local persistent cache directory
	CacheDir string `env:"STOREFRONT_CACHE_DIR" envDefault:"./data/cache"`

	// Base URL for blob access (used by memory storage).
	BlobBaseURL string `env:"STOREFRONT_BLOB_BASE_URL" envDefault:""`

	// Auth token verification
	JWTSecret string `env:"JWT_SECRET" envDefault:"dev-secret-change-me"`

	// Terms-of-service version users must accept
	TermsVersion string `env:"TERMS_VERSION" envDefault:"2024-01"`

	// Upload rate limiting
	UploadRPS   int `env:"UPLOAD_RATE_LIMIT_RPS" envDefault:"5"`
	UploadBurst int `env:"UPLOAD_RATE_LIMIT_BURST" envDefault:"10"`

	// Tracing
	OTLPEndpoint string  `env:"OTLP_ENDPOINT" envDefault:""`
	TraceSample  float64 `env:"TRACE_SAMPLE_RATIO" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	return cfg, nil
}

// PostgresDSN returns the PostgreSQL connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.PostgresUser, c.PostgresPass, c.PostgresHost, c.PostgresPort, c.PostgresDB, c.PostgresSSL,
	)
}
