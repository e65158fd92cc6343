package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration.
type Config struct {
	Port            string   `envconfig:"PORT" default:"8080"`
	Env             string   `envconfig:"ENV" default:"dev"`
	LogLevel        string   `envconfig:"LOG_LEVEL" default:"info"`
	CORSAllowOrigin []string `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:5173"`
	DatabaseURL     string   `envconfig:"DATABASE_URL"`

	ObjectStoreType string        `envconfig:"OBJECT_STORE" default:"local"`
	LocalStoreDir   string        `envconfig:"LOCAL_STORE_DIR" default:"./data"`
	AWSRegion       string        `envconfig:"AWS_REGION"`
	S3Bucket        string        `envconfig:"S3_BUCKET"`
	S3Prefix        string        `envconfig:"S3_PREFIX"`
	SSEKMSKeyID     string        `envconfig:"SSE_KMS_KEY_ID"`
	MinioEndpoint   string        `envconfig:"MINIO_ENDPOINT"`
	MinioAccessKey  string        `envconfig:"MINIO_ACCESS_KEY"`
	MinioSecretKey  string        `envconfig:"MINIO_SECRET_KEY"`
	MinioBucket     string        `envconfig:"MINIO_BUCKET" default:"smartdoc"`
	MinioUseSSL     bool          `envconfig:"MINIO_USE_SSL" default:"false"`
	SignedURLTTL    time.Duration `envconfig:"SIGNED_URL_TTL" default:"60s"`

	LLMProvider   string        `envconfig:"LLM_PROVIDER" default:"gemini"`
	LLMModel      string        `envconfig:"LLM_MODEL"`
	GeminiAPIKey  string        `envconfig:"GEMINI_API_KEY"`
	OpenAIAPIKey  string        `envconfig:"OPENAI_API_KEY"`
	ModelTimeout  time.Duration `envconfig:"MODEL_TIMEOUT" default:"45s"`
	TextCacheSize int           `envconfig:"TEXT_CACHE_SIZE" default:"256"`

	ComparisonCost int `envconfig:"COMPARISON_COST" default:"1"`
	DefaultCredits int `envconfig:"DEFAULT_CREDITS" default:"50"`

	RedisAddr         string        `envconfig:"REDIS_ADDR"`
	RedisPassword     string        `envconfig:"REDIS_PASSWORD"`
	CompareRateLimit  int           `envconfig:"COMPARE_RATE_LIMIT" default:"10"`
	CompareRateWindow time.Duration `envconfig:"COMPARE_RATE_WINDOW" default:"1m"`

	ExtractQueueURL string `envconfig:"EXTRACT_QUEUE_URL"`

	NotificationRetention     time.Duration `envconfig:"NOTIFICATION_RETENTION" default:"720h"`
	NotificationPurgeSchedule string        `envconfig:"NOTIFICATION_PURGE_SCHEDULE" default:"0 3 * * *"`

	JWTSecret          string `envconfig:"JWT_SECRET"`
	GoogleClientID     string `envconfig:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `envconfig:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `envconfig:"GOOGLE_REDIRECT_URL"`
	UIRedirectURL      string `envconfig:"UI_REDIRECT_URL"`
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (Config, error) {
	// Best-effort load of local env files for dev convenience.
	_ = godotenv.Load(".env")
	_ = godotenv.Load("cmd/.env")

	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return Config{}, err
	}
	c.Env = normalizeEnv(c.Env)
	c.ObjectStoreType = normalizeStoreType(c.ObjectStoreType)
	c.LLMProvider = strings.ToLower(strings.TrimSpace(c.LLMProvider))
	c.CORSAllowOrigin = trimAll(c.CORSAllowOrigin)

	if c.Env == "production" && c.DatabaseURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}
	if c.ComparisonCost <= 0 {
		c.ComparisonCost = 1
	}
	return c, nil
}

// MustLoad is Load for entrypoints that cannot continue without configuration.
func MustLoad() Config {
	c, err := Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return c
}

func trimAll(in []string) []string {
	var out []string
	for _, p := range in {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	case "minio":
		return "minio"
	default:
		return "local"
	}
}
