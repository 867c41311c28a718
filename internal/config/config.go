package config

import (
	"errors"
	"os"
	"strings"
	"time"
)

// Config holds every setting the server reads from the environment (.env is
// loaded by the caller through godotenv before Load runs).
type Config struct {
	Env     string
	Port    string
	BaseURL string

	DBDriver string
	DBDSN    string

	JWTSecret string
	TokenTTL  time.Duration

	CORSOrigins       []string
	AllowRegistration bool

	RedisAddr     string
	RedisPassword string

	StorageDriver string
	UploadDir     string
	S3Bucket      string
	S3Region      string
	S3Key         string
	S3Secret      string
	S3Endpoint    string
	S3URL         string

	GeminiAPIKey string
}

// ErrMissingDSN and ErrMissingSecret are fatal startup conditions.
var (
	ErrMissingDSN    = errors.New("DB_DSN not found in environment. Please configure your database")
	ErrMissingSecret = errors.New("JWT_SECRET not found in environment")
)

// Load reads configuration from the environment with defaults.
// Precedence: explicit env var > .env file > default.
func Load() (Config, error) {
	cfg := Config{
		Env:               getEnv("APP_ENV", "development"),
		Port:              getEnv("PORT", "8080"),
		DBDriver:          strings.ToLower(getEnv("DB_DRIVER", "mysql")),
		DBDSN:             os.Getenv("DB_DSN"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		TokenTTL:          getDuration("TOKEN_TTL", 24*time.Hour),
		CORSOrigins:       splitList(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		AllowRegistration: os.Getenv("ALLOW_REGISTRATION") == "true",
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		StorageDriver:     getEnv("STORAGE_DRIVER", "local"),
		UploadDir:         getEnv("UPLOAD_DIR", "./uploads"),
		S3Bucket:          os.Getenv("S3_BUCKET"),
		S3Region:          getEnv("S3_REGION", "eu-central-1"),
		S3Key:             os.Getenv("S3_KEY"),
		S3Secret:          os.Getenv("S3_SECRET"),
		S3Endpoint:        os.Getenv("S3_ENDPOINT"),
		S3URL:             os.Getenv("S3_URL"),
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
	}
	cfg.BaseURL = getEnv("BASE_URL", "http://localhost:"+cfg.Port)

	if cfg.DBDSN == "" {
		return cfg, ErrMissingDSN
	}
	if cfg.JWTSecret == "" {
		return cfg, ErrMissingSecret
	}
	return cfg, nil
}

// IsProduction reports whether APP_ENV selects production behaviour.
func (c Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
