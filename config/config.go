package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	AWS       AWSConfig
	Email     EmailConfig
	Kakao     KakaoConfig
	Frontend  FrontendConfig
	RateLimit RateLimitConfig
	Worker    WorkerConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string // if set, used as-is
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds JWT signing and validation settings.
type JWTConfig struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// AWSConfig holds AWS credentials and the photo bucket.
type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	PhotoBucket     string
	UploadURLTTL    time.Duration
	DownloadURLTTL  time.Duration
}

// EmailConfig for SES v2. An empty FromAddress disables sending.
type EmailConfig struct {
	FromAddress      string
	FromName         string
	ConfigurationSet string
}

// KakaoConfig holds the Kakao OAuth client registration.
type KakaoConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
}

// FrontendConfig holds links handed to browsers (invitation mail, OAuth redirect).
type FrontendConfig struct {
	BaseURL string
}

// RateLimitConfig for the public auth routes.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// WorkerConfig holds background job queue settings.
type WorkerConfig struct {
	Queue        string
	MaxRetries   int
	RetryBackoff time.Duration
}

// DSN returns the PostgreSQL connection string.
// If DatabaseConfig.URL is set (e.g. DATABASE_URL env), it is used as-is; otherwise built from components.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()      // .env
	_ = godotenv.Load("env") // env (no leading dot)

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        getEnvInt("READ_TIMEOUT_SEC", 30),
			WriteTimeout:       getEnvInt("WRITE_TIMEOUT_SEC", 30),
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "photomap"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:     getEnv("JWT_SECRET", "change-me-in-production"),
			AccessTTL:  getEnvDuration("JWT_ACCESS_TTL", time.Hour),
			RefreshTTL: getEnvDuration("JWT_REFRESH_TTL", 14*24*time.Hour),
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", "ap-northeast-2"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			PhotoBucket:     getEnv("AWS_S3_PHOTO_BUCKET", "photomap-photos"),
			UploadURLTTL:    getEnvDuration("AWS_UPLOAD_URL_TTL", 10*time.Minute),
			DownloadURLTTL:  getEnvDuration("AWS_DOWNLOAD_URL_TTL", 60*time.Minute),
		},
		Email: EmailConfig{
			FromAddress:      getEnv("EMAIL_FROM_ADDRESS", ""),
			FromName:         getEnv("EMAIL_FROM_NAME", "PhotoMap"),
			ConfigurationSet: getEnv("SES_CONFIGURATION_SET", ""),
		},
		Kakao: KakaoConfig{
			ClientID:     getEnv("KAKAO_CLIENT_ID", ""),
			ClientSecret: getEnv("KAKAO_CLIENT_SECRET", ""),
			RedirectURL:  getEnv("KAKAO_REDIRECT_URL", "http://localhost:8080/api/members/login/kakao"),
			AuthURL:      getEnv("KAKAO_AUTH_URL", "https://kauth.kakao.com/oauth/authorize"),
			TokenURL:     getEnv("KAKAO_TOKEN_URL", "https://kauth.kakao.com/oauth/token"),
			UserInfoURL:  getEnv("KAKAO_USERINFO_URL", "https://kapi.kakao.com/v2/user/me"),
		},
		Frontend: FrontendConfig{
			BaseURL: strings.TrimRight(getEnv("FRONTEND_BASE_URL", "http://localhost:3000"), "/"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: getEnvFloat("RATE_LIMIT_RPS", 5),
			Burst:             getEnvInt("RATE_LIMIT_BURST", 10),
		},
		Worker: WorkerConfig{
			Queue:        getEnv("WORKER_QUEUE", "photomap:jobs"),
			MaxRetries:   getEnvInt("WORKER_MAX_RETRIES", 3),
			RetryBackoff: getEnvDuration("WORKER_RETRY_BACKOFF", 10*time.Second),
		},
	}
	return cfg, nil
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

// getEnvDuration accepts Go duration syntax ("10m", "24h").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
