package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	ServerPort string
	ServerEnv  string
	LogLevel   string

	// Database
	DatabaseURL string

	// JWT (검증 전용, 토큰 발급은 외부 인증 서버 담당)
	JWTSecretKey string

	// Review daily limit 기준 시간대
	ServerTimezone string

	// Files
	UploadURLPrefix  string
	DefaultThumbnail string

	// Paging
	MaxPageSize int

	// CORS
	CORSAllowOrigins string

	// SigNoz
	SigNozEndpoint string
}

func Load() *Config {
	return &Config{
		// Server
		ServerPort: getEnv("SERVER_PORT", "3000"),
		ServerEnv:  getEnv("SERVER_ENV", "development"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),

		// Database - DATABASE_URL 우선, 없으면 개별 환경변수로 구성
		DatabaseURL: getDatabaseURL(),

		JWTSecretKey: getEnv("JWT_SECRET_KEY", ""),

		ServerTimezone: getEnv("SERVER_TIMEZONE", "Asia/Seoul"),

		UploadURLPrefix:  getEnv("UPLOAD_URL_PREFIX", "/uploads/"),
		DefaultThumbnail: getEnv("DEFAULT_THUMBNAIL", "/images/default.png"),

		MaxPageSize: getEnvAsInt("MAX_PAGE_SIZE", 100),

		CORSAllowOrigins: getEnv("CORS_ALLOW_ORIGINS", "*"),

		// SigNoz
		SigNozEndpoint: getEnv("SIGNOZ_ENDPOINT", ""),
	}
}

// IsProduction reports whether the server runs with production settings
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.ServerEnv, "production")
}

// Location resolves ServerTimezone. Unknown zones fall back to a fixed KST offset.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.ServerTimezone)
	if err != nil {
		return time.FixedZone("KST", 9*60*60)
	}
	return loc
}

// LoaderConfig configures cmd/loader
type LoaderConfig struct {
	DatabaseURL  string
	DataDir      string
	BatchSize    int
	MaxConns     int32
	ConnectRetry time.Duration
	Debug        bool
}

func LoadLoader() *LoaderConfig {
	return &LoaderConfig{
		DatabaseURL:  getDatabaseURL(),
		DataDir:      getEnv("LOADER_DATA_DIR", "./data"),
		BatchSize:    getEnvAsInt("LOADER_BATCH_SIZE", 500),
		MaxConns:     int32(getEnvAsInt("LOADER_MAX_CONNS", 4)),
		ConnectRetry: time.Duration(getEnvAsInt("LOADER_CONNECT_RETRY_SECONDS", 60)) * time.Second,
		Debug:        getEnvAsBool("DEBUG", false),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getDatabaseURL returns DATABASE_URL or builds it from individual env vars
func getDatabaseURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}

	// 개별 환경변수로 구성 (k8s secret 키 이름과 일치)
	host := getEnv("POSTGRES_HOST", "localhost")
	port := getEnv("POSTGRES_PORT", "5432")
	user := getEnv("POSTGRES_USER", "postgres")
	password := getEnv("POSTGRES_PASSWORD", "")
	dbname := getEnv("POSTGRES_DB", "dollcatch")
	sslmode := getEnv("POSTGRES_SSLMODE", "disable")

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		user, password, host, port, dbname, sslmode)
}
