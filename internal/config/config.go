package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	Env           string
	LogLevel      string
	SessionSecret string
	Database      Database
	Upload        Upload
	StaticDir     string
	Cache         Cache
}

// Database 选择驱动：sqlite 使用本地文件，postgres 使用 DSN
type Database struct {
	Driver string
	DSN    string
}

// Upload 图片上传目录以及对外访问前缀
type Upload struct {
	Dir       string
	URLPrefix string
	MaxBytes  int64
}

type Cache struct {
	Size int
	TTL  time.Duration
}

// Load reads .env (if any) and then the process environment.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:          getEnv("PORT", "5000"),
		Env:           getEnv("APP_ENV", "production"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		SessionSecret: getEnv("SESSION_SECRET", "secret_key_change_me"),
		Database: Database{
			Driver: getEnv("DB_DRIVER", "sqlite"),
			DSN:    getEnv("DATABASE_URL", "hangspot.db"),
		},
		Upload: Upload{
			Dir:       getEnv("UPLOAD_DIR", "./web/static/images"),
			URLPrefix: getEnv("UPLOAD_URL_PREFIX", "/static/images"),
			MaxBytes:  getEnvInt64("UPLOAD_MAX_BYTES", 10*1024*1024),
		},
		StaticDir: getEnv("STATIC_DIR", "./web/static"),
		Cache: Cache{
			Size: int(getEnvInt64("FEED_CACHE_SIZE", 200)),
			TTL:  getEnvDuration("FEED_CACHE_TTL", time.Minute),
		},
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
