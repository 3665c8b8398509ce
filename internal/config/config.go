package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// MinIO 对象存储配置
type MinIO struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	Region    string
	PublicURL string // 对外访问前缀，如 http://localhost:9000
}

// Redis 配置
type Redis struct {
	Addr     string
	Password string
	DB       int
}

// Config 应用配置
type Config struct {
	Env         string
	AppSecret   string
	DatabaseURL string
	JWTExpiry   time.Duration
	Port        string

	Redis Redis
	MinIO MinIO

	// 会话
	SessionIdleTTL time.Duration // 标签页级会话标记的空闲过期时间

	// 电影缓存
	MovieCacheSize int
	MovieCacheTTL  time.Duration

	// 详情页并发加载超时
	DetailTimeout time.Duration

	// 评分校准周期
	ReconcileInterval time.Duration

	PlaceholderPoster string
	MaxUploadSize     int64
	CORSOrigin        string
}

// Load 加载配置
func Load() *Config {
	expiryHours, _ := strconv.Atoi(getEnv("JWT_EXPIRY_HOURS", "72"))

	dbUser := getEnv("DB_USER", "postgres")
	dbPass := getEnv("DB_PASSWORD", "postgres")
	dbHost := getEnv("DB_HOST", "localhost")
	dbPort := getEnv("DB_PORT", "5432")
	dbName := getEnv("DB_NAME", "cinereview")
	dbSSL := getEnv("DB_SSLMODE", "disable")

	dbURL := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		dbUser, dbPass, dbHost, dbPort, dbName, dbSSL)

	appSecret := getEnv("APP_SECRET", getEnv("JWT_SECRET", "your-secret-key-change-in-production"))

	if getEnv("APP_ENV", "development") == "production" && appSecret == "your-secret-key-change-in-production" {
		fmt.Println("【严重警告】生产环境正在使用默认密钥！请立即设置 APP_SECRET 环境变量。")
	}

	return &Config{
		Env:         getEnv("APP_ENV", "development"),
		AppSecret:   appSecret,
		DatabaseURL: dbURL,
		JWTExpiry:   time.Duration(expiryHours) * time.Hour,
		Port:        getEnv("PORT", "5005"),
		Redis: Redis{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		MinIO: MinIO{
			Endpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey: getEnv("MINIO_ACCESS_KEY", "minioadmin"),
			SecretKey: getEnv("MINIO_SECRET_KEY", "minioadmin"),
			Bucket:    getEnv("MINIO_BUCKET", "bucket"),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
			Region:    getEnv("MINIO_REGION", "us-east-1"),
			PublicURL: getEnv("MINIO_PUBLIC_URL", "http://localhost:9000"),
		},
		SessionIdleTTL:    getEnvDuration("SESSION_IDLE_TTL", 24*time.Hour),
		MovieCacheSize:    getEnvInt("MOVIE_CACHE_SIZE", 512),
		MovieCacheTTL:     getEnvDuration("MOVIE_CACHE_TTL", 10*time.Minute),
		DetailTimeout:     getEnvDuration("DETAIL_TIMEOUT", 8*time.Second),
		ReconcileInterval: getEnvDuration("RECONCILE_INTERVAL", 24*time.Hour),
		PlaceholderPoster: getEnv("PLACEHOLDER_POSTER", "https://via.placeholder.com/300x450"),
		MaxUploadSize:     int64(getEnvInt("MAX_UPLOAD_SIZE", 10<<20)),
		CORSOrigin:        getEnv("CORS_ORIGIN", "*"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
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
