package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env                 string
	LogLevel            string
	HTTPAddr            string
	DatabaseURL         string
	JWTSecret           string
	JWTExpirySeconds    int64
	BaseDomain          string
	TenantOverrideParam string
	TenantCacheTTL      time.Duration
	MaxFileSizeBytes    int64
	RabbitMQURL         string
	RabbitMQWorkerMode  string
	CorsAllowedOrigins  []string
	WSHeartbeatInterval time.Duration

	// PrintServer designates this deployment as the one that prints
	// automatically on new orders and addenda.
	PrintServer    bool
	AutoPrint      bool
	PrinterAddr    string
	PrintTimeout   time.Duration
	PrintRetries   int
	PrintRetryWait time.Duration

	ObjectStoreEndpoint        string
	ObjectStoreRegion          string
	ObjectStoreAccessKeyID     string
	ObjectStoreSecretAccessKey string
	ObjectStoreBucket          string
	ObjectStorePublicBaseURL   string
	ObjectStoreStorageClass    string
}

func Load() Config {
	cfg := Config{
		Env:                 getEnv("APP_ENV", "development"),
		LogLevel:            getEnv("LOG_LEVEL", ""),
		HTTPAddr:            getEnv("HTTP_ADDR", ":8086"),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		JWTSecret:           getEnv("JWT_SECRET", ""),
		JWTExpirySeconds:    getEnvInt64("JWT_EXPIRY", 12*3600),
		BaseDomain:          getEnv("BASE_DOMAIN", ""),
		TenantOverrideParam: getEnv("TENANT_OVERRIDE_PARAM", "tenant"),
		TenantCacheTTL:      getEnvDuration("TENANT_CACHE_TTL", time.Minute),
		MaxFileSizeBytes:    getEnvInt64("MAX_FILE_SIZE", 5*1024*1024),
		RabbitMQURL:         getEnv("RABBITMQ_URL", ""),
		RabbitMQWorkerMode:  getEnv("RABBITMQ_WORKER_MODE", "daemon"),
		CorsAllowedOrigins:  splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "")),
		WSHeartbeatInterval: getEnvDuration("WS_HEARTBEAT_INTERVAL", 30*time.Second),

		PrintServer:    getEnvBool("PRINT_SERVER", false),
		AutoPrint:      getEnvBool("AUTO_PRINT", true),
		PrinterAddr:    getEnv("PRINTER_ADDR", ""),
		PrintTimeout:   getEnvDuration("PRINT_TIMEOUT", 15*time.Second),
		PrintRetries:   int(getEnvInt64("PRINT_RETRIES", 3)),
		PrintRetryWait: getEnvDuration("PRINT_RETRY_WAIT", 5*time.Second),

		ObjectStoreEndpoint:        getEnv("OBJECT_STORE_ENDPOINT", ""),
		ObjectStoreRegion:          getEnv("OBJECT_STORE_REGION", "auto"),
		ObjectStoreAccessKeyID:     getEnv("OBJECT_STORE_ACCESS_KEY_ID", ""),
		ObjectStoreSecretAccessKey: getEnv("OBJECT_STORE_SECRET_ACCESS_KEY", ""),
		ObjectStoreBucket:          getEnv("OBJECT_STORE_BUCKET", ""),
		ObjectStorePublicBaseURL:   getEnv("OBJECT_STORE_PUBLIC_BASE_URL", ""),
		ObjectStoreStorageClass:    getEnv("OBJECT_STORE_STORAGE_CLASS", ""),
	}

	if cfg.MaxFileSizeBytes <= 0 {
		cfg.MaxFileSizeBytes = 5 * 1024 * 1024
	}
	if cfg.JWTExpirySeconds <= 0 {
		cfg.JWTExpirySeconds = 12 * 3600
	}
	if cfg.PrintRetries < 0 {
		cfg.PrintRetries = 0
	}

	return cfg
}

func (c Config) JWTExpiry() time.Duration {
	return time.Duration(c.JWTExpirySeconds) * time.Second
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt64(key string, fallback int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

func splitCSV(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
