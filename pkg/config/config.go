package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/platinummonkey/petstore/pkg/observability"
	"github.com/platinummonkey/petstore/pkg/storage"
	"github.com/robfig/cron/v3"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Storage configuration
	Storage storage.Config

	// Observability configuration
	Observability ObservabilityConfig

	// Backup configuration
	Backup BackupConfig

	// SeedOnStart overwrites the store with the fixture catalog at startup
	SeedOnStart bool
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	MaxBodyBytes    int64
	CORSOrigins     []string

	// Health/metrics server (separate port for k8s probes)
	HealthPort string
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	// Logging
	LogLevel observability.LogLevel

	// Metrics
	MetricsEnabled bool

	// OpenTelemetry
	OTelEnabled        bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool // Use insecure gRPC connection
}

// OTel converts the settings into the form InitOTel takes
func (c ObservabilityConfig) OTel() observability.OTelConfig {
	return observability.OTelConfig{
		Enabled:        c.OTelEnabled,
		Endpoint:       c.OTelEndpoint,
		ServiceName:    c.OTelServiceName,
		ServiceVersion: c.OTelServiceVersion,
		Insecure:       c.OTelInsecure,
	}
}

// BackupConfig holds snapshot settings. An empty schedule disables snapshots.
type BackupConfig struct {
	Schedule string
	Dir      string // used for every backend but s3
	Prefix   string // key prefix when the store is s3
}

// Enabled reports whether snapshots are scheduled
func (c BackupConfig) Enabled() bool {
	return c.Schedule != ""
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Storage:       loadStorageConfig(),
		Observability: loadObservabilityConfig(),
		Backup:        loadBackupConfig(),
		SeedOnStart:   getEnvBool("PETSTORE_SEED_ON_START", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadServerConfig loads server configuration from environment
func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("PETSTORE_HOST", "0.0.0.0"),
		Port:            getEnv("PETSTORE_PORT", "8080"),
		ReadTimeout:     getEnvDuration("PETSTORE_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("PETSTORE_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("PETSTORE_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("PETSTORE_SHUTDOWN_TIMEOUT", 30*time.Second),
		MaxBodyBytes:    getEnvInt64("PETSTORE_MAX_BODY_BYTES", 1<<20),
		CORSOrigins:     getEnvList("PETSTORE_CORS_ORIGINS"),
		HealthPort:      getEnv("PETSTORE_HEALTH_PORT", "9090"),
	}
}

// loadStorageConfig loads storage configuration from environment
func loadStorageConfig() storage.Config {
	cfg := storage.DefaultConfig()

	// Storage type
	if storageType := getEnv("PETSTORE_STORAGE_TYPE", ""); storageType != "" {
		cfg.Type = strings.ToLower(storageType)
	}

	// File config
	if path := getEnv("PETSTORE_FILE_PATH", ""); path != "" {
		cfg.FilePath = path
	}
	cfg.CreateIfMissing = getEnvBool("PETSTORE_CREATE_IF_MISSING", cfg.CreateIfMissing)
	cfg.WatchFile = getEnvBool("PETSTORE_WATCH_FILE", cfg.WatchFile)

	// SQL config
	if sqlURL := getEnv("PETSTORE_SQL_URL", ""); sqlURL != "" {
		cfg.SQLURL = sqlURL
	}
	if table := getEnv("PETSTORE_SQL_TABLE", ""); table != "" {
		cfg.SQLTable = table
	}
	if maxConns := getEnvInt("PETSTORE_SQL_MAX_CONNS", 0); maxConns > 0 {
		cfg.SQLMaxConns = maxConns
	}
	if timeout := getEnvDuration("PETSTORE_SQL_TIMEOUT", 0); timeout > 0 {
		cfg.SQLTimeout = timeout
	}

	// S3 config
	if s3Endpoint := getEnv("PETSTORE_S3_ENDPOINT", ""); s3Endpoint != "" {
		cfg.S3Endpoint = s3Endpoint
	}
	if s3Region := getEnv("PETSTORE_S3_REGION", ""); s3Region != "" {
		cfg.S3Region = s3Region
	}
	if s3Bucket := getEnv("PETSTORE_S3_BUCKET", ""); s3Bucket != "" {
		cfg.S3Bucket = s3Bucket
	}
	if s3Key := getEnv("PETSTORE_S3_KEY", ""); s3Key != "" {
		cfg.S3Key = s3Key
	}
	if s3AccessKey := getEnv("PETSTORE_S3_ACCESS_KEY", ""); s3AccessKey != "" {
		cfg.S3AccessKey = s3AccessKey
	}
	if s3SecretKey := getEnv("PETSTORE_S3_SECRET_KEY", ""); s3SecretKey != "" {
		cfg.S3SecretKey = s3SecretKey
	}
	cfg.S3UsePathStyle = getEnvBool("PETSTORE_S3_USE_PATH_STYLE", cfg.S3UsePathStyle)

	// Redis config
	if redisURL := getEnv("PETSTORE_REDIS_URL", ""); redisURL != "" {
		cfg.RedisURL = redisURL
	}
	if redisPassword := getEnv("PETSTORE_REDIS_PASSWORD", ""); redisPassword != "" {
		cfg.RedisPassword = redisPassword
	}
	if redisDB := getEnvInt("PETSTORE_REDIS_DB", -1); redisDB >= 0 {
		cfg.RedisDB = redisDB
	}
	if redisPoolSize := getEnvInt("PETSTORE_REDIS_POOL_SIZE", 0); redisPoolSize > 0 {
		cfg.RedisPoolSize = redisPoolSize
	}

	// Cache config
	cfg.CacheEnabled = getEnvBool("PETSTORE_CACHE_ENABLED", cfg.CacheEnabled)
	if ttl := getEnvDuration("PETSTORE_CACHE_TTL", 0); ttl > 0 {
		cfg.CacheTTL = ttl
	}
	if l1CacheSize := getEnvInt("PETSTORE_L1_CACHE_SIZE", 0); l1CacheSize > 0 {
		cfg.L1CacheSize = l1CacheSize
	}

	return cfg
}

// loadObservabilityConfig loads observability configuration from environment
func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:           parseLogLevel(getEnv("PETSTORE_LOG_LEVEL", "info")),
		MetricsEnabled:     getEnvBool("PETSTORE_METRICS_ENABLED", true),
		OTelEnabled:        getEnvBool("PETSTORE_OTEL_ENABLED", false),
		OTelEndpoint:       getEnv("PETSTORE_OTEL_ENDPOINT", "localhost:4317"),
		OTelServiceName:    getEnv("PETSTORE_OTEL_SERVICE_NAME", "petstore"),
		OTelServiceVersion: getEnv("PETSTORE_OTEL_SERVICE_VERSION", "1.0.0"),
		OTelInsecure:       getEnvBool("PETSTORE_OTEL_INSECURE", true),
	}
}

// loadBackupConfig loads snapshot configuration from environment
func loadBackupConfig() BackupConfig {
	return BackupConfig{
		Schedule: getEnv("PETSTORE_BACKUP_SCHEDULE", ""),
		Dir:      getEnv("PETSTORE_BACKUP_DIR", "backups"),
		Prefix:   getEnv("PETSTORE_BACKUP_PREFIX", "backups/"),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	// Validate storage config based on type
	switch c.Storage.Type {
	case storage.TypeFile:
		if c.Storage.FilePath == "" {
			return fmt.Errorf("file path is required for file storage")
		}
	case storage.TypeS3:
		if c.Storage.S3Bucket == "" {
			return fmt.Errorf("S3 bucket is required for s3 storage")
		}
	case storage.TypePostgres, storage.TypeSQLite:
		if c.Storage.SQLURL == "" {
			return fmt.Errorf("SQL URL is required for %s storage", c.Storage.Type)
		}
		switch c.Storage.SQLTable {
		case "pets", "cats", "dogs":
		default:
			return fmt.Errorf("invalid SQL table: %s (must be pets, cats, or dogs)", c.Storage.SQLTable)
		}
	default:
		return fmt.Errorf("invalid storage type: %s (must be file, s3, postgres, or sqlite)", c.Storage.Type)
	}

	if c.Storage.CacheEnabled && c.Storage.L1CacheSize <= 0 {
		return fmt.Errorf("L1 cache size must be positive when the cache is enabled")
	}

	// Validate OpenTelemetry config
	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	// Validate backup schedule
	if c.Backup.Enabled() {
		if _, err := cron.ParseStandard(c.Backup.Schedule); err != nil {
			return fmt.Errorf("invalid backup schedule %q: %w", c.Backup.Schedule, err)
		}
	}

	return nil
}

// parseLogLevel parses a log level string
func parseLogLevel(level string) observability.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return observability.DebugLevel
	case "info":
		return observability.InfoLevel
	case "warn", "warning":
		return observability.WarnLevel
	case "error":
		return observability.ErrorLevel
	default:
		return observability.InfoLevel
	}
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvInt64 returns an int64 environment variable or a default
func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated environment variable, dropping blanks
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
