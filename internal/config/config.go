package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Logger     LoggerConfig     `yaml:"logger"`
	Auth       AuthConfig       `yaml:"auth"`
	Redis      RedisConfig      `yaml:"redis"`
	Cache      CacheConfig      `yaml:"cache"`
	Generation GenerationConfig `yaml:"generation"`
	Reserved   ReservedConfig   `yaml:"reserved"`
	S3         S3Config         `yaml:"s3"`
	Kafka      KafkaConfig      `yaml:"kafka"`
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig holds database-related configuration.
type DatabaseConfig struct {
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	User            string `yaml:"user"`
	Password        string `yaml:"password"`
	Database        string `yaml:"database"`
	MaxConnections  int    `yaml:"maxConnections"`
	MinConnections  int    `yaml:"minConnections"`
	MaxConnLifetime int    `yaml:"maxConnLifetime"` // seconds
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "console"
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	APIKey string `yaml:"apiKey"`
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Addr         string `yaml:"addr"`
	Password     string `yaml:"password"`
	DB           int    `yaml:"db"`
	PoolSize     int    `yaml:"poolSize"`
	MinIdleConns int    `yaml:"minIdleConns"`
	DialTimeout  int    `yaml:"dialTimeout"` // seconds
	ReadTimeout  int    `yaml:"readTimeout"` // seconds
}

// Cache modes.
const (
	CacheModeTiered = "tiered"
	CacheModeRedis  = "redis"
	CacheModeLocal  = "local"
	CacheModeNone   = "none"
)

// CacheConfig holds cache layer configuration.
type CacheConfig struct {
	Mode          string `yaml:"mode"`
	TTL           int    `yaml:"ttl"` // seconds
	L1MaxCost     int64  `yaml:"l1MaxCost"`
	L1NumCounters int64  `yaml:"l1NumCounters"`
}

// GenerationConfig holds code generation tuning.
type GenerationConfig struct {
	// MaxBatchAttempts is how many times a batch is regenerated after a uniqueness conflict.
	MaxBatchAttempts int `yaml:"maxBatchAttempts"`
	// MaxAttemptsFactor bounds random draws to count*factor per batch.
	MaxAttemptsFactor int `yaml:"maxAttemptsFactor"`
}

// ReservedConfig lists gzipped files of codes that must never be issued.
type ReservedConfig struct {
	Files []string `yaml:"files"`
}

// S3Config holds AWS S3 configuration for reserved code files.
type S3Config struct {
	Enabled bool   `yaml:"enabled"`
	Bucket  string `yaml:"bucket"`
	Region  string `yaml:"region"`
	Prefix  string `yaml:"prefix"` // Path prefix within bucket (e.g., "reserved/")
}

// KafkaConfig holds Kafka event publishing configuration.
type KafkaConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			User:            "postgres",
			Database:        "discountcodes",
			MaxConnections:  25,
			MinConnections:  5,
			MaxConnLifetime: 300,
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "json",
		},
		Redis: RedisConfig{
			Enabled:      true,
			Addr:         "localhost:6379",
			PoolSize:     50,
			MinIdleConns: 5,
			DialTimeout:  5,
			ReadTimeout:  3,
		},
		Cache: CacheConfig{
			Mode:          CacheModeTiered,
			TTL:           300,
			L1MaxCost:     10 << 20,
			L1NumCounters: 100_000,
		},
		Generation: GenerationConfig{
			MaxBatchAttempts:  3,
			MaxAttemptsFactor: 100,
		},
		S3: S3Config{
			Region: "us-east-1",
			Prefix: "reserved/",
		},
		Kafka: KafkaConfig{
			Topic: "discount-code-events",
		},
	}
}

// Load loads configuration from an optional YAML file named by CONFIG_FILE,
// then applies environment variable overrides.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadFile merges a YAML file over the current values.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return nil
}

// applyEnv overrides values with environment variables when set.
func (c *Config) applyEnv() {
	c.Server.Host = getEnv("SERVER_HOST", c.Server.Host)
	c.Server.Port = getEnvAsInt("SERVER_PORT", c.Server.Port)

	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.Port = getEnvAsInt("DB_PORT", c.Database.Port)
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)
	c.Database.Database = getEnv("DB_NAME", c.Database.Database)
	c.Database.MaxConnections = getEnvAsInt("DB_MAX_CONNECTIONS", c.Database.MaxConnections)
	c.Database.MinConnections = getEnvAsInt("DB_MIN_CONNECTIONS", c.Database.MinConnections)
	c.Database.MaxConnLifetime = getEnvAsInt("DB_MAX_CONN_LIFETIME", c.Database.MaxConnLifetime)

	c.Logger.Level = getEnv("LOG_LEVEL", c.Logger.Level)
	c.Logger.Format = getEnv("LOG_FORMAT", c.Logger.Format)

	c.Auth.APIKey = getEnv("API_KEY", c.Auth.APIKey)

	c.Redis.Enabled = getEnvAsBool("REDIS_ENABLED", c.Redis.Enabled)
	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = getEnvAsInt("REDIS_DB", c.Redis.DB)
	c.Redis.PoolSize = getEnvAsInt("REDIS_POOL_SIZE", c.Redis.PoolSize)

	c.Cache.Mode = getEnv("CACHE_MODE", c.Cache.Mode)
	c.Cache.TTL = getEnvAsInt("CACHE_TTL", c.Cache.TTL)

	c.Generation.MaxBatchAttempts = getEnvAsInt("GENERATION_MAX_BATCH_ATTEMPTS", c.Generation.MaxBatchAttempts)
	c.Generation.MaxAttemptsFactor = getEnvAsInt("GENERATION_MAX_ATTEMPTS_FACTOR", c.Generation.MaxAttemptsFactor)

	c.Reserved.Files = getEnvAsList("RESERVED_FILES", c.Reserved.Files)

	c.S3.Enabled = getEnvAsBool("S3_ENABLED", c.S3.Enabled)
	c.S3.Bucket = getEnv("S3_BUCKET", c.S3.Bucket)
	c.S3.Region = getEnv("S3_REGION", c.S3.Region)
	c.S3.Prefix = getEnv("S3_PREFIX", c.S3.Prefix)

	c.Kafka.Enabled = getEnvAsBool("KAFKA_ENABLED", c.Kafka.Enabled)
	c.Kafka.Brokers = getEnvAsList("KAFKA_BROKERS", c.Kafka.Brokers)
	c.Kafka.Topic = getEnv("KAFKA_TOPIC", c.Kafka.Topic)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Database.Port)
	}

	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}

	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.Database.MaxConnections < 1 {
		return fmt.Errorf("database max connections must be at least 1")
	}

	if c.Database.MinConnections < 1 {
		return fmt.Errorf("database min connections must be at least 1")
	}

	if c.Database.MinConnections > c.Database.MaxConnections {
		return fmt.Errorf("database min connections cannot exceed max connections")
	}

	if c.Auth.APIKey == "" {
		return fmt.Errorf("API key is required")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Logger.Format)
	}

	switch c.Cache.Mode {
	case CacheModeTiered, CacheModeRedis:
		if !c.Redis.Enabled {
			return fmt.Errorf("cache mode %s requires redis to be enabled", c.Cache.Mode)
		}
	case CacheModeLocal, CacheModeNone:
	default:
		return fmt.Errorf("invalid cache mode: %s (must be tiered, redis, local, or none)", c.Cache.Mode)
	}

	if c.Cache.TTL < 1 {
		return fmt.Errorf("cache TTL must be at least 1 second")
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis address is required when redis is enabled")
	}

	if c.Generation.MaxBatchAttempts < 1 {
		return fmt.Errorf("generation max batch attempts must be at least 1")
	}

	if c.Generation.MaxAttemptsFactor < 1 {
		return fmt.Errorf("generation max attempts factor must be at least 1")
	}

	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			return fmt.Errorf("S3 bucket is required when S3 is enabled")
		}
		if c.S3.Region == "" {
			return fmt.Errorf("S3 region is required when S3 is enabled")
		}
	}

	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka brokers are required when kafka is enabled")
		}
		if c.Kafka.Topic == "" {
			return fmt.Errorf("kafka topic is required when kafka is enabled")
		}
	}

	return nil
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// Address returns the server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// TTLDuration returns the cache TTL as a duration.
func (c *CacheConfig) TTLDuration() time.Duration {
	return time.Duration(c.TTL) * time.Second
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsList retrieves a comma-separated environment variable or returns a default value.
func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
