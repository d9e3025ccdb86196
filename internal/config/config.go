package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

type ServerConfig struct {
	Port           int           `mapstructure:"port" envconfig:"SERVER_PORT"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout" envconfig:"SERVER_READ_TIMEOUT"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout" envconfig:"SERVER_WRITE_TIMEOUT"`
	MaxHeaderBytes int           `mapstructure:"max_header_bytes" envconfig:"SERVER_MAX_HEADER_BYTES"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host" envconfig:"DB_HOST"`
	Port            int           `mapstructure:"port" envconfig:"DB_PORT"`
	User            string        `mapstructure:"user" envconfig:"DB_USER"`
	Password        string        `mapstructure:"password" envconfig:"DB_PASSWORD"`
	Name            string        `mapstructure:"name" envconfig:"DB_NAME"`
	SSLMode         string        `mapstructure:"sslmode" envconfig:"DB_SSLMODE"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" envconfig:"DB_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" envconfig:"DB_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" envconfig:"DB_CONN_MAX_LIFETIME"`
}

type RedisConfig struct {
	URL          string        `mapstructure:"url" envconfig:"REDIS_URL"`
	MaxRetries   int           `mapstructure:"max_retries" envconfig:"REDIS_MAX_RETRIES"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff" envconfig:"REDIS_RETRY_BACKOFF"`
	PoolSize     int           `mapstructure:"pool_size" envconfig:"REDIS_POOL_SIZE"`
	MinIdleConns int           `mapstructure:"min_idle_conns" envconfig:"REDIS_MIN_IDLE_CONNS"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host" envconfig:"SMTP_HOST"`
	Port     int    `mapstructure:"port" envconfig:"SMTP_PORT"`
	Username string `mapstructure:"username" envconfig:"SMTP_USERNAME"`
	Password string `mapstructure:"password" envconfig:"SMTP_PASSWORD"`
	From     string `mapstructure:"from" envconfig:"SMTP_FROM"`
	NotifyTo string `mapstructure:"notify_to" envconfig:"SMTP_NOTIFY_TO"`
}

type WorkerConfig struct {
	BatchSize       int           `mapstructure:"batch_size" envconfig:"WORKER_BATCH_SIZE"`
	PollInterval    time.Duration `mapstructure:"poll_interval" envconfig:"WORKER_POLL_INTERVAL"`
	RetryAttempts   int           `mapstructure:"retry_attempts" envconfig:"WORKER_RETRY_ATTEMPTS"`
	RetryDelay      time.Duration `mapstructure:"retry_delay" envconfig:"WORKER_RETRY_DELAY"`
	Channel         string        `mapstructure:"channel" envconfig:"WORKER_CHANNEL"`
	RetentionDays   int           `mapstructure:"retention_days" envconfig:"WORKER_RETENTION_DAYS"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval" envconfig:"WORKER_CLEANUP_INTERVAL"`
}

type SecurityConfig struct {
	EncryptionKey string `mapstructure:"encryption_key" envconfig:"ENCRYPTION_KEY"`
	BcryptCost    int    `mapstructure:"bcrypt_cost" envconfig:"BCRYPT_COST"`
}

type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps" envconfig:"RATE_LIMIT_RPS"`
	Burst int     `mapstructure:"burst" envconfig:"RATE_LIMIT_BURST"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret" envconfig:"JWT_SECRET"`
	ExpiryHours int    `mapstructure:"expiry_hours" envconfig:"JWT_EXPIRY_HOURS"`
}

type MigrateConfig struct {
	Concurrency int           `mapstructure:"concurrency" envconfig:"MIGRATE_CONCURRENCY"`
	Timeout     time.Duration `mapstructure:"timeout" envconfig:"MIGRATE_TIMEOUT"`
}

type TenancyConfig struct {
	CacheTTL        time.Duration `mapstructure:"cache_ttl" envconfig:"TENANT_CACHE_TTL"`
	CacheCleanup    time.Duration `mapstructure:"cache_cleanup" envconfig:"TENANT_CACHE_CLEANUP"`
	DefaultTenantID string        `mapstructure:"default_tenant_id" envconfig:"DEFAULT_TENANT_ID"`
}

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	SMTP      SMTPConfig      `mapstructure:"smtp"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Migrate   MigrateConfig   `mapstructure:"migrate"`
	Tenancy   TenancyConfig   `mapstructure:"tenancy"`
	Worker    WorkerConfig    `mapstructure:"worker"`
	Security  SecurityConfig  `mapstructure:"security"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// LoadConfig reads config.yaml (working dir or ./config) and then applies
// WARD_-prefixed environment overrides on top, so containers can override
// individual values without a file edit.
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := envconfig.Process("ward", &cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "15s")
	viper.SetDefault("server.write_timeout", "15s")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", "30m")
	viper.SetDefault("redis.url", "redis://localhost:6379/0")
	viper.SetDefault("redis.max_retries", 3)
	viper.SetDefault("redis.retry_backoff", "100ms")
	viper.SetDefault("redis.pool_size", 10)
	viper.SetDefault("redis.min_idle_conns", 2)
	viper.SetDefault("migrate.concurrency", 4)
	viper.SetDefault("migrate.timeout", "5m")
	viper.SetDefault("tenancy.cache_ttl", "5m")
	viper.SetDefault("tenancy.cache_cleanup", "15m")
	viper.SetDefault("jwt.expiry_hours", 1)
	viper.SetDefault("worker.batch_size", 100)
	viper.SetDefault("worker.poll_interval", "5s")
	viper.SetDefault("worker.retry_attempts", 3)
	viper.SetDefault("worker.retry_delay", "1s")
	viper.SetDefault("worker.channel", "ward.events")
	viper.SetDefault("worker.retention_days", 7)
	viper.SetDefault("worker.cleanup_interval", "1h")
	viper.SetDefault("security.bcrypt_cost", 10)
	viper.SetDefault("rate_limit.rps", 50)
	viper.SetDefault("rate_limit.burst", 100)
}
