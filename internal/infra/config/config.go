package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Log       LogConfig       `mapstructure:"log"`
	Auth      AuthConfig      `mapstructure:"auth"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Order     OrderConfig     `mapstructure:"order"`
	Inventory InventoryConfig `mapstructure:"inventory"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN returns the database connection string.
func (c *DatabaseConfig) DSN() string {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Database, c.SSLMode,
	)
	if c.Password != "" {
		dsn += fmt.Sprintf(" password=%s", c.Password)
	}
	return dsn
}

// RedisConfig holds Redis configuration. An empty address disables Redis.
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Enabled reports whether a Redis address is configured.
func (c *RedisConfig) Enabled() bool {
	return c.Address != ""
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// AuthConfig holds bearer token settings. Tokens only attribute the actor.
type AuthConfig struct {
	JWTSecret         string        `mapstructure:"jwt_secret"`
	Issuer            string        `mapstructure:"issuer"`
	AccessTokenExpiry time.Duration `mapstructure:"access_token_expiry"`
	// RequireToken rejects requests without a valid token instead of
	// attributing them to an anonymous actor.
	RequireToken bool `mapstructure:"require_token"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	CheckoutLimit  int           `mapstructure:"checkout_limit"`
	CheckoutWindow time.Duration `mapstructure:"checkout_window"`
	IdempotencyTTL time.Duration `mapstructure:"idempotency_ttl"`
}

// TelemetryConfig holds tracing configuration. An empty endpoint disables export.
type TelemetryConfig struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	Insecure     bool    `mapstructure:"insecure"`
	ServiceName  string  `mapstructure:"service_name"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
}

// OrderConfig holds order and checkout settings.
type OrderConfig struct {
	CodePrefix              string        `mapstructure:"code_prefix"`
	DefaultCurrency         string        `mapstructure:"default_currency"`
	CheckoutLockTTL         time.Duration `mapstructure:"checkout_lock_ttl"`
	StockBreakerMaxFailures uint32        `mapstructure:"stock_breaker_max_failures"`
	StockBreakerOpenTimeout time.Duration `mapstructure:"stock_breaker_open_timeout"`
	StockBreakerInterval    time.Duration `mapstructure:"stock_breaker_interval"`
}

// InventoryConfig holds stock ledger settings.
type InventoryConfig struct {
	DefaultWarehouseCode string `mapstructure:"default_warehouse_code"`
	DefaultWarehouseName string `mapstructure:"default_warehouse_name"`
	ExportMaxRows        int    `mapstructure:"export_max_rows"`
}

const envPrefix = "ORDERLEDGER"

// Load loads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.AddConfigPath("/etc/orderledger")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Sensitive values
	if secret := os.Getenv(envPrefix + "_JWT_SECRET"); secret != "" {
		cfg.Auth.JWTSecret = secret
	}
	if password := os.Getenv(envPrefix + "_DB_PASSWORD"); password != "" {
		cfg.Database.Password = password
	}
	if password := os.Getenv(envPrefix + "_REDIS_PASSWORD"); password != "" {
		cfg.Redis.Password = password
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	if c.Auth.RequireToken && c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.require_token is set but no jwt secret is configured")
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("telemetry.sample_ratio must be within [0, 1], got %v", c.Telemetry.SampleRatio)
	}
	if c.RateLimit.Enabled && c.RateLimit.CheckoutLimit <= 0 {
		return fmt.Errorf("rate_limit.checkout_limit must be positive when rate limiting is enabled")
	}
	return nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)
	v.SetDefault("server.allowed_origins", []string{"*"})

	// Database
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.database", "orderledger")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.conn_max_idle_time", 5*time.Minute)
	v.SetDefault("database.auto_migrate", true)

	// Redis
	v.SetDefault("redis.address", "")
	v.SetDefault("redis.db", 0)

	// Log
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Auth
	v.SetDefault("auth.issuer", "orderledger")
	v.SetDefault("auth.access_token_expiry", 15*time.Minute)
	v.SetDefault("auth.require_token", false)

	// Rate limit
	v.SetDefault("rate_limit.enabled", false)
	v.SetDefault("rate_limit.checkout_limit", 30)
	v.SetDefault("rate_limit.checkout_window", time.Minute)
	v.SetDefault("rate_limit.idempotency_ttl", 24*time.Hour)

	// Telemetry
	v.SetDefault("telemetry.service_name", "orderledger")
	v.SetDefault("telemetry.sample_ratio", 1.0)

	// Order
	v.SetDefault("order.code_prefix", "ORD")
	v.SetDefault("order.default_currency", "VND")
	v.SetDefault("order.checkout_lock_ttl", 10*time.Second)
	v.SetDefault("order.stock_breaker_max_failures", 5)
	v.SetDefault("order.stock_breaker_open_timeout", 30*time.Second)
	v.SetDefault("order.stock_breaker_interval", time.Minute)

	// Inventory
	v.SetDefault("inventory.default_warehouse_code", "MAIN")
	v.SetDefault("inventory.default_warehouse_name", "Main Warehouse")
	v.SetDefault("inventory.export_max_rows", 50000)
}
