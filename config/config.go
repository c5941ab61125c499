package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds all application configuration.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Storage     StorageConfig     `mapstructure:"storage"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Redis       RedisConfig       `mapstructure:"redis"`
	JWT         JWTConfig         `mapstructure:"jwt"`
	Ledger      LedgerConfig      `mapstructure:"ledger"`
	Idempotency IdempotencyConfig `mapstructure:"idempotency"`
	Log         LogConfig         `mapstructure:"log"`
}

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"` // debug, release, test
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
	OpenAPIPath  string        `mapstructure:"openapi_path"`
	ShutdownWait time.Duration `mapstructure:"shutdown_wait"`
}

type StorageConfig struct {
	Driver  string `mapstructure:"driver"`  // postgres, memory
	Migrate bool   `mapstructure:"migrate"` // apply embedded schema at startup
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	PoolSize    int           `mapstructure:"pool_size"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Issuer string        `mapstructure:"issuer"`
	Expiry time.Duration `mapstructure:"expiry"`
}

// LedgerConfig carries the transfer policy knobs.
type LedgerConfig struct {
	Currency          string        `mapstructure:"currency"`
	AllowSelfTransfer bool          `mapstructure:"allow_self_transfer"`
	MaxTxAttempts     int           `mapstructure:"max_tx_attempts"`
	RetryBackoff      time.Duration `mapstructure:"retry_backoff"`
	RetryMaxBackoff   time.Duration `mapstructure:"retry_max_backoff"`
	ListDefaultLimit  int           `mapstructure:"list_default_limit"`
	ListMaxLimit      int           `mapstructure:"list_max_limit"`
}

type IdempotencyConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// Validate rejects combinations the server cannot start with.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("storage.driver must be %q or %q, got %q", DriverPostgres, DriverMemory, c.Storage.Driver)
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret is required")
	}
	if len(strings.TrimSpace(c.Ledger.Currency)) != 3 {
		return fmt.Errorf("ledger.currency must be a 3-letter code, got %q", c.Ledger.Currency)
	}
	if c.Ledger.ListDefaultLimit <= 0 || c.Ledger.ListMaxLimit <= 0 || c.Ledger.ListDefaultLimit > c.Ledger.ListMaxLimit {
		return fmt.Errorf("ledger list limits must satisfy 0 < default (%d) <= max (%d)",
			c.Ledger.ListDefaultLimit, c.Ledger.ListMaxLimit)
	}
	return nil
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: LEDGER_.
// Nested keys use underscore: LEDGER_DATABASE_HOST, LEDGER_JWT_SECRET, etc.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.max_body_bytes", 1<<20)
	v.SetDefault("server.openapi_path", "docs/api/openapi.yaml")
	v.SetDefault("server.shutdown_wait", "10s")
	v.SetDefault("storage.driver", DriverPostgres)
	v.SetDefault("storage.migrate", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "handle_ledger")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.dial_timeout", "2s")
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "handle-ledger")
	v.SetDefault("jwt.expiry", "1h")
	v.SetDefault("ledger.currency", "KRW")
	v.SetDefault("ledger.allow_self_transfer", false)
	v.SetDefault("ledger.max_tx_attempts", 5)
	v.SetDefault("ledger.retry_backoff", "5ms")
	v.SetDefault("ledger.retry_max_backoff", "250ms")
	v.SetDefault("ledger.list_default_limit", 200)
	v.SetDefault("ledger.list_max_limit", 500)
	v.SetDefault("idempotency.ttl", "24h")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	// File config
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables: LEDGER_DATABASE_HOST -> database.host
	v.SetEnvPrefix("LEDGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required, env vars can suffice)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	cfg.Ledger.Currency = strings.ToUpper(strings.TrimSpace(cfg.Ledger.Currency))

	return &cfg, nil
}
