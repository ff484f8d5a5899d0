package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	redisclient "github.com/mananchopra067-oss/blood-sugar-monitoring-system/shared/redis"
	"github.com/spf13/viper"
)

type Config struct {
	Port              string        `mapstructure:"PORT"`
	Env               string        `mapstructure:"ENV"`
	DatabaseURL       string        `mapstructure:"DATABASE_URL"`
	DBMaxOpenConns    int           `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBMaxIdleConns    int           `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBConnMaxLifetime time.Duration `mapstructure:"DB_CONN_MAX_LIFETIME"`
	RedisAddr         string        `mapstructure:"REDIS_ADDR"`
	RedisPassword     string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB           int           `mapstructure:"REDIS_DB"`
	RedisPoolSize     int           `mapstructure:"REDIS_POOL_SIZE"`
	RedisMinIdleConns int           `mapstructure:"REDIS_MIN_IDLE_CONNS"`
	RedisTimeout      time.Duration `mapstructure:"REDIS_TIMEOUT"`
	ProfileCacheTTL   time.Duration `mapstructure:"PROFILE_CACHE_TTL"`
	JWTSecret         string        `mapstructure:"JWT_SECRET"`
	JWTTTL            time.Duration `mapstructure:"JWT_TTL"`
	BcryptCost        int           `mapstructure:"BCRYPT_COST"`
	CORSOrigins       []string      `mapstructure:"CORS_ORIGINS"`
	LogLevel          string        `mapstructure:"LOG_LEVEL"`
	LogFormat         string        `mapstructure:"LOG_FORMAT"`
	AuditConsumer     string        `mapstructure:"AUDIT_CONSUMER"`
}

var keys = []string{
	"PORT", "ENV", "DATABASE_URL",
	"DB_MAX_OPEN_CONNS", "DB_MAX_IDLE_CONNS", "DB_CONN_MAX_LIFETIME",
	"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
	"REDIS_POOL_SIZE", "REDIS_MIN_IDLE_CONNS", "REDIS_TIMEOUT", "PROFILE_CACHE_TTL",
	"JWT_SECRET", "JWT_TTL", "BCRYPT_COST", "CORS_ORIGINS",
	"LOG_LEVEL", "LOG_FORMAT", "AUDIT_CONSUMER",
}

// Load reads configuration from the environment, after merging any .env
// file in the working directory. Variables already set take precedence.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_OPEN_CONNS", 20)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "30m")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_POOL_SIZE", 10)
	v.SetDefault("REDIS_MIN_IDLE_CONNS", 2)
	v.SetDefault("REDIS_TIMEOUT", "3s")
	v.SetDefault("PROFILE_CACHE_TTL", "10m")
	v.SetDefault("JWT_TTL", "24h")
	v.SetDefault("BCRYPT_COST", 10)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("AUDIT_CONSUMER", "account-audit-1")

	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// RedisClientConfig maps the Redis settings onto the shared client options.
func (c *Config) RedisClientConfig() redisclient.ClientConfig {
	return redisclient.ClientConfig{
		Addr:         c.RedisAddr,
		Password:     c.RedisPassword,
		DB:           c.RedisDB,
		PoolSize:     c.RedisPoolSize,
		MinIdleConns: c.RedisMinIdleConns,
		DialTimeout:  c.RedisTimeout,
		ReadTimeout:  c.RedisTimeout,
		WriteTimeout: c.RedisTimeout,
	}
}

// AuthEnabled reports whether session tokens are issued and admin routes gated.
func (c *Config) AuthEnabled() bool {
	return c.JWTSecret != ""
}

// Validate checks that the configuration is safe to run.
func (c *Config) Validate() error {
	if c.IsProduction() && !c.AuthEnabled() {
		return errors.New("JWT_SECRET is required in production")
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", c.BcryptCost)
	}
	if c.DBMaxOpenConns <= 0 {
		return fmt.Errorf("DB_MAX_OPEN_CONNS must be positive, got %d", c.DBMaxOpenConns)
	}
	if c.RedisPoolSize <= 0 {
		return fmt.Errorf("REDIS_POOL_SIZE must be positive, got %d", c.RedisPoolSize)
	}
	if c.DBMaxIdleConns > c.DBMaxOpenConns {
		return fmt.Errorf("DB_MAX_IDLE_CONNS (%d) exceeds DB_MAX_OPEN_CONNS (%d)", c.DBMaxIdleConns, c.DBMaxOpenConns)
	}
	return nil
}
