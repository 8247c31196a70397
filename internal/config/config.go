package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendMySQL  = "mysql"
)

var ErrMissingTokenSecret = errors.New("TOKEN_SECRET is required")

type Config struct {
	HTTPAddr        string        `mapstructure:"HTTP_ADDR"`
	GRPCAddr        string        `mapstructure:"GRPC_ADDR"`
	StorageBackend  string        `mapstructure:"STORAGE_BACKEND"`
	RedisAddr       string        `mapstructure:"REDIS_ADDR"`
	RedisPassword   string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB         int           `mapstructure:"REDIS_DB"`
	RedisTTL        time.Duration `mapstructure:"REDIS_TTL"`
	MySQLDSN        string        `mapstructure:"MYSQL_DSN"`
	CatalogPath     string        `mapstructure:"CATALOG_PATH"`
	TokenSecret     string        `mapstructure:"TOKEN_SECRET"`
	TokenTTL        time.Duration `mapstructure:"TOKEN_TTL"`
	FastDeliveryFee string        `mapstructure:"FAST_DELIVERY_FEE"`
	LogLevel        string        `mapstructure:"LOG_LEVEL"`
	LogFormat       string        `mapstructure:"LOG_FORMAT"`
	BrowserID       string        `mapstructure:"BROWSER_ID"`
}

var defaults = map[string]any{
	"HTTP_ADDR":         ":8080",
	"GRPC_ADDR":         ":50051",
	"STORAGE_BACKEND":   BackendMemory,
	"REDIS_ADDR":        "localhost:6379",
	"REDIS_PASSWORD":    "",
	"REDIS_DB":          0,
	"REDIS_TTL":         "0s",
	"MYSQL_DSN":         "root:root@tcp(localhost:3306)/storefront?parseTime=true",
	"CATALOG_PATH":      "",
	"TOKEN_SECRET":      "",
	"TOKEN_TTL":         "720h",
	"FAST_DELIVERY_FEE": "5.99",
	"LOG_LEVEL":         "info",
	"LOG_FORMAT":        "json",
	"BROWSER_ID":        "local",
}

// Load reads configuration from the environment. Each envFile that exists is
// loaded first without overriding variables already set; a missing file is
// not an error.
func Load(envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	v := viper.New()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.StorageBackend = strings.ToLower(strings.TrimSpace(cfg.StorageBackend))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.StorageBackend {
	case BackendMemory, BackendRedis, BackendMySQL:
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}
	if _, err := c.DeliveryFee(); err != nil {
		return err
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL)
	}
	if c.RedisTTL < 0 {
		return fmt.Errorf("REDIS_TTL must not be negative, got %s", c.RedisTTL)
	}
	return nil
}

// ValidateServer adds the checks only the network server needs.
func (c *Config) ValidateServer() error {
	if strings.TrimSpace(c.TokenSecret) == "" {
		return ErrMissingTokenSecret
	}
	return nil
}

func (c *Config) DeliveryFee() (decimal.Decimal, error) {
	fee, err := decimal.NewFromString(strings.TrimSpace(c.FastDeliveryFee))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid FAST_DELIVERY_FEE %q: %w", c.FastDeliveryFee, err)
	}
	if fee.IsNegative() {
		return decimal.Zero, fmt.Errorf("FAST_DELIVERY_FEE must not be negative, got %s", fee)
	}
	return fee, nil
}
