// Package config loads and validates the service configuration.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Registry RegistryConfig `mapstructure:"registry"`
	Token    TokenConfig    `mapstructure:"token"`
}

type ServerConfig struct {
	Port        int               `mapstructure:"port" validate:"required,gte=1,lte=65535"`
	Mode        string            `mapstructure:"mode" validate:"required,oneof=development production"`
	TLS         TLS               `mapstructure:"tls"`
	RateLimiter RateLimiterConfig `mapstructure:"rate_limiter"`
}

type TLS struct {
	Enabled  bool   `mapstructure:"enabled"`
	CertFile string `mapstructure:"cert_file" validate:"required_if=Enabled true"`
	KeyFile  string `mapstructure:"key_file"  validate:"required_if=Enabled true"`
}

// RateLimiterConfig holds the per-client request rate limiter settings.
type RateLimiterConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	Rate    float64 `mapstructure:"rate"  validate:"required_if=Enabled true"`
	Burst   int     `mapstructure:"burst" validate:"required_if=Enabled true"`
}

type DatabaseConfig struct {
	URL               string        `mapstructure:"url" validate:"required_unless=Mode development"`
	MaxConns          int32         `mapstructure:"max_conns"`
	MinConns          int32         `mapstructure:"min_conns"`
	MaxConnIdleTime   time.Duration `mapstructure:"max_conn_idle_time"`
	MaxConnLifetime   time.Duration `mapstructure:"max_conn_lifetime"`
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
	TLS               bool          `mapstructure:"tls"`

	// Mode mirrors server.mode so the required_unless rule above can see it.
	Mode string `mapstructure:"-"`
}

type RegistryConfig struct {
	// MaxKeys is the per-user key quota; 0 means unlimited.
	MaxKeys int `mapstructure:"max_keys" validate:"gte=0"`
}

type TokenConfig struct {
	// Lifetime bounds the age of the creation timestamp embedded in access
	// tokens.
	Lifetime time.Duration `mapstructure:"lifetime"`
}

// Load reads the configuration from path (or config.yaml in ./configs or the
// working directory) and the environment, and validates it.
func Load(path string) (*Config, error) {
	vip := viper.New()
	if path != "" {
		vip.SetConfigFile(path)
	} else {
		vip.SetConfigName("config")
		vip.AddConfigPath("./configs")
		vip.AddConfigPath(".")
	}

	vip.SetConfigType("yaml")
	vip.SetEnvPrefix("keyportal")
	vip.AutomaticEnv()
	vip.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	vip.SetDefault("server.port", 8443)
	vip.SetDefault("server.mode", "production")
	vip.SetDefault("server.rate_limiter.rate", 10.0)
	vip.SetDefault("server.rate_limiter.burst", 20)
	vip.SetDefault("database.max_conns", 8)
	vip.SetDefault("database.min_conns", 2)
	vip.SetDefault("database.max_conn_idle_time", "5m")
	vip.SetDefault("database.max_conn_lifetime", "30m")
	vip.SetDefault("database.health_check_period", "1m")
	vip.SetDefault("registry.max_keys", 0)
	vip.SetDefault("token.lifetime", "15m")

	if err := vip.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Database.Mode = cfg.Server.Mode

	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}
