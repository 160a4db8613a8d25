// Package config loads application configuration from a YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full application configuration.
type Config struct {
	App    AppConfig    `mapstructure:"app"`
	Server ServerConfig `mapstructure:"server"`
	DB     DBConfig     `mapstructure:"db"`
	Redis  RedisConfig  `mapstructure:"redis"`
	Auth   AuthConfig   `mapstructure:"auth"`
	Scan   ScanConfig   `mapstructure:"scan"`
}

type AppConfig struct {
	Name     string `mapstructure:"name"`
	Env      string `mapstructure:"env"`
	LogLevel string `mapstructure:"log_level"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DBConfig struct {
	DSN string `mapstructure:"dsn"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Channel  string `mapstructure:"channel"`
}

type AuthConfig struct {
	// JWTSecret signs session tokens.
	JWTSecret string `mapstructure:"jwt_secret"`
	// AdminKey guards root-only routes (manufacturer issuance).
	AdminKey string        `mapstructure:"admin_key"`
	TokenTTL time.Duration `mapstructure:"token_ttl"`
}

type ScanConfig struct {
	// RepeatWindow suppresses identical scans within one session.
	RepeatWindow time.Duration `mapstructure:"repeat_window"`
}

// Load reads the configuration file and applies PHARMAKRYPT_* environment
// overrides (PHARMAKRYPT_DB_DSN, PHARMAKRYPT_AUTH_JWT_SECRET, ...).
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("PHARMAKRYPT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.ShutdownTimeout <= 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Auth.TokenTTL <= 0 {
		cfg.Auth.TokenTTL = 12 * time.Hour
	}
	if cfg.Scan.RepeatWindow <= 0 {
		cfg.Scan.RepeatWindow = 2 * time.Second
	}
	if cfg.Redis.Channel == "" {
		cfg.Redis.Channel = "pharmakrypt:alerts"
	}
	return &cfg, nil
}

// Validate checks that required settings are present.
func (c *Config) Validate() error {
	if c.DB.DSN == "" {
		return fmt.Errorf("db dsn is required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth jwt_secret is required")
	}
	if c.Auth.AdminKey == "" {
		return fmt.Errorf("auth admin_key is required")
	}
	return nil
}
