package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds every runtime setting the service reads at startup.
type Config struct {
	ServerPort   string `mapstructure:"SERVER_PORT"`
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	JWTSecret    string `mapstructure:"JWT_SECRET"`
	ClientOrigin string `mapstructure:"CLIENT_ORIGIN"`

	AWSRegion      string `mapstructure:"AWS_REGION"`
	EmailFrom      string `mapstructure:"EMAIL_FROM"`
	EmailsEnabled  bool   `mapstructure:"EMAILS_ENABLED"`
	AuthTokenHours int    `mapstructure:"AUTH_TOKEN_HOURS"`

	// Delivery policy knobs. Branch fee parameters live per branch in the
	// database; these cover what applies fleet-wide.
	AverageSpeedKmh      float64 `mapstructure:"AVERAGE_SPEED_KMH"`
	BranchCacheTTLSecond int     `mapstructure:"BRANCH_CACHE_TTL_SECONDS"`
}

// LoadConfig reads configuration from a .env file (if present) and the
// process environment. Environment variables win over file values.
func LoadConfig(path string) (*Config, error) {
	// A missing .env is fine in production, where everything comes from
	// the environment.
	_ = godotenv.Load(path + "/.env")

	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("AUTH_TOKEN_HOURS", 72)
	viper.SetDefault("AVERAGE_SPEED_KMH", 20.0)
	viper.SetDefault("BRANCH_CACHE_TTL_SECONDS", 300)
	viper.SetDefault("EMAILS_ENABLED", false)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.EmailsEnabled && (cfg.AWSRegion == "" || cfg.EmailFrom == "") {
		return nil, fmt.Errorf("AWS_REGION and EMAIL_FROM are required when EMAILS_ENABLED is set")
	}

	return &cfg, nil
}

// AuthTokenTTL returns the signed token lifetime.
func (c *Config) AuthTokenTTL() time.Duration {
	return time.Duration(c.AuthTokenHours) * time.Hour
}

// BranchCacheTTL returns how long cached branch rows stay fresh.
func (c *Config) BranchCacheTTL() time.Duration {
	return time.Duration(c.BranchCacheTTLSecond) * time.Second
}
