// Package config loads the bot settings from the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	BotToken string `mapstructure:"BOT_TOKEN"`
	// GuildID registers the commands in a single guild instead of globally.
	GuildID                    string        `mapstructure:"GUILD_ID"`
	CleanCommandsAfterShutdown bool          `mapstructure:"CLEAN_COMMANDS_AFTER_SHUTDOWN"`
	DatabaseDriver             string        `mapstructure:"DATABASE_DRIVER"`
	DatabaseURL                string        `mapstructure:"DATABASE_URL"`
	RedisURL                   string        `mapstructure:"REDIS_URL"`
	MetricsAddr                string        `mapstructure:"METRICS_ADDR"`
	AutocompleteTTL            time.Duration `mapstructure:"AUTOCOMPLETE_TTL"`
	CacheSweepInterval         time.Duration `mapstructure:"CACHE_SWEEP_INTERVAL"`
	MonitorInterval            time.Duration `mapstructure:"MONITOR_INTERVAL"`
}

// Load reads the environment, and the .env file first when testing is set.
func Load(testing bool) (*Config, error) {
	if testing {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("BOT_TOKEN", "")
	v.SetDefault("GUILD_ID", "")
	v.SetDefault("CLEAN_COMMANDS_AFTER_SHUTDOWN", false)
	v.SetDefault("DATABASE_DRIVER", "postgres")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("METRICS_ADDR", "")
	v.SetDefault("AUTOCOMPLETE_TTL", 2*time.Minute)
	v.SetDefault("CACHE_SWEEP_INTERVAL", 2*time.Minute)
	v.SetDefault("MONITOR_INTERVAL", 5*time.Minute)

	// older deployments only set POSTGRES_DSN
	if err := v.BindEnv("DATABASE_URL", "DATABASE_URL", "POSTGRES_DSN"); err != nil {
		return nil, err
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.BotToken == "" {
		return errors.New("BOT_TOKEN is required")
	}

	switch c.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("DATABASE_DRIVER must be postgres or sqlite, got %q", c.DatabaseDriver)
	}

	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}

	if c.AutocompleteTTL <= 0 {
		return errors.New("AUTOCOMPLETE_TTL must be positive")
	}
	if c.CacheSweepInterval <= 0 {
		return errors.New("CACHE_SWEEP_INTERVAL must be positive")
	}
	if c.MonitorInterval <= 0 {
		return errors.New("MONITOR_INTERVAL must be positive")
	}

	return nil
}
