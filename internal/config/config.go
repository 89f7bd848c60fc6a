package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Manifold ManifoldConfig `mapstructure:"manifold"`
	Monitor  MonitorConfig  `mapstructure:"monitor"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Slack    SlackConfig    `mapstructure:"slack"`
	Store    StoreConfig    `mapstructure:"store"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ManifoldConfig holds upstream market API configuration.
type ManifoldConfig struct {
	APIBaseURL          string        `mapstructure:"api_base_url"`
	SiteBaseURL         string        `mapstructure:"site_base_url"`
	PollInterval        time.Duration `mapstructure:"poll_interval"`
	Timeout             time.Duration `mapstructure:"timeout"`
	MaxRetries          int           `mapstructure:"max_retries"`
	RetryDelayBase      time.Duration `mapstructure:"retry_delay_base"`
	MaxIdleConns        int           `mapstructure:"max_idle_conns"`
	MaxIdleConnsPerHost int           `mapstructure:"max_idle_conns_per_host"`
	IdleConnTimeout     time.Duration `mapstructure:"idle_conn_timeout"`
}

// MonitorConfig holds change-detection behavior configuration.
type MonitorConfig struct {
	// Delta is the significance threshold: a horizon's change is
	// report-worthy only when |change| strictly exceeds it.
	Delta float64 `mapstructure:"delta"`
	// DebugURLs, when non-empty, restricts processing to the listed
	// question URLs.
	DebugURLs []string `mapstructure:"debug_urls"`
}

// TelegramConfig holds Telegram notification configuration.
type TelegramConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	AlertsChatID   string        `mapstructure:"alerts_chat_id"` // operational pings; falls back to chat_id
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
	HealthInterval time.Duration `mapstructure:"health_interval"`
}

// SlackConfig holds Slack webhook notification configuration.
type SlackConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	WebhookURL     string        `mapstructure:"webhook_url"`
	ChannelID      string        `mapstructure:"channel_id"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// StoreConfig holds tracked-question store configuration.
type StoreConfig struct {
	DBPath            string        `mapstructure:"db_path"`
	MaxNotifications  int           `mapstructure:"max_notifications"`
	KeepAliveInterval time.Duration `mapstructure:"keep_alive_interval"`
	SeedURLs          []string      `mapstructure:"seed_urls"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)
	setDefaults(v)

	v.SetEnvPrefix("FOLDWATCH")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options.
func setDefaults(v *viper.Viper) {
	v.SetDefault("manifold.api_base_url", "https://api.manifold.markets/v0")
	v.SetDefault("manifold.site_base_url", "https://manifold.markets")
	v.SetDefault("manifold.poll_interval", "1h")
	v.SetDefault("manifold.timeout", "30s")
	v.SetDefault("manifold.max_retries", 3)
	v.SetDefault("manifold.retry_delay_base", "1s")
	v.SetDefault("manifold.max_idle_conns", 100)
	v.SetDefault("manifold.max_idle_conns_per_host", 10)
	v.SetDefault("manifold.idle_conn_timeout", "90s")

	v.SetDefault("monitor.delta", 0.10)

	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")
	v.SetDefault("telegram.health_interval", "24h")

	v.SetDefault("slack.enabled", false)
	v.SetDefault("slack.max_retries", 3)
	v.SetDefault("slack.retry_delay_base", "1s")

	v.SetDefault("store.db_path", "./data/foldwatch.db")
	v.SetDefault("store.max_notifications", 1000)
	v.SetDefault("store.keep_alive_interval", "4m")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks that all configuration values are valid.
func (c *Config) Validate() error {
	if c.Manifold.APIBaseURL == "" {
		return fmt.Errorf("manifold.api_base_url is required")
	}
	if c.Manifold.SiteBaseURL == "" {
		return fmt.Errorf("manifold.site_base_url is required")
	}
	if c.Manifold.PollInterval < 1*time.Minute {
		return fmt.Errorf("manifold.poll_interval must be at least 1 minute")
	}
	if c.Manifold.Timeout < 1*time.Second {
		return fmt.Errorf("manifold.timeout must be at least 1 second")
	}
	if c.Manifold.MaxRetries < 1 {
		return fmt.Errorf("manifold.max_retries must be at least 1")
	}

	if c.Monitor.Delta <= 0.0 || c.Monitor.Delta >= 1.0 {
		return fmt.Errorf("monitor.delta must be between 0.0 and 1.0 exclusive")
	}

	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}

	if c.Slack.Enabled {
		if c.Slack.WebhookURL == "" {
			return fmt.Errorf("slack.webhook_url is required when slack is enabled")
		}
		if c.Slack.ChannelID == "" {
			return fmt.Errorf("slack.channel_id is required when slack is enabled")
		}
	}

	if c.Store.DBPath == "" {
		return fmt.Errorf("store.db_path is required")
	}
	if c.Store.MaxNotifications < 1 {
		return fmt.Errorf("store.max_notifications must be at least 1")
	}
	if c.Store.KeepAliveInterval < 30*time.Second {
		return fmt.Errorf("store.keep_alive_interval must be at least 30 seconds")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}
