package config

import (
	"os"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Manifold: ManifoldConfig{
			APIBaseURL:   "https://api.manifold.markets/v0",
			SiteBaseURL:  "https://manifold.markets",
			PollInterval: time.Hour,
			Timeout:      30 * time.Second,
			MaxRetries:   3,
		},
		Monitor: MonitorConfig{
			Delta: 0.10,
		},
		Telegram: TelegramConfig{
			Enabled:  true,
			BotToken: "test_token",
			ChatID:   "12345",
		},
		Store: StoreConfig{
			DBPath:            "./data/test.db",
			MaxNotifications:  1000,
			KeepAliveInterval: 4 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

func TestLoadAndValidate(t *testing.T) {
	content := `
manifold:
  poll_interval: 1h
  timeout: 30s

monitor:
  delta: 0.10

telegram:
  bot_token: "test_token"
  chat_id: "12345"
  enabled: true

store:
  db_path: "./data/test.db"
  seed_urls:
    - https://manifold.markets/alice/will-x-happen
    - https://manifold.markets/bob/who-wins

logging:
  level: "info"
  format: "json"
`
	tmpfile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Remove(tmpfile.Name()) }()

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpfile.Name())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Manifold.PollInterval != time.Hour {
		t.Errorf("Unexpected poll interval: %v", cfg.Manifold.PollInterval)
	}
	if cfg.Manifold.APIBaseURL != "https://api.manifold.markets/v0" {
		t.Errorf("Default api_base_url not applied: %q", cfg.Manifold.APIBaseURL)
	}
	if cfg.Monitor.Delta != 0.10 {
		t.Errorf("Unexpected delta: %f", cfg.Monitor.Delta)
	}
	if len(cfg.Store.SeedURLs) != 2 {
		t.Errorf("Expected 2 seed URLs, got %d", len(cfg.Store.SeedURLs))
	}
	if cfg.Store.KeepAliveInterval != 4*time.Minute {
		t.Errorf("Default keep_alive_interval not applied: %v", cfg.Store.KeepAliveInterval)
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing telegram token when enabled",
			mutate:  func(c *Config) { c.Telegram.BotToken = "" },
			wantErr: true,
		},
		{
			name:    "missing slack webhook when enabled",
			mutate:  func(c *Config) { c.Slack.Enabled = true },
			wantErr: true,
		},
		{
			name:    "zero delta",
			mutate:  func(c *Config) { c.Monitor.Delta = 0 },
			wantErr: true,
		},
		{
			name:    "delta above one",
			mutate:  func(c *Config) { c.Monitor.Delta = 1.5 },
			wantErr: true,
		},
		{
			name:    "poll interval too short",
			mutate:  func(c *Config) { c.Manifold.PollInterval = 10 * time.Second },
			wantErr: true,
		},
		{
			name:    "missing db path",
			mutate:  func(c *Config) { c.Store.DBPath = "" },
			wantErr: true,
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
