package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/foldwatch/foldwatch/internal/config"
	"github.com/foldwatch/foldwatch/internal/logger"
	"github.com/foldwatch/foldwatch/internal/manifold"
	"github.com/foldwatch/foldwatch/internal/models"
	"github.com/foldwatch/foldwatch/internal/monitor"
	"github.com/foldwatch/foldwatch/internal/slack"
	"github.com/foldwatch/foldwatch/internal/store"
	"github.com/foldwatch/foldwatch/internal/telegram"
	"github.com/foldwatch/foldwatch/internal/watch"
)

var configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")

func main() {
	flag.Parse()

	// Secrets come from .env in development; a missing file is fine.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Configuration loaded from %s", *configPath)

	st, err := store.New(cfg.Store.MaxNotifications, cfg.Store.DBPath)
	if err != nil {
		logger.Fatal("Failed to initialize store: %v", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Error("Failed to close store: %v", err)
		}
	}()

	for _, url := range cfg.Store.SeedURLs {
		if !strings.HasPrefix(url, cfg.Manifold.SiteBaseURL) {
			logger.Warn("Seed question %s is not under %s, skipping", url, cfg.Manifold.SiteBaseURL)
			continue
		}
		if _, err := st.AddQuestion(url); err != nil {
			logger.Warn("Failed to seed question %s: %v", url, err)
		}
	}

	client := manifold.NewClient(
		cfg.Manifold.APIBaseURL,
		cfg.Manifold.Timeout,
		manifold.ClientConfig{
			MaxRetries:          cfg.Manifold.MaxRetries,
			RetryDelayBase:      cfg.Manifold.RetryDelayBase,
			MaxIdleConns:        cfg.Manifold.MaxIdleConns,
			MaxIdleConnsPerHost: cfg.Manifold.MaxIdleConnsPerHost,
			IdleConnTimeout:     cfg.Manifold.IdleConnTimeout,
		},
	)

	mon := monitor.New(client, cfg.Monitor.Delta)

	var targets []watch.Notifier
	var telegramClient *telegram.Client
	if cfg.Telegram.Enabled {
		telegramClient, err = telegram.NewClient(
			cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.AlertsChatID,
			cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelayBase,
		)
		if err != nil {
			logger.Fatal("Failed to initialize Telegram client: %v", err)
		}
		targets = append(targets, telegramNotifier{telegramClient})
		logger.Info("Telegram client initialized successfully")
	} else {
		logger.Debug("Telegram notifications disabled")
	}
	if cfg.Slack.Enabled {
		targets = append(targets, slack.NewClient(
			cfg.Slack.WebhookURL, cfg.Slack.ChannelID,
			cfg.Slack.MaxRetries, cfg.Slack.RetryDelayBase,
		))
		logger.Info("Slack webhook client initialized")
	} else {
		logger.Debug("Slack notifications disabled")
	}
	if len(targets) == 0 {
		logger.Warn("No notification channels enabled; moves will only be logged")
	}

	watcher := watch.New(client, st, fanoutNotifier(targets), mon, cfg.Monitor.DebugURLs)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, cleaning up...")
		cancel()
	}()

	if telegramClient != nil {
		telegramClient.ListenForCommands(ctx)
		if tracked, err := st.ListTracked(); err == nil {
			if err := telegramClient.SendStartup(len(tracked)); err != nil {
				logger.Warn("Failed to send startup notification: %v", err)
			}
		}
	}

	logger.Info("Starting watcher (interval: %v, delta: %.2f)",
		cfg.Manifold.PollInterval, cfg.Monitor.Delta)

	ticker := time.NewTicker(cfg.Manifold.PollInterval)
	defer ticker.Stop()

	keepAlive := time.NewTicker(cfg.Store.KeepAliveInterval)
	defer keepAlive.Stop()

	health := time.NewTicker(cfg.Telegram.HealthInterval)
	defer health.Stop()

	consecutiveFailures := 0

	handleCycleResult := func(err error) {
		if err != nil {
			consecutiveFailures++
			logger.Error("Watch cycle failed: %v", err)
			if consecutiveFailures == 1 && telegramClient != nil {
				if sendErr := telegramClient.SendError(err); sendErr != nil {
					logger.Warn("Failed to send error notification to Telegram: %v", sendErr)
				}
			}
		} else {
			if consecutiveFailures > 0 && telegramClient != nil {
				if sendErr := telegramClient.SendRecovery(consecutiveFailures); sendErr != nil {
					logger.Warn("Failed to send recovery notification to Telegram: %v", sendErr)
				}
			}
			consecutiveFailures = 0
		}
	}

	logger.Debug("Running initial watch cycle")
	handleCycleResult(watcher.RunCycle(ctx))

	for {
		select {
		case <-ctx.Done():
			logger.Info("Service stopped")
			return

		case <-ticker.C:
			logger.Debug("Starting scheduled watch cycle")
			handleCycleResult(watcher.RunCycle(ctx))

		case <-keepAlive.C:
			if err := st.Ping(); err != nil {
				logger.Warn("Keep-alive ping failed: %v", err)
			}

		case <-health.C:
			sendHealthUpdate(st, telegramClient, cfg.Store.MaxNotifications)
		}
	}
}

func sendHealthUpdate(st *store.Store, telegramClient *telegram.Client, maxNotifications int) {
	if telegramClient == nil {
		return
	}
	tracked, err := st.ListTracked()
	if err != nil {
		logger.Warn("Failed to gather health data: %v", err)
		return
	}
	records, err := st.RecentNotifications(maxNotifications)
	if err != nil {
		logger.Warn("Failed to gather health data: %v", err)
		return
	}
	if err := telegramClient.SendHealth(len(tracked), len(records)); err != nil {
		logger.Warn("Failed to send health update: %v", err)
	}
}

// telegramNotifier adapts the Telegram client to the watch.Notifier shape.
type telegramNotifier struct {
	client *telegram.Client
}

func (t telegramNotifier) Send(_ context.Context, n models.Notification) error {
	return t.client.Send(n)
}

func (t telegramNotifier) Announce(_ context.Context, marketName, marketURL, _ string) error {
	return t.client.Announce(marketName, marketURL)
}

// fanoutNotifier delivers to every enabled channel and reports the combined
// failures.
type fanoutNotifier []watch.Notifier

func (f fanoutNotifier) Send(ctx context.Context, n models.Notification) error {
	var errs []error
	for _, target := range f {
		if err := target.Send(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f fanoutNotifier) Announce(ctx context.Context, marketName, marketURL, marketID string) error {
	var errs []error
	for _, target := range f {
		if err := target.Announce(ctx, marketName, marketURL, marketID); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
