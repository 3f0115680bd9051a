// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/antsif-a/schizontology-bot/internal/application"
	"github.com/antsif-a/schizontology-bot/internal/config"
	"github.com/antsif-a/schizontology-bot/internal/domain/model"
	"github.com/antsif-a/schizontology-bot/internal/domain/ports/adapter"
	"github.com/antsif-a/schizontology-bot/internal/domain/ports/repository"
	tele "github.com/antsif-a/schizontology-bot/internal/infra/adapters/telegram"
	"github.com/antsif-a/schizontology-bot/internal/infra/api"
	"github.com/antsif-a/schizontology-bot/internal/infra/i18n"
	"github.com/antsif-a/schizontology-bot/internal/infra/logging"
	"github.com/antsif-a/schizontology-bot/internal/infra/metrics"
	red "github.com/antsif-a/schizontology-bot/internal/infra/redis"
	"github.com/antsif-a/schizontology-bot/internal/infra/scheduler"
	"github.com/antsif-a/schizontology-bot/internal/usecase"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, unredacted output)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("relay bot stopped")
	}
}

func run(cfg *config.Config, logger *zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Runtime.Dev {
		logger.Info().Msg("[DEV MODE] Enabled")
	}
	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)
	logger.Info().
		Str("version", version).
		Str("token", logging.Redact(cfg.Bot.Token, cfg.Runtime.Dev)).
		Str("channel", cfg.Relay.ChannelID).
		Int("recipients", len(cfg.Relay.Recipients)).
		Msg("starting relay bot")

	// ---- Redis (optional recipient cache) ----
	checks := map[string]api.HealthCheck{}
	var cache repository.RecipientCache
	if cfg.Relay.CacheRecipients {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer redisClient.Close()
		cache = red.NewRecipientCache(redisClient, cfg.Redis.TTL)
		checks["redis"] = redisClient.Ping
		logger.Info().Dur("ttl", cfg.Redis.TTL).Msg("recipient cache enabled")
	}

	// ---- Telegram ----
	botAdapter, err := tele.NewRealTelegramBotAdapter(&cfg.Bot, logger)
	if err != nil {
		return fmt.Errorf("telegram: %w", err)
	}
	if strings.ToLower(cfg.Bot.Mode) != "polling" {
		logger.Warn().Str("mode", cfg.Bot.Mode).Msg("bot mode not implemented; falling back to polling")
	}
	var messenger adapter.Messenger = botAdapter
	if cfg.Bot.DryRun {
		messenger = tele.NewNoopMessenger(logger)
		logger.Warn().Msg("dry run: outbound messages are logged, not sent")
	}
	checks["telegram"] = func(ctx context.Context) error {
		_, err := botAdapter.ResolveChat(ctx, cfg.Relay.ChannelID)
		return err
	}

	// The operator chat is resolved once; without it failures would go nowhere.
	resolveCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	operator, err := botAdapter.ResolveChat(resolveCtx, cfg.Relay.OperatorChatID)
	cancel()
	if err != nil {
		return fmt.Errorf("resolve operator chat %s: %w", cfg.Relay.OperatorChatID, err)
	}

	replies, err := i18n.NewTranslator(i18n.LocalesFS, cfg.Bot.Language)
	if err != nil {
		return fmt.Errorf("i18n: %w", err)
	}

	// ---- Use cases ----
	classifier := usecase.NewClassifierUseCase(botAdapter, cfg.Relay.ChannelID, logger)
	resolver := usecase.NewResolverUseCase(botAdapter, model.RecipientSet(cfg.Relay.Recipients), cache, logger)
	router := usecase.NewRouterUseCase(classifier, resolver, messenger, replies, logger)
	reporter := usecase.NewReporterUseCase(messenger, operator, replies, logger)

	// ---- Recipient refresh ----
	// One pass at startup surfaces misconfigured recipients early; with a cache
	// the refresh keeps entries warm until shutdown.
	refresher := scheduler.NewScheduler(cfg.Redis.TTL/2, resolver, logger)
	if failed := refresher.RunOnce(ctx); failed > 0 {
		logger.Warn().Int("failed", failed).Msg("some recipients did not resolve at startup")
	}
	if cache != nil {
		refresher.Start(ctx)
		defer refresher.Stop()
	}

	// ---- Facade ----
	facade := application.NewBotFacade(router, reporter, messenger, replies, logger)

	// ---- Admin HTTP ----
	adminDone := make(chan struct{})
	if cfg.Admin.Port > 0 {
		srv := api.NewServer(resolver, checks, logger)
		go func() {
			defer close(adminDone)
			if err := srv.Run(ctx, api.Addr(cfg.Admin.Port), 5*time.Second); err != nil {
				logger.Error().Err(err).Msg("admin http server error")
			}
		}()
	} else {
		close(adminDone)
	}

	// ---- Polling (blocks until shutdown, then drains) ----
	if err := botAdapter.StartPolling(ctx, facade); err != nil {
		return fmt.Errorf("telegram polling: %w", err)
	}
	<-adminDone
	logger.Info().Msg("shutdown complete")
	return nil
}
