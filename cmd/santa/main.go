// Command santa runs the Secret Santa Telegram bot.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/explrms/secretSanta/internal/assignment"
	"github.com/explrms/secretSanta/internal/boxes"
	"github.com/explrms/secretSanta/internal/channel"
	"github.com/explrms/secretSanta/internal/channel/adapters/telegram"
	"github.com/explrms/secretSanta/internal/config"
	"github.com/explrms/secretSanta/internal/conversation"
	"github.com/explrms/secretSanta/internal/conversation/flow"
	"github.com/explrms/secretSanta/internal/db"
	"github.com/explrms/secretSanta/internal/handlers"
	"github.com/explrms/secretSanta/internal/notify"
	"github.com/explrms/secretSanta/internal/relay"
	"github.com/explrms/secretSanta/internal/reminder"
	"github.com/explrms/secretSanta/internal/router"
	"github.com/explrms/secretSanta/internal/shortener"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	log := newLogger(cfg)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, log, cfg); err != nil {
		log.Error("santa stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func newLogger(cfg config.Config) *slog.Logger {
	level, _ := cfg.Level()
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.LogFormat, "text") {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func run(ctx context.Context, log *slog.Logger, cfg config.Config) error {
	repo, closeRepo, err := openRepository(ctx, log, cfg)
	if err != nil {
		return err
	}
	defer closeRepo()

	machine, closeSessions, err := openMachine(ctx, log, cfg)
	if err != nil {
		return err
	}
	defer closeSessions()

	configs := channel.NewStaticConfigStore()
	if _, err := configs.Upsert(channel.ChannelTelegram, channel.TelegramCredentials(channel.TelegramConfig{
		BotToken:      cfg.Telegram.BotToken,
		BotUsername:   cfg.Telegram.BotUsername,
		WebhookURL:    cfg.Telegram.WebhookURL,
		WebhookSecret: cfg.Telegram.WebhookSecret,
	})); err != nil {
		return err
	}

	manager := channel.NewManager(log, configs, nil)
	manager.Use(channel.LoggingMiddleware(log))
	adapter := telegram.NewTelegramAdapter(log)
	manager.RegisterAdapter(adapter)

	notifier := notify.New(log, manager, channel.ChannelTelegram)
	boxService := boxes.NewService(log, repo)
	shuffler := assignment.NewService(log, repo, notifier, cfg.SendTimeout)
	flows := flow.New(log, boxService, shortener.New(cfg.ShortenerURL, cfg.SendTimeout), relay.New(log, repo, notifier, cfg.SendTimeout), cfg.Telegram.BotUsername)
	manager.SetProcessor(router.NewChannelInboundProcessor(log, router.Deps{
		Boxes:          boxService,
		Shuffler:       shuffler,
		Machine:        machine,
		Flows:          flows,
		BotUsername:    cfg.Telegram.BotUsername,
		AdminChatID:    cfg.AdminChatID,
		ErrorsThreadID: cfg.ErrorsThreadID,
	}))

	scheduler, err := reminder.Schedule(log, cfg.ReminderSchedule, reminder.NewJob(log, repo, notifier, cfg.SendTimeout))
	if err != nil {
		return err
	}
	scheduler.Start()
	defer func() { <-scheduler.Stop().Done() }()

	manager.Start(ctx)

	webhook := handlers.NewWebhookHandler(log, adapter, cfg.Telegram.WebhookSecret, time.Minute)
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				attrs = append(attrs, slog.Any("error", v.Error))
			}
			log.Debug("http request", attrs...)
			return nil
		},
	}))
	webhook.Register(e)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("http listening", slog.String("addr", cfg.HTTPAddr), slog.Bool("polling", cfg.Telegram.UsePolling()))
		if err := e.Start(cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := e.Shutdown(shutdownCtx)
		webhook.Wait()
		shuffler.Wait()
		return err
	})
	return g.Wait()
}

func openRepository(ctx context.Context, log *slog.Logger, cfg config.Config) (boxes.Repository, func(), error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		log.Warn("DATABASE_URL is empty, boxes are kept in memory")
		return boxes.NewMemoryRepository(), func() {}, nil
	}
	pool, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Migrate(ctx, log, pool); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return boxes.NewPostgresRepository(pool), pool.Close, nil
}

func openMachine(ctx context.Context, log *slog.Logger, cfg config.Config) (*conversation.Machine, func(), error) {
	if strings.TrimSpace(cfg.RedisURL) == "" {
		log.Warn("REDIS_URL is empty, conversation state is kept in memory")
		machine := conversation.NewMachine(log, conversation.NewMemoryStore(cfg.SessionTTL), conversation.NewMemoryLocker())
		return machine, func() {}, nil
	}
	client, err := conversation.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	machine := conversation.NewMachine(log, conversation.NewRedisStore(client, cfg.SessionTTL), conversation.NewRedisLocker(client))
	return machine, func() { _ = client.Close() }, nil
}
