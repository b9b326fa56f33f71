package config

import (
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestParseEnvDefaults(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")

	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.SessionTTL != 20*time.Minute {
		t.Fatalf("expected 20m session ttl, got %s", cfg.SessionTTL)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("unexpected http addr: %s", cfg.HTTPAddr)
	}
	if cfg.ShortenerURL != "https://clck.ru/--" {
		t.Fatalf("unexpected shortener url: %s", cfg.ShortenerURL)
	}
	if !cfg.Telegram.UsePolling() {
		t.Fatalf("expected polling without webhook url")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestParseEnvTelegramPrefix(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_BOT_USERNAME", "secret_santa_bot")
	t.Setenv("TELEGRAM_WEBHOOK_URL", "https://example.com/bot/webhook")
	t.Setenv("ADMIN_CHAT_ID", "-100500")
	t.Setenv("ERRORS_THREAD_ID", "7")

	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Telegram.BotUsername != "secret_santa_bot" {
		t.Fatalf("unexpected bot username: %s", cfg.Telegram.BotUsername)
	}
	if cfg.Telegram.UsePolling() {
		t.Fatalf("expected webhook mode")
	}
	if cfg.AdminChatID != -100500 || cfg.ErrorsThreadID != 7 {
		t.Fatalf("unexpected operator chat: %d/%d", cfg.AdminChatID, cfg.ErrorsThreadID)
	}
}

func TestParseEnvMissingToken(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")

	var cfg Config
	err := ParseEnv(&cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	base := Config{
		Telegram:     TelegramConfig{BotToken: "token"},
		SessionTTL:   time.Minute,
		SendTimeout:  time.Second,
		ShortenerURL: "https://clck.ru/--",
		LogLevel:     "debug",
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	level, _ := base.Level()
	if level != slog.LevelDebug {
		t.Fatalf("unexpected level: %s", level)
	}

	t.Run("zero ttl", func(t *testing.T) {
		cfg := base
		cfg.SessionTTL = 0
		if err := cfg.Validate(); err == nil {
			t.Fatalf("expected error, got nil")
		}
	})
	t.Run("bad level", func(t *testing.T) {
		cfg := base
		cfg.LogLevel = "loud"
		if err := cfg.Validate(); err == nil {
			t.Fatalf("expected error, got nil")
		}
	})
}
