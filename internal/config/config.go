package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type TelegramConfig struct {
	BotToken      string `env:"BOT_TOKEN,required,notEmpty"`
	BotUsername   string `env:"BOT_USERNAME"`
	WebhookURL    string `env:"WEBHOOK_URL"`
	WebhookSecret string `env:"WEBHOOK_SECRET"`
}

// UsePolling reports whether updates should be pulled with getUpdates instead of a webhook.
func (c TelegramConfig) UsePolling() bool {
	return strings.TrimSpace(c.WebhookURL) == ""
}

type Config struct {
	Telegram TelegramConfig `envPrefix:"TELEGRAM_"`

	// Operator chat for incident reports. Zero disables reporting.
	AdminChatID    int64 `env:"ADMIN_CHAT_ID"`
	ErrorsThreadID int   `env:"ERRORS_THREAD_ID"`

	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`

	SessionTTL       time.Duration `env:"SESSION_TTL" envDefault:"20m"`
	SendTimeout      time.Duration `env:"SEND_TIMEOUT" envDefault:"10s"`
	HTTPAddr         string        `env:"HTTP_ADDR" envDefault:":8080"`
	ShortenerURL     string        `env:"SHORTENER_URL" envDefault:"https://clck.ru/--"`
	ReminderSchedule string        `env:"REMINDER_SCHEDULE" envDefault:"0 10 * * *"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseEnv fills target from environment variables using its struct tags.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Telegram.BotToken) == "" {
		return fmt.Errorf("telegram bot token is required")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session ttl must be positive, got %s", c.SessionTTL)
	}
	if c.SendTimeout <= 0 {
		return fmt.Errorf("send timeout must be positive, got %s", c.SendTimeout)
	}
	if strings.TrimSpace(c.ShortenerURL) == "" {
		return fmt.Errorf("shortener url is required")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}
