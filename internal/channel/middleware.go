package channel

import (
	"context"
	"log/slog"
	"time"

	"github.com/explrms/secretSanta/internal/channel/adapters/common"
)

// LoggingMiddleware logs every inbound event with its handling time.
func LoggingMiddleware(log *slog.Logger) Middleware {
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("component", "inbound"))
	return func(next InboundHandler) InboundHandler {
		return func(ctx context.Context, cfg ChannelConfig, msg InboundMessage) error {
			started := time.Now()
			err := next(ctx, cfg, msg)
			attrs := []any{
				slog.String("channel", msg.Channel.String()),
				slog.String("kind", string(msg.Kind)),
				slog.Int64("user_id", msg.UserID),
				slog.Int64("chat_id", msg.ChatID),
				slog.Duration("took", time.Since(started)),
			}
			switch msg.Kind {
			case KindCommand:
				attrs = append(attrs, slog.String("command", msg.Command))
			case KindButton:
				attrs = append(attrs, slog.String("data", msg.CallbackData))
			default:
				attrs = append(attrs, slog.String("text", common.SummarizeText(msg.Text)))
			}
			if err != nil {
				log.Error("inbound failed", append(attrs, slog.Any("error", err))...)
				return err
			}
			log.Info("inbound handled", attrs...)
			return nil
		}
	}
}
