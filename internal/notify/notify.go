// Package notify pushes bot-initiated messages to users through the channel manager.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/explrms/secretSanta/internal/boxes"
	"github.com/explrms/secretSanta/internal/channel"
	"github.com/explrms/secretSanta/internal/relay"
	"github.com/explrms/secretSanta/internal/render"
)

type Sender interface {
	Send(ctx context.Context, channelType channel.ChannelType, msg channel.OutboundMessage) error
}

// Notifier delivers shuffle notices, relayed messages and reminders over one channel.
type Notifier struct {
	sender      Sender
	channelType channel.ChannelType
	logger      *slog.Logger
}

func New(log *slog.Logger, sender Sender, channelType channel.ChannelType) *Notifier {
	if log == nil {
		log = slog.Default()
	}
	return &Notifier{
		sender:      sender,
		channelType: channelType,
		logger:      log.With(slog.String("component", "notify")),
	}
}

func (n *Notifier) send(ctx context.Context, to int64, msg channel.OutboundMessage) error {
	msg.To = to
	if err := n.sender.Send(ctx, n.channelType, msg); err != nil {
		return fmt.Errorf("send to %d: %w", to, err)
	}
	return nil
}

func (n *Notifier) NotifyAssigned(ctx context.Context, box boxes.Box, giverID int64) error {
	return n.send(ctx, giverID, render.AssignedNotice(box))
}

func (n *Notifier) DeliverRelay(ctx context.Context, recipientID int64, msg relay.Message) error {
	return n.send(ctx, recipientID, render.RelayPayload(msg))
}

func (n *Notifier) RemindSurvey(ctx context.Context, box boxes.Box, userID int64) error {
	return n.send(ctx, userID, render.ReminderNotice(box))
}
