package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"

	"github.com/explrms/secretSanta/internal/assignment"
	"github.com/explrms/secretSanta/internal/boxes"
	"github.com/explrms/secretSanta/internal/callback"
	"github.com/explrms/secretSanta/internal/channel"
	"github.com/explrms/secretSanta/internal/conversation"
	"github.com/explrms/secretSanta/internal/conversation/flow"
	"github.com/explrms/secretSanta/internal/render"
)

// BoxService abstracts the box use cases so the router does not depend on storage.
type BoxService interface {
	TouchUser(ctx context.Context, user boxes.User) (boxes.User, error)
	User(ctx context.Context, id int64) (boxes.User, error)
	Join(ctx context.Context, userID int64, code string) (boxes.Box, error)
	Box(ctx context.Context, id int64) (boxes.Box, error)
	ListBoxes(ctx context.Context, userID int64) ([]boxes.Box, error)
	Participation(ctx context.Context, userID, boxID int64) (boxes.Participation, error)
	Members(ctx context.Context, boxID int64) ([]boxes.Member, error)
	Delete(ctx context.Context, actorID, boxID int64) (boxes.Box, error)
	Gifts(ctx context.Context, boxID, userID int64) ([]boxes.Gift, error)
	DeleteGift(ctx context.Context, actorID, giftID int64) (boxes.Gift, error)
}

type Shuffler interface {
	Shuffle(ctx context.Context, actorID, boxID int64) (assignment.Result, error)
}

// Deps is everything the router needs, passed explicitly at construction.
type Deps struct {
	Boxes       BoxService
	Shuffler    Shuffler
	Machine     *conversation.Machine
	Flows       *flow.Flows
	BotUsername string
	// AdminChatID receives incident reports. Zero disables them.
	AdminChatID    int64
	ErrorsThreadID int
}

// ChannelInboundProcessor turns one inbound event into the replies to send back.
type ChannelInboundProcessor struct {
	deps   Deps
	logger *slog.Logger
}

func NewChannelInboundProcessor(log *slog.Logger, deps Deps) *ChannelInboundProcessor {
	if log == nil {
		log = slog.Default()
	}
	return &ChannelInboundProcessor{
		deps:   deps,
		logger: log.With(slog.String("component", "channel_router")),
	}
}

// HandleInbound never fails for the caller: unexpected errors and panics become an incident.
func (p *ChannelInboundProcessor) HandleInbound(ctx context.Context, cfg channel.ChannelConfig, msg channel.InboundMessage) (replies []channel.OutboundMessage, err error) {
	defer func() {
		if r := recover(); r != nil {
			replies = p.incident(ctx, msg, fmt.Errorf("panic: %v", r), debug.Stack())
			err = nil
		}
	}()
	if msg.UserID == 0 {
		return nil, nil
	}
	out, err := p.handle(ctx, msg)
	if err != nil {
		return p.incident(ctx, msg, err, nil), nil
	}
	return editInPlace(msg, out), nil
}

func (p *ChannelInboundProcessor) handle(ctx context.Context, msg channel.InboundMessage) ([]channel.OutboundMessage, error) {
	if _, err := p.deps.Boxes.TouchUser(ctx, boxes.User{
		ID:       msg.UserID,
		Username: msg.Username,
		FullName: msg.FullName,
	}); err != nil {
		return nil, fmt.Errorf("touch user: %w", err)
	}

	if msg.Kind == channel.KindCommand && (msg.Command == "stop" || msg.Command == "cancel") {
		if err := p.deps.Machine.Reset(ctx, msg.UserID); err != nil {
			return nil, err
		}
		return []channel.OutboundMessage{render.Cancelled()}, nil
	}

	var token callback.Token
	if msg.Kind == channel.KindButton {
		parsed, err := callback.Parse(msg.CallbackData)
		if err != nil {
			p.logger.Warn("malformed button",
				slog.Int64("user_id", msg.UserID),
				slog.String("data", msg.CallbackData),
				slog.Any("error", err))
			reply, _ := render.ForError(err, 0)
			return []channel.OutboundMessage{reply}, nil
		}
		token = parsed
	}

	var out []channel.OutboundMessage
	err := p.deps.Machine.Do(ctx, msg.UserID, func(sess *conversation.Session) error {
		var err error
		if msg.Kind != channel.KindCommand {
			in := flow.Input{Kind: msg.Kind, Text: msg.Text, Token: token}
			if handler, ok := p.deps.Flows.Match(sess.State(), in); ok {
				out, err = handler(ctx, sess, in)
				return err
			}
		}
		if msg.Kind == channel.KindCommand {
			out, err = p.command(ctx, sess, msg)
		} else if msg.Kind == channel.KindButton {
			out, err = p.button(ctx, sess, token)
		}
		return err
	})
	if err == nil {
		return out, nil
	}

	var invalid *flow.ValidationError
	if errors.As(err, &invalid) {
		return []channel.OutboundMessage{invalid.Reply}, nil
	}
	if reply, ok := render.ForError(err, backTarget(token)); ok {
		p.logger.Info("precondition failed", slog.Int64("user_id", msg.UserID), slog.Any("error", err))
		return []channel.OutboundMessage{reply}, nil
	}
	return nil, err
}

// backTarget is the box a failed button should lead back to.
func backTarget(token callback.Token) int64 {
	switch token.Action {
	case callback.DeleteGift, callback.SelectBox, callback.DeleteBoxConfirm:
		return 0
	}
	if shape, ok := callback.ShapeOf(token.Action); ok && shape == callback.ShapeID {
		return token.ID
	}
	return 0
}

// editInPlace makes the first reply to a button replace the message that carried it.
func editInPlace(msg channel.InboundMessage, out []channel.OutboundMessage) []channel.OutboundMessage {
	if msg.Kind != channel.KindButton || msg.MessageID == 0 || len(out) == 0 {
		return out
	}
	first := out[0]
	if first.To != 0 || first.Document != nil || strings.TrimSpace(first.Text) == "" {
		return out
	}
	first.EditMessageID = msg.MessageID
	out[0] = first
	return out
}
