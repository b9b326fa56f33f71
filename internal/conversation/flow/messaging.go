package flow

import (
	"context"
	"errors"
	"strings"

	"github.com/explrms/secretSanta/internal/channel"
	"github.com/explrms/secretSanta/internal/conversation"
	"github.com/explrms/secretSanta/internal/relay"
	"github.com/explrms/secretSanta/internal/render"
)

// StartMessaging waits for one message to relay in dir. It fails when nobody is on the other end yet.
func (f *Flows) StartMessaging(ctx context.Context, sess *conversation.Session, boxID int64, dir relay.Direction) ([]channel.OutboundMessage, error) {
	if _, err := f.relay.Counterpart(ctx, sess.UserID(), boxID, dir); err != nil {
		return nil, err
	}
	sess.Begin(conversation.FlowMessaging, conversation.StepAwaitingMessage, conversation.Data{
		BoxID:     boxID,
		Direction: string(dir),
	})
	return replies(render.AskMessage(dir)), nil
}

func (f *Flows) onRelayText(ctx context.Context, sess *conversation.Session, in Input) ([]channel.OutboundMessage, error) {
	if strings.TrimSpace(in.Text) == "" {
		return nil, invalid("empty relay message", render.EmptyRelayMessage())
	}
	data := sess.Data()
	dir, err := relay.ParseDirection(data.Direction)
	if err != nil {
		sess.Clear()
		return replies(render.SessionExpired()), nil
	}
	err = f.relay.Send(ctx, sess.UserID(), data.BoxID, dir, in.Text)
	switch {
	case err == nil:
		sess.Clear()
		return replies(render.RelayDelivered()), nil
	case errors.Is(err, relay.ErrDeliveryFailed):
		sess.Clear()
		return replies(render.RelayFailed(dir)), nil
	case errors.Is(err, relay.ErrEmptyMessage):
		return nil, invalid("empty relay message", render.EmptyRelayMessage())
	default:
		return f.abort(sess, data.BoxID, err)
	}
}
