package flow

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/explrms/secretSanta/internal/boxes"
	"github.com/explrms/secretSanta/internal/channel"
	"github.com/explrms/secretSanta/internal/conversation"
	"github.com/explrms/secretSanta/internal/render"
)

// StartGifts opens gift collection for a box the user takes part in.
func (f *Flows) StartGifts(ctx context.Context, sess *conversation.Session, boxID int64) ([]channel.OutboundMessage, error) {
	if err := f.requireOpen(ctx, sess.UserID(), boxID); err != nil {
		return nil, err
	}
	return f.BeginGifts(sess, boxID), nil
}

func (f *Flows) BeginGifts(sess *conversation.Session, boxID int64) []channel.OutboundMessage {
	sess.Begin(conversation.FlowGifts, conversation.StepAwaitingURL, conversation.Data{BoxID: boxID})
	return replies(render.GiftsIntro(), render.AskGiftURL())
}

func (f *Flows) onGiftURL(ctx context.Context, sess *conversation.Session, in Input) ([]channel.OutboundMessage, error) {
	link := strings.TrimSpace(in.Text)
	if !looksLikeURL(link) {
		return nil, invalid("gift url", render.InvalidGiftURL())
	}
	short, err := f.shortener.Shorten(ctx, link)
	if err != nil {
		f.logger.Warn("shorten gift url failed", slog.Int64("user_id", sess.UserID()), slog.Any("error", err))
		return nil, invalid("gift url", render.InvalidGiftURL())
	}
	sess.Advance(conversation.StepAwaitingExactFlag, func(d *conversation.Data) {
		d.GiftURL = short
	})
	return replies(render.AskGiftExact()), nil
}

func (f *Flows) onExactFlagText(context.Context, *conversation.Session, Input) ([]channel.OutboundMessage, error) {
	return nil, invalid("exact flag expected", render.AskGiftExact())
}

func (f *Flows) onExactFlag(ctx context.Context, sess *conversation.Session, in Input) ([]channel.OutboundMessage, error) {
	data := sess.Data()
	_, err := f.boxes.AddGift(ctx, boxes.AddGiftRequest{
		BoxID:   data.BoxID,
		UserID:  sess.UserID(),
		URL:     data.GiftURL,
		IsExact: in.Token.Flag,
	})
	if err != nil {
		return f.abort(sess, data.BoxID, err)
	}
	sess.Advance(conversation.StepAwaitingMore, func(d *conversation.Data) {
		d.GiftURL = ""
	})
	return replies(render.GiftAdded()), nil
}

func (f *Flows) onAddAnother(_ context.Context, sess *conversation.Session, _ Input) ([]channel.OutboundMessage, error) {
	sess.Advance(conversation.StepAwaitingURL, nil)
	return replies(render.AskNextGiftURL()), nil
}

func (f *Flows) onExitGifts(_ context.Context, sess *conversation.Session, _ Input) ([]channel.OutboundMessage, error) {
	sess.Clear()
	return replies(render.GiftFillingDone()), nil
}

func looksLikeURL(raw string) bool {
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
