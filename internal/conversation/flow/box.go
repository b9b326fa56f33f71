package flow

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/explrms/secretSanta/internal/boxes"
	"github.com/explrms/secretSanta/internal/channel"
	"github.com/explrms/secretSanta/internal/conversation"
	"github.com/explrms/secretSanta/internal/render"
)

const maxBoxNameRunes = 255

// StartBoxCreation asks for the box name.
func (f *Flows) StartBoxCreation(sess *conversation.Session) []channel.OutboundMessage {
	sess.Begin(conversation.FlowBoxCreation, conversation.StepAwaitingName, conversation.Data{})
	return replies(render.AskBoxName())
}

func (f *Flows) onBoxName(_ context.Context, sess *conversation.Session, in Input) ([]channel.OutboundMessage, error) {
	name := strings.TrimSpace(in.Text)
	if name == "" || utf8.RuneCountInString(name) > maxBoxNameRunes {
		return nil, invalid("box name", render.InvalidBoxName())
	}
	sess.Advance(conversation.StepAwaitingDeadline, func(d *conversation.Data) {
		d.BoxName = name
	})
	return replies(render.AskDeadline()), nil
}

func (f *Flows) onDeadline(_ context.Context, sess *conversation.Session, in Input) ([]channel.OutboundMessage, error) {
	date, err := parseDate(in.Text)
	if err != nil {
		return nil, invalid("registration deadline", render.InvalidDate())
	}
	sess.Advance(conversation.StepAwaitingPriceCap, func(d *conversation.Data) {
		d.FinalRegDate = date.Format(boxes.DateLayout)
	})
	return replies(render.AskPriceCap()), nil
}

func (f *Flows) onPriceCap(_ context.Context, sess *conversation.Session, in Input) ([]channel.OutboundMessage, error) {
	price, err := parsePrice(in.Text)
	if err != nil {
		return nil, invalid("price cap", render.InvalidPrice())
	}
	sess.Advance(conversation.StepAwaitingGiftDate, func(d *conversation.Data) {
		d.MaxGiftPrice = price
	})
	return replies(render.AskGiftDate()), nil
}

func (f *Flows) onGiftDate(ctx context.Context, sess *conversation.Session, in Input) ([]channel.OutboundMessage, error) {
	giftDate, err := parseDate(in.Text)
	if err != nil {
		return nil, invalid("gift date", render.InvalidDate())
	}
	data := sess.Data()
	deadline, err := parseDate(data.FinalRegDate)
	if err != nil {
		return nil, err
	}
	box, err := f.boxes.CreateBox(ctx, boxes.CreateBoxRequest{
		Name:         data.BoxName,
		FinalRegDate: deadline,
		MaxGiftPrice: data.MaxGiftPrice,
		GiftDate:     giftDate,
		AdminID:      sess.UserID(),
	})
	if err != nil {
		return f.abort(sess, 0, err)
	}
	sess.Clear()
	return replies(render.BoxCreated(box, boxes.InviteLink(f.botUsername, box.JoinCode))), nil
}

func parseDate(raw string) (time.Time, error) {
	return time.Parse(boxes.DateLayout, strings.TrimSpace(raw))
}

// parsePrice accepts a non-negative number with either decimal separator.
func parsePrice(raw string) (float64, error) {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	raw = strings.ReplaceAll(raw, " ", "")
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if value < 0 || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, strconv.ErrRange
	}
	return value, nil
}
