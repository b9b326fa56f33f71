package router

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/explrms/secretSanta/internal/boxes"
	"github.com/explrms/secretSanta/internal/callback"
	"github.com/explrms/secretSanta/internal/channel"
	"github.com/explrms/secretSanta/internal/conversation"
	"github.com/explrms/secretSanta/internal/relay"
	"github.com/explrms/secretSanta/internal/render"
)

func one(msg channel.OutboundMessage) []channel.OutboundMessage {
	return []channel.OutboundMessage{msg}
}

func (p *ChannelInboundProcessor) command(ctx context.Context, sess *conversation.Session, msg channel.InboundMessage) ([]channel.OutboundMessage, error) {
	switch msg.Command {
	case "start":
		if code := strings.TrimSpace(msg.Args); code != "" {
			return p.join(ctx, sess, code)
		}
		return p.greeting(ctx, sess.UserID())
	case "create_box":
		return p.deps.Flows.StartBoxCreation(sess), nil
	case "get_chat":
		return one(render.ChatInfo(msg.ChatID, msg.ThreadID, msg.UserID)), nil
	default:
		return nil, nil
	}
}

func (p *ChannelInboundProcessor) button(ctx context.Context, sess *conversation.Session, token callback.Token) ([]channel.OutboundMessage, error) {
	userID := sess.UserID()
	flows := p.deps.Flows
	switch token.Action {
	case callback.MainMenu:
		return p.greeting(ctx, userID)
	case callback.CreateBox:
		return flows.StartBoxCreation(sess), nil
	case callback.MyBoxes:
		list, err := p.deps.Boxes.ListBoxes(ctx, userID)
		if err != nil {
			return nil, err
		}
		return one(render.MyBoxes(list)), nil
	case callback.SelectBox:
		return p.boxCard(ctx, userID, token.ID)
	case callback.FillWishes:
		return flows.StartSurvey(ctx, sess, token.ID)
	case callback.FillGifts:
		return flows.StartGifts(ctx, sess, token.ID)
	case callback.ListGifts:
		if _, err := p.deps.Boxes.Participation(ctx, userID, token.ID); err != nil {
			return nil, err
		}
		gifts, err := p.deps.Boxes.Gifts(ctx, token.ID, userID)
		if err != nil {
			return nil, err
		}
		return one(render.GiftList(token.ID, gifts)), nil
	case callback.DeleteGift:
		gift, err := p.deps.Boxes.DeleteGift(ctx, userID, token.ID)
		if err != nil {
			return nil, err
		}
		return one(render.GiftDeleted(gift.BoxID)), nil
	case callback.ShuffleBox:
		result, err := p.deps.Shuffler.Shuffle(ctx, userID, token.ID)
		if err != nil {
			return nil, err
		}
		p.logger.Info("box shuffled",
			slog.Int64("box_id", token.ID),
			slog.Int("participants", len(result.Pairs)))
		return one(render.ShuffleDone(token.ID)), nil
	case callback.DeleteBox:
		box, err := p.deps.Boxes.Box(ctx, token.ID)
		if err != nil {
			return nil, err
		}
		if !box.IsAdmin(userID) {
			return nil, boxes.ErrNotAdmin
		}
		return one(render.DeleteConfirm(box)), nil
	case callback.DeleteBoxConfirm:
		if _, err := p.deps.Boxes.Delete(ctx, userID, token.ID); err != nil {
			return nil, err
		}
		return one(render.BoxDeleted()), nil
	case callback.ReceiverCard:
		return p.receiverCard(ctx, userID, token.ID)
	case callback.UserProfile:
		receiverID, ok, err := p.receiverOf(ctx, userID, token.ID)
		if err != nil || !ok {
			return p.receiverMissing(token.ID, err)
		}
		room, err := p.deps.Boxes.Participation(ctx, receiverID, token.ID)
		if err != nil && !errors.Is(err, boxes.ErrNotMember) {
			return nil, err
		}
		return one(render.ReceiverProfile(token.ID, room.Profile)), nil
	case callback.UserGiftWishes:
		receiverID, ok, err := p.receiverOf(ctx, userID, token.ID)
		if err != nil || !ok {
			return p.receiverMissing(token.ID, err)
		}
		gifts, err := p.deps.Boxes.Gifts(ctx, token.ID, receiverID)
		if err != nil {
			return nil, err
		}
		return one(render.GiftWishes(token.ID, gifts)), nil
	case callback.SendSantaMessage:
		return flows.StartMessaging(ctx, sess, token.ID, relay.ToReceiver)
	case callback.SendToSanta:
		return flows.StartMessaging(ctx, sess, token.ID, relay.ToSanta)
	case callback.AddAnotherGift, callback.ExitGiftFilling, callback.GiftIsExact:
		return one(render.SessionExpired()), nil
	default:
		return nil, nil
	}
}

func (p *ChannelInboundProcessor) greeting(ctx context.Context, userID int64) ([]channel.OutboundMessage, error) {
	list, err := p.deps.Boxes.ListBoxes(ctx, userID)
	if err != nil {
		return nil, err
	}
	return one(render.Greeting(list)), nil
}

// join handles /start <code>. An unknown code falls back to the greeting.
func (p *ChannelInboundProcessor) join(ctx context.Context, sess *conversation.Session, code string) ([]channel.OutboundMessage, error) {
	box, err := p.deps.Boxes.Join(ctx, sess.UserID(), code)
	if errors.Is(err, boxes.ErrBoxNotFound) {
		return p.greeting(ctx, sess.UserID())
	}
	if err != nil {
		return nil, err
	}
	return append(one(render.Joined(box)), p.deps.Flows.BeginSurvey(sess, box.ID)...), nil
}

func (p *ChannelInboundProcessor) boxCard(ctx context.Context, userID, boxID int64) ([]channel.OutboundMessage, error) {
	box, err := p.deps.Boxes.Box(ctx, boxID)
	if err != nil {
		return nil, err
	}
	view := render.BoxView{Box: box}
	room, err := p.deps.Boxes.Participation(ctx, userID, boxID)
	switch {
	case err == nil:
		view.Viewer = &room
		gifts, err := p.deps.Boxes.Gifts(ctx, boxID, userID)
		if err != nil {
			return nil, err
		}
		view.HasGifts = len(gifts) > 0
	case errors.Is(err, boxes.ErrNotMember) && box.IsAdmin(userID):
	default:
		return nil, err
	}
	if box.IsAdmin(userID) {
		members, err := p.deps.Boxes.Members(ctx, boxID)
		if err != nil {
			return nil, err
		}
		view.Members = members
		view.InviteLink = boxes.InviteLink(p.deps.BotUsername, box.JoinCode)
	}
	return one(render.BoxCard(view)), nil
}

// receiverOf returns the user the caller gives to in the box. ok is false before the draw.
func (p *ChannelInboundProcessor) receiverOf(ctx context.Context, userID, boxID int64) (int64, bool, error) {
	room, err := p.deps.Boxes.Participation(ctx, userID, boxID)
	if err != nil {
		if errors.Is(err, boxes.ErrNotMember) {
			return 0, false, nil
		}
		return 0, false, err
	}
	if room.ReceiverID == nil {
		return 0, false, nil
	}
	return *room.ReceiverID, true, nil
}

func (p *ChannelInboundProcessor) receiverMissing(boxID int64, err error) ([]channel.OutboundMessage, error) {
	if err != nil {
		return nil, err
	}
	return one(render.ReceiverUnavailable(boxID)), nil
}

func (p *ChannelInboundProcessor) receiverCard(ctx context.Context, userID, boxID int64) ([]channel.OutboundMessage, error) {
	receiverID, ok, err := p.receiverOf(ctx, userID, boxID)
	if err != nil || !ok {
		return p.receiverMissing(boxID, err)
	}
	receiver, err := p.deps.Boxes.User(ctx, receiverID)
	if err != nil {
		return nil, err
	}
	room, err := p.deps.Boxes.Participation(ctx, receiverID, boxID)
	if err != nil && !errors.Is(err, boxes.ErrNotMember) {
		return nil, err
	}
	gifts, err := p.deps.Boxes.Gifts(ctx, boxID, receiverID)
	if err != nil {
		return nil, err
	}
	return one(render.ReceiverCard(boxID, receiver, room.HasProfile(), len(gifts) > 0)), nil
}
