package flow

import (
	"context"
	"log/slog"

	"github.com/explrms/secretSanta/internal/boxes"
	"github.com/explrms/secretSanta/internal/callback"
	"github.com/explrms/secretSanta/internal/channel"
	"github.com/explrms/secretSanta/internal/conversation"
	"github.com/explrms/secretSanta/internal/relay"
	"github.com/explrms/secretSanta/internal/render"
)

// BoxService is the part of boxes.Service the flows write through.
type BoxService interface {
	CreateBox(ctx context.Context, req boxes.CreateBoxRequest) (boxes.Box, error)
	Participation(ctx context.Context, userID, boxID int64) (boxes.Participation, error)
	SaveProfile(ctx context.Context, userID, boxID int64, profile map[string]string) error
	AddGift(ctx context.Context, req boxes.AddGiftRequest) (boxes.Gift, error)
	Gifts(ctx context.Context, boxID, userID int64) ([]boxes.Gift, error)
}

// Shortener turns a marketplace link into a short one. An error means the link is not usable.
type Shortener interface {
	Shorten(ctx context.Context, link string) (string, error)
}

type Relayer interface {
	Counterpart(ctx context.Context, senderID, boxID int64, dir relay.Direction) (int64, error)
	Send(ctx context.Context, senderID, boxID int64, dir relay.Direction, text string) error
}

type Flows struct {
	boxes       BoxService
	shortener   Shortener
	relay       Relayer
	botUsername string
	logger      *slog.Logger
	table       *Table
}

func New(log *slog.Logger, svc BoxService, shortener Shortener, relayer Relayer, botUsername string) *Flows {
	if log == nil {
		log = slog.Default()
	}
	f := &Flows{
		boxes:       svc,
		shortener:   shortener,
		relay:       relayer,
		botUsername: botUsername,
		logger:      log.With(slog.String("component", "flow")),
		table:       NewTable(),
	}
	f.bind()
	return f
}

func (f *Flows) bind() {
	t := f.table
	t.Bind(conversation.FlowBoxCreation, conversation.StepAwaitingName, Step{Text: f.onBoxName})
	t.Bind(conversation.FlowBoxCreation, conversation.StepAwaitingDeadline, Step{Text: f.onDeadline})
	t.Bind(conversation.FlowBoxCreation, conversation.StepAwaitingPriceCap, Step{Text: f.onPriceCap})
	t.Bind(conversation.FlowBoxCreation, conversation.StepAwaitingGiftDate, Step{Text: f.onGiftDate})

	t.Bind(conversation.FlowSurvey, conversation.StepAwaitingAnswer, Step{Text: f.onAnswer})

	t.Bind(conversation.FlowGifts, conversation.StepAwaitingURL, Step{Text: f.onGiftURL})
	t.Bind(conversation.FlowGifts, conversation.StepAwaitingExactFlag, Step{
		Text:    f.onExactFlagText,
		Buttons: map[callback.Action]Handler{callback.GiftIsExact: f.onExactFlag},
	})
	t.Bind(conversation.FlowGifts, conversation.StepAwaitingMore, Step{
		Text: f.onGiftURL,
		Buttons: map[callback.Action]Handler{
			callback.AddAnotherGift:  f.onAddAnother,
			callback.ExitGiftFilling: f.onExitGifts,
		},
	})

	t.Bind(conversation.FlowMessaging, conversation.StepAwaitingMessage, Step{Text: f.onRelayText})
}

// Match finds the step handler for the caller's state.
func (f *Flows) Match(st conversation.State, in Input) (Handler, bool) {
	return f.table.Match(st, in)
}

// abort ends the flow with a user-facing message when err is a known precondition failure.
func (f *Flows) abort(sess *conversation.Session, boxID int64, err error) ([]channel.OutboundMessage, error) {
	msg, ok := render.ForError(err, boxID)
	if !ok {
		return nil, err
	}
	f.logger.Info("flow aborted",
		slog.Int64("user_id", sess.UserID()),
		slog.String("flow", string(sess.State().Flow)),
		slog.Any("error", err))
	sess.Clear()
	return []channel.OutboundMessage{msg}, nil
}

func replies(msgs ...channel.OutboundMessage) []channel.OutboundMessage {
	return msgs
}

// requireOpen fails unless the user takes part in the box and the draw has not happened yet.
func (f *Flows) requireOpen(ctx context.Context, userID, boxID int64) error {
	room, err := f.boxes.Participation(ctx, userID, boxID)
	if err != nil {
		return err
	}
	if !room.Open() {
		return boxes.ErrParticipationLocked
	}
	return nil
}
