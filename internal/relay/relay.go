package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/explrms/secretSanta/internal/boxes"
)

type Direction string

const (
	// ToReceiver goes from a santa to the person they give to.
	ToReceiver Direction = "to_receiver"
	// ToSanta goes from a receiver back to their anonymous santa.
	ToSanta Direction = "to_santa"
)

func ParseDirection(raw string) (Direction, error) {
	switch Direction(strings.TrimSpace(raw)) {
	case ToReceiver:
		return ToReceiver, nil
	case ToSanta:
		return ToSanta, nil
	default:
		return "", fmt.Errorf("unknown relay direction: %q", raw)
	}
}

var (
	ErrNoCounterpart  = errors.New("no counterpart to relay to")
	ErrDeliveryFailed = errors.New("message delivery failed")
	ErrEmptyMessage   = errors.New("message is empty")
)

// Message is what the counterpart receives. It never carries the santa's identity.
type Message struct {
	Box       boxes.Box
	Direction Direction
	Text      string
	// Receiver is set when a receiver writes to their santa, who already knows them.
	Receiver *boxes.User
}

type Deliverer interface {
	DeliverRelay(ctx context.Context, recipientID int64, msg Message) error
}

type Relay struct {
	store     boxes.Store
	deliverer Deliverer
	logger    *slog.Logger
	timeout   time.Duration
}

func New(log *slog.Logger, store boxes.Store, deliverer Deliverer, timeout time.Duration) *Relay {
	if log == nil {
		log = slog.Default()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Relay{
		store:     store,
		deliverer: deliverer,
		logger:    log.With(slog.String("component", "relay")),
		timeout:   timeout,
	}
}

// Counterpart resolves who receives a message from sender through the box assignments.
func (r *Relay) Counterpart(ctx context.Context, senderID, boxID int64, dir Direction) (int64, error) {
	switch dir {
	case ToReceiver:
		room, err := r.store.GetParticipation(ctx, senderID, boxID)
		if err != nil {
			if errors.Is(err, boxes.ErrNotMember) {
				return 0, ErrNoCounterpart
			}
			return 0, err
		}
		if room.ReceiverID == nil {
			return 0, ErrNoCounterpart
		}
		return *room.ReceiverID, nil
	case ToSanta:
		santa, err := r.store.FindSanta(ctx, boxID, senderID)
		if err != nil {
			if errors.Is(err, boxes.ErrNotMember) {
				return 0, ErrNoCounterpart
			}
			return 0, err
		}
		return santa.UserID, nil
	default:
		return 0, fmt.Errorf("unknown relay direction: %q", dir)
	}
}

// Send forwards text to the counterpart once. Delivery failures are reported, not retried.
func (r *Relay) Send(ctx context.Context, senderID, boxID int64, dir Direction, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}
	recipientID, err := r.Counterpart(ctx, senderID, boxID, dir)
	if err != nil {
		return err
	}
	box, err := r.store.GetBox(ctx, boxID)
	if err != nil {
		return err
	}
	msg := Message{Box: box, Direction: dir, Text: text}
	if dir == ToSanta {
		sender, err := r.store.GetUser(ctx, senderID)
		if err != nil {
			return err
		}
		msg.Receiver = &sender
	}
	sendCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	if err := r.deliverer.DeliverRelay(sendCtx, recipientID, msg); err != nil {
		r.logger.Warn("relay delivery failed",
			slog.Int64("box_id", boxID),
			slog.String("direction", string(dir)),
			slog.Any("error", err))
		return fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}
	r.logger.Info("relay delivered", slog.Int64("box_id", boxID), slog.String("direction", string(dir)))
	return nil
}
