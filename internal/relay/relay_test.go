package relay

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/explrms/secretSanta/internal/boxes"
)

type fakeDeliverer struct {
	err       error
	recipient int64
	msg       Message
	calls     int
}

func (f *fakeDeliverer) DeliverRelay(ctx context.Context, recipientID int64, msg Message) error {
	f.calls++
	f.recipient = recipientID
	f.msg = msg
	return f.err
}

func setup(t *testing.T, assign bool) (*boxes.MemoryRepository, boxes.Box) {
	t.Helper()
	ctx := context.Background()
	repo := boxes.NewMemoryRepository()
	svc := boxes.NewService(slog.New(slog.NewTextHandler(io.Discard, nil)), repo)
	for _, user := range []boxes.User{{ID: 1, FullName: "Санта"}, {ID: 2, FullName: "Получатель"}} {
		if _, err := svc.TouchUser(ctx, user); err != nil {
			t.Fatalf("touch user: %v", err)
		}
	}
	box, err := svc.CreateBox(ctx, boxes.CreateBoxRequest{
		Name:         "Team A",
		FinalRegDate: time.Date(2025, 12, 20, 0, 0, 0, 0, time.UTC),
		GiftDate:     time.Date(2025, 12, 25, 0, 0, 0, 0, time.UTC),
		AdminID:      1,
	})
	if err != nil {
		t.Fatalf("create box: %v", err)
	}
	for _, id := range []int64{1, 2} {
		if _, err := svc.Join(ctx, id, box.JoinCode); err != nil {
			t.Fatalf("join: %v", err)
		}
	}
	if assign {
		if _, err := repo.AssignReceiver(ctx, box.ID, 1, 2); err != nil {
			t.Fatalf("assign: %v", err)
		}
		if _, err := repo.AssignReceiver(ctx, box.ID, 2, 1); err != nil {
			t.Fatalf("assign: %v", err)
		}
	}
	return repo, box
}

func newRelay(repo boxes.Store, deliverer Deliverer) *Relay {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)), repo, deliverer, time.Second)
}

func TestSendToReceiver(t *testing.T) {
	t.Parallel()

	repo, box := setup(t, true)
	deliverer := &fakeDeliverer{}
	if err := newRelay(repo, deliverer).Send(context.Background(), 1, box.ID, ToReceiver, " Привет! "); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if deliverer.recipient != 2 {
		t.Fatalf("unexpected recipient: %d", deliverer.recipient)
	}
	if deliverer.msg.Text != "Привет!" || deliverer.msg.Receiver != nil {
		t.Fatalf("unexpected payload: %+v", deliverer.msg)
	}
}

func TestSendToSanta(t *testing.T) {
	t.Parallel()

	repo, box := setup(t, true)
	deliverer := &fakeDeliverer{}
	if err := newRelay(repo, deliverer).Send(context.Background(), 2, box.ID, ToSanta, "Спасибо"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if deliverer.recipient != 1 {
		t.Fatalf("unexpected recipient: %d", deliverer.recipient)
	}
	if deliverer.msg.Receiver == nil || deliverer.msg.Receiver.ID != 2 {
		t.Fatalf("expected receiver identity in payload: %+v", deliverer.msg)
	}
}

func TestSendWithoutAssignment(t *testing.T) {
	t.Parallel()

	repo, box := setup(t, false)
	deliverer := &fakeDeliverer{}
	r := newRelay(repo, deliverer)
	for _, dir := range []Direction{ToReceiver, ToSanta} {
		if err := r.Send(context.Background(), 1, box.ID, dir, "привет"); !errors.Is(err, ErrNoCounterpart) {
			t.Fatalf("%s: expected ErrNoCounterpart, got %v", dir, err)
		}
	}
	if err := r.Send(context.Background(), 99, box.ID, ToReceiver, "привет"); !errors.Is(err, ErrNoCounterpart) {
		t.Fatalf("stranger: expected ErrNoCounterpart, got %v", err)
	}
	if deliverer.calls != 0 {
		t.Fatalf("nothing must be delivered")
	}
}

func TestSendDeliveryFailure(t *testing.T) {
	t.Parallel()

	repo, box := setup(t, true)
	deliverer := &fakeDeliverer{err: errors.New("Forbidden: bot was blocked by the user")}
	err := newRelay(repo, deliverer).Send(context.Background(), 1, box.ID, ToReceiver, "привет")
	if !errors.Is(err, ErrDeliveryFailed) {
		t.Fatalf("expected ErrDeliveryFailed, got %v", err)
	}
	if !strings.Contains(err.Error(), "blocked") {
		t.Fatalf("expected transport error to be wrapped, got %v", err)
	}
	if deliverer.calls != 1 {
		t.Fatalf("expected a single attempt, got %d", deliverer.calls)
	}
}

func TestSendEmpty(t *testing.T) {
	t.Parallel()

	repo, box := setup(t, true)
	if err := newRelay(repo, &fakeDeliverer{}).Send(context.Background(), 1, box.ID, ToReceiver, "   "); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
}

func TestParseDirection(t *testing.T) {
	t.Parallel()

	if dir, err := ParseDirection("to_santa"); err != nil || dir != ToSanta {
		t.Fatalf("unexpected result: %s %v", dir, err)
	}
	if _, err := ParseDirection("sideways"); err == nil {
		t.Fatalf("expected error, got nil")
	}
}
