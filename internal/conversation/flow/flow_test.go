package flow

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/explrms/secretSanta/internal/boxes"
	"github.com/explrms/secretSanta/internal/callback"
	"github.com/explrms/secretSanta/internal/channel"
	"github.com/explrms/secretSanta/internal/conversation"
	"github.com/explrms/secretSanta/internal/relay"
	"github.com/explrms/secretSanta/internal/survey"
)

type fakeShortener struct {
	err error
}

func (f *fakeShortener) Shorten(_ context.Context, link string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "https://clck.ru/" + strings.TrimPrefix(link, "https://shop.example.org/"), nil
}

type fakeRelayer struct {
	counterpartErr error
	sendErr        error
	sent           []string
}

func (f *fakeRelayer) Counterpart(context.Context, int64, int64, relay.Direction) (int64, error) {
	if f.counterpartErr != nil {
		return 0, f.counterpartErr
	}
	return 2, nil
}

func (f *fakeRelayer) Send(_ context.Context, _, _ int64, _ relay.Direction, text string) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, text)
	return nil
}

type harness struct {
	machine *conversation.Machine
	flows   *Flows
	svc     *boxes.Service
	relay   *fakeRelayer
	short   *fakeShortener
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := boxes.NewService(log, boxes.NewMemoryRepository())
	h := &harness{
		machine: conversation.NewMachine(log, conversation.NewMemoryStore(20*time.Minute), conversation.NewMemoryLocker()),
		svc:     svc,
		relay:   &fakeRelayer{},
		short:   &fakeShortener{},
	}
	h.flows = New(log, svc, h.short, h.relay, "santa_bot")
	return h
}

// send feeds one input through the step table the way the router does.
func (h *harness) send(t *testing.T, userID int64, in Input) ([]channel.OutboundMessage, bool, error) {
	t.Helper()
	var out []channel.OutboundMessage
	matched := false
	err := h.machine.Do(context.Background(), userID, func(sess *conversation.Session) error {
		handler, ok := h.flows.Match(sess.State(), in)
		if !ok {
			return nil
		}
		matched = true
		replies, err := handler(context.Background(), sess, in)
		out = replies
		return err
	})
	return out, matched, err
}

func (h *harness) start(t *testing.T, userID int64, fn func(*conversation.Session) ([]channel.OutboundMessage, error)) []channel.OutboundMessage {
	t.Helper()
	var out []channel.OutboundMessage
	err := h.machine.Do(context.Background(), userID, func(sess *conversation.Session) error {
		replies, err := fn(sess)
		out = replies
		return err
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	return out
}

func (h *harness) state(t *testing.T, userID int64) (conversation.State, bool) {
	t.Helper()
	st, ok, err := h.machine.Snapshot(context.Background(), userID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	return st, ok
}

func (h *harness) joinedBox(t *testing.T, userID int64) boxes.Box {
	t.Helper()
	ctx := context.Background()
	box, err := h.svc.CreateBox(ctx, boxes.CreateBoxRequest{
		Name:         "Офис",
		FinalRegDate: time.Date(2025, 12, 20, 0, 0, 0, 0, time.UTC),
		MaxGiftPrice: 1000,
		GiftDate:     time.Date(2025, 12, 25, 0, 0, 0, 0, time.UTC),
		AdminID:      userID,
	})
	if err != nil {
		t.Fatalf("create box: %v", err)
	}
	if _, err := h.svc.Join(ctx, userID, box.JoinCode); err != nil {
		t.Fatalf("join box: %v", err)
	}
	return box
}

func (h *harness) ok(t *testing.T, userID int64, in Input) []channel.OutboundMessage {
	t.Helper()
	out, matched, err := h.send(t, userID, in)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !matched {
		t.Fatalf("expected the input to match the current step")
	}
	return out
}

func expectInvalid(t *testing.T, err error) *ValidationError {
	t.Helper()
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	return ve
}

func TestTableMatch(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	idle := conversation.State{UserID: 1}
	if _, ok := h.flows.Match(idle, TextInput("x")); ok {
		t.Fatalf("idle state must not match")
	}
	exact := conversation.State{UserID: 1, Flow: conversation.FlowGifts, Step: conversation.StepAwaitingExactFlag}
	if _, ok := h.flows.Match(exact, ButtonInput(callback.Token{Action: callback.GiftIsExact, Flag: true})); !ok {
		t.Fatalf("expected flag button to match")
	}
	if _, ok := h.flows.Match(exact, ButtonInput(callback.Token{Action: callback.MainMenu})); ok {
		t.Fatalf("unrelated button must fall through")
	}
	name := conversation.State{UserID: 1, Flow: conversation.FlowBoxCreation, Step: conversation.StepAwaitingName}
	if _, ok := h.flows.Match(name, ButtonInput(callback.Token{Action: callback.AddAnotherGift})); ok {
		t.Fatalf("text step must not accept buttons")
	}
}

func TestBoxCreationFlow(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.start(t, 1, func(sess *conversation.Session) ([]channel.OutboundMessage, error) {
		return h.flows.StartBoxCreation(sess), nil
	})

	_, _, err := h.send(t, 1, TextInput("   "))
	expectInvalid(t, err)
	if st, _ := h.state(t, 1); st.Step != conversation.StepAwaitingName {
		t.Fatalf("expected to stay on the name step, got %s", st.Step)
	}

	h.ok(t, 1, TextInput(" Офис 2025 "))
	_, _, err = h.send(t, 1, TextInput("2025-12-20"))
	expectInvalid(t, err)
	h.ok(t, 1, TextInput("20.12.2025"))
	_, _, err = h.send(t, 1, TextInput("-5"))
	expectInvalid(t, err)
	h.ok(t, 1, TextInput("1500,50"))

	out := h.ok(t, 1, TextInput("19.12.2025"))
	if len(out) != 1 || !strings.Contains(out[0].Text, "https://t.me/santa_bot?start=") {
		t.Fatalf("unexpected reply: %+v", out)
	}
	if _, ok := h.state(t, 1); ok {
		t.Fatalf("expected state cleared after creation")
	}
	list, err := h.svc.ListBoxes(context.Background(), 1)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(list) != 1 || list[0].Name != "Офис 2025" || list[0].MaxGiftPrice != 1500.5 {
		t.Fatalf("unexpected boxes: %+v", list)
	}
	if _, err := h.svc.Participation(context.Background(), 1, list[0].ID); !errors.Is(err, boxes.ErrNotMember) {
		t.Fatalf("creator must not be auto-joined, got %v", err)
	}
}

func TestBoxCreationAcceptsGiftDateBeforeDeadline(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.start(t, 2, func(sess *conversation.Session) ([]channel.OutboundMessage, error) {
		return h.flows.StartBoxCreation(sess), nil
	})
	h.ok(t, 2, TextInput("Team A"))
	h.ok(t, 2, TextInput("31.12.2025"))
	h.ok(t, 2, TextInput("1500"))
	h.ok(t, 2, TextInput("25.12.2025"))

	list, err := h.svc.ListBoxes(context.Background(), 2)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected one box, got %+v", list)
	}
	box := list[0]
	if box.Name != "Team A" || box.MaxGiftPrice != 1500 ||
		box.FinalRegDate.Format(boxes.DateLayout) != "31.12.2025" ||
		box.GiftDate.Format(boxes.DateLayout) != "25.12.2025" {
		t.Fatalf("unexpected box: %+v", box)
	}
}

func TestSurveyFlowChainsIntoGifts(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	box := h.joinedBox(t, 1)
	out := h.start(t, 1, func(sess *conversation.Session) ([]channel.OutboundMessage, error) {
		return h.flows.StartSurvey(context.Background(), sess, box.ID)
	})
	if len(out) != 2 || !strings.HasPrefix(out[1].Text, "1/9") {
		t.Fatalf("unexpected survey start: %+v", out)
	}

	_, _, err := h.send(t, 1, TextInput(""))
	expectInvalid(t, err)

	for i := 0; i < survey.Count()-1; i++ {
		out = h.ok(t, 1, TextInput("ответ"))
		if st, _ := h.state(t, 1); st.Data.QuestionIndex != i+1 {
			t.Fatalf("expected question %d, got %d", i+1, st.Data.QuestionIndex)
		}
	}
	room, _ := h.svc.Participation(context.Background(), 1, box.ID)
	if room.HasProfile() {
		t.Fatalf("profile must be written only after the last answer")
	}

	out = h.ok(t, 1, TextInput("последний"))
	if len(out) != 3 {
		t.Fatalf("expected thanks plus the gift prompts, got %d replies", len(out))
	}
	room, _ = h.svc.Participation(context.Background(), 1, box.ID)
	if !survey.Complete(room.Profile) {
		t.Fatalf("expected a complete profile, got %v", room.Profile)
	}
	st, ok := h.state(t, 1)
	if !ok || st.Flow != conversation.FlowGifts || st.Step != conversation.StepAwaitingURL || st.Data.BoxID != box.ID {
		t.Fatalf("expected the gift flow to start, got %+v", st)
	}
}

func TestFailedStartKeepsState(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	box := h.joinedBox(t, 1)
	h.start(t, 1, func(sess *conversation.Session) ([]channel.OutboundMessage, error) {
		return h.flows.BeginSurvey(sess, box.ID), nil
	})
	startErr := h.machine.Do(context.Background(), 1, func(sess *conversation.Session) error {
		_, err := h.flows.StartGifts(context.Background(), sess, 999)
		return err
	})
	if !errors.Is(startErr, boxes.ErrNotMember) {
		t.Fatalf("expected ErrNotMember, got %v", startErr)
	}
	if st, _ := h.state(t, 1); st.Flow != conversation.FlowSurvey {
		t.Fatalf("failed start must keep the previous state, got %s", st.Flow)
	}
}

func TestGiftFlow(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	box := h.joinedBox(t, 1)
	h.start(t, 1, func(sess *conversation.Session) ([]channel.OutboundMessage, error) {
		return h.flows.StartGifts(context.Background(), sess, box.ID)
	})

	_, _, err := h.send(t, 1, TextInput("not a link"))
	expectInvalid(t, err)

	h.short.err = errors.New("shortener down")
	_, _, err = h.send(t, 1, TextInput("https://shop.example.org/a"))
	expectInvalid(t, err)
	h.short.err = nil

	h.ok(t, 1, TextInput("https://shop.example.org/a"))
	if st, _ := h.state(t, 1); st.Step != conversation.StepAwaitingExactFlag || st.Data.GiftURL != "https://clck.ru/a" {
		t.Fatalf("unexpected state: %+v", st)
	}
	_, _, err = h.send(t, 1, TextInput("именно это"))
	expectInvalid(t, err)

	h.ok(t, 1, ButtonInput(callback.Token{Action: callback.GiftIsExact, Flag: true}))
	if st, _ := h.state(t, 1); st.Step != conversation.StepAwaitingMore {
		t.Fatalf("expected awaiting_more, got %s", st.Step)
	}

	h.ok(t, 1, TextInput("https://shop.example.org/b"))
	h.ok(t, 1, ButtonInput(callback.Token{Action: callback.GiftIsExact, Flag: false}))
	h.ok(t, 1, ButtonInput(callback.Token{Action: callback.AddAnotherGift}))
	if st, _ := h.state(t, 1); st.Step != conversation.StepAwaitingURL {
		t.Fatalf("expected awaiting_url, got %s", st.Step)
	}
	h.ok(t, 1, TextInput("https://shop.example.org/c"))
	h.ok(t, 1, ButtonInput(callback.Token{Action: callback.GiftIsExact, Flag: true}))
	h.ok(t, 1, ButtonInput(callback.Token{Action: callback.ExitGiftFilling}))
	if _, ok := h.state(t, 1); ok {
		t.Fatalf("expected state cleared after finishing")
	}

	gifts, err := h.svc.Gifts(context.Background(), box.ID, 1)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(gifts) != 3 || !gifts[0].IsExact || gifts[1].IsExact || gifts[1].URL != "https://clck.ru/b" {
		t.Fatalf("unexpected gifts: %+v", gifts)
	}
}

func TestMessagingFlow(t *testing.T) {
	t.Parallel()

	t.Run("delivered", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		h.start(t, 1, func(sess *conversation.Session) ([]channel.OutboundMessage, error) {
			return h.flows.StartMessaging(context.Background(), sess, 3, relay.ToReceiver)
		})
		_, _, err := h.send(t, 1, TextInput(" "))
		expectInvalid(t, err)
		out := h.ok(t, 1, TextInput("привет"))
		if len(out) != 1 || !strings.Contains(out[0].Text, "доставлено") {
			t.Fatalf("unexpected reply: %+v", out)
		}
		if len(h.relay.sent) != 1 || h.relay.sent[0] != "привет" {
			t.Fatalf("unexpected relayed messages: %v", h.relay.sent)
		}
		if _, ok := h.state(t, 1); ok {
			t.Fatalf("expected state cleared after sending")
		}
	})

	t.Run("delivery failed", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		h.start(t, 1, func(sess *conversation.Session) ([]channel.OutboundMessage, error) {
			return h.flows.StartMessaging(context.Background(), sess, 3, relay.ToSanta)
		})
		h.relay.sendErr = relay.ErrDeliveryFailed
		out := h.ok(t, 1, TextInput("спасибо"))
		if len(out) != 1 || !strings.Contains(out[0].Text, "Санта заблокировал") {
			t.Fatalf("unexpected reply: %+v", out)
		}
		if _, ok := h.state(t, 1); ok {
			t.Fatalf("expected state cleared after a failed send")
		}
	})

	t.Run("no counterpart", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		h.relay.counterpartErr = relay.ErrNoCounterpart
		err := h.machine.Do(context.Background(), 1, func(sess *conversation.Session) error {
			_, err := h.flows.StartMessaging(context.Background(), sess, 3, relay.ToReceiver)
			return err
		})
		if !errors.Is(err, relay.ErrNoCounterpart) {
			t.Fatalf("expected ErrNoCounterpart, got %v", err)
		}
		if _, ok := h.state(t, 1); ok {
			t.Fatalf("expected no state")
		}
	})
}

func TestParsePrice(t *testing.T) {
	t.Parallel()

	cases := map[string]float64{"1500": 1500, "99,9": 99.9, " 0 ": 0, "1 000": 1000}
	for raw, want := range cases {
		got, err := parsePrice(raw)
		if err != nil || got != want {
			t.Fatalf("parsePrice(%q) = %v, %v", raw, got, err)
		}
	}
	for _, raw := range []string{"", "-1", "abc", "NaN", "Inf"} {
		if _, err := parsePrice(raw); err == nil {
			t.Fatalf("parsePrice(%q) expected error", raw)
		}
	}
}
