package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/explrms/secretSanta/internal/channel"
)

type apiCall struct {
	method string
	form   url.Values
	files  []string
}

type fakeBotAPI struct {
	mu      sync.Mutex
	calls   []apiCall
	replies map[string]string
}

func (f *fakeBotAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	method := parts[len(parts)-1]
	call := apiCall{method: method}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		if err := r.ParseMultipartForm(1 << 20); err == nil {
			call.form = url.Values(r.MultipartForm.Value)
			for name := range r.MultipartForm.File {
				call.files = append(call.files, name)
			}
		}
	} else if err := r.ParseForm(); err == nil {
		call.form = r.PostForm
	}
	f.mu.Lock()
	f.calls = append(f.calls, call)
	reply, ok := f.replies[method]
	f.mu.Unlock()
	if !ok {
		switch method {
		case "getMe":
			reply = `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"Santa","username":"santa_bot"}}`
		case "sendMessage", "sendDocument", "editMessageText":
			reply = `{"ok":true,"result":{"message_id":10,"date":0,"chat":{"id":5,"type":"private"}}}`
		default:
			reply = `{"ok":true,"result":true}`
		}
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, reply)
}

func (f *fakeBotAPI) last(method string) (apiCall, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.calls) - 1; i >= 0; i-- {
		if f.calls[i].method == method {
			return f.calls[i], true
		}
	}
	return apiCall{}, false
}

func newTestAdapter(t *testing.T, replies map[string]string) (*TelegramAdapter, *fakeBotAPI) {
	t.Helper()
	api := &fakeBotAPI{replies: replies}
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)
	log := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
	adapter := NewTelegramAdapter(log).WithEndpoint(server.URL+"/bot%s/%s", server.Client())
	return adapter, api
}

func testConfig(webhookURL string) channel.ChannelConfig {
	return channel.ChannelConfig{
		ID:          "telegram",
		ChannelType: channel.ChannelTelegram,
		Credentials: channel.TelegramCredentials(channel.TelegramConfig{
			BotToken:      "123:abc",
			WebhookURL:    webhookURL,
			WebhookSecret: "s3cret",
		}),
	}
}

func TestResolveTelegramSender(t *testing.T) {
	t.Parallel()

	id, name := resolveTelegramSender(nil)
	if id != 0 || name != "" {
		t.Fatalf("expected empty sender")
	}
	user := &tgbotapi.User{ID: 123, UserName: " alice "}
	id, name = resolveTelegramSender(user)
	if id != 123 || name != "alice" {
		t.Fatalf("unexpected sender: %d %s", id, name)
	}
}

func TestParseUpdate(t *testing.T) {
	t.Parallel()

	from := &tgbotapi.User{ID: 7, UserName: "bob", FirstName: "Bob", LastName: "Builder"}
	chat := &tgbotapi.Chat{ID: 7, Type: "private"}

	msg, ok := ParseUpdate(tgbotapi.Update{Message: &tgbotapi.Message{MessageID: 3, From: from, Chat: chat, Text: "/start@santa_bot CODE"}})
	if !ok || msg.Kind != channel.KindCommand || msg.Command != "start" || msg.Args != "CODE" {
		t.Fatalf("unexpected command: %+v", msg)
	}
	if msg.UserID != 7 || msg.Username != "bob" || msg.FullName != "Bob Builder" || msg.ChatID != 7 {
		t.Fatalf("unexpected sender fields: %+v", msg)
	}

	msg, ok = ParseUpdate(tgbotapi.Update{Message: &tgbotapi.Message{From: from, Chat: chat, Caption: "photo"}})
	if !ok || msg.Kind != channel.KindText || msg.Text != "" {
		t.Fatalf("media without text must parse as empty text: %+v", msg)
	}

	msg, ok = ParseUpdate(tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb",
		From:    from,
		Data:    "select_box:4",
		Message: &tgbotapi.Message{MessageID: 11, Chat: chat},
	}})
	if !ok || msg.Kind != channel.KindButton || msg.CallbackData != "select_box:4" || msg.CallbackID != "cb" || msg.MessageID != 11 {
		t.Fatalf("unexpected button: %+v", msg)
	}

	if _, ok := ParseUpdate(tgbotapi.Update{EditedMessage: &tgbotapi.Message{From: from, Chat: chat, Text: "x"}}); ok {
		t.Fatalf("edited messages must be skipped")
	}
	if _, ok := ParseUpdate(tgbotapi.Update{Message: &tgbotapi.Message{Chat: chat, Text: "x"}}); ok {
		t.Fatalf("messages without a sender must be skipped")
	}
}

func TestSendTextWithKeyboard(t *testing.T) {
	t.Parallel()

	adapter, api := newTestAdapter(t, nil)
	err := adapter.Send(context.Background(), testConfig(""), channel.OutboundMessage{
		To:   5,
		Text: "<b>Коробка</b>",
		Keyboard: [][]channel.Button{
			{{Text: "Открыть", Data: "select_box:1"}},
			{{Text: "Ссылка", URL: "https://example.org"}},
		},
		DisablePreview: true,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	call, ok := api.last("sendMessage")
	if !ok {
		t.Fatalf("expected sendMessage call")
	}
	if call.form.Get("chat_id") != "5" || call.form.Get("parse_mode") != "HTML" || call.form.Get("disable_web_page_preview") != "true" {
		t.Fatalf("unexpected form: %v", call.form)
	}
	markup := call.form.Get("reply_markup")
	if !strings.Contains(markup, "select_box:1") || !strings.Contains(markup, "https://example.org") {
		t.Fatalf("unexpected markup: %s", markup)
	}
}

func TestSendEditIgnoresNotModified(t *testing.T) {
	t.Parallel()

	adapter, api := newTestAdapter(t, map[string]string{
		"editMessageText": `{"ok":false,"error_code":400,"description":"Bad Request: message is not modified"}`,
	})
	err := adapter.Send(context.Background(), testConfig(""), channel.OutboundMessage{To: 5, Text: "same", EditMessageID: 10})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	call, ok := api.last("editMessageText")
	if !ok || call.form.Get("message_id") != "10" {
		t.Fatalf("unexpected edit call: %+v", call)
	}
}

func TestSendDocumentToThread(t *testing.T) {
	t.Parallel()

	adapter, api := newTestAdapter(t, nil)
	err := adapter.Send(context.Background(), testConfig(""), channel.OutboundMessage{
		To:       -100,
		ThreadID: 12,
		Document: &channel.Document{Name: "error.txt", Data: []byte("trace"), Caption: "ошибка"},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	call, ok := api.last("sendDocument")
	if !ok {
		t.Fatalf("expected sendDocument call")
	}
	if call.form.Get("message_thread_id") != "12" || call.form.Get("caption") != "ошибка" || len(call.files) != 1 {
		t.Fatalf("unexpected document call: %+v", call)
	}
}

func TestSendRejectsEmpty(t *testing.T) {
	t.Parallel()

	adapter, _ := newTestAdapter(t, nil)
	if err := adapter.Send(context.Background(), testConfig(""), channel.OutboundMessage{To: 5, Text: " "}); err == nil {
		t.Fatalf("expected error, got nil")
	}
	if err := adapter.Send(context.Background(), testConfig(""), channel.OutboundMessage{Text: "hi"}); err == nil {
		t.Fatalf("expected error, got nil")
	}
}

func TestWebhookDispatch(t *testing.T) {
	t.Parallel()

	adapter, api := newTestAdapter(t, nil)
	if err := adapter.DispatchWebhook(context.Background(), []byte(`{}`)); !errors.Is(err, ErrWebhookNotRunning) {
		t.Fatalf("expected ErrWebhookNotRunning, got %v", err)
	}

	var got channel.InboundMessage
	runner, err := adapter.Start(context.Background(), testConfig("https://santa.example.org/bot/webhook"), func(ctx context.Context, cfg channel.ChannelConfig, msg channel.InboundMessage) error {
		got = msg
		return nil
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	call, ok := api.last("setWebhook")
	if !ok || call.form.Get("url") != "https://santa.example.org/bot/webhook" || call.form.Get("secret_token") != "s3cret" {
		t.Fatalf("unexpected setWebhook call: %+v", call)
	}
	if _, ok := api.last("setMyCommands"); !ok {
		t.Fatalf("expected the command menu to be registered")
	}

	body := fmt.Sprintf(`{"update_id":1,"message":{"message_id":2,"message_thread_id":9,"date":0,"from":{"id":7,"is_bot":false,"first_name":"Bob"},"chat":{"id":-100,"type":"supergroup"},"text":"%s"}}`, "/get_chat")
	if err := adapter.DispatchWebhook(context.Background(), []byte(body)); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got.Command != "get_chat" || got.ThreadID != 9 || got.ChatID != -100 || got.UserID != 7 {
		t.Fatalf("unexpected inbound: %+v", got)
	}

	runner.Stop()
	if err := adapter.DispatchWebhook(context.Background(), []byte(body)); !errors.Is(err, ErrWebhookNotRunning) {
		t.Fatalf("expected ErrWebhookNotRunning after stop, got %v", err)
	}
}
