package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/explrms/secretSanta/internal/channel"
)

// ErrWebhookNotRunning is returned when an update arrives before the adapter started in webhook mode.
var ErrWebhookNotRunning = errors.New("telegram webhook is not running")

// BotCommands is the menu registered at start.
var BotCommands = []tgbotapi.BotCommand{
	{Command: "start", Description: "Главное меню"},
}

type webhookTarget struct {
	cfg     channel.ChannelConfig
	handler channel.InboundHandler
}

type TelegramAdapter struct {
	logger   *slog.Logger
	endpoint string
	client   tgbotapi.HTTPClient

	mu      sync.Mutex
	bots    map[string]*tgbotapi.BotAPI
	webhook *webhookTarget
}

func NewTelegramAdapter(log *slog.Logger) *TelegramAdapter {
	if log == nil {
		log = slog.Default()
	}
	return &TelegramAdapter{
		logger:   log.With(slog.String("adapter", "telegram")),
		endpoint: tgbotapi.APIEndpoint,
		client:   &http.Client{Timeout: 60 * time.Second},
		bots:     map[string]*tgbotapi.BotAPI{},
	}
}

// WithEndpoint points the adapter at another Bot API server, e.g. a local one.
func (a *TelegramAdapter) WithEndpoint(endpoint string, client tgbotapi.HTTPClient) *TelegramAdapter {
	a.endpoint = endpoint
	if client != nil {
		a.client = client
	}
	return a
}

func (a *TelegramAdapter) Type() channel.ChannelType {
	return channel.ChannelTelegram
}

func (a *TelegramAdapter) Start(ctx context.Context, cfg channel.ChannelConfig, handler channel.InboundHandler) (channel.AdapterRunner, error) {
	a.logger.Info("start", slog.String("config_id", cfg.ID))
	telegramCfg, err := decodeTelegramConfig(cfg.Credentials)
	if err != nil {
		a.logger.Error("decode config failed", slog.String("config_id", cfg.ID), slog.Any("error", err))
		return channel.AdapterRunner{}, err
	}
	bot, err := a.bot(telegramCfg.BotToken)
	if err != nil {
		a.logger.Error("create bot failed", slog.String("config_id", cfg.ID), slog.Any("error", err))
		return channel.AdapterRunner{}, err
	}
	if _, err := bot.Request(tgbotapi.NewSetMyCommands(BotCommands...)); err != nil {
		a.logger.Warn("set commands failed", slog.Any("error", err))
	}
	if telegramCfg.UsePolling() {
		return a.startPolling(ctx, cfg, bot, handler)
	}
	return a.startWebhook(cfg, telegramCfg, bot, handler)
}

func (a *TelegramAdapter) startWebhook(cfg channel.ChannelConfig, telegramCfg channel.TelegramConfig, bot *tgbotapi.BotAPI, handler channel.InboundHandler) (channel.AdapterRunner, error) {
	params := tgbotapi.Params{"url": telegramCfg.WebhookURL}
	params.AddNonEmpty("secret_token", telegramCfg.WebhookSecret)
	params["allowed_updates"] = `["message","callback_query"]`
	if _, err := bot.MakeRequest("setWebhook", params); err != nil {
		a.logger.Error("set webhook failed", slog.String("config_id", cfg.ID), slog.Any("error", err))
		return channel.AdapterRunner{}, err
	}
	target := &webhookTarget{cfg: cfg, handler: handler}
	a.mu.Lock()
	a.webhook = target
	a.mu.Unlock()
	a.logger.Info("webhook registered", slog.String("config_id", cfg.ID), slog.String("url", telegramCfg.WebhookURL))
	return channel.AdapterRunner{
		Stop: func() {
			a.mu.Lock()
			if a.webhook == target {
				a.webhook = nil
			}
			a.mu.Unlock()
		},
		SupportsStop: true,
	}, nil
}

func (a *TelegramAdapter) startPolling(ctx context.Context, cfg channel.ChannelConfig, bot *tgbotapi.BotAPI, handler channel.InboundHandler) (channel.AdapterRunner, error) {
	if _, err := bot.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		a.logger.Warn("delete webhook failed", slog.Any("error", err))
	}
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 30
	updateConfig.AllowedUpdates = []string{"message", "callback_query"}
	updates := bot.GetUpdatesChan(updateConfig)

	var once sync.Once
	stop := func() {
		once.Do(func() {
			a.logger.Info("stop", slog.String("config_id", cfg.ID))
			bot.StopReceivingUpdates()
		})
	}
	go func() {
		for {
			select {
			case <-ctx.Done():
				stop()
				return
			case update, ok := <-updates:
				if !ok {
					a.logger.Info("updates channel closed", slog.String("config_id", cfg.ID))
					return
				}
				msg, ok := ParseUpdate(update)
				if !ok {
					continue
				}
				go func() {
					if err := handler(ctx, cfg, msg); err != nil {
						a.logger.Error("handle inbound failed", slog.String("config_id", cfg.ID), slog.Any("error", err))
					}
				}()
			}
		}
	}()

	return channel.AdapterRunner{Stop: stop, SupportsStop: true}, nil
}

type threadEnvelope struct {
	Message *struct {
		MessageThreadID int `json:"message_thread_id"`
	} `json:"message"`
}

// DispatchWebhook decodes one webhook body and runs it through the registered handler.
func (a *TelegramAdapter) DispatchWebhook(ctx context.Context, body []byte) error {
	a.mu.Lock()
	target := a.webhook
	a.mu.Unlock()
	if target == nil {
		return ErrWebhookNotRunning
	}
	var update tgbotapi.Update
	if err := json.Unmarshal(body, &update); err != nil {
		return fmt.Errorf("decode update: %w", err)
	}
	msg, ok := ParseUpdate(update)
	if !ok {
		return nil
	}
	var envelope threadEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Message != nil {
		msg.ThreadID = envelope.Message.MessageThreadID
	}
	return target.handler(ctx, target.cfg, msg)
}

// ParseUpdate maps messages and button presses. Other update kinds are skipped.
func ParseUpdate(update tgbotapi.Update) (channel.InboundMessage, bool) {
	switch {
	case update.CallbackQuery != nil:
		query := update.CallbackQuery
		if query.From == nil {
			return channel.InboundMessage{}, false
		}
		msg := senderFields(query.From)
		msg.Kind = channel.KindButton
		msg.CallbackData = query.Data
		msg.CallbackID = query.ID
		if query.Message != nil {
			msg.MessageID = query.Message.MessageID
			if query.Message.Chat != nil {
				msg.ChatID = query.Message.Chat.ID
				msg.ChatType = query.Message.Chat.Type
			}
		}
		return msg, true
	case update.Message != nil:
		message := update.Message
		if message.From == nil {
			return channel.InboundMessage{}, false
		}
		msg := senderFields(message.From)
		msg.Text = message.Text
		msg.Kind, msg.Command, msg.Args = channel.ClassifyText(msg.Text)
		msg.MessageID = message.MessageID
		if message.Chat != nil {
			msg.ChatID = message.Chat.ID
			msg.ChatType = message.Chat.Type
		}
		return msg, true
	default:
		return channel.InboundMessage{}, false
	}
}

func senderFields(user *tgbotapi.User) channel.InboundMessage {
	userID, username := resolveTelegramSender(user)
	return channel.InboundMessage{
		Channel:  channel.ChannelTelegram,
		UserID:   userID,
		Username: username,
		FullName: strings.TrimSpace(user.FirstName + " " + user.LastName),
	}
}

func (a *TelegramAdapter) Send(ctx context.Context, cfg channel.ChannelConfig, msg channel.OutboundMessage) error {
	telegramCfg, err := decodeTelegramConfig(cfg.Credentials)
	if err != nil {
		a.logger.Error("decode config failed", slog.String("config_id", cfg.ID), slog.Any("error", err))
		return err
	}
	if msg.To == 0 {
		return fmt.Errorf("telegram target is required")
	}
	if msg.Empty() {
		return fmt.Errorf("message is required")
	}
	bot, err := a.bot(telegramCfg.BotToken)
	if err != nil {
		a.logger.Error("create bot failed", slog.String("config_id", cfg.ID), slog.Any("error", err))
		return err
	}
	err = a.do(ctx, func() error {
		switch {
		case msg.Document != nil:
			return sendDocument(bot, msg)
		case msg.EditMessageID != 0:
			return editText(bot, msg)
		case msg.ThreadID != 0:
			return sendThreadText(bot, msg)
		default:
			return sendText(bot, msg)
		}
	})
	if err != nil {
		a.logger.Error("send failed", slog.String("config_id", cfg.ID), slog.Int64("to", msg.To), slog.Any("error", err))
	}
	return err
}

func (a *TelegramAdapter) AnswerCallback(ctx context.Context, cfg channel.ChannelConfig, callbackID string) error {
	telegramCfg, err := decodeTelegramConfig(cfg.Credentials)
	if err != nil {
		return err
	}
	bot, err := a.bot(telegramCfg.BotToken)
	if err != nil {
		return err
	}
	return a.do(ctx, func() error {
		_, err := bot.Request(tgbotapi.NewCallback(callbackID, ""))
		return err
	})
}

// do runs a Bot API call and stops waiting for it once ctx is done.
func (a *TelegramAdapter) do(ctx context.Context, call func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	done := make(chan error, 1)
	go func() { done <- call() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *TelegramAdapter) bot(token string) (*tgbotapi.BotAPI, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if bot, ok := a.bots[token]; ok {
		return bot, nil
	}
	bot, err := tgbotapi.NewBotAPIWithClient(token, a.endpoint, a.client)
	if err != nil {
		return nil, err
	}
	a.bots[token] = bot
	return bot, nil
}

func sendText(bot *tgbotapi.BotAPI, msg channel.OutboundMessage) error {
	message := tgbotapi.NewMessage(msg.To, msg.Text)
	message.ParseMode = tgbotapi.ModeHTML
	message.DisableWebPagePreview = msg.DisablePreview
	if len(msg.Keyboard) > 0 {
		message.ReplyMarkup = inlineKeyboard(msg.Keyboard)
	}
	_, err := bot.Send(message)
	return err
}

func editText(bot *tgbotapi.BotAPI, msg channel.OutboundMessage) error {
	edit := tgbotapi.NewEditMessageText(msg.To, msg.EditMessageID, msg.Text)
	edit.ParseMode = tgbotapi.ModeHTML
	edit.DisableWebPagePreview = msg.DisablePreview
	if len(msg.Keyboard) > 0 {
		markup := inlineKeyboard(msg.Keyboard)
		edit.ReplyMarkup = &markup
	}
	_, err := bot.Request(edit)
	if err != nil && strings.Contains(err.Error(), "message is not modified") {
		return nil
	}
	return err
}

// sendThreadText posts into a forum topic, which the typed configs of this client cannot address.
func sendThreadText(bot *tgbotapi.BotAPI, msg channel.OutboundMessage) error {
	params := tgbotapi.Params{}
	params.AddNonZero64("chat_id", msg.To)
	params.AddNonZero("message_thread_id", msg.ThreadID)
	params.AddNonEmpty("text", msg.Text)
	params.AddNonEmpty("parse_mode", tgbotapi.ModeHTML)
	params.AddBool("disable_web_page_preview", msg.DisablePreview)
	if len(msg.Keyboard) > 0 {
		if err := params.AddInterface("reply_markup", inlineKeyboard(msg.Keyboard)); err != nil {
			return err
		}
	}
	_, err := bot.MakeRequest("sendMessage", params)
	return err
}

func sendDocument(bot *tgbotapi.BotAPI, msg channel.OutboundMessage) error {
	params := tgbotapi.Params{}
	params.AddNonZero64("chat_id", msg.To)
	params.AddNonZero("message_thread_id", msg.ThreadID)
	params.AddNonEmpty("caption", msg.Document.Caption)
	files := []tgbotapi.RequestFile{{
		Name: "document",
		Data: tgbotapi.FileBytes{Name: msg.Document.Name, Bytes: msg.Document.Data},
	}}
	_, err := bot.UploadFiles("sendDocument", params, files)
	return err
}

func inlineKeyboard(rows [][]channel.Button) tgbotapi.InlineKeyboardMarkup {
	markup := tgbotapi.InlineKeyboardMarkup{
		InlineKeyboard: make([][]tgbotapi.InlineKeyboardButton, 0, len(rows)),
	}
	for _, row := range rows {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, button := range row {
			if button.URL != "" {
				buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonURL(button.Text, button.URL))
				continue
			}
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(button.Text, button.Data))
		}
		markup.InlineKeyboard = append(markup.InlineKeyboard, buttons)
	}
	return markup
}

func resolveTelegramSender(user *tgbotapi.User) (int64, string) {
	if user == nil {
		return 0, ""
	}
	return user.ID, strings.TrimSpace(user.UserName)
}

func decodeTelegramConfig(raw map[string]interface{}) (channel.TelegramConfig, error) {
	payload, err := json.Marshal(raw)
	if err != nil {
		return channel.TelegramConfig{}, err
	}
	return channel.DecodeTelegramConfig(payload)
}
