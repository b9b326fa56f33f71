package channel

import (
	"encoding/json"
	"fmt"
	"strings"
)

type TelegramConfig struct {
	BotToken      string
	BotUsername   string
	WebhookURL    string
	WebhookSecret string
}

// UsePolling reports whether updates are pulled with getUpdates instead of a webhook.
func (c TelegramConfig) UsePolling() bool {
	return c.WebhookURL == ""
}

func NormalizeChannelConfig(channelType ChannelType, raw map[string]interface{}) (map[string]interface{}, error) {
	if raw == nil {
		raw = map[string]interface{}{}
	}
	desc, ok := GetChannelDescriptor(channelType)
	if !ok {
		return nil, fmt.Errorf("unsupported channel type: %s", channelType)
	}
	if desc.NormalizeConfig == nil {
		return raw, nil
	}
	return desc.NormalizeConfig(raw)
}

func NormalizeTelegramConfig(raw map[string]interface{}) (map[string]interface{}, error) {
	cfg, err := parseTelegramConfig(raw)
	if err != nil {
		return nil, err
	}
	result := map[string]interface{}{
		"botToken": cfg.BotToken,
	}
	if cfg.BotUsername != "" {
		result["botUsername"] = cfg.BotUsername
	}
	if cfg.WebhookURL != "" {
		result["webhookUrl"] = cfg.WebhookURL
	}
	if cfg.WebhookSecret != "" {
		result["webhookSecret"] = cfg.WebhookSecret
	}
	return result, nil
}

func DecodeTelegramConfig(raw []byte) (TelegramConfig, error) {
	payload, err := decodeConfigMap(raw)
	if err != nil {
		return TelegramConfig{}, err
	}
	return parseTelegramConfig(payload)
}

// TelegramCredentials is the inverse of DecodeTelegramConfig.
func TelegramCredentials(cfg TelegramConfig) map[string]interface{} {
	return map[string]interface{}{
		"botToken":      cfg.BotToken,
		"botUsername":   cfg.BotUsername,
		"webhookUrl":    cfg.WebhookURL,
		"webhookSecret": cfg.WebhookSecret,
	}
}

func parseTelegramConfig(raw map[string]interface{}) (TelegramConfig, error) {
	token := strings.TrimSpace(readString(raw, "botToken", "bot_token"))
	if token == "" {
		return TelegramConfig{}, fmt.Errorf("telegram botToken is required")
	}
	return TelegramConfig{
		BotToken:      token,
		BotUsername:   strings.TrimPrefix(strings.TrimSpace(readString(raw, "botUsername", "bot_username")), "@"),
		WebhookURL:    strings.TrimSpace(readString(raw, "webhookUrl", "webhook_url")),
		WebhookSecret: strings.TrimSpace(readString(raw, "webhookSecret", "webhook_secret")),
	}, nil
}

func decodeConfigMap(raw []byte) (map[string]interface{}, error) {
	if len(raw) == 0 {
		return map[string]interface{}{}, nil
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}
	if payload == nil {
		payload = map[string]interface{}{}
	}
	return payload, nil
}

func readString(raw map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if value, ok := raw[key]; ok {
			switch v := value.(type) {
			case string:
				return v
			case nil:
				continue
			default:
				encoded, err := json.Marshal(v)
				if err == nil {
					return strings.Trim(string(encoded), "\"")
				}
			}
		}
	}
	return ""
}
