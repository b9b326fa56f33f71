package telegram

import "github.com/explrms/secretSanta/internal/channel"

func init() {
	channel.MustRegisterChannel(channel.ChannelDescriptor{
		Type:            channel.ChannelTelegram,
		DisplayName:     "Telegram",
		NormalizeConfig: channel.NormalizeTelegramConfig,
	})
}
