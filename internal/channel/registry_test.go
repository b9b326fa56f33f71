package channel

func init() {
	MustRegisterChannel(ChannelDescriptor{
		Type:            ChannelTelegram,
		DisplayName:     "Telegram",
		NormalizeConfig: NormalizeTelegramConfig,
	})
}
