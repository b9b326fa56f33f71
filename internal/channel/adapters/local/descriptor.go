package local

import "github.com/explrms/secretSanta/internal/channel"

func init() {
	channel.MustRegisterChannel(channel.ChannelDescriptor{
		Type:            channel.ChannelLocal,
		DisplayName:     "Local",
		NormalizeConfig: normalizeEmpty,
	})
}

func normalizeEmpty(map[string]interface{}) (map[string]interface{}, error) {
	return map[string]interface{}{}, nil
}
