package channel

import (
	"fmt"
	"time"
)

type ChannelType string

const (
	ChannelTelegram ChannelType = "telegram"
	ChannelLocal    ChannelType = "local"
)

func (c ChannelType) String() string {
	return string(c)
}

func ParseChannelType(raw string) (ChannelType, error) {
	normalized := normalizeChannelType(raw)
	if normalized == "" {
		return "", fmt.Errorf("unsupported channel type: %s", raw)
	}
	if _, ok := GetChannelDescriptor(normalized); !ok {
		return "", fmt.Errorf("unsupported channel type: %s", raw)
	}
	return normalized, nil
}

type ChannelConfig struct {
	ID          string
	ChannelType ChannelType
	Credentials map[string]interface{}
	Status      string
	UpdatedAt   time.Time
}
