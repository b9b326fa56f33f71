package channel

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// ConfigStore supplies the channel configs the manager keeps running.
type ConfigStore interface {
	ResolveEffectiveConfig(ctx context.Context, channelType ChannelType) (ChannelConfig, error)
	ListConfigsByType(ctx context.Context, channelType ChannelType) ([]ChannelConfig, error)
}

// StaticConfigStore holds configs built from the process environment.
type StaticConfigStore struct {
	mu      sync.RWMutex
	configs map[ChannelType]ChannelConfig
}

func NewStaticConfigStore() *StaticConfigStore {
	return &StaticConfigStore{configs: map[ChannelType]ChannelConfig{}}
}

// Upsert normalizes credentials through the channel descriptor and stores the config.
func (s *StaticConfigStore) Upsert(channelType ChannelType, credentials map[string]interface{}) (ChannelConfig, error) {
	normalized, err := NormalizeChannelConfig(channelType, credentials)
	if err != nil {
		return ChannelConfig{}, err
	}
	cfg := ChannelConfig{
		ID:          channelType.String(),
		ChannelType: channelType,
		Credentials: normalized,
		Status:      "active",
		UpdatedAt:   time.Now().UTC(),
	}
	s.mu.Lock()
	s.configs[channelType] = cfg
	s.mu.Unlock()
	return cfg, nil
}

func (s *StaticConfigStore) ResolveEffectiveConfig(ctx context.Context, channelType ChannelType) (ChannelConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg, ok := s.configs[channelType]
	if !ok {
		return ChannelConfig{}, fmt.Errorf("channel config not found: %s", channelType)
	}
	return cfg, nil
}

func (s *StaticConfigStore) ListConfigsByType(ctx context.Context, channelType ChannelType) ([]ChannelConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg, ok := s.configs[channelType]
	if !ok {
		return nil, nil
	}
	status := strings.ToLower(strings.TrimSpace(cfg.Status))
	if status != "" && status != "active" {
		return nil, nil
	}
	return []ChannelConfig{cfg}, nil
}
