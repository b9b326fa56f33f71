// Package local is an in-process channel used to drive the bot without a chat platform.
package local

import (
	"context"
	"fmt"
	"sync"

	"github.com/explrms/secretSanta/internal/channel"
)

type LocalAdapter struct {
	hub *channel.SessionHub

	mu      sync.RWMutex
	cfg     channel.ChannelConfig
	handler channel.InboundHandler
}

func NewLocalAdapter(hub *channel.SessionHub) *LocalAdapter {
	return &LocalAdapter{hub: hub}
}

func (a *LocalAdapter) Type() channel.ChannelType {
	return channel.ChannelLocal
}

func (a *LocalAdapter) Start(ctx context.Context, cfg channel.ChannelConfig, handler channel.InboundHandler) (channel.AdapterRunner, error) {
	a.mu.Lock()
	a.cfg = cfg
	a.handler = handler
	a.mu.Unlock()
	return channel.AdapterRunner{
		Stop: func() {
			a.mu.Lock()
			a.handler = nil
			a.mu.Unlock()
		},
		SupportsStop: true,
	}, nil
}

func (a *LocalAdapter) Send(ctx context.Context, cfg channel.ChannelConfig, msg channel.OutboundMessage) error {
	if a.hub == nil {
		return fmt.Errorf("local hub not configured")
	}
	if msg.To == 0 {
		return fmt.Errorf("local target is required")
	}
	if msg.Empty() {
		return fmt.Errorf("message is required")
	}
	a.hub.Publish(msg.To, msg)
	return nil
}

// Submit feeds msg through the running handler as if it came from the chat.
func (a *LocalAdapter) Submit(ctx context.Context, msg channel.InboundMessage) error {
	a.mu.RLock()
	handler, cfg := a.handler, a.cfg
	a.mu.RUnlock()
	if handler == nil {
		return fmt.Errorf("local adapter not started")
	}
	msg.Channel = channel.ChannelLocal
	if msg.Kind == "" {
		msg.Kind, msg.Command, msg.Args = channel.ClassifyText(msg.Text)
	}
	return handler(ctx, cfg, msg)
}
