package channel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Middleware wraps inbound handling.
type Middleware func(next InboundHandler) InboundHandler

const replyAttempts = 3

type Manager struct {
	service         ConfigStore
	processor       InboundProcessor
	adapters        map[ChannelType]Adapter
	refreshInterval time.Duration
	retryBackoff    time.Duration
	logger          *slog.Logger
	middlewares     []Middleware

	mu      sync.Mutex
	runners map[string]*runningAdapter
}

type runningAdapter struct {
	adapter      Adapter
	config       ChannelConfig
	stop         func()
	supportsStop bool
}

func NewManager(log *slog.Logger, service ConfigStore, processor InboundProcessor) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		service:         service,
		processor:       processor,
		adapters:        map[ChannelType]Adapter{},
		refreshInterval: 30 * time.Second,
		retryBackoff:    500 * time.Millisecond,
		runners:         map[string]*runningAdapter{},
		logger:          log.With(slog.String("component", "channel")),
		middlewares:     []Middleware{},
	}
}

func (m *Manager) Use(mw ...Middleware) {
	m.middlewares = append(m.middlewares, mw...)
}

// SetProcessor binds the processor after construction, for processors that depend on the manager.
func (m *Manager) SetProcessor(processor InboundProcessor) {
	m.processor = processor
}

func (m *Manager) RegisterAdapter(adapter Adapter) {
	if adapter == nil {
		return
	}
	m.adapters[adapter.Type()] = adapter
	m.logger.Info("adapter registered", slog.String("channel", adapter.Type().String()))
}

func (m *Manager) Start(ctx context.Context) {
	m.logger.Info("manager start")
	m.refresh(ctx)
	go func() {
		ticker := time.NewTicker(m.refreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				m.logger.Info("manager stop")
				m.stopAll()
				return
			case <-ticker.C:
				m.refresh(ctx)
			}
		}
	}()
}

// Send delivers one message outside of a reply, such as a notification or a relayed message.
// It is not retried.
func (m *Manager) Send(ctx context.Context, channelType ChannelType, msg OutboundMessage) error {
	if m.service == nil {
		return fmt.Errorf("channel manager not configured")
	}
	adapter := m.adapters[channelType]
	if adapter == nil {
		return fmt.Errorf("unsupported channel type: %s", channelType)
	}
	config, err := m.service.ResolveEffectiveConfig(ctx, channelType)
	if err != nil {
		return err
	}
	if msg.To == 0 {
		return fmt.Errorf("target chat is required")
	}
	if msg.Empty() {
		return fmt.Errorf("message is required")
	}
	m.logger.Debug("send outbound", slog.String("channel", channelType.String()), slog.Int64("to", msg.To))
	err = adapter.Send(ctx, config, msg)
	if err != nil {
		m.logger.Error("send outbound failed", slog.String("channel", channelType.String()), slog.Int64("to", msg.To), slog.Any("error", err))
	}
	return err
}

func (m *Manager) HandleInbound(ctx context.Context, cfg ChannelConfig, msg InboundMessage) error {
	return m.wrap(m.handleInbound)(ctx, cfg, msg)
}

func (m *Manager) wrap(handler InboundHandler) InboundHandler {
	for i := len(m.middlewares) - 1; i >= 0; i-- {
		handler = m.middlewares[i](handler)
	}
	return handler
}

func (m *Manager) refresh(ctx context.Context) {
	if m.service == nil {
		return
	}
	configs := make([]ChannelConfig, 0)
	for channelType := range m.adapters {
		items, err := m.service.ListConfigsByType(ctx, channelType)
		if err != nil {
			m.logger.Error("list configs failed", slog.String("channel", channelType.String()), slog.Any("error", err))
			continue
		}
		configs = append(configs, items...)
	}
	m.reconcile(ctx, configs)
}

func (m *Manager) reconcile(ctx context.Context, configs []ChannelConfig) {
	active := map[string]ChannelConfig{}
	for _, cfg := range configs {
		if cfg.ID == "" {
			continue
		}
		status := strings.ToLower(strings.TrimSpace(cfg.Status))
		if status != "" && status != "active" {
			continue
		}
		active[cfg.ID] = cfg
		if err := m.ensureRunner(ctx, cfg); err != nil {
			m.logger.Error("adapter start failed", slog.String("channel", cfg.ChannelType.String()), slog.String("config_id", cfg.ID), slog.Any("error", err))
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for id, runner := range m.runners {
		if _, ok := active[id]; ok {
			continue
		}
		if runner.supportsStop && runner.stop != nil {
			m.logger.Info("adapter stop", slog.String("channel", runner.config.ChannelType.String()), slog.String("config_id", id))
			runner.stop()
		}
		delete(m.runners, id)
	}
}

func (m *Manager) ensureRunner(ctx context.Context, cfg ChannelConfig) error {
	m.mu.Lock()
	runner := m.runners[cfg.ID]
	m.mu.Unlock()

	if runner != nil {
		if runner.config.UpdatedAt.Equal(cfg.UpdatedAt) {
			return nil
		}
		if !runner.supportsStop || runner.stop == nil {
			m.logger.Warn("adapter restart skipped", slog.String("channel", cfg.ChannelType.String()), slog.String("config_id", cfg.ID))
			return nil
		}
		m.logger.Info("adapter restart", slog.String("channel", cfg.ChannelType.String()), slog.String("config_id", cfg.ID))
		runner.stop()
		m.mu.Lock()
		delete(m.runners, cfg.ID)
		m.mu.Unlock()
	}

	adapter := m.adapters[cfg.ChannelType]
	if adapter == nil {
		return fmt.Errorf("unsupported channel type: %s", cfg.ChannelType)
	}
	m.logger.Info("adapter start", slog.String("channel", cfg.ChannelType.String()), slog.String("config_id", cfg.ID))

	started, err := adapter.Start(ctx, cfg, m.wrap(m.handleInbound))
	if err != nil {
		return err
	}
	entry := &runningAdapter{
		adapter:      adapter,
		config:       cfg,
		stop:         started.Stop,
		supportsStop: started.SupportsStop,
	}
	m.mu.Lock()
	m.runners[cfg.ID] = entry
	m.mu.Unlock()
	return nil
}

func (m *Manager) stopAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, runner := range m.runners {
		if runner.supportsStop && runner.stop != nil {
			m.logger.Info("adapter stop", slog.String("channel", runner.config.ChannelType.String()), slog.String("config_id", id))
			runner.stop()
		}
		delete(m.runners, id)
	}
}

func (m *Manager) handleInbound(ctx context.Context, cfg ChannelConfig, msg InboundMessage) error {
	if m.processor == nil {
		return fmt.Errorf("inbound processor not configured")
	}
	adapter := m.adapters[msg.Channel]
	if adapter == nil {
		return fmt.Errorf("unsupported channel type: %s", msg.Channel)
	}
	if msg.CallbackID != "" {
		if answerer, ok := adapter.(CallbackAnswerer); ok {
			if err := answerer.AnswerCallback(ctx, cfg, msg.CallbackID); err != nil {
				m.logger.Warn("answer callback failed", slog.String("channel", msg.Channel.String()), slog.Any("error", err))
			}
		}
	}
	replies, err := m.processor.HandleInbound(ctx, cfg, msg)
	if err != nil {
		m.logger.Error("inbound processing failed", slog.String("channel", msg.Channel.String()), slog.Any("error", err))
		return err
	}
	var errs []error
	for _, reply := range replies {
		if reply.Empty() {
			continue
		}
		if reply.To == 0 {
			reply.To = msg.ReplyTarget()
		}
		if err := m.sendReply(ctx, adapter, cfg, reply); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Manager) sendReply(ctx context.Context, adapter Adapter, cfg ChannelConfig, reply OutboundMessage) error {
	var lastErr error
	for i := 0; i < replyAttempts; i++ {
		err := adapter.Send(ctx, cfg, reply)
		if err == nil {
			return nil
		}
		lastErr = err
		m.logger.Warn("send reply retry",
			slog.String("channel", adapter.Type().String()),
			slog.Int("attempt", i+1),
			slog.Any("error", err))
		if i == replyAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("send reply: %w", ctx.Err())
		case <-time.After(time.Duration(i+1) * m.retryBackoff):
		}
	}
	return fmt.Errorf("send reply failed after retries: %w", lastErr)
}
