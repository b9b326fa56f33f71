package channel

import (
	"sync"

	"github.com/google/uuid"
)

// SessionHub fans outbound messages for a chat out to every subscriber of that chat.
type SessionHub struct {
	mu       sync.RWMutex
	sessions map[int64]map[string]chan OutboundMessage
}

func NewSessionHub() *SessionHub {
	return &SessionHub{
		sessions: map[int64]map[string]chan OutboundMessage{},
	}
}

func (h *SessionHub) Subscribe(chatID int64) (string, <-chan OutboundMessage, func()) {
	streamID := uuid.NewString()
	ch := make(chan OutboundMessage, 32)

	h.mu.Lock()
	streams, ok := h.sessions[chatID]
	if !ok {
		streams = map[string]chan OutboundMessage{}
		h.sessions[chatID] = streams
	}
	streams[streamID] = ch
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		streams := h.sessions[chatID]
		if streams != nil {
			if current, ok := streams[streamID]; ok {
				delete(streams, streamID)
				close(current)
			}
			if len(streams) == 0 {
				delete(h.sessions, chatID)
			}
		}
		h.mu.Unlock()
	}

	return streamID, ch, cancel
}

func (h *SessionHub) Publish(chatID int64, msg OutboundMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, stream := range h.sessions[chatID] {
		select {
		case stream <- msg:
		default:
			// Drop if receiver is slow.
		}
	}
}
