package channel

import (
	"context"
	"strings"
)

type InboundKind string

const (
	KindCommand InboundKind = "command"
	KindButton  InboundKind = "button"
	KindText    InboundKind = "text"
)

type InboundMessage struct {
	Channel ChannelType
	Kind    InboundKind
	// Text is the raw message text. It is empty for buttons and media.
	Text string
	// Command is lower-cased without the leading slash and the @bot suffix.
	Command      string
	Args         string
	CallbackData string
	CallbackID   string
	// MessageID is the bot message a button belongs to.
	MessageID int
	UserID    int64
	Username  string
	FullName  string
	ChatID    int64
	ChatType  string
	ThreadID  int
}

// ReplyTarget is the chat replies go to.
func (m InboundMessage) ReplyTarget() int64 {
	if m.ChatID != 0 {
		return m.ChatID
	}
	return m.UserID
}

// ClassifyText splits "/start@santa_bot abc" into a command and its arguments.
// Anything not starting with a slash is plain text.
func ClassifyText(text string) (InboundKind, string, string) {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "/") || len(trimmed) == 1 {
		return KindText, "", ""
	}
	head, args, _ := strings.Cut(trimmed[1:], " ")
	name, _, _ := strings.Cut(head, "@")
	return KindCommand, strings.ToLower(name), strings.TrimSpace(args)
}

type Button struct {
	Text string
	Data string
	URL  string
}

type Document struct {
	Name    string
	Data    []byte
	Caption string
}

type OutboundMessage struct {
	To   int64
	Text string
	// Keyboard is a list of inline button rows.
	Keyboard [][]Button
	// EditMessageID replaces an existing bot message instead of sending a new one.
	EditMessageID  int
	ThreadID       int
	DisablePreview bool
	Document       *Document
}

func (m OutboundMessage) Empty() bool {
	return strings.TrimSpace(m.Text) == "" && m.Document == nil
}

type AdapterRunner struct {
	Stop         func()
	SupportsStop bool
}

type InboundHandler func(ctx context.Context, cfg ChannelConfig, msg InboundMessage) error

type Adapter interface {
	Type() ChannelType
	Start(ctx context.Context, cfg ChannelConfig, handler InboundHandler) (AdapterRunner, error)
	Send(ctx context.Context, cfg ChannelConfig, msg OutboundMessage) error
}

// CallbackAnswerer is implemented by adapters whose buttons must be acknowledged.
type CallbackAnswerer interface {
	AnswerCallback(ctx context.Context, cfg ChannelConfig, callbackID string) error
}
