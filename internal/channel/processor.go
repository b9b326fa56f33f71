package channel

import "context"

// InboundProcessor handles one inbound event and returns the messages to send back.
type InboundProcessor interface {
	HandleInbound(ctx context.Context, cfg ChannelConfig, msg InboundMessage) ([]OutboundMessage, error)
}
