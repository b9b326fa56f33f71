package router

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/explrms/secretSanta/internal/channel"
	"github.com/explrms/secretSanta/internal/render"
)

// incident logs an unhandled failure, drops the user's conversation and tells both sides.
func (p *ChannelInboundProcessor) incident(ctx context.Context, msg channel.InboundMessage, cause error, stack []byte) []channel.OutboundMessage {
	id := uuid.NewString()
	snapshot := "{}"
	if st, ok, err := p.deps.Machine.Snapshot(ctx, msg.UserID); err == nil && ok {
		if raw, err := json.Marshal(st); err == nil {
			snapshot = string(raw)
		}
	}
	p.logger.Error("inbound handling failed",
		slog.String("incident_id", id),
		slog.Int64("user_id", msg.UserID),
		slog.String("kind", string(msg.Kind)),
		slog.String("state", snapshot),
		slog.Any("error", cause))

	if err := p.deps.Machine.Reset(ctx, msg.UserID); err != nil {
		p.logger.Warn("reset conversation after incident failed", slog.String("incident_id", id), slog.Any("error", err))
	}

	out := []channel.OutboundMessage{render.Oops()}
	if p.deps.AdminChatID != 0 {
		out = append(out, render.OperatorReport(p.deps.AdminChatID, p.deps.ErrorsThreadID, incidentReport(id, msg, snapshot, cause, stack)))
	}
	return out
}

func incidentReport(id string, msg channel.InboundMessage, snapshot string, cause error, stack []byte) string {
	var b strings.Builder
	fmt.Fprintf(&b, "incident: %s\n", id)
	fmt.Fprintf(&b, "time: %s\n", time.Now().UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "user: %d @%s (%s)\n", msg.UserID, msg.Username, msg.FullName)
	fmt.Fprintf(&b, "chat: %d thread: %d\n", msg.ChatID, msg.ThreadID)
	fmt.Fprintf(&b, "kind: %s\n", msg.Kind)
	switch msg.Kind {
	case channel.KindCommand:
		fmt.Fprintf(&b, "command: /%s %s\n", msg.Command, msg.Args)
	case channel.KindButton:
		fmt.Fprintf(&b, "data: %s\n", msg.CallbackData)
	default:
		fmt.Fprintf(&b, "text: %s\n", msg.Text)
	}
	fmt.Fprintf(&b, "state: %s\n", snapshot)
	fmt.Fprintf(&b, "error: %v\n", cause)
	if len(stack) > 0 {
		b.WriteString("\n")
		b.Write(stack)
	}
	return b.String()
}
