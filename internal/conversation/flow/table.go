// Package flow holds the multi-step dialogues and the table that binds them to conversation steps.
package flow

import (
	"context"

	"github.com/explrms/secretSanta/internal/callback"
	"github.com/explrms/secretSanta/internal/channel"
	"github.com/explrms/secretSanta/internal/conversation"
)

// Input is one inbound event reduced to what a step can consume.
type Input struct {
	Kind  channel.InboundKind
	Text  string
	Token callback.Token
}

// TextInput builds an Input for a free-text message.
func TextInput(text string) Input {
	return Input{Kind: channel.KindText, Text: text}
}

// ButtonInput builds an Input for a pressed button.
func ButtonInput(token callback.Token) Input {
	return Input{Kind: channel.KindButton, Token: token}
}

type Handler func(ctx context.Context, sess *conversation.Session, in Input) ([]channel.OutboundMessage, error)

// Step lists the inputs a step accepts. A nil Text handler means free text is not accepted.
type Step struct {
	Text    Handler
	Buttons map[callback.Action]Handler
}

type stepKey struct {
	flow conversation.Flow
	step conversation.Step
}

// Table dispatches events by the flow and step of the caller's state.
type Table struct {
	steps map[stepKey]Step
}

func NewTable() *Table {
	return &Table{steps: map[stepKey]Step{}}
}

func (t *Table) Bind(flow conversation.Flow, step conversation.Step, s Step) {
	t.steps[stepKey{flow: flow, step: step}] = s
}

// Match returns the handler bound to the state's step for this input, if any.
func (t *Table) Match(st conversation.State, in Input) (Handler, bool) {
	if !st.Active() {
		return nil, false
	}
	s, ok := t.steps[stepKey{flow: st.Flow, step: st.Step}]
	if !ok {
		return nil, false
	}
	switch in.Kind {
	case channel.KindText:
		if s.Text == nil {
			return nil, false
		}
		return s.Text, true
	case channel.KindButton:
		h, ok := s.Buttons[in.Token.Action]
		return h, ok
	default:
		return nil, false
	}
}

// ValidationError rejects an input. The step does not advance and Reply is sent back.
type ValidationError struct {
	Reason string
	Reply  channel.OutboundMessage
}

func (e *ValidationError) Error() string {
	return "invalid input: " + e.Reason
}

func invalid(reason string, reply channel.OutboundMessage) error {
	return &ValidationError{Reason: reason, Reply: reply}
}
