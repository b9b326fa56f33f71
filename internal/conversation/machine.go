package conversation

import (
	"context"
	"fmt"
	"log/slog"
)

// Session is the view of one user's state inside Machine.Do. Changes are written back
// only when the callback returns without error.
type Session struct {
	state   State
	loaded  bool
	dirty   bool
	cleared bool
}

func (s *Session) UserID() int64 {
	return s.state.UserID
}

func (s *Session) State() State {
	return s.state
}

func (s *Session) Active() bool {
	return s.state.Active()
}

func (s *Session) Data() Data {
	return s.state.Data
}

// Begin starts a flow and replaces whatever was in progress.
func (s *Session) Begin(flow Flow, step Step, data Data) {
	s.state.Flow = flow
	s.state.Step = step
	s.state.Data = data
	s.dirty = true
	s.cleared = false
}

// Advance moves to step, applying mutate to the flow data first.
func (s *Session) Advance(step Step, mutate func(*Data)) {
	if mutate != nil {
		mutate(&s.state.Data)
	}
	s.state.Step = step
	s.dirty = true
}

// Clear ends the flow and drops its data.
func (s *Session) Clear() {
	s.state.Flow = FlowNone
	s.state.Step = ""
	s.state.Data = Data{}
	s.cleared = true
	s.dirty = false
}

type Machine struct {
	store  Store
	locker Locker
	logger *slog.Logger
}

func NewMachine(log *slog.Logger, store Store, locker Locker) *Machine {
	if log == nil {
		log = slog.Default()
	}
	return &Machine{
		store:  store,
		locker: locker,
		logger: log.With(slog.String("component", "conversation")),
	}
}

// Do runs fn with the caller's state while holding the per-user lock.
func (m *Machine) Do(ctx context.Context, userID int64, fn func(*Session) error) error {
	unlock, err := m.locker.Lock(ctx, userID)
	if err != nil {
		return fmt.Errorf("lock conversation: %w", err)
	}
	defer unlock()

	st, ok, err := m.store.Get(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		st = State{UserID: userID}
	}
	sess := &Session{state: st, loaded: ok}
	if err := fn(sess); err != nil {
		return err
	}
	switch {
	case sess.cleared && !sess.dirty:
		if sess.loaded {
			return m.store.Delete(ctx, userID)
		}
	case sess.dirty:
		if _, err := m.store.Put(ctx, sess.state); err != nil {
			return fmt.Errorf("save conversation: %w", err)
		}
	}
	return nil
}

// Snapshot returns the stored state without taking the lock.
func (m *Machine) Snapshot(ctx context.Context, userID int64) (State, bool, error) {
	return m.store.Get(ctx, userID)
}

// Reset drops the user's state unconditionally.
func (m *Machine) Reset(ctx context.Context, userID int64) error {
	unlock, err := m.locker.Lock(ctx, userID)
	if err != nil {
		return fmt.Errorf("lock conversation: %w", err)
	}
	defer unlock()
	if err := m.store.Delete(ctx, userID); err != nil {
		return err
	}
	m.logger.Debug("conversation reset", slog.Int64("user_id", userID))
	return nil
}
