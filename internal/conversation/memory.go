package conversation

import (
	"context"
	"maps"
	"sync"
	"time"
)

type MemoryStore struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	items map[int64]State
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:   ttl,
		now:   time.Now,
		items: map[int64]State{},
	}
}

// live returns the stored state unless it has expired, in which case it is dropped.
func (s *MemoryStore) live(userID int64) (State, bool) {
	st, ok := s.items[userID]
	if !ok {
		return State{}, false
	}
	if s.ttl > 0 && s.now().Sub(st.UpdatedAt) >= s.ttl {
		delete(s.items, userID)
		return State{}, false
	}
	return st, true
}

func (s *MemoryStore) Get(ctx context.Context, userID int64) (State, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.live(userID)
	if !ok {
		return State{}, false, nil
	}
	st.Data.Answers = maps.Clone(st.Data.Answers)
	return st, true, nil
}

func (s *MemoryStore) Put(ctx context.Context, st State) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var current int64
	if existing, ok := s.live(st.UserID); ok {
		current = existing.Version
	}
	if current != st.Version {
		return State{}, ErrVersionConflict
	}
	st.Version++
	st.UpdatedAt = s.now()
	st.Data.Answers = maps.Clone(st.Data.Answers)
	s.items[st.UserID] = st
	return st, nil
}

func (s *MemoryStore) Delete(ctx context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, userID)
	return nil
}

// MemoryLocker is a keyed mutex. Entries are dropped once nobody waits on them.
type MemoryLocker struct {
	mu    sync.Mutex
	locks map[int64]*keyLock
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{locks: map[int64]*keyLock{}}
}

func (l *MemoryLocker) Lock(ctx context.Context, userID int64) (func(), error) {
	l.mu.Lock()
	entry, ok := l.locks[userID]
	if !ok {
		entry = &keyLock{ch: make(chan struct{}, 1)}
		l.locks[userID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	select {
	case entry.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(userID, entry)
		return nil, ctx.Err()
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			<-entry.ch
			l.release(userID, entry)
		})
	}, nil
}

func (l *MemoryLocker) release(userID int64, entry *keyLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry.refs--
	if entry.refs == 0 {
		delete(l.locks, userID)
	}
}
