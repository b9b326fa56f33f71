package boxes

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"
)

type participationKey struct {
	userID int64
	boxID  int64
}

type memoryState struct {
	nextBoxID  int64
	nextGiftID int64
	users      map[int64]User
	boxes      map[int64]Box
	rooms      map[participationKey]Participation
	gifts      map[int64]Gift
}

func newMemoryState() *memoryState {
	return &memoryState{
		users: map[int64]User{},
		boxes: map[int64]Box{},
		rooms: map[participationKey]Participation{},
		gifts: map[int64]Gift{},
	}
}

func (s *memoryState) clone() *memoryState {
	out := &memoryState{
		nextBoxID:  s.nextBoxID,
		nextGiftID: s.nextGiftID,
		users:      maps.Clone(s.users),
		boxes:      maps.Clone(s.boxes),
		rooms:      make(map[participationKey]Participation, len(s.rooms)),
		gifts:      maps.Clone(s.gifts),
	}
	for key, room := range s.rooms {
		out.rooms[key] = copyParticipation(room)
	}
	return out
}

func copyParticipation(p Participation) Participation {
	p.Profile = maps.Clone(p.Profile)
	if p.ReceiverID != nil {
		id := *p.ReceiverID
		p.ReceiverID = &id
	}
	return p
}

// MemoryRepository keeps every entity in process memory. Transactions work on a copy
// that replaces the live state only when the callback succeeds.
type MemoryRepository struct {
	memoryStore
	mu sync.Mutex
}

func NewMemoryRepository() *MemoryRepository {
	r := &MemoryRepository{}
	r.memoryStore = memoryStore{state: newMemoryState(), mu: &r.mu, now: time.Now}
	return r
}

func (r *MemoryRepository) InTx(ctx context.Context, fn func(Store) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	draft := r.state.clone()
	if err := fn(memoryStore{state: draft, now: r.now}); err != nil {
		return err
	}
	*r.state = *draft
	return nil
}

type memoryStore struct {
	state *memoryState
	// nil inside a transaction, where the repository lock is already held.
	mu  *sync.Mutex
	now func() time.Time
}

func (s memoryStore) lock() func() {
	if s.mu == nil {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s memoryStore) UpsertUser(ctx context.Context, user User) (User, error) {
	defer s.lock()()
	if current, ok := s.state.users[user.ID]; ok {
		user.RegisteredAt = current.RegisteredAt
	} else {
		user.RegisteredAt = s.now()
	}
	s.state.users[user.ID] = user
	return user, nil
}

func (s memoryStore) GetUser(ctx context.Context, id int64) (User, error) {
	defer s.lock()()
	user, ok := s.state.users[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return user, nil
}

func (s memoryStore) CreateBox(ctx context.Context, box Box) (Box, error) {
	defer s.lock()()
	for _, existing := range s.state.boxes {
		if existing.JoinCode == box.JoinCode {
			return Box{}, ErrJoinCodeTaken
		}
	}
	s.state.nextBoxID++
	box.ID = s.state.nextBoxID
	box.CreatedAt = s.now()
	s.state.boxes[box.ID] = box
	return box, nil
}

func (s memoryStore) GetBox(ctx context.Context, id int64) (Box, error) {
	defer s.lock()()
	box, ok := s.state.boxes[id]
	if !ok {
		return Box{}, ErrBoxNotFound
	}
	return box, nil
}

func (s memoryStore) LockBox(ctx context.Context, id int64) (Box, error) {
	return s.GetBox(ctx, id)
}

func (s memoryStore) GetBoxByJoinCode(ctx context.Context, code string) (Box, error) {
	defer s.lock()()
	for _, box := range s.state.boxes {
		if box.JoinCode == code {
			return box, nil
		}
	}
	return Box{}, ErrBoxNotFound
}

func (s memoryStore) DeleteBox(ctx context.Context, id int64) error {
	defer s.lock()()
	if _, ok := s.state.boxes[id]; !ok {
		return ErrBoxNotFound
	}
	delete(s.state.boxes, id)
	for key := range s.state.rooms {
		if key.boxID == id {
			delete(s.state.rooms, key)
		}
	}
	for giftID, gift := range s.state.gifts {
		if gift.BoxID == id {
			delete(s.state.gifts, giftID)
		}
	}
	return nil
}

func (s memoryStore) ListBoxesForUser(ctx context.Context, userID int64) ([]Box, error) {
	defer s.lock()()
	items := make([]Box, 0)
	for _, box := range s.state.boxes {
		_, member := s.state.rooms[participationKey{userID: userID, boxID: box.ID}]
		if member || box.AdminID == userID {
			items = append(items, box)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (s memoryStore) ListOpenBoxesClosingBetween(ctx context.Context, from, to time.Time) ([]Box, error) {
	defer s.lock()()
	items := make([]Box, 0)
	for _, box := range s.state.boxes {
		if box.FinalRegDate.Before(from) || box.FinalRegDate.After(to) {
			continue
		}
		shuffled := false
		for key, room := range s.state.rooms {
			if key.boxID == box.ID && !room.Open() {
				shuffled = true
				break
			}
		}
		if !shuffled {
			items = append(items, box)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (s memoryStore) CreateParticipation(ctx context.Context, userID, boxID int64) (Participation, error) {
	defer s.lock()()
	key := participationKey{userID: userID, boxID: boxID}
	if _, ok := s.state.rooms[key]; ok {
		return Participation{}, ErrAlreadyMember
	}
	if _, ok := s.state.boxes[boxID]; !ok {
		return Participation{}, ErrBoxNotFound
	}
	room := Participation{UserID: userID, BoxID: boxID, Profile: map[string]string{}, JoinedAt: s.now()}
	s.state.rooms[key] = room
	return copyParticipation(room), nil
}

func (s memoryStore) GetParticipation(ctx context.Context, userID, boxID int64) (Participation, error) {
	defer s.lock()()
	room, ok := s.state.rooms[participationKey{userID: userID, boxID: boxID}]
	if !ok {
		return Participation{}, ErrNotMember
	}
	return copyParticipation(room), nil
}

func (s memoryStore) LockParticipation(ctx context.Context, userID, boxID int64) (Participation, error) {
	return s.GetParticipation(ctx, userID, boxID)
}

func (s memoryStore) ListParticipations(ctx context.Context, boxID int64) ([]Participation, error) {
	defer s.lock()()
	items := make([]Participation, 0)
	for key, room := range s.state.rooms {
		if key.boxID == boxID {
			items = append(items, copyParticipation(room))
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].JoinedAt.Equal(items[j].JoinedAt) {
			return items[i].JoinedAt.Before(items[j].JoinedAt)
		}
		return items[i].UserID < items[j].UserID
	})
	return items, nil
}

func (s memoryStore) UpdateProfile(ctx context.Context, userID, boxID int64, profile map[string]string) (bool, error) {
	defer s.lock()()
	key := participationKey{userID: userID, boxID: boxID}
	room, ok := s.state.rooms[key]
	if !ok {
		return false, ErrNotMember
	}
	if !room.Open() {
		return false, nil
	}
	room.Profile = maps.Clone(profile)
	s.state.rooms[key] = room
	return true, nil
}

func (s memoryStore) AssignReceiver(ctx context.Context, boxID, giverID, receiverID int64) (bool, error) {
	defer s.lock()()
	key := participationKey{userID: giverID, boxID: boxID}
	room, ok := s.state.rooms[key]
	if !ok {
		return false, ErrNotMember
	}
	if !room.Open() {
		return false, nil
	}
	for other, candidate := range s.state.rooms {
		if other.boxID == boxID && candidate.ReceiverID != nil && *candidate.ReceiverID == receiverID {
			return false, ErrReceiverTaken
		}
	}
	id := receiverID
	room.ReceiverID = &id
	s.state.rooms[key] = room
	return true, nil
}

func (s memoryStore) FindSanta(ctx context.Context, boxID, receiverID int64) (Participation, error) {
	defer s.lock()()
	for key, room := range s.state.rooms {
		if key.boxID == boxID && room.ReceiverID != nil && *room.ReceiverID == receiverID {
			return copyParticipation(room), nil
		}
	}
	return Participation{}, ErrNotMember
}

func (s memoryStore) CreateGift(ctx context.Context, gift Gift) (Gift, error) {
	defer s.lock()()
	s.state.nextGiftID++
	gift.ID = s.state.nextGiftID
	gift.CreatedAt = s.now()
	s.state.gifts[gift.ID] = gift
	return gift, nil
}

func (s memoryStore) GetGift(ctx context.Context, id int64) (Gift, error) {
	defer s.lock()()
	gift, ok := s.state.gifts[id]
	if !ok {
		return Gift{}, ErrGiftNotFound
	}
	return gift, nil
}

func (s memoryStore) ListGifts(ctx context.Context, boxID, userID int64) ([]Gift, error) {
	defer s.lock()()
	items := make([]Gift, 0)
	for _, gift := range s.state.gifts {
		if gift.BoxID == boxID && gift.UserID == userID {
			items = append(items, gift)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (s memoryStore) DeleteGift(ctx context.Context, id int64) error {
	defer s.lock()()
	if _, ok := s.state.gifts[id]; !ok {
		return ErrGiftNotFound
	}
	delete(s.state.gifts, id)
	return nil
}
