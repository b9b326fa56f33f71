package boxes

import (
	"context"
	"time"
)

// Store is the set of entity queries. Relationships are resolved by id through explicit calls.
type Store interface {
	UpsertUser(ctx context.Context, user User) (User, error)
	GetUser(ctx context.Context, id int64) (User, error)

	CreateBox(ctx context.Context, box Box) (Box, error)
	GetBox(ctx context.Context, id int64) (Box, error)
	// LockBox reads the box and holds a write lock on it until the transaction ends.
	LockBox(ctx context.Context, id int64) (Box, error)
	GetBoxByJoinCode(ctx context.Context, code string) (Box, error)
	DeleteBox(ctx context.Context, id int64) error
	ListBoxesForUser(ctx context.Context, userID int64) ([]Box, error)
	ListOpenBoxesClosingBetween(ctx context.Context, from, to time.Time) ([]Box, error)

	CreateParticipation(ctx context.Context, userID, boxID int64) (Participation, error)
	GetParticipation(ctx context.Context, userID, boxID int64) (Participation, error)
	LockParticipation(ctx context.Context, userID, boxID int64) (Participation, error)
	ListParticipations(ctx context.Context, boxID int64) ([]Participation, error)
	// UpdateProfile returns false when the participation already has a receiver.
	UpdateProfile(ctx context.Context, userID, boxID int64, profile map[string]string) (bool, error)
	// AssignReceiver returns false when the giver already has a receiver.
	AssignReceiver(ctx context.Context, boxID, giverID, receiverID int64) (bool, error)
	FindSanta(ctx context.Context, boxID, receiverID int64) (Participation, error)

	CreateGift(ctx context.Context, gift Gift) (Gift, error)
	GetGift(ctx context.Context, id int64) (Gift, error)
	ListGifts(ctx context.Context, boxID, userID int64) ([]Gift, error)
	DeleteGift(ctx context.Context, id int64) error
}

// Repository is a Store that can run a group of queries atomically.
type Repository interface {
	Store
	InTx(ctx context.Context, fn func(Store) error) error
}
