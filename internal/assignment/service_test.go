package assignment

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/explrms/secretSanta/internal/boxes"
)

type fakeNotifier struct {
	mu      sync.Mutex
	failFor map[int64]bool
	got     []int64
}

func (f *fakeNotifier) NotifyAssigned(ctx context.Context, box boxes.Box, giverID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, giverID)
	if f.failFor[giverID] {
		return errors.New("bot was blocked by the user")
	}
	return nil
}

func setupBox(t *testing.T, members int, withProfiles bool) (*boxes.MemoryRepository, boxes.Box) {
	t.Helper()
	ctx := context.Background()
	repo := boxes.NewMemoryRepository()
	svc := boxes.NewService(slog.New(slog.NewTextHandler(io.Discard, nil)), repo)
	if _, err := svc.TouchUser(ctx, boxes.User{ID: 1}); err != nil {
		t.Fatalf("touch admin: %v", err)
	}
	box, err := svc.CreateBox(ctx, boxes.CreateBoxRequest{
		Name:         "Team A",
		FinalRegDate: time.Date(2025, 12, 20, 0, 0, 0, 0, time.UTC),
		GiftDate:     time.Date(2025, 12, 25, 0, 0, 0, 0, time.UTC),
		MaxGiftPrice: 1500,
		AdminID:      1,
	})
	if err != nil {
		t.Fatalf("create box: %v", err)
	}
	for i := 1; i <= members; i++ {
		id := int64(i)
		if _, err := svc.TouchUser(ctx, boxes.User{ID: id}); err != nil {
			t.Fatalf("touch user: %v", err)
		}
		if _, err := svc.Join(ctx, id, box.JoinCode); err != nil {
			t.Fatalf("join: %v", err)
		}
		if withProfiles {
			if err := svc.SaveProfile(ctx, id, box.ID, map[string]string{"free_time": "чтение"}); err != nil {
				t.Fatalf("save profile: %v", err)
			}
		}
	}
	return repo, box
}

func newTestService(repo boxes.Repository, notifier Notifier) *Service {
	svc := NewService(slog.New(slog.NewTextHandler(io.Discard, nil)), repo, notifier, time.Second)
	svc.newRand = func() *rand.Rand { return rand.New(rand.NewPCG(7, 8)) }
	return svc
}

func TestShuffleAssignsEveryone(t *testing.T) {
	t.Parallel()

	repo, box := setupBox(t, 5, true)
	notifier := &fakeNotifier{failFor: map[int64]bool{3: true}}
	svc := newTestService(repo, notifier)

	result, err := svc.Shuffle(context.Background(), 1, box.ID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	svc.Wait()
	if len(result.Pairs) != 5 {
		t.Fatalf("unexpected pairs: %v", result.Pairs)
	}
	rooms, _ := repo.ListParticipations(context.Background(), box.ID)
	ids := make([]int64, 0, len(rooms))
	pairs := map[int64]int64{}
	for _, room := range rooms {
		if room.ReceiverID == nil {
			t.Fatalf("user %d has no receiver", room.UserID)
		}
		ids = append(ids, room.UserID)
		pairs[room.UserID] = *room.ReceiverID
	}
	if !Valid(ids, pairs) {
		t.Fatalf("persisted assignment is invalid: %v", pairs)
	}
	if len(notifier.got) != 5 {
		t.Fatalf("expected 5 notification attempts, got %d", len(notifier.got))
	}
	if d := svc.Notify(context.Background(), result); d.Notified != 4 || d.Failed != 1 {
		t.Fatalf("unexpected notification counts: %+v", d)
	}
}

type blockingNotifier struct {
	release chan struct{}
}

func (b *blockingNotifier) NotifyAssigned(ctx context.Context, _ boxes.Box, _ int64) error {
	select {
	case <-b.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestShuffleReturnsBeforeNotificationsFinish(t *testing.T) {
	t.Parallel()

	repo, box := setupBox(t, 3, true)
	notifier := &blockingNotifier{release: make(chan struct{})}
	svc := newTestService(repo, notifier)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Shuffle(context.Background(), 1, box.ID)
		done <- err
	}()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("shuffle waited for notifications")
	}
	close(notifier.release)
	svc.Wait()
}

func TestShuffleTwiceIsRefused(t *testing.T) {
	t.Parallel()

	repo, box := setupBox(t, 3, true)
	svc := newTestService(repo, &fakeNotifier{})
	ctx := context.Background()
	first, err := svc.Shuffle(ctx, 1, box.ID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, err := svc.Shuffle(ctx, 1, box.ID); !errors.Is(err, ErrAlreadyShuffled) {
		t.Fatalf("expected ErrAlreadyShuffled, got %v", err)
	}
	rooms, _ := repo.ListParticipations(ctx, box.ID)
	for _, room := range rooms {
		if *room.ReceiverID != first.Pairs[room.UserID] {
			t.Fatalf("assignment changed for user %d", room.UserID)
		}
	}
}

func TestShufflePreconditionsMutateNothing(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		members  int
		profiles bool
		actor    int64
		want     error
	}{
		{name: "single member", members: 1, profiles: true, actor: 1, want: ErrInsufficientParticipants},
		{name: "empty profiles", members: 3, profiles: false, actor: 1, want: ErrIncompleteProfiles},
		{name: "not admin", members: 3, profiles: true, actor: 2, want: boxes.ErrNotAdmin},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo, box := setupBox(t, tc.members, tc.profiles)
			svc := newTestService(repo, &fakeNotifier{})
			if _, err := svc.Shuffle(context.Background(), tc.actor, box.ID); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			rooms, _ := repo.ListParticipations(context.Background(), box.ID)
			for _, room := range rooms {
				if room.ReceiverID != nil {
					t.Fatalf("user %d was assigned despite the failure", room.UserID)
				}
			}
		})
	}
}

func TestConcurrentShuffleSucceedsOnce(t *testing.T) {
	t.Parallel()

	repo, box := setupBox(t, 6, true)
	svc := NewService(slog.New(slog.NewTextHandler(io.Discard, nil)), repo, &fakeNotifier{}, time.Second)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded, refused := 0, 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Shuffle(context.Background(), 1, box.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, ErrAlreadyShuffled):
				refused++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
	if succeeded != 1 || refused != 7 {
		t.Fatalf("expected one success and seven refusals, got %d/%d", succeeded, refused)
	}
}
