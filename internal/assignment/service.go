package assignment

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/explrms/secretSanta/internal/boxes"
)

const defaultFanout = 8

// Notifier tells a giver that a receiver has been drawn for them.
type Notifier interface {
	NotifyAssigned(ctx context.Context, box boxes.Box, giverID int64) error
}

type Result struct {
	Box   boxes.Box
	Pairs map[int64]int64
}

// Delivery counts the notifications sent after one shuffle.
type Delivery struct {
	Notified int
	Failed   int
}

type Service struct {
	repo        boxes.Repository
	notifier    Notifier
	logger      *slog.Logger
	newRand     func() *rand.Rand
	sendTimeout time.Duration
	fanout      int

	pending sync.WaitGroup
}

func NewService(log *slog.Logger, repo boxes.Repository, notifier Notifier, sendTimeout time.Duration) *Service {
	if log == nil {
		log = slog.Default()
	}
	if sendTimeout <= 0 {
		sendTimeout = 10 * time.Second
	}
	return &Service{
		repo:        repo,
		notifier:    notifier,
		logger:      log.With(slog.String("component", "assignment")),
		newRand:     NewRand,
		sendTimeout: sendTimeout,
		fanout:      defaultFanout,
	}
}

// Shuffle draws receivers for every participant of the box. Preconditions and writes run in
// one transaction holding the box lock. Givers are notified in the background after commit,
// so the caller is never held by slow sends.
func (s *Service) Shuffle(ctx context.Context, actorID, boxID int64) (Result, error) {
	var result Result
	err := s.repo.InTx(ctx, func(tx boxes.Store) error {
		box, err := tx.LockBox(ctx, boxID)
		if err != nil {
			return err
		}
		if !box.IsAdmin(actorID) {
			return boxes.ErrNotAdmin
		}
		rooms, err := tx.ListParticipations(ctx, boxID)
		if err != nil {
			return err
		}
		pairs, err := Assign(rooms, s.newRand())
		if err != nil {
			return err
		}
		for _, room := range rooms {
			ok, err := tx.AssignReceiver(ctx, boxID, room.UserID, pairs[room.UserID])
			if err != nil {
				return err
			}
			if !ok {
				return ErrAlreadyShuffled
			}
		}
		result = Result{Box: box, Pairs: pairs}
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	s.logger.Info("box shuffled", slog.Int64("box_id", boxID), slog.Int("participants", len(result.Pairs)))
	s.notifyLater(ctx, result)
	return result, nil
}

func (s *Service) notifyLater(ctx context.Context, result Result) {
	if s.notifier == nil {
		return
	}
	base := context.WithoutCancel(ctx)
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		d := s.Notify(base, result)
		s.logger.Info("assignment notifications sent",
			slog.Int64("box_id", result.Box.ID),
			slog.Int("notified", d.Notified),
			slog.Int("failed", d.Failed))
	}()
}

// Notify tells every giver of result about the draw. Failures are logged and counted.
func (s *Service) Notify(ctx context.Context, result Result) Delivery {
	if s.notifier == nil {
		return Delivery{}
	}
	var sent, failed atomic.Int64
	var g errgroup.Group
	g.SetLimit(s.fanout)
	for giverID := range result.Pairs {
		g.Go(func() error {
			sendCtx, cancel := context.WithTimeout(ctx, s.sendTimeout)
			defer cancel()
			if err := s.notifier.NotifyAssigned(sendCtx, result.Box, giverID); err != nil {
				failed.Add(1)
				s.logger.Warn("assignment notification failed",
					slog.Int64("box_id", result.Box.ID),
					slog.Int64("user_id", giverID),
					slog.Any("error", err))
				return nil
			}
			sent.Add(1)
			return nil
		})
	}
	_ = g.Wait()
	return Delivery{Notified: int(sent.Load()), Failed: int(failed.Load())}
}

// Wait blocks until the background notifications of earlier shuffles are done.
func (s *Service) Wait() {
	s.pending.Wait()
}
