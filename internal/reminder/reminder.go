// Package reminder nudges participants who have not filled the survey before registration closes.
package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/explrms/secretSanta/internal/boxes"
)

const (
	// Window is how far ahead of the registration deadline reminders start.
	Window     = 3 * 24 * time.Hour
	runTimeout = 5 * time.Minute
)

type Store interface {
	ListOpenBoxesClosingBetween(ctx context.Context, from, to time.Time) ([]boxes.Box, error)
	ListParticipations(ctx context.Context, boxID int64) ([]boxes.Participation, error)
}

type Reminder interface {
	RemindSurvey(ctx context.Context, box boxes.Box, userID int64) error
}

type Job struct {
	store       Store
	reminder    Reminder
	logger      *slog.Logger
	now         func() time.Time
	sendTimeout time.Duration
}

func NewJob(log *slog.Logger, store Store, reminder Reminder, sendTimeout time.Duration) *Job {
	if log == nil {
		log = slog.Default()
	}
	if sendTimeout <= 0 {
		sendTimeout = 10 * time.Second
	}
	return &Job{
		store:       store,
		reminder:    reminder,
		logger:      log.With(slog.String("component", "reminder")),
		now:         time.Now,
		sendTimeout: sendTimeout,
	}
}

// Result counts the reminders of one run.
type Result struct {
	Boxes  int
	Sent   int
	Failed int
}

// Run reminds every participant with an empty survey in open boxes closing within Window.
// Send failures are logged and counted, never returned.
func (j *Job) Run(ctx context.Context) (Result, error) {
	now := j.now().UTC()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	list, err := j.store.ListOpenBoxesClosingBetween(ctx, from, from.Add(Window))
	if err != nil {
		return Result{}, fmt.Errorf("list closing boxes: %w", err)
	}
	result := Result{Boxes: len(list)}
	for _, box := range list {
		rooms, err := j.store.ListParticipations(ctx, box.ID)
		if err != nil {
			return result, fmt.Errorf("list participants of box %d: %w", box.ID, err)
		}
		for _, room := range rooms {
			if room.HasProfile() {
				continue
			}
			if err := j.remind(ctx, box, room.UserID); err != nil {
				result.Failed++
				j.logger.Warn("reminder failed",
					slog.Int64("box_id", box.ID),
					slog.Int64("user_id", room.UserID),
					slog.Any("error", err))
				continue
			}
			result.Sent++
		}
	}
	j.logger.Info("reminders sent",
		slog.Int("boxes", result.Boxes),
		slog.Int("sent", result.Sent),
		slog.Int("failed", result.Failed))
	return result, nil
}

func (j *Job) remind(ctx context.Context, box boxes.Box, userID int64) error {
	sendCtx, cancel := context.WithTimeout(ctx, j.sendTimeout)
	defer cancel()
	return j.reminder.RemindSurvey(sendCtx, box, userID)
}

// Schedule registers the job on a cron scheduler with the standard five-field spec.
// The caller starts and stops the returned scheduler.
func Schedule(log *slog.Logger, spec string, job *Job) (*cron.Cron, error) {
	if log == nil {
		log = slog.Default()
	}
	c := cron.New(cron.WithLocation(time.UTC))
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()
		if _, err := job.Run(ctx); err != nil {
			log.Error("reminder run failed", slog.Any("error", err))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("schedule reminders %q: %w", spec, err)
	}
	return c, nil
}
