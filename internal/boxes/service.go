package boxes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"unicode/utf8"
)

const (
	maxBoxNameRunes  = 255
	joinCodeAttempts = 3
)

type Service struct {
	repo    Repository
	logger  *slog.Logger
	newCode func() (string, error)
}

func NewService(log *slog.Logger, repo Repository) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		repo:    repo,
		logger:  log.With(slog.String("component", "boxes")),
		newCode: NewJoinCode,
	}
}

// TouchUser creates the user on first contact and keeps the handle in sync afterwards.
func (s *Service) TouchUser(ctx context.Context, user User) (User, error) {
	current, err := s.repo.GetUser(ctx, user.ID)
	switch {
	case err == nil:
		if current.Username == user.Username && current.FullName == user.FullName {
			return current, nil
		}
	case errors.Is(err, ErrUserNotFound):
		s.logger.Info("user registered", slog.Int64("user_id", user.ID))
	default:
		return User{}, err
	}
	return s.repo.UpsertUser(ctx, user)
}

func (s *Service) User(ctx context.Context, id int64) (User, error) {
	return s.repo.GetUser(ctx, id)
}

func (s *Service) CreateBox(ctx context.Context, req CreateBoxRequest) (Box, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return Box{}, fmt.Errorf("%w: name is required", ErrInvalidBox)
	}
	if utf8.RuneCountInString(name) > maxBoxNameRunes {
		return Box{}, fmt.Errorf("%w: name is too long", ErrInvalidBox)
	}
	if req.MaxGiftPrice < 0 || math.IsNaN(req.MaxGiftPrice) || math.IsInf(req.MaxGiftPrice, 0) {
		return Box{}, fmt.Errorf("%w: price cap must be a non-negative number", ErrInvalidBox)
	}
	if req.FinalRegDate.IsZero() || req.GiftDate.IsZero() {
		return Box{}, fmt.Errorf("%w: dates are required", ErrInvalidBox)
	}
	var lastErr error
	for attempt := 0; attempt < joinCodeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return Box{}, err
		}
		box, err := s.repo.CreateBox(ctx, Box{
			Name:         name,
			JoinCode:     code,
			FinalRegDate: req.FinalRegDate,
			MaxGiftPrice: req.MaxGiftPrice,
			GiftDate:     req.GiftDate,
			AdminID:      req.AdminID,
		})
		if err == nil {
			s.logger.Info("box created", slog.Int64("box_id", box.ID), slog.Int64("admin_id", box.AdminID))
			return box, nil
		}
		if !errors.Is(err, ErrJoinCodeTaken) {
			return Box{}, err
		}
		lastErr = err
	}
	return Box{}, lastErr
}

// Join adds the user to the box behind the code. Closed boxes and repeat joins are refused.
func (s *Service) Join(ctx context.Context, userID int64, code string) (Box, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return Box{}, ErrBoxNotFound
	}
	var joined Box
	err := s.repo.InTx(ctx, func(tx Store) error {
		box, err := tx.GetBoxByJoinCode(ctx, code)
		if err != nil {
			return err
		}
		box, err = tx.LockBox(ctx, box.ID)
		if err != nil {
			return err
		}
		rooms, err := tx.ListParticipations(ctx, box.ID)
		if err != nil {
			return err
		}
		for _, room := range rooms {
			if !room.Open() {
				return ErrBoxClosed
			}
		}
		for _, room := range rooms {
			if room.UserID == userID {
				return ErrAlreadyMember
			}
		}
		if _, err := tx.CreateParticipation(ctx, userID, box.ID); err != nil {
			return err
		}
		joined = box
		return nil
	})
	if err != nil {
		return Box{}, err
	}
	s.logger.Info("box joined", slog.Int64("box_id", joined.ID), slog.Int64("user_id", userID))
	return joined, nil
}

func (s *Service) Box(ctx context.Context, id int64) (Box, error) {
	return s.repo.GetBox(ctx, id)
}

func (s *Service) ListBoxes(ctx context.Context, userID int64) ([]Box, error) {
	return s.repo.ListBoxesForUser(ctx, userID)
}

func (s *Service) Participation(ctx context.Context, userID, boxID int64) (Participation, error) {
	return s.repo.GetParticipation(ctx, userID, boxID)
}

// Members lists the box participants together with their user rows.
func (s *Service) Members(ctx context.Context, boxID int64) ([]Member, error) {
	rooms, err := s.repo.ListParticipations(ctx, boxID)
	if err != nil {
		return nil, err
	}
	items := make([]Member, 0, len(rooms))
	for _, room := range rooms {
		user, err := s.repo.GetUser(ctx, room.UserID)
		if err != nil {
			return nil, fmt.Errorf("load member %d: %w", room.UserID, err)
		}
		items = append(items, Member{User: user, Participation: room})
	}
	return items, nil
}

func (s *Service) Delete(ctx context.Context, actorID, boxID int64) (Box, error) {
	var deleted Box
	err := s.repo.InTx(ctx, func(tx Store) error {
		box, err := tx.LockBox(ctx, boxID)
		if err != nil {
			return err
		}
		if !box.IsAdmin(actorID) {
			return ErrNotAdmin
		}
		deleted = box
		return tx.DeleteBox(ctx, boxID)
	})
	if err != nil {
		return Box{}, err
	}
	s.logger.Info("box deleted", slog.Int64("box_id", boxID), slog.Int64("admin_id", actorID))
	return deleted, nil
}

// SaveProfile replaces the survey answers while the participation is still open.
func (s *Service) SaveProfile(ctx context.Context, userID, boxID int64, profile map[string]string) error {
	return s.repo.InTx(ctx, func(tx Store) error {
		room, err := tx.LockParticipation(ctx, userID, boxID)
		if err != nil {
			return err
		}
		if !room.Open() {
			return ErrParticipationLocked
		}
		ok, err := tx.UpdateProfile(ctx, userID, boxID, profile)
		if err != nil {
			return err
		}
		if !ok {
			return ErrParticipationLocked
		}
		return nil
	})
}

func (s *Service) AddGift(ctx context.Context, req AddGiftRequest) (Gift, error) {
	url := strings.TrimSpace(req.URL)
	if url == "" {
		return Gift{}, fmt.Errorf("gift url is required")
	}
	var created Gift
	err := s.repo.InTx(ctx, func(tx Store) error {
		room, err := tx.LockParticipation(ctx, req.UserID, req.BoxID)
		if err != nil {
			return err
		}
		if !room.Open() {
			return ErrParticipationLocked
		}
		created, err = tx.CreateGift(ctx, Gift{
			BoxID:   req.BoxID,
			UserID:  req.UserID,
			URL:     url,
			IsExact: req.IsExact,
		})
		return err
	})
	if err != nil {
		return Gift{}, err
	}
	return created, nil
}

func (s *Service) Gifts(ctx context.Context, boxID, userID int64) ([]Gift, error) {
	return s.repo.ListGifts(ctx, boxID, userID)
}

func (s *Service) DeleteGift(ctx context.Context, actorID, giftID int64) (Gift, error) {
	var deleted Gift
	err := s.repo.InTx(ctx, func(tx Store) error {
		gift, err := tx.GetGift(ctx, giftID)
		if err != nil {
			return err
		}
		if gift.UserID != actorID {
			return ErrNotGiftOwner
		}
		room, err := tx.LockParticipation(ctx, actorID, gift.BoxID)
		if err != nil {
			return err
		}
		if !room.Open() {
			return ErrParticipationLocked
		}
		deleted = gift
		return tx.DeleteGift(ctx, giftID)
	})
	if err != nil {
		return Gift{}, err
	}
	return deleted, nil
}
