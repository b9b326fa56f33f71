package boxes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/explrms/secretSanta/internal/db/sqlc"
)

const uniqueViolation = "23505"

// PostgresRepository is the sqlc-backed Repository.
type PostgresRepository struct {
	pgStore
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{
		pgStore: pgStore{queries: sqlc.New(pool)},
		pool:    pool,
	}
}

func (r *PostgresRepository) InTx(ctx context.Context, fn func(Store) error) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(pgStore{queries: r.queries.WithTx(tx)})
	})
}

type pgStore struct {
	queries *sqlc.Queries
}

func (s pgStore) UpsertUser(ctx context.Context, user User) (User, error) {
	row, err := s.queries.UpsertUser(ctx, sqlc.UpsertUserParams{
		ID:       user.ID,
		Username: textToPg(user.Username),
		FullName: user.FullName,
	})
	if err != nil {
		return User{}, fmt.Errorf("upsert user: %w", err)
	}
	return userFromRow(row), nil
}

func (s pgStore) GetUser(ctx context.Context, id int64) (User, error) {
	row, err := s.queries.GetUser(ctx, id)
	if err != nil {
		return User{}, notFound(err, ErrUserNotFound)
	}
	return userFromRow(row), nil
}

func (s pgStore) CreateBox(ctx context.Context, box Box) (Box, error) {
	row, err := s.queries.CreateBox(ctx, sqlc.CreateBoxParams{
		Name:         box.Name,
		JoinCode:     box.JoinCode,
		FinalRegDate: dateToPg(box.FinalRegDate),
		MaxGiftPrice: box.MaxGiftPrice,
		GiftDate:     dateToPg(box.GiftDate),
		AdminID:      box.AdminID,
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return Box{}, ErrJoinCodeTaken
		}
		return Box{}, fmt.Errorf("create box: %w", err)
	}
	return boxFromRow(row), nil
}

func (s pgStore) GetBox(ctx context.Context, id int64) (Box, error) {
	row, err := s.queries.GetBox(ctx, id)
	if err != nil {
		return Box{}, notFound(err, ErrBoxNotFound)
	}
	return boxFromRow(row), nil
}

func (s pgStore) LockBox(ctx context.Context, id int64) (Box, error) {
	row, err := s.queries.GetBoxForUpdate(ctx, id)
	if err != nil {
		return Box{}, notFound(err, ErrBoxNotFound)
	}
	return boxFromRow(row), nil
}

func (s pgStore) GetBoxByJoinCode(ctx context.Context, code string) (Box, error) {
	row, err := s.queries.GetBoxByJoinCode(ctx, code)
	if err != nil {
		return Box{}, notFound(err, ErrBoxNotFound)
	}
	return boxFromRow(row), nil
}

func (s pgStore) DeleteBox(ctx context.Context, id int64) error {
	affected, err := s.queries.DeleteBox(ctx, id)
	if err != nil {
		return fmt.Errorf("delete box: %w", err)
	}
	if affected == 0 {
		return ErrBoxNotFound
	}
	return nil
}

func (s pgStore) ListBoxesForUser(ctx context.Context, userID int64) ([]Box, error) {
	rows, err := s.queries.ListBoxesForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list boxes: %w", err)
	}
	items := make([]Box, 0, len(rows))
	for _, row := range rows {
		items = append(items, boxFromRow(row))
	}
	return items, nil
}

func (s pgStore) ListOpenBoxesClosingBetween(ctx context.Context, from, to time.Time) ([]Box, error) {
	rows, err := s.queries.ListOpenBoxesClosingBetween(ctx, sqlc.ListOpenBoxesClosingBetweenParams{
		FinalRegDate:   dateToPg(from),
		FinalRegDate_2: dateToPg(to),
	})
	if err != nil {
		return nil, fmt.Errorf("list closing boxes: %w", err)
	}
	items := make([]Box, 0, len(rows))
	for _, row := range rows {
		items = append(items, boxFromRow(row))
	}
	return items, nil
}

func (s pgStore) CreateParticipation(ctx context.Context, userID, boxID int64) (Participation, error) {
	row, err := s.queries.CreateParticipation(ctx, sqlc.CreateParticipationParams{UserID: userID, BoxID: boxID})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return Participation{}, ErrAlreadyMember
		}
		return Participation{}, fmt.Errorf("create participation: %w", err)
	}
	return participationFromRow(row)
}

func (s pgStore) GetParticipation(ctx context.Context, userID, boxID int64) (Participation, error) {
	row, err := s.queries.GetParticipation(ctx, sqlc.GetParticipationParams{UserID: userID, BoxID: boxID})
	if err != nil {
		return Participation{}, notFound(err, ErrNotMember)
	}
	return participationFromRow(row)
}

func (s pgStore) LockParticipation(ctx context.Context, userID, boxID int64) (Participation, error) {
	row, err := s.queries.GetParticipationForUpdate(ctx, sqlc.GetParticipationForUpdateParams{UserID: userID, BoxID: boxID})
	if err != nil {
		return Participation{}, notFound(err, ErrNotMember)
	}
	return participationFromRow(row)
}

func (s pgStore) ListParticipations(ctx context.Context, boxID int64) ([]Participation, error) {
	rows, err := s.queries.ListParticipations(ctx, boxID)
	if err != nil {
		return nil, fmt.Errorf("list participations: %w", err)
	}
	items := make([]Participation, 0, len(rows))
	for _, row := range rows {
		item, err := participationFromRow(row)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (s pgStore) UpdateProfile(ctx context.Context, userID, boxID int64, profile map[string]string) (bool, error) {
	if profile == nil {
		profile = map[string]string{}
	}
	payload, err := json.Marshal(profile)
	if err != nil {
		return false, err
	}
	affected, err := s.queries.UpdateProfile(ctx, sqlc.UpdateProfileParams{UserID: userID, BoxID: boxID, Profile: payload})
	if err != nil {
		return false, fmt.Errorf("update profile: %w", err)
	}
	return affected == 1, nil
}

func (s pgStore) AssignReceiver(ctx context.Context, boxID, giverID, receiverID int64) (bool, error) {
	affected, err := s.queries.AssignReceiver(ctx, sqlc.AssignReceiverParams{
		UserID:       giverID,
		BoxID:        boxID,
		UserGiftToID: pgtype.Int8{Int64: receiverID, Valid: true},
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return false, ErrReceiverTaken
		}
		return false, fmt.Errorf("assign receiver: %w", err)
	}
	return affected == 1, nil
}

func (s pgStore) FindSanta(ctx context.Context, boxID, receiverID int64) (Participation, error) {
	row, err := s.queries.GetSanta(ctx, sqlc.GetSantaParams{
		BoxID:        boxID,
		UserGiftToID: pgtype.Int8{Int64: receiverID, Valid: true},
	})
	if err != nil {
		return Participation{}, notFound(err, ErrNotMember)
	}
	return participationFromRow(row)
}

func (s pgStore) CreateGift(ctx context.Context, gift Gift) (Gift, error) {
	price := pgtype.Float8{}
	if gift.Price != nil {
		price = pgtype.Float8{Float64: *gift.Price, Valid: true}
	}
	row, err := s.queries.CreateGift(ctx, sqlc.CreateGiftParams{
		BoxID:   gift.BoxID,
		UserID:  gift.UserID,
		GiftUrl: gift.URL,
		Price:   price,
		Name:    textToPg(gift.Name),
		IsExact: gift.IsExact,
	})
	if err != nil {
		return Gift{}, fmt.Errorf("create gift: %w", err)
	}
	return giftFromRow(row), nil
}

func (s pgStore) GetGift(ctx context.Context, id int64) (Gift, error) {
	row, err := s.queries.GetGift(ctx, id)
	if err != nil {
		return Gift{}, notFound(err, ErrGiftNotFound)
	}
	return giftFromRow(row), nil
}

func (s pgStore) ListGifts(ctx context.Context, boxID, userID int64) ([]Gift, error) {
	rows, err := s.queries.ListGifts(ctx, sqlc.ListGiftsParams{BoxID: boxID, UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("list gifts: %w", err)
	}
	items := make([]Gift, 0, len(rows))
	for _, row := range rows {
		items = append(items, giftFromRow(row))
	}
	return items, nil
}

func (s pgStore) DeleteGift(ctx context.Context, id int64) error {
	affected, err := s.queries.DeleteGift(ctx, id)
	if err != nil {
		return fmt.Errorf("delete gift: %w", err)
	}
	if affected == 0 {
		return ErrGiftNotFound
	}
	return nil
}

func notFound(err, sentinel error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return sentinel
	}
	return err
}

func userFromRow(row sqlc.User) User {
	return User{
		ID:           row.ID,
		Username:     row.Username.String,
		FullName:     row.FullName,
		RegisteredAt: timeFromPg(row.DateReg),
	}
}

func boxFromRow(row sqlc.Box) Box {
	return Box{
		ID:           row.ID,
		Name:         row.Name,
		JoinCode:     row.JoinCode,
		FinalRegDate: dateFromPg(row.FinalRegDate),
		MaxGiftPrice: row.MaxGiftPrice,
		GiftDate:     dateFromPg(row.GiftDate),
		AdminID:      row.AdminID,
		CreatedAt:    timeFromPg(row.CreatedAt),
	}
}

func participationFromRow(row sqlc.UserRoom) (Participation, error) {
	profile := map[string]string{}
	if len(row.Profile) > 0 {
		if err := json.Unmarshal(row.Profile, &profile); err != nil {
			return Participation{}, fmt.Errorf("decode profile of user %d: %w", row.UserID, err)
		}
	}
	item := Participation{
		UserID:   row.UserID,
		BoxID:    row.BoxID,
		Profile:  profile,
		JoinedAt: timeFromPg(row.JoinedAt),
	}
	if row.UserGiftToID.Valid {
		id := row.UserGiftToID.Int64
		item.ReceiverID = &id
	}
	return item, nil
}

func giftFromRow(row sqlc.Gift) Gift {
	item := Gift{
		ID:        row.ID,
		BoxID:     row.BoxID,
		UserID:    row.UserID,
		URL:       row.GiftUrl,
		Name:      row.Name.String,
		IsExact:   row.IsExact,
		CreatedAt: timeFromPg(row.CreatedAt),
	}
	if row.Price.Valid {
		price := row.Price.Float64
		item.Price = &price
	}
	return item
}

func textToPg(value string) pgtype.Text {
	value = strings.TrimSpace(value)
	return pgtype.Text{String: value, Valid: value != ""}
}

func dateToPg(value time.Time) pgtype.Date {
	return pgtype.Date{Time: value, Valid: !value.IsZero()}
}

func dateFromPg(value pgtype.Date) time.Time {
	if value.Valid {
		return value.Time
	}
	return time.Time{}
}

func timeFromPg(value pgtype.Timestamptz) time.Time {
	if value.Valid {
		return value.Time
	}
	return time.Time{}
}
