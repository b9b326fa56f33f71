package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const (
	stateKeyPrefix = "santa:fsm:"
	lockKeyPrefix  = "santa:lock:"
)

// NewRedisClient builds a client from a redis:// URL and checks that the server answers.
func NewRedisClient(ctx context.Context, rawURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// RedisStore keeps states as JSON values whose key TTL is the inactivity timeout.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl, now: time.Now}
}

func stateKey(userID int64) string {
	return stateKeyPrefix + strconv.FormatInt(userID, 10)
}

func (s *RedisStore) Get(ctx context.Context, userID int64) (State, bool, error) {
	raw, err := s.client.Get(ctx, stateKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return State{}, false, nil
	}
	if err != nil {
		return State{}, false, fmt.Errorf("get state: %w", err)
	}
	var st State
	if err := json.Unmarshal(raw, &st); err != nil {
		return State{}, false, fmt.Errorf("decode state: %w", err)
	}
	return st, true, nil
}

func (s *RedisStore) Put(ctx context.Context, st State) (State, error) {
	key := stateKey(st.UserID)
	var saved State
	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		var current int64
		raw, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			var existing State
			if err := json.Unmarshal(raw, &existing); err != nil {
				return fmt.Errorf("decode state: %w", err)
			}
			current = existing.Version
		}
		if current != st.Version {
			return ErrVersionConflict
		}
		next := st
		next.Version++
		next.UpdatedAt = s.now()
		payload, err := json.Marshal(next)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, s.ttl)
			return nil
		})
		if err != nil {
			return err
		}
		saved = next
		return nil
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		return State{}, ErrVersionConflict
	}
	if err != nil {
		return State{}, err
	}
	return saved, nil
}

func (s *RedisStore) Delete(ctx context.Context, userID int64) error {
	if err := s.client.Del(ctx, stateKey(userID)).Err(); err != nil {
		return fmt.Errorf("delete state: %w", err)
	}
	return nil
}

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLocker is a SET NX lease per user, released only by its holder.
type RedisLocker struct {
	client *redis.Client
	lease  time.Duration
	retry  time.Duration
}

func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{client: client, lease: 30 * time.Second, retry: 25 * time.Millisecond}
}

func (l *RedisLocker) Lock(ctx context.Context, userID int64) (func(), error) {
	key := lockKeyPrefix + strconv.FormatInt(userID, 10)
	token := uuid.NewString()
	ticker := time.NewTicker(l.retry)
	defer ticker.Stop()
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.lease).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lock: %w", err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
	return func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err()
	}, nil
}
