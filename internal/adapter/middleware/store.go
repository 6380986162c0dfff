package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// pendingTTL bounds how long a reservation survives a crashed handler.
const pendingTTL = 60 * time.Second

var errNoEntry = errors.New("idempotency: no entry")

// replayEntry is what the store keeps under a request key. A pending entry marks
// a request still being served; a completed one carries the response to replay.
type replayEntry struct {
	Pending   bool      `json:"pending"`
	Status    int       `json:"status,omitempty"`
	Body      []byte    `json:"body,omitempty"`
	BodyHash  string    `json:"body_hash"`
	RequestAt time.Time `json:"request_at"`
	StoredAt  time.Time `json:"stored_at"`
}

func (e replayEntry) replayable() bool {
	return !e.Pending && e.Status != 0 && len(e.Body) > 0
}

type replayStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// reserve claims key for a new request. It reports false when the key is taken.
func (s replayStore) reserve(ctx context.Context, key string, e replayEntry) (bool, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return false, err
	}
	return s.rdb.SetNX(ctx, key, payload, pendingTTL).Result()
}

func (s replayStore) get(ctx context.Context, key string) (replayEntry, error) {
	var e replayEntry
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return e, errNoEntry
	}
	if err != nil {
		return e, err
	}
	if err := json.Unmarshal(raw, &e); err != nil {
		return e, err
	}
	return e, nil
}

// complete replaces the reservation with the final response for the replay window.
func (s replayStore) complete(ctx context.Context, key string, e replayEntry) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, key, payload, s.ttl).Err()
}

// release drops a reservation so the client may retry with the same key.
func (s replayStore) release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}
