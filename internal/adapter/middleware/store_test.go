package middleware

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newStore(t *testing.T, ttl time.Duration) (*miniredis.Miniredis, replayStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, replayStore{rdb: rdb, ttl: ttl}
}

func TestReplayStore_ReserveIsExclusive(t *testing.T) {
	mr, s := newStore(t, time.Minute)
	ctx := context.Background()
	e := replayEntry{Pending: true, BodyHash: digest([]byte(`{}`))}

	ok, err := s.reserve(ctx, "k", e)
	if err != nil || !ok {
		t.Fatalf("first reserve: ok=%v err=%v", ok, err)
	}
	if ttl := mr.TTL("k"); ttl <= 0 || ttl > pendingTTL {
		t.Fatalf("reservation ttl = %v", ttl)
	}
	ok, err = s.reserve(ctx, "k", e)
	if err != nil || ok {
		t.Fatalf("second reserve: ok=%v err=%v", ok, err)
	}

	got, err := s.get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.Pending || got.BodyHash != e.BodyHash || got.replayable() {
		t.Fatalf("stored entry = %+v", got)
	}
}

func TestReplayStore_CompleteUsesReplayTTL(t *testing.T) {
	mr, s := newStore(t, 5*time.Minute)
	ctx := context.Background()

	if _, err := s.reserve(ctx, "k", replayEntry{Pending: true}); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := s.complete(ctx, "k", replayEntry{Status: 201, Body: []byte(`{"id":1}`)}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if ttl := mr.TTL("k"); ttl <= pendingTTL || ttl > 5*time.Minute {
		t.Fatalf("final ttl = %v", ttl)
	}
	got, err := s.get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.replayable() || got.Status != 201 || string(got.Body) != `{"id":1}` {
		t.Fatalf("final entry = %+v", got)
	}
}

func TestReplayStore_ReleaseAndMissing(t *testing.T) {
	mr, s := newStore(t, time.Minute)
	ctx := context.Background()

	if _, err := s.get(ctx, "nope"); !errors.Is(err, errNoEntry) {
		t.Fatalf("missing key err = %v", err)
	}
	if _, err := s.reserve(ctx, "k", replayEntry{Pending: true}); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := s.release(ctx, "k"); err != nil {
		t.Fatalf("release: %v", err)
	}
	if mr.Exists("k") {
		t.Fatal("key should be gone after release")
	}

	mr.Set("bad", "{not json")
	if _, err := s.get(ctx, "bad"); err == nil || errors.Is(err, errNoEntry) {
		t.Fatalf("corrupt entry err = %v", err)
	}
}
