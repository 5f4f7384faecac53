package dedupe

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"realia_backend/platform/logger"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewWithClient(client, logger.New("development")), mr
}

func TestFirstSeenOncePerMessage(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	if !store.FirstSeen(ctx, "wamid.123") {
		t.Fatalf("first delivery reported as duplicate")
	}
	if store.FirstSeen(ctx, "wamid.123") {
		t.Fatalf("second delivery reported as first")
	}
	if !store.FirstSeen(ctx, "wamid.456") {
		t.Fatalf("different message id reported as duplicate")
	}
}

func TestFirstSeenExpires(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	store.FirstSeen(ctx, "wamid.123")
	mr.FastForward(Window + 1)

	if !store.FirstSeen(ctx, "wamid.123") {
		t.Fatalf("expired id still reported as duplicate")
	}
}

func TestNilAndEmptyAreFirstSeen(t *testing.T) {
	var nilStore *Store
	if !nilStore.FirstSeen(context.Background(), "wamid.123") {
		t.Fatalf("nil store must treat everything as first-seen")
	}

	store, _ := newTestStore(t)
	if !store.FirstSeen(context.Background(), "") {
		t.Fatalf("empty message id must pass through")
	}
}

func TestFirstSeenRedisDownFailsOpen(t *testing.T) {
	store, mr := newTestStore(t)
	mr.Close()

	if !store.FirstSeen(context.Background(), "wamid.123") {
		t.Fatalf("redis outage must not drop messages")
	}
}
