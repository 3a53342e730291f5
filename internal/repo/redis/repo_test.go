package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
)

func newMiniRedisClient(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	client := NewClient(mr.Addr(), "", 0)
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return mr, client
}

func TestRateRepoWindowExpires(t *testing.T) {
	mr, client := newMiniRedisClient(t)
	repo := NewRateRepo(client)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		count, ttl, err := repo.IncrementWindow(ctx, "rate:test", time.Minute)
		if err != nil {
			t.Fatalf("increment #%d: %v", want, err)
		}
		if count != want {
			t.Fatalf("unexpected count: got %d want %d", count, want)
		}
		if ttl <= 0 || ttl > time.Minute {
			t.Fatalf("unexpected ttl: %s", ttl)
		}
	}

	mr.FastForward(61 * time.Second)

	count, _, err := repo.WindowState(ctx, "rate:test")
	if err != nil {
		t.Fatalf("window state: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected window to reset, got %d", count)
	}
}

func TestDedupRepoFirstSeen(t *testing.T) {
	mr, client := newMiniRedisClient(t)
	repo := NewDedupRepo(client)
	ctx := context.Background()

	first, err := repo.FirstSeen(ctx, "effect-1", time.Hour)
	if err != nil || !first {
		t.Fatalf("first call: first=%v err=%v", first, err)
	}
	again, err := repo.FirstSeen(ctx, "effect-1", time.Hour)
	if err != nil || again {
		t.Fatalf("second call: first=%v err=%v", again, err)
	}

	mr.FastForward(2 * time.Hour)

	expired, err := repo.FirstSeen(ctx, "effect-1", time.Hour)
	if err != nil || !expired {
		t.Fatalf("after ttl: first=%v err=%v", expired, err)
	}
}
