package rate

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	redrepo "github.com/ivankudzin/automarket/backend/internal/repo/redis"
)

func TestLimiterBlocksAfterLimit(t *testing.T) {
	mr, client := newMiniRedisClient(t)
	defer mr.Close()
	defer func() { _ = client.Close() }()

	limiter := NewLimiter(redrepo.NewRateRepo(client), "reports", 3, 10*time.Minute)

	ctx := context.Background()
	userID := int64(42)

	for i := 0; i < 3; i++ {
		retryAfter, allowed, err := limiter.Allow(ctx, userID)
		if err != nil {
			t.Fatalf("allow #%d: %v", i+1, err)
		}
		if !allowed || retryAfter != 0 {
			t.Fatalf("unexpected result on allow #%d: allowed=%v retry_after=%d", i+1, allowed, retryAfter)
		}
	}

	retryAfter, allowed, err := limiter.Allow(ctx, userID)
	if err != nil {
		t.Fatalf("allow #4: %v", err)
	}
	if allowed {
		t.Fatalf("expected limiter block on fourth action in window")
	}
	if retryAfter <= 0 || retryAfter > 600 {
		t.Fatalf("unexpected retry_after: %d", retryAfter)
	}

	currentRetry, err := limiter.RetryAfter(ctx, userID)
	if err != nil {
		t.Fatalf("retry_after state: %v", err)
	}
	if currentRetry <= 0 {
		t.Fatalf("expected positive retry_after state, got %d", currentRetry)
	}

	if _, allowed, _ := limiter.Allow(ctx, 43); !allowed {
		t.Fatalf("other users must not share the window")
	}

	mr.FastForward(11 * time.Minute)

	retryAfter, allowed, err = limiter.Allow(ctx, userID)
	if err != nil {
		t.Fatalf("allow after window: %v", err)
	}
	if !allowed || retryAfter != 0 {
		t.Fatalf("unexpected result after fast forward: allowed=%v retry_after=%d", allowed, retryAfter)
	}
}

func TestLimiterZeroLimitDisables(t *testing.T) {
	limiter := NewLimiter(nil, "reports", 0, time.Minute)

	for i := 0; i < 10; i++ {
		if _, allowed, err := limiter.Allow(context.Background(), 1); err != nil || !allowed {
			t.Fatalf("disabled limiter blocked: allowed=%v err=%v", allowed, err)
		}
	}
}

func newMiniRedisClient(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}

	client := goredis.NewClient(&goredis.Options{
		Addr: mr.Addr(),
	})

	return mr, client
}
