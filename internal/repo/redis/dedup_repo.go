package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const effectSeenPrefix = "effects:seen:"

// DedupRepo remembers effect ids that were already delivered.
type DedupRepo struct {
	client *goredis.Client
}

func NewDedupRepo(client *goredis.Client) *DedupRepo {
	return &DedupRepo{client: client}
}

// FirstSeen marks id as delivered and reports whether this call was the
// first one within ttl.
func (r *DedupRepo) FirstSeen(ctx context.Context, id string, ttl time.Duration) (bool, error) {
	if r.client == nil {
		return false, fmt.Errorf("redis client is nil")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return false, fmt.Errorf("effect id is required")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	ok, err := r.client.SetNX(ctx, effectSeenPrefix+id, time.Now().UTC().Unix(), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("mark effect seen: %w", err)
	}
	return ok, nil
}
