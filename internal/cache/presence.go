package cache

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// PresenceTTL bounds how long a crashed instance can keep a user online.
const PresenceTTL = 90 * time.Second

func presenceKey(id uuid.UUID) string {
	return "presence:" + id.String()
}

// SetOnline marks the user online until ttl passes without a refresh.
func (c *Cache) SetOnline(ctx context.Context, userID uuid.UUID, ttl time.Duration) error {
	return c.rdb.Set(ctx, presenceKey(userID), 1, ttl).Err()
}

func (c *Cache) SetOffline(ctx context.Context, userID uuid.UUID) error {
	return c.rdb.Del(ctx, presenceKey(userID)).Err()
}

// Online reports which of ids currently have a live presence flag.
func (c *Cache) Online(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]bool, error) {
	online := make(map[uuid.UUID]bool, len(ids))
	if len(ids) == 0 {
		return online, nil
	}
	keys := lo.Map(ids, func(id uuid.UUID, _ int) string { return presenceKey(id) })
	values, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil && err != redis.Nil {
		return nil, err
	}
	for i, v := range values {
		if v != nil {
			online[ids[i]] = true
		}
	}
	return online, nil
}
