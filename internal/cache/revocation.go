package cache

import (
	"context"
	"time"
)

func blacklistKey(token string) string {
	return "blacklist:" + token
}

// Revoke blacklists token until it would have expired anyway.
func (c *Cache) Revoke(ctx context.Context, token string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	return c.rdb.Set(ctx, blacklistKey(token), 1, ttl).Err()
}

func (c *Cache) IsRevoked(ctx context.Context, token string) (bool, error) {
	n, err := c.rdb.Exists(ctx, blacklistKey(token)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
