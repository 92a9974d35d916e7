package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	sessionCachePrefix = "session:"
	sessionCacheMaxTTL = 10 * time.Minute
)

// sessionCache keeps resolved sessions in Redis. A nil client or a Redis
// failure degrades to a cache miss.
type sessionCache struct {
	client *redis.Client
	log    zerolog.Logger
}

func (c *sessionCache) get(ctx context.Context, sid string) (*SessionInfo, bool) {
	if c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, sessionCachePrefix+sid).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn().Err(err).Msg("session cache read failed")
		}
		return nil, false
	}
	var info SessionInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		c.log.Warn().Err(err).Msg("session cache entry is corrupt")
		return nil, false
	}
	return &info, true
}

func (c *sessionCache) set(ctx context.Context, info *SessionInfo, ttl time.Duration) {
	if c.client == nil || ttl <= 0 {
		return
	}
	if ttl > sessionCacheMaxTTL {
		ttl = sessionCacheMaxTTL
	}
	raw, err := json.Marshal(info)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, sessionCachePrefix+info.Session.ID, raw, ttl).Err(); err != nil {
		c.log.Warn().Err(err).Msg("session cache write failed")
	}
}

func (c *sessionCache) del(ctx context.Context, sid string) {
	if c.client == nil {
		return
	}
	if err := c.client.Del(ctx, sessionCachePrefix+sid).Err(); err != nil {
		c.log.Warn().Err(err).Msg("session cache delete failed")
	}
}
