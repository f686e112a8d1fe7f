package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Denylist stores revoked token hashes until the token would have
// expired anyway. Used to make logout effective for bearer tokens.
type Denylist struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func NewDenylist(rdb *redis.Client, logger *zap.Logger) *Denylist {
	return &Denylist{rdb: rdb, logger: logger}
}

// Revoke marks a token hash as unusable until expiresAt.
func (d *Denylist) Revoke(ctx context.Context, tokenHash string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		// already expired, nothing to store
		return nil
	}
	return d.rdb.Set(ctx, "denylist:"+tokenHash, 1, ttl).Err()
}

// IsRevoked reports whether a token hash has been revoked. When Redis is
// unreachable the check fails open so an auth outage does not take the
// API down with it.
func (d *Denylist) IsRevoked(ctx context.Context, tokenHash string) bool {
	n, err := d.rdb.Exists(ctx, "denylist:"+tokenHash).Result()
	if err != nil {
		d.logger.Warn("denylist check failed, allowing token", zap.Error(err))
		return false
	}
	return n > 0
}
