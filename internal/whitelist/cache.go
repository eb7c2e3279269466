package whitelist

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// MembershipStore is the persistence surface the directory caches over.
type MembershipStore interface {
	IsWhitelisted(ctx context.Context, distributorCode string) (bool, error)
}

// Directory answers whitelist membership checks with a short-TTL Redis cache
// in front of the repository. Concurrent misses for the same distributor are
// collapsed through singleflight so a hot ingestion batch hits PostgreSQL at
// most once per code.
type Directory struct {
	store  MembershipStore
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
	log    *slog.Logger
}

// NewDirectory constructs a cached membership directory. A nil client is
// allowed and disables caching, which the tests use.
func NewDirectory(store MembershipStore, client *redis.Client, ttl time.Duration, log *slog.Logger) *Directory {
	return &Directory{store: store, client: client, ttl: ttl, log: log}
}

func cacheKey(distributorCode string) string {
	return "whitelist:member:" + distributorCode
}

// IsWhitelisted reports membership, serving from cache when possible. Cache
// failures degrade to the repository rather than failing the check.
func (d *Directory) IsWhitelisted(ctx context.Context, distributorCode string) (bool, error) {
	if d.client != nil {
		val, err := d.client.Get(ctx, cacheKey(distributorCode)).Result()
		switch {
		case err == nil:
			return val == "1", nil
		case err != redis.Nil:
			d.log.Warn("whitelist cache read failed", "distributor_code", distributorCode, "error", err)
		}
	}

	v, err, _ := d.group.Do(distributorCode, func() (any, error) {
		member, err := d.store.IsWhitelisted(ctx, distributorCode)
		if err != nil {
			return false, err
		}
		if d.client != nil {
			val := "0"
			if member {
				val = "1"
			}
			if err := d.client.Set(ctx, cacheKey(distributorCode), val, d.ttl).Err(); err != nil {
				d.log.Warn("whitelist cache write failed", "distributor_code", distributorCode, "error", err)
			}
		}
		return member, nil
	})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

// Invalidate drops cached membership for the given codes. Called after a
// whitelist upload so new members take effect immediately.
func (d *Directory) Invalidate(ctx context.Context, distributorCodes []string) {
	if d.client == nil || len(distributorCodes) == 0 {
		return
	}
	keys := make([]string, len(distributorCodes))
	for i, code := range distributorCodes {
		keys[i] = cacheKey(code)
	}
	if err := d.client.Del(ctx, keys...).Err(); err != nil {
		d.log.Warn("whitelist cache invalidation failed", "keys", len(keys), "error", err)
	}
}
