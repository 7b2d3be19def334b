package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/studyhub/materials-portal/internal/core/domain"
	"github.com/studyhub/materials-portal/internal/core/ports"
)

const defaultCacheTTL = 5 * time.Minute

// MaterialCache keeps branch listings in Redis.
// Key format:
//
//	materials:branch:<branch>:gen        generation counter, bumped by Invalidate
//	materials:branch:<branch>:v<gen>     listing cached at that generation
//
// Listings of superseded generations are never read again and expire with the
// TTL.
//
// Every Redis error is logged and treated as a miss, so an unavailable Redis
// degrades to reading the metadata store directly. A nil *MaterialCache is a
// valid always-miss cache.
type MaterialCache struct {
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

var _ ports.MaterialCache = (*MaterialCache)(nil)

// NewMaterialCache wraps client. A non-positive ttl uses defaultCacheTTL.
func NewMaterialCache(client *redis.Client, ttl time.Duration, log zerolog.Logger) *MaterialCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &MaterialCache{client: client, ttl: ttl, log: log}
}

func (c *MaterialCache) Get(ctx context.Context, branch string) ([]domain.Material, int64, bool) {
	if c == nil || c.client == nil {
		return nil, -1, false
	}

	gen, err := c.client.Get(ctx, genKey(branch)).Int64()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Debug().Err(err).Str("branch", branch).Msg("cache generation read failed")
			return nil, -1, false
		}
		gen = 0
	}

	raw, err := c.client.Get(ctx, listKey(branch, gen)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Debug().Err(err).Str("branch", branch).Msg("cache get failed")
		}
		return nil, gen, false
	}

	var materials []domain.Material
	if err := json.Unmarshal(raw, &materials); err != nil {
		c.log.Debug().Err(err).Str("branch", branch).Msg("cache entry unreadable")
		return nil, gen, false
	}
	if materials == nil {
		materials = []domain.Material{}
	}
	return materials, gen, true
}

func (c *MaterialCache) Set(ctx context.Context, branch string, gen int64, materials []domain.Material) {
	if c == nil || c.client == nil || gen < 0 {
		return
	}
	raw, err := json.Marshal(materials)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, listKey(branch, gen), raw, c.ttl).Err(); err != nil {
		c.log.Debug().Err(err).Str("branch", branch).Msg("cache set failed")
	}
}

// Invalidate moves the branch to a new generation.
func (c *MaterialCache) Invalidate(ctx context.Context, branch string) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Incr(ctx, genKey(branch)).Err(); err != nil {
		c.log.Warn().Err(err).Str("branch", branch).Msg("cache invalidate failed")
	}
}

func (c *MaterialCache) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return errors.New("redis: cache disabled")
	}
	return c.client.Ping(ctx).Err()
}

func genKey(branch string) string {
	return "materials:branch:" + branch + ":gen"
}

func listKey(branch string, gen int64) string {
	return "materials:branch:" + branch + ":v" + strconv.FormatInt(gen, 10)
}
