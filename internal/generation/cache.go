package generation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// responseCache is a best-effort Redis-backed cache for generated text,
// keyed on a hash of the prompt and options. Grounded on the pack's
// redis-backed skills cache: nil-receiver-safe, never propagates a cache
// failure to the caller, and degrades silently when Redis is unreachable.
// Mirrors original_source/core/llm/providers.py's lazy litellm.Cache(db=1)
// wiring.
type responseCache struct {
	client redis.UniversalClient
	ttl    time.Duration
	log    zerolog.Logger
}

func newResponseCache(client redis.UniversalClient, ttlSeconds int, log zerolog.Logger) *responseCache {
	if ttlSeconds <= 0 {
		ttlSeconds = 900
	}
	return &responseCache{client: client, ttl: time.Duration(ttlSeconds) * time.Second, log: log}
}

func cacheKey(backend, systemPrompt, userPrompt string, opts Options) string {
	h := sha256.New()
	h.Write([]byte(backend))
	h.Write([]byte{0})
	h.Write([]byte(opts.Model))
	h.Write([]byte{0})
	fmt.Fprintf(h, "%g|%d|%t", opts.Temperature, opts.MaxTokens, opts.JSONMode)
	h.Write([]byte{0})
	h.Write([]byte(systemPrompt))
	h.Write([]byte{0})
	h.Write([]byte(userPrompt))
	return "generation:response:" + hex.EncodeToString(h.Sum(nil))
}

func (c *responseCache) Get(ctx context.Context, key string) (string, bool) {
	if c == nil || c.client == nil {
		return "", false
	}
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Debug().Err(err).Msg("generation_cache_get_failed")
		}
		return "", false
	}
	return val, true
}

func (c *responseCache) Set(ctx context.Context, key, value string) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Set(ctx, key, value, c.ttl).Err(); err != nil {
		c.log.Debug().Err(err).Msg("generation_cache_set_failed")
	}
}
