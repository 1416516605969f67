package generation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"marketintel/internal/config"
)

const maxRetries = 3

// cloudInterCallGap serializes calls to a rate-limited cloud backend with a
// one-second gap, mirroring the throttling the upstream pipeline applies
// when litellm is routed at a paid provider rather than a local Ollama
// instance.
const cloudInterCallGap = time.Second

// Client wraps a Backend with the concurrency, caching, and retry behavior
// every caller needs regardless of which vendor is configured. Grounded on
// original_source/core/llm/providers.py: a semaphore bounds concurrent
// calls (sized from settings.ollama_max_concurrent), a Redis cache avoids
// redundant generations, and cloud backends are additionally rate-gapped.
type Client struct {
	backend Backend
	cache   *responseCache
	sem     *semaphore.Weighted
	isCloud bool
	log     zerolog.Logger

	mu       sync.Mutex
	lastCall time.Time
}

// NewClient builds a Client. redisClient may be nil, in which case the
// response cache is a no-op.
func NewClient(backend Backend, cfg *config.Settings, redisClient redis.UniversalClient, log zerolog.Logger) *Client {
	concurrency := int64(cfg.OllamaMaxConcurrent)
	if concurrency < 1 {
		concurrency = 1
	}
	return &Client{
		backend: backend,
		cache:   newResponseCache(redisClient, cfg.LLMCacheTTLSeconds, log),
		sem:     semaphore.NewWeighted(concurrency),
		isCloud: cfg.IsCloudProvider(),
		log:     log,
	}
}

// Generate produces text for the given prompts, serving from cache when
// possible and calling the backend at most maxRetries times in all when it
// keeps failing.
func (c *Client) Generate(ctx context.Context, systemPrompt, userPrompt string, opts Options) (string, error) {
	key := cacheKey(c.backend.Name(), systemPrompt, userPrompt, opts)
	if cached, ok := c.cache.Get(ctx, key); ok {
		return cached, nil
	}

	if err := c.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("generation: acquire concurrency slot: %w", err)
	}
	defer c.sem.Release(1)

	c.throttleForCloud()

	var (
		out string
		err error
	)
	for attempt := 0; attempt < maxRetries; attempt++ {
		out, err = c.backend.Generate(ctx, systemPrompt, userPrompt, opts)
		if err == nil {
			break
		}
		c.log.Debug().Err(err).Str("backend", c.backend.Name()).Int("attempt", attempt+1).Msg("generation_retry")
	}
	if err != nil {
		return "", fmt.Errorf("generation: %s backend failed after %d attempts: %w", c.backend.Name(), maxRetries, err)
	}

	c.cache.Set(ctx, key, out)
	return out, nil
}

// GenerateStream streams generated text token by token through onToken. If
// the underlying backend does not support native streaming, it falls back
// to a single Generate call replayed word by word.
func (c *Client) GenerateStream(ctx context.Context, systemPrompt, userPrompt string, opts Options, onToken func(string)) error {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("generation: acquire concurrency slot: %w", err)
	}
	defer c.sem.Release(1)

	c.throttleForCloud()

	if sb, ok := c.backend.(StreamBackend); ok {
		return sb.GenerateStream(ctx, systemPrompt, userPrompt, opts, onToken)
	}

	text, err := c.backend.Generate(ctx, systemPrompt, userPrompt, opts)
	if err != nil {
		return fmt.Errorf("generation: %s backend failed: %w", c.backend.Name(), err)
	}
	for _, word := range splitWords(text) {
		onToken(word)
	}
	return nil
}

func (c *Client) throttleForCloud() {
	if !c.isCloud {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if wait := cloudInterCallGap - time.Since(c.lastCall); wait > 0 {
		time.Sleep(wait)
	}
	c.lastCall = time.Now()
}

func splitWords(text string) []string {
	var words []string
	var current []byte
	flush := func() {
		if len(current) > 0 {
			words = append(words, string(current)+" ")
			current = current[:0]
		}
	}
	for i := 0; i < len(text); i++ {
		if text[i] == ' ' || text[i] == '\n' || text[i] == '\t' {
			flush()
			continue
		}
		current = append(current, text[i])
	}
	flush()
	return words
}
