package probe

import (
	"context"
	"fmt"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"

	"mixdown/internal/fileutil"
	"mixdown/internal/logging"
)

// Cached memoizes successful probes by the SHA256 of the payload. Failures are
// never cached.
type Cached struct {
	next     Prober
	cache    *lru.Cache[string, float64]
	logger   *slog.Logger
	method   string
	observer func(method string, hit bool)
}

// NewCached wraps next with an LRU of the given size.
func NewCached(next Prober, size int) (*Cached, error) {
	cache, err := lru.New[string, float64](size)
	if err != nil {
		return nil, fmt.Errorf("probe cache: %w", err)
	}
	return &Cached{next: next, cache: cache, logger: logging.NewNop()}, nil
}

func (c *Cached) Duration(ctx context.Context, data []byte) (float64, error) {
	key := fileutil.Digest(data)
	if seconds, ok := c.cache.Get(key); ok {
		c.observe(true)
		c.logger.Debug("probe cache hit", logging.String("digest", key[:12]), logging.Float64("seconds", seconds))
		return seconds, nil
	}
	c.observe(false)
	seconds, err := c.next.Duration(ctx, data)
	if err != nil {
		return 0, err
	}
	c.cache.Add(key, seconds)
	return seconds, nil
}

// Len reports the number of cached entries.
func (c *Cached) Len() int { return c.cache.Len() }

func (c *Cached) observe(hit bool) {
	if c.observer != nil {
		c.observer(c.method, hit)
	}
}
