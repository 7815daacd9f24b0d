// Package directory decorates the workshop directories with a snapshot cache and
// a per-lookup deadline.
package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/branch-workshop/service-booking/internal/common/domain"
	dir "github.com/branch-workshop/service-booking/internal/domain/directory"
)

const stoppageReasonsKey = "directory:stoppage_reasons"

func bayKey(id int64) string {
	return fmt.Sprintf("directory:bay:%d", id)
}

func advisorKey(id int64) string {
	return fmt.Sprintf("directory:advisor:%d", id)
}

// Cached wraps a directory source with a cache and a lookup timeout.
// Cache failures fall back to the source; a source that misses the deadline
// yields an UNAVAILABLE error.
type Cached struct {
	source  dir.Directory
	cache   Cache
	ttl     time.Duration
	timeout time.Duration
	logger  *zap.Logger
}

// NewCached creates a Cached directory. A zero timeout disables the deadline.
func NewCached(source dir.Directory, cache Cache, ttl, timeout time.Duration, logger *zap.Logger) *Cached {
	if cache == nil {
		cache = NoopCache{}
	}
	return &Cached{
		source:  source,
		cache:   cache,
		ttl:     ttl,
		timeout: timeout,
		logger:  logger,
	}
}

// ResolveBay returns the bay snapshot for id.
func (c *Cached) ResolveBay(ctx context.Context, id int64) (*dir.BaySnapshot, error) {
	var bay dir.BaySnapshot
	err := c.lookup(ctx, bayKey(id), &bay, "bay", func(ctx context.Context) (any, error) {
		return c.source.ResolveBay(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return &bay, nil
}

// ResolveAdvisor returns the service advisor snapshot for id.
func (c *Cached) ResolveAdvisor(ctx context.Context, id int64) (*dir.AdvisorSnapshot, error) {
	var advisor dir.AdvisorSnapshot
	err := c.lookup(ctx, advisorKey(id), &advisor, "service advisor", func(ctx context.Context) (any, error) {
		return c.source.ResolveAdvisor(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return &advisor, nil
}

// ListStoppageReasons returns the stoppage reason catalogue.
func (c *Cached) ListStoppageReasons(ctx context.Context) ([]dir.StoppageReason, error) {
	var reasons []dir.StoppageReason
	err := c.lookup(ctx, stoppageReasonsKey, &reasons, "stoppage reasons", func(ctx context.Context) (any, error) {
		return c.source.ListStoppageReasons(ctx)
	})
	if err != nil {
		return nil, err
	}
	return reasons, nil
}

// InvalidateBay drops the cached snapshot of a bay.
func (c *Cached) InvalidateBay(ctx context.Context, id int64) error {
	return c.cache.Delete(ctx, bayKey(id))
}

// InvalidateAdvisor drops the cached snapshot of a service advisor.
func (c *Cached) InvalidateAdvisor(ctx context.Context, id int64) error {
	return c.cache.Delete(ctx, advisorKey(id))
}

// lookup fills out from the cache, or from fetch on a miss, and caches the result.
// NOT_FOUND answers are not cached.
func (c *Cached) lookup(ctx context.Context, key string, out any, what string, fetch func(context.Context) (any, error)) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	data, err := c.cache.Get(ctx, key)
	switch {
	case err == nil:
		if jsonErr := json.Unmarshal(data, out); jsonErr == nil {
			return nil
		}
		c.logger.Warn("discarding undecodable cache entry", zap.String("key", key))
	case !errors.Is(err, ErrCacheMiss):
		c.logger.Warn("directory cache read failed", zap.String("key", key), zap.Error(err))
	}

	value, err := fetch(ctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return domain.NewUnavailableError(what+" lookup timed out", err)
		}
		return err
	}

	data, err = json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s snapshot: %w", what, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s snapshot: %w", what, err)
	}
	if err := c.cache.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("directory cache write failed", zap.String("key", key), zap.Error(err))
	}
	return nil
}
