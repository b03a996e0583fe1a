package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/GTDGit/shelf_api/internal/models"
)

// Resolution is the memoized outcome of resolving one barcode for a scan session.
type Resolution struct {
	Barcode    string                    `json:"barcode"`
	Source     models.LookupSource       `json:"source"`
	Product    *models.ProductDescriptor `json:"product,omitempty"`
	ResolvedAt time.Time                 `json:"resolvedAt"`
}

// ResolutionCache remembers the most recently completed resolution and the active
// barcode of each scan session.
type ResolutionCache struct {
	redis *RedisClient
	ttl   time.Duration
}

// NewResolutionCache creates a ResolutionCache whose entries expire after ttl.
func NewResolutionCache(redis *RedisClient, ttl time.Duration) *ResolutionCache {
	return &ResolutionCache{redis: redis, ttl: ttl}
}

func (c *ResolutionCache) keyLast(sessionID string) string {
	return fmt.Sprintf("resolve:last:%s", sessionID)
}

func (c *ResolutionCache) keyActive(sessionID string) string {
	return fmt.Sprintf("resolve:active:%s", sessionID)
}

// Last returns the latest completed resolution of the session, or nil if none.
func (c *ResolutionCache) Last(ctx context.Context, sessionID string) (*Resolution, error) {
	raw, err := c.redis.Get(ctx, c.keyLast(sessionID))
	if errors.Is(err, ErrMiss) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var res Resolution
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		return nil, fmt.Errorf("failed to unmarshal resolution: %w", err)
	}
	return &res, nil
}

// StoreLast records res as the latest completed resolution of the session.
func (c *ResolutionCache) StoreLast(ctx context.Context, sessionID string, res *Resolution) error {
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("failed to marshal resolution: %w", err)
	}
	return c.redis.Set(ctx, c.keyLast(sessionID), string(data), c.ttl)
}

// MarkActive records the barcode the session is currently waiting on.
func (c *ResolutionCache) MarkActive(ctx context.Context, sessionID, barcode string) error {
	return c.redis.Set(ctx, c.keyActive(sessionID), barcode, c.ttl)
}

// Active returns the barcode the session is currently waiting on, or "".
func (c *ResolutionCache) Active(ctx context.Context, sessionID string) (string, error) {
	v, err := c.redis.Get(ctx, c.keyActive(sessionID))
	if errors.Is(err, ErrMiss) {
		return "", nil
	}
	return v, err
}

// Forget drops everything stored for a session.
func (c *ResolutionCache) Forget(ctx context.Context, sessionID string) error {
	return c.redis.Delete(ctx, c.keyLast(sessionID), c.keyActive(sessionID))
}
