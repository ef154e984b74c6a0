// Package cache provides a content-addressed read-through cache over the
// store's enrichment_cache table. Keys are derived from the external
// operation plus the inputs that determine its result, so identical calls
// never hit the upstream service twice.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/talent-cli/internal/store"
)

// Gateway wraps a Store's cache operations with typed get/put helpers.
type Gateway struct {
	store store.Store
	ttl   time.Duration
}

// New creates a Gateway. A zero ttl stores entries without expiry.
func New(st store.Store, ttl time.Duration) *Gateway {
	return &Gateway{store: st, ttl: ttl}
}

// Key returns the SHA-256 hex of the normalized (operation, query, context)
// tuple. Context is whatever extra input shapes the result, e.g. a snippet
// digest or a location string.
func Key(operation, query, context string) string {
	normalized := fmt.Sprintf("%s|%s|%s",
		strings.ToLower(strings.TrimSpace(operation)),
		strings.ToLower(strings.TrimSpace(query)),
		strings.TrimSpace(context),
	)
	h := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("%x", h)
}

// TryGet looks up a cached value. The bool reports whether a live entry was
// found; lookup failures are logged and treated as misses so a flaky cache
// never blocks the pipeline.
func TryGet[T any](ctx context.Context, g *Gateway, operation, key string) (T, bool) {
	var zero T

	payload, err := g.store.GetCacheEntry(ctx, operation, key)
	if err != nil {
		zap.L().Warn("cache: lookup failed",
			zap.String("operation", operation),
			zap.Error(err),
		)
		return zero, false
	}
	if payload == nil {
		return zero, false
	}

	var val T
	if err := json.Unmarshal(payload, &val); err != nil {
		zap.L().Warn("cache: corrupt entry discarded",
			zap.String("operation", operation),
			zap.Error(err),
		)
		return zero, false
	}

	keyPrefix := key
	if len(keyPrefix) > 12 {
		keyPrefix = keyPrefix[:12]
	}
	zap.L().Debug("cache hit", zap.String("operation", operation), zap.String("key", keyPrefix))
	return val, true
}

// Put stores a value under (operation, key), replacing any existing entry.
func Put[T any](ctx context.Context, g *Gateway, operation, key string, val T) error {
	payload, err := json.Marshal(val)
	if err != nil {
		return eris.Wrap(err, "cache: marshal value")
	}
	if err := g.store.PutCacheEntry(ctx, operation, key, payload, g.ttl); err != nil {
		return eris.Wrap(err, "cache: put entry")
	}
	return nil
}
