// Package cache stores computed distributions keyed by the table contents and
// query that produced them.
package cache

import (
	"context"
	"fmt"

	"github.com/xtding233/reroll-odds/internal/odds"
)

// Cache is a distribution store. A miss is (nil, false, nil).
type Cache interface {
	Get(ctx context.Context, key string) (odds.Distribution, bool, error)
	Set(ctx context.Context, key string, d odds.Distribution) error
}

// Key builds the cache key for q under the table contents identified by tag.
// The query is clamped the same way the engine clamps it.
func Key(tag string, q odds.Query) string {
	return fmt.Sprintf("dist:%s:%d:%d:%d:%d:%d",
		tag, q.Level, q.Cost, max(q.Rerolls, 0), max(q.PurchasedTarget, 0), max(q.PurchasedOther, 0))
}
