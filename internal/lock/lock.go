// Package lock serializes access to stock rows while an order is checked and
// its inventory is decremented.
package lock

import (
	"context"
	"errors"
	"sort"
)

var ErrLockTimeout = errors.New("timed out waiting for stock lock")

// Locker acquires every key or none. The returned func releases them all and
// is safe to call more than once.
type Locker interface {
	Lock(ctx context.Context, keys ...string) (unlock func(), err error)
}

func ProductKey(id string) string { return "product:" + id }

func VariantKey(id string) string { return "variant:" + id }

// normalize dedupes and sorts keys so every caller acquires in the same order.
func normalize(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
