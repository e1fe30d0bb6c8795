package memory

import (
	"sort"
	"time"

	"github.com/geocoder89/assethub/internal/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type pageKey struct {
	ts time.Time
	id primitive.ObjectID
}

// newestFirst sorts by (timestamp desc, id desc), the order every list
// endpoint pages through.
func newestFirst[T any](items []T, key func(T) pageKey) {
	sort.Slice(items, func(i, j int) bool {
		a, b := key(items[i]), key(items[j])
		if !a.ts.Equal(b.ts) {
			return a.ts.After(b.ts)
		}
		return a.id.Hex() > b.id.Hex()
	})
}

// page drops everything up to and including the cursor and keeps at most limit items.
func page[T any](items []T, key func(T) pageKey, after *utils.PageCursor, limit int) []T {
	newestFirst(items, key)

	out := make([]T, 0, limit)
	for _, it := range items {
		if after != nil {
			k := key(it)
			if k.ts.After(after.Timestamp) {
				continue
			}
			if k.ts.Equal(after.Timestamp) && k.id.Hex() >= after.ID {
				continue
			}
		}
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, it)
	}
	return out
}
