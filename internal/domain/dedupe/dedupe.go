// Package dedupe remembers submission keys so a retried rally insert is
// applied at most once.
package dedupe

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// Deduper records seen submission keys.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets id so a failed submission can be retried with the same key.
	Unrecord(ctx context.Context, id string)

	// Prune drops expired keys.
	Prune()

	Size() int64
}

// inMemoryDeduper keeps keys in a go-cache with a fixed TTL. The cache runs no
// janitor goroutine; expired entries are ignored by Add and removed by Prune.
type inMemoryDeduper struct {
	c       *cache.Cache
	ttl     time.Duration
	maxSize int // <= 0 means unbounded
}

// NewInMemoryDeduper creates a deduper. Keys live for 10 minutes and at most
// 50000 are kept unless overridden.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		ttl:     10 * time.Minute,
		maxSize: 50000,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.c = cache.New(d.ttl, 0)
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	if d.maxSize > 0 && d.c.ItemCount() >= d.maxSize {
		d.c.DeleteExpired()
		if d.c.ItemCount() >= d.maxSize {
			// Full of live keys: accept the submission without remembering it.
			_, found := d.c.Get(id)
			return found
		}
	}
	// Add fails only when a live entry exists.
	return d.c.Add(id, struct{}{}, cache.DefaultExpiration) != nil
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, id string) {
	d.c.Delete(id)
}

func (d *inMemoryDeduper) Prune() {
	d.c.DeleteExpired()
}

// Size counts stored keys, including expired ones not yet pruned.
func (d *inMemoryDeduper) Size() int64 {
	return int64(d.c.ItemCount())
}
