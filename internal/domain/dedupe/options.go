package dedupe

import "time"

// Option configures NewInMemoryDeduper.
type Option func(*inMemoryDeduper)

// WithMaxSize caps the number of live keys. maxSize <= 0 removes the cap.
func WithMaxSize(maxSize int) Option {
	return func(d *inMemoryDeduper) {
		d.maxSize = maxSize
	}
}

// WithTTL sets how long a key is remembered.
func WithTTL(ttl time.Duration) Option {
	return func(d *inMemoryDeduper) {
		if ttl > 0 {
			d.ttl = ttl
		}
	}
}
