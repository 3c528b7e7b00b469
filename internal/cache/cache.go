package cache

import "time"

// Cache is the read-through TTL cache consumed by the upstream clients.
// Entries are immutable once written and simply expire.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key namespaces a cache key. The version segment lets a format change
// invalidate old entries wholesale.
func Key(parts ...string) string {
	key := "marketcheck:v1"
	for _, p := range parts {
		key += ":" + p
	}
	return key
}

// Disabled is a no-op cache used when caching is turned off
type Disabled struct{}

func (Disabled) Get(string) ([]byte, bool)                  { return nil, false }
func (Disabled) Set(string, []byte, time.Duration) error    { return nil }
func (Disabled) Delete(string) error                        { return nil }
func (Disabled) Clear() error                               { return nil }
