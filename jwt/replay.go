package jwt

import (
	"sync"
	"time"
)

// TokenReplayCache vetoes a signature-valid, claim-valid token that has
// already been seen. ValidationParameters.TokenReplayCache lets a caller
// supply a distributed implementation (Redis, a database); Validate skips
// replay checking entirely when none is configured, since a cache is an
// optional collaborator rather than a required one.
type TokenReplayCache interface {
	// CheckAndRemember reports whether raw has already been recorded
	// before expires, recording it as seen for callers that follow.
	CheckAndRemember(raw string, expires time.Time) (alreadySeen bool)
}

// NewInMemoryReplayCache returns a process-local TokenReplayCache that
// forgets an entry once its token has expired. It is sufficient for a
// single process; multi-instance deployments need a shared backing store.
func NewInMemoryReplayCache() TokenReplayCache {
	return &inMemoryReplayCache{}
}

type inMemoryReplayCache struct {
	seen sync.Map // raw string -> time.Time (expiry)
}

func (c *inMemoryReplayCache) CheckAndRemember(raw string, expires time.Time) bool {
	now := time.Now()
	c.sweep(now)

	if v, ok := c.seen.Load(raw); ok {
		if exp, ok := v.(time.Time); ok && exp.After(now) {
			return true
		}
	}

	if expires.IsZero() {
		expires = now.Add(24 * time.Hour)
	}
	c.seen.Store(raw, expires)
	return false
}

// sweep drops entries whose token has already expired, so the cache does
// not grow without bound across a long-lived process.
func (c *inMemoryReplayCache) sweep(now time.Time) {
	c.seen.Range(func(key, value any) bool {
		if exp, ok := value.(time.Time); ok && !exp.After(now) {
			c.seen.Delete(key)
		}
		return true
	})
}
