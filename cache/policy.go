package cache

import "time"

// Policy controls whether and for how long results are cached.
type Policy struct {
	// DefaultTTL applies when a caller does not supply one.
	// Zero disables caching.
	DefaultTTL time.Duration

	// MaxTTL clamps requested TTLs. Zero means no cap.
	MaxTTL time.Duration
}

// DefaultPolicy caches for 5 minutes, capped at an hour.
func DefaultPolicy() Policy {
	return Policy{
		DefaultTTL: 5 * time.Minute,
		MaxTTL:     time.Hour,
	}
}

// NoCachePolicy disables caching entirely.
func NoCachePolicy() Policy {
	return Policy{}
}

// ShouldCache reports whether this policy caches at all.
func (p Policy) ShouldCache() bool {
	return p.DefaultTTL > 0
}

// EffectiveTTL resolves the TTL for one entry: the override when positive,
// otherwise DefaultTTL, clamped to MaxTTL.
func (p Policy) EffectiveTTL(override time.Duration) time.Duration {
	ttl := override
	if ttl <= 0 {
		ttl = p.DefaultTTL
	}

	if p.MaxTTL > 0 && ttl > p.MaxTTL {
		ttl = p.MaxTTL
	}

	return ttl
}
