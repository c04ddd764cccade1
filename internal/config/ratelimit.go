package config

import "time"

// RateLimitConfig drives the token bucket in front of the auth routes.
type RateLimitConfig struct {
	Enabled        bool          // turn the limiter on or off
	Capacity       int           // bucket size, the burst a client may spend at once
	RefillTokens   int           // tokens added per interval
	RefillInterval time.Duration // refill period
	TTL            time.Duration // idle buckets expire after this
	KeyStrategy    string        // ip, user, route or a combination such as ip_route
	Prefix         string        // redis key prefix
}

func loadRateLimit(r *reader) RateLimitConfig {
	c := RateLimitConfig{
		Enabled:        envBool("RATE_LIMIT_ENABLED", true),
		Capacity:       r.int("RATE_LIMIT_CAPACITY", 20),
		RefillTokens:   r.int("RATE_LIMIT_REFILL_TOKENS", 1),
		RefillInterval: r.duration("RATE_LIMIT_REFILL_INTERVAL", 3*time.Second),
		TTL:            r.duration("RATE_LIMIT_TTL", 10*time.Minute),
		KeyStrategy:    envStr("RATE_LIMIT_KEY_STRATEGY", "ip_route"),
		Prefix:         envStr("RATE_LIMIT_PREFIX", "rl"),
	}
	if c.Capacity < 1 {
		c.Capacity = 1
	}
	if c.RefillTokens < 1 {
		c.RefillTokens = 1
	}
	if c.RefillInterval <= 0 {
		c.RefillInterval = time.Second
	}
	if minTTL := 5 * c.RefillInterval; c.TTL < minTTL {
		c.TTL = minTTL
	}
	return c
}
