package config

import (
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Key strategies for the auth limiter.  Login and registration callers are
// anonymous, so buckets are keyed by client address, optionally per route.
const (
	RateKeyIP      = "ip"       // one bucket per client across every auth route
	RateKeyIPRoute = "ip_route" // one bucket per client and route
)

// RateLimitConfig tunes the Redis token bucket in front of the company,
// cashier and affiliate login and registration endpoints.  A bucket holds
// Burst attempts and regains one every RefillEvery.
type RateLimitConfig struct {
	Enabled     bool
	Burst       int
	RefillEvery time.Duration
	TTL         time.Duration // idle buckets expire after this
	KeyStrategy string
	Prefix      string
}

// LoadRateLimitConfig reads AUTH_RATE_LIMIT_* variables.  The default allows
// ten attempts per client and route, then one every six seconds.
func LoadRateLimitConfig() RateLimitConfig {
	cfg := RateLimitConfig{
		Enabled:     envBool("AUTH_RATE_LIMIT_ENABLED", true),
		Burst:       envInt("AUTH_RATE_LIMIT_BURST", 10),
		RefillEvery: envDur("AUTH_RATE_LIMIT_REFILL_EVERY", 6*time.Second),
		TTL:         envDur("AUTH_RATE_LIMIT_TTL", 10*time.Minute),
		KeyStrategy: strings.ToLower(envStr("AUTH_RATE_LIMIT_KEY", RateKeyIPRoute)),
		Prefix:      envStr("AUTH_RATE_LIMIT_PREFIX", "rl:auth"),
	}
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	if cfg.RefillEvery <= 0 {
		cfg.RefillEvery = time.Second
	}
	// A bucket must outlive a full refill or it resets early.
	if full := time.Duration(cfg.Burst) * cfg.RefillEvery; cfg.TTL < full {
		cfg.TTL = full
	}
	switch cfg.KeyStrategy {
	case RateKeyIP, RateKeyIPRoute:
	default:
		log.Warn().Str("key", cfg.KeyStrategy).Msg("unknown rate limit key strategy, using ip_route")
		cfg.KeyStrategy = RateKeyIPRoute
	}
	return cfg
}
