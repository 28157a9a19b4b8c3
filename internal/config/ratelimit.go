package config

import "time"

// Bucket is one token-bucket budget: Capacity requests at once, refilled
// by RefillTokens every RefillInterval.  Idle buckets expire after TTL.
type Bucket struct {
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
}

// RateLimitConfig drives the Redis token buckets in front of /v1.  API
// is the general per-caller budget.  Booking is a tighter per-user budget
// for the writes that take seats (order creation and ticket edits).
type RateLimitConfig struct {
	Enabled bool
	Prefix  string
	Debug   bool
	API     Bucket
	Booking Bucket
}

func LoadRateLimitConfig() RateLimitConfig {
	api := Bucket{
		Capacity:       envInt("RATE_LIMIT_CAPACITY", 60),
		RefillTokens:   envInt("RATE_LIMIT_REFILL_TOKENS", 1),
		RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", time.Second),
		TTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),
	}
	if b := envInt("RATE_LIMIT_BURST", -1); b > 0 {
		api.Capacity = b
	}
	if every := envDur("RATE_LIMIT_REFILL_EVERY", 0); every > 0 {
		api.RefillTokens = 1
		api.RefillInterval = every
	}
	booking := Bucket{
		Capacity:       envInt("RATE_LIMIT_BOOKING_CAPACITY", 10),
		RefillTokens:   envInt("RATE_LIMIT_BOOKING_REFILL_TOKENS", 1),
		RefillInterval: envDur("RATE_LIMIT_BOOKING_REFILL_INTERVAL", 6*time.Second),
		TTL:            envDur("RATE_LIMIT_BOOKING_TTL", 10*time.Minute),
	}
	return RateLimitConfig{
		Enabled: envBool("RATE_LIMIT_ENABLED", true),
		Prefix:  envStr("RATE_LIMIT_PREFIX", "rl"),
		Debug:   envBool("RATE_LIMIT_DEBUG", false),
		API:     api.normalized(),
		Booking: booking.normalized(),
	}
}

// normalized clamps b to a usable bucket.  The TTL always outlives five
// refill intervals so a key is not dropped while it is still refilling.
func (b Bucket) normalized() Bucket {
	if b.Capacity < 1 {
		b.Capacity = 1
	}
	if b.RefillTokens < 1 {
		b.RefillTokens = 1
	}
	if b.RefillInterval <= 0 {
		b.RefillInterval = time.Second
	}
	if minTTL := 5 * b.RefillInterval; b.TTL < minTTL {
		b.TTL = minTTL
	}
	return b
}
