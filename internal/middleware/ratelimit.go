package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/airport-service/internal/config"
)

// bucketScript refills the bucket stored at KEYS[1] for the whole
// intervals elapsed since the last refill, then tries to take one token.
// It returns {allowed, tokens left, ms until the next refill}.
var bucketScript = redis.NewScript(`
	local key = KEYS[1]
	local now_ms = tonumber(ARGV[1])
	local capacity = tonumber(ARGV[2])
	local refill_tokens = tonumber(ARGV[3])
	local interval_ms = tonumber(ARGV[4])
	local ttl_seconds = tonumber(ARGV[5])

	local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
	local tokens = tonumber(state[1])
	local last_refill = tonumber(state[2])
	if tokens == nil or last_refill == nil then
		tokens = capacity
		last_refill = now_ms
	end

	local elapsed = math.max(0, now_ms - last_refill)
	local intervals = math.floor(elapsed / interval_ms)
	if intervals > 0 then
		tokens = math.min(capacity, tokens + intervals * refill_tokens)
		last_refill = last_refill + intervals * interval_ms
	end

	local allowed = 0
	local retry_ms = 0
	if tokens > 0 then
		allowed = 1
		tokens = tokens - 1
	else
		retry_ms = math.max(0, interval_ms - (now_ms - last_refill))
	end

	redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
	redis.call('EXPIRE', key, ttl_seconds)
	return { allowed, tokens, retry_ms }
`)

// decision is the outcome of taking one token.
type decision struct {
	Allowed   bool
	Remaining int64
	RetryIn   time.Duration
}

// limiter takes a token from the bucket at key.
type limiter interface {
	Take(ctx context.Context, key string, b config.Bucket, now time.Time) (decision, error)
}

type redisLimiter struct {
	rdb *redis.Client
}

func (l redisLimiter) Take(ctx context.Context, key string, b config.Bucket, now time.Time) (decision, error) {
	vals, err := bucketScript.Run(ctx, l.rdb, []string{key},
		now.UnixMilli(), b.Capacity, b.RefillTokens, b.RefillInterval.Milliseconds(), int64(b.TTL/time.Second),
	).Int64Slice()
	if err != nil {
		return decision{}, err
	}
	if len(vals) != 3 {
		return decision{}, fmt.Errorf("unexpected script result %v", vals)
	}
	return decision{Allowed: vals[0] == 1, Remaining: vals[1], RetryIn: time.Duration(vals[2]) * time.Millisecond}, nil
}

// throttle is one named budget.  key returns "" for requests the budget
// does not apply to.
type throttle struct {
	name   string
	bucket config.Bucket
	debug  bool
	lim    limiter
	key    func(echo.Context) string
	now    func() time.Time
}

func (t throttle) middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		key := t.key(c)
		if key == "" {
			return next(c)
		}
		d, err := t.lim.Take(c.Request().Context(), key, t.bucket, t.now())
		if err != nil {
			// a broken limiter must not take the API down
			c.Logger().Warnf("[ratelimit] %s: redis error for key=%s: %v", t.name, key, err)
			return next(c)
		}

		h := c.Response().Header()
		h.Set("X-RateLimit-Limit", strconv.Itoa(t.bucket.Capacity))
		h.Set("X-RateLimit-Remaining", strconv.FormatInt(d.Remaining, 10))
		if t.debug {
			h.Set("X-RateLimit-Key", key)
		}
		if d.Allowed {
			return next(c)
		}

		secs := int(math.Ceil(d.RetryIn.Seconds()))
		h.Set("Retry-After", strconv.Itoa(secs))
		c.Logger().Infof("[ratelimit] %s: block key=%s retry=%s", t.name, key, d.RetryIn)
		return c.JSON(http.StatusTooManyRequests, echo.Map{
			"error":       "too_many_requests",
			"message":     t.name + " rate limit exceeded",
			"retry_after": secs,
		})
	}
}

func newThrottle(cfg config.RateLimitConfig, rdb *redis.Client, t throttle) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return passThrough
	}
	t.lim = redisLimiter{rdb: rdb}
	t.debug = cfg.Debug
	t.now = time.Now
	return t.middleware
}

// NewTokenBucket applies the general API budget to every request, one
// bucket per caller.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	return newThrottle(cfg, rdb, throttle{name: "api", bucket: cfg.API, key: apiKey(cfg)})
}

// NewBookingLimiter applies the booking budget to seat-taking writes
// (POST, PUT and PATCH).  Each user gets one bucket per route and method,
// so a burst of order attempts does not also block ticket edits.
func NewBookingLimiter(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	return newThrottle(cfg, rdb, throttle{name: "booking", bucket: cfg.Booking, key: bookingKey(cfg)})
}

func apiKey(cfg config.RateLimitConfig) func(echo.Context) string {
	return func(c echo.Context) string {
		if uid := currentUserID(c); uid != "" {
			return strings.Join([]string{cfg.Prefix, "api", "user", uid}, ":")
		}
		ip := c.RealIP()
		if ip == "" {
			ip = "unknown"
		}
		return strings.Join([]string{cfg.Prefix, "api", "ip", ip}, ":")
	}
}

var bookingMethods = map[string]bool{http.MethodPost: true, http.MethodPut: true, http.MethodPatch: true}

func bookingKey(cfg config.RateLimitConfig) func(echo.Context) string {
	return func(c echo.Context) string {
		method := c.Request().Method
		uid := currentUserID(c)
		if !bookingMethods[method] || uid == "" {
			return ""
		}
		return strings.Join([]string{cfg.Prefix, "booking", "user", uid, method + " " + c.Path()}, ":")
	}
}

// currentUserID is the caller id set by JWTAuth, or "" when anonymous.
func currentUserID(c echo.Context) string {
	if id, ok := c.Get(CtxUserID).(uint64); ok && id > 0 {
		return strconv.FormatUint(id, 10)
	}
	return ""
}
