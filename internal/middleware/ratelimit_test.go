package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/airport-service/internal/config"
)

// memLimiter is a token bucket without refill, keyed like the Redis one.
type memLimiter struct {
	used map[string]int
	keys []string
	err  error
}

func (m *memLimiter) Take(_ context.Context, key string, b config.Bucket, _ time.Time) (decision, error) {
	if m.err != nil {
		return decision{}, m.err
	}
	m.keys = append(m.keys, key)
	if m.used[key] >= b.Capacity {
		return decision{RetryIn: 1500 * time.Millisecond}, nil
	}
	m.used[key]++
	return decision{Allowed: true, Remaining: int64(b.Capacity - m.used[key])}, nil
}

var testRateLimit = config.RateLimitConfig{
	Enabled: true,
	Prefix:  "rl",
	API:     config.Bucket{Capacity: 5, RefillTokens: 1, RefillInterval: time.Second},
	Booking: config.Bucket{Capacity: 2, RefillTokens: 1, RefillInterval: 6 * time.Second},
}

func limitedEcho(lim limiter) *echo.Echo {
	cfg := testRateLimit
	fixed := func() time.Time { return time.Unix(1700000000, 0) }
	api := throttle{name: "api", bucket: cfg.API, lim: lim, key: apiKey(cfg), now: fixed}
	booking := throttle{name: "booking", bucket: cfg.Booking, lim: lim, key: bookingKey(cfg), now: fixed}

	e := echo.New()
	g := e.Group("/v1", JWTAuth(secret), api.middleware)
	orders := g.Group("/orders", booking.middleware)
	orders.GET("", whoami)
	orders.POST("", whoami)
	tickets := g.Group("/tickets", booking.middleware)
	tickets.PATCH("/:id", whoami)
	g.GET("/flights", whoami)
	return e
}

func TestBookingBudgetBlocksWrites(t *testing.T) {
	lim := &memLimiter{used: map[string]int{}}
	e := limitedEcho(lim)
	customer := token(t, 7, "CUSTOMER")

	for i := 0; i < 2; i++ {
		rec := serve(t, e, http.MethodPost, "/v1/orders", customer)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	rec := serve(t, e, http.MethodPost, "/v1/orders", customer)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	assert.JSONEq(t, `{"error":"too_many_requests","message":"booking rate limit exceeded","retry_after":2}`, rec.Body.String())

	// reads only draw from the general budget
	assert.Equal(t, http.StatusOK, serve(t, e, http.MethodGet, "/v1/orders", customer).Code)
	// ticket edits have their own bucket
	assert.Equal(t, http.StatusOK, serve(t, e, http.MethodPatch, "/v1/tickets/3", customer).Code)
	// another user is unaffected
	assert.Equal(t, http.StatusOK, serve(t, e, http.MethodPost, "/v1/orders", token(t, 8, "CUSTOMER")).Code)

	assert.Contains(t, lim.keys, "rl:booking:user:7:POST /v1/orders")
	assert.Contains(t, lim.keys, "rl:booking:user:7:PATCH /v1/tickets/:id")
	assert.Contains(t, lim.keys, "rl:api:user:7")
	assert.NotContains(t, lim.keys, "rl:booking:user:7:GET /v1/orders")
}

func TestAPIBudgetBlocksReads(t *testing.T) {
	lim := &memLimiter{used: map[string]int{}}
	e := limitedEcho(lim)
	admin := token(t, 1, "ADMIN")

	for _, left := range []string{"4", "3", "2", "1", "0"} {
		rec := serve(t, e, http.MethodGet, "/v1/flights", admin)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, left, rec.Header().Get("X-RateLimit-Remaining"))
	}
	rec := serve(t, e, http.MethodGet, "/v1/flights", admin)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "api rate limit exceeded")
	assert.Empty(t, rec.Header().Get("X-RateLimit-Key"))
}

func TestLimiterErrorLetsRequestsThrough(t *testing.T) {
	lim := &memLimiter{err: errors.New("connection refused")}
	e := limitedEcho(lim)

	rec := serve(t, e, http.MethodPost, "/v1/orders", token(t, 7, "CUSTOMER"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
}

func TestRateLimitKeys(t *testing.T) {
	e := echo.New()
	ctx := func(method, path string) echo.Context {
		req := httptest.NewRequest(method, path, nil)
		req.Header.Set(echo.HeaderXRealIP, "10.0.0.1")
		c := e.NewContext(req, httptest.NewRecorder())
		c.SetPath(path)
		return c
	}

	anon := ctx(http.MethodPost, "/v1/orders")
	assert.Equal(t, "rl:api:ip:10.0.0.1", apiKey(testRateLimit)(anon))
	assert.Empty(t, bookingKey(testRateLimit)(anon))

	c := ctx(http.MethodPut, "/v1/tickets/:id")
	c.Set(CtxUserID, uint64(9))
	assert.Equal(t, "rl:api:user:9", apiKey(testRateLimit)(c))
	assert.Equal(t, "rl:booking:user:9:PUT /v1/tickets/:id", bookingKey(testRateLimit)(c))

	del := ctx(http.MethodDelete, "/v1/orders/:id")
	del.Set(CtxUserID, uint64(9))
	assert.Empty(t, bookingKey(testRateLimit)(del))
}
