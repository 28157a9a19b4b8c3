package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/airport-service/internal/config"
	"github.com/iliyamo/airport-service/internal/utils"
)

const secret = "test-secret"

func whoami(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"user_id": c.Get(CtxUserID), "role": c.Get(CtxRole)})
}

func serve(t *testing.T, e *echo.Echo, method, target, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func token(t *testing.T, id uint64, role string) string {
	t.Helper()
	tok, err := utils.NewAccessToken(secret, id, role, 5)
	require.NoError(t, err)
	return tok.Token
}

func TestJWTAuth(t *testing.T) {
	e := echo.New()
	e.GET("/me", whoami, JWTAuth(secret))

	rec := serve(t, e, http.MethodGet, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"missing bearer token"}`, rec.Body.String())

	rec = serve(t, e, http.MethodGet, "/me", "garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"invalid token"}`, rec.Body.String())

	rec = serve(t, e, http.MethodGet, "/me", token(t, 7, "CUSTOMER"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user_id":7,"role":"CUSTOMER"}`, rec.Body.String())
}

func TestRequireRoleFor(t *testing.T) {
	e := echo.New()
	g := e.Group("/flights", JWTAuth(secret), RequireRoleFor([]string{http.MethodPost}, "ADMIN"))
	g.GET("", whoami)
	g.POST("", whoami)

	customer := token(t, 2, "CUSTOMER")
	assert.Equal(t, http.StatusOK, serve(t, e, http.MethodGet, "/flights", customer).Code)
	rec := serve(t, e, http.MethodPost, "/flights", customer)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"forbidden"}`, rec.Body.String())
	assert.Equal(t, http.StatusOK, serve(t, e, http.MethodPost, "/flights", token(t, 1, "ADMIN")).Code)
}

func TestCacheKeySeparatesResourcesAndQueries(t *testing.T) {
	cfg := config.CacheConfig{Prefix: "cache"}
	e := echo.New()
	ctx := func(route, target string) echo.Context {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), httptest.NewRecorder())
		c.SetPath(route)
		return c
	}

	a := cacheKey(cfg, "airports", ctx("/v1/airports", "/v1/airports?closest_big_city=kyiv"))
	b := cacheKey(cfg, "airports", ctx("/v1/airports", "/v1/airports?closest_big_city=lviv"))
	assert.NotEqual(t, a, b)
	assert.Regexp(t, `^cache:airports:[0-9a-f]{40}$`, a)
	assert.Equal(t, "cache:airports:*", resourcePattern(cfg, "airports"))

	// same route pattern, different ids
	one := cacheKey(cfg, "crews", ctx("/v1/crews/:id", "/v1/crews/1"))
	two := cacheKey(cfg, "crews", ctx("/v1/crews/:id", "/v1/crews/2"))
	assert.NotEqual(t, one, two)

	assert.NotEqual(t,
		cacheKey(cfg, "crews", ctx("/v1/crews", "/v1/crews?page=1")),
		cacheKey(cfg, "crews", ctx("/v1/crews", "/v1/crews?page=2")))

	// parameter order does not matter
	assert.Equal(t,
		cacheKey(cfg, "airports", ctx("/v1/airports", "/v1/airports?page=2&closest_big_city=kyiv")),
		cacheKey(cfg, "airports", ctx("/v1/airports", "/v1/airports?closest_big_city=kyiv&page=2")))
}

func TestPayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"id":1}`))
	require.NoError(t, err)

	status, got, body, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, hdr, got)
	assert.Equal(t, `{"id":1}`, string(body))

	_, _, _, ok = decodePayload(bs[:6])
	assert.False(t, ok)
}

func TestDisabledMiddlewaresPassThrough(t *testing.T) {
	e := echo.New()
	e.GET("/x", func(c echo.Context) error { return c.String(http.StatusOK, "ok") },
		NewRedisCache(config.CacheConfig{Enabled: true}, nil, "crews"),
		InvalidateCache(config.CacheConfig{Enabled: true}, nil, "crews"),
		NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil),
		NewBookingLimiter(config.RateLimitConfig{Enabled: true}, nil))

	rec := serve(t, e, http.MethodGet, "/x", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Cache"))
}
