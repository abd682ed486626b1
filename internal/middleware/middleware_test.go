package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/smartstay/internal/config"
	"github.com/iliyamo/smartstay/internal/model"
	"github.com/iliyamo/smartstay/internal/utils"
)

const testSecret = "test-secret"

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func whoami(c echo.Context) error {
	caller := CallerFrom(c)
	return c.JSON(http.StatusOK, echo.Map{"id": caller.ID, "role": caller.Role})
}

func do(e *echo.Echo, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuthSetsCaller(t *testing.T) {
	e := echo.New()
	e.GET("/me", whoami, JWTAuth(testSecret))

	tok, err := utils.NewAccessToken(testSecret, "stu-1", model.RoleStudent, 5)
	require.NoError(t, err)
	rec := do(e, http.MethodGet, "/me", tok.Token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"stu-1","role":"STUDENT"}`, rec.Body.String())

	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodGet, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodGet, "/me", "garbage").Code)

	other, err := utils.NewAccessToken("other-secret", "stu-1", model.RoleStudent, 5)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodGet, "/me", other.Token).Code)
}

func TestJWTAuthNumericSubjectAndExpiry(t *testing.T) {
	e := echo.New()
	e.GET("/me", whoami, JWTAuth(testSecret))

	numeric, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": 42, "role": model.RoleAdmin, "exp": time.Now().Add(time.Minute).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	rec := do(e, http.MethodGet, "/me", numeric)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"42","role":"ADMIN"}`, rec.Body.String())

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "stu-1", "role": model.RoleStudent, "exp": time.Now().Add(-time.Minute).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodGet, "/me", expired).Code)

	noRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "stu-1"}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodGet, "/me", noRole).Code)
}

func TestRequireRole(t *testing.T) {
	e := echo.New()
	e.GET("/admin", whoami, JWTAuth(testSecret), RequireRole(model.RoleAdmin))

	student, _ := utils.NewAccessToken(testSecret, "stu-1", model.RoleStudent, 5)
	admin, _ := utils.NewAccessToken(testSecret, "adm-1", model.RoleAdmin, 5)
	assert.Equal(t, http.StatusForbidden, do(e, http.MethodGet, "/admin", student.Token).Code)
	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/admin", admin.Token).Code)
}

func TestTokenBucketBlocksAfterCapacity(t *testing.T) {
	_, rdb := newRedis(t)
	cfg := config.RateLimitConfig{
		Enabled: true, Capacity: 2, RefillTokens: 1, RefillInterval: time.Hour,
		TTL: 2 * time.Hour, KeyStrategy: "ip", Prefix: "test:rl",
	}
	e := echo.New()
	e.GET("/ping", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }, NewTokenBucket(cfg, rdb, nil))

	assert.Equal(t, http.StatusNoContent, do(e, http.MethodGet, "/ping", "").Code)
	rec := do(e, http.MethodGet, "/ping", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	rec = do(e, http.MethodGet, "/ping", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestTokenBucketFailsOpenWithoutRedis(t *testing.T) {
	cfg := config.RateLimitConfig{Enabled: true, Capacity: 1}
	e := echo.New()
	e.GET("/ping", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }, NewTokenBucket(cfg, nil, nil))
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusNoContent, do(e, http.MethodGet, "/ping", "").Code)
	}
}

func TestRedisCacheHitAndPurge(t *testing.T) {
	_, rdb := newRedis(t)
	cfg := config.CacheConfig{
		Enabled: true, Methods: map[string]bool{http.MethodGet: true}, TTL: time.Minute,
		KeyStrategy: "route_query", Prefix: "test:cache", MaxBodyBytes: 1 << 10,
	}
	var calls atomic.Int32
	e := echo.New()
	e.GET("/facilities", func(c echo.Context) error {
		n := calls.Add(1)
		return c.JSON(http.StatusOK, echo.Map{"n": n})
	}, NewRedisCache(cfg, rdb, "facilities"))

	first := do(e, http.MethodGet, "/facilities", "")
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	second := do(e, http.MethodGet, "/facilities", "")
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, int32(1), calls.Load())

	PurgeCache(context.Background(), cfg, rdb, "facilities", nil)
	third := do(e, http.MethodGet, "/facilities", "")
	assert.Equal(t, "MISS", third.Header().Get("X-Cache"))
	assert.Equal(t, int32(2), calls.Load())
}

func TestRedisCacheSkipsErrors(t *testing.T) {
	_, rdb := newRedis(t)
	cfg := config.CacheConfig{Enabled: true, Methods: map[string]bool{http.MethodGet: true}, TTL: time.Minute, Prefix: "test:cache"}
	var calls atomic.Int32
	e := echo.New()
	e.GET("/hostel-info", func(c echo.Context) error {
		calls.Add(1)
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	}, NewRedisCache(cfg, rdb, "hostel-info"))

	do(e, http.MethodGet, "/hostel-info", "")
	do(e, http.MethodGet, "/hostel-info", "")
	assert.Equal(t, int32(2), calls.Load())
}
