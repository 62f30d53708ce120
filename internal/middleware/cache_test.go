package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ergomap/risk-map/internal/config"
)

func testCacheConfig() config.CacheConfig {
	return config.CacheConfig{
		Enabled:     true,
		Methods:     map[string]bool{"GET": true},
		KeyStrategy: "path_query",
		Prefix:      "riskmap:cache",
	}
}

// newCacheCtx builds a context the way Echo does for a routed request:
// the route pattern is shared, the concrete path and user differ.
func newCacheCtx(t *testing.T, target, id string, userID float64) echo.Context {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/maps/:id")
	c.SetParamNames("id")
	c.SetParamValues(id)
	c.Set("user_id", userID)
	return c
}

func TestCacheKeySeparatesConcretePaths(t *testing.T) {
	cfg := testCacheConfig()
	a := cacheKeyFrom(cfg, newCacheCtx(t, "/v1/maps/7", "7", 1))
	b := cacheKeyFrom(cfg, newCacheCtx(t, "/v1/maps/9", "9", 1))
	require.NotEqual(t, a, b, "requests for different maps must not share a cache entry")
}

func TestCacheKeySeparatesUsers(t *testing.T) {
	cfg := testCacheConfig()
	a := cacheKeyFrom(cfg, newCacheCtx(t, "/v1/maps/7", "7", 1))
	b := cacheKeyFrom(cfg, newCacheCtx(t, "/v1/maps/7", "7", 2))
	require.NotEqual(t, a, b, "the same path requested by two users must not share a cache entry")
}

func TestCacheKeyStableForIdenticalRequests(t *testing.T) {
	cfg := testCacheConfig()
	a := cacheKeyFrom(cfg, newCacheCtx(t, "/v1/maps/7", "7", 1))
	b := cacheKeyFrom(cfg, newCacheCtx(t, "/v1/maps/7", "7", 1))
	assert.Equal(t, a, b)
}

func TestCacheKeyEmbedsUserSegment(t *testing.T) {
	cfg := testCacheConfig()
	key := cacheKeyFrom(cfg, newCacheCtx(t, "/v1/maps/7", "7", 42))
	// The user segment sits outside the hash so the invalidator can match
	// an owner's entries with riskmap:cache:u42:*.
	assert.Contains(t, key, "riskmap:cache:u42:")
}

func TestCacheUserKeyTypes(t *testing.T) {
	e := echo.New()
	cases := []struct {
		name string
		val  any
		want string
	}{
		{"float64 jwt claim", float64(7), "7"},
		{"uint64", uint64(7), "7"},
		{"int", 7, "7"},
		{"string", "7", "7"},
		{"missing", nil, "anon"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/maps", nil)
			c := e.NewContext(req, httptest.NewRecorder())
			if tc.val != nil {
				c.Set("user_id", tc.val)
			}
			assert.Equal(t, tc.want, cacheUserKey(c))
		})
	}
}

func TestCacheDisabledIsPassThrough(t *testing.T) {
	mw := NewRedisCache(config.CacheConfig{Enabled: false}, nil)
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/maps", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	err := mw(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
