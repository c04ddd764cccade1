package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/project-tracker/internal/config"
	"github.com/iliyamo/project-tracker/internal/logger"
	"github.com/iliyamo/project-tracker/internal/model"
)

func testRateConfig() config.RateLimitConfig {
	return config.RateLimitConfig{
		Enabled:        true,
		Capacity:       2,
		RefillTokens:   1,
		RefillInterval: time.Minute,
		TTL:            10 * time.Minute,
		KeyStrategy:    "ip_route",
		Prefix:         "rl",
	}
}

func TestTokenBucket_LocalFallbackLimits(t *testing.T) {
	e := echo.New()
	e.POST("/api/auth/login", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) },
		NewTokenBucket(testRateConfig(), nil, logger.Nop()))

	send := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.Header.Set(echo.HeaderXRealIP, ip)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusNoContent, send("10.0.0.1").Code)
	assert.Equal(t, http.StatusNoContent, send("10.0.0.1").Code)

	blocked := send("10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.NotEmpty(t, blocked.Header().Get("Retry-After"))
	assert.Equal(t, "0", blocked.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusNoContent, send("10.0.0.2").Code)
}

func TestTokenBucket_Disabled(t *testing.T) {
	cfg := testRateConfig()
	cfg.Enabled = false
	cfg.Capacity = 1

	e := echo.New()
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) },
		NewTokenBucket(cfg, nil, logger.Nop()))
	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusNoContent, rec.Code)
	}
}

func TestLocalBucket_Refills(t *testing.T) {
	cfg := testRateConfig()
	cfg.Capacity = 1
	b := newLocalBucket(cfg)
	ctx := context.Background()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	d, err := b.take(ctx, "k", start)
	require.NoError(t, err)
	assert.True(t, d.allowed)

	d, _ = b.take(ctx, "k", start.Add(time.Second))
	assert.False(t, d.allowed)
	assert.InDelta(t, (59 * time.Second).Seconds(), d.retry.Seconds(), 0.01)

	d, _ = b.take(ctx, "k", start.Add(2*time.Minute))
	assert.True(t, d.allowed)
}

func TestBuildRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
	req.Header.Set(echo.HeaderXRealIP, "10.1.1.1")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/api/projects")

	cfg := testRateConfig()
	assert.Equal(t, "rl:ip:10.1.1.1:route:GET /api/projects", buildRateKey(cfg, c))

	cfg.KeyStrategy = "user"
	assert.Equal(t, "rl:user:anon", buildRateKey(cfg, c))
	c.Set(callerKey, model.Caller{ID: 42})
	assert.Equal(t, "rl:user:42", buildRateKey(cfg, c))
}
