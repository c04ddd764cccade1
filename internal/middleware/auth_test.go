package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/project-tracker/internal/apperr"
	"github.com/iliyamo/project-tracker/internal/logger"
	"github.com/iliyamo/project-tracker/internal/model"
	"github.com/iliyamo/project-tracker/internal/token"
)

const testSecret = "test-signing-secret-0123456789abcdef"

var now = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func newGuard(t *testing.T) (*Guard, *token.Codec) {
	t.Helper()
	codec, err := token.NewCodec(testSecret, time.Hour)
	require.NoError(t, err)
	g := NewGuard(codec, logger.Nop())
	g.now = func() time.Time { return now }
	return g, codec
}

func TestAuthenticate(t *testing.T) {
	g, codec := newGuard(t)
	tok, err := codec.Issue("alice@example.com", 7, now)
	require.NoError(t, err)

	caller, err := g.Authenticate("Bearer "+tok.Value, now)
	require.NoError(t, err)
	assert.Equal(t, model.Caller{ID: 7, Email: "alice@example.com", Token: tok.Value}, caller)

	_, err = g.Authenticate("bearer "+tok.Value, now)
	assert.NoError(t, err)
}

func TestAuthenticate_UniformFailure(t *testing.T) {
	g, codec := newGuard(t)
	tok, err := codec.Issue("alice@example.com", 7, now)
	require.NoError(t, err)
	other, err := token.NewCodec("another-signing-secret-0123456789abcdef", time.Hour)
	require.NoError(t, err)
	forged, err := other.Issue("alice@example.com", 7, now)
	require.NoError(t, err)

	cases := map[string]struct {
		header string
		at     time.Time
	}{
		"missing":     {"", now},
		"no scheme":   {tok.Value, now},
		"basic":       {"Basic " + tok.Value, now},
		"empty token": {"Bearer   ", now},
		"garbage":     {"Bearer abc.def.ghi", now},
		"expired":     {"Bearer " + tok.Value, tok.ExpiresAt},
		"wrong key":   {"Bearer " + forged.Value, now},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := g.Authenticate(tc.header, tc.at)
			assert.ErrorIs(t, err, apperr.Unauthorized)
			assert.Equal(t, "unauthorized", err.Error())
		})
	}
}

func TestBearerAuth(t *testing.T) {
	g, codec := newGuard(t)
	tok, err := codec.Issue("bob@example.com", 3, now)
	require.NoError(t, err)

	e := echo.New()
	e.GET("/private", func(c echo.Context) error {
		caller, ok := CallerFrom(c)
		require.True(t, ok)
		assert.Equal(t, tok.Value, caller.Token)
		return c.JSON(http.StatusOK, echo.Map{"id": caller.ID})
	}, g.BearerAuth())

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok.Value)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":3}`, rec.Body.String())

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/private", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"unauthorized"}`, rec.Body.String())
}
