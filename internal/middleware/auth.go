package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/project-tracker/internal/apperr"
	"github.com/iliyamo/project-tracker/internal/logger"
	"github.com/iliyamo/project-tracker/internal/model"
	"github.com/iliyamo/project-tracker/internal/token"
)

const callerKey = "caller"

// Guard turns an Authorization header into a verified Caller. Each service
// runs its own Guard against the shared secret; nothing is looked up.
type Guard struct {
	codec *token.Codec
	log   logger.Logger
	now   func() time.Time
}

func NewGuard(codec *token.Codec, log logger.Logger) *Guard {
	return &Guard{codec: codec, log: log, now: time.Now}
}

// Authenticate verifies "Bearer <token>" as of now. Every failure is the
// same Unauthorized error; the reason goes to the debug log only.
func (g *Guard) Authenticate(header string, now time.Time) (model.Caller, error) {
	raw, ok := BearerToken(header)
	if !ok {
		g.log.Debug("auth rejected", logger.String("reason", "missing bearer token"))
		return model.Caller{}, apperr.Unauthorized
	}
	claims, err := g.codec.Verify(raw, now)
	if err != nil {
		g.log.Debug("auth rejected", logger.Bool("expired", token.IsExpired(err)), logger.Err(err))
		return model.Caller{}, apperr.Unauthorized
	}
	return model.Caller{ID: claims.UserID, Email: claims.Email(), Token: raw}, nil
}

// BearerAuth rejects unauthenticated requests with 401 and binds the Caller
// for handlers (CallerFrom).
func (g *Guard) BearerAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			caller, err := g.Authenticate(c.Request().Header.Get(echo.HeaderAuthorization), g.now())
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": apperr.Unauthorized.Message})
			}
			SetCaller(c, caller)
			return next(c)
		}
	}
}

// SetCaller binds caller to the echo context.
func SetCaller(c echo.Context, caller model.Caller) {
	c.Set(callerKey, caller)
}

// CallerFrom returns the Caller bound by BearerAuth.
func CallerFrom(c echo.Context) (model.Caller, bool) {
	caller, ok := c.Get(callerKey).(model.Caller)
	return caller, ok
}

// BearerToken extracts the credential of a "Bearer <token>" header. The
// scheme is matched case-insensitively.
func BearerToken(header string) (string, bool) {
	scheme, raw, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}
