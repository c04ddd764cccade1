package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/project-tracker/internal/logger"
	"github.com/iliyamo/project-tracker/internal/middleware"
	"github.com/iliyamo/project-tracker/internal/service"
)

// AuthHandler serves /api/auth.
type AuthHandler struct {
	svc *service.IdentityService
	log logger.Logger
}

func NewAuthHandler(svc *service.IdentityService, log logger.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, log: log}
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register: create the identity and return its first token.
func (h *AuthHandler) Register(c echo.Context) error {
	var req service.RegisterInput
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	res, err := h.svc.Register(c.Request().Context(), req)
	if err != nil {
		return respond(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	res, err := h.svc.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return respond(c, h.log, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Validate answers 200 with {"valid": bool} for any input, reading the
// token from the Authorization header.
func (h *AuthHandler) Validate(c echo.Context) error {
	raw, _ := middleware.BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
	return c.JSON(http.StatusOK, h.svc.Validate(c.Request().Context(), raw))
}

// Me returns the caller's profile.
func (h *AuthHandler) Me(c echo.Context) error {
	cl, err := caller(c)
	if err != nil {
		return respond(c, h.log, err)
	}
	u, err := h.svc.Me(c.Request().Context(), cl)
	if err != nil {
		return respond(c, h.log, err)
	}
	return c.JSON(http.StatusOK, u)
}

// DeleteMe removes the caller's account.
func (h *AuthHandler) DeleteMe(c echo.Context) error {
	cl, err := caller(c)
	if err != nil {
		return respond(c, h.log, err)
	}
	if err := h.svc.DeleteAccount(c.Request().Context(), cl); err != nil {
		return respond(c, h.log, err)
	}
	return c.NoContent(http.StatusNoContent)
}
