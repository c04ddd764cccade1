package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/project-tracker/internal/apperr"
	"github.com/iliyamo/project-tracker/internal/logger"
	"github.com/iliyamo/project-tracker/internal/middleware"
	"github.com/iliyamo/project-tracker/internal/model"
)

// respond writes err as {"error": message} with the status of its code.
// Internal causes are logged, never rendered.
func respond(c echo.Context, log logger.Logger, err error) error {
	status := apperr.HTTPStatus(apperr.CodeOf(err))
	fields := []logger.Field{
		logger.String("method", c.Request().Method),
		logger.String("route", c.Path()),
		logger.Err(err),
	}
	switch {
	case errors.Is(err, apperr.DependencyUnavailable):
		log.Warn("dependency unavailable", fields...)
	case errors.Is(err, apperr.ValidationFailed):
		log.Debug("request rejected", fields...)
	case status >= http.StatusInternalServerError:
		log.Error("request failed", fields...)
	}
	return c.JSON(status, echo.Map{"error": apperr.PublicMessage(err)})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

func caller(c echo.Context) (model.Caller, error) {
	cl, ok := middleware.CallerFrom(c)
	if !ok {
		return model.Caller{}, apperr.Unauthorized
	}
	return cl, nil
}

func parseID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}
