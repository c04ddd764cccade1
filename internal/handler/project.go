package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/project-tracker/internal/logger"
	"github.com/iliyamo/project-tracker/internal/service"
)

// ProjectHandler serves /api/projects.
type ProjectHandler struct {
	svc *service.ProjectService
	log logger.Logger
}

func NewProjectHandler(svc *service.ProjectService, log logger.Logger) *ProjectHandler {
	return &ProjectHandler{svc: svc, log: log}
}

func (h *ProjectHandler) Create(c echo.Context) error {
	cl, err := caller(c)
	if err != nil {
		return respond(c, h.log, err)
	}
	var req service.ProjectInput
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	view, err := h.svc.Create(c.Request().Context(), cl, req)
	if err != nil {
		return respond(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, view)
}

func (h *ProjectHandler) List(c echo.Context) error {
	cl, err := caller(c)
	if err != nil {
		return respond(c, h.log, err)
	}
	items, err := h.svc.List(c.Request().Context(), cl)
	if err != nil {
		return respond(c, h.log, err)
	}
	return c.JSON(http.StatusOK, items)
}

// Search handles GET /api/projects/search?query=
func (h *ProjectHandler) Search(c echo.Context) error {
	cl, err := caller(c)
	if err != nil {
		return respond(c, h.log, err)
	}
	items, err := h.svc.Search(c.Request().Context(), cl, c.QueryParam("query"))
	if err != nil {
		return respond(c, h.log, err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *ProjectHandler) Get(c echo.Context) error {
	cl, err := caller(c)
	if err != nil {
		return respond(c, h.log, err)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	view, err := h.svc.Get(c.Request().Context(), cl, id)
	if err != nil {
		return respond(c, h.log, err)
	}
	return c.JSON(http.StatusOK, view)
}

// Probe handles HEAD /api/projects/:id. It answers 204 to the owner and
// skips stats enrichment; the task service calls it before creating tasks.
func (h *ProjectHandler) Probe(c echo.Context) error {
	cl, err := caller(c)
	if err != nil {
		return respond(c, h.log, err)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	if err := h.svc.CheckOwner(c.Request().Context(), cl, id); err != nil {
		return respond(c, h.log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ProjectHandler) Update(c echo.Context) error {
	cl, err := caller(c)
	if err != nil {
		return respond(c, h.log, err)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req service.ProjectInput
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	view, err := h.svc.Update(c.Request().Context(), cl, id, req)
	if err != nil {
		return respond(c, h.log, err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *ProjectHandler) Delete(c echo.Context) error {
	cl, err := caller(c)
	if err != nil {
		return respond(c, h.log, err)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	if err := h.svc.Delete(c.Request().Context(), cl, id); err != nil {
		return respond(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "project deleted"})
}
