package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/project-tracker/internal/logger"
	"github.com/iliyamo/project-tracker/internal/service"
)

// TaskHandler serves /api/tasks.
type TaskHandler struct {
	svc *service.TaskService
	log logger.Logger
}

func NewTaskHandler(svc *service.TaskService, log logger.Logger) *TaskHandler {
	return &TaskHandler{svc: svc, log: log}
}

func (h *TaskHandler) Create(c echo.Context) error {
	cl, err := caller(c)
	if err != nil {
		return respond(c, h.log, err)
	}
	var req service.TaskInput
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	t, err := h.svc.Create(c.Request().Context(), cl, req)
	if err != nil {
		return respond(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, t)
}

// ListByProject handles GET /api/tasks/project/:projectId
func (h *TaskHandler) ListByProject(c echo.Context) error {
	cl, err := caller(c)
	if err != nil {
		return respond(c, h.log, err)
	}
	pid, ok := parseID(c, "projectId")
	if !ok {
		return badRequest(c, "invalid project id")
	}
	items, err := h.svc.ListByProject(c.Request().Context(), cl, pid)
	if err != nil {
		return respond(c, h.log, err)
	}
	return c.JSON(http.StatusOK, items)
}

// Search handles GET /api/tasks/project/:projectId/search?query=
func (h *TaskHandler) Search(c echo.Context) error {
	cl, err := caller(c)
	if err != nil {
		return respond(c, h.log, err)
	}
	pid, ok := parseID(c, "projectId")
	if !ok {
		return badRequest(c, "invalid project id")
	}
	items, err := h.svc.Search(c.Request().Context(), cl, pid, c.QueryParam("query"))
	if err != nil {
		return respond(c, h.log, err)
	}
	return c.JSON(http.StatusOK, items)
}

// Filter handles GET /api/tasks/project/:projectId/filter?completed=
func (h *TaskHandler) Filter(c echo.Context) error {
	cl, err := caller(c)
	if err != nil {
		return respond(c, h.log, err)
	}
	pid, ok := parseID(c, "projectId")
	if !ok {
		return badRequest(c, "invalid project id")
	}
	completed, err := strconv.ParseBool(c.QueryParam("completed"))
	if err != nil {
		return badRequest(c, "completed must be true or false")
	}
	items, err := h.svc.FilterByStatus(c.Request().Context(), cl, pid, completed)
	if err != nil {
		return respond(c, h.log, err)
	}
	return c.JSON(http.StatusOK, items)
}

// Stats handles GET /api/tasks/project/:projectId/stats
func (h *TaskHandler) Stats(c echo.Context) error {
	cl, err := caller(c)
	if err != nil {
		return respond(c, h.log, err)
	}
	pid, ok := parseID(c, "projectId")
	if !ok {
		return badRequest(c, "invalid project id")
	}
	s, err := h.svc.Stats(c.Request().Context(), cl, pid)
	if err != nil {
		return respond(c, h.log, err)
	}
	return c.JSON(http.StatusOK, s)
}

func (h *TaskHandler) Get(c echo.Context) error {
	cl, err := caller(c)
	if err != nil {
		return respond(c, h.log, err)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	t, err := h.svc.Get(c.Request().Context(), cl, id)
	if err != nil {
		return respond(c, h.log, err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *TaskHandler) Update(c echo.Context) error {
	cl, err := caller(c)
	if err != nil {
		return respond(c, h.log, err)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req service.TaskInput
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	t, err := h.svc.Update(c.Request().Context(), cl, id, req)
	if err != nil {
		return respond(c, h.log, err)
	}
	return c.JSON(http.StatusOK, t)
}

// Toggle handles PATCH /api/tasks/:id/toggle
func (h *TaskHandler) Toggle(c echo.Context) error {
	cl, err := caller(c)
	if err != nil {
		return respond(c, h.log, err)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	t, err := h.svc.Toggle(c.Request().Context(), cl, id)
	if err != nil {
		return respond(c, h.log, err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *TaskHandler) Delete(c echo.Context) error {
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
	return c.JSON(http.StatusOK, echo.Map{"message": "task deleted"})
}
