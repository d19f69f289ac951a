package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/planner-api/internal/models"
	"github.com/noah-isme/planner-api/internal/service"
	"github.com/noah-isme/planner-api/pkg/response"
)

type taskService interface {
	List(ctx context.Context, filter models.TaskFilter) ([]models.Task, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.Task, error)
	Create(ctx context.Context, req service.TaskRequest) (*models.Task, error)
	Update(ctx context.Context, id string, req service.TaskRequest) (*models.Task, error)
	SetCompleted(ctx context.Context, id string, completed bool) (*models.Task, error)
	ClearReminder(ctx context.Context, id string) (*models.Task, error)
	Delete(ctx context.Context, id string) error
}

// TaskHandler manages task endpoints.
type TaskHandler struct {
	service taskService
}

// NewTaskHandler constructs handler.
func NewTaskHandler(svc taskService) *TaskHandler {
	return &TaskHandler{service: svc}
}

// CompleteRequest toggles task completion.
type CompleteRequest struct {
	Completed *bool `json:"completed"`
}

// List godoc
// @Summary List tasks
// @Tags Tasks
// @Produce json
// @Param completed query bool false "Filter by completion"
// @Param from query string false "Due on or after (YYYY-MM-DD)"
// @Param to query string false "Due on or before (YYYY-MM-DD)"
// @Param q query string false "Search title"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /tasks [get]
func (h *TaskHandler) List(c *gin.Context) {
	var filter models.TaskFilter
	var err error
	if raw := c.Query("completed"); raw != "" {
		if v, perr := strconv.ParseBool(raw); perr == nil {
			filter.Completed = &v
		}
	}
	if filter.From, err = dateParam(c, "from"); err != nil {
		response.Error(c, err)
		return
	}
	if filter.To, err = dateParam(c, "to"); err != nil {
		response.Error(c, err)
		return
	}
	filter.Search = c.Query("q")
	filter.Page, filter.PageSize = pageParams(c)

	tasks, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tasks, pagination)
}

// Get godoc
// @Summary Get task
// @Tags Tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} response.Envelope
// @Router /tasks/{id} [get]
func (h *TaskHandler) Get(c *gin.Context) {
	task, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, task, nil)
}

// Create godoc
// @Summary Create task
// @Tags Tasks
// @Accept json
// @Produce json
// @Param payload body service.TaskRequest true "Task payload"
// @Success 201 {object} response.Envelope
// @Failure 502 {object} response.Envelope "Stored, but the reminder could not be scheduled"
// @Router /tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	var req service.TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	task, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		respondWriteError(c, err, task)
		return
	}
	response.Created(c, task)
}

// Update godoc
// @Summary Update task
// @Tags Tasks
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param payload body service.TaskRequest true "Task payload"
// @Success 200 {object} response.Envelope
// @Router /tasks/{id} [put]
func (h *TaskHandler) Update(c *gin.Context) {
	var req service.TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	task, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondWriteError(c, err, task)
		return
	}
	response.JSON(c, http.StatusOK, task, nil)
}

// Complete godoc
// @Summary Mark task completed or open
// @Tags Tasks
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param payload body CompleteRequest false "Defaults to completed=true"
// @Success 200 {object} response.Envelope
// @Router /tasks/{id}/complete [put]
func (h *TaskHandler) Complete(c *gin.Context) {
	completed := true
	var req CompleteRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, bindError(err))
			return
		}
		if req.Completed != nil {
			completed = *req.Completed
		}
	}
	task, err := h.service.SetCompleted(c.Request.Context(), c.Param("id"), completed)
	if err != nil {
		respondWriteError(c, err, task)
		return
	}
	response.JSON(c, http.StatusOK, task, nil)
}

// ClearReminder godoc
// @Summary Remove the task reminder
// @Tags Tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} response.Envelope
// @Router /tasks/{id}/reminder [delete]
func (h *TaskHandler) ClearReminder(c *gin.Context) {
	task, err := h.service.ClearReminder(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, task, nil)
}

// Delete godoc
// @Summary Delete task
// @Tags Tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 204
// @Router /tasks/{id} [delete]
func (h *TaskHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
