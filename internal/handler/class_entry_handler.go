package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/planner-api/internal/models"
	"github.com/noah-isme/planner-api/internal/service"
	"github.com/noah-isme/planner-api/pkg/recurrence"
	"github.com/noah-isme/planner-api/pkg/response"
)

type classEntryService interface {
	List(ctx context.Context, filter models.ClassEntryFilter) ([]models.ClassEntry, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.ClassEntry, error)
	Occurrences(ctx context.Context, id string, year int, month time.Month) ([]recurrence.Occurrence, error)
	Create(ctx context.Context, req service.ClassEntryRequest) (*models.ClassEntry, error)
	Update(ctx context.Context, id string, req service.ClassEntryRequest) (*models.ClassEntry, error)
	ClearReminder(ctx context.Context, id string) (*models.ClassEntry, error)
	Delete(ctx context.Context, id string) error
}

// ClassEntryHandler manages weekly class endpoints.
type ClassEntryHandler struct {
	service classEntryService
	now     func() time.Time
}

// NewClassEntryHandler constructs handler.
func NewClassEntryHandler(svc classEntryService) *ClassEntryHandler {
	return &ClassEntryHandler{service: svc, now: time.Now}
}

// List godoc
// @Summary List class entries
// @Tags Classes
// @Produce json
// @Param weekday query string false "Filter by weekday"
// @Param q query string false "Search subject and instructor"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /classes [get]
func (h *ClassEntryHandler) List(c *gin.Context) {
	filter := models.ClassEntryFilter{Weekday: c.Query("weekday"), Search: c.Query("q")}
	filter.Page, filter.PageSize = pageParams(c)

	entries, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, pagination)
}

// Get godoc
// @Summary Get class entry
// @Tags Classes
// @Produce json
// @Param id path string true "Class entry ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{id} [get]
func (h *ClassEntryHandler) Get(c *gin.Context) {
	entry, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}

// Occurrences godoc
// @Summary Expand a class entry over a month
// @Tags Classes
// @Produce json
// @Param id path string true "Class entry ID"
// @Param year query int false "Year"
// @Param month query int false "Month (1-12)"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/occurrences [get]
func (h *ClassEntryHandler) Occurrences(c *gin.Context) {
	year, month, err := monthParams(c, h.now())
	if err != nil {
		response.Error(c, err)
		return
	}
	occurrences, err := h.service.Occurrences(c.Request.Context(), c.Param("id"), year, month)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, occurrences, nil, map[string]interface{}{"count": len(occurrences)})
}

// Create godoc
// @Summary Create class entry
// @Tags Classes
// @Accept json
// @Produce json
// @Param payload body service.ClassEntryRequest true "Class entry payload"
// @Success 201 {object} response.Envelope
// @Failure 502 {object} response.Envelope "Stored, but the reminder could not be scheduled"
// @Router /classes [post]
func (h *ClassEntryHandler) Create(c *gin.Context) {
	var req service.ClassEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	entry, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		respondWriteError(c, err, entry)
		return
	}
	response.Created(c, entry)
}

// Update godoc
// @Summary Update class entry
// @Tags Classes
// @Accept json
// @Produce json
// @Param id path string true "Class entry ID"
// @Param payload body service.ClassEntryRequest true "Class entry payload"
// @Success 200 {object} response.Envelope
// @Router /classes/{id} [put]
func (h *ClassEntryHandler) Update(c *gin.Context) {
	var req service.ClassEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	entry, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondWriteError(c, err, entry)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}

// ClearReminder godoc
// @Summary Remove the class reminder
// @Tags Classes
// @Produce json
// @Param id path string true "Class entry ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/reminder [delete]
func (h *ClassEntryHandler) ClearReminder(c *gin.Context) {
	entry, err := h.service.ClearReminder(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}

// Delete godoc
// @Summary Delete class entry
// @Tags Classes
// @Produce json
// @Param id path string true "Class entry ID"
// @Success 204
// @Router /classes/{id} [delete]
func (h *ClassEntryHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
