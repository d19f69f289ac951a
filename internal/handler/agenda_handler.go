package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/planner-api/internal/models"
	"github.com/noah-isme/planner-api/internal/service"
	"github.com/noah-isme/planner-api/pkg/response"
)

type agendaService interface {
	Month(ctx context.Context, year int, month time.Month) (*models.Agenda, error)
}

type agendaExporter interface {
	Month(ctx context.Context, year int, month time.Month, format service.ExportFormat) (*service.ExportResult, error)
}

// AgendaHandler serves month agendas and their exports.
type AgendaHandler struct {
	agenda   agendaService
	exporter agendaExporter
	now      func() time.Time
}

// NewAgendaHandler constructs handler.
func NewAgendaHandler(agenda agendaService, exporter agendaExporter) *AgendaHandler {
	return &AgendaHandler{agenda: agenda, exporter: exporter, now: time.Now}
}

// Month godoc
// @Summary Month agenda
// @Tags Agenda
// @Produce json
// @Param year query int false "Year"
// @Param month query int false "Month (1-12)"
// @Success 200 {object} response.Envelope
// @Router /agenda [get]
func (h *AgendaHandler) Month(c *gin.Context) {
	year, month, err := monthParams(c, h.now())
	if err != nil {
		response.Error(c, err)
		return
	}
	agenda, err := h.agenda.Month(c.Request.Context(), year, month)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, agenda, nil, map[string]interface{}{
		"items":       agenda.ItemCount(),
		"unscheduled": len(agenda.Unscheduled),
	})
}

// Export godoc
// @Summary Export month agenda
// @Tags Agenda
// @Produce text/csv
// @Produce application/pdf
// @Produce text/calendar
// @Param year query int false "Year"
// @Param month query int false "Month (1-12)"
// @Param format query string false "csv, pdf or ics"
// @Success 200 {file} file
// @Router /agenda/export [get]
func (h *AgendaHandler) Export(c *gin.Context) {
	year, month, err := monthParams(c, h.now())
	if err != nil {
		response.Error(c, err)
		return
	}
	format, err := service.ParseExportFormat(c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.exporter.Month(c.Request.Context(), year, month, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, result.Filename, result.ContentType, result.Body)
}
