package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/planner-api/pkg/errors"
	"github.com/noah-isme/planner-api/pkg/recurrence"
	"github.com/noah-isme/planner-api/pkg/response"
)

type occurrenceExpander interface {
	Expand(rule recurrence.Rule, year int, month time.Month, entityID string) ([]recurrence.Occurrence, error)
}

// OccurrenceHandler expands ad-hoc weekday rules.
type OccurrenceHandler struct {
	expander occurrenceExpander
	now      func() time.Time
}

// NewOccurrenceHandler constructs handler.
func NewOccurrenceHandler(expander occurrenceExpander) *OccurrenceHandler {
	return &OccurrenceHandler{expander: expander, now: time.Now}
}

// Expand godoc
// @Summary Expand weekdays over a month
// @Tags Occurrences
// @Produce json
// @Param weekdays query string true "Comma separated weekday names or TBA"
// @Param year query int false "Year"
// @Param month query int false "Month (1-12)"
// @Success 200 {object} response.Envelope
// @Router /occurrences [get]
func (h *OccurrenceHandler) Expand(c *gin.Context) {
	raw := strings.TrimSpace(c.Query("weekdays"))
	if raw == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "weekdays required"))
		return
	}
	year, month, err := monthParams(c, h.now())
	if err != nil {
		response.Error(c, err)
		return
	}
	rule, err := recurrence.ParseRule(strings.Split(raw, ","))
	if err != nil {
		response.Error(c, err)
		return
	}
	occurrences, err := h.expander.Expand(rule, year, month, "")
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, occurrences, nil, map[string]interface{}{
		"weekdays": rule.Names(),
		"rrule":    rule.RRule(),
		"count":    len(occurrences),
	})
}
