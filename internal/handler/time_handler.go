package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/planner-api/pkg/errors"
	"github.com/noah-isme/planner-api/pkg/response"
	"github.com/noah-isme/planner-api/pkg/timecode"
)

// TimeHandler exposes the time codec.
type TimeHandler struct{}

// NewTimeHandler constructs handler.
func NewTimeHandler() *TimeHandler {
	return &TimeHandler{}
}

// SortKeyRequest carries a display time to encode.
type SortKeyRequest struct {
	Display string `json:"display" binding:"required"`
}

// TimeCode is the pair of representations for one time of day.
type TimeCode struct {
	Display string `json:"display"`
	SortKey int    `json:"sort_key"`
}

// SortKey godoc
// @Summary Encode a display time as sort key
// @Tags Time
// @Accept json
// @Produce json
// @Param payload body SortKeyRequest true "Display time"
// @Success 200 {object} response.Envelope
// @Router /time/sort-key [post]
func (h *TimeHandler) SortKey(c *gin.Context) {
	var req SortKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	tod, err := timecode.Parse(req.Display)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, TimeCode{Display: tod.String(), SortKey: tod.SortKey()}, nil)
}

// Display godoc
// @Summary Decode a sort key into a display time
// @Tags Time
// @Produce json
// @Param code query int true "Sort key"
// @Success 200 {object} response.Envelope
// @Router /time/display [get]
func (h *TimeHandler) Display(c *gin.Context) {
	code, err := strconv.Atoi(c.Query("code"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "code must be an integer"))
		return
	}
	display, err := timecode.FromSortKey(code)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, TimeCode{Display: display, SortKey: code}, nil)
}
