package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/planner-api/pkg/errors"
	"github.com/noah-isme/planner-api/pkg/response"
)

func pageParams(c *gin.Context) (page, size int) {
	if v, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		page = v
	}
	if v, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		size = v
	}
	return page, size
}

// monthParams reads year and month query values, defaulting to the current
// month in UTC.
func monthParams(c *gin.Context, now time.Time) (int, time.Month, error) {
	year, month := now.UTC().Year(), now.UTC().Month()
	if raw := c.Query("year"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return 0, 0, appErrors.Clone(appErrors.ErrValidation, "year must be a number")
		}
		year = v
	}
	if raw := c.Query("month"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > 12 {
			return 0, 0, appErrors.Clone(appErrors.ErrValidation, "month must be between 1 and 12")
		}
		month = time.Month(v)
	}
	return year, month, nil
}

func dateParam(c *gin.Context, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, key+" must be YYYY-MM-DD")
	}
	return &t, nil
}

func bindError(err error) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
}

// respondWriteError reports a failed write. A non-nil resource means it was
// stored and only its reminder failed, so the resource is returned as well.
func respondWriteError[T any](c *gin.Context, err error, resource *T) {
	if resource != nil {
		response.ErrorWithData(c, err, resource)
		return
	}
	response.Error(c, err)
}
