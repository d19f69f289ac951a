package service

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/planner-api/pkg/recurrence"
	"github.com/noah-isme/planner-api/pkg/timecode"
)

const (
	clock12Tag = "clock12"
	weekdayTag = "weekday"
)

// NewValidator returns a validator reporting JSON field names and knowing
// the planner's custom tags.
func NewValidator() *validator.Validate {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = validate.RegisterValidation(clock12Tag, clock12Validation)
	_ = validate.RegisterValidation(weekdayTag, weekdayValidation)
	return validate
}

func clock12Validation(fl validator.FieldLevel) bool {
	_, err := timecode.Parse(fl.Field().String())
	return err == nil
}

func weekdayValidation(fl validator.FieldLevel) bool {
	_, err := recurrence.ParseWeekday(fl.Field().String())
	return err == nil
}

// canonicalTime normalises a display time and returns its sort key.
func canonicalTime(display string) (string, int, error) {
	tod, err := timecode.Parse(display)
	if err != nil {
		return "", 0, err
	}
	return tod.String(), tod.SortKey(), nil
}
