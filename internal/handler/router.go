package handler

import "github.com/gin-gonic/gin"

// Handlers bundles every API handler mounted under the API prefix.
type Handlers struct {
	Time        *TimeHandler
	Occurrences *OccurrenceHandler
	Tasks       *TaskHandler
	Schedules   *ScheduleHandler
	Classes     *ClassEntryHandler
	Agenda      *AgendaHandler
	Metrics     *MetricsHandler
}

// Register mounts the planner routes on r.
func Register(r gin.IRouter, h Handlers) {
	timeGroup := r.Group("/time")
	timeGroup.POST("/sort-key", h.Time.SortKey)
	timeGroup.GET("/display", h.Time.Display)

	r.GET("/occurrences", h.Occurrences.Expand)

	tasks := r.Group("/tasks")
	tasks.GET("", h.Tasks.List)
	tasks.POST("", h.Tasks.Create)
	tasks.GET("/:id", h.Tasks.Get)
	tasks.PUT("/:id", h.Tasks.Update)
	tasks.DELETE("/:id", h.Tasks.Delete)
	tasks.PUT("/:id/complete", h.Tasks.Complete)
	tasks.DELETE("/:id/reminder", h.Tasks.ClearReminder)

	schedules := r.Group("/schedules")
	schedules.GET("", h.Schedules.List)
	schedules.POST("", h.Schedules.Create)
	schedules.GET("/:id", h.Schedules.Get)
	schedules.PUT("/:id", h.Schedules.Update)
	schedules.DELETE("/:id", h.Schedules.Delete)
	schedules.DELETE("/:id/reminder", h.Schedules.ClearReminder)

	classes := r.Group("/classes")
	classes.GET("", h.Classes.List)
	classes.POST("", h.Classes.Create)
	classes.GET("/:id", h.Classes.Get)
	classes.PUT("/:id", h.Classes.Update)
	classes.DELETE("/:id", h.Classes.Delete)
	classes.GET("/:id/occurrences", h.Classes.Occurrences)
	classes.DELETE("/:id/reminder", h.Classes.ClearReminder)

	agenda := r.Group("/agenda")
	agenda.GET("", h.Agenda.Month)
	agenda.GET("/export", h.Agenda.Export)

	if h.Metrics != nil {
		r.GET("/metrics/summary", h.Metrics.Summary)
	}
}
