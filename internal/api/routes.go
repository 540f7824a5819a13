package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter creates a new router with all routes configured
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware (all routes)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware)
	r.Use(RecoveryMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Route("/lists", func(r chi.Router) {
			r.Get("/", h.ListLists)
			r.Post("/", h.CreateList)
			r.Post("/reorder", h.ReorderLists)
			r.Get("/{id}", h.GetList)
			r.Patch("/{id}", h.UpdateList)
			r.Delete("/{id}", h.DeleteList)
			r.Get("/{id}/tasks", h.ListTasks)
			r.Post("/{id}/tasks/reorder", h.ReorderTasks)
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Post("/", h.CreateTask)
			r.Post("/quick-add", h.QuickAddTask)
			r.Post("/parse", h.ParseInput)
			r.Get("/search", h.SearchTasks)
			r.Get("/due", h.TasksDue)
			r.Get("/{id}", h.GetTask)
			r.Patch("/{id}", h.UpdateTask)
			r.Delete("/{id}", h.DeleteTask)
			r.Post("/{id}/complete", h.CompleteTask)
			r.Post("/{id}/uncomplete", h.UncompleteTask)
			r.Post("/{id}/unschedule", h.UnscheduleTask)
			r.Post("/{id}/reminder", h.SetReminder)
			r.Post("/{id}/subtasks", h.CreateSubtask)
			r.Get("/{id}/subtasks", h.ListSubtasks)
			r.Post("/{id}/subtasks/reorder", h.ReorderSubtasks)
			r.Post("/{id}/tags", h.TagTask)
			r.Delete("/{id}/tags/{tagID}", h.UntagTask)
		})

		r.Route("/subtasks", func(r chi.Router) {
			r.Patch("/{id}", h.UpdateSubtask)
			r.Delete("/{id}", h.DeleteSubtask)
		})

		r.Route("/tags", func(r chi.Router) {
			r.Get("/", h.ListTags)
			r.Delete("/{id}", h.DeleteTag)
		})

		r.Route("/goals", func(r chi.Router) {
			r.Get("/", h.ListGoals)
			r.Post("/", h.CreateGoal)
			r.Get("/{id}", h.GetGoal)
			r.Patch("/{id}", h.UpdateGoal)
			r.Delete("/{id}", h.DeleteGoal)
			r.Get("/{id}/tasks", h.GoalTasks)
			r.Post("/{id}/tasks", h.LinkTask)
			r.Delete("/{id}/tasks/{taskID}", h.UnlinkTask)
		})

		r.Route("/planner", func(r chi.Router) {
			r.Get("/days/{date}", h.DaySchedule)
			r.Post("/days/{date}/schedule", h.ScheduleTasks)
			r.Route("/workflows", func(r chi.Router) {
				r.Post("/", h.StartWorkflow)
				r.Get("/{id}", h.GetWorkflow)
				r.Delete("/{id}", h.DiscardWorkflow)
				r.Post("/{id}/navigate", h.NavigateWorkflow)
				r.Get("/{id}/review", h.WorkflowReview)
				r.Post("/{id}/review", h.WorkflowResolveReview)
				r.Post("/{id}/tasks", h.WorkflowChooseTasks)
				r.Get("/{id}/confirm", h.WorkflowConfirm)
				r.Post("/{id}/finish", h.WorkflowFinishDay)
			})
		})

		r.Route("/priority", func(r chi.Router) {
			r.Get("/strategies", h.ListStrategies)
			r.Post("/sessions", h.StartPrioritySession)
			r.Post("/decisions", h.ApplyPriorityDecisions)
			r.Get("/summary", h.PrioritySummary)
		})

		r.Route("/analytics", func(r chi.Router) {
			r.Get("/today", h.AnalyticsToday)
			r.Get("/week", h.AnalyticsWeek)
			r.Get("/streaks", h.AnalyticsStreaks)
		})

		r.Route("/focus", func(r chi.Router) {
			r.Post("/sessions", h.StartFocusSession)
			r.Get("/sessions/active", h.ActiveFocusSession)
			r.Post("/sessions/{id}/finish", h.FinishFocusSession)
		})
	})

	return r
}
