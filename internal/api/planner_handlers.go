package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/daybookapp/daybook/internal/planner"
	"github.com/daybookapp/daybook/internal/priority"
	"github.com/daybookapp/daybook/internal/store"
)

// DaySchedule handles GET /api/v1/planner/days/{date}.
func (h *Handler) DaySchedule(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	if _, err := time.Parse("2006-01-02", date); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	schedule, err := h.svc.Planner.DaySchedule(date)
	if err != nil {
		MapDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, schedule)
}

// ScheduleTasks handles POST /api/v1/planner/days/{date}/schedule. The
// batch is all-or-nothing: a missing task aborts every placement.
func (h *Handler) ScheduleTasks(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Placements []planner.PlacementRequest `json:"placements"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Placements) == 0 {
		WriteProblem(w, r, http.StatusUnprocessableEntity, "placements must not be empty")
		return
	}
	date := chi.URLParam(r, "date")
	if err := h.svc.Planner.ScheduleTasks(date, req.Placements); err != nil {
		// A missing task aborts the whole batch, so surface it as a
		// conflict rather than a plain not-found.
		if errors.Is(err, store.ErrNotFound) {
			WriteProblem(w, r, http.StatusConflict, err.Error())
			return
		}
		MapDomainError(w, r, err)
		return
	}
	schedule, err := h.svc.Planner.DaySchedule(date)
	if err != nil {
		MapDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, schedule)
}

// UnscheduleTask handles POST /api/v1/tasks/{id}/unschedule.
func (h *Handler) UnscheduleTask(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Planner.UnscheduleTask(chi.URLParam(r, "id")); err != nil {
		MapDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StartWorkflow handles POST /api/v1/planner/workflows.
func (h *Handler) StartWorkflow(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Dates []string `json:"dates"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	wf, err := h.svc.Workflows.Start(req.Dates)
	if err != nil {
		WriteProblem(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, wf)
}

// GetWorkflow handles GET /api/v1/planner/workflows/{id}.
func (h *Handler) GetWorkflow(w http.ResponseWriter, r *http.Request) {
	wf, err := h.svc.Workflows.Get(chi.URLParam(r, "id"))
	if err != nil {
		MapDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wf)
}

// NavigateWorkflow handles POST /api/v1/planner/workflows/{id}/navigate.
func (h *Handler) NavigateWorkflow(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Step string `json:"step"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	wf, err := h.svc.Workflows.Navigate(chi.URLParam(r, "id"), planner.Step(req.Step))
	if err != nil {
		MapDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wf)
}

// WorkflowReview handles GET /api/v1/planner/workflows/{id}/review.
func (h *Handler) WorkflowReview(w http.ResponseWriter, r *http.Request) {
	review, err := h.svc.Workflows.Review(chi.URLParam(r, "id"))
	if err != nil {
		MapDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, review)
}

// WorkflowResolveReview handles POST /api/v1/planner/workflows/{id}/review.
func (h *Handler) WorkflowResolveReview(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TaskID string `json:"task_id"`
		Action string `json:"action"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.TaskID == "" || req.Action == "" {
		WriteProblem(w, r, http.StatusUnprocessableEntity, "task_id and action are required")
		return
	}
	task, err := h.svc.Workflows.ResolveReviewTask(chi.URLParam(r, "id"), req.TaskID, req.Action)
	if err != nil {
		if errors.Is(err, planner.ErrWorkflowNotFound) || errors.Is(err, store.ErrNotFound) {
			MapDomainError(w, r, err)
			return
		}
		WriteProblem(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// WorkflowChooseTasks handles POST /api/v1/planner/workflows/{id}/tasks.
func (h *Handler) WorkflowChooseTasks(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TaskIDs []string `json:"task_ids"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	capacity, err := h.svc.Workflows.ChooseTasks(chi.URLParam(r, "id"), req.TaskIDs)
	if err != nil {
		MapDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, capacity)
}

// WorkflowConfirm handles GET /api/v1/planner/workflows/{id}/confirm.
func (h *Handler) WorkflowConfirm(w http.ResponseWriter, r *http.Request) {
	confirm, err := h.svc.Workflows.Confirm(chi.URLParam(r, "id"))
	if err != nil {
		MapDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, confirm)
}

// WorkflowFinishDay handles POST /api/v1/planner/workflows/{id}/finish.
func (h *Handler) WorkflowFinishDay(w http.ResponseWriter, r *http.Request) {
	wf, err := h.svc.Workflows.FinishDay(chi.URLParam(r, "id"))
	if err != nil {
		MapDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wf)
}

// DiscardWorkflow handles DELETE /api/v1/planner/workflows/{id}.
func (h *Handler) DiscardWorkflow(w http.ResponseWriter, r *http.Request) {
	h.svc.Workflows.Discard(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

// ListStrategies handles GET /api/v1/priority/strategies.
func (h *Handler) ListStrategies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, priority.Strategies())
}

// StartPrioritySession handles POST /api/v1/priority/sessions.
func (h *Handler) StartPrioritySession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ListID   string   `json:"list_id"`
		Strategy string   `json:"strategy"`
		GoalIDs  []string `json:"goal_ids,omitempty"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ListID == "" || req.Strategy == "" {
		WriteProblem(w, r, http.StatusUnprocessableEntity, "list_id and strategy are required")
		return
	}
	session, err := h.svc.Priority.Start(req.ListID, req.Strategy, req.GoalIDs)
	if err != nil {
		MapDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// ApplyPriorityDecisions handles POST /api/v1/priority/decisions.
// Missing tasks are collected into the failed list while the rest
// commit, unlike the all-or-nothing schedule batch.
func (h *Handler) ApplyPriorityDecisions(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Decisions []priority.Decision `json:"decisions"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := h.svc.Priority.Apply(req.Decisions)
	if err != nil {
		MapDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// PrioritySummary handles GET /api/v1/priority/summary?list_id=&list_id=.
func (h *Handler) PrioritySummary(w http.ResponseWriter, r *http.Request) {
	listIDs := r.URL.Query()["list_id"]
	summary, err := h.svc.Priority.Summarize(listIDs, time.Now().UTC().Format("2006-01-02"))
	if err != nil {
		MapDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// AnalyticsToday handles GET /api/v1/analytics/today.
func (h *Handler) AnalyticsToday(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.Analytics.Today(time.Now().UTC())
	if err != nil {
		MapDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// AnalyticsWeek handles GET /api/v1/analytics/week.
func (h *Handler) AnalyticsWeek(w http.ResponseWriter, r *http.Request) {
	trend, err := h.svc.Analytics.WeeklyTrend(time.Now().UTC())
	if err != nil {
		MapDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trend)
}

// AnalyticsStreaks handles GET /api/v1/analytics/streaks.
func (h *Handler) AnalyticsStreaks(w http.ResponseWriter, r *http.Request) {
	streaks, err := h.svc.Analytics.Streaks(time.Now().UTC())
	if err != nil {
		MapDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, streaks)
}

// StartFocusSession handles POST /api/v1/focus/sessions.
func (h *Handler) StartFocusSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TaskID         string `json:"task_id"`
		PlannedMinutes int    `json:"planned_minutes"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	session, err := h.svc.Store.StartFocusSession(req.TaskID, req.PlannedMinutes)
	if err != nil {
		MapDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

// ActiveFocusSession handles GET /api/v1/focus/sessions/active.
func (h *Handler) ActiveFocusSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.svc.Store.ActiveFocusSession()
	if err != nil {
		MapDomainError(w, r, err)
		return
	}
	if session == nil {
		writeJSON(w, http.StatusOK, map[string]any{"active": false})
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// FinishFocusSession handles POST /api/v1/focus/sessions/{id}/finish.
func (h *Handler) FinishFocusSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Completed bool `json:"completed"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	session, err := h.svc.Store.FinishFocusSession(chi.URLParam(r, "id"), req.Completed)
	if err != nil {
		MapDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}
