package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/daybookapp/daybook/internal/core"
	"github.com/daybookapp/daybook/internal/store"
	"github.com/daybookapp/daybook/internal/types"
)

// Handler implements the HTTP adapter over the core service.
type Handler struct {
	svc     *core.Service
	version string
}

func NewHandler(svc *core.Service, version string) *Handler {
	return &Handler{svc: svc, version: version}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return false
	}
	return true
}

// Health returns the health status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": h.version,
	})
}

// ListLists handles GET /api/v1/lists.
func (h *Handler) ListLists(w http.ResponseWriter, r *http.Request) {
	lists, err := h.svc.Store.Lists()
	if err != nil {
		MapDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lists)
}

// CreateList handles POST /api/v1/lists.
func (h *Handler) CreateList(w http.ResponseWriter, r *http.Request) {
	var req types.List
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" {
		WriteProblem(w, r, http.StatusUnprocessableEntity, "name is required")
		return
	}
	list, err := h.svc.Store.CreateList(req)
	if err != nil {
		MapDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, list)
}

// GetList handles GET /api/v1/lists/{id}.
func (h *Handler) GetList(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Store.GetList(chi.URLParam(r, "id"))
	if err != nil {
		MapDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// listUpdateRequest mirrors store.ListUpdate with wire names.
type listUpdateRequest struct {
	Name        *string            `json:"name,omitempty"`
	Description *string            `json:"description,omitempty"`
	Icon        *string            `json:"icon,omitempty"`
	Color       *string            `json:"color,omitempty"`
	SmartFilter *types.SmartFilter `json:"smart_filter,omitempty"`
}

// UpdateList handles PATCH /api/v1/lists/{id}.
func (h *Handler) UpdateList(w http.ResponseWriter, r *http.Request) {
	var req listUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	list, err := h.svc.Store.UpdateList(chi.URLParam(r, "id"), store.ListUpdate{
		Name:        req.Name,
		Description: req.Description,
		Icon:        req.Icon,
		Color:       req.Color,
		SmartFilter: req.SmartFilter,
	})
	if err != nil {
		MapDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// DeleteList handles DELETE /api/v1/lists/{id}.
func (h *Handler) DeleteList(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Store.DeleteList(chi.URLParam(r, "id")); err != nil {
		MapDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ReorderLists handles POST /api/v1/lists/reorder.
func (h *Handler) ReorderLists(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs []string `json:"ids"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.Store.ReorderLists(req.IDs); err != nil {
		MapDomainError(w, r, err)
		return
	}
	lists, err := h.svc.Store.Lists()
	if err != nil {
		MapDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lists)
}

// ListTasks handles GET /api/v1/lists/{id}/tasks. Smart lists evaluate
// their saved filter instead of reading their own rows.
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	list, err := h.svc.Store.GetList(id)
	if err != nil {
		MapDomainError(w, r, err)
		return
	}

	var tasks []types.Task
	if list.IsSmart && list.SmartFilter != nil {
		tasks, err = h.svc.Store.EvaluateSmartFilter(list.SmartFilter, time.Now().UTC().Format("2006-01-02"))
	} else {
		includeCompleted := r.URL.Query().Get("include_completed") == "true"
		tasks, err = h.svc.Store.TasksByList(id, includeCompleted)
	}
	if err != nil {
		MapDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

// CreateTask handles POST /api/v1/tasks.
func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req types.Task
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Title == "" {
		WriteProblem(w, r, http.StatusUnprocessableEntity, "title is required")
		return
	}
	if req.ListID == "" {
		def, err := h.svc.Store.DefaultList()
		if err != nil {
			MapDomainError(w, r, err)
			return
		}
		req.ListID = def.ID
	}
	task, err := h.svc.Store.CreateTask(req)
	if err != nil {
		MapDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

// QuickAddTask handles POST /api/v1/tasks/quick-add: free-form input
// through the token parser.
func (h *Handler) QuickAddTask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Input  string `json:"input"`
		ListID string `json:"list_id,omitempty"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Input == "" {
		WriteProblem(w, r, http.StatusUnprocessableEntity, "input is required")
		return
	}
	task, err := h.svc.QuickAdd(req.Input, req.ListID, time.Now())
	if err != nil {
		MapDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

// ParseInput handles POST /api/v1/tasks/parse: token recognition
// preview without persisting anything.
func (h *Handler) ParseInput(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Input string `json:"input"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, h.svc.ParseInput(req.Input, time.Now()))
}

// GetTask handles GET /api/v1/tasks/{id}.
func (h *Handler) GetTask(w http.ResponseWriter, r *http.Request) {
	task, err := h.svc.Store.GetTask(chi.URLParam(r, "id"))
	if err != nil {
		MapDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// taskUpdateRequest mirrors store.TaskUpdate with wire names. A context
// tags field that is present, even as an empty array, replaces the set.
type taskUpdateRequest struct {
	ListID           *string    `json:"list_id,omitempty"`
	Title            *string    `json:"title,omitempty"`
	Notes            *string    `json:"notes,omitempty"`
	DueDate          *string    `json:"due_date,omitempty"`
	DueTime          *string    `json:"due_time,omitempty"`
	ReminderAt       *time.Time `json:"reminder_at,omitempty"`
	ClearReminder    bool       `json:"clear_reminder,omitempty"`
	EstimatedMinutes *int       `json:"estimated_minutes,omitempty"`
	EnergyLevel      *string    `json:"energy_level,omitempty"`
	ContextTags      *[]string  `json:"context_tags,omitempty"`
	RecurrenceRule   *string    `json:"recurrence_rule,omitempty"`
	Effort           *int       `json:"effort,omitempty"`
	Impact           *int       `json:"impact,omitempty"`
	Urgency          *int       `json:"urgency,omitempty"`
	Importance       *int       `json:"importance,omitempty"`
	Tier             *int       `json:"priority_tier,omitempty"`
	Reasoning        *string    `json:"priority_reasoning,omitempty"`
}

func (r *taskUpdateRequest) toUpdate() store.TaskUpdate {
	upd := store.TaskUpdate{
		ListID:           r.ListID,
		Title:            r.Title,
		Notes:            r.Notes,
		DueDate:          r.DueDate,
		DueTime:          r.DueTime,
		ReminderAt:       r.ReminderAt,
		ClearReminder:    r.ClearReminder,
		EstimatedMinutes: r.EstimatedMinutes,
		EnergyLevel:      r.EnergyLevel,
		RecurrenceRule:   r.RecurrenceRule,
		Effort:           r.Effort,
		Impact:           r.Impact,
		Urgency:          r.Urgency,
		Importance:       r.Importance,
		Tier:             r.Tier,
		Reasoning:        r.Reasoning,
	}
	if r.ContextTags != nil {
		upd.ContextTags = *r.ContextTags
		upd.SetContextTags = true
	}
	return upd
}

// UpdateTask handles PATCH /api/v1/tasks/{id}.
func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	var req taskUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	task, err := h.svc.Store.UpdateTask(chi.URLParam(r, "id"), req.toUpdate())
	if err != nil {
		MapDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// DeleteTask handles DELETE /api/v1/tasks/{id}.
func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Store.DeleteTask(chi.URLParam(r, "id")); err != nil {
		MapDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CompleteTask handles POST /api/v1/tasks/{id}/complete.
func (h *Handler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	task, err := h.svc.Store.CompleteTask(chi.URLParam(r, "id"), time.Now().UTC())
	if err != nil {
		MapDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// UncompleteTask handles POST /api/v1/tasks/{id}/uncomplete.
func (h *Handler) UncompleteTask(w http.ResponseWriter, r *http.Request) {
	task, err := h.svc.Store.UncompleteTask(chi.URLParam(r, "id"))
	if err != nil {
		MapDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// ReorderTasks handles POST /api/v1/lists/{id}/tasks/reorder.
func (h *Handler) ReorderTasks(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs []string `json:"ids"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.Store.ReorderTasks(chi.URLParam(r, "id"), req.IDs); err != nil {
		MapDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SearchTasks handles GET /api/v1/tasks/search?q=.
func (h *Handler) SearchTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		WriteProblem(w, r, http.StatusBadRequest, "query parameter q is required")
		return
	}
	tasks, err := h.svc.Store.SearchTasks(q)
	if err != nil {
		MapDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

// TasksDue handles GET /api/v1/tasks/due?from=&to=.
func (h *Handler) TasksDue(w http.ResponseWriter, r *http.Request) {
	from, to := r.URL.Query().Get("from"), r.URL.Query().Get("to")
	if from == "" || to == "" {
		WriteProblem(w, r, http.StatusBadRequest, "query parameters from and to are required")
		return
	}
	tasks, err := h.svc.Store.TasksDueBetween(from, to)
	if err != nil {
		MapDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

// SetReminder handles POST /api/v1/tasks/{id}/reminder.
func (h *Handler) SetReminder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MinutesBefore int `json:"minutes_before"`
		FallbackHour  int `json:"fallback_hour"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.FallbackHour == 0 {
		req.FallbackHour = 9
	}
	task, err := h.svc.SetReminderFromDueDate(chi.URLParam(r, "id"), req.MinutesBefore, req.FallbackHour)
	if err != nil {
		MapDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// CreateSubtask handles POST /api/v1/tasks/{id}/subtasks.
func (h *Handler) CreateSubtask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Title == "" {
		WriteProblem(w, r, http.StatusUnprocessableEntity, "title is required")
		return
	}
	sub, err := h.svc.Store.CreateSubtask(chi.URLParam(r, "id"), req.Title)
	if err != nil {
		MapDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

// ListSubtasks handles GET /api/v1/tasks/{id}/subtasks.
func (h *Handler) ListSubtasks(w http.ResponseWriter, r *http.Request) {
	subs, err := h.svc.Store.Subtasks(chi.URLParam(r, "id"))
	if err != nil {
		MapDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

// UpdateSubtask handles PATCH /api/v1/subtasks/{id}.
func (h *Handler) UpdateSubtask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title     *string `json:"title,omitempty"`
		Completed *bool   `json:"completed,omitempty"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "id")
	if req.Title != nil {
		if err := h.svc.Store.RenameSubtask(id, *req.Title); err != nil {
			MapDomainError(w, r, err)
			return
		}
	}
	if req.Completed != nil {
		if err := h.svc.Store.SetSubtaskCompleted(id, *req.Completed); err != nil {
			MapDomainError(w, r, err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteSubtask handles DELETE /api/v1/subtasks/{id}.
func (h *Handler) DeleteSubtask(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Store.DeleteSubtask(chi.URLParam(r, "id")); err != nil {
		MapDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ReorderSubtasks handles POST /api/v1/tasks/{id}/subtasks/reorder.
func (h *Handler) ReorderSubtasks(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs []string `json:"ids"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.Store.ReorderSubtasks(chi.URLParam(r, "id"), req.IDs); err != nil {
		MapDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListTags handles GET /api/v1/tags.
func (h *Handler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.svc.Store.Tags()
	if err != nil {
		MapDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

// TagTask handles POST /api/v1/tasks/{id}/tags.
func (h *Handler) TagTask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	tag, err := h.svc.Store.TagTask(chi.URLParam(r, "id"), req.Name)
	if err != nil {
		MapDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tag)
}

// UntagTask handles DELETE /api/v1/tasks/{id}/tags/{tagID}.
func (h *Handler) UntagTask(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Store.UntagTask(chi.URLParam(r, "id"), chi.URLParam(r, "tagID")); err != nil {
		MapDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteTag handles DELETE /api/v1/tags/{id}.
func (h *Handler) DeleteTag(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Store.DeleteTag(chi.URLParam(r, "id")); err != nil {
		MapDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateGoal handles POST /api/v1/goals.
func (h *Handler) CreateGoal(w http.ResponseWriter, r *http.Request) {
	var req types.Goal
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" {
		WriteProblem(w, r, http.StatusUnprocessableEntity, "name is required")
		return
	}
	goal, err := h.svc.Store.CreateGoal(req)
	if err != nil {
		MapDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, goal)
}

// ListGoals handles GET /api/v1/goals?status=.
func (h *Handler) ListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := h.svc.Store.Goals(types.GoalStatus(r.URL.Query().Get("status")))
	if err != nil {
		MapDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, goals)
}

// GetGoal handles GET /api/v1/goals/{id}.
func (h *Handler) GetGoal(w http.ResponseWriter, r *http.Request) {
	goal, err := h.svc.Store.GetGoal(chi.URLParam(r, "id"))
	if err != nil {
		MapDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, goal)
}

// goalUpdateRequest mirrors store.GoalUpdate with wire names.
type goalUpdateRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Timeframe   *string `json:"timeframe,omitempty"`
	TargetDate  *string `json:"target_date,omitempty"`
	ParentID    *string `json:"parent_id,omitempty"`
	Status      *string `json:"status,omitempty"`
}

// UpdateGoal handles PATCH /api/v1/goals/{id}.
func (h *Handler) UpdateGoal(w http.ResponseWriter, r *http.Request) {
	var req goalUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	goal, err := h.svc.Store.UpdateGoal(chi.URLParam(r, "id"), store.GoalUpdate{
		Name:        req.Name,
		Description: req.Description,
		Timeframe:   req.Timeframe,
		TargetDate:  req.TargetDate,
		ParentID:    req.ParentID,
		Status:      req.Status,
	})
	if err != nil {
		MapDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, goal)
}

// DeleteGoal handles DELETE /api/v1/goals/{id}.
func (h *Handler) DeleteGoal(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Store.DeleteGoal(chi.URLParam(r, "id")); err != nil {
		MapDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// LinkTask handles POST /api/v1/goals/{id}/tasks.
func (h *Handler) LinkTask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TaskID    string `json:"task_id"`
		Alignment int    `json:"alignment"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.Store.LinkTaskToGoal(req.TaskID, chi.URLParam(r, "id"), req.Alignment); err != nil {
		MapDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UnlinkTask handles DELETE /api/v1/goals/{id}/tasks/{taskID}.
func (h *Handler) UnlinkTask(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Store.UnlinkTaskFromGoal(chi.URLParam(r, "taskID"), chi.URLParam(r, "id")); err != nil {
		MapDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GoalTasks handles GET /api/v1/goals/{id}/tasks.
func (h *Handler) GoalTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.svc.Store.TasksForGoal(chi.URLParam(r, "id"))
	if err != nil {
		MapDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}
