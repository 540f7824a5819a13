package mcp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/daybookapp/daybook/internal/core"
	"github.com/daybookapp/daybook/internal/planner"
	"github.com/daybookapp/daybook/internal/priority"
	"github.com/daybookapp/daybook/internal/store"
	"github.com/daybookapp/daybook/internal/types"
)

// handler executes one validated tool call.
type handler func(svc *core.Service, args map[string]any) (any, error)

type tool struct {
	def ToolDefinition
	run handler
}

const dateLayout = "2006-01-02"

// catalogue returns every tool the server advertises, in a stable order.
func catalogue() []tool {
	scoreProp := func(desc string) Property {
		return Property{Type: "integer", Description: desc, Minimum: bound(1), Maximum: bound(5)}
	}

	return []tool{
		{
			def: ToolDefinition{
				Name: "create_task",
				Description: "Create a task from natural language. The text is run through the " +
					"token parser, so inline markers set fields directly: 'tomorrow' or " +
					"'friday' set the due date, '3pm' sets the due time, '!1'/'!now' set " +
					"the priority tier, '~30m' sets the estimate, and '#word' adds tags. " +
					"Everything unmatched becomes the title. Prefer passing the user's " +
					"words verbatim instead of pre-parsing them yourself.",
				InputSchema: InputSchema{
					Type: "object",
					Properties: map[string]Property{
						"input":   {Type: "string", Description: "Natural-language task text, e.g. 'Buy milk tomorrow #errands !1 ~30m'"},
						"list_id": {Type: "string", Description: "Target list. Defaults to the Inbox when omitted."},
					},
					Required: []string{"input"},
				},
			},
			run: func(svc *core.Service, args map[string]any) (any, error) {
				task, err := svc.QuickAdd(argString(args, "input"), argString(args, "list_id"), time.Now())
				if err != nil {
					return nil, err
				}
				return map[string]any{"success": true, "task": task}, nil
			},
		},
		{
			def: ToolDefinition{
				Name: "update_task",
				Description: "Update fields on an existing task. Only the fields you pass " +
					"change; pass an empty string to clear due_date or due_time.",
				InputSchema: InputSchema{
					Type: "object",
					Properties: map[string]Property{
						"task_id":           {Type: "string"},
						"title":             {Type: "string"},
						"notes":             {Type: "string"},
						"list_id":           {Type: "string", Description: "Move the task to another list."},
						"due_date":          {Type: "string", Description: "YYYY-MM-DD, or empty string to clear."},
						"due_time":          {Type: "string", Description: "HH:MM 24-hour, or empty string to clear."},
						"estimated_minutes": {Type: "integer", Minimum: bound(1)},
						"energy_level":      {Type: "string", Enum: []string{"low", "medium", "high"}},
					},
					Required: []string{"task_id"},
				},
			},
			run: func(svc *core.Service, args map[string]any) (any, error) {
				upd := store.TaskUpdate{}
				if v, ok := args["title"].(string); ok {
					upd.Title = &v
				}
				if v, ok := args["notes"].(string); ok {
					upd.Notes = &v
				}
				if v, ok := args["list_id"].(string); ok {
					upd.ListID = &v
				}
				if v, ok := args["due_date"].(string); ok {
					upd.DueDate = &v
				}
				if v, ok := args["due_time"].(string); ok {
					upd.DueTime = &v
				}
				if v, ok := argInt(args, "estimated_minutes"); ok {
					upd.EstimatedMinutes = &v
				}
				if v, ok := args["energy_level"].(string); ok {
					upd.EnergyLevel = &v
				}
				task, err := svc.Store.UpdateTask(argString(args, "task_id"), upd)
				if err != nil {
					return nil, err
				}
				return map[string]any{"success": true, "task": task}, nil
			},
		},
		{
			def: ToolDefinition{
				Name:        "complete_task",
				Description: "Mark a task completed, or un-complete it with completed=false.",
				InputSchema: InputSchema{
					Type: "object",
					Properties: map[string]Property{
						"task_id":   {Type: "string"},
						"completed": {Type: "boolean", Description: "Defaults to true."},
					},
					Required: []string{"task_id"},
				},
			},
			run: func(svc *core.Service, args map[string]any) (any, error) {
				id := argString(args, "task_id")
				var task *types.Task
				var err error
				if done, present := args["completed"].(bool); present && !done {
					task, err = svc.Store.UncompleteTask(id)
				} else {
					task, err = svc.Store.CompleteTask(id, time.Now().UTC())
				}
				if err != nil {
					return nil, err
				}
				return map[string]any{"success": true, "task": task}, nil
			},
		},
		{
			def: ToolDefinition{
				Name: "list_tasks",
				Description: "List tasks in one list, or in the Inbox when no list is given. " +
					"Smart lists are evaluated as saved filters.",
				InputSchema: InputSchema{
					Type: "object",
					Properties: map[string]Property{
						"list_id":           {Type: "string"},
						"include_completed": {Type: "boolean"},
					},
				},
			},
			run: func(svc *core.Service, args map[string]any) (any, error) {
				listID := argString(args, "list_id")
				if listID == "" {
					def, err := svc.Store.DefaultList()
					if err != nil {
						return nil, err
					}
					listID = def.ID
				}
				list, err := svc.Store.GetList(listID)
				if err != nil {
					return nil, err
				}
				var tasks []types.Task
				if list.IsSmart && list.SmartFilter != nil {
					tasks, err = svc.Store.EvaluateSmartFilter(list.SmartFilter, time.Now().UTC().Format(dateLayout))
				} else {
					tasks, err = svc.Store.TasksByList(listID, argBool(args, "include_completed"))
				}
				if err != nil {
					return nil, err
				}
				return map[string]any{"success": true, "list": list.Name, "tasks": tasks}, nil
			},
		},
		{
			def: ToolDefinition{
				Name:        "search_tasks",
				Description: "Search task titles and notes for a substring, case-insensitive.",
				InputSchema: InputSchema{
					Type: "object",
					Properties: map[string]Property{
						"query": {Type: "string"},
					},
					Required: []string{"query"},
				},
			},
			run: func(svc *core.Service, args map[string]any) (any, error) {
				tasks, err := svc.Store.SearchTasks(argString(args, "query"))
				if err != nil {
					return nil, err
				}
				return map[string]any{"success": true, "tasks": tasks}, nil
			},
		},
		{
			def: ToolDefinition{
				Name: "get_day_schedule",
				Description: "Fetch a day's timeline: tasks already placed at clock times, " +
					"unscheduled tasks due that day, and the free blocks between placements.",
				InputSchema: InputSchema{
					Type: "object",
					Properties: map[string]Property{
						"date": {Type: "string", Description: "YYYY-MM-DD"},
					},
					Required: []string{"date"},
				},
			},
			run: func(svc *core.Service, args map[string]any) (any, error) {
				schedule, err := svc.Planner.DaySchedule(argString(args, "date"))
				if err != nil {
					return nil, err
				}
				return map[string]any{"success": true, "schedule": schedule}, nil
			},
		},
		{
			def: ToolDefinition{
				Name: "schedule_tasks",
				Description: "Place tasks at clock times on a day. Do not guess start times: " +
					"first call get_day_schedule to see the free blocks, propose times to the " +
					"user, and only call this after the user agrees. Start times snap to the " +
					"planning grid. The batch is all-or-nothing: if any task is missing, " +
					"nothing is placed.",
				InputSchema: InputSchema{
					Type: "object",
					Properties: map[string]Property{
						"date": {Type: "string", Description: "YYYY-MM-DD"},
						"placements": {
							Type: "array",
							Items: &Property{
								Type: "object",
								Properties: map[string]Property{
									"task_id":          {Type: "string"},
									"start_time":       {Type: "string", Description: "HH:MM 24-hour"},
									"duration_minutes": {Type: "integer", Minimum: bound(1)},
								},
								Required: []string{"task_id", "start_time"},
							},
						},
					},
					Required: []string{"date", "placements"},
				},
			},
			run: func(svc *core.Service, args map[string]any) (any, error) {
				var placements []planner.PlacementRequest
				if err := rebind(args["placements"], &placements); err != nil {
					return nil, err
				}
				date := argString(args, "date")
				if err := svc.Planner.ScheduleTasks(date, placements); err != nil {
					return nil, err
				}
				schedule, err := svc.Planner.DaySchedule(date)
				if err != nil {
					return nil, err
				}
				return map[string]any{"success": true, "schedule": schedule}, nil
			},
		},
		{
			def: ToolDefinition{
				Name:        "unschedule_task",
				Description: "Remove a task's clock time. It keeps its due date.",
				InputSchema: InputSchema{
					Type: "object",
					Properties: map[string]Property{
						"task_id": {Type: "string"},
					},
					Required: []string{"task_id"},
				},
			},
			run: func(svc *core.Service, args map[string]any) (any, error) {
				if err := svc.Planner.UnscheduleTask(argString(args, "task_id")); err != nil {
					return nil, err
				}
				return map[string]any{"success": true}, nil
			},
		},
		{
			def: ToolDefinition{
				Name: "start_prioritization",
				Description: "Begin a prioritization pass over a list. Returns the strategy's " +
					"guidance text, the incomplete tasks to rank, and any focus goals. Read " +
					"the guidance, rank every task with the user, then persist the outcome " +
					"via apply_prioritization.",
				InputSchema: InputSchema{
					Type: "object",
					Properties: map[string]Property{
						"list_id": {Type: "string"},
						"strategy": {
							Type: "string",
							Enum: []string{"balanced", "urgent-first", "quick-wins", "high-impact", "eisenhower"},
						},
						"goal_ids": {
							Type:        "array",
							Description: "Goals to weigh the ranking toward.",
							Items:       &Property{Type: "string"},
						},
					},
					Required: []string{"list_id", "strategy"},
				},
			},
			run: func(svc *core.Service, args map[string]any) (any, error) {
				session, err := svc.Priority.Start(argString(args, "list_id"), argString(args, "strategy"), argStrings(args, "goal_ids"))
				if err != nil {
					return nil, err
				}
				return map[string]any{"success": true, "session": session}, nil
			},
		},
		{
			def: ToolDefinition{
				Name: "apply_prioritization",
				Description: "Persist ranking decisions. Tasks that no longer exist are " +
					"reported in 'failed' while the rest still commit, so check that list " +
					"in the response.",
				InputSchema: InputSchema{
					Type: "object",
					Properties: map[string]Property{
						"decisions": {
							Type: "array",
							Items: &Property{
								Type: "object",
								Properties: map[string]Property{
									"task_id":    {Type: "string"},
									"effort":     scoreProp("1 = trivial, 5 = heavy"),
									"impact":     scoreProp("1 = negligible, 5 = transformative"),
									"urgency":    scoreProp("1 = whenever, 5 = immediately"),
									"importance": scoreProp("1 = optional, 5 = essential"),
									"tier":       {Type: "integer", Description: "1 = now, 2 = soon, 3 = backlog", Minimum: bound(1), Maximum: bound(3)},
									"reasoning":  {Type: "string", Description: "One sentence on why the task landed where it did."},
								},
								Required: []string{"task_id"},
							},
						},
					},
					Required: []string{"decisions"},
				},
			},
			run: func(svc *core.Service, args map[string]any) (any, error) {
				var decisions []priority.Decision
				if err := rebind(args["decisions"], &decisions); err != nil {
					return nil, err
				}
				result, err := svc.Priority.Apply(decisions)
				if err != nil {
					return nil, err
				}
				return map[string]any{"success": true, "updated": result.Updated, "failed": result.Failed}, nil
			},
		},
		{
			def: ToolDefinition{
				Name: "priority_summary",
				Description: "Aggregate priority state: tier counts, unranked count, overdue " +
					"and due-today counts, quick-win and high-impact shortlists, and an " +
					"effort histogram. Scoped to the given lists, or all lists when omitted.",
				InputSchema: InputSchema{
					Type: "object",
					Properties: map[string]Property{
						"list_ids": {Type: "array", Items: &Property{Type: "string"}},
					},
				},
			},
			run: func(svc *core.Service, args map[string]any) (any, error) {
				summary, err := svc.Priority.Summarize(argStrings(args, "list_ids"), time.Now().UTC().Format(dateLayout))
				if err != nil {
					return nil, err
				}
				return map[string]any{"success": true, "summary": summary}, nil
			},
		},
		{
			def: ToolDefinition{
				Name: "plan_day",
				Description: "Drive the guided day-planning workflow. Start it with " +
					"action=start and one or more dates, then walk the steps: review " +
					"(yesterday's wins and slips, with action=resolve to reschedule, " +
					"defer, or complete a leftover task), build (choose tasks via task_ids), " +
					"schedule (place them with schedule_tasks), confirm (read the summary " +
					"back to the user), and action=finish to close the day. Use " +
					"action=navigate with a step name to move freely; action=discard " +
					"abandons the session.",
				InputSchema: InputSchema{
					Type: "object",
					Properties: map[string]Property{
						"action": {
							Type: "string",
							Enum: []string{"start", "status", "navigate", "review", "resolve", "choose", "confirm", "finish", "discard"},
						},
						"workflow_id":   {Type: "string", Description: "Required for every action except start."},
						"dates":         {Type: "array", Description: "YYYY-MM-DD days to plan, for action=start.", Items: &Property{Type: "string"}},
						"step":          {Type: "string", Enum: []string{"review", "build", "schedule", "confirm"}},
						"task_ids":      {Type: "array", Description: "Chosen tasks, for action=choose.", Items: &Property{Type: "string"}},
						"task_id":       {Type: "string", Description: "Leftover task to act on, for action=resolve."},
						"review_action": {Type: "string", Enum: []string{"reschedule", "defer", "complete"}},
					},
					Required: []string{"action"},
				},
			},
			run: func(svc *core.Service, args map[string]any) (any, error) {
				id := argString(args, "workflow_id")
				switch argString(args, "action") {
				case "start":
					wf, err := svc.Workflows.Start(argStrings(args, "dates"))
					if err != nil {
						return nil, err
					}
					return map[string]any{"success": true, "workflow": wf}, nil
				case "status":
					wf, err := svc.Workflows.Get(id)
					if err != nil {
						return nil, err
					}
					return map[string]any{"success": true, "workflow": wf}, nil
				case "navigate":
					wf, err := svc.Workflows.Navigate(id, planner.Step(argString(args, "step")))
					if err != nil {
						return nil, err
					}
					return map[string]any{"success": true, "workflow": wf}, nil
				case "review":
					review, err := svc.Workflows.Review(id)
					if err != nil {
						return nil, err
					}
					return map[string]any{"success": true, "review": review}, nil
				case "resolve":
					task, err := svc.Workflows.ResolveReviewTask(id, argString(args, "task_id"), argString(args, "review_action"))
					if err != nil {
						return nil, err
					}
					return map[string]any{"success": true, "task": task}, nil
				case "choose":
					capacity, err := svc.Workflows.ChooseTasks(id, argStrings(args, "task_ids"))
					if err != nil {
						return nil, err
					}
					return map[string]any{"success": true, "capacity": capacity}, nil
				case "confirm":
					confirm, err := svc.Workflows.Confirm(id)
					if err != nil {
						return nil, err
					}
					return map[string]any{"success": true, "confirmation": confirm}, nil
				case "finish":
					wf, err := svc.Workflows.FinishDay(id)
					if err != nil {
						return nil, err
					}
					return map[string]any{"success": true, "workflow": wf}, nil
				case "discard":
					svc.Workflows.Discard(id)
					return map[string]any{"success": true}, nil
				}
				return nil, fmt.Errorf("unknown action")
			},
		},
		{
			def: ToolDefinition{
				Name: "today_summary",
				Description: "Today's numbers: tasks completed, tasks due, completion rate, " +
					"focus minutes, and how the remaining due tasks split across tiers.",
				InputSchema: InputSchema{Type: "object"},
			},
			run: func(svc *core.Service, args map[string]any) (any, error) {
				summary, err := svc.Analytics.Today(time.Now().UTC())
				if err != nil {
					return nil, err
				}
				return map[string]any{"success": true, "summary": summary}, nil
			},
		},
		{
			def: ToolDefinition{
				Name:        "weekly_trend",
				Description: "Completion counts for the trailing seven days, oldest first.",
				InputSchema: InputSchema{Type: "object"},
			},
			run: func(svc *core.Service, args map[string]any) (any, error) {
				trend, err := svc.Analytics.WeeklyTrend(time.Now().UTC())
				if err != nil {
					return nil, err
				}
				return map[string]any{"success": true, "trend": trend}, nil
			},
		},
		{
			def: ToolDefinition{
				Name: "streak",
				Description: "Current and longest run of consecutive days with at least one " +
					"completion. The current streak survives until a full day is missed.",
				InputSchema: InputSchema{Type: "object"},
			},
			run: func(svc *core.Service, args map[string]any) (any, error) {
				streaks, err := svc.Analytics.Streaks(time.Now().UTC())
				if err != nil {
					return nil, err
				}
				return map[string]any{"success": true, "streaks": streaks}, nil
			},
		},
		{
			def: ToolDefinition{
				Name:        "manage_lists",
				Description: "List, create, rename, or delete task lists. The default Inbox cannot be deleted.",
				InputSchema: InputSchema{
					Type: "object",
					Properties: map[string]Property{
						"action":  {Type: "string", Enum: []string{"list", "create", "rename", "delete"}},
						"list_id": {Type: "string"},
						"name":    {Type: "string"},
					},
					Required: []string{"action"},
				},
			},
			run: func(svc *core.Service, args map[string]any) (any, error) {
				switch argString(args, "action") {
				case "list":
					lists, err := svc.Store.Lists()
					if err != nil {
						return nil, err
					}
					return map[string]any{"success": true, "lists": lists}, nil
				case "create":
					name := argString(args, "name")
					if name == "" {
						return nil, fmt.Errorf("name is required")
					}
					list, err := svc.Store.CreateList(types.List{Name: name})
					if err != nil {
						return nil, err
					}
					return map[string]any{"success": true, "list": list}, nil
				case "rename":
					name := argString(args, "name")
					list, err := svc.Store.UpdateList(argString(args, "list_id"), store.ListUpdate{Name: &name})
					if err != nil {
						return nil, err
					}
					return map[string]any{"success": true, "list": list}, nil
				case "delete":
					if err := svc.Store.DeleteList(argString(args, "list_id")); err != nil {
						return nil, err
					}
					return map[string]any{"success": true}, nil
				}
				return nil, fmt.Errorf("unknown action")
			},
		},
		{
			def: ToolDefinition{
				Name: "manage_goals",
				Description: "Work with goals: list them, create one, link or unlink a task " +
					"with an alignment strength (1-5), or show a goal's open tasks.",
				InputSchema: InputSchema{
					Type: "object",
					Properties: map[string]Property{
						"action":    {Type: "string", Enum: []string{"list", "create", "link", "unlink", "tasks"}},
						"goal_id":   {Type: "string"},
						"task_id":   {Type: "string"},
						"name":      {Type: "string"},
						"timeframe": {Type: "string", Enum: []string{"daily", "weekly", "monthly", "quarterly", "yearly"}},
						"alignment": scoreProp("How strongly the task advances the goal."),
					},
					Required: []string{"action"},
				},
			},
			run: func(svc *core.Service, args map[string]any) (any, error) {
				switch argString(args, "action") {
				case "list":
					goals, err := svc.Store.Goals("")
					if err != nil {
						return nil, err
					}
					return map[string]any{"success": true, "goals": goals}, nil
				case "create":
					goal, err := svc.Store.CreateGoal(types.Goal{
						Name:      argString(args, "name"),
						Timeframe: types.GoalTimeframe(argString(args, "timeframe")),
					})
					if err != nil {
						return nil, err
					}
					return map[string]any{"success": true, "goal": goal}, nil
				case "link":
					alignment, ok := argInt(args, "alignment")
					if !ok {
						alignment = 3
					}
					if err := svc.Store.LinkTaskToGoal(argString(args, "task_id"), argString(args, "goal_id"), alignment); err != nil {
						return nil, err
					}
					return map[string]any{"success": true}, nil
				case "unlink":
					if err := svc.Store.UnlinkTaskFromGoal(argString(args, "task_id"), argString(args, "goal_id")); err != nil {
						return nil, err
					}
					return map[string]any{"success": true}, nil
				case "tasks":
					tasks, err := svc.Store.TasksForGoal(argString(args, "goal_id"))
					if err != nil {
						return nil, err
					}
					return map[string]any{"success": true, "tasks": tasks}, nil
				}
				return nil, fmt.Errorf("unknown action")
			},
		},
		{
			def: ToolDefinition{
				Name:        "manage_subtasks",
				Description: "Checklist items under a task: list, add, toggle completion, or delete.",
				InputSchema: InputSchema{
					Type: "object",
					Properties: map[string]Property{
						"action":     {Type: "string", Enum: []string{"list", "add", "toggle", "delete"}},
						"task_id":    {Type: "string"},
						"subtask_id": {Type: "string"},
						"title":      {Type: "string"},
						"completed":  {Type: "boolean"},
					},
					Required: []string{"action"},
				},
			},
			run: func(svc *core.Service, args map[string]any) (any, error) {
				switch argString(args, "action") {
				case "list":
					subs, err := svc.Store.Subtasks(argString(args, "task_id"))
					if err != nil {
						return nil, err
					}
					return map[string]any{"success": true, "subtasks": subs}, nil
				case "add":
					sub, err := svc.Store.CreateSubtask(argString(args, "task_id"), argString(args, "title"))
					if err != nil {
						return nil, err
					}
					return map[string]any{"success": true, "subtask": sub}, nil
				case "toggle":
					if err := svc.Store.SetSubtaskCompleted(argString(args, "subtask_id"), argBool(args, "completed")); err != nil {
						return nil, err
					}
					return map[string]any{"success": true}, nil
				case "delete":
					if err := svc.Store.DeleteSubtask(argString(args, "subtask_id")); err != nil {
						return nil, err
					}
					return map[string]any{"success": true}, nil
				}
				return nil, fmt.Errorf("unknown action")
			},
		},
		{
			def: ToolDefinition{
				Name: "focus_session",
				Description: "Timed focus blocks. Start one on a task (only one may run at a " +
					"time), check the active session, or finish it with completed=true when " +
					"it ran its full length.",
				InputSchema: InputSchema{
					Type: "object",
					Properties: map[string]Property{
						"action":          {Type: "string", Enum: []string{"start", "status", "finish"}},
						"task_id":         {Type: "string"},
						"session_id":      {Type: "string"},
						"planned_minutes": {Type: "integer", Minimum: bound(1)},
						"completed":       {Type: "boolean"},
					},
					Required: []string{"action"},
				},
			},
			run: func(svc *core.Service, args map[string]any) (any, error) {
				switch argString(args, "action") {
				case "start":
					minutes, ok := argInt(args, "planned_minutes")
					if !ok {
						minutes = 25
					}
					session, err := svc.Store.StartFocusSession(argString(args, "task_id"), minutes)
					if err != nil {
						return nil, err
					}
					return map[string]any{"success": true, "session": session}, nil
				case "status":
					session, err := svc.Store.ActiveFocusSession()
					if err != nil {
						return nil, err
					}
					if session == nil {
						return map[string]any{"success": true, "active": false}, nil
					}
					return map[string]any{"success": true, "active": true, "session": session}, nil
				case "finish":
					session, err := svc.Store.FinishFocusSession(argString(args, "session_id"), argBool(args, "completed"))
					if err != nil {
						return nil, err
					}
					return map[string]any{"success": true, "session": session}, nil
				}
				return nil, fmt.Errorf("unknown action")
			},
		},
	}
}

// rebind marshals loosely-typed JSON arguments into a concrete struct.
func rebind(raw any, out any) error {
	data, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("malformed arguments: %w", err)
	}
	return nil
}
