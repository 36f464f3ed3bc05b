// Package week implements the weekly task lifecycle: seeding a week's task
// set from the catalog, completion toggles, the deadline transition to
// missed, carrying missed tasks into the next week, and the per-week and
// per-month aggregations.
package week

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/dcerezal/homeplan/internal/calendar"
	"github.com/dcerezal/homeplan/internal/catalog"
	"github.com/dcerezal/homeplan/internal/model"
	"github.com/dcerezal/homeplan/internal/store"
)

// ErrTaskNotFound is returned when a task id does not exist in a week.
var ErrTaskNotFound = errors.New("task not found")

// Engine drives all week mutations. It never caches a week across calls:
// every operation re-fetches, mutates, and persists the whole snapshot.
type Engine struct {
	store  store.WeekStore
	cat    *catalog.Catalog
	cal    *calendar.Calendar
	now    func() time.Time
	logger *slog.Logger
}

// New creates an Engine.
func New(ws store.WeekStore, cat *catalog.Catalog, cal *calendar.Calendar, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: ws, cat: cat, cal: cal, now: time.Now, logger: logger}
}

// WithClock overrides the engine's clock. Test hook.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// seedWeek builds a fresh week: one pending instance per catalog task, each
// with a single initialized history entry.
func (e *Engine) seedWeek(weekStart string) *model.Week {
	now := e.now().UTC()
	start, _ := calendar.ParseWeekKey(weekStart)
	tasks := make([]model.TaskInstance, 0, len(e.cat.Tasks))
	for _, def := range e.cat.Tasks {
		tasks = append(tasks, model.TaskInstance{
			TaskID:  def.ID,
			Title:   def.Title,
			OwnerID: def.OwnerID,
			Status:  model.StatusPending,
			History: []model.HistoryEntry{{
				Action:    model.ActionInitialized,
				Actor:     model.SystemActor,
				Timestamp: now,
				Details:   map[string]string{"ownerId": def.OwnerID},
			}},
		})
	}
	return &model.Week{
		WeekStart: weekStart,
		WeekEnd:   calendar.FormatYMD(calendar.WeekEnd(start)),
		Timezone:  e.cal.Timezone(),
		CreatedAt: now,
		UpdatedAt: now,
		Tasks:     tasks,
	}
}

// GetOrCreateWeek fetches the week, seeding it on first access.
func (e *Engine) GetOrCreateWeek(ctx context.Context, weekStart string) (*model.Week, bool, error) {
	if _, err := calendar.ParseWeekKey(weekStart); err != nil {
		return nil, false, err
	}
	return e.store.GetOrCreateWeek(ctx, weekStart, func() *model.Week {
		e.logger.Info("seeding week", "week_start", weekStart)
		return e.seedWeek(weekStart)
	})
}

// SetCompletionParams identifies a completion toggle. ActorID defaults to
// the task's owner when empty.
type SetCompletionParams struct {
	WeekStart string
	TaskID    string
	Completed bool
	ActorID   string
}

// CompletionResult carries the persisted week and a detached copy of the
// toggled task.
type CompletionResult struct {
	Week *model.Week        `json:"week"`
	Task model.TaskInstance `json:"task"`
}

// SetTaskCompletion toggles a task done or back to pending, recording who and
// when, and appends the matching history entry.
func (e *Engine) SetTaskCompletion(ctx context.Context, p SetCompletionParams) (*CompletionResult, error) {
	week, _, err := e.GetOrCreateWeek(ctx, p.WeekStart)
	if err != nil {
		return nil, err
	}
	task := week.Task(p.TaskID)
	if task == nil {
		return nil, fmt.Errorf("task %s in week %s: %w", p.TaskID, p.WeekStart, ErrTaskNotFound)
	}

	actor := p.ActorID
	if actor == "" {
		actor = task.OwnerID
	}
	now := e.now().UTC()
	prevStatus := task.Status

	if p.Completed {
		task.Status = model.StatusDone
		task.CompletedBy = &actor
		completedAt := now
		task.CompletedAt = &completedAt
		task.History = append(task.History, model.HistoryEntry{
			Action:    model.ActionCompleted,
			Actor:     actor,
			Timestamp: now,
			Details:   map[string]string{"fromStatus": string(prevStatus)},
		})
	} else {
		action := model.ActionReopened
		if prevStatus == model.StatusMissed {
			action = model.ActionReopenedAfterMiss
		}
		task.Status = model.StatusPending
		task.CompletedBy = nil
		task.CompletedAt = nil
		task.History = append(task.History, model.HistoryEntry{
			Action:    action,
			Actor:     actor,
			Timestamp: now,
			Details:   map[string]string{"fromStatus": string(prevStatus)},
		})
	}

	week.UpdatedAt = now
	if err := e.store.SaveWeek(ctx, p.WeekStart, week); err != nil {
		return nil, err
	}
	return &CompletionResult{Week: week, Task: copyTask(*task)}, nil
}

// MarkPendingTasksAsMissed flips every still-pending task to missed.
// Idempotent: done and missed tasks are untouched, and the week is only
// rewritten when something actually changed.
func (e *Engine) MarkPendingTasksAsMissed(ctx context.Context, weekStart string) (*model.Week, bool, error) {
	week, _, err := e.GetOrCreateWeek(ctx, weekStart)
	if err != nil {
		return nil, false, err
	}
	now := e.now().UTC()
	updated := false

	for i := range week.Tasks {
		task := &week.Tasks[i]
		if task.Status != model.StatusPending {
			continue
		}
		task.Status = model.StatusMissed
		task.History = append(task.History, model.HistoryEntry{
			Action:    model.ActionMarkedMissed,
			Actor:     model.SystemActor,
			Timestamp: now,
		})
		updated = true
	}

	if updated {
		week.UpdatedAt = now
		if err := e.store.SaveWeek(ctx, weekStart, week); err != nil {
			return nil, false, err
		}
	}
	return week, updated, nil
}

// ReprogramResult reports a reprogram run.
type ReprogramResult struct {
	CurrentWeek *model.Week `json:"currentWeek"`
	NextWeek    *model.Week `json:"nextWeek"`
	MissedCount int         `json:"missedCount"`
}

// ReprogramMissedTasksToNextWeek appends a reprogrammed history entry onto
// the matching task slot of the (lazily created) following week for every
// task missed in the source week. The next week's task status is not touched
// — it starts pending by construction, and any independent activity there is
// preserved. The source week itself is never mutated.
func (e *Engine) ReprogramMissedTasksToNextWeek(ctx context.Context, weekStart string) (*ReprogramResult, error) {
	current, _, err := e.GetOrCreateWeek(ctx, weekStart)
	if err != nil {
		return nil, err
	}

	var missed []model.TaskInstance
	for _, task := range current.Tasks {
		if task.Status == model.StatusMissed {
			missed = append(missed, task)
		}
	}

	start, err := calendar.ParseWeekKey(weekStart)
	if err != nil {
		return nil, err
	}
	nextKey := calendar.FormatYMD(start.AddDate(0, 0, 7))

	next, _, err := e.GetOrCreateWeek(ctx, nextKey)
	if err != nil {
		return nil, err
	}

	if len(missed) > 0 {
		now := e.now().UTC()
		for _, m := range missed {
			target := next.Task(m.TaskID)
			if target == nil {
				// Task removed from the catalog between the two weeks.
				e.logger.Warn("no slot for reprogrammed task", "task_id", m.TaskID, "next_week", nextKey)
				continue
			}
			target.History = append(target.History, model.HistoryEntry{
				Action:    model.ActionReprogrammed,
				Actor:     model.SystemActor,
				Timestamp: now,
				Details:   map[string]string{"fromWeek": weekStart},
			})
		}
		next.UpdatedAt = now
		if err := e.store.SaveWeek(ctx, nextKey, next); err != nil {
			return nil, err
		}
	}

	return &ReprogramResult{CurrentWeek: current, NextWeek: next, MissedCount: len(missed)}, nil
}

// OwnerSummary counts one person's tasks in a week.
type OwnerSummary struct {
	OwnerID   string `json:"ownerId"`
	OwnerName string `json:"ownerName"`
	Total     int    `json:"total"`
	Done      int    `json:"done"`
	Pending   int    `json:"pending"`
	Missed    int    `json:"missed"`
}

// Overview is the full read model for one week.
type Overview struct {
	Week            *model.Week                     `json:"week"`
	Summary         []OwnerSummary                  `json:"summary"`
	DeadlineUTC     time.Time                       `json:"deadlineUtc"`
	ReprogramUTC    time.Time                       `json:"reprogramUtc"`
	PendingByPerson map[string][]model.TaskInstance `json:"pendingByPerson"`
}

// WeekOverview fetches (or seeds) a week and computes its read model.
// PendingByPerson holds every task that is not done, grouped by owner.
func (e *Engine) WeekOverview(ctx context.Context, weekStart string) (*Overview, error) {
	week, _, err := e.GetOrCreateWeek(ctx, weekStart)
	if err != nil {
		return nil, err
	}
	start, err := calendar.ParseWeekKey(weekStart)
	if err != nil {
		return nil, err
	}

	byOwner := make(map[string][]model.TaskInstance)
	var ownerOrder []string
	for _, task := range week.Tasks {
		if _, seen := byOwner[task.OwnerID]; !seen {
			ownerOrder = append(ownerOrder, task.OwnerID)
		}
		byOwner[task.OwnerID] = append(byOwner[task.OwnerID], task)
	}

	summary := make([]OwnerSummary, 0, len(ownerOrder))
	pendingByPerson := make(map[string][]model.TaskInstance, len(ownerOrder))
	for _, ownerID := range ownerOrder {
		tasks := byOwner[ownerID]
		s := OwnerSummary{
			OwnerID:   ownerID,
			OwnerName: e.cat.PersonName(ownerID),
			Total:     len(tasks),
		}
		outstanding := []model.TaskInstance{}
		for _, task := range tasks {
			switch task.Status {
			case model.StatusDone:
				s.Done++
			case model.StatusMissed:
				s.Missed++
			default:
				s.Pending++
			}
			if task.Status != model.StatusDone {
				outstanding = append(outstanding, task)
			}
		}
		summary = append(summary, s)
		pendingByPerson[ownerID] = outstanding
	}

	return &Overview{
		Week:            week,
		Summary:         summary,
		DeadlineUTC:     e.cal.WeekDeadline(start),
		ReprogramUTC:    e.cal.ReprogramInstant(start),
		PendingByPerson: pendingByPerson,
	}, nil
}

// PersonStats accumulates one person's counts over a month.
type PersonStats struct {
	OwnerID        string `json:"ownerId"`
	OwnerName      string `json:"ownerName"`
	Assigned       int    `json:"assigned"`
	Completed      int    `json:"completed"`
	Missed         int    `json:"missed"`
	Pending        int    `json:"pending"`
	CompletionRate int    `json:"completionRate"`
}

// ForgottenTask is a miss-count ranking entry.
type ForgottenTask struct {
	TaskID string `json:"taskId"`
	Title  string `json:"title"`
	Misses int    `json:"misses"`
}

// MonthSummary is the monthly aggregation over every week touching a month.
type MonthSummary struct {
	Month              string                  `json:"month"`
	Timezone           string                  `json:"timezone"`
	StatsByPerson      map[string]*PersonStats `json:"statsByPerson"`
	MostForgottenTasks []ForgottenTask         `json:"mostForgottenTasks"`
	TotalWeeks         int                     `json:"totalWeeks"`
	GeneratedAt        time.Time               `json:"generatedAt"`
	WeekStarts         []string                `json:"weekStarts"`
}

// MonthlySummary aggregates stats per person and ranks tasks by miss count
// across every stored week that intersects the month. Weeks with no data are
// skipped, never created. Ties in the miss ranking keep encounter order.
func (e *Engine) MonthlySummary(ctx context.Context, year int, month time.Month) (*MonthSummary, error) {
	if month < time.January || month > time.December {
		return nil, fmt.Errorf("invalid month %d", month)
	}
	weekStarts := e.cal.MonthWeekStarts(year, month)
	weeks, err := e.store.GetWeeks(ctx, weekStarts)
	if err != nil {
		return nil, err
	}

	stats := make(map[string]*PersonStats, len(e.cat.People))
	for _, p := range e.cat.People {
		stats[p.ID] = &PersonStats{OwnerID: p.ID, OwnerName: p.Name}
	}

	missesByTask := make(map[string]int)
	var missOrder []string
	totalWeeks := 0

	for _, w := range weeks {
		if w == nil {
			continue
		}
		totalWeeks++
		for _, task := range w.Tasks {
			ps, ok := stats[task.OwnerID]
			if !ok {
				continue
			}
			ps.Assigned++
			switch task.Status {
			case model.StatusDone:
				ps.Completed++
			case model.StatusMissed:
				ps.Missed++
				if _, seen := missesByTask[task.TaskID]; !seen {
					missOrder = append(missOrder, task.TaskID)
				}
				missesByTask[task.TaskID]++
			default:
				ps.Pending++
			}
		}
	}

	for _, ps := range stats {
		if ps.Assigned > 0 {
			ps.CompletionRate = int(float64(ps.Completed)/float64(ps.Assigned)*100 + 0.5)
		}
	}

	forgotten := []ForgottenTask{}
	for _, taskID := range missOrder {
		title := taskID
		if def, ok := e.cat.TaskByID(taskID); ok {
			title = def.Title
		}
		forgotten = append(forgotten, ForgottenTask{TaskID: taskID, Title: title, Misses: missesByTask[taskID]})
	}
	sort.SliceStable(forgotten, func(i, j int) bool {
		return forgotten[i].Misses > forgotten[j].Misses
	})

	return &MonthSummary{
		Month:              calendar.FormatMonth(year, month),
		Timezone:           e.cal.Timezone(),
		StatsByPerson:      stats,
		MostForgottenTasks: forgotten,
		TotalWeeks:         totalWeeks,
		GeneratedAt:        e.now().UTC(),
		WeekStarts:         weekStarts,
	}, nil
}

// copyTask returns a detached copy whose history and details the caller can
// hold without aliasing the week snapshot.
func copyTask(t model.TaskInstance) model.TaskInstance {
	history := make([]model.HistoryEntry, len(t.History))
	copy(history, t.History)
	for i, h := range history {
		if h.Details != nil {
			details := make(map[string]string, len(h.Details))
			for k, v := range h.Details {
				details[k] = v
			}
			history[i].Details = details
		}
	}
	t.History = history
	if t.CompletedBy != nil {
		by := *t.CompletedBy
		t.CompletedBy = &by
	}
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		t.CompletedAt = &at
	}
	return t
}
