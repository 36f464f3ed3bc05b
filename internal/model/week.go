package model

import "time"

// TaskStatus is the lifecycle state of a task within one week.
type TaskStatus string

const (
	StatusPending TaskStatus = "pending"
	StatusDone    TaskStatus = "done"
	StatusMissed  TaskStatus = "missed"
)

// History actions. The history is an append-only audit trail; entries are
// never mutated or removed.
const (
	ActionInitialized        = "initialized"
	ActionCompleted          = "completed"
	ActionReopened           = "reopened"
	ActionReopenedAfterMiss  = "reopened_after_missed"
	ActionMarkedMissed       = "marked_missed"
	ActionReprogrammed       = "reprogrammed"
)

// SystemActor is recorded for transitions not attributable to a person.
const SystemActor = "system"

// HistoryEntry is one audit record on a task instance.
type HistoryEntry struct {
	Action    string            `json:"action"`
	Actor     string            `json:"actor"`
	Timestamp time.Time         `json:"timestamp"`
	Details   map[string]string `json:"details,omitempty"`
}

// TaskInstance is one week's occurrence of a recurring task definition.
// CompletedBy and CompletedAt are set iff Status is done.
type TaskInstance struct {
	TaskID      string         `json:"taskId"`
	Title       string         `json:"title"`
	OwnerID     string         `json:"ownerId"`
	Status      TaskStatus     `json:"status"`
	CompletedBy *string        `json:"completedBy"`
	CompletedAt *time.Time     `json:"completedAt"`
	History     []HistoryEntry `json:"history"`
}

// Week is the persisted snapshot of one week's task set, identified by its
// Monday start date (YYYY-MM-DD in the configured zone). The store owns it
// exclusively; callers re-fetch, mutate, and persist the whole snapshot.
type Week struct {
	WeekStart string         `json:"weekStart"`
	WeekEnd   string         `json:"weekEnd"`
	Timezone  string         `json:"timezone"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	Tasks     []TaskInstance `json:"tasks"`
}

// Task returns a pointer to the instance with the given task id, or nil.
func (w *Week) Task(taskID string) *TaskInstance {
	for i := range w.Tasks {
		if w.Tasks[i].TaskID == taskID {
			return &w.Tasks[i]
		}
	}
	return nil
}
