package models

import (
	"strings"
	"time"
)

// MaxTitleLength is the maximum allowed length for a todo title.
const MaxTitleLength = 500

// TodoItem is a task with an optional due timestamp.
//
// Completed and CompletedAt are a single completion marker: CompletedAt is
// non-nil exactly when Completed is true. Use MarkCompleted and MarkPending
// rather than assigning either field alone.
type TodoItem struct {
	ID          UUID   `db:"id" json:"id"`
	Title       string `db:"title" json:"title" validate:"required,max=500"`
	DueDate     *int64 `db:"due_date" json:"due_date,omitempty"`
	Completed   bool   `db:"completed" json:"completed"`
	CreatedAt   int64  `db:"created_at" json:"created_at"`
	CompletedAt *int64 `db:"completed_at" json:"completed_at,omitempty"`
}

// TableName returns the table name for TodoItem.
func (TodoItem) TableName() string {
	return "todos"
}

// NewTodo builds a pending todo. A non-nil due time is normalized to its
// wall clock.
func NewTodo(title string, due *time.Time, now time.Time) *TodoItem {
	item := &TodoItem{
		Title:     strings.TrimSpace(title),
		CreatedAt: now.Unix(),
	}
	item.SetDue(due)
	return item
}

// SetDue replaces the due timestamp. Nil clears it.
func (t *TodoItem) SetDue(due *time.Time) {
	if due == nil {
		t.DueDate = nil
		return
	}
	v := WallClock(*due).Unix()
	t.DueDate = &v
}

// DueTime returns the due timestamp in local time.
func (t *TodoItem) DueTime() (time.Time, bool) {
	d := unixPtr(t.DueDate)
	if d == nil {
		return time.Time{}, false
	}
	return *d, true
}

// CreatedAtTime returns the CreatedAt as time.Time.
func (t *TodoItem) CreatedAtTime() time.Time {
	return time.Unix(t.CreatedAt, 0)
}

// CompletedAtTime returns the completion time if the item is completed.
func (t *TodoItem) CompletedAtTime() (time.Time, bool) {
	c := unixPtr(t.CompletedAt)
	if c == nil {
		return time.Time{}, false
	}
	return *c, true
}

// MarkCompleted sets both completion fields.
func (t *TodoItem) MarkCompleted(at time.Time) {
	v := at.Unix()
	t.Completed = true
	t.CompletedAt = &v
}

// MarkPending clears both completion fields.
func (t *TodoItem) MarkPending() {
	t.Completed = false
	t.CompletedAt = nil
}

// Consistent reports whether the completion fields agree.
func (t *TodoItem) Consistent() bool {
	return t.Completed == (t.CompletedAt != nil)
}
