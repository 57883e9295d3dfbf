package db

import (
	"context"
	"time"

	"github.com/kimhsiao/fragmind/internal/models"
)

// FragmentRepository defines operations for fragment persistence.
type FragmentRepository interface {
	CreateFragment(ctx context.Context, f *models.Fragment) error
	GetFragment(ctx context.Context, id string) (*models.Fragment, error)
	// ListFragmentsByDate returns a day's fragments, oldest first.
	ListFragmentsByDate(ctx context.Context, date string) ([]*models.Fragment, error)
	RecentFragments(ctx context.Context, limit int) ([]*models.Fragment, error)
	CountFragments(ctx context.Context, date string) (int, error)
	UpdateFragmentContent(ctx context.Context, id, content string) error
	DeleteFragment(ctx context.Context, id string) error
}

// TodoRepository defines operations for todo persistence. Completion state is
// deliberately absent; see TodoCompletionStore.
type TodoRepository interface {
	CreateTodo(ctx context.Context, item *models.TodoItem) error
	// CreateTodos stores all items or none.
	CreateTodos(ctx context.Context, items []*models.TodoItem) error
	GetTodo(ctx context.Context, id string) (*models.TodoItem, error)
	ListTodos(ctx context.Context) ([]*models.TodoItem, error)
	ActiveTodoTitles(ctx context.Context) ([]string, error)
	UpdateTodoTitle(ctx context.Context, id, title string) error
	UpdateTodoDue(ctx context.Context, id string, due *int64) error
	DeleteTodo(ctx context.Context, id string) error
}

// TodoCompletionStore is the write path for completion state, used only by
// the todo lifecycle controller.
type TodoCompletionStore interface {
	GetTodo(ctx context.Context, id string) (*models.TodoItem, error)
	SetTodoCompletion(ctx context.Context, id string, completed bool, at time.Time) (*models.TodoItem, error)
	DeleteTodo(ctx context.Context, id string) error
}

// SummaryRepository defines operations for diary summary persistence.
type SummaryRepository interface {
	GetSummary(ctx context.Context, date string) (*models.DiarySummary, error)
	// UpsertSummary replaces the summary of the same date.
	UpsertSummary(ctx context.Context, s *models.DiarySummary) error
	RecentSummaries(ctx context.Context, limit int) ([]*models.DiarySummary, error)
	DeleteSummary(ctx context.Context, date string) error
}

// AIConfigRepository defines operations for AI settings persistence.
type AIConfigRepository interface {
	GetAIConfig(ctx context.Context) (*models.AIConfig, error)
	SaveAIConfig(ctx context.Context, config *models.AIConfig) error
	DisableAllAIConfig(ctx context.Context) error
}

// Ensure *Repository implements the interfaces at compile time.
var (
	_ FragmentRepository  = (*Repository)(nil)
	_ TodoRepository      = (*Repository)(nil)
	_ TodoCompletionStore = (*Repository)(nil)
	_ SummaryRepository   = (*Repository)(nil)
	_ AIConfigRepository  = (*Repository)(nil)
)
