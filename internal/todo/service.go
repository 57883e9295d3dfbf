package todo

import (
	"context"
	"time"

	"github.com/kimhsiao/fragmind/internal/db"
	"github.com/kimhsiao/fragmind/internal/models"
)

// Service covers the todo operations outside the completion lifecycle.
// Completion changes go through the Controller.
type Service struct {
	repo db.TodoRepository
	now  func() time.Time
}

// NewService creates a todo service.
func NewService(repo db.TodoRepository, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{repo: repo, now: now}
}

// Add creates a pending todo.
func (s *Service) Add(ctx context.Context, title string, due *time.Time) (*models.TodoItem, error) {
	item := models.NewTodo(title, due, s.now())
	if err := s.repo.CreateTodo(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// Rename replaces a todo's title.
func (s *Service) Rename(ctx context.Context, id, title string) (*models.TodoItem, error) {
	if err := s.repo.UpdateTodoTitle(ctx, id, title); err != nil {
		return nil, err
	}
	return s.repo.GetTodo(ctx, id)
}

// SetDue sets the due time of a todo, or clears it when due is nil.
func (s *Service) SetDue(ctx context.Context, id string, due *time.Time) (*models.TodoItem, error) {
	var probe models.TodoItem
	probe.SetDue(due)
	if err := s.repo.UpdateTodoDue(ctx, id, probe.DueDate); err != nil {
		return nil, err
	}
	return s.repo.GetTodo(ctx, id)
}

// Get returns one todo.
func (s *Service) Get(ctx context.Context, id string) (*models.TodoItem, error) {
	return s.repo.GetTodo(ctx, id)
}

// Board returns every todo in display order.
func (s *Service) Board(ctx context.Context) (Board, error) {
	items, err := s.repo.ListTodos(ctx)
	if err != nil {
		return Board{}, err
	}
	return BuildBoard(items), nil
}
