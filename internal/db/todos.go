package db

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/kimhsiao/fragmind/internal/models"
	"github.com/kimhsiao/fragmind/internal/uuid"
)

const todoColumns = `id, title, due_date, completed, created_at, completed_at`

func scanTodo(s scanner) (*models.TodoItem, error) {
	var (
		t           models.TodoItem
		due, doneAt sql.NullInt64
	)
	if err := s.Scan(&t.ID, &t.Title, &due, &t.Completed, &t.CreatedAt, &doneAt); err != nil {
		return nil, err
	}
	if due.Valid {
		t.DueDate = &due.Int64
	}
	if doneAt.Valid {
		t.CompletedAt = &doneAt.Int64
	}
	return &t, nil
}

func nullable(v *int64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

// prepareTodo fills defaults and validates a new todo.
func prepareTodo(item *models.TodoItem) error {
	item.Title = strings.TrimSpace(item.Title)
	if item.CreatedAt == 0 {
		item.CreatedAt = time.Now().Unix()
	}
	if err := models.Validate(item); err != nil {
		return invalid("create todo", err)
	}
	if !item.Consistent() {
		return invalid("create todo", errInconsistentCompletion)
	}
	if item.ID == "" {
		item.ID = models.UUID(uuid.New())
	}
	return nil
}

const insertTodo = `INSERT INTO todos (` + todoColumns + `) VALUES (?, ?, ?, ?, ?, ?)`

// CreateTodo inserts a todo.
func (r *Repository) CreateTodo(ctx context.Context, item *models.TodoItem) error {
	if err := prepareTodo(item); err != nil {
		return err
	}
	_, err := r.exec(ctx, insertTodo, item.ID, item.Title, nullable(item.DueDate),
		item.Completed, item.CreatedAt, nullable(item.CompletedAt))
	return dbError("create todo", err)
}

// CreateTodos inserts all items in one transaction. Either every item is
// stored or none is.
func (r *Repository) CreateTodos(ctx context.Context, items []*models.TodoItem) error {
	if len(items) == 0 {
		return nil
	}
	for _, item := range items {
		if err := prepareTodo(item); err != nil {
			return err
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return dbError("begin create todos", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertTodo)
	if err != nil {
		return dbError("prepare create todos", err)
	}
	defer stmt.Close()

	for _, item := range items {
		if _, err := stmt.ExecContext(ctx, item.ID, item.Title, nullable(item.DueDate),
			item.Completed, item.CreatedAt, nullable(item.CompletedAt)); err != nil {
			return dbError("create todos", err)
		}
	}
	return dbError("commit create todos", tx.Commit())
}

// GetTodo retrieves a todo by ID.
func (r *Repository) GetTodo(ctx context.Context, id string) (*models.TodoItem, error) {
	stmt, err := r.PrepareStmt(ctx, `SELECT `+todoColumns+` FROM todos WHERE id = ?`)
	if err != nil {
		return nil, dbError("get todo", err)
	}
	t, err := scanTodo(stmt.QueryRowContext(ctx, id))
	if err != nil {
		return nil, dbError("get todo "+id, err)
	}
	return t, nil
}

// ListTodos returns every todo, pending first, newest first within each group.
func (r *Repository) ListTodos(ctx context.Context) ([]*models.TodoItem, error) {
	stmt, err := r.PrepareStmt(ctx, `SELECT `+todoColumns+` FROM todos ORDER BY completed ASC, created_at DESC, rowid DESC`)
	if err != nil {
		return nil, dbError("list todos", err)
	}
	rows, err := stmt.QueryContext(ctx)
	if err != nil {
		return nil, dbError("list todos", err)
	}
	defer rows.Close()

	var out []*models.TodoItem
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, dbError("list todos", err)
		}
		out = append(out, t)
	}
	return out, dbError("list todos", rows.Err())
}

// ActiveTodoTitles returns the titles of todos that are not completed.
func (r *Repository) ActiveTodoTitles(ctx context.Context) ([]string, error) {
	stmt, err := r.PrepareStmt(ctx, `SELECT title FROM todos WHERE completed = 0 ORDER BY created_at ASC, rowid ASC`)
	if err != nil {
		return nil, dbError("active todo titles", err)
	}
	rows, err := stmt.QueryContext(ctx)
	if err != nil {
		return nil, dbError("active todo titles", err)
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, dbError("active todo titles", err)
		}
		titles = append(titles, title)
	}
	return titles, dbError("active todo titles", rows.Err())
}

// UpdateTodoTitle renames a todo.
func (r *Repository) UpdateTodoTitle(ctx context.Context, id, title string) error {
	title = strings.TrimSpace(title)
	probe := models.TodoItem{Title: title}
	if err := models.Validator().StructPartial(probe, "Title"); err != nil {
		return invalid("update todo title", err)
	}
	return r.updateTodo(ctx, "update todo title", id, `UPDATE todos SET title = ? WHERE id = ?`, title, id)
}

// UpdateTodoDue sets or clears a todo's due timestamp.
func (r *Repository) UpdateTodoDue(ctx context.Context, id string, due *int64) error {
	return r.updateTodo(ctx, "update todo due", id, `UPDATE todos SET due_date = ? WHERE id = ?`, nullable(due), id)
}

// SetTodoCompletion writes both completion fields in one statement and
// returns the stored item. Only the lifecycle controller calls this.
func (r *Repository) SetTodoCompletion(ctx context.Context, id string, completed bool, at time.Time) (*models.TodoItem, error) {
	var doneAt interface{}
	if completed {
		doneAt = at.Unix()
	}
	err := r.updateTodo(ctx, "set todo completion", id,
		`UPDATE todos SET completed = ?, completed_at = ? WHERE id = ?`, completed, doneAt, id)
	if err != nil {
		return nil, err
	}
	return r.GetTodo(ctx, id)
}

// DeleteTodo removes a todo.
func (r *Repository) DeleteTodo(ctx context.Context, id string) error {
	return r.updateTodo(ctx, "delete todo", id, `DELETE FROM todos WHERE id = ?`, id)
}

func (r *Repository) updateTodo(ctx context.Context, op, id, query string, args ...interface{}) error {
	n, err := r.exec(ctx, query, args...)
	if err != nil {
		return dbError(op, err)
	}
	if n == 0 {
		return notFound("todo", id)
	}
	return nil
}
