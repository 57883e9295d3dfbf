package db

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"sync"

	apperrors "github.com/kimhsiao/fragmind/internal/errors"
)

// Repository provides CRUD operations for all models.
// Every method is a short statement or a single transaction; callers never
// hold a lock across it.
type Repository struct {
	db *sql.DB

	// Statements are prepared on first use and cached for reuse.
	stmtCache sync.Map // map[string]*sql.Stmt
}

// NewRepository creates a new Repository instance.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// PrepareStmt gets or creates a prepared statement from cache.
func (r *Repository) PrepareStmt(ctx context.Context, query string) (*sql.Stmt, error) {
	if stmt, ok := r.stmtCache.Load(query); ok {
		return stmt.(*sql.Stmt), nil
	}

	stmt, err := r.db.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare statement: %w", err)
	}

	// Another goroutine may have won the race; keep its statement.
	actual, loaded := r.stmtCache.LoadOrStore(query, stmt)
	if loaded {
		stmt.Close()
		return actual.(*sql.Stmt), nil
	}
	return stmt, nil
}

// Close closes all cached prepared statements.
func (r *Repository) Close() error {
	var firstErr error
	r.stmtCache.Range(func(key, value interface{}) bool {
		if err := value.(*sql.Stmt).Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		r.stmtCache.Delete(key)
		return true
	})
	return firstErr
}

// exec runs a cached statement and returns the affected row count.
func (r *Repository) exec(ctx context.Context, query string, args ...interface{}) (int64, error) {
	stmt, err := r.PrepareStmt(ctx, query)
	if err != nil {
		return 0, err
	}
	res, err := stmt.ExecContext(ctx, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// dbError wraps a driver error, mapping sql.ErrNoRows to NOT_FOUND.
func dbError(op string, err error) error {
	if err == nil {
		return nil
	}
	if stderrors.Is(err, sql.ErrNoRows) {
		return apperrors.Wrap(apperrors.ErrNotFound, op, err)
	}
	var appErr *apperrors.AppError
	if stderrors.As(err, &appErr) {
		return err
	}
	return apperrors.Wrap(apperrors.ErrDatabase, op, err)
}

func notFound(kind, id string) error {
	return apperrors.Newf(apperrors.ErrNotFound, "%s %s not found", kind, id)
}

func invalid(op string, err error) error {
	return apperrors.Wrap(apperrors.ErrValidation, op, err)
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func errEmpty(field string) error {
	return fmt.Errorf("%s must not be empty", field)
}

var errInconsistentCompletion = stderrors.New("completed and completed_at must be set together")
