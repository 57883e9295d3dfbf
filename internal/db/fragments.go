package db

import (
	"context"
	"strings"
	"time"

	"github.com/kimhsiao/fragmind/internal/models"
	"github.com/kimhsiao/fragmind/internal/uuid"
)

const fragmentColumns = `id, content, created_at, date`

func scanFragment(s scanner) (*models.Fragment, error) {
	var f models.Fragment
	if err := s.Scan(&f.ID, &f.Content, &f.CreatedAt, &f.Date); err != nil {
		return nil, err
	}
	return &f, nil
}

// CreateFragment inserts a fragment. ID and CreatedAt are filled in when empty.
func (r *Repository) CreateFragment(ctx context.Context, f *models.Fragment) error {
	f.Content = strings.TrimSpace(f.Content)
	if f.CreatedAt == 0 {
		f.CreatedAt = time.Now().Unix()
	}
	if f.Date == "" {
		f.Date = models.DayKey(f.CreatedAtTime())
	}
	if err := models.Validate(f); err != nil {
		return invalid("create fragment", err)
	}
	if f.ID == "" {
		f.ID = models.UUID(uuid.New())
	}

	_, err := r.exec(ctx, `INSERT INTO fragments (`+fragmentColumns+`) VALUES (?, ?, ?, ?)`,
		f.ID, f.Content, f.CreatedAt, f.Date)
	return dbError("create fragment", err)
}

// GetFragment retrieves a fragment by ID.
func (r *Repository) GetFragment(ctx context.Context, id string) (*models.Fragment, error) {
	stmt, err := r.PrepareStmt(ctx, `SELECT `+fragmentColumns+` FROM fragments WHERE id = ?`)
	if err != nil {
		return nil, dbError("get fragment", err)
	}
	f, err := scanFragment(stmt.QueryRowContext(ctx, id))
	if err != nil {
		return nil, dbError("get fragment "+id, err)
	}
	return f, nil
}

// ListFragmentsByDate returns the fragments of one day, oldest first.
func (r *Repository) ListFragmentsByDate(ctx context.Context, date string) ([]*models.Fragment, error) {
	return r.queryFragments(ctx, "list fragments",
		`SELECT `+fragmentColumns+` FROM fragments WHERE date = ? ORDER BY created_at ASC, rowid ASC`, date)
}

// RecentFragments returns the newest fragments across all days.
func (r *Repository) RecentFragments(ctx context.Context, limit int) ([]*models.Fragment, error) {
	if limit <= 0 {
		limit = 10
	}
	return r.queryFragments(ctx, "recent fragments",
		`SELECT `+fragmentColumns+` FROM fragments ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
}

func (r *Repository) queryFragments(ctx context.Context, op, query string, args ...interface{}) ([]*models.Fragment, error) {
	stmt, err := r.PrepareStmt(ctx, query)
	if err != nil {
		return nil, dbError(op, err)
	}
	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, dbError(op, err)
	}
	defer rows.Close()

	var out []*models.Fragment
	for rows.Next() {
		f, err := scanFragment(rows)
		if err != nil {
			return nil, dbError(op, err)
		}
		out = append(out, f)
	}
	return out, dbError(op, rows.Err())
}

// CountFragments returns the number of fragments recorded for a day.
func (r *Repository) CountFragments(ctx context.Context, date string) (int, error) {
	stmt, err := r.PrepareStmt(ctx, `SELECT COUNT(*) FROM fragments WHERE date = ?`)
	if err != nil {
		return 0, dbError("count fragments", err)
	}
	var n int
	if err := stmt.QueryRowContext(ctx, date).Scan(&n); err != nil {
		return 0, dbError("count fragments", err)
	}
	return n, nil
}

// UpdateFragmentContent replaces a fragment's content. Date and CreatedAt
// never change.
func (r *Repository) UpdateFragmentContent(ctx context.Context, id, content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return invalid("update fragment", errEmpty("content"))
	}
	n, err := r.exec(ctx, `UPDATE fragments SET content = ? WHERE id = ?`, content, id)
	if err != nil {
		return dbError("update fragment", err)
	}
	if n == 0 {
		return notFound("fragment", id)
	}
	return nil
}

// DeleteFragment removes a fragment.
func (r *Repository) DeleteFragment(ctx context.Context, id string) error {
	n, err := r.exec(ctx, `DELETE FROM fragments WHERE id = ?`, id)
	if err != nil {
		return dbError("delete fragment", err)
	}
	if n == 0 {
		return notFound("fragment", id)
	}
	return nil
}
