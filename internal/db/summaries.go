package db

import (
	"context"
	"time"

	"github.com/kimhsiao/fragmind/internal/models"
	"github.com/kimhsiao/fragmind/internal/uuid"
)

const summaryColumns = `id, date, summary, entry_count, created_at, updated_at`

func scanSummary(s scanner) (*models.DiarySummary, error) {
	var d models.DiarySummary
	if err := s.Scan(&d.ID, &d.Date, &d.Summary, &d.EntryCount, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	return &d, nil
}

// GetSummary returns the summary stored for date.
func (r *Repository) GetSummary(ctx context.Context, date string) (*models.DiarySummary, error) {
	stmt, err := r.PrepareStmt(ctx, `SELECT `+summaryColumns+` FROM diary_summaries WHERE date = ?`)
	if err != nil {
		return nil, dbError("get summary", err)
	}
	d, err := scanSummary(stmt.QueryRowContext(ctx, date))
	if err != nil {
		return nil, dbError("get summary "+date, err)
	}
	return d, nil
}

// UpsertSummary stores the summary for s.Date, replacing any previous one.
// The row keeps its id and created_at across replacements; s is updated with
// the stored values.
func (r *Repository) UpsertSummary(ctx context.Context, s *models.DiarySummary) error {
	if err := models.Validate(s); err != nil {
		return invalid("upsert summary", err)
	}
	now := time.Now().Unix()
	s.UpdatedAt = now
	if s.CreatedAt == 0 {
		s.CreatedAt = now
	}
	if s.ID == "" {
		s.ID = models.UUID(uuid.New())
	}

	stmt, err := r.PrepareStmt(ctx, `
	INSERT INTO diary_summaries (`+summaryColumns+`)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(date) DO UPDATE SET
		summary = excluded.summary,
		entry_count = excluded.entry_count,
		updated_at = excluded.updated_at
	RETURNING id, created_at
	`)
	if err != nil {
		return dbError("upsert summary", err)
	}
	err = stmt.QueryRowContext(ctx, s.ID, s.Date, s.Summary, s.EntryCount, s.CreatedAt, s.UpdatedAt).
		Scan(&s.ID, &s.CreatedAt)
	return dbError("upsert summary", err)
}

// RecentSummaries returns the newest summaries by date.
func (r *Repository) RecentSummaries(ctx context.Context, limit int) ([]*models.DiarySummary, error) {
	if limit <= 0 {
		limit = 7
	}
	stmt, err := r.PrepareStmt(ctx, `SELECT `+summaryColumns+` FROM diary_summaries ORDER BY date DESC LIMIT ?`)
	if err != nil {
		return nil, dbError("recent summaries", err)
	}
	rows, err := stmt.QueryContext(ctx, limit)
	if err != nil {
		return nil, dbError("recent summaries", err)
	}
	defer rows.Close()

	var out []*models.DiarySummary
	for rows.Next() {
		d, err := scanSummary(rows)
		if err != nil {
			return nil, dbError("recent summaries", err)
		}
		out = append(out, d)
	}
	return out, dbError("recent summaries", rows.Err())
}

// DeleteSummary removes the summary of date.
func (r *Repository) DeleteSummary(ctx context.Context, date string) error {
	n, err := r.exec(ctx, `DELETE FROM diary_summaries WHERE date = ?`, date)
	if err != nil {
		return dbError("delete summary", err)
	}
	if n == 0 {
		return notFound("summary", date)
	}
	return nil
}
