package models

import "time"

// DiarySummary is the narrative summary of one calendar day. Its identity is
// the date: saving a summary for an already-summarized day replaces the row.
type DiarySummary struct {
	ID         UUID   `db:"id" json:"id"`
	Date       string `db:"date" json:"date" validate:"required,datetime=2006-01-02"`
	Summary    string `db:"summary" json:"summary"`
	EntryCount int    `db:"entry_count" json:"entry_count" validate:"gte=0"` // fragments at generation time
	CreatedAt  int64  `db:"created_at" json:"created_at"`
	UpdatedAt  int64  `db:"updated_at" json:"updated_at"`
}

// TableName returns the table name for DiarySummary.
func (DiarySummary) TableName() string {
	return "diary_summaries"
}

// CreatedAtTime returns the CreatedAt as time.Time.
func (s *DiarySummary) CreatedAtTime() time.Time {
	return time.Unix(s.CreatedAt, 0)
}

// UpdatedAtTime returns the UpdatedAt as time.Time.
func (s *DiarySummary) UpdatedAtTime() time.Time {
	return time.Unix(s.UpdatedAt, 0)
}
