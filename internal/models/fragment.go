package models

import (
	"strings"
	"time"
)

// Fragment is a single note captured by the user and owned by one calendar day.
// Date is assigned once at creation and never derived from CreatedAt again.
type Fragment struct {
	ID        UUID   `db:"id" json:"id"`
	Content   string `db:"content" json:"content" validate:"required"`
	CreatedAt int64  `db:"created_at" json:"created_at"`
	Date      string `db:"date" json:"date" validate:"required,datetime=2006-01-02"`
}

// TableName returns the table name for Fragment.
func (Fragment) TableName() string {
	return "fragments"
}

// NewFragment builds a fragment created at now. An empty day defaults to the
// calendar day of now.
func NewFragment(content, day string, now time.Time) *Fragment {
	if day == "" {
		day = DayKey(now)
	}
	return &Fragment{
		Content:   strings.TrimSpace(content),
		CreatedAt: now.Unix(),
		Date:      day,
	}
}

// CreatedAtTime returns the CreatedAt as time.Time.
func (f *Fragment) CreatedAtTime() time.Time {
	return time.Unix(f.CreatedAt, 0)
}

// Clock returns the HH:MM label of the creation time.
func (f *Fragment) Clock() string {
	return f.CreatedAtTime().Format("15:04")
}
