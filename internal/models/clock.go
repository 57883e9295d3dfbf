package models

import "time"

// DateLayout is the calendar-day key format used by fragments and summaries.
const DateLayout = "2006-01-02"

// DayKey formats t as a calendar-day key in t's own location.
func DayKey(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDay parses a calendar-day key into local midnight.
func ParseDay(day string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, day, time.Local)
}

// WallClock strips the time zone offset from t, keeping its wall-clock
// fields and reinterpreting them in the local zone. Sub-second precision is
// dropped since timestamps are persisted as Unix seconds.
func WallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.Local)
}

// unixPtr converts an optional Unix timestamp to an optional local time.
func unixPtr(v *int64) *time.Time {
	if v == nil {
		return nil
	}
	t := time.Unix(*v, 0)
	return &t
}
