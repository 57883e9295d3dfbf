package main

import (
	"fmt"
	"strings"
	"time"
)

var dueLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02",
}

// parseDue reads a due time typed on the command line. Accepted forms are
// "2024-01-02 15:04", "2024-01-02", "15:04" (today), "today" or "tomorrow"
// optionally followed by a clock time, and "none" to clear.
func parseDue(s string, now time.Time) (*time.Time, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "none" {
		return nil, nil
	}

	for _, layout := range dueLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return &t, nil
		}
	}

	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
	rest := s
	switch {
	case strings.HasPrefix(s, "today"):
		rest = strings.TrimSpace(strings.TrimPrefix(s, "today"))
	case strings.HasPrefix(s, "tomorrow"):
		day = day.AddDate(0, 0, 1)
		rest = strings.TrimSpace(strings.TrimPrefix(s, "tomorrow"))
	}
	if rest == "" && rest != s {
		return &day, nil
	}

	clock, err := time.Parse("15:04", rest)
	if err != nil {
		return nil, fmt.Errorf("cannot read due time %q (try 2024-01-02 15:04, 15:04, tomorrow 9:30 or none)", s)
	}
	t := time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), 0, 0, time.Local)
	return &t, nil
}
