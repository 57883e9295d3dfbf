package analysis

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kimhsiao/fragmind/internal/models"
)

type todoList struct {
	Items []struct {
		Title   string  `json:"title"`
		DueDate *string `json:"due_date"`
	} `json:"items"`
}

// dueLayouts are tried in order. Zoned layouts come first so an explicit
// offset is parsed rather than mistaken for trailing garbage.
var dueLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// parseTodoCandidates decodes the service's JSON reply. Markdown code fences
// are tolerated. Items without a title are dropped; unparseable due dates
// become nil.
func parseTodoCandidates(raw string) ([]TodoCandidate, error) {
	body := stripFences(raw)
	if body == "" {
		return nil, nil
	}

	var list todoList
	if err := json.Unmarshal([]byte(body), &list); err != nil {
		// Some models return the bare array.
		if err2 := json.Unmarshal([]byte(body), &list.Items); err2 != nil {
			return nil, fmt.Errorf("decode todo list: %w", err)
		}
	}

	out := make([]TodoCandidate, 0, len(list.Items))
	for _, item := range list.Items {
		title := truncateRunes(strings.TrimSpace(item.Title), models.MaxTitleLength)
		if title == "" {
			continue
		}
		c := TodoCandidate{Title: title}
		if item.DueDate != nil {
			c.Due = parseDue(*item.DueDate)
		}
		out = append(out, c)
	}
	return out, nil
}

// parseDue resolves a due string to local wall-clock time. Any zone offset is
// dropped, keeping the wall-clock fields.
func parseDue(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "null") {
		return nil
	}
	for _, layout := range dueLayouts {
		t, err := time.ParseInLocation(layout, s, time.Local)
		if err != nil {
			continue
		}
		t = models.WallClock(t)
		return &t
	}
	return nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max])
}
