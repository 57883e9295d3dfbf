package todo

import (
	"math"
	"sort"
	"time"

	"github.com/kimhsiao/fragmind/internal/models"
)

// UnscheduledLabel heads the group of pending todos without a due date.
const UnscheduledLabel = "Unscheduled"

// BoardItem is a todo prepared for display.
type BoardItem struct {
	Item *models.TodoItem
	// TimeLabel is "HH:MM", or empty when the todo is undated or due at
	// midnight (no specific time).
	TimeLabel string
}

// Group is the pending todos due on one calendar day.
type Group struct {
	// Day is the YYYY-MM-DD key, empty for the unscheduled group.
	Day   string
	Label string
	Items []BoardItem
}

// Board is the display ordering of a todo list.
type Board struct {
	Pending   []Group
	Completed []BoardItem
}

// BuildBoard orders items for display:
// pending todos are grouped by due day in ascending order with the
// unscheduled group last, and sorted by hour and minute inside a day;
// completed todos come newest due first, undated ones ahead of all dated.
// Ties keep the input order.
func BuildBoard(items []*models.TodoItem) Board {
	var (
		board     Board
		byDay     = make(map[string][]BoardItem)
		days      []string
		undated   []BoardItem
		completed []*models.TodoItem
	)

	for _, item := range items {
		if item.Completed {
			completed = append(completed, item)
			continue
		}
		due, ok := item.DueTime()
		if !ok {
			undated = append(undated, BoardItem{Item: item})
			continue
		}
		day := models.DayKey(due)
		if _, seen := byDay[day]; !seen {
			days = append(days, day)
		}
		byDay[day] = append(byDay[day], BoardItem{Item: item, TimeLabel: timeLabel(due)})
	}

	sort.Strings(days)
	for _, day := range days {
		group := byDay[day]
		sort.SliceStable(group, func(i, j int) bool {
			return minuteOfDay(group[i].Item) < minuteOfDay(group[j].Item)
		})
		board.Pending = append(board.Pending, Group{Day: day, Label: DayLabel(day), Items: group})
	}
	if len(undated) > 0 {
		board.Pending = append(board.Pending, Group{Label: UnscheduledLabel, Items: undated})
	}

	sort.SliceStable(completed, func(i, j int) bool {
		return completedSortKey(completed[i]) > completedSortKey(completed[j])
	})
	for _, item := range completed {
		bi := BoardItem{Item: item}
		if due, ok := item.DueTime(); ok {
			bi.TimeLabel = timeLabel(due)
		}
		board.Completed = append(board.Completed, bi)
	}
	return board
}

// completedSortKey treats an undated todo as due at the latest possible time.
func completedSortKey(item *models.TodoItem) int64 {
	if item.DueDate == nil {
		return math.MaxInt64
	}
	return *item.DueDate
}

func minuteOfDay(item *models.TodoItem) int {
	due, _ := item.DueTime()
	return due.Hour()*60 + due.Minute()
}

func timeLabel(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 {
		return ""
	}
	return t.Format("15:04")
}

// DayLabel renders a day key as "2006-01-02 Monday".
func DayLabel(day string) string {
	t, err := models.ParseDay(day)
	if err != nil {
		return day
	}
	return t.Format("2006-01-02 Monday")
}
