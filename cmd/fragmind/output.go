package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/kimhsiao/fragmind/internal/models"
	"github.com/kimhsiao/fragmind/internal/todo"
)

var (
	titleColor = color.New(color.Bold, color.Underline)
	headColor  = color.New(color.Bold)
	idColor    = color.New(color.FgHiYellow, color.Faint)
	faintColor = color.New(color.Faint)
	okColor    = color.New(color.FgGreen)
	warnColor  = color.New(color.FgYellow)
)

const contentWidth = 72

type printer struct {
	out io.Writer
}

func newPrinter(cmd *cobra.Command) *printer {
	return &printer{out: cmd.OutOrStdout()}
}

func (p *printer) Title(title string) {
	_, _ = titleColor.Fprintln(p.out, title)
}

func (p *printer) Println(a ...interface{}) {
	_, _ = fmt.Fprintln(p.out, a...)
}

func (p *printer) OK(format string, a ...interface{}) {
	_, _ = okColor.Fprintf(p.out, format+"\n", a...)
}

func (p *printer) Warn(format string, a ...interface{}) {
	_, _ = warnColor.Fprintf(p.out, format+"\n", a...)
}

func (p *printer) None() {
	_, _ = faintColor.Fprintln(p.out, " none")
}

// Fragments prints notes as a table. withDate adds the day column.
func (p *printer) Fragments(frags []*models.Fragment, withDate bool) {
	if len(frags) == 0 {
		p.None()
		return
	}
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = contentWidth
	tbl.Wrap = true
	for _, f := range frags {
		if withDate {
			tbl.AddRow(idColor.Sprint(f.ID), f.Date, f.Clock(), f.Content)
		} else {
			tbl.AddRow(idColor.Sprint(f.ID), f.Clock(), f.Content)
		}
	}
	p.Println(tbl)
}

// Board prints pending groups followed by completed todos.
func (p *printer) Board(b todo.Board) {
	if len(b.Pending) == 0 && len(b.Completed) == 0 {
		p.None()
		return
	}
	for _, g := range b.Pending {
		_, _ = headColor.Fprintln(p.out, g.Label)
		p.todoTable(g.Items, false)
		p.Println()
	}
	if len(b.Completed) > 0 {
		_, _ = headColor.Fprintln(p.out, "Completed")
		p.todoTable(b.Completed, true)
	}
}

func (p *printer) todoTable(items []todo.BoardItem, withDay bool) {
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = contentWidth
	tbl.Wrap = true
	for _, bi := range items {
		box, title := "[ ]", bi.Item.Title
		if bi.Item.Completed {
			box, title = "[x]", faintColor.Sprint(bi.Item.Title)
		}
		when := bi.TimeLabel
		if withDay {
			if due, ok := bi.Item.DueTime(); ok {
				when = models.DayKey(due) + " " + bi.TimeLabel
			}
		}
		tbl.AddRow(box, idColor.Sprint(bi.Item.ID), when, title)
	}
	p.Println(tbl)
}

// Todo prints a single todo on one line.
func (p *printer) Todo(item *models.TodoItem) {
	box := "[ ]"
	if item.Completed {
		box = "[x]"
	}
	due := ""
	if t, ok := item.DueTime(); ok {
		due = "  due " + t.Format("2006-01-02 15:04")
	}
	_, _ = fmt.Fprintf(p.out, "%s %s %s%s\n", box, idColor.Sprint(item.ID), item.Title, faintColor.Sprint(due))
}

func (p *printer) Summary(s *models.DiarySummary) {
	p.Title(todo.DayLabel(s.Date))
	p.Println(s.Summary)
	_, _ = faintColor.Fprintf(p.out, "%d notes, updated %s\n", s.EntryCount, s.UpdatedAtTime().Format("2006-01-02 15:04"))
}
