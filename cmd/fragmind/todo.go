package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/kimhsiao/fragmind/internal/app"
	apperrors "github.com/kimhsiao/fragmind/internal/errors"
	"github.com/kimhsiao/fragmind/internal/extract"
	"github.com/kimhsiao/fragmind/internal/models"
	"github.com/kimhsiao/fragmind/internal/todo"
)

func addTodo(topLevel *cobra.Command, ro *rootOptions) {
	cmd := &cobra.Command{
		Use:     "todo",
		Aliases: []string{"todos"},
		Short:   "Manage todos",
	}

	addTodoList(cmd, ro)
	addTodoAdd(cmd, ro)
	addTodoDue(cmd, ro)
	addTodoRename(cmd, ro)
	addTodoDone(cmd, ro)
	addTodoRestore(cmd, ro)
	addTodoRemove(cmd, ro)
	addTodoExtract(cmd, ro)
	topLevel.AddCommand(cmd)
}

func addTodoList(parent *cobra.Command, ro *rootOptions) {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show todos grouped by due day",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ro.run(cmd, func(ctx context.Context, a *app.App) error {
				board, err := a.Todos.Board(ctx)
				if err != nil {
					return err
				}
				newPrinter(cmd).Board(board)
				return nil
			})
		},
	}
	parent.AddCommand(cmd)
}

func addTodoAdd(parent *cobra.Command, ro *rootOptions) {
	var due string
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a todo",
		Example: `
fragmind todo add buy milk
fragmind todo add --due "tomorrow 9:30" call the bank
`,
		Args: func(cmd *cobra.Command, args []string) error {
			if joinArgs(args) == "" {
				return errors.New("requires a title")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			dueAt, err := parseDue(due, time.Now())
			if err != nil {
				return err
			}
			return ro.run(cmd, func(ctx context.Context, a *app.App) error {
				item, err := a.Todos.Add(ctx, joinArgs(args), dueAt)
				if err != nil {
					return err
				}
				newPrinter(cmd).Todo(item)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&due, "due", "", "due time, e.g. 2024-01-02 15:04, 15:04 or tomorrow 9:30")
	parent.AddCommand(cmd)
}

func addTodoDue(parent *cobra.Command, ro *rootOptions) {
	cmd := &cobra.Command{
		Use:   "due <id> <time|none>",
		Short: "Set or clear the due time of a todo",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dueAt, err := parseDue(joinArgs(args[1:]), time.Now())
			if err != nil {
				return err
			}
			return ro.run(cmd, func(ctx context.Context, a *app.App) error {
				item, err := a.Todos.SetDue(ctx, args[0], dueAt)
				if err != nil {
					return err
				}
				newPrinter(cmd).Todo(item)
				return nil
			})
		},
	}
	parent.AddCommand(cmd)
}

func addTodoRename(parent *cobra.Command, ro *rootOptions) {
	cmd := &cobra.Command{
		Use:   "rename <id> <title>",
		Short: "Change the title of a todo",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ro.run(cmd, func(ctx context.Context, a *app.App) error {
				item, err := a.Todos.Rename(ctx, args[0], joinArgs(args[1:]))
				if err != nil {
					return err
				}
				newPrinter(cmd).Todo(item)
				return nil
			})
		},
	}
	parent.AddCommand(cmd)
}

func addTodoDone(parent *cobra.Command, ro *rootOptions) {
	cmd := &cobra.Command{
		Use:   "done <id>",
		Short: "Check a todo; it is completed after the grace period unless interrupted",
		Long: `Check a todo. The completion is written once the grace period has
passed. Press Ctrl-C before then to uncheck it again; the todo stays pending.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ro.run(cmd, func(ctx context.Context, a *app.App) error {
				return completeWithGrace(ctx, cmd, a, args[0])
			})
		},
	}
	parent.AddCommand(cmd)
}

// completeWithGrace checks id and waits for the commit, unchecking it when
// the user interrupts.
func completeWithGrace(ctx context.Context, cmd *cobra.Command, a *app.App, id string) error {
	p := newPrinter(cmd)

	committed := make(chan models.TodoItem, 1)
	failed := make(chan error, 1)
	a.Tasks.OnCommit(func(item models.TodoItem) {
		if string(item.ID) == id {
			committed <- item
		}
	})
	a.Tasks.OnCommitError(func(failedID string, err error) {
		if failedID == id {
			failed <- err
		}
	})

	res, err := a.Tasks.Toggle(ctx, id, true)
	if err != nil {
		return err
	}
	title := id
	if res.Item != nil {
		title = res.Item.Title
	}
	if res.State == todo.StateCompleted {
		p.Warn("%q is already completed", title)
		return nil
	}

	ictx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	p.Println(fmt.Sprintf("Completing %q in %s. Press Ctrl-C to undo.", title, todo.GracePeriod))

	select {
	case item := <-committed:
		p.OK("Completed %q", item.Title)
		return nil
	case err := <-failed:
		return err
	case <-ictx.Done():
		return uncheck(context.Background(), p, a.Tasks, id, title)
	}
}

// uncheck cancels a pending completion. The commit may already have won
// the race with the interrupt, in which case the todo is reported done.
func uncheck(ctx context.Context, p *printer, tasks *todo.Controller, id, title string) error {
	res, err := tasks.Toggle(ctx, id, false)
	if res.SnapBack || apperrors.Is(err, apperrors.ErrInvalidTransition) {
		p.OK("Completed %q", title)
		return nil
	}
	if err != nil {
		return err
	}
	p.Warn("Cancelled; %q stays pending", title)
	return nil
}

func addTodoRestore(parent *cobra.Command, ro *rootOptions) {
	cmd := &cobra.Command{
		Use:   "restore <id>",
		Short: "Move a completed todo back to pending",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ro.run(cmd, func(ctx context.Context, a *app.App) error {
				item, err := a.Tasks.Restore(ctx, args[0])
				if err != nil {
					return err
				}
				newPrinter(cmd).Todo(item)
				return nil
			})
		},
	}
	parent.AddCommand(cmd)
}

func addTodoRemove(parent *cobra.Command, ro *rootOptions) {
	cmd := &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a todo",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ro.run(cmd, func(ctx context.Context, a *app.App) error {
				if err := a.Tasks.Delete(ctx, args[0]); err != nil {
					return err
				}
				newPrinter(cmd).OK("Deleted todo %s", args[0])
				return nil
			})
		},
	}
	parent.AddCommand(cmd)
}

func addTodoExtract(parent *cobra.Command, ro *rootOptions) {
	cmd := &cobra.Command{
		Use:   "extract <text>",
		Short: "Find todos in free text and add them",
		Args: func(cmd *cobra.Command, args []string) error {
			if joinArgs(args) == "" {
				return errors.New("requires some text")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return ro.run(cmd, func(ctx context.Context, a *app.App) error {
				return extractAndReport(ctx, newPrinter(cmd), a, joinArgs(args))
			})
		},
	}
	parent.AddCommand(cmd)
}

// extractAndReport stores extracted todos and prints a one-line status.
// Extraction problems are reported, not returned; storage failures are.
func extractAndReport(ctx context.Context, p *printer, a *app.App, text string) error {
	items, out, err := a.Extract.ExtractAndStore(ctx, text)
	if err != nil {
		return err
	}
	switch out.Status {
	case extract.StatusUnavailable:
		p.Warn("AI is not configured; no todos extracted (see \"fragmind config set-key\")")
	case extract.StatusFailed:
		p.Warn("Todo extraction failed: %s", describe(out.Err))
	default:
		if len(items) == 0 {
			p.Println("No todos found.")
			return nil
		}
		p.OK("Added %d todos:", len(items))
		for _, item := range items {
			p.Todo(item)
		}
	}
	return nil
}

// describe renders an error for a status line.
func describe(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
