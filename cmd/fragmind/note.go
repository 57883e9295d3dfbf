package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/kimhsiao/fragmind/internal/app"
	"github.com/kimhsiao/fragmind/internal/diary"
)

func addNote(topLevel *cobra.Command, ro *rootOptions) {
	cmd := &cobra.Command{
		Use:     "note",
		Aliases: []string{"notes"},
		Short:   "Record and browse note fragments",
	}

	addNoteAdd(cmd, ro)
	addNoteList(cmd, ro)
	addNoteRecent(cmd, ro)
	addNoteEdit(cmd, ro)
	addNoteRemove(cmd, ro)
	topLevel.AddCommand(cmd)
}

func addNoteAdd(parent *cobra.Command, ro *rootOptions) {
	var (
		date        string
		withExtract bool
	)
	cmd := &cobra.Command{
		Use:   "add <text>",
		Short: "Add a note to today or to --date",
		Example: `
fragmind note add had lunch with Mia, call the bank tomorrow at 10
fragmind note add --extract pay rent on friday
`,
		Args: func(cmd *cobra.Command, args []string) error {
			if joinArgs(args) == "" {
				return errors.New("requires a note")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return ro.run(cmd, func(ctx context.Context, a *app.App) error {
				p := newPrinter(cmd)
				text := joinArgs(args)
				frag, err := a.Diary.AddFragment(ctx, text, date)
				if err != nil {
					return err
				}
				p.OK("Saved note %s (%s %s)", frag.ID, frag.Date, frag.Clock())

				if withExtract {
					return extractAndReport(ctx, p, a, text)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day to file the note under (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&withExtract, "extract", false, "also extract todos from the note")
	parent.AddCommand(cmd)
}

func addNoteList(parent *cobra.Command, ro *rootOptions) {
	var date string
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the notes of one day",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ro.run(cmd, func(ctx context.Context, a *app.App) error {
				day := date
				if day == "" {
					day = a.Diary.Today()
				}
				frags, err := a.Diary.Fragments(ctx, day)
				if err != nil {
					return err
				}
				p := newPrinter(cmd)
				p.Title(day)
				p.Fragments(frags, false)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day to list (YYYY-MM-DD, default today)")
	parent.AddCommand(cmd)
}

func addNoteRecent(parent *cobra.Command, ro *rootOptions) {
	var n int
	cmd := &cobra.Command{
		Use:   "recent",
		Short: "Show the newest notes across all days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ro.run(cmd, func(ctx context.Context, a *app.App) error {
				frags, err := a.Diary.RecentFragments(ctx, n)
				if err != nil {
					return err
				}
				newPrinter(cmd).Fragments(frags, true)
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&n, "number", "n", diary.DefaultRecentFragments, "how many notes to show")
	parent.AddCommand(cmd)
}

func addNoteEdit(parent *cobra.Command, ro *rootOptions) {
	cmd := &cobra.Command{
		Use:   "edit <id> <text>",
		Short: "Replace the text of a note",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ro.run(cmd, func(ctx context.Context, a *app.App) error {
				frag, err := a.Diary.EditFragment(ctx, args[0], joinArgs(args[1:]))
				if err != nil {
					return err
				}
				newPrinter(cmd).OK("Updated note %s", frag.ID)
				return nil
			})
		},
	}
	parent.AddCommand(cmd)
}

func addNoteRemove(parent *cobra.Command, ro *rootOptions) {
	cmd := &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a note",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ro.run(cmd, func(ctx context.Context, a *app.App) error {
				if err := a.Diary.DeleteFragment(ctx, args[0]); err != nil {
					return err
				}
				newPrinter(cmd).OK("Deleted note %s", args[0])
				return nil
			})
		},
	}
	parent.AddCommand(cmd)
}
