package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/kimhsiao/fragmind/internal/app"
	"github.com/kimhsiao/fragmind/internal/diary"
	apperrors "github.com/kimhsiao/fragmind/internal/errors"
	"github.com/kimhsiao/fragmind/internal/todo"
)

func addSummary(topLevel *cobra.Command, ro *rootOptions) {
	cmd := &cobra.Command{
		Use:     "summary",
		Aliases: []string{"diary"},
		Short:   "Generate and browse daily diary summaries",
	}

	addSummaryGenerate(cmd, ro)
	addSummaryShow(cmd, ro)
	addSummarySave(cmd, ro)
	addSummaryRecent(cmd, ro)
	topLevel.AddCommand(cmd)
}

func addSummaryGenerate(parent *cobra.Command, ro *rootOptions) {
	var (
		date         string
		saveFallback bool
	)
	cmd := &cobra.Command{
		Use:     "generate",
		Aliases: []string{"gen"},
		Short:   "Write the diary summary of a day from its notes",
		Long: `Write the diary summary of a day from its notes. An existing summary is
used as a style reference only. When AI is unavailable or fails, the notes
are shown instead and nothing is saved unless --save-fallback is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ro.run(cmd, func(ctx context.Context, a *app.App) error {
				p := newPrinter(cmd)
				update := <-a.Diary.RegenerateAsync(ctx, date)
				if update.Err != nil {
					return update.Err
				}
				res := update.Result

				p.Title(todo.DayLabel(res.Date))
				p.Println(res.Text)
				p.Println()

				switch {
				case res.Status == diary.StatusEmpty:
					p.Warn("Nothing to summarize yet.")
				case res.Stale:
					p.Warn("Notes changed while the summary was written; run generate again.")
				case res.Saved:
					p.OK("Saved summary of %d notes (%s).", res.EntryCount, res.Mode)
				case res.Status == diary.StatusUnavailable:
					p.Warn("AI is not configured; showing your notes instead.")
				case res.Status == diary.StatusFailed:
					p.Warn("Summary failed: %s. Showing your notes instead.", describe(res.Err))
				}

				if saveFallback && (res.Status == diary.StatusUnavailable || res.Status == diary.StatusFailed) {
					if _, err := a.Diary.Save(ctx, res.Date, res.Text); err != nil {
						return err
					}
					p.OK("Saved the notes as the summary.")
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day to summarize (YYYY-MM-DD, default today)")
	cmd.Flags().BoolVar(&saveFallback, "save-fallback", false, "save the plain notes when AI is unavailable or fails")
	parent.AddCommand(cmd)
}

func addSummaryShow(parent *cobra.Command, ro *rootOptions) {
	var date string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the saved summary of a day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ro.run(cmd, func(ctx context.Context, a *app.App) error {
				p := newPrinter(cmd)
				s, err := a.Diary.Summary(ctx, date)
				if apperrors.Is(err, apperrors.ErrNotFound) {
					day := date
					if day == "" {
						day = a.Diary.Today()
					}
					p.Warn("No summary saved for %s.", day)
					return nil
				}
				if err != nil {
					return err
				}
				p.Summary(s)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day to show (YYYY-MM-DD, default today)")
	parent.AddCommand(cmd)
}

func addSummarySave(parent *cobra.Command, ro *rootOptions) {
	var date string
	cmd := &cobra.Command{
		Use:   "save <text>",
		Short: "Save your own text as the summary of a day",
		Args: func(cmd *cobra.Command, args []string) error {
			if joinArgs(args) == "" {
				return errors.New("requires the summary text")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return ro.run(cmd, func(ctx context.Context, a *app.App) error {
				s, err := a.Diary.Save(ctx, date, joinArgs(args))
				if err != nil {
					return err
				}
				newPrinter(cmd).OK("Saved summary for %s.", s.Date)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day to save (YYYY-MM-DD, default today)")
	parent.AddCommand(cmd)
}

func addSummaryRecent(parent *cobra.Command, ro *rootOptions) {
	var n int
	cmd := &cobra.Command{
		Use:   "recent",
		Short: "Show the newest summaries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ro.run(cmd, func(ctx context.Context, a *app.App) error {
				p := newPrinter(cmd)
				list, err := a.Diary.RecentSummaries(ctx, n)
				if err != nil {
					return err
				}
				if len(list) == 0 {
					p.None()
					return nil
				}
				for _, s := range list {
					p.Summary(s)
					p.Println()
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&n, "number", "n", diary.DefaultRecentSummaries, "how many summaries to show")
	parent.AddCommand(cmd)
}
