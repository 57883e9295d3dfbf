package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/kimhsiao/fragmind/internal/app"
	"github.com/kimhsiao/fragmind/internal/export"
)

func addExport(topLevel *cobra.Command, ro *rootOptions) {
	var (
		ec   = export.ExportConfig{}
		html   bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the journal of a day to Markdown or HTML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ec.Format = export.FormatMarkdown
			if html {
				ec.Format = export.FormatHTML
			}
			return ro.run(cmd, func(ctx context.Context, a *app.App) error {
				res, err := a.Export.Export(ctx, &ec)
				if err != nil {
					return err
				}
				newPrinter(cmd).OK("Exported %d notes and %d todos to %s", res.FragmentCount, res.TodoCount, res.FilePath)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&ec.Date, "date", "", "day to export (YYYY-MM-DD, default today)")
	cmd.Flags().StringVarP(&ec.OutputPath, "output", "o", "", "output file (default <data dir>/exports/fragmind_<date>.<ext>)")
	cmd.Flags().BoolVar(&html, "html", false, "write HTML instead of Markdown")
	topLevel.AddCommand(cmd)
}
