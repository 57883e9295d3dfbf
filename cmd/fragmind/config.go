package main

import (
	"context"
	"errors"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/kimhsiao/fragmind/internal/app"
	"github.com/kimhsiao/fragmind/internal/services"
)

func addConfig(topLevel *cobra.Command, ro *rootOptions) {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show and change AI settings",
	}

	addConfigSetKey(cmd, ro)
	addConfigShow(cmd, ro)
	addConfigClear(cmd, ro)
	topLevel.AddCommand(cmd)
}

func addConfigSetKey(parent *cobra.Command, ro *rootOptions) {
	settings := services.Settings{}
	cmd := &cobra.Command{
		Use:   "set-key [key]",
		Short: "Store AI settings; the key is encrypted for this machine",
		Example: `
fragmind config set-key sk-xxxx
fragmind config set-key --provider openai --model gpt-4o-mini sk-xxxx
fragmind config set-key --provider ollama --model llama3
`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				settings.APIKey = args[0]
			}
			if settings.APIKey == "" && settings.Provider != "ollama" {
				return errors.New("requires an API key")
			}
			return ro.run(cmd, func(ctx context.Context, a *app.App) error {
				if err := a.AI.ConfigureAI(ctx, settings); err != nil {
					return err
				}
				cfg := a.AI.Config()
				newPrinter(cmd).OK("AI configured: %s (%s)", cfg.Provider, cfg.ModelName)
				return nil
			})
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&settings.Provider, "provider", "deepseek", "deepseek, openai, claude or ollama")
	flags.StringVar(&settings.APIEndpoint, "endpoint", "", "API endpoint (default depends on the provider)")
	flags.StringVar(&settings.ModelName, "model", "", "model name (default depends on the provider)")
	flags.IntVar(&settings.MaxTokens, "max-tokens", 0, "response token limit, 0 for the provider default")
	flags.StringVar(&settings.StylePrompt, "style", "", "standing instruction for diary summaries")
	parent.AddCommand(cmd)
}

func addConfigShow(parent *cobra.Command, ro *rootOptions) {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ro.run(cmd, func(ctx context.Context, a *app.App) error {
				cfg := a.AI.Config()
				key := cfg.APIKey
				if key == "" {
					key = faintColor.Sprint("(not set)")
				}
				source := "config file / environment"
				if a.AI.Stored() {
					source = "stored"
				}

				tbl := uitable.New()
				tbl.Separator = "  "
				tbl.AddRow(headColor.Sprint("data dir"), a.Config.DataDir)
				tbl.AddRow(headColor.Sprint("provider"), cfg.Provider)
				tbl.AddRow(headColor.Sprint("endpoint"), cfg.APIEndpoint)
				tbl.AddRow(headColor.Sprint("model"), cfg.ModelName)
				tbl.AddRow(headColor.Sprint("api key"), key)
				tbl.AddRow(headColor.Sprint("timeout"), cfg.Timeout)
				tbl.AddRow(headColor.Sprint("source"), source)
				tbl.AddRow(headColor.Sprint("style"), a.AI.StylePrompt())
				tbl.AddRow(headColor.Sprint("available"), a.AI.Available())
				newPrinter(cmd).Println(tbl)
				return nil
			})
		},
	}
	parent.AddCommand(cmd)
}

func addConfigClear(parent *cobra.Command, ro *rootOptions) {
	cmd := &cobra.Command{
		Use:   "clear-key",
		Short: "Forget the stored AI settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ro.run(cmd, func(ctx context.Context, a *app.App) error {
				if err := a.AI.DisableAI(ctx); err != nil {
					return err
				}
				newPrinter(cmd).OK("Stored AI settings removed.")
				return nil
			})
		},
	}
	parent.AddCommand(cmd)
}
