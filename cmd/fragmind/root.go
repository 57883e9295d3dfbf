package main

import (
	"context"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/kimhsiao/fragmind/internal/app"
	"github.com/kimhsiao/fragmind/internal/config"
	"github.com/kimhsiao/fragmind/internal/metrics"
	"github.com/kimhsiao/fragmind/internal/todo"
)

type rootOptions struct {
	configFile  string
	dataDir     string
	logLevel    string
	showMetrics bool

	// todoOptions are passed to the lifecycle controller; tests shorten the
	// grace period with them.
	todoOptions []todo.Option
}

func newRootCommand() *cobra.Command {
	return newRootCommandWith(&rootOptions{})
}

func newRootCommandWith(ro *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "fragmind",
		Short:        "Capture note fragments, manage todos and keep a daily diary.",
		Version:      Version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&ro.configFile, "config", "", "config file (default: fragmind.yaml in . or the data dir)")
	flags.StringVar(&ro.dataDir, "data-dir", "", "directory holding the database (default ~/.fragmind)")
	flags.StringVar(&ro.logLevel, "log-level", "", "log level: debug, info, warn or error")
	flags.BoolVar(&ro.showMetrics, "metrics", false, "print in-process metrics after the command")

	addNote(cmd, ro)
	addTodo(cmd, ro)
	addSummary(cmd, ro)
	addConfig(cmd, ro)
	addExport(cmd, ro)
	return cmd
}

func (ro *rootOptions) load() (*config.Config, error) {
	overrides := map[string]interface{}{}
	if ro.dataDir != "" {
		overrides["data_dir"] = ro.dataDir
	}
	if ro.logLevel != "" {
		overrides["log.level"] = ro.logLevel
	}
	return config.Load(config.LoadOptions{ConfigFile: ro.configFile, Overrides: overrides})
}

// run opens the application, runs fn and closes it again.
func (ro *rootOptions) run(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := ro.load()
	if err != nil {
		return err
	}
	ao := app.Options{LogOutput: cmd.ErrOrStderr(), TodoOptions: ro.todoOptions}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := app.New(ctx, cfg, ao)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := fn(ctx, a); err != nil {
		return err
	}
	if ro.showMetrics {
		return printMetrics(cmd)
	}
	return nil
}

func printMetrics(cmd *cobra.Command) error {
	samples, err := metrics.Snapshot()
	if err != nil {
		return err
	}
	bold := color.New(color.Bold)
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow(bold.Sprint("METRIC"), bold.Sprint("LABELS"), bold.Sprint("VALUE"))
	for _, s := range samples {
		tbl.AddRow(s.Name, formatLabels(s.Labels), s.Value)
	}
	_, err = cmd.ErrOrStderr().Write([]byte("\n" + tbl.String() + "\n"))
	return err
}

func formatLabels(labels map[string]string) string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + labels[k]
	}
	return strings.Join(parts, ",")
}

// joinArgs rebuilds free text split by the shell.
func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}
