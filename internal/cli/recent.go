package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mithrel/mdreader/internal/present"
	"github.com/mithrel/mdreader/internal/relay"
	"github.com/mithrel/mdreader/internal/ui"
	"github.com/mithrel/mdreader/internal/util"
	"github.com/mithrel/mdreader/internal/wire"
	"github.com/mithrel/mdreader/pkg/api"
)

// pickRecent and interactive are swapped in tests.
var (
	pickRecent  = ui.PickRecent
	interactive = func(cmd *cobra.Command) bool { return isTerminal(cmd.OutOrStdout()) }
)

func newRecentCmd() *cobra.Command {
	var output string
	var limit int
	var headers bool
	cmd := &cobra.Command{
		Use:   "recent [query]",
		Short: "List recently opened files",
		Long:  "List recently opened files, most recent first. A query fuzzy-filters the paths. --output tui picks one to open.",
		Args:  cobra.MaximumNArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			return completeRecent(cmd, toComplete), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, ok := present.ParseMode(output)
			if !ok {
				return fmt.Errorf("unknown output %q (plain, pretty, json, ndjson, tui)", output)
			}
			app := getApp(cmd)
			if limit <= 0 {
				limit = app.Cfg.GetInt("history.limit")
			}
			files, err := app.Store.ListRecent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				files = filterRecent(files, args[0])
			}

			if mode == present.ModeTUI && interactive(cmd) {
				chosen, err := pickRecent(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), files)
				if err != nil || chosen == "" {
					return err
				}
				return openViewer(cmd, app, relay.Arg(chosen))
			}
			return present.RenderRecent(cmd.OutOrStdout(), files, present.Options{
				Mode:       mode,
				JSONIndent: true,
				Headers:    headers,
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "pretty", "output mode: plain, pretty, json, ndjson, tui")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of files (default history.limit)")
	cmd.Flags().BoolVar(&headers, "headers", false, "print column headers in plain output")
	_ = cmd.RegisterFlagCompletionFunc("output", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"plain", "pretty", "json", "ndjson", "tui"}, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

// filterRecent keeps the files whose path fuzzy-matches query, best first.
func filterRecent(files []api.RecentFile, query string) []api.RecentFile {
	byPath := make(map[string]api.RecentFile, len(files))
	paths := make([]string, 0, len(files))
	for _, f := range files {
		byPath[f.Path] = f
		paths = append(paths, f.Path)
	}
	matched := util.ScoreCompletions(query, paths, 0)
	out := make([]api.RecentFile, 0, len(matched))
	for _, p := range matched {
		out = append(out, byPath[p])
	}
	return out
}

func completeRecent(cmd *cobra.Command, toComplete string) []string {
	app, ok := cmd.Context().Value(appKey).(*wire.App)
	if !ok {
		return nil
	}
	files, err := app.Store.ListRecent(cmd.Context(), app.Cfg.GetInt("history.limit"))
	if err != nil {
		return nil
	}
	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	return util.ScoreCompletions(toComplete, paths, 20)
}
