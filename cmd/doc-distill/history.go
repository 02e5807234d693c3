package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/doc-distill/internal/history"
	"github.com/pdiddy/doc-distill/pkg/types"
)

// historyFlagKeys maps config keys to the history flags that override them.
var historyFlagKeys = map[string]string{
	"history.path": "history",
}

func newHistoryCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent conversion runs",
		Long: `History lists the runs recorded by convert --history or --skip-unchanged,
newest first.`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return bindFlags(v, cmd, historyFlagKeys)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, v)
		},
	}

	cmd.Flags().String("history", "", "history database (default "+types.DefaultHistoryPath+")")
	cmd.Flags().Int("limit", 20, "maximum number of runs to show")
	cmd.Flags().Bool("yaml", false, "print runs as YAML")

	return cmd
}

func runHistory(cmd *cobra.Command, v *viper.Viper) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	path := v.GetString("history.path")
	if path == "" {
		path = types.DefaultHistoryPath
	}
	limit, _ := cmd.Flags().GetInt("limit")
	asYAML, _ := cmd.Flags().GetBool("yaml")

	store, err := history.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	out := cmd.OutOrStdout()
	if asYAML {
		return store.ExportYAML(ctx, out, limit)
	}

	runs, err := store.List(ctx, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded.")
		return nil
	}
	for _, r := range runs {
		fmt.Fprintln(out, history.FormatRun(r))
	}
	return nil
}
