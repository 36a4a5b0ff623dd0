package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nvandessel/neurofig/internal/constants"
	"github.com/nvandessel/neurofig/internal/history"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded renders",
		Long: `Show renders recorded in <root>/.neurofig/history.db, newest first.

Examples:
  neurofig history                       # last 20 renders
  neurofig history --figure sigmoid      # only sigmoid renders
  neurofig history --id 12               # one render with parameters and summary
  neurofig history --prune 100           # keep the newest 100 rows`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			figure, _ := cmd.Flags().GetString("figure")
			limit, _ := cmd.Flags().GetInt("limit")
			id, _ := cmd.Flags().GetInt64("id")
			prune, _ := cmd.Flags().GetInt("prune")

			root, err := projectRoot(cmd)
			if err != nil {
				return err
			}
			store, err := history.Open(root)
			if err != nil {
				return fmt.Errorf("failed to open render history: %w", err)
			}
			defer store.Close()
			ctx := cmd.Context()
			w := cmd.OutOrStdout()

			if cmd.Flags().Changed("prune") {
				removed, err := store.Prune(ctx, prune)
				if err != nil {
					return err
				}
				if jsonOut {
					return json.NewEncoder(w).Encode(map[string]interface{}{
						"status":  "pruned",
						"removed": removed,
						"kept":    prune,
					})
				}
				fmt.Fprintf(w, "Removed %d renders\n", removed)
				return nil
			}

			if id > 0 {
				e, err := store.Get(ctx, id)
				if err != nil {
					return err
				}
				if jsonOut {
					return json.NewEncoder(w).Encode(e)
				}
				printEntry(cmd, e)
				return nil
			}

			entries, err := store.List(ctx, history.Filter{Figure: figure, Limit: limit})
			if err != nil {
				return err
			}
			if jsonOut {
				if entries == nil {
					entries = []history.Entry{}
				}
				return json.NewEncoder(w).Encode(map[string]interface{}{
					"renders": entries,
					"count":   len(entries),
				})
			}
			if len(entries) == 0 {
				fmt.Fprintln(w, "No renders recorded.")
				return nil
			}
			for _, e := range entries {
				fmt.Fprintf(w, "%5d  %s  %-16s %-4s %s\n",
					e.ID, e.Created.Local().Format(time.DateTime), e.Figure, e.Format, e.Path)
			}
			return nil
		},
	}
	cmd.Flags().String("figure", "", "Only show renders of this figure")
	cmd.Flags().Int("limit", constants.DefaultHistoryLimit, "Maximum renders to show (0 for all)")
	cmd.Flags().Int64("id", 0, "Show one render in detail")
	cmd.Flags().Int("prune", 0, "Delete all but the newest N renders")
	return cmd
}

func printEntry(cmd *cobra.Command, e *history.Entry) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Render %d\n", e.ID)
	fmt.Fprintf(w, "  figure:   %s (%s)\n", e.Figure, e.Group)
	fmt.Fprintf(w, "  created:  %s\n", e.Created.Local().Format(time.RFC3339))
	fmt.Fprintf(w, "  file:     %s\n", e.Path)
	fmt.Fprintf(w, "  format:   %s, %d bytes\n", e.Format, e.Bytes)
	fmt.Fprintf(w, "  sha256:   %s\n", e.Checksum)
	fmt.Fprintf(w, "  duration: %s\n", e.Duration)
	if e.Input != "" {
		fmt.Fprintf(w, "  input:    %s\n", e.Input)
	}
	if len(e.Params)+len(e.Options) > 0 {
		fmt.Fprintln(w, "  params:")
	}
	for _, name := range sortedKeys(e.Params) {
		fmt.Fprintf(w, "    %s = %g\n", name, e.Params[name])
	}
	for _, name := range sortedKeys(e.Options) {
		fmt.Fprintf(w, "    %s = %s\n", name, e.Options[name])
	}
	if len(e.Summary) > 0 {
		fmt.Fprintln(w, "  summary:")
		for _, s := range e.Summary {
			fmt.Fprintf(w, "    %s: %s\n", s.Name, s.Value)
		}
	}
}
