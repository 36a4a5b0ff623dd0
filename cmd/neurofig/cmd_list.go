package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nvandessel/neurofig/internal/figures"
)

type figureListItem struct {
	Name        string            `json:"name"`
	Group       string            `json:"group"`
	Description string            `json:"description"`
	Output      string            `json:"output"`
	Input       string            `json:"input,omitempty"`
	Default     bool              `json:"default"`
	Params      map[string]string `json:"params,omitempty"`
}

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List figures and groups",
		Long: `List every figure neurofig can render, grouped as on the command line.

A group name renders the figure marked with *. Use --params to also show
each figure's parameters and their defaults.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			showParams, _ := cmd.Flags().GetBool("params")
			registry := figures.Catalogue()

			if jsonOut {
				items := make([]figureListItem, 0, len(registry.List()))
				for _, spec := range registry.List() {
					item := figureListItem{
						Name:        spec.Name,
						Group:       spec.Group,
						Description: spec.Description,
						Output:      spec.Output,
						Default:     spec.GroupDefault,
						Params:      map[string]string{},
					}
					if spec.Input != nil {
						item.Input = spec.Input.Path
					}
					for _, name := range spec.ParamNames() {
						item.Params[name] = spec.DefaultString(name)
					}
					items = append(items, item)
				}
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"figures": items,
					"groups":  registry.Groups(),
					"count":   len(items),
				})
			}

			out := cmd.OutOrStdout()
			for _, g := range registry.Groups() {
				fmt.Fprintf(out, "%s\n", g.Name)
				for _, name := range g.Members {
					spec, _ := registry.Get(name)
					marker := " "
					if name == g.Default {
						marker = "*"
					}
					fmt.Fprintf(out, "  %s %-16s %s\n", marker, name, spec.Description)
					if spec.Input != nil {
						fmt.Fprintf(out, "      input: %s\n", spec.Input.Path)
					}
					if showParams {
						for _, p := range spec.ParamNames() {
							fmt.Fprintf(out, "      %s = %s\n", p, spec.DefaultString(p))
						}
					}
				}
			}
			fmt.Fprintf(out, "\n%d figures in %d groups\n", len(registry.List()), len(registry.Groups()))
			return nil
		},
	}
	cmd.Flags().Bool("params", false, "Show parameters and defaults")
	return cmd
}

// formatSummary renders summary statistics as "name: value" lines.
func formatSummary(stats []figures.Stat) string {
	var b strings.Builder
	for _, s := range stats {
		fmt.Fprintf(&b, "%s: %s\n", s.Name, s.Value)
	}
	return b.String()
}
