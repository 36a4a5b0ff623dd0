package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nvandessel/neurofig/internal/app"
)

func newRenderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render <figure|group>",
		Short: "Render one figure",
		Long: `Render a figure by name, or a group's default figure.

With no flags the figure is drawn with its reference parameters and
written to results/<output>.eps under the project root.

Examples:
  neurofig render sigmoid
  neurofig render math-functions --function hebbian
  neurofig render leaky-noise --set noise=0.05,noise_model=gaussian
  neurofig render firing-hist2d --format png --export arrow`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := renderRequest(cmd)
			req.Name = args[0]
			req.Function, _ = cmd.Flags().GetString("function")
			req.Set, _ = cmd.Flags().GetStringToString("set")
			req.Input, _ = cmd.Flags().GetString("input")
			req.Show, _ = cmd.Flags().GetBool("show")

			s, err := openSession(cmd, !req.NoHistory)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			res, err := s.renderer.Render(ctx, req)
			if err != nil {
				return err
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(res)
			}
			printResult(cmd, res)
			return nil
		},
	}
	addRenderFlags(cmd)
	cmd.Flags().String("function", "", "Figure to render from a group")
	cmd.Flags().StringToString("set", nil, "Parameter overrides, e.g. --set tau=15,kernel=biexp")
	cmd.Flags().String("input", "", "Input CSV instead of the figure's default")
	cmd.Flags().Bool("show", false, "Open the written figure in the system viewer")
	return cmd
}

func newRenderAllCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render-all",
		Short: "Render every figure whose input exists",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := renderRequest(cmd)
			s, err := openSession(cmd, !req.NoHistory)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			results, skipped, renderErr := s.renderer.RenderAll(ctx, req)

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				out := map[string]interface{}{
					"rendered": results,
					"skipped":  skipped,
				}
				if renderErr != nil {
					out["error"] = renderErr.Error()
				}
				if err := json.NewEncoder(cmd.OutOrStdout()).Encode(out); err != nil {
					return err
				}
				return renderErr
			}

			w := cmd.OutOrStdout()
			for _, res := range results {
				fmt.Fprintf(w, "%-16s %s\n", res.Figure, res.Path)
			}
			for _, sk := range skipped {
				fmt.Fprintf(w, "%-16s skipped: %s\n", sk.Figure, sk.Reason)
			}
			fmt.Fprintf(w, "\n%d rendered, %d skipped\n", len(results), len(skipped))
			return renderErr
		},
	}
	addRenderFlags(cmd)
	return cmd
}

func addRenderFlags(cmd *cobra.Command) {
	cmd.Flags().String("format", "", "Output format: eps, svg, pdf, png, jpg or tif (default from config)")
	cmd.Flags().String("out-dir", "", "Output directory (default from config)")
	cmd.Flags().String("export", "", "Also export plotted series: arrow or csv")
	cmd.Flags().Bool("no-history", false, "Do not record the render in the history database")
}

// renderRequest reads the flags shared by render and render-all.
func renderRequest(cmd *cobra.Command) app.Request {
	var req app.Request
	req.Format, _ = cmd.Flags().GetString("format")
	req.OutputDir, _ = cmd.Flags().GetString("out-dir")
	req.Export, _ = cmd.Flags().GetString("export")
	req.NoHistory, _ = cmd.Flags().GetBool("no-history")
	return req
}

func printResult(cmd *cobra.Command, res *app.Result) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Wrote %s (%d bytes)\n", res.Path, res.Bytes)
	if res.ExportPath != "" {
		fmt.Fprintf(w, "Exported series to %s\n", res.ExportPath)
	}
	fmt.Fprint(w, formatSummary(res.Summary))
}
