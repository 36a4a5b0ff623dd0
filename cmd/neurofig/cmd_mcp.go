package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nvandessel/neurofig/internal/mcp"
)

func newMCPServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp-server",
		Short: "Serve figure rendering over MCP on stdio",
		Long: `Run a Model Context Protocol server on stdin/stdout.

Tools:
  neurofig_list     list figures, groups and parameters
  neurofig_render   render a figure under the project root
  neurofig_history  list recent renders

Files are only written below --root. Logs go to stderr.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := projectRoot(cmd)
			if err != nil {
				return err
			}
			cfg, err := loadSettings(cmd, root)
			if err != nil {
				return err
			}
			// Never open a viewer from a headless server.
			cfg.Display.Show = false

			server, err := mcp.NewServer(&mcp.Config{
				Name:     "neurofig",
				Version:  version,
				Root:     root,
				Settings: cfg,
				Logger:   newLogger(cmd, cfg),
			})
			if err != nil {
				return fmt.Errorf("failed to start MCP server: %w", err)
			}
			return server.Run(cmd.Context())
		},
	}
}
