package main

import (
	"fmt"

	"github.com/jkmcrg/diybot/internal/inventory"
	"github.com/jkmcrg/diybot/internal/server"
	"github.com/jkmcrg/diybot/internal/tools"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

func newMCPCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server (stdio transport)",
		Long: `Serves the inventory operations, prompts and resources over MCP on stdio.

Add to your MCP client config:

  {
    "mcpServers": {
      "diybot": {
        "command": "diybot",
        "args": ["mcp"]
      }
    }
  }`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg.Logging)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			app, cleanup, err := server.New(cfg, logger)
			if err != nil {
				return fmt.Errorf("creating app: %w", err)
			}
			defer cleanup()

			return mcpserver.ServeStdio(server.NewMCP(app))
		},
	}
}

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the tool-call catalog as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := tools.NewRouter(inventory.NewStore(), nil).SchemaJSON()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "diybot v%s\n", server.Version)
		},
	}
}
