package agentgate

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/agentgate/agentgate/internal/mcpsrv"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run agentgate's servers",
}

var serveMCPCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP stdio server",
	Long: `Start an MCP (Model Context Protocol) server on stdio, exposing
select_intent, write_to_file, execute_command, and read_file as governed
tools. Configure an MCP-capable agent host with:

  {
    "mcpServers": {
      "agentgate": { "command": "agentgate", "args": ["serve", "mcp"] }
    }
  }`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := app.Start(ctx); err != nil {
			return fmt.Errorf("start: %w", err)
		}
		defer app.Stop()

		srv := mcpsrv.NewServer(app.Pipeline, app.Sessions, app.SelectIntent)
		return srv.ServeStdio(ctx)
	},
}

func init() {
	serveCmd.AddCommand(serveMCPCmd)
	rootCmd.AddCommand(serveCmd)
}
