package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	mcpadapter "github.com/formwork-dev/formwork/pkg/adapters/mcp"
	"github.com/formwork-dev/formwork/pkg/session"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts the session manager as an MCP server, so agents can drive
forms as tools: create sessions, set fields, inspect errors, submit.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	Run: func(cmd *cobra.Command, args []string) {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")
		logger := newLogger(cmd)

		sessions := session.NewManager(session.WithLogger(logger))
		srv := mcpadapter.NewServer(sessions, mcpadapter.WithLogger(logger))

		switch transport {
		case "stdio":
			// Ensure logs don't corrupt JSON-RPC on Stdout
			log.SetOutput(os.Stderr)
			logger.Info("starting formwork MCP server (stdio)")
			if err := srv.ServeStdio(); err != nil {
				logger.Error("MCP server execution failed", "err", err)
				os.Exit(1)
			}
		case "sse":
			logger.Info("starting formwork MCP server (SSE)", "port", port)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := srv.ServeSSE(ctx, port); err != nil {
				if err != http.ErrServerClosed {
					logger.Error("MCP server execution failed", "err", err)
					os.Exit(1)
				}
			}
			logger.Info("MCP server stopped gracefully")
		default:
			log.Fatalf("Unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (only for SSE)")
}
