package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/musicreward/musicreward/internal/lookup"
	mrmcp "github.com/musicreward/musicreward/internal/mcp"
	"github.com/musicreward/musicreward/internal/service"
)

func newMCPCmd() *cobra.Command {
	var (
		transport string
		port      int
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server for AI agents",
		Long: `Start a Model Context Protocol (MCP) server that exposes music search, charts,
song details and the featured catalog as read-only tools. Supports stdio
(default) and Streamable HTTP transports.`,
		Example: `  musicreward mcp                            # stdio mode
  musicreward mcp --transport http --port 3001  # HTTP mode`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMCP(cmd, transport, port)
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "stdio", "Transport mode: stdio or http")
	cmd.Flags().IntVar(&port, "port", 3001, "HTTP port (only used with --transport http)")

	return cmd
}

func runMCP(cmd *cobra.Command, transport string, port int) error {
	if transport != "stdio" && transport != "http" {
		return fmt.Errorf("unsupported transport %q; use 'stdio' or 'http'", transport)
	}

	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	// stdout carries the protocol in stdio mode, so logs go to stderr.
	logger := newLogger(cfg.Log, false)

	st, err := openStore(context.Background(), cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	catalog := service.NewCatalogService(st)
	l := lookup.New(catalog, newUpstream(cfg.YouTube, logger), cfg.YouTube.Region, logger)
	mcpSrv := mrmcp.NewMCPServer(l, catalog, versionString(), logger)

	if transport == "http" {
		return mcpSrv.ServeHTTP(fmt.Sprintf(":%d", port))
	}
	return mcpSrv.ServeStdio()
}
