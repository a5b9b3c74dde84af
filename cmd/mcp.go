package cmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"anybridge/internal/mcpserver"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP tool server on stdio",
	Long: `Starts the MCP server over standard input/output so an LLM agent
can call the upstream API as tools. Requires a configured API key
(ANYTYPE_API_KEY or config.yaml); tool calls carry no per-call token.`,
	RunE: runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Upstream.APIKey == "" {
		return errors.New("no API key configured, run 'anybridge get-api-key' first")
	}
	client, validator := buildClient(cfg)

	server := mcpserver.NewServer(cfg.MCP.ServerName, rootCmd.Version, client, validator)
	return server.Start(context.Background())
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
