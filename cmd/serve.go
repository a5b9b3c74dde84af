package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"anybridge/internal/rest"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST front door",
	Long: `Starts the HTTP server exposing the upstream API through REST
routes. Requests authenticate with a bearer API key obtained via
'anybridge get-api-key' or the /v1/auth endpoints.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, validator := buildClient(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := rest.NewServer(cfg.REST, client, validator)
	return server.Run(ctx)
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
