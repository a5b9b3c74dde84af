package cmd

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var apiKeyCmd = &cobra.Command{
	Use:   "get-api-key",
	Short: "Obtain an API key via the pairing challenge",
	Long: `Walks through the two-step pairing flow: starts a challenge, which
makes the Anytype application display a 4-digit code, then exchanges
the code you enter for a long-lived API key. The application must be
running locally.`,
	RunE: runGetAPIKey,
}

func runGetAPIKey(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, _ := buildClient(cfg)
	ctx := context.Background()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Requesting pairing challenge from %s...\n", cfg.Upstream.BaseURL)

	challengeID, err := client.StartChallenge(ctx, cfg.Upstream.AppName)
	if err != nil {
		return fmt.Errorf("start challenge: %w", err)
	}

	fmt.Fprintln(out, "A 4-digit code should now be visible in the Anytype application.")
	fmt.Fprint(out, "Enter the code: ")

	reader := bufio.NewReader(cmd.InOrStdin())
	code, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("read code: %w", err)
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return fmt.Errorf("no code entered")
	}

	key, err := client.ExchangeChallenge(ctx, challengeID, code)
	if err != nil {
		return fmt.Errorf("exchange code for API key: %w", err)
	}

	fmt.Fprintf(out, "\nAPI key: %s\n", key)
	fmt.Fprintln(out, "Store it as ANYTYPE_API_KEY in your environment or as upstream.apiKey in config.yaml.")
	return nil
}

func init() {
	rootCmd.AddCommand(apiKeyCmd)
}
