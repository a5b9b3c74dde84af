package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"anybridge/internal/anytype"
	"anybridge/internal/config"
	"anybridge/internal/validate"
	"anybridge/pkg/logging"
)

var configPath string

// rootCmd is the entry point when the application is called without any
// subcommands.
var rootCmd = &cobra.Command{
	Use:   "anybridge",
	Short: "Bridge the Anytype local API to REST and MCP clients",
	Long: `anybridge exposes the Anytype application's local HTTP API through
two front doors: a REST API for regular clients and an MCP tool server
so LLM agents can work with spaces, objects, types and tags.`,
	// SilenceUsage keeps handled errors from re-printing the usage text.
	SilenceUsage: true,
}

// SetVersion sets the version for the root command. Called from main
// to inject the build-time version.
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute runs the root command.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "anybridge version %s\n" .Version}}`)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to the configuration directory (default: ~/.config/anybridge)")
}

// loadConfig resolves the config directory and loads the configuration,
// then initializes logging from it.
func loadConfig() (config.Config, error) {
	path := configPath
	if path == "" {
		var err error
		path, err = config.DefaultConfigPath()
		if err != nil {
			return config.Config{}, err
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("load configuration: %w", err)
	}

	logging.Init(logging.ParseLevel(cfg.LogLevel), os.Stderr)

	return cfg, nil
}

// buildClient constructs the domain client and type validator from the
// configuration.
func buildClient(cfg config.Config) (*anytype.Client, *validate.TypeValidator) {
	client := anytype.New(cfg.Upstream.BaseURL, cfg.Upstream.APIKey)
	return client, validate.NewTypeValidator(client)
}
