package main

import (
	"os"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start the brushkit HTTP API.

The server will:
  - Load configuration from brushkit.yaml (or --config)
  - Or load configuration from BRUSHKIT_* environment variables
  - Open and migrate the preset database
  - Reload tool overrides when the config file changes or on SIGHUP

Environment variables:
  BRUSHKIT_DATABASE_DSN     - Database path (default: brushkit.db)
  BRUSHKIT_SERVER_HOST      - Listen host (default: 127.0.0.1)
  BRUSHKIT_SERVER_PORT      - Listen port (default: 8420)
  BRUSHKIT_LOG_LEVEL        - Log level: debug, info, warn, error
  BRUSHKIT_LOG_FORMAT       - Log format: json or console
  BRUSHKIT_METRICS_ENABLED  - Expose Prometheus metrics
  BRUSHKIT_CACHE_PRELOAD    - Pin built-in curve presets at startup

Examples:
  brushkit serve
  brushkit serve --config /etc/brushkit/brushkit.yaml`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := openApp(os.Stdout)
	if err != nil {
		return err
	}
	return a.Run()
}
