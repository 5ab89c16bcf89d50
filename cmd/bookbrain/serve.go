package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/alexmercer/bookbrain/internal/config"
	"github.com/alexmercer/bookbrain/internal/home"
	"github.com/alexmercer/bookbrain/internal/server"
)

var (
	serveHost string
	servePort string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the bookbrain server",
	Long: `Start the bookbrain HTTP/WebSocket server.

The server connects to Postgres and Redis, applies the schema, starts the
pipeline coordinator's worker pools and the orchestrator's background
scan, and serves the full books/library/search/chat/feed/topics API.

Examples:
  bookbrain serve                    # Start on default port 8080
  bookbrain serve --port 3000        # Start on custom port
  bookbrain serve --host 0.0.0.0     # Bind to all interfaces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: GetLogLevel(),
		}))

		h, err := home.New(homeDir)
		if err != nil {
			return err
		}
		if err := h.EnsureExists(); err != nil {
			return err
		}

		// Load configuration. Priority: --config flag > ./config.yaml > ~/.bookbrain/config.yaml
		configFile := cfgFile
		if configFile == "" {
			if _, err := os.Stat("config.yaml"); err == nil {
				configFile = "config.yaml"
			} else {
				configFile = filepath.Join(h.Path(), "config.yaml")
			}
		}

		if _, err := os.Stat(configFile); os.IsNotExist(err) {
			logger.Info("creating default config", "path", configFile)
			if err := config.WriteDefault(configFile); err != nil {
				logger.Warn("failed to write default config", "error", err)
			}
		}
		cfgMgr, err := config.NewManager(configFile)
		if err != nil {
			return err
		}
		cfgMgr.WatchConfig()
		logger.Info("configuration loaded", "file", configFile)

		srv, err := server.New(server.Config{
			Host:          serveHost,
			Port:          servePort,
			ConfigManager: cfgMgr,
			Logger:        logger,
			Home:          h,
		})
		if err != nil {
			return err
		}

		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "Host to bind to")
	serveCmd.Flags().StringVar(&servePort, "port", "8080", "Port to listen on")

	rootCmd.AddCommand(serveCmd)
}
