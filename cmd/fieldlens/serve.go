package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/fieldlens/fieldlens/internal/config"
	"github.com/fieldlens/fieldlens/internal/home"
	"github.com/fieldlens/fieldlens/internal/server"
)

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the fieldlens server",
	Long: `Start the fieldlens HTTP server.

The server loads provider credentials from the config file and watches it
for changes, so provider settings can be updated without a restart.

The server provides:
  - /health - Basic server health check
  - /ready  - Readiness check (session store and providers)
  - /api    - Session, extraction, and export endpoints

Examples:
  fieldlens serve                    # Start on default port 8385
  fieldlens serve --port 3000        # Start on custom port
  fieldlens serve --host 0.0.0.0     # Bind to all interfaces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// Set up logger
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))

		// Get home directory
		h, err := home.New(homeDir)
		if err != nil {
			return err
		}
		if err := h.EnsureExists(); err != nil {
			return err
		}

		// Seed a default config on first run so there is a file to edit
		cfgPath := cfgFile
		if cfgPath == "" {
			cfgPath = h.ConfigPath()
			if !h.ConfigExists() {
				if err := config.WriteDefault(cfgPath); err != nil {
					return err
				}
				logger.Info("wrote default config", "path", cfgPath)
			}
		}

		cm, err := config.NewManager(cfgPath)
		if err != nil {
			return err
		}
		cm.WatchConfig()

		// Flags win over config for the bind address
		appCfg := cm.Get()
		host := serveHost
		if !cmd.Flags().Changed("host") && appCfg.Server.Host != "" {
			host = appCfg.Server.Host
		}
		port := servePort
		if !cmd.Flags().Changed("port") && appCfg.Server.Port != 0 {
			port = appCfg.Server.Port
		}

		// Create server
		srv, err := server.New(server.Config{
			Host:          host,
			Port:          port,
			Home:          h,
			ConfigManager: cm,
			Logger:        logger,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "Host to bind to")
	serveCmd.Flags().IntVar(&servePort, "port", 8385, "Port to listen on")

	rootCmd.AddCommand(serveCmd)
}
