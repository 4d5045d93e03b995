package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/ebookstudio/internal/config"
	"github.com/jackzampolin/ebookstudio/internal/server"
)

var (
	serveHost          string
	servePort          string
	manageImageBackend bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the eBook Studio server",
	Long: `Start the eBook Studio HTTP server.

With --managed-image-backend (or image_backend.managed in config) the
server also starts the image generation container and stops it again
on shutdown (Ctrl+C or SIGTERM).

The server provides:
  - /health - Basic server health check
  - /status - Providers, image backend, document and wizard phase

Examples:
  studio serve                            # Start on default port 8080
  studio serve --port 3000                # Start on custom port
  studio serve --host 0.0.0.0             # Bind to all interfaces
  studio serve --managed-image-backend    # Run the image container too`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		logger := newLogger()

		h, err := getHome()
		if err != nil {
			return err
		}

		mgr, err := config.NewManager(configPath(h))
		if err != nil {
			return err
		}
		mgr.SetLogger(logger)
		if mgr.ConfigFile() != "" {
			mgr.WatchConfig()
		}

		srv, err := server.New(server.Config{
			Host:               serveHost,
			Port:               servePort,
			ConfigManager:      mgr,
			Home:               h,
			ManageImageBackend: manageImageBackend,
			Logger:             logger,
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
	serveCmd.Flags().StringVar(&servePort, "port", "8080", "Port to listen on")
	serveCmd.Flags().BoolVar(&manageImageBackend, "managed-image-backend", false, "Start and stop the image generation container with the server")

	rootCmd.AddCommand(serveCmd)
}
