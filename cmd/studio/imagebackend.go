package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/ebookstudio/internal/config"
	"github.com/jackzampolin/ebookstudio/internal/imagebackend"
)

var imageBackendCmd = &cobra.Command{
	Use:     "image-backend",
	Aliases: []string{"ib"},
	Short:   "Manage the image generation container",
	Long: `Manage the image generation container lifecycle.

The container serves POST /generate for covers, backgrounds and chapter
illustrations. Downloaded model weights are cached on the host so a
removed container starts quickly next time.

Examples:
  studio image-backend start   # Create and start the container
  studio image-backend stop    # Stop the container
  studio image-backend status  # Check container status
  studio image-backend logs    # View container logs`,
}

var imageBackendStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the image generation container",
	Long: `Start the image generation container.

If the container doesn't exist, it will be created and started.
If it exists but is stopped, it will be started.
If it's already running, this is a no-op.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		mgr, err := getImageBackendManager()
		if err != nil {
			return err
		}
		defer mgr.Close()

		fmt.Println("Starting image backend...")
		if err := mgr.Start(ctx); err != nil {
			return fmt.Errorf("failed to start image backend: %w", err)
		}

		fmt.Printf("Image backend is running at %s\n", mgr.BaseURL())
		return nil
	},
}

var imageBackendStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the image generation container",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		mgr, err := getImageBackendManager()
		if err != nil {
			return err
		}
		defer mgr.Close()

		fmt.Println("Stopping image backend...")
		if err := mgr.Stop(ctx); err != nil {
			return fmt.Errorf("failed to stop image backend: %w", err)
		}

		fmt.Println("Image backend stopped")
		return nil
	},
}

var imageBackendStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show image generation container status",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		mgr, err := getImageBackendManager()
		if err != nil {
			return err
		}
		defer mgr.Close()

		status, err := mgr.Status(ctx)
		if err != nil {
			return fmt.Errorf("failed to get status: %w", err)
		}

		switch status {
		case imagebackend.StatusRunning:
			fmt.Printf("Status: %s\n", status)
			fmt.Printf("URL: %s\n", mgr.GenerateURL())

			probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			if err := mgr.WaitReady(probeCtx); err != nil {
				fmt.Printf("Health: unhealthy (%v)\n", err)
			} else {
				fmt.Println("Health: healthy")
			}
		case imagebackend.StatusStopped:
			fmt.Printf("Status: %s (use 'studio image-backend start' to start)\n", status)
		case imagebackend.StatusNotFound:
			fmt.Printf("Status: %s (use 'studio image-backend start' to create)\n", status)
		default:
			fmt.Printf("Status: %s\n", status)
		}

		return nil
	},
}

var logsTail string

var imageBackendLogsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show image generation container logs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		mgr, err := getImageBackendManager()
		if err != nil {
			return err
		}
		defer mgr.Close()

		logs, err := mgr.Logs(ctx, logsTail)
		if err != nil {
			return fmt.Errorf("failed to get logs: %w", err)
		}

		fmt.Print(logs)
		return nil
	},
}

var imageBackendRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove the image generation container",
	Long: `Stop and remove the image generation container.

The model cache directory is NOT deleted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		mgr, err := getImageBackendManager()
		if err != nil {
			return err
		}
		defer mgr.Close()

		fmt.Println("Removing image backend container...")
		if err := mgr.Remove(ctx); err != nil {
			return fmt.Errorf("failed to remove container: %w", err)
		}

		fmt.Println("Image backend container removed (model cache preserved)")
		return nil
	},
}

var imageBackendWaitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Wait for the image backend to be ready",
	Long: `Wait for the image backend to accept requests.

This is useful in scripts to ensure the model is loaded before
generating images.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		timeout, _ := cmd.Flags().GetDuration("timeout")
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		mgr, err := getImageBackendManager()
		if err != nil {
			return err
		}
		defer mgr.Close()

		fmt.Printf("Waiting for image backend (timeout: %s)...\n", timeout)
		if err := mgr.WaitReady(ctx); err != nil {
			return fmt.Errorf("image backend not ready: %w", err)
		}

		fmt.Println("Image backend is ready")
		return nil
	},
}

func init() {
	imageBackendCmd.AddCommand(imageBackendStartCmd)
	imageBackendCmd.AddCommand(imageBackendStopCmd)
	imageBackendCmd.AddCommand(imageBackendStatusCmd)
	imageBackendCmd.AddCommand(imageBackendLogsCmd)
	imageBackendCmd.AddCommand(imageBackendRemoveCmd)
	imageBackendCmd.AddCommand(imageBackendWaitCmd)

	imageBackendLogsCmd.Flags().StringVar(&logsTail, "tail", "100", "Number of lines to show from the end")
	imageBackendWaitCmd.Flags().Duration("timeout", 5*time.Minute, "Timeout waiting for the image backend")

	rootCmd.AddCommand(imageBackendCmd)
}

// getImageBackendManager builds a Manager from the container settings in config.
func getImageBackendManager() (*imagebackend.Manager, error) {
	h, err := getHome()
	if err != nil {
		return nil, err
	}
	cm, err := config.NewManager(configPath(h))
	if err != nil {
		return nil, err
	}
	cfg := cm.Get().ImageBackend

	return imagebackend.NewManager(imagebackend.Config{
		ContainerName: cfg.ContainerName,
		Image:         cfg.Image,
		HostPort:      cfg.Port,
		CachePath:     cfg.CachePath,
		GPU:           cfg.GPU,
		Logger:        newLogger(),
	})
}
