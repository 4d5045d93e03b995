package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/ebookstudio/internal/api"
	"github.com/jackzampolin/ebookstudio/internal/home"
	"github.com/jackzampolin/ebookstudio/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
	debug        bool
)

var rootCmd = &cobra.Command{
	Use:   "studio",
	Short: "Turn a manuscript into an illustrated ebook",
	Long: `eBook Studio turns a manuscript and its table of contents into a
structured ebook, then walks through generating and approving the
artwork for it.

The workflow includes:
  - Chapter segmentation driven by the table of contents
  - AI generated covers, backgrounds and chapter illustrations
  - Per-asset approval, upload and regeneration
  - JSON export of the finished document`,
	Version:       version.GitRelease,
	SilenceUsage:  true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.ebookstudio/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "studio home directory (default: ~/.ebookstudio)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", string(api.DefaultOutput), "output format: yaml, json or text",
	)
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	// Set output format before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
}

// getHome returns the home directory, creating it if needed.
func getHome() (*home.Dir, error) {
	h, err := home.New(homeDir)
	if err != nil {
		return nil, err
	}
	if err := h.EnsureExists(); err != nil {
		return nil, fmt.Errorf("failed to create home directory: %w", err)
	}
	return h, nil
}

// configPath prefers --config, then the home config if one was written.
func configPath(h *home.Dir) string {
	if cfgFile != "" {
		return cfgFile
	}
	if h.ConfigExists() {
		return h.ConfigPath()
	}
	return ""
}
