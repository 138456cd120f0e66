package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"telemetry-rx/internal/config"
)

type rootOptions struct {
	ConfigPath string
	Format     string // "text" | "json"
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "telemetry-rx",
		Short: "Receive tagged sensor telemetry from a serial device",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.Format != "text" && opts.Format != "json" {
				return fmt.Errorf("invalid format %q: must be text or json", opts.Format)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "./telemetry-rx.yaml", "path to YAML config")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json)")

	cmd.AddCommand(newRunCommand(opts))
	cmd.AddCommand(newSummaryCommand(opts))
	return cmd
}

func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	hopts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, hopts))
	}
	return slog.New(slog.NewTextHandler(w, hopts))
}
