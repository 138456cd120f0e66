package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"telemetry-rx/internal/capture"
	"telemetry-rx/internal/config"
	"telemetry-rx/internal/indicator"
	"telemetry-rx/internal/ingest"
	"telemetry-rx/internal/linesource"
	"telemetry-rx/internal/metrics"
	"telemetry-rx/internal/serial"
	"telemetry-rx/internal/telemetry"
)

type runOptions struct {
	*rootOptions
	SortBy string
}

func newRunCommand(root *rootOptions) *cobra.Command {
	opts := &runOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Ingest telemetry until the stream ends or the process is interrupted",
		Long: `Read tagged lines (Acc:, Alt:, Lat:, Lng:) from the configured source,
store the readings and, once the stream ends, print the stored counts and the
coordinates in ascending order.

Examples:
  telemetry-rx run --config ./telemetry-rx.yaml
  telemetry-rx run --sort-by longitude --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.SortBy, "sort-by", "", "coordinate sort key (latitude|longitude); overrides query.sort_by")
	return cmd
}

// closingSource pairs a line source with the device it reads from.
type closingSource struct {
	linesource.Source
	io.Closer
}

func runIngest(cmd *cobra.Command, opts *runOptions) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}
	logger := newLogger(cmd.ErrOrStderr(), cfg.Log)

	sortBy := cfg.Query.SortBy
	if opts.SortBy != "" {
		sortBy = opts.SortBy
	}
	key, err := telemetry.ParseSortKey(sortBy)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	if err != nil {
		return err
	}

	var led indicator.Indicator = indicator.Nop{}
	if cfg.Indicator.Enable {
		l, err := indicator.Open(cfg.Indicator.GPIOPin)
		if err != nil {
			// The light is cosmetic; keep ingesting without it.
			logger.Warn("indicator disabled", "gpio_pin", cfg.Indicator.GPIOPin, "error", err)
		} else {
			led = l
		}
	}

	store := telemetry.NewStore()
	svc, err := ingest.New(store, ingest.Options{Logger: logger, Metrics: m, Indicator: led})
	if err != nil {
		return err
	}
	defer svc.Close()

	src, err := openSource(cfg, svc, logger)
	if err != nil {
		return err
	}

	logger.Info("telemetry-rx starting", "source", cfg.Source.Kind)
	if err := svc.Start(ctx, src); err != nil {
		return err
	}

	select {
	case <-svc.Done():
	case <-ctx.Done():
		logger.Info("telemetry-rx stopping")
	}
	svc.Close()

	if samples, err := metrics.Summary(reg); err == nil {
		for _, s := range samples {
			logger.Info("metric", "name", s.Name, "value", s.Value)
		}
	}

	if err := printReport(cmd.OutOrStdout(), opts.Format, store, svc.Snapshot(), key); err != nil {
		return err
	}

	if runErr := svc.Err(); runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

func openSource(cfg config.Config, svc *ingest.Service, logger *slog.Logger) (linesource.Source, error) {
	switch cfg.Source.Kind {
	case config.SourceReplay:
		recs, err := capture.ReadFile(cfg.Source.Replay.Path)
		if err != nil {
			return nil, fmt.Errorf("replay load failed: %w", err)
		}
		p, err := capture.NewPlayer(recs, cfg.Source.Replay.Speed, cfg.Source.Replay.Loop, nil)
		if err != nil {
			return nil, fmt.Errorf("replay init failed: %w", err)
		}
		// A new segment is a new session; never join across it.
		p.OnSegment = svc.ResetPending
		logger.Info("replay enabled", "path", cfg.Source.Replay.Path, "speed", cfg.Source.Replay.Speed, "loop", cfg.Source.Replay.Loop)
		return p, nil

	default:
		port, err := serial.Open(serial.Config{Device: cfg.Source.Serial.Device, Baud: cfg.Source.Serial.Baud})
		if err != nil {
			return nil, err
		}
		logger.Info("serial enabled", "device", port.Device(), "baud", port.Baud())
		var src linesource.Source = closingSource{
			Source: linesource.NewReaderSource(port, cfg.Source.Serial.MaxLineBytes),
			Closer: port,
		}
		if cfg.Record.Enable {
			w, err := capture.CreateWriter(cfg.Record.Path)
			if err != nil {
				_ = port.Close()
				return nil, fmt.Errorf("record init failed: %w", err)
			}
			logger.Info("recording enabled", "path", cfg.Record.Path)
			src = capture.NewTee(src, w)
		}
		return src, nil
	}
}

type report struct {
	Counts      telemetry.Counts       `json:"counts"`
	SortBy      string                 `json:"sort_by"`
	Coordinates []telemetry.Coordinate `json:"coordinates"`
	Ingest      ingest.Snapshot        `json:"ingest"`
}

func printReport(w io.Writer, format string, store *telemetry.Store, snap ingest.Snapshot, key telemetry.SortKey) error {
	r := report{
		Counts:      store.Counts(),
		SortBy:      key.String(),
		Coordinates: store.SortedCoordinates(key),
		Ingest:      snap,
	}
	if r.Coordinates == nil {
		r.Coordinates = []telemetry.Coordinate{}
	}
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}

	fmt.Fprintf(w, "lines: %d\n", snap.Lines)
	fmt.Fprintf(w, "parse_errors: %d\n", snap.ParseErrors)
	fmt.Fprintf(w, "unrecognized: %d\n", snap.Unrecognized)
	fmt.Fprintf(w, "dropped: %d\n", snap.Dropped)
	fmt.Fprintf(w, "acceleration: %d\n", r.Counts.Acceleration)
	fmt.Fprintf(w, "altitude: %d\n", r.Counts.Altitude)
	fmt.Fprintf(w, "coordinates: %d\n", r.Counts.Coordinates)
	fmt.Fprintf(w, "sorted by %s:\n", r.SortBy)
	for _, c := range r.Coordinates {
		fmt.Fprintf(w, "  %s\n", c)
	}
	return nil
}
