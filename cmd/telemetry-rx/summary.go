package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"telemetry-rx/internal/capture"
)

func newSummaryCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "summary <capture>",
		Short: "Summarize a recorded capture file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printCaptureSummary(cmd.OutOrStdout(), root.Format, args[0])
		},
	}
}

func printCaptureSummary(w io.Writer, format, path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return fmt.Errorf("path is empty")
	}
	recs, err := capture.ReadFile(path)
	if err != nil {
		return err
	}
	s := capture.Summarize(recs)

	kinds := make(map[string]int, len(s.KindCounts))
	for k, n := range s.KindCounts {
		kinds[k.String()] = n
	}

	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"path":         path,
			"segments":     s.Segments,
			"lines":        s.Lines,
			"parse_errors": s.ParseErrors,
			"coordinates":  s.Coordinates,
			"max_duration": s.MaxDuration.String(),
			"kind_counts":  kinds,
		})
	}

	fmt.Fprintf(w, "path: %s\n", path)
	fmt.Fprintf(w, "segments: %d\n", s.Segments)
	fmt.Fprintf(w, "lines: %d\n", s.Lines)
	fmt.Fprintf(w, "parse_errors: %d\n", s.ParseErrors)
	fmt.Fprintf(w, "coordinates: %d\n", s.Coordinates)
	fmt.Fprintf(w, "max_duration: %s\n", s.MaxDuration)

	names := make([]string, 0, len(kinds))
	for k := range kinds {
		names = append(names, k)
	}
	sort.Strings(names)
	fmt.Fprintf(w, "kind_counts:\n")
	for _, k := range names {
		fmt.Fprintf(w, "  %s: %d\n", k, kinds[k])
	}
	return nil
}
