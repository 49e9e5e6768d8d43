// flightgen produces sample telemetry CSV files for the dashboard: a clean
// mission profile and a deliberately dirty multi-subsystem fixture.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/qyrowren/flightdeck/internal/gen"
)

var (
	outPath string
	points  int
	seed    int64
	startAt string
)

func main() {
	root := &cobra.Command{
		Use:           "flightgen",
		Short:         "Generate sample flight telemetry CSV files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&outPath, "out", "o", "", "output file (default <command>.csv in the current directory)")
	root.PersistentFlags().IntVar(&points, "points", 0, "number of 1 Hz samples (default: command-specific)")
	root.PersistentFlags().Int64Var(&seed, "seed", 42, "RNG seed for reproducible output")
	root.PersistentFlags().StringVar(&startAt, "start", "", "timestamp of the first sample (RFC 3339, default now)")

	root.AddCommand(missionCmd(), industrialCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func missionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mission",
		Short: "Clean 5-hour ISR mission profile with orbit legs and three comm links",
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := parseStart()
			if err != nil {
				return err
			}
			d := gen.Mission(gen.MissionConfig{Points: points, Start: start, Seed: seed})
			return writeDataset(cmd, d, "mission.csv")
		},
	}
}

func industrialCmd() *cobra.Command {
	var redactedSpans, badTimestamps int

	cmd := &cobra.Command{
		Use:   "industrial",
		Short: "Multi-subsystem fixture with redacted spans and corrupt timestamps",
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := parseStart()
			if err != nil {
				return err
			}
			d := gen.Industrial(gen.IndustrialConfig{
				Points:        points,
				Start:         start,
				Seed:          seed,
				RedactedSpans: redactedSpans,
				BadTimestamps: badTimestamps,
			})
			return writeDataset(cmd, d, "industrial.csv")
		},
	}
	cmd.Flags().IntVar(&redactedSpans, "redacted-spans", 3, "classified data spans per redactable column")
	cmd.Flags().IntVar(&badTimestamps, "bad-timestamps", 25, "rows with a corrupted timestamp")
	return cmd
}

func parseStart() (time.Time, error) {
	if startAt == "" {
		return time.Time{}, nil
	}
	start, err := time.Parse(time.RFC3339, startAt)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --start value: %w", err)
	}
	return start, nil
}

func writeDataset(cmd *cobra.Command, d *gen.Dataset, defaultName string) error {
	path := outPath
	if path == "" {
		path = defaultName
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer f.Close()

	if err := d.WriteCSV(f); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rows to %s\n", len(d.Rows), path)
	return nil
}
