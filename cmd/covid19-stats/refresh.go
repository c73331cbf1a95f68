package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/i474232898/covid19-stats/internal/config"
	"github.com/i474232898/covid19-stats/internal/logger"
	"github.com/i474232898/covid19-stats/internal/store"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Run a single refresh cycle and print its report",
	Long: `Fetches the upstream tables once, builds a snapshot and prints the cycle
report as JSON. Exits non-zero when the cycle fails.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		log := logger.New(cfg.LogLevel, cfg.LogFormat)

		snapshots := store.NewSnapshotStore()
		refresher := newRefresher(cfg, newFetcher(cfg, log), snapshots, log)

		report, runErr := refresher.Run(cmd.Context())

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
		if runErr != nil {
			return fmt.Errorf("refresh failed: %w", runErr)
		}

		snap, err := snapshots.Current()
		if err != nil {
			return err
		}
		totals := snap.Totals()
		log.Info().
			Str("latest_date", snap.LatestDate()).
			Int64("confirmed", totals.Confirmed).
			Int64("deaths", totals.Deaths).
			Int64("recovered", totals.Recovered).
			Int64("active", totals.Active).
			Msg("snapshot built")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(refreshCmd)
}
