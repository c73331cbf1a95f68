package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "covid19-stats",
	Short: "COVID-19 statistics service backed by the JHU CSSE time series",
	Long: `Periodically downloads the JHU CSSE COVID-19 time series, builds an
immutable snapshot of per-country and worldwide figures, and serves it over HTTP.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
