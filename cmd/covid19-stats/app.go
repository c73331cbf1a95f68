package main

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/i474232898/covid19-stats/internal/config"
	"github.com/i474232898/covid19-stats/internal/covid"
	"github.com/i474232898/covid19-stats/internal/covid/providers"
)

// newFetcher picks the upstream source: a local directory when DATA_DIR is
// set, the JHU CSSE HTTP endpoint otherwise.
func newFetcher(cfg *config.AppConfig, log zerolog.Logger) covid.Fetcher {
	if cfg.DataDir != "" {
		return providers.NewDirProvider(cfg.DataDir)
	}

	// Shared HTTP client for outbound upstream calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}
	return providers.NewJHUProvider(httpClient, cfg.UpstreamBaseURL, log)
}

func newRefresher(cfg *config.AppConfig, fetcher covid.Fetcher, store covid.SnapshotStore, log zerolog.Logger) *covid.Refresher {
	return covid.NewRefresher(
		fetcher,
		store,
		covid.DefaultISOTable(),
		covid.WithFetchTimeout(cfg.FetchTimeout),
		covid.WithLogger(log),
	)
}
