package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/i474232898/covid19-stats/internal/covid"
)

// DefaultJHUBaseURL is the JHU CSSE time series directory on GitHub.
const DefaultJHUBaseURL = "https://raw.githubusercontent.com/CSSEGISandData/COVID-19/master/csse_covid_19_data/csse_covid_19_time_series"

// JHUProvider implements the covid.Fetcher interface for the JHU CSSE CSV files.
type JHUProvider struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
	log     zerolog.Logger
}

// NewJHUProvider creates a provider downloading from baseURL, or the public
// JHU directory when baseURL is empty.
func NewJHUProvider(client *http.Client, baseURL string, log zerolog.Logger) *JHUProvider {
	if baseURL == "" {
		baseURL = DefaultJHUBaseURL
	}

	return &JHUProvider{
		name:    "jhu-csse",
		baseURL: strings.TrimRight(baseURL, "/"),
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: DefaultBackoff,
		},
		circuit: newBreaker("jhu-csse"),
		log:     log.With().Str("component", "providers").Str("provider", "jhu-csse").Logger(),
	}
}

// WithBackoff overrides the retry policy.
func (p *JHUProvider) WithBackoff(b BackoffConfig) *JHUProvider {
	p.httpCfg.Backoff = b
	return p
}

func (p *JHUProvider) Name() string {
	return p.name
}

// Fetch downloads all five tables concurrently. Any failed download fails the fetch.
func (p *JHUProvider) Fetch(ctx context.Context) (covid.RawDataset, error) {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		ds   covid.RawDataset
		errs []error
	)

	for _, tf := range tableFiles {
		tf := tf
		wg.Add(1)
		go func() {
			defer wg.Done()

			table, err := p.fetchTable(ctx, tf.file)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", tf.name, err))
				return
			}
			tf.set(&ds, table)
		}()
	}

	wg.Wait()

	if len(errs) > 0 {
		return covid.RawDataset{}, errors.Join(errs...)
	}
	return ds, nil
}

func (p *JHUProvider) fetchTable(ctx context.Context, file string) (*covid.RawTable, error) {
	buildRequest := func() (*http.Request, error) {
		u := fmt.Sprintf("%s/%s", p.baseURL, file)
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, p.log, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	table, err := readCSV(resp.Body)
	if err != nil {
		return nil, err
	}

	p.log.Debug().Str("file", file).Int("rows", len(table.Rows)).Msg("downloaded upstream table")
	return table, nil
}
