package providers

import (
	"bytes"
	"context"
	"encoding/csv"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/i474232898/covid19-stats/internal/covid"
	"github.com/i474232898/covid19-stats/internal/covid/covidtest"
)

var fastBackoff = BackoffConfig{
	MaxRetries:      3,
	InitialInterval: time.Millisecond,
	MaxInterval:     5 * time.Millisecond,
}

func encodeCSV(t *testing.T, table *covid.RawTable) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	require.NoError(t, w.Write(table.Header))
	require.NoError(t, w.WriteAll(table.Rows))
	return buf.Bytes()
}

func fixtureFiles(t *testing.T) map[string][]byte {
	t.Helper()

	ds := covidtest.Dataset()
	return map[string][]byte{
		TableFile(covid.TableGlobalConfirmed): encodeCSV(t, ds.GlobalConfirmed),
		TableFile(covid.TableGlobalDeaths):    encodeCSV(t, ds.GlobalDeaths),
		TableFile(covid.TableGlobalRecovered): encodeCSV(t, ds.GlobalRecovered),
		TableFile(covid.TableUSConfirmed):     encodeCSV(t, ds.USConfirmed),
		TableFile(covid.TableUSDeaths):        encodeCSV(t, ds.USDeaths),
	}
}

func TestJHUProviderFetch(t *testing.T) {
	files := fixtureFiles(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := files[strings.TrimPrefix(r.URL.Path, "/series/")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	p := NewJHUProvider(srv.Client(), srv.URL+"/series/", zerolog.Nop()).WithBackoff(fastBackoff)
	ds, err := p.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "jhu-csse", p.Name())
	assert.Equal(t, covidtest.GlobalConfirmed(), ds.GlobalConfirmed)
	assert.Equal(t, covidtest.USDeaths(), ds.USDeaths)
	require.NotNil(t, ds.GlobalRecovered)
	require.NotNil(t, ds.USConfirmed)
}

func TestJHUProviderDefaultsBaseURL(t *testing.T) {
	p := NewJHUProvider(http.DefaultClient, "", zerolog.Nop())
	assert.Equal(t, DefaultJHUBaseURL, p.baseURL)
}

func TestJHUProviderRetriesServerErrors(t *testing.T) {
	files := fixtureFiles(t)
	flaky := TableFile(covid.TableGlobalDeaths)
	var flakyHits atomic.Int64

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/")
		if name == flaky && flakyHits.Inc() <= 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write(files[name])
	}))
	defer srv.Close()

	p := NewJHUProvider(srv.Client(), srv.URL, zerolog.Nop()).WithBackoff(fastBackoff)
	ds, err := p.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(3), flakyHits.Load())
	assert.Equal(t, covidtest.GlobalDeaths(), ds.GlobalDeaths)
}

func TestJHUProviderDoesNotRetryClientErrors(t *testing.T) {
	files := fixtureFiles(t)
	missing := TableFile(covid.TableUSDeaths)
	var missingHits atomic.Int64

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/")
		if name == missing {
			missingHits.Inc()
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(files[name])
	}))
	defer srv.Close()

	p := NewJHUProvider(srv.Client(), srv.URL, zerolog.Nop()).WithBackoff(fastBackoff)
	_, err := p.Fetch(context.Background())
	require.Error(t, err)

	assert.ErrorIs(t, err, errUnexpected)
	assert.Contains(t, err.Error(), covid.TableUSDeaths)
	assert.Equal(t, int64(1), missingHits.Load())
}

func TestJHUProviderHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	p := NewJHUProvider(srv.Client(), srv.URL, zerolog.Nop()).WithBackoff(BackoffConfig{
		MaxRetries:      100,
		InitialInterval: 20 * time.Millisecond,
		MaxInterval:     20 * time.Millisecond,
	})
	_, err := p.Fetch(ctx)
	require.Error(t, err)
}

func TestDirProvider(t *testing.T) {
	dir := t.TempDir()
	for name, body := range fixtureFiles(t) {
		if name == TableFile(covid.TableGlobalRecovered) {
			continue
		}
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), body, 0o644))
	}

	p := NewDirProvider(dir)
	ds, err := p.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "dir:"+dir, p.Name())
	assert.Equal(t, covidtest.GlobalConfirmed(), ds.GlobalConfirmed)
	assert.Nil(t, ds.GlobalRecovered)
	assert.NotNil(t, ds.USConfirmed)
}

func TestDirProviderRequiresConfirmed(t *testing.T) {
	_, err := NewDirProvider(t.TempDir()).Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), covid.TableGlobalConfirmed)
}

func TestReadCSV(t *testing.T) {
	table, err := readCSV(strings.NewReader("Country/Region,1/22/20\nItaly,1\nFrance\n\"Korea, South\",3\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"Country/Region", "1/22/20"}, table.Header)
	require.Len(t, table.Rows, 3)
	assert.Equal(t, []string{"France"}, table.Rows[1])
	assert.Equal(t, "Korea, South", table.Rows[2][0])

	_, err = readCSV(strings.NewReader(""))
	assert.Error(t, err)
}
