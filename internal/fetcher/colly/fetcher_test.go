package collyfetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pricewatch/pricewatch/internal/fetcher"
)

func TestFetchReturnsPage(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "yes", r.Header.Get("X-Trace"))
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><span class="price">$9.99</span></body></html>`))
	}))
	defer srv.Close()

	f := New(Config{UserAgent: "pricewatch-test", Timeout: 5 * time.Second})
	locator := srv.URL + "/item/42"
	resp, err := f.Fetch(context.Background(), fetcher.PageRequest{
		Locator: locator,
		Headers: http.Header{"X-Trace": {"yes"}},
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(resp.Body), "$9.99")
	require.Equal(t, locator, resp.URL)
	require.Greater(t, resp.Duration, time.Duration(0))
}

func TestFetchPropagatesServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := New(Config{Timeout: 5 * time.Second})
	_, err := f.Fetch(context.Background(), fetcher.PageRequest{Locator: srv.URL})
	require.Error(t, err)
}

func TestFetchCanceledContext(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		close(started)
		<-release
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	f := New(Config{Timeout: 30 * time.Second})
	_, err := f.Fetch(ctx, fetcher.PageRequest{Locator: srv.URL})
	require.Error(t, err)
	require.ErrorIs(t, err, context.Canceled)
}

func TestBuildCollectorAppliesConfig(t *testing.T) {
	t.Parallel()

	f := New(Config{UserAgent: "coverage-agent", RespectRobots: true, Timeout: time.Second})
	var result fetcher.PageResponse
	var fetchErr error
	collector := f.buildCollector(fetcher.PageRequest{Locator: "https://example.com"}, time.Now(), &result, &fetchErr)

	require.Equal(t, "coverage-agent", collector.UserAgent)
	require.False(t, collector.IgnoreRobotsTxt)
}
