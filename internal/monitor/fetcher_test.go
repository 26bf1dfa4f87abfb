package monitor

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webnotifier/internal/common"
	"webnotifier/internal/config"
)

func newTestFetcher(cfg *config.MonitorConfig) *Fetcher {
	if cfg == nil {
		defaults := config.NewDefaultMonitorConfig()
		cfg = &defaults
	}
	return NewFetcher(&http.Client{}, zerolog.Nop(), cfg)
}

func TestFetcher_FetchPageContent_OK(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, config.DefaultUserAgent, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("ETag", `"v1"`)
		w.Header().Set("Last-Modified", "Mon, 02 Jan 2006 15:04:05 GMT")
		_, _ = w.Write([]byte("<html><body>hello</body></html>"))
	}))
	defer server.Close()

	fetcher := newTestFetcher(nil)
	result, err := fetcher.FetchPageContent(context.Background(), PageFetchInput{URL: server.URL})
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, http.StatusOK, result.HTTPStatusCode)
	assert.Equal(t, []byte("<html><body>hello</body></html>"), result.Content)
	assert.Equal(t, `"v1"`, result.ETag)
	assert.Equal(t, "Mon, 02 Jan 2006 15:04:05 GMT", result.LastModified)
	assert.Contains(t, result.ContentType, "text/html")
}

func TestFetcher_FetchPageContent_ConditionalHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, `"v1"`, r.Header.Get("If-None-Match"))
		assert.Equal(t, "Mon, 02 Jan 2006 15:04:05 GMT", r.Header.Get("If-Modified-Since"))
		w.WriteHeader(http.StatusNotModified)
	}))
	defer server.Close()

	fetcher := newTestFetcher(nil)
	result, err := fetcher.FetchPageContent(context.Background(), PageFetchInput{
		URL:                  server.URL,
		PreviousETag:         `"v1"`,
		PreviousLastModified: "Mon, 02 Jan 2006 15:04:05 GMT",
	})

	assert.ErrorIs(t, err, ErrNotModified)
	require.NotNil(t, result)
	assert.Equal(t, http.StatusNotModified, result.HTTPStatusCode)
}

func TestFetcher_FetchPageContent_DateHeaderFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// httptest's server sets a Date header automatically and we send
		// no Last-Modified.
		_, _ = w.Write([]byte("body"))
	}))
	defer server.Close()

	fetcher := newTestFetcher(nil)
	result, err := fetcher.FetchPageContent(context.Background(), PageFetchInput{URL: server.URL})
	require.NoError(t, err)

	assert.NotEmpty(t, result.LastModified, "Date header should stand in for Last-Modified")
}

func TestFetcher_FetchPageContent_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	fetcher := newTestFetcher(nil)
	_, err := fetcher.FetchPageContent(context.Background(), PageFetchInput{URL: server.URL})
	require.Error(t, err)

	var httpErr *common.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
}

func TestFetcher_FetchPageContent_ContentTooLarge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(make([]byte, 128))
	}))
	defer server.Close()

	cfg := config.NewDefaultMonitorConfig()
	cfg.MaxContentSize = 64
	fetcher := newTestFetcher(&cfg)

	_, err := fetcher.FetchPageContent(context.Background(), PageFetchInput{URL: server.URL})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "content too large")
}

func TestFetcher_FetchPageContent_NetworkError(t *testing.T) {
	fetcher := newTestFetcher(nil)
	_, err := fetcher.FetchPageContent(context.Background(), PageFetchInput{URL: "http://127.0.0.1:1"})
	require.Error(t, err)

	var netErr *common.NetworkError
	assert.True(t, errors.As(err, &netErr))
}

func TestFetcher_FetchPageContent_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	fetcher := newTestFetcher(nil)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := fetcher.FetchPageContent(ctx, PageFetchInput{URL: server.URL})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrTimeout)
}

func TestFetcher_FetchPageContent_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	fetcher := newTestFetcher(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fetcher.FetchPageContent(ctx, PageFetchInput{URL: server.URL})
	assert.Error(t, err)
}
