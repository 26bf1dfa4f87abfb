package monitor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webnotifier/internal/config"
	"webnotifier/internal/differ"
	"webnotifier/internal/models"
	"webnotifier/internal/notifier"
)

// memoryHistoryStore is an in-memory PageHistoryStore for tests.
type memoryHistoryStore struct {
	mu      sync.Mutex
	records map[string][]models.PageHistoryRecord
}

func newMemoryHistoryStore() *memoryHistoryStore {
	return &memoryHistoryStore{records: make(map[string][]models.PageHistoryRecord)}
}

func (m *memoryHistoryStore) GetLastKnownRecord(url string) (*models.PageHistoryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	history := m.records[url]
	if len(history) == 0 {
		return nil, models.ErrRecordNotFound
	}
	latest := history[len(history)-1]
	return &latest, nil
}

func (m *memoryHistoryStore) StorePageRecord(record models.PageHistoryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[record.URL] = append(m.records[record.URL], record)
	return nil
}

func (m *memoryHistoryStore) UpdateLatestValidators(url, etag, lastModified string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	history := m.records[url]
	if len(history) == 0 {
		return nil
	}
	history[len(history)-1].ETag = etag
	history[len(history)-1].LastModified = lastModified
	return nil
}

func (m *memoryHistoryStore) GetHistory(url string, limit int) ([]models.PageHistoryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records[url], nil
}

func (m *memoryHistoryStore) Close() error { return nil }

func newTestService(t *testing.T, store models.PageHistoryStore) *Service {
	t.Helper()
	monitorCfg := config.NewDefaultMonitorConfig()
	diffCfg := config.NewDefaultDiffConfig()
	contentDiffer, err := differ.NewContentDiffer(zerolog.Nop(), &diffCfg)
	require.NoError(t, err)

	helper := notifier.NewNotificationHelper(nil, config.NewDefaultNotificationConfig(), diffCfg.ContextLines, zerolog.Nop())
	return NewService(&monitorCfg, store, zerolog.Nop(), helper, &http.Client{}, contentDiffer)
}

func TestService_WatchListManagement(t *testing.T) {
	svc := newTestService(t, newMemoryHistoryStore())

	svc.AddTargetURL("https://example.com/a")
	svc.AddTargetURL("https://example.com/a")
	svc.AddTargetURL("https://example.com/b")
	svc.AddTargetURL("")

	assert.ElementsMatch(t, []string{"https://example.com/a", "https://example.com/b"}, svc.GetWatchedURLs())

	svc.RemoveTargetURL("https://example.com/a")
	assert.Equal(t, []string{"https://example.com/b"}, svc.GetWatchedURLs())
}

func TestService_CheckURL_FirstObservation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><head><title>First</title></head><body>v1</body></html>"))
	}))
	defer server.Close()

	store := newMemoryHistoryStore()
	svc := newTestService(t, store)

	svc.checkURL(context.Background(), server.URL)

	record, err := store.GetLastKnownRecord(server.URL)
	require.NoError(t, err)
	assert.Equal(t, "First", record.Title)
	assert.NotEmpty(t, record.Hash)
	assert.ElementsMatch(t, []string{server.URL}, svc.cycleTracker.GetChangedURLs())
}

func TestService_CheckURL_UnchangedContent(t *testing.T) {
	body := []byte("stable content")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(body)
	}))
	defer server.Close()

	store := newMemoryHistoryStore()
	svc := newTestService(t, store)

	svc.checkURL(context.Background(), server.URL)
	svc.cycleTracker.StartCycle()
	svc.checkURL(context.Background(), server.URL)

	history, err := store.GetHistory(server.URL, 10)
	require.NoError(t, err)
	assert.Len(t, history, 1, "unchanged content is not stored again")
	assert.Empty(t, svc.cycleTracker.GetChangedURLs())
}

func TestService_CheckURL_ChangedContent(t *testing.T) {
	var mu sync.Mutex
	body := "version one\n"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		_, _ = w.Write([]byte(body))
	}))
	defer server.Close()

	store := newMemoryHistoryStore()
	svc := newTestService(t, store)

	svc.checkURL(context.Background(), server.URL)

	mu.Lock()
	body = "version two\n"
	mu.Unlock()

	svc.cycleTracker.StartCycle()
	svc.checkURL(context.Background(), server.URL)

	history, err := store.GetHistory(server.URL, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.NotEqual(t, history[0].Hash, history[1].Hash)
	assert.ElementsMatch(t, []string{server.URL}, svc.cycleTracker.GetChangedURLs())
}

func TestService_CheckURL_UnchangedContentRefreshesValidators(t *testing.T) {
	var mu sync.Mutex
	lastModified := "Mon, 02 Jan 2006 15:04:05 GMT"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		w.Header().Set("Last-Modified", lastModified)
		_, _ = w.Write([]byte("same body forever"))
	}))
	defer server.Close()

	store := newMemoryHistoryStore()
	svc := newTestService(t, store)

	svc.checkURL(context.Background(), server.URL)

	// The server is touched: Last-Modified advances, body stays identical.
	mu.Lock()
	lastModified = "Tue, 03 Jan 2006 15:04:05 GMT"
	mu.Unlock()

	svc.checkURL(context.Background(), server.URL)

	record, err := store.GetLastKnownRecord(server.URL)
	require.NoError(t, err)
	assert.Equal(t, "Tue, 03 Jan 2006 15:04:05 GMT", record.LastModified,
		"stored validator follows the response so the next request can 304")

	history, err := store.GetHistory(server.URL, 10)
	require.NoError(t, err)
	assert.Len(t, history, 1, "no new version row for an unchanged body")
}

func TestService_CheckURL_NotModified(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		_, _ = w.Write([]byte("cached content"))
	}))
	defer server.Close()

	store := newMemoryHistoryStore()
	svc := newTestService(t, store)

	svc.checkURL(context.Background(), server.URL)
	svc.checkURL(context.Background(), server.URL)

	history, err := store.GetHistory(server.URL, 10)
	require.NoError(t, err)
	assert.Len(t, history, 1, "a 304 response stores nothing new")
}

func TestService_CheckURL_FetchError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	store := newMemoryHistoryStore()
	svc := newTestService(t, store)

	svc.checkURL(context.Background(), server.URL)

	_, err := store.GetLastKnownRecord(server.URL)
	assert.ErrorIs(t, err, models.ErrRecordNotFound, "failed fetches store nothing")
	assert.Empty(t, svc.cycleTracker.GetChangedURLs())
}

func TestService_DiffAgainstPrevious_NoStoredContent(t *testing.T) {
	svc := newTestService(t, newMemoryHistoryStore())

	last := &models.PageHistoryRecord{URL: "u", Hash: "old"}
	update := &models.PageUpdate{URL: "u", NewHash: "new", Content: []byte("current")}

	assert.Nil(t, svc.diffAgainstPrevious(last, update))
}
