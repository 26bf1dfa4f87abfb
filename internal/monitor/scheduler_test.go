package monitor

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webnotifier/internal/config"
	"webnotifier/internal/differ"
	"webnotifier/internal/models"
	"webnotifier/internal/notifier"
)

func newSchedulerTestService(t *testing.T, monitorCfg config.MonitorConfig, store models.PageHistoryStore) *Service {
	t.Helper()
	diffCfg := config.NewDefaultDiffConfig()
	contentDiffer, err := differ.NewContentDiffer(zerolog.Nop(), &diffCfg)
	require.NoError(t, err)

	helper := notifier.NewNotificationHelper(nil, config.NewDefaultNotificationConfig(), diffCfg.ContextLines, zerolog.Nop())
	return NewService(&monitorCfg, store, zerolog.Nop(), helper, &http.Client{}, contentDiffer)
}

func TestScheduler_ImmediateFirstCycle(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("content"))
	}))
	defer server.Close()

	cfg := config.NewDefaultMonitorConfig()
	cfg.CheckIntervalSeconds = 3600 // only the immediate cycle should run
	cfg.MaxConcurrentChecks = 2

	svc := newSchedulerTestService(t, cfg, newMemoryHistoryStore())
	require.NoError(t, svc.Start([]string{server.URL}))

	assert.Eventually(t, func() bool { return hits.Load() >= 1 }, 2*time.Second, 10*time.Millisecond,
		"first cycle runs without waiting for the interval")

	svc.Stop()

	select {
	case <-svc.Done():
	default:
		t.Fatal("Done should be closed after Stop")
	}

	checked := hits.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, checked, hits.Load(), "no checks dispatched after Stop")
}

func TestScheduler_CycleLimitClosesDone(t *testing.T) {
	var mu sync.Mutex
	seenPaths := make(map[string]int)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seenPaths[r.URL.Path]++
		mu.Unlock()
		_, _ = w.Write([]byte("content for " + r.URL.Path))
	}))
	defer server.Close()

	cfg := config.NewDefaultMonitorConfig()
	cfg.CheckIntervalSeconds = 3600
	cfg.MaxConcurrentChecks = 2 // pool smaller than the watch list
	cfg.MaxCycles = 1

	urls := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		urls = append(urls, fmt.Sprintf("%s/page-%d", server.URL, i))
	}

	store := newMemoryHistoryStore()
	svc := newSchedulerTestService(t, cfg, store)
	require.NoError(t, svc.Start(urls))

	select {
	case <-svc.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not signal Done after exhausting its cycle limit")
	}

	svc.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, seenPaths, 5, "every watched URL is checked within the cycle")
	for path, count := range seenPaths {
		assert.Equal(t, 1, count, "URL %s checked exactly once", path)
	}
}

func TestScheduler_TickerRunsSubsequentCycles(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("content"))
	}))
	defer server.Close()

	cfg := config.NewDefaultMonitorConfig()
	cfg.CheckIntervalSeconds = 1
	cfg.MaxCycles = 2

	svc := newSchedulerTestService(t, cfg, newMemoryHistoryStore())
	require.NoError(t, svc.Start([]string{server.URL}))

	select {
	case <-svc.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("second cycle never ran")
	}

	svc.Stop()
	assert.GreaterOrEqual(t, hits.Load(), int32(2), "both cycles fetched the page")
}
