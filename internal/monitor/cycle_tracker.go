package monitor

import (
	"fmt"
	"sync"
	"time"
)

// CycleTracker tracks changes within a polling cycle and enforces an
// optional maximum cycle count.
type CycleTracker struct {
	changedURLs    map[string]struct{}
	currentCycleID string
	mutex          sync.RWMutex
	maxCycles      int
	currentCycle   int
}

// NewCycleTracker creates a new CycleTracker. maxCycles of zero means run
// indefinitely.
func NewCycleTracker(maxCycles int) *CycleTracker {
	return &CycleTracker{
		changedURLs: make(map[string]struct{}),
		maxCycles:   maxCycles,
	}
}

// StartCycle begins a new cycle, increments the counter, and sets a new ID.
func (ct *CycleTracker) StartCycle() {
	ct.mutex.Lock()
	defer ct.mutex.Unlock()

	ct.currentCycle++
	ct.currentCycleID = fmt.Sprintf("cycle-%s", time.Now().Format("20060102-150405"))
	ct.changedURLs = make(map[string]struct{})
}

// ShouldContinue returns false once the maximum number of cycles is reached.
func (ct *CycleTracker) ShouldContinue() bool {
	ct.mutex.RLock()
	defer ct.mutex.RUnlock()
	if ct.maxCycles == 0 {
		return true
	}
	return ct.currentCycle < ct.maxCycles
}

// AddChangedURL records a URL as changed in the current cycle.
func (ct *CycleTracker) AddChangedURL(url string) {
	if url == "" {
		return
	}

	ct.mutex.Lock()
	defer ct.mutex.Unlock()
	ct.changedURLs[url] = struct{}{}
}

// GetChangedURLs returns the URLs that changed in the current cycle.
func (ct *CycleTracker) GetChangedURLs() []string {
	ct.mutex.RLock()
	defer ct.mutex.RUnlock()

	urls := make([]string, 0, len(ct.changedURLs))
	for url := range ct.changedURLs {
		urls = append(urls, url)
	}
	return urls
}

// GetCurrentCycleID returns the current cycle ID.
func (ct *CycleTracker) GetCurrentCycleID() string {
	ct.mutex.RLock()
	defer ct.mutex.RUnlock()
	return ct.currentCycleID
}

// CycleCount returns the number of cycles started so far.
func (ct *CycleTracker) CycleCount() int {
	ct.mutex.RLock()
	defer ct.mutex.RUnlock()
	return ct.currentCycle
}

// HasChanges returns true if any URL changed in the current cycle.
func (ct *CycleTracker) HasChanges() bool {
	ct.mutex.RLock()
	defer ct.mutex.RUnlock()
	return len(ct.changedURLs) > 0
}
