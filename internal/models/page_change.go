package models

import "time"

// PageUpdate is produced by the content processor after a successful fetch.
// It carries everything the monitoring service needs to decide on storage
// and notification.
type PageUpdate struct {
	URL         string
	NewHash     string
	ContentType string
	Title       string
	FetchedAt   time.Time
	Content     []byte
}

// PageChangeEvent describes a detected change on a watched page.
type PageChangeEvent struct {
	URL        string
	Title      string
	OldHash    string
	NewHash    string
	IsNew      bool
	DetectedAt time.Time
	DiffResult *ContentDiffResult
}

// FetchFailureEvent describes a failed check on a watched page.
type FetchFailureEvent struct {
	URL        string
	StatusCode int
	Error      string
	OccurredAt time.Time
}
