package models

import (
	"errors"
	"time"
)

// ErrRecordNotFound is returned when no history exists for a URL.
var ErrRecordNotFound = errors.New("record not found")

// PageHistoryRecord is one observed version of a watched page.
// ETag and LastModified are kept so conditional requests survive a restart.
type PageHistoryRecord struct {
	URL          string
	CheckedAt    time.Time
	Hash         string
	ContentType  string
	Title        string
	Content      []byte
	ETag         string
	LastModified string
}

// PageHistoryStore persists observed page versions.
type PageHistoryStore interface {
	// GetLastKnownRecord retrieves the most recent record for a URL.
	// Returns ErrRecordNotFound if the URL has never been observed.
	GetLastKnownRecord(url string) (*PageHistoryRecord, error)

	// StorePageRecord stores a newly observed page version.
	StorePageRecord(record PageHistoryRecord) error

	// UpdateLatestValidators refreshes the cache validators on the most
	// recent record for a URL. Servers may advance Last-Modified or ETag
	// without changing the body; keeping the stored validators current lets
	// the next conditional request still come back 304.
	UpdateLatestValidators(url, etag, lastModified string) error

	// GetHistory retrieves up to limit records for a URL, newest first.
	GetHistory(url string, limit int) ([]PageHistoryRecord, error)

	Close() error
}
