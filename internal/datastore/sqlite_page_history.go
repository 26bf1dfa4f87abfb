package datastore

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"webnotifier/internal/config"
	"webnotifier/internal/models"
)

// SQLitePageHistoryStore persists page versions in a SQLite database.
type SQLitePageHistoryStore struct {
	db               *sql.DB
	logger           zerolog.Logger
	storeFullContent bool
}

// NewSQLitePageHistoryStore opens (creating if necessary) the history
// database and ensures the schema is set up.
func NewSQLitePageHistoryStore(cfg *config.StorageConfig, logger zerolog.Logger) (*SQLitePageHistoryStore, error) {
	storeLogger := logger.With().Str("component", "PageHistoryStore").Logger()
	storeLogger.Info().Str("db_path", cfg.SQLiteDBPath).Msg("Initializing page history database")

	dbDir := filepath.Dir(cfg.SQLiteDBPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create history database directory %s: %w", dbDir, err)
	}

	dbInstance, err := sql.Open("sqlite", cfg.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("sql.Open failed for %s: %w", cfg.SQLiteDBPath, err)
	}

	store := &SQLitePageHistoryStore{
		db:               dbInstance,
		logger:           storeLogger,
		storeFullContent: cfg.StoreFullContent,
	}

	if err := store.initSchema(); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *SQLitePageHistoryStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLitePageHistoryStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS page_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL,
		checked_at DATETIME NOT NULL,
		hash TEXT NOT NULL,
		content_type TEXT,
		title TEXT,
		content BLOB,
		etag TEXT,
		last_modified TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_page_history_url_checked_at
		ON page_history (url, checked_at DESC);
	`
	if _, err := s.db.Exec(query); err != nil {
		return err
	}
	s.logger.Debug().Msg("Schema initialized (page_history table ensured)")
	return nil
}

// GetLastKnownRecord retrieves the most recent record for a URL.
// Returns models.ErrRecordNotFound if the URL has never been observed.
func (s *SQLitePageHistoryStore) GetLastKnownRecord(url string) (*models.PageHistoryRecord, error) {
	query := `SELECT url, checked_at, hash, content_type, title, content, etag, last_modified
		FROM page_history WHERE url = ? ORDER BY checked_at DESC, id DESC LIMIT 1`

	record, err := s.scanRecord(s.db.QueryRow(query, url))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to query last known record for %s: %w", url, err)
	}
	return record, nil
}

// StorePageRecord stores a newly observed page version. Content is dropped
// when full-content storage is disabled.
func (s *SQLitePageHistoryStore) StorePageRecord(record models.PageHistoryRecord) error {
	content := record.Content
	if !s.storeFullContent {
		content = nil
	}

	checkedAt := record.CheckedAt
	if checkedAt.IsZero() {
		checkedAt = time.Now()
	}

	query := `INSERT INTO page_history (url, checked_at, hash, content_type, title, content, etag, last_modified)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.Exec(query,
		record.URL,
		checkedAt,
		record.Hash,
		nullString(record.ContentType),
		nullString(record.Title),
		content,
		nullString(record.ETag),
		nullString(record.LastModified),
	)
	if err != nil {
		return fmt.Errorf("failed to insert page record for %s: %w", record.URL, err)
	}

	s.logger.Debug().Str("url", record.URL).Str("hash", record.Hash).Msg("Stored page record")
	return nil
}

// UpdateLatestValidators refreshes etag and last_modified on the most
// recent record for a URL. A URL with no history is a no-op.
func (s *SQLitePageHistoryStore) UpdateLatestValidators(url, etag, lastModified string) error {
	query := `UPDATE page_history SET etag = ?, last_modified = ?
		WHERE id = (SELECT id FROM page_history WHERE url = ? ORDER BY checked_at DESC, id DESC LIMIT 1)`
	_, err := s.db.Exec(query, nullString(etag), nullString(lastModified), url)
	if err != nil {
		return fmt.Errorf("failed to update validators for %s: %w", url, err)
	}

	s.logger.Debug().Str("url", url).Msg("Refreshed cache validators on latest record")
	return nil
}

// GetHistory retrieves up to limit records for a URL, newest first.
func (s *SQLitePageHistoryStore) GetHistory(url string, limit int) ([]models.PageHistoryRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `SELECT url, checked_at, hash, content_type, title, content, etag, last_modified
		FROM page_history WHERE url = ? ORDER BY checked_at DESC, id DESC LIMIT ?`
	rows, err := s.db.Query(query, url, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history for %s: %w", url, err)
	}
	defer rows.Close()

	var records []models.PageHistoryRecord
	for rows.Next() {
		record, scanErr := s.scanRecord(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan history row for %s: %w", url, scanErr)
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating history rows for %s: %w", url, err)
	}
	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *SQLitePageHistoryStore) scanRecord(row rowScanner) (*models.PageHistoryRecord, error) {
	var record models.PageHistoryRecord
	var contentType, title, etag, lastModified sql.NullString

	err := row.Scan(
		&record.URL,
		&record.CheckedAt,
		&record.Hash,
		&contentType,
		&title,
		&record.Content,
		&etag,
		&lastModified,
	)
	if err != nil {
		return nil, err
	}

	record.ContentType = contentType.String
	record.Title = title.String
	record.ETag = etag.String
	record.LastModified = lastModified.String
	return &record, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
