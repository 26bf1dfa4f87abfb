package monitor

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"webnotifier/internal/extractor"
	"webnotifier/internal/models"
)

// ContentProcessor turns fetched page content into a PageUpdate: it hashes
// the body and extracts a page title for notification context.
type ContentProcessor struct {
	logger         zerolog.Logger
	titleExtractor *extractor.TitleExtractor
}

// NewContentProcessor creates a new ContentProcessor.
func NewContentProcessor(logger zerolog.Logger) *ContentProcessor {
	return &ContentProcessor{
		logger:         logger.With().Str("component", "ContentProcessor").Logger(),
		titleExtractor: extractor.NewTitleExtractor(logger),
	}
}

// ProcessContent hashes the content and extracts the document title.
// An empty body is valid; it hashes like any other content.
func (p *ContentProcessor) ProcessContent(url string, content []byte, contentType string) (*models.PageUpdate, error) {
	hash := sha256.Sum256(content)
	hashStr := fmt.Sprintf("%x", hash)

	update := &models.PageUpdate{
		URL:         url,
		NewHash:     hashStr,
		ContentType: contentType,
		Title:       p.titleExtractor.ExtractTitle(content, contentType),
		FetchedAt:   time.Now(),
		Content:     content,
	}

	p.logger.Debug().Str("url", url).Str("hash", hashStr).Str("title", update.Title).Msg("Content processed")
	return update, nil
}
