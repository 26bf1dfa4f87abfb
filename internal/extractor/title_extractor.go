package extractor

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
)

// TitleExtractor pulls the <title> of an HTML document to give notifications
// a human-readable label for the page.
type TitleExtractor struct {
	logger zerolog.Logger
}

// NewTitleExtractor creates a new TitleExtractor.
func NewTitleExtractor(logger zerolog.Logger) *TitleExtractor {
	return &TitleExtractor{
		logger: logger.With().Str("component", "TitleExtractor").Logger(),
	}
}

// ExtractTitle returns the document title of HTML content, or "" when the
// content is not HTML or carries no title.
func (te *TitleExtractor) ExtractTitle(content []byte, contentType string) string {
	if !isHTMLContentType(contentType) {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		te.logger.Debug().Err(err).Msg("Failed to parse HTML for title extraction")
		return ""
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	// Collapse internal whitespace so multi-line titles render on one line.
	return strings.Join(strings.Fields(title), " ")
}

func isHTMLContentType(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml")
}
