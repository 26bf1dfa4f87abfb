package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"webnotifier/internal/common"
	"webnotifier/internal/config"
)

// ErrNotModified is returned when the server reports the page is unchanged.
var ErrNotModified = common.NewError("content not modified")

// Fetcher retrieves page content over HTTP with conditional-request support.
type Fetcher struct {
	httpClient *http.Client
	logger     zerolog.Logger
	cfg        *config.MonitorConfig
}

// NewFetcher creates a new Fetcher.
func NewFetcher(client *http.Client, logger zerolog.Logger, cfg *config.MonitorConfig) *Fetcher {
	return &Fetcher{
		httpClient: client,
		logger:     logger.With().Str("component", "Fetcher").Logger(),
		cfg:        cfg,
	}
}

// PageFetchInput holds parameters for FetchPageContent.
type PageFetchInput struct {
	URL                  string
	PreviousETag         string
	PreviousLastModified string
}

// PageFetchResult holds results from FetchPageContent.
type PageFetchResult struct {
	Content        []byte
	ContentType    string
	ETag           string
	LastModified   string
	HTTPStatusCode int
}

// FetchPageContent fetches a page with support for conditional GETs.
// Previously recorded validators are sent as If-None-Match and
// If-Modified-Since headers; a 304 response returns ErrNotModified so the
// caller can treat the cycle as a no-op.
func (f *Fetcher) FetchPageContent(ctx context.Context, input PageFetchInput) (*PageFetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, input.URL, nil)
	if err != nil {
		return nil, common.WrapError(err, fmt.Sprintf("creating request for %s", input.URL))
	}

	if f.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", f.cfg.UserAgent)
	}
	if input.PreviousETag != "" {
		req.Header.Set("If-None-Match", input.PreviousETag)
	}
	if input.PreviousLastModified != "" {
		req.Header.Set("If-Modified-Since", input.PreviousLastModified)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, common.NewNetworkError(input.URL, "HTTP request timed out",
				fmt.Errorf("%w: %v", common.ErrTimeout, err))
		}
		return nil, common.NewNetworkError(input.URL, "HTTP request failed", err)
	}
	defer resp.Body.Close()

	result := &PageFetchResult{
		ETag:           resp.Header.Get("ETag"),
		LastModified:   resp.Header.Get("Last-Modified"),
		ContentType:    resp.Header.Get("Content-Type"),
		HTTPStatusCode: resp.StatusCode,
	}

	// Servers without a Last-Modified header still date their responses;
	// the Date value works as an If-Modified-Since token on the next request.
	if result.LastModified == "" {
		result.LastModified = resp.Header.Get("Date")
	}

	if resp.StatusCode == http.StatusNotModified {
		f.logger.Debug().Str("url", input.URL).Msg("Content not modified (304)")
		return result, ErrNotModified
	}

	if resp.StatusCode != http.StatusOK {
		f.logger.Warn().Str("url", input.URL).Int("status_code", resp.StatusCode).Msg("Received non-OK HTTP status")
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		result.Content = bodyBytes
		return result, common.NewHTTPErrorWithURL(resp.StatusCode, string(bodyBytes), input.URL)
	}

	if resp.ContentLength > 0 && resp.ContentLength > int64(f.cfg.MaxContentSize) {
		return nil, fmt.Errorf("content too large: %d bytes (max: %d bytes)", resp.ContentLength, f.cfg.MaxContentSize)
	}

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, int64(f.cfg.MaxContentSize)+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if len(bodyBytes) > f.cfg.MaxContentSize {
		return nil, fmt.Errorf("content too large: %d bytes (max: %d bytes)", len(bodyBytes), f.cfg.MaxContentSize)
	}

	result.Content = bodyBytes

	f.logger.Debug().Str("url", input.URL).Str("content_type", result.ContentType).Int("size", len(result.Content)).Msg("Page content fetched")
	return result, nil
}
