package monitor

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"webnotifier/internal/common"
	"webnotifier/internal/config"
	"webnotifier/internal/differ"
	"webnotifier/internal/models"
	"webnotifier/internal/notifier"
)

// Service orchestrates watching a set of pages: fetch, compare, diff,
// store, notify.
type Service struct {
	cfg                *config.MonitorConfig
	historyStore       models.PageHistoryStore
	logger             zerolog.Logger
	notificationHelper *notifier.NotificationHelper
	fetcher            *Fetcher
	processor          *ContentProcessor
	contentDiffer      *differ.ContentDiffer
	scheduler          *Scheduler
	cycleTracker       *CycleTracker

	watchedURLs      map[string]struct{}
	watchedURLsMutex sync.RWMutex

	serviceCtx        context.Context
	serviceCancelFunc context.CancelFunc
}

// NewService creates a new monitoring Service.
func NewService(
	monitorCfg *config.MonitorConfig,
	store models.PageHistoryStore,
	baseLogger zerolog.Logger,
	notificationHelper *notifier.NotificationHelper,
	httpClient *http.Client,
	contentDiffer *differ.ContentDiffer,
) *Service {
	serviceCtx, serviceCancel := context.WithCancel(context.Background())
	instanceLogger := baseLogger.With().Str("component", "MonitorService").Logger()

	s := &Service{
		cfg:                monitorCfg,
		historyStore:       store,
		logger:             instanceLogger,
		notificationHelper: notificationHelper,
		fetcher:            NewFetcher(httpClient, instanceLogger, monitorCfg),
		processor:          NewContentProcessor(instanceLogger),
		contentDiffer:      contentDiffer,
		cycleTracker:       NewCycleTracker(monitorCfg.MaxCycles),
		watchedURLs:        make(map[string]struct{}),
		serviceCtx:         serviceCtx,
		serviceCancelFunc:  serviceCancel,
	}

	s.scheduler = NewScheduler(instanceLogger, monitorCfg, s)
	return s
}

// AddTargetURL adds a URL to the watch list.
func (s *Service) AddTargetURL(url string) {
	if url == "" {
		return
	}
	s.watchedURLsMutex.Lock()
	defer s.watchedURLsMutex.Unlock()

	if _, exists := s.watchedURLs[url]; !exists {
		s.watchedURLs[url] = struct{}{}
		s.logger.Info().Str("url", url).Msg("Added target URL to watch list")
	}
}

// RemoveTargetURL removes a URL from the watch list.
func (s *Service) RemoveTargetURL(url string) {
	s.watchedURLsMutex.Lock()
	defer s.watchedURLsMutex.Unlock()

	if _, exists := s.watchedURLs[url]; exists {
		delete(s.watchedURLs, url)
		s.logger.Info().Str("url", url).Msg("Removed target URL from watch list")
	}
}

// GetWatchedURLs returns a copy of the current watch list.
func (s *Service) GetWatchedURLs() []string {
	s.watchedURLsMutex.RLock()
	defer s.watchedURLsMutex.RUnlock()

	urls := make([]string, 0, len(s.watchedURLs))
	for url := range s.watchedURLs {
		urls = append(urls, url)
	}
	return urls
}

// Start seeds the watch list and starts the polling scheduler.
func (s *Service) Start(initialURLs []string) error {
	s.logger.Info().Int("url_count", len(initialURLs)).Msg("Starting monitor service")

	for _, u := range initialURLs {
		s.AddTargetURL(u)
	}

	if err := s.scheduler.Start(); err != nil {
		return common.WrapError(err, "failed to start monitor scheduler")
	}

	s.notificationHelper.NotifyDaemonStatus(s.serviceCtx, "started", s.GetWatchedURLs())
	return nil
}

// Stop shuts the service and its scheduler down gracefully.
func (s *Service) Stop() {
	s.logger.Info().Msg("Stopping monitor service")

	if s.scheduler != nil {
		s.scheduler.Stop()
	}

	s.notificationHelper.NotifyDaemonStatus(context.Background(), "stopped", s.GetWatchedURLs())

	if s.serviceCancelFunc != nil {
		s.serviceCancelFunc()
	}
	s.logger.Info().Msg("Monitor service stopped")
}

// Done is closed when the scheduler has exhausted its cycle limit.
func (s *Service) Done() <-chan struct{} {
	return s.scheduler.Done()
}

// checkURL performs the check for a single URL. Called by scheduler workers.
func (s *Service) checkURL(ctx context.Context, url string) {
	s.logger.Debug().Str("url", url).Msg("Checking URL")

	lastRecord, err := s.historyStore.GetLastKnownRecord(url)
	if err != nil {
		if !errors.Is(err, models.ErrRecordNotFound) {
			s.logger.Error().Err(err).Str("url", url).Msg("Failed to read history, treating URL as new")
		}
		lastRecord = nil
	}

	fetchInput := PageFetchInput{URL: url}
	if lastRecord != nil {
		fetchInput.PreviousETag = lastRecord.ETag
		fetchInput.PreviousLastModified = lastRecord.LastModified
	}

	fetchResult, err := s.fetcher.FetchPageContent(ctx, fetchInput)
	if err != nil {
		if errors.Is(err, ErrNotModified) {
			s.logger.Debug().Str("url", url).Msg("Content not modified, skipping")
			return
		}
		s.handleFetchFailure(ctx, url, fetchResult, err)
		return
	}

	update, err := s.processor.ProcessContent(url, fetchResult.Content, fetchResult.ContentType)
	if err != nil {
		s.logger.Error().Err(err).Str("url", url).Msg("Failed to process page content")
		return
	}

	isNew := lastRecord == nil
	contentChanged := !isNew && update.NewHash != lastRecord.Hash

	if !isNew && !contentChanged {
		// A full 200 with an identical body can still carry fresh
		// validators (a touched Last-Modified, a rotated ETag). Keep them,
		// or every following request re-downloads instead of getting a 304.
		if fetchResult.ETag != lastRecord.ETag || fetchResult.LastModified != lastRecord.LastModified {
			if err := s.historyStore.UpdateLatestValidators(url, fetchResult.ETag, fetchResult.LastModified); err != nil {
				s.logger.Error().Err(err).Str("url", url).Msg("Failed to refresh cache validators")
			}
		}
		s.logger.Debug().Str("url", url).Msg("Page content has not changed")
		return
	}

	event := models.PageChangeEvent{
		URL:        url,
		Title:      update.Title,
		NewHash:    update.NewHash,
		IsNew:      isNew,
		DetectedAt: update.FetchedAt,
	}

	if contentChanged {
		event.OldHash = lastRecord.Hash
		event.DiffResult = s.diffAgainstPrevious(lastRecord, update)
	}

	newRecord := models.PageHistoryRecord{
		URL:          url,
		CheckedAt:    update.FetchedAt,
		Hash:         update.NewHash,
		ContentType:  update.ContentType,
		Title:        update.Title,
		Content:      update.Content,
		ETag:         fetchResult.ETag,
		LastModified: fetchResult.LastModified,
	}
	if err := s.historyStore.StorePageRecord(newRecord); err != nil {
		s.logger.Error().Err(err).Str("url", url).Msg("Failed to store page record")
		return
	}

	s.logger.Info().
		Str("url", url).
		Bool("is_new", isNew).
		Bool("content_changed", contentChanged).
		Msg("Page is new or has changed")

	s.cycleTracker.AddChangedURL(url)
	s.notificationHelper.NotifyChange(s.serviceCtx, event)
}

// diffAgainstPrevious produces a diff result against the stored version.
// Without stored content (full-content storage disabled) only the hash
// change is reported.
func (s *Service) diffAgainstPrevious(lastRecord *models.PageHistoryRecord, update *models.PageUpdate) *models.ContentDiffResult {
	if len(lastRecord.Content) == 0 {
		return nil
	}

	diffResult, err := s.contentDiffer.GenerateDiff(lastRecord.Content, update.Content, update.ContentType, lastRecord.Hash, update.NewHash)
	if err != nil {
		s.logger.Error().Err(err).Str("url", update.URL).Msg("Failed to generate diff")
		return nil
	}
	return diffResult
}

func (s *Service) handleFetchFailure(ctx context.Context, url string, fetchResult *PageFetchResult, err error) {
	s.logger.Error().Err(err).Str("url", url).Msg("Failed to fetch page content")

	event := models.FetchFailureEvent{
		URL:        url,
		Error:      err.Error(),
		OccurredAt: time.Now(),
	}

	var httpErr *common.HTTPError
	if errors.As(err, &httpErr) {
		event.StatusCode = httpErr.StatusCode
	} else if fetchResult != nil {
		event.StatusCode = fetchResult.HTTPStatusCode
	}

	s.notificationHelper.NotifyFailure(s.serviceCtx, event)
}
