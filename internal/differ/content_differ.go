package differ

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"webnotifier/internal/common"
	"webnotifier/internal/config"
	"webnotifier/internal/models"
)

// ContentDiffer generates differences between page versions.
type ContentDiffer struct {
	processor       *DiffProcessor
	statsCalculator *DiffStatsCalculator
	logger          zerolog.Logger
	maxContentBytes int
}

// NewContentDiffer creates a new ContentDiffer from the diff configuration.
func NewContentDiffer(logger zerolog.Logger, diffCfg *config.DiffConfig) (*ContentDiffer, error) {
	if diffCfg == nil {
		return nil, common.NewValidationError("diff_config", diffCfg, "diff config cannot be nil")
	}

	engineCfg := DiffConfig{
		EnableLineBasedDiff:   diffCfg.EnableLineBasedDiff,
		EnableSemanticCleanup: diffCfg.EnableSemanticCleanup,
		ContextLines:          diffCfg.ContextLines,
	}

	return &ContentDiffer{
		processor:       NewDiffProcessor(engineCfg),
		statsCalculator: NewDiffStatsCalculator(),
		logger:          logger.With().Str("component", "ContentDiffer").Logger(),
		maxContentBytes: diffCfg.MaxDiffSizeMB * 1024 * 1024,
	}, nil
}

// GenerateDiff compares two versions of page content and returns a structured
// diff result. Content above the configured size limit yields a result with
// an error message instead of a detailed diff.
func (cd *ContentDiffer) GenerateDiff(previousContent, currentContent []byte, contentType, oldHash, newHash string) (*models.ContentDiffResult, error) {
	startTime := time.Now()

	if cd.maxContentBytes > 0 && (len(previousContent) > cd.maxContentBytes || len(currentContent) > cd.maxContentBytes) {
		return cd.tooLargeResult(previousContent, currentContent, contentType, oldHash, newHash, time.Since(startTime)), nil
	}

	diffs := cd.processor.ProcessDiff(string(previousContent), string(currentContent))
	stats := cd.statsCalculator.CalculateStats(diffs, oldHash, newHash)

	result := &models.ContentDiffResult{
		Timestamp:        startTime.UnixMilli(),
		ContentType:      contentType,
		Diffs:            convertDiffs(diffs),
		LinesAdded:       stats.LinesAdded,
		LinesDeleted:     stats.LinesDeleted,
		IsIdentical:      stats.IsIdentical,
		ProcessingTimeMs: time.Since(startTime).Milliseconds(),
		OldHash:          oldHash,
		NewHash:          newHash,
	}

	cd.logger.Debug().
		Int("lines_added", result.LinesAdded).
		Int("lines_deleted", result.LinesDeleted).
		Bool("identical", result.IsIdentical).
		Int64("processing_time_ms", result.ProcessingTimeMs).
		Msg("Diff generated")

	return result, nil
}

// tooLargeResult creates a result for content that's too large to diff in detail.
func (cd *ContentDiffer) tooLargeResult(previousContent, currentContent []byte, contentType, oldHash, newHash string, processingTime time.Duration) *models.ContentDiffResult {
	errorMsg := fmt.Sprintf("Content changed, but is too large for a detailed diff (limit: %d bytes). Previous size: %d bytes, current size: %d bytes.",
		cd.maxContentBytes, len(previousContent), len(currentContent))

	return &models.ContentDiffResult{
		Timestamp:        time.Now().UnixMilli(),
		ContentType:      contentType,
		IsIdentical:      false,
		ErrorMessage:     errorMsg,
		ProcessingTimeMs: processingTime.Milliseconds(),
		OldHash:          oldHash,
		NewHash:          newHash,
	}
}
