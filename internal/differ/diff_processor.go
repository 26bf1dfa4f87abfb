package differ

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"webnotifier/internal/models"
)

// DiffConfig controls the behavior of the diff engine.
type DiffConfig struct {
	EnableLineBasedDiff   bool
	EnableSemanticCleanup bool
	ContextLines          int
}

// DefaultDiffConfig returns the default diff engine configuration.
func DefaultDiffConfig() DiffConfig {
	return DiffConfig{
		EnableLineBasedDiff:   true,
		EnableSemanticCleanup: true,
		ContextLines:          3,
	}
}

// DiffProcessor handles the core diffing logic
type DiffProcessor struct {
	dmp    *diffmatchpatch.DiffMatchPatch
	config DiffConfig
}

// NewDiffProcessor creates a new diff processor
func NewDiffProcessor(config DiffConfig) *DiffProcessor {
	return &DiffProcessor{
		dmp:    diffmatchpatch.New(),
		config: config,
	}
}

// ProcessDiff generates the differences between two content strings.
func (dp *DiffProcessor) ProcessDiff(text1, text2 string) []diffmatchpatch.Diff {
	diffs := dp.dmp.DiffMain(text1, text2, dp.config.EnableLineBasedDiff)

	if dp.config.EnableSemanticCleanup {
		diffs = dp.dmp.DiffCleanupSemantic(diffs)
	}

	return diffs
}

// DiffStatistics holds diff calculation results
type DiffStatistics struct {
	LinesAdded   int
	LinesDeleted int
	IsIdentical  bool
}

// DiffStatsCalculator calculates statistics from diff results
type DiffStatsCalculator struct{}

// NewDiffStatsCalculator creates a new diff stats calculator
func NewDiffStatsCalculator() *DiffStatsCalculator {
	return &DiffStatsCalculator{}
}

// CalculateStats computes line statistics from diff results
func (dsc *DiffStatsCalculator) CalculateStats(diffs []diffmatchpatch.Diff, oldHash, newHash string) DiffStatistics {
	stats := DiffStatistics{}

	for _, diff := range diffs {
		switch diff.Type {
		case diffmatchpatch.DiffInsert:
			stats.LinesAdded += countLines(diff.Text)
		case diffmatchpatch.DiffDelete:
			stats.LinesDeleted += countLines(diff.Text)
		}
	}

	stats.IsIdentical = dsc.isContentIdentical(diffs, oldHash, newHash)
	return stats
}

// countLines counts the lines a diff segment spans. A segment without a
// trailing newline still covers one line.
func countLines(text string) int {
	if text == "" {
		return 0
	}
	n := strings.Count(text, "\n")
	if !strings.HasSuffix(text, "\n") {
		n++
	}
	return n
}

// isContentIdentical checks if content is identical
func (dsc *DiffStatsCalculator) isContentIdentical(diffs []diffmatchpatch.Diff, oldHash, newHash string) bool {
	if oldHash != "" && newHash != "" && oldHash != newHash {
		return false
	}

	for _, diff := range diffs {
		if diff.Type != diffmatchpatch.DiffEqual {
			return false
		}
	}

	return true
}

// convertDiffs maps library diff segments onto the model representation.
func convertDiffs(diffs []diffmatchpatch.Diff) []models.ContentDiff {
	converted := make([]models.ContentDiff, 0, len(diffs))
	for _, d := range diffs {
		var op models.DiffOperation
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			op = models.DiffInsert
		case diffmatchpatch.DiffDelete:
			op = models.DiffDelete
		default:
			op = models.DiffEqual
		}
		converted = append(converted, models.ContentDiff{Operation: op, Text: d.Text})
	}
	return converted
}
