package logger

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// WriterFactory creates log writers based on format
type WriterFactory struct{}

// NewWriterFactory creates a new writer factory
func NewWriterFactory() *WriterFactory {
	return &WriterFactory{}
}

// CreateConsoleWriter creates a writer for stderr output
func (wf *WriterFactory) CreateConsoleWriter(format LogFormat) io.Writer {
	return wf.wrapWriter(os.Stderr, format, false)
}

// CreateFileWriter creates a rotating file writer
func (wf *WriterFactory) CreateFileWriter(cfg LoggerConfig) io.Writer {
	if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err != nil {
		// Fall back to console-only output if the log directory is unusable.
		return io.Discard
	}

	rotating := &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		LocalTime:  true,
	}

	// Never write ANSI colors into files.
	return wf.wrapWriter(rotating, cfg.Format, true)
}

func (wf *WriterFactory) wrapWriter(w io.Writer, format LogFormat, noColor bool) io.Writer {
	switch format {
	case FormatJSON:
		return w
	case FormatText:
		return zerolog.ConsoleWriter{Out: w, NoColor: true, TimeFormat: time.RFC3339}
	default:
		return zerolog.ConsoleWriter{Out: w, NoColor: noColor, TimeFormat: time.RFC3339}
	}
}
