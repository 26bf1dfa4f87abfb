package logger

import (
	"io"
	stdlog "log"

	"github.com/rs/zerolog"

	"webnotifier/internal/common"
	"webnotifier/internal/config"
)

// New builds a zerolog.Logger from application log configuration.
// Console output is always enabled; file output with rotation is added
// when a log file path is configured.
func New(cfg config.LogConfig) (zerolog.Logger, error) {
	resolved := convertConfig(cfg)
	factory := NewWriterFactory()

	var writers []io.Writer
	if resolved.EnableConsole {
		writers = append(writers, factory.CreateConsoleWriter(resolved.Format))
	}
	if resolved.EnableFile {
		writers = append(writers, factory.CreateFileWriter(resolved))
	}
	if len(writers) == 0 {
		return zerolog.Logger{}, common.NewError("no output writers configured")
	}

	multiWriter := zerolog.MultiLevelWriter(writers...)
	instance := zerolog.New(multiWriter).
		Level(resolved.Level).
		With().
		Timestamp().
		Logger()

	zerolog.SetGlobalLevel(resolved.Level)

	// Route the standard library logger through zerolog so third-party
	// packages do not bypass structured output.
	stdlog.SetOutput(instance)
	stdlog.SetFlags(0)

	return instance, nil
}
