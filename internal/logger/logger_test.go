package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webnotifier/internal/config"
)

func TestNew_DefaultConfig(t *testing.T) {
	logger, err := New(config.NewDefaultLogConfig())
	require.NoError(t, err)

	assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
}

func TestNew_WithFileOutput(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "logs", "app.log")
	cfg := config.NewDefaultLogConfig()
	cfg.LogFile = logFile
	cfg.LogLevel = "debug"
	cfg.LogFormat = "json"

	logger, err := New(cfg)
	require.NoError(t, err)
	assert.Equal(t, zerolog.DebugLevel, logger.GetLevel())

	logger.Info().Msg("log file smoke test")

	_, statErr := os.Stat(logFile)
	assert.NoError(t, statErr, "log file should be created on first write")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    zerolog.Level
		wantErr bool
	}{
		{input: "debug", want: zerolog.DebugLevel},
		{input: "INFO", want: zerolog.InfoLevel},
		{input: "warn", want: zerolog.WarnLevel},
		{input: "error", want: zerolog.ErrorLevel},
		{input: "bogus", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, err := ParseLevel(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, level)
		})
	}
}

func TestParseFormat(t *testing.T) {
	assert.Equal(t, FormatJSON, ParseFormat("json"))
	assert.Equal(t, FormatJSON, ParseFormat("JSON"))
	assert.Equal(t, FormatText, ParseFormat("text"))
	assert.Equal(t, FormatConsole, ParseFormat("console"))
	assert.Equal(t, FormatConsole, ParseFormat("anything-else"))
}

func TestLogFormat_String(t *testing.T) {
	assert.Equal(t, "json", FormatJSON.String())
	assert.Equal(t, "console", FormatConsole.String())
	assert.Equal(t, "text", FormatText.String())
}
