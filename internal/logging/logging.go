package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// LogFilePath builds a session log file path using OS-appropriate separators.
func LogFilePath(logsDir, name string, sessionStart time.Time) string {
	return filepath.Join(
		logsDir,
		fmt.Sprintf("%s.%s.log", name, sessionStart.Format("20060102_150405")),
	)
}

// OpenLogFile creates logsDir if needed and opens a fresh session log.
func OpenLogFile(logsDir, name string, sessionStart time.Time) (*os.File, string, error) {
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return nil, "", fmt.Errorf("failed to create logs dir: %w", err)
	}
	path := LogFilePath(logsDir, name, sessionStart)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open log file: %w", err)
	}
	return f, path, nil
}

// NewZerolog returns a zerolog logger for components that log through
// zerolog, such as the database manager.
func NewZerolog(out io.Writer, component, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	if out == nil {
		out = console
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Str("component", component).Logger()
}
