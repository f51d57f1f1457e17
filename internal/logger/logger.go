// Package logger builds the process-wide zerolog logger: human-readable
// console output, with an optional JSON file sink for long runs.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Options selects logger verbosity and sinks.
type Options struct {
	Verbose bool
	LogDir  string // empty disables the file sink
}

// New builds the logger. With a LogDir set, a dated JSON log file is
// appended alongside console output. The returned closer is nil when no
// file sink is open.
func New(opts Options) (zerolog.Logger, func() error, error) {
	level := zerolog.InfoLevel
	if opts.Verbose {
		level = zerolog.DebugLevel
	}

	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}
	if opts.LogDir == "" {
		log := zerolog.New(console).Level(level).With().Timestamp().Logger()
		return log, nil, nil
	}

	if err := os.MkdirAll(opts.LogDir, 0o755); err != nil {
		return zerolog.Logger{}, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	name := fmt.Sprintf("walkeval_%s.log", time.Now().Format("2006-01-02"))
	file, err := os.OpenFile(filepath.Join(opts.LogDir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.Logger{}, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	log := zerolog.New(zerolog.MultiLevelWriter(console, file)).
		Level(level).
		With().Timestamp().Logger()
	return log, file.Close, nil
}
