// Package logging configures slog for the cpmv command and library.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options selects the console level and an optional JSON log file.
type Options struct {
	Verbose bool
	Quiet   bool
	// Level overrides Verbose and Quiet when non-empty.
	Level string
	// File receives every record at debug level as JSON.
	File string
}

// ParseLevel accepts debug, info, warn and error, in any case.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

// ConsoleLevel returns the level for the stderr handler.
func (o Options) ConsoleLevel() (slog.Level, error) {
	if o.Level != "" {
		return ParseLevel(o.Level)
	}
	switch {
	case o.Verbose:
		return slog.LevelDebug, nil
	case o.Quiet:
		return slog.LevelWarn, nil
	default:
		return slog.LevelInfo, nil
	}
}

// New builds a logger writing text to w and, when opts.File is set, JSON
// to that file. The returned closer releases the file.
func New(w io.Writer, opts Options) (*slog.Logger, io.Closer, error) {
	level, err := opts.ConsoleLevel()
	if err != nil {
		return nil, nil, err
	}

	var handler slog.Handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	closer := io.Closer(nopCloser{})
	if opts.File != "" {
		lf, err := os.Create(opts.File)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		jsonHandler := slog.NewJSONHandler(lf, &slog.HandlerOptions{Level: slog.LevelDebug})
		handler = NewMultiHandler(handler, jsonHandler)
		closer = lf
	}
	return slog.New(handler), closer, nil
}

// Stderr returns the logger used by the shared library: errors only, as
// text on stderr.
func Stderr() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
