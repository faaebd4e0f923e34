// Package tree copies and moves file trees into a destination directory.
//
// Both operations place their result at destination/base(source), whether
// the source is a regular file or a directory. Traversal is sequential and
// fail-fast: the first error aborts the call and nothing already written is
// rolled back. Entries that are neither regular files nor directories
// (symlinks, sockets, FIFOs, devices) are skipped without error.
package tree

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/time/rate"

	"github.com/bamsammich/cpmv/internal/stats"
)

var (
	// ErrNoBaseName is returned for a source such as "/" or ".." that has
	// no final path component to name the target after.
	ErrNoBaseName = errors.New("source path has no base name")

	// ErrTargetOverlapsSource is returned when the computed target is the
	// source itself or lies inside it.
	ErrTargetOverlapsSource = errors.New("target overlaps source")

	// ErrUnsupportedType is returned when the top-level source is neither a
	// regular file nor a directory.
	ErrUnsupportedType = errors.New("source is neither a regular file nor a directory")
)

// IsNamingError reports whether err was caused by the shape of the paths
// rather than by the filesystem.
func IsNamingError(err error) bool {
	return errors.Is(err, ErrNoBaseName) || errors.Is(err, ErrTargetOverlapsSource)
}

// Config carries the optional collaborators of a Copy or Move call. The
// zero value is ready to use.
type Config struct {
	// Logger receives debug records for fallbacks and skipped entries.
	// Defaults to slog.Default().
	Logger *slog.Logger

	// Stats accumulates counters. A private collector is used when nil.
	Stats *stats.Collector

	// Limiter caps copy throughput. Renames are not throttled.
	Limiter *rate.Limiter

	// Rename relocates one entry atomically. Defaults to os.Rename.
	Rename func(oldpath, newpath string) error
}

func (c Config) withDefaults() Config {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Stats == nil {
		c.Stats = stats.NewCollector()
	}
	if c.Rename == nil {
		c.Rename = os.Rename
	}
	return c
}

// baseName returns the final element of path, failing for paths that do
// not have one.
func baseName(path string) (string, error) {
	name := filepath.Base(path)
	switch name {
	case ".", "..", string(filepath.Separator):
		return "", fmt.Errorf("%q: %w", path, ErrNoBaseName)
	}
	return name, nil
}

// checkOverlap rejects a target equal to or nested inside src. The
// comparison is lexical on absolute paths; symlinks are not resolved.
func checkOverlap(src, target string) error {
	absSrc, err := filepath.Abs(src)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", src, err)
	}
	absTarget, err := filepath.Abs(target)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", target, err)
	}
	if absTarget == absSrc || strings.HasPrefix(absTarget, absSrc+string(filepath.Separator)) {
		return fmt.Errorf("%s -> %s: %w", src, target, ErrTargetOverlapsSource)
	}
	return nil
}

// Target returns the path Copy and Move produce for src under dst.
func Target(src, dst string) (string, error) {
	name, err := baseName(src)
	if err != nil {
		return "", err
	}
	return filepath.Join(dst, name), nil
}

// prepare stats the top-level source, validates the paths and returns the
// source info together with the final target path.
func prepare(src, dst string) (os.FileInfo, string, error) {
	info, err := os.Stat(src)
	if err != nil {
		return nil, "", fmt.Errorf("source: %w", err)
	}
	if !info.IsDir() && !info.Mode().IsRegular() {
		return nil, "", fmt.Errorf("%s: %w", src, ErrUnsupportedType)
	}
	target, err := Target(src, dst)
	if err != nil {
		return nil, "", err
	}
	if err := checkOverlap(src, target); err != nil {
		return nil, "", err
	}
	return info, target, nil
}

func (c Config) mkdirAll(path string) error {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return nil
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", path, err)
	}
	c.Stats.AddDirsCreated(1)
	return nil
}

func (c Config) skip(path string, e entry) {
	c.Stats.AddFilesSkipped(1)
	c.Logger.Debug("skipping entry", "path", path, "type", e.kind.String())
}
