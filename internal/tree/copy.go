package tree

import (
	"path/filepath"

	"github.com/bamsammich/cpmv/internal/platform"
)

// Copy duplicates the file or directory tree at src into the directory dst,
// producing dst/base(src). dst and any missing ancestors are created. The
// source is never modified.
func Copy(src, dst string, cfg Config) error {
	c := cfg.withDefaults()

	info, target, err := prepare(src, dst)
	if err != nil {
		return err
	}

	if info.Mode().IsRegular() {
		if err := c.mkdirAll(dst); err != nil {
			return err
		}
		return c.copyFile(src, target)
	}
	return c.copyDir(src, target)
}

// copyDir copies the directory src to target, which is created first.
func (c Config) copyDir(src, target string) error {
	if err := c.mkdirAll(target); err != nil {
		return err
	}

	entries, err := readEntries(src)
	if err != nil {
		return err
	}

	for _, e := range entries {
		path := filepath.Join(src, e.name)
		switch e.kind {
		case kindDir:
			if err := c.copyDir(path, filepath.Join(target, e.name)); err != nil {
				return err
			}
		case kindFile:
			if err := c.copyFile(path, filepath.Join(target, e.name)); err != nil {
				return err
			}
		default:
			c.skip(path, e)
		}
	}
	return nil
}

func (c Config) copyFile(src, dst string) error {
	result, err := platform.CopyPath(src, dst, c.Limiter)
	if err != nil {
		return err
	}
	c.Stats.AddFilesCopied(1)
	c.Stats.AddBytesCopied(result.BytesWritten)
	c.Logger.Debug("copied", "src", src, "dst", dst, "method", result.Method.String())
	return nil
}
