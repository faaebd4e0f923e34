package tree

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bamsammich/cpmv/internal/platform"
)

// Move relocates the file or directory tree at src into the directory dst,
// producing dst/base(src). A single atomic rename is tried first; when it
// fails (typically across filesystems) each entry is moved on its own,
// falling back to copy+delete per file, and the emptied source directory
// is removed last. A failure partway leaves both trees partially populated.
func Move(src, dst string, cfg Config) error {
	c := cfg.withDefaults()

	info, target, err := prepare(src, dst)
	if err != nil {
		return err
	}

	// dst must exist for the single rename to succeed.
	if err := c.mkdirAll(dst); err != nil {
		return err
	}
	if info.Mode().IsRegular() {
		return c.moveFile(src, target)
	}
	return c.moveDir(src, target)
}

// moveDir moves the directory src to target.
func (c Config) moveDir(src, target string) error {
	err := c.Rename(src, target)
	if err == nil {
		c.Stats.AddRenames(1)
		c.Logger.Debug("renamed", "src", src, "dst", target)
		return nil
	}

	c.Stats.AddFallbacks(1)
	c.Logger.Debug("rename failed, moving entries individually",
		"src", src,
		"dst", target,
		"cross_device", platform.IsCrossDevice(err),
		"error", err,
	)

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
			if err := c.moveDir(path, filepath.Join(target, e.name)); err != nil {
				return err
			}
		case kindFile:
			if err := c.moveFile(path, filepath.Join(target, e.name)); err != nil {
				return err
			}
		default:
			c.skip(path, e)
		}
	}

	// Skipped entries go with the directory.
	if err := os.RemoveAll(src); err != nil {
		return fmt.Errorf("remove source: %w", err)
	}
	return nil
}

// moveFile renames src to dst, or copies and then deletes src when the
// rename fails. If the delete fails the copy stays in place.
func (c Config) moveFile(src, dst string) error {
	err := c.Rename(src, dst)
	if err == nil {
		c.Stats.AddRenames(1)
		c.Stats.AddFilesMoved(1)
		return nil
	}

	c.Stats.AddFallbacks(1)
	c.Logger.Debug("rename failed, copying",
		"src", src,
		"dst", dst,
		"cross_device", platform.IsCrossDevice(err),
		"error", err,
	)

	if err := c.copyFile(src, dst); err != nil {
		return err
	}
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("remove source: %w", err)
	}
	c.Stats.AddFilesMoved(1)
	return nil
}
