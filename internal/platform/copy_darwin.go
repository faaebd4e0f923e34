//go:build darwin

package platform

import (
	"golang.org/x/sys/unix"
)

// CopyFile copies with read/write on macOS. Whole-file copies go through
// clonePath first (see CopyPath).
func CopyFile(params CopyFileParams) (CopyResult, error) {
	preallocate(params.DstFd, params.Size)
	return copyReadWrite(params)
}

// clonePath makes dst a copy-on-write clone of src. dst must not exist.
// It reports false with a nil error when the filesystem cannot clone.
func clonePath(src, dst string) (bool, error) {
	err := unix.Clonefile(src, dst, unix.CLONE_NOFOLLOW)
	if err == nil {
		return true, nil
	}
	if isFallbackCloneErr(err) {
		return false, nil
	}
	return false, err
}

func isFallbackCloneErr(err error) bool {
	switch err {
	case unix.ENOTSUP, unix.EXDEV, unix.EEXIST:
		return true
	}
	return false
}
