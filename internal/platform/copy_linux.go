//go:build linux

package platform

import (
	"os"

	"golang.org/x/sys/unix"
)

// kernelCopy is an in-kernel copy path. A path that fails before writing
// anything with a fallback error hands over to the next one.
type kernelCopy func(src *os.File, params CopyFileParams) (int64, error)

var kernelPaths = []struct {
	method CopyMethod
	copy   kernelCopy
}{
	{CopyFileRange, copyFileRange},
	{Sendfile, copySendfile},
}

// CopyFile fills the staged file params.DstFd with the source's bytes.
// Throttled copies go through the read/write loop so every chunk is
// metered; otherwise copy_file_range (which reflinks where the filesystem
// can) and sendfile are tried before it.
func CopyFile(params CopyFileParams) (CopyResult, error) {
	preallocate(params.DstFd, params.Size)

	if params.Limiter != nil || params.Size == 0 {
		return copyReadWrite(params)
	}

	src, err := os.Open(params.SrcPath)
	if err != nil {
		return CopyResult{}, err
	}
	defer src.Close()

	for _, p := range kernelPaths {
		n, err := p.copy(src, params)
		if err == nil {
			return CopyResult{BytesWritten: n, Method: p.method}, nil
		}
		if n > 0 || !isFallbackErr(err) {
			return CopyResult{BytesWritten: n, Method: p.method}, err
		}
	}
	return copyReadWrite(params)
}

//nolint:gosec // G115: fd values are small non-negative integers
func copyFileRange(src *os.File, params CopyFileParams) (int64, error) {
	var roff, woff, total int64
	for total < params.Size {
		n, err := unix.CopyFileRange(int(src.Fd()), &roff, int(params.DstFd.Fd()), &woff, int(params.Size-total), 0)
		if err != nil {
			return total, err
		}
		if n == 0 {
			break
		}
		total += int64(n)
	}
	return total, nil
}

// copySendfile relies on the staged file being fresh: sendfile writes at
// the destination's current position, which is 0.
//
//nolint:gosec // G115: fd values are small non-negative integers
func copySendfile(src *os.File, params CopyFileParams) (int64, error) {
	var off, total int64
	for total < params.Size {
		n, err := unix.Sendfile(int(params.DstFd.Fd()), int(src.Fd()), &off, int(params.Size-total))
		if err != nil {
			return total, err
		}
		if n == 0 {
			break
		}
		total += int64(n)
	}
	return total, nil
}

// clonePath has no whole-file clone on Linux; copy_file_range covers
// reflinks.
func clonePath(_, _ string) (bool, error) {
	return false, nil
}
