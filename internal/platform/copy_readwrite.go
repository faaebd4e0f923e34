package platform

import (
	"context"
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

const bufferSize = 1 << 20 // 1 MiB

var bufPool = sync.Pool{
	New: func() any {
		b := make([]byte, bufferSize)
		return &b
	},
}

// copyReadWrite copies the source through a pooled buffer with
// pread/pwrite. It is the only path that honors a Limiter.
//
//nolint:gosec // G115: fd values are small non-negative integers
func copyReadWrite(params CopyFileParams) (CopyResult, error) {
	srcFd, err := os.Open(params.SrcPath)
	if err != nil {
		return CopyResult{}, err
	}
	defer srcFd.Close()

	bufp := bufPool.Get().(*[]byte) //nolint:errcheck,forcetypeassert // pool only holds *[]byte
	defer bufPool.Put(bufp)
	buf := *bufp

	srcRawFd := int(srcFd.Fd())
	dstRawFd := int(params.DstFd.Fd())

	var offset int64
	for offset < params.Size {
		n, err := unix.Pread(srcRawFd, buf[:int(min(params.Size-offset, bufferSize))], offset)
		if err != nil {
			return CopyResult{BytesWritten: offset, Method: ReadWrite}, err
		}
		if n == 0 {
			break // source shrank
		}

		if params.Limiter != nil {
			if err := params.Limiter.WaitN(context.Background(), n); err != nil {
				return CopyResult{BytesWritten: offset, Method: ReadWrite}, err
			}
		}

		for written := 0; written < n; {
			w, err := unix.Pwrite(dstRawFd, buf[written:n], offset+int64(written))
			if err != nil {
				return CopyResult{BytesWritten: offset + int64(written), Method: ReadWrite}, err
			}
			written += w
		}
		offset += int64(n)
	}

	return CopyResult{BytesWritten: offset, Method: ReadWrite}, nil
}

// isFallbackErr reports whether a kernel copy path is unavailable for this
// pair of files, so the next path should be tried.
func isFallbackErr(err error) bool {
	switch err {
	case unix.ENOSYS, unix.EXDEV, unix.EINVAL, unix.ENOTSUP:
		return true
	}
	if e, ok := err.(*os.PathError); ok {
		return isFallbackErr(e.Err)
	}
	return false
}
