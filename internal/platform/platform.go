// Package platform holds the single-file copy primitive and the
// OS-specific fast paths behind it.
package platform

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
	"golang.org/x/time/rate"
)

// CopyMethod identifies which syscall/strategy was used for a copy.
type CopyMethod int

const (
	ReadWrite     CopyMethod = iota
	CopyFileRange            // Linux copy_file_range(2)
	Sendfile                 // Linux sendfile(2)
	Clonefile                // macOS clonefile(2)
)

func (m CopyMethod) String() string {
	switch m {
	case ReadWrite:
		return "read_write"
	case CopyFileRange:
		return "copy_file_range"
	case Sendfile:
		return "sendfile"
	case Clonefile:
		return "clonefile"
	default:
		return "unknown"
	}
}

// CopyResult reports the outcome of a copy operation.
type CopyResult struct {
	BytesWritten int64
	Method       CopyMethod
}

// CopyFileParams describes one whole-file copy into an open, empty
// destination.
type CopyFileParams struct {
	DstFd   *os.File
	SrcPath string
	Size    int64

	// Limiter throttles the copy. When set, kernel offload is skipped and
	// data moves through the read/write loop so every chunk can be metered.
	Limiter *rate.Limiter
}

// IsCrossDevice reports whether err is the EXDEV a rename returns when
// source and destination live on different filesystems.
func IsCrossDevice(err error) bool {
	return errors.Is(err, unix.EXDEV)
}
