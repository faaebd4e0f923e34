package platform

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const tmpSuffix = ".cpmv-tmp"

// TempPath returns a hidden, unique sibling of dst used to stage its data.
func TempPath(dst string) string {
	dir := filepath.Dir(dst)
	base := filepath.Base(dst)
	return filepath.Join(dir, fmt.Sprintf(".%s.%s%s", base, uuid.New().String()[:8], tmpSuffix))
}

// IsTempPath reports whether name looks like a path produced by TempPath.
func IsTempPath(name string) bool {
	base := filepath.Base(name)
	return len(base) > len(tmpSuffix) && base[0] == '.' && filepath.Ext(base) == tmpSuffix
}

// NewLimiter returns a limiter capping copy throughput at bytesPerSec. Its
// burst covers one read buffer.
func NewLimiter(bytesPerSec int64) *rate.Limiter {
	return rate.NewLimiter(rate.Limit(bytesPerSec), bufferSize)
}

// CopyPath copies the regular file at src to dst, replacing dst if it
// already exists. The bytes are staged in a temp file in dst's directory
// and renamed into place, so dst is never observed half-written. The
// permission bits of src are applied to dst. limiter may be nil.
func CopyPath(src, dst string, limiter *rate.Limiter) (CopyResult, error) {
	info, err := os.Stat(src)
	if err != nil {
		return CopyResult{}, err
	}
	if !info.Mode().IsRegular() {
		return CopyResult{}, fmt.Errorf("copy %s: not a regular file", src)
	}

	tmpPath := TempPath(dst)
	RegisterTmp(tmpPath)
	defer func() {
		DeregisterTmp(tmpPath)
		_ = os.Remove(tmpPath) // no-op once renamed
	}()

	if limiter == nil {
		cloned, err := clonePath(src, tmpPath)
		if err != nil {
			return CopyResult{}, fmt.Errorf("clone %s: %w", src, err)
		}
		if cloned {
			if err := os.Rename(tmpPath, dst); err != nil {
				return CopyResult{}, err
			}
			return CopyResult{BytesWritten: info.Size(), Method: Clonefile}, nil
		}
	}

	tmpFd, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return CopyResult{}, err
	}

	result, err := CopyFile(CopyFileParams{
		SrcPath: src,
		DstFd:   tmpFd,
		Size:    info.Size(),
		Limiter: limiter,
	})
	if err != nil {
		tmpFd.Close()
		return result, fmt.Errorf("copy %s: %w", src, err)
	}

	// Explicit chmod so the umask does not narrow the source's mode.
	if err := tmpFd.Chmod(info.Mode().Perm()); err != nil {
		tmpFd.Close()
		return result, err
	}
	if err := tmpFd.Close(); err != nil {
		return result, err
	}

	if err := os.Rename(tmpPath, dst); err != nil {
		return result, err
	}
	return result, nil
}
