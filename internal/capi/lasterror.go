package capi

import (
	"sync"
	"unsafe"
)

var lastErr struct {
	mu  sync.Mutex
	msg string
}

func setLastError(msg string) {
	lastErr.mu.Lock()
	lastErr.msg = msg
	lastErr.mu.Unlock()
}

// LastError returns the message of the most recent failed call, or "" if
// the most recent call succeeded.
func LastError() string {
	lastErr.mu.Lock()
	defer lastErr.mu.Unlock()
	return lastErr.msg
}

// CopyLastError writes LastError into buf as a NUL-terminated string,
// truncated to fit size bytes, and returns the full message length. With a
// nil buf or zero size nothing is written.
func CopyLastError(buf unsafe.Pointer, size uintptr) int {
	msg := LastError()
	if buf == nil || size == 0 {
		return len(msg)
	}
	out := unsafe.Slice((*byte)(buf), size)
	n := copy(out[:size-1], msg)
	out[n] = 0
	return len(msg)
}
