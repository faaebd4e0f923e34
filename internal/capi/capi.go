// Package capi implements the C-callable surface of cpmv on raw pointers so
// that it can be tested without cgo. cmd/libcpmv re-exports it.
//
// Every call validates its arguments in a fixed order and reports the
// outcome as a status code:
//
//	StatusOK           the operation succeeded
//	StatusNullPointer  source or destination was NULL
//	StatusInvalidText  source or destination was not valid UTF-8
//	StatusFailed       the copy or move itself failed
//
// The message behind the most recent non-zero status is kept process-wide
// and can be read back with CopyLastError.
package capi

import (
	"fmt"
	"log/slog"
	"unicode/utf8"
	"unsafe"

	"github.com/bamsammich/cpmv/internal/tree"
)

// Status codes returned across the C boundary.
const (
	StatusOK          = 0
	StatusNullPointer = -1
	StatusInvalidText = -2
	StatusFailed      = -3
)

// Op performs one tree operation on decoded paths.
type Op func(src, dst string) error

// Adapter maps raw C arguments onto tree operations.
type Adapter struct {
	Logger   *slog.Logger
	CopyFunc Op
	MoveFunc Op
}

// New returns an Adapter backed by tree.Copy and tree.Move, logging
// through logger.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	cfg := tree.Config{Logger: logger}
	return &Adapter{
		Logger:   logger,
		CopyFunc: func(src, dst string) error { return tree.Copy(src, dst, cfg) },
		MoveFunc: func(src, dst string) error { return tree.Move(src, dst, cfg) },
	}
}

// Copy copies the tree named by the NUL-terminated string src into dst.
func (a *Adapter) Copy(src, dst unsafe.Pointer) int {
	return a.run("copy", a.CopyFunc, src, dst)
}

// Move moves the tree named by the NUL-terminated string src into dst.
func (a *Adapter) Move(src, dst unsafe.Pointer) int {
	return a.run("move", a.MoveFunc, src, dst)
}

func (a *Adapter) run(op string, fn Op, srcPtr, dstPtr unsafe.Pointer) (status int) {
	if srcPtr == nil || dstPtr == nil {
		setLastError(op + ": null pointer argument")
		return StatusNullPointer
	}

	srcBytes, dstBytes := cBytes(srcPtr), cBytes(dstPtr)
	if !utf8.Valid(srcBytes) || !utf8.Valid(dstBytes) {
		setLastError(op + ": argument is not valid UTF-8")
		return StatusInvalidText
	}
	src, dst := string(srcBytes), string(dstBytes)

	// A panic must not unwind into the C caller.
	defer func() {
		if r := recover(); r != nil {
			a.fail(op, src, dst, fmt.Errorf("panic: %v", r))
			status = StatusFailed
		}
	}()

	if err := fn(src, dst); err != nil {
		a.fail(op, src, dst, err)
		return StatusFailed
	}
	setLastError("")
	return StatusOK
}

func (a *Adapter) fail(op, src, dst string, err error) {
	kind := "io"
	if tree.IsNamingError(err) {
		kind = "naming"
	}
	a.Logger.Error(op+" failed",
		"op", op,
		"src", src,
		"dst", dst,
		"kind", kind,
		"error", err,
	)
	setLastError(fmt.Sprintf("%s %s -> %s: %v", op, src, dst, err))
}

// cBytes returns the bytes of the NUL-terminated string at p, without the
// terminator. The slice aliases C memory and must be copied before the
// call returns.
func cBytes(p unsafe.Pointer) []byte {
	n := 0
	for *(*byte)(unsafe.Add(p, n)) != 0 {
		n++
	}
	return unsafe.Slice((*byte)(p), n)
}
