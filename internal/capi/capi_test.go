package capi

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/cpmv/internal/tree"
)

// cstr returns a pointer to a NUL-terminated copy of s.
func cstr(s string) unsafe.Pointer {
	b := append([]byte(s), 0)
	return unsafe.Pointer(&b[0])
}

func newTestAdapter(buf *bytes.Buffer) *Adapter {
	return New(slog.New(slog.NewTextHandler(buf, nil)))
}

func TestCopyScenario(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "A")
	b := filepath.Join(dir, "B")
	require.NoError(t, os.MkdirAll(filepath.Join(a, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(a, "x.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(a, "sub", "y.txt"), []byte("y"), 0o644))
	require.NoError(t, os.Mkdir(b, 0o755))

	adapter := newTestAdapter(&bytes.Buffer{})
	require.Equal(t, StatusOK, adapter.Copy(cstr(a), cstr(b)))

	got, err := os.ReadFile(filepath.Join(b, "A", "sub", "y.txt"))
	require.NoError(t, err)
	assert.Equal(t, []byte("y"), got)

	// Source untouched.
	got, err = os.ReadFile(filepath.Join(a, "x.txt"))
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), got)
	assert.Empty(t, LastError())
}

func TestMoveScenario(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "A")
	b := filepath.Join(dir, "B")
	require.NoError(t, os.MkdirAll(filepath.Join(a, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(a, "x.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(a, "sub", "y.txt"), []byte("y"), 0o644))
	require.NoError(t, os.Mkdir(b, 0o755))

	adapter := newTestAdapter(&bytes.Buffer{})
	require.Equal(t, StatusOK, adapter.Move(cstr(a), cstr(b)))

	got, err := os.ReadFile(filepath.Join(b, "A", "x.txt"))
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), got)

	_, err = os.Stat(a)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestNullPointer(t *testing.T) {
	called := false
	adapter := &Adapter{
		Logger:   slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)),
		CopyFunc: func(string, string) error { called = true; return nil },
		MoveFunc: func(string, string) error { called = true; return nil },
	}

	assert.Equal(t, StatusNullPointer, adapter.Copy(nil, cstr("/tmp")))
	assert.Equal(t, StatusNullPointer, adapter.Copy(cstr("/tmp"), nil))
	assert.Equal(t, StatusNullPointer, adapter.Move(nil, nil))
	assert.False(t, called)
	assert.Contains(t, LastError(), "null pointer")
}

func TestInvalidText(t *testing.T) {
	called := false
	adapter := &Adapter{
		Logger:   slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)),
		CopyFunc: func(string, string) error { called = true; return nil },
		MoveFunc: func(string, string) error { called = true; return nil },
	}
	bad := cstr("\xff\xfe")

	assert.Equal(t, StatusInvalidText, adapter.Copy(bad, cstr("/tmp")))
	assert.Equal(t, StatusInvalidText, adapter.Move(cstr("/tmp"), bad))
	assert.False(t, called)

	// Null takes precedence over invalid text.
	assert.Equal(t, StatusNullPointer, adapter.Copy(bad, nil))
}

func TestOperationFailed(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.Mkdir(src, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "f"), []byte("f"), 0o644))
	require.NoError(t, os.WriteFile(blocker, []byte("not a dir"), 0o644))

	var logs bytes.Buffer
	adapter := newTestAdapter(&logs)

	assert.Equal(t, StatusFailed, adapter.Copy(cstr(src), cstr(blocker)))
	assert.Contains(t, logs.String(), "level=ERROR")
	assert.Contains(t, logs.String(), "op=copy")
	assert.Contains(t, logs.String(), "src="+src)
	assert.Contains(t, logs.String(), "dst="+blocker)
	assert.Contains(t, logs.String(), "kind=io")
	assert.Contains(t, LastError(), src)

	assert.Equal(t, StatusFailed, adapter.Move(cstr(filepath.Join(dir, "missing")), cstr(dir)))

	// The failed move did not touch the source of the earlier call.
	_, err := os.Stat(filepath.Join(src, "f"))
	require.NoError(t, err)
}

func TestReadOnlyDestination(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "ro")
	require.NoError(t, os.Mkdir(src, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "f"), []byte("f"), 0o644))
	require.NoError(t, os.Mkdir(dst, 0o555))
	t.Cleanup(func() { _ = os.Chmod(dst, 0o755) })

	var logs bytes.Buffer
	adapter := newTestAdapter(&logs)

	assert.Equal(t, StatusFailed, adapter.Copy(cstr(src), cstr(dst)))
	assert.Contains(t, logs.String(), "kind=io")
	assert.Contains(t, LastError(), "permission denied")

	assert.Equal(t, StatusFailed, adapter.Move(cstr(src), cstr(dst)))
	_, err := os.Stat(filepath.Join(src, "f"))
	require.NoError(t, err)

	entries, err := os.ReadDir(dst)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestNamingErrorKind(t *testing.T) {
	dir := t.TempDir()
	var logs bytes.Buffer
	adapter := newTestAdapter(&logs)

	assert.Equal(t, StatusFailed, adapter.Copy(cstr(dir), cstr(filepath.Join(dir, "inner"))))
	assert.Contains(t, logs.String(), "kind=naming")
	assert.Contains(t, LastError(), tree.ErrTargetOverlapsSource.Error())
}

func TestPanicBecomesFailure(t *testing.T) {
	adapter := &Adapter{
		Logger:   slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)),
		CopyFunc: func(string, string) error { panic("boom") },
	}
	assert.Equal(t, StatusFailed, adapter.Copy(cstr("a"), cstr("b")))
	assert.Contains(t, LastError(), "boom")
}

func TestSuccessClearsLastError(t *testing.T) {
	fail := true
	adapter := &Adapter{
		Logger: slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)),
		CopyFunc: func(string, string) error {
			if fail {
				return errors.New("disk on fire")
			}
			return nil
		},
	}

	require.Equal(t, StatusFailed, adapter.Copy(cstr("a"), cstr("b")))
	assert.Contains(t, LastError(), "disk on fire")

	fail = false
	require.Equal(t, StatusOK, adapter.Copy(cstr("a"), cstr("b")))
	assert.Empty(t, LastError())
}

func TestCopyLastError(t *testing.T) {
	setLastError("abcdef")
	t.Cleanup(func() { setLastError("") })

	t.Run("fits", func(t *testing.T) {
		buf := make([]byte, 16)
		n := CopyLastError(unsafe.Pointer(&buf[0]), uintptr(len(buf)))
		assert.Equal(t, 6, n)
		assert.Equal(t, "abcdef\x00", string(buf[:7]))
	})

	t.Run("truncated", func(t *testing.T) {
		buf := bytes.Repeat([]byte{'#'}, 4)
		n := CopyLastError(unsafe.Pointer(&buf[0]), uintptr(len(buf)))
		assert.Equal(t, 6, n)
		assert.Equal(t, "abc\x00", string(buf))
	})

	t.Run("size one", func(t *testing.T) {
		buf := []byte{'#'}
		n := CopyLastError(unsafe.Pointer(&buf[0]), 1)
		assert.Equal(t, 6, n)
		assert.Equal(t, byte(0), buf[0])
	})

	t.Run("nil buffer", func(t *testing.T) {
		assert.Equal(t, 6, CopyLastError(nil, 0))
	})
}

func TestCBytes(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []byte("héllo"), cBytes(cstr("héllo")))
	assert.Empty(t, cBytes(cstr("")))
}
