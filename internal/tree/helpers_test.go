package tree

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/bamsammich/cpmv/internal/platform"
	"github.com/bamsammich/cpmv/internal/stats"
	"github.com/bamsammich/cpmv/internal/verify"
)

// createTestTree populates root with:
//
//	x.txt
//	big.bin           (320KB)
//	sub/y.txt
//	sub/deep/z.txt
//	sub/empty/
//	link.txt          → x.txt (symlink)
//	pipe              (FIFO)
func createTestTree(t *testing.T, root string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub", "deep"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub", "empty"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "x.txt"), []byte("x content"), 0o644))
	require.NoError(t, os.WriteFile(
		filepath.Join(root, "big.bin"),
		bytes.Repeat([]byte("ABCDEFGHIJKLMNOP"), 20000),
		0o600,
	))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "y.txt"), []byte("y content"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "deep", "z.txt"), []byte("z content"), 0o644))
	require.NoError(t, os.Symlink("x.txt", filepath.Join(root, "link.txt")))
	require.NoError(t, unix.Mkfifo(filepath.Join(root, "pipe"), 0o644))
}

func snapshot(t *testing.T, root string) verify.Manifest {
	t.Helper()
	m, err := verify.Snapshot(root, verify.BLAKE3)
	require.NoError(t, err)
	return m
}

// requireMirror checks that got has exactly the regular files and
// directories recorded in want, with identical content.
func requireMirror(t *testing.T, want verify.Manifest, got string) {
	t.Helper()
	require.Empty(t, verify.Compare(want, snapshot(t, got)))
}

func requireNotExist(t *testing.T, path string) {
	t.Helper()
	_, err := os.Lstat(path)
	require.True(t, os.IsNotExist(err), "%s should not exist (err=%v)", path, err)
}

func requireNoTempFiles(t *testing.T, root string) {
	t.Helper()
	err := filepath.WalkDir(root, func(path string, _ os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if platform.IsTempPath(path) {
			return errors.New("leftover temp file " + path)
		}
		return nil
	})
	require.NoError(t, err)
}

func skipIfRoot(t *testing.T) {
	t.Helper()
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}
}

// testConfig returns a Config with a fresh collector and a debug logger
// writing into buf.
func testConfig(buf *bytes.Buffer) (Config, *stats.Collector) {
	collector := stats.NewCollector()
	return Config{
		Logger: slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})),
		Stats:  collector,
	}, collector
}

// failingRename simulates a rename across filesystems.
func failingRename(oldpath, newpath string) error {
	return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: unix.EXDEV}
}
