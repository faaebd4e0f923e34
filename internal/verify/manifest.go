// Package verify checks that a copied or moved tree matches the original by
// comparing manifests of structure and content digests.
package verify

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/karrick/godirwalk"

	"github.com/bamsammich/cpmv/internal/stats"
)

// Entry describes one path in a Manifest.
type Entry struct {
	Digest string // empty for directories
	Size   int64
	IsDir  bool
}

// Manifest maps slash-separated paths, relative to the snapshotted root, to
// their entries. The root itself is ".". Entries other than regular files
// and directories are left out, matching what a copy reproduces.
type Manifest map[string]Entry

// Snapshot records the structure and content digests of the tree at root.
// root may be a regular file, in which case the manifest has the single
// entry ".".
func Snapshot(root string, alg Algorithm) (Manifest, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}

	m := Manifest{}
	if info.Mode().IsRegular() {
		digest, err := HashFile(root, alg)
		if err != nil {
			return nil, err
		}
		m["."] = Entry{Digest: digest, Size: info.Size()}
		return m, nil
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("snapshot %s: not a regular file or directory", root)
	}

	err = godirwalk.Walk(root, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			rel = filepath.ToSlash(rel)

			switch {
			case de.IsDir():
				m[rel] = Entry{IsDir: true}
			case de.IsRegular():
				fi, err := os.Lstat(path)
				if err != nil {
					return err
				}
				digest, err := HashFile(path, alg)
				if err != nil {
					return err
				}
				m[rel] = Entry{Digest: digest, Size: fi.Size()}
			}
			return nil
		},
		Unsorted:            true,
		FollowSymbolicLinks: false,
	})
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", root, err)
	}
	return m, nil
}

// Files returns the number of regular files in m.
func (m Manifest) Files() int {
	n := 0
	for _, e := range m {
		if !e.IsDir {
			n++
		}
	}
	return n
}

const reasonUnexpected = "unexpected"

// Mismatch is one difference between two manifests.
type Mismatch struct {
	Path   string
	Reason string
}

func (m Mismatch) String() string {
	return m.Path + ": " + m.Reason
}

// Compare lists every difference between want and got, sorted by path.
func Compare(want, got Manifest) []Mismatch {
	var out []Mismatch
	for path, w := range want {
		g, ok := got[path]
		switch {
		case !ok:
			out = append(out, Mismatch{Path: path, Reason: "missing"})
		case w.IsDir != g.IsDir:
			out = append(out, Mismatch{Path: path, Reason: "type differs"})
		case w.Size != g.Size || w.Digest != g.Digest:
			out = append(out, Mismatch{Path: path, Reason: "content differs"})
		}
	}
	for path := range got {
		if _, ok := want[path]; !ok {
			out = append(out, Mismatch{Path: path, Reason: reasonUnexpected})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Result holds the outcome of a verification pass.
type Result struct {
	Verified   int64
	Failed     int64
	Mismatches []Mismatch
}

// OK reports whether the pass found no differences.
func (r Result) OK() bool {
	return len(r.Mismatches) == 0
}

// Check compares want against a fresh snapshot of root and records
// per-file outcomes in collector, which may be nil. Entries present only
// under root are ignored: a copy may merge into a populated target.
func Check(want Manifest, root string, alg Algorithm, collector *stats.Collector) (Result, error) {
	got, err := Snapshot(root, alg)
	if err != nil {
		return Result{}, err
	}

	var res Result
	for _, mm := range Compare(want, got) {
		if mm.Reason != reasonUnexpected {
			res.Mismatches = append(res.Mismatches, mm)
		}
	}
	res.Failed = int64(len(res.Mismatches))

	badFiles := 0
	for _, mm := range res.Mismatches {
		if e, ok := want[mm.Path]; ok && !e.IsDir {
			badFiles++
		}
	}
	res.Verified = int64(want.Files() - badFiles)

	if collector != nil {
		collector.AddFilesVerified(res.Verified)
		collector.AddFilesVerifyFailed(res.Failed)
	}
	return res, nil
}
