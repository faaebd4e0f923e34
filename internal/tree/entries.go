package tree

import (
	"fmt"
	"os"

	"github.com/karrick/godirwalk"
)

type kind int

const (
	kindOther kind = iota
	kindFile
	kindDir
)

func (k kind) String() string {
	switch k {
	case kindFile:
		return "file"
	case kindDir:
		return "dir"
	default:
		return "other"
	}
}

func kindOf(mode os.FileMode) kind {
	switch {
	case mode.IsDir():
		return kindDir
	case mode.IsRegular():
		return kindFile
	default:
		return kindOther
	}
}

// entry is one child of a directory being traversed.
type entry struct {
	name string
	kind kind
}

// readEntries lists dir in full before any child is processed, so a
// listing failure aborts before any work starts. Symlinks are classified
// by the link itself and never followed. Order is whatever the OS returns.
func readEntries(dir string) ([]entry, error) {
	dirents, err := godirwalk.ReadDirents(dir, nil)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}

	entries := make([]entry, 0, len(dirents))
	for _, de := range dirents {
		entries = append(entries, entry{name: de.Name(), kind: kindOf(de.ModeType())})
	}
	return entries, nil
}
