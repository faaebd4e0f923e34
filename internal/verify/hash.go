package verify

import (
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/zeebo/blake3"
)

// Algorithm names a content digest.
type Algorithm string

const (
	BLAKE3 Algorithm = "blake3"
	XXH64  Algorithm = "xxh64"
)

// ParseAlgorithm maps a user-supplied name to an Algorithm. The empty
// string selects BLAKE3.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(strings.ToLower(strings.TrimSpace(s))) {
	case "", BLAKE3:
		return BLAKE3, nil
	case XXH64:
		return XXH64, nil
	default:
		return "", fmt.Errorf("unknown digest %q (use blake3 or xxh64)", s)
	}
}

func (a Algorithm) newHash() hash.Hash {
	if a == XXH64 {
		return xxhash.New()
	}
	return blake3.New()
}

// HashFile computes the digest of the file at path, returning it hex-encoded.
func HashFile(path string, alg Algorithm) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h := alg.newHash()
	buf := make([]byte, 32*1024)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
