package pipeline

import (
	"context"
	"crypto/md5"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
)

// hashChunkSize is the read granularity for file hashing. Context
// cancellation is checked between chunks.
const hashChunkSize = 64 * 1024

// newHasher returns the configured content hash. Config validation
// guarantees algo is md5 or sha1; default to MD5 defensively.
func newHasher(algo string) hash.Hash {
	if algo == "sha1" {
		return sha1.New()
	}

	return md5.New()
}

// hashFile streams a file through the configured hash and returns the hex
// digest.
func hashFile(ctx context.Context, path, algo string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening file for hash: %w", err)
	}
	defer f.Close()

	h := newHasher(algo)
	buf := make([]byte, hashChunkSize)

	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		n, readErr := f.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}

		if readErr == io.EOF {
			break
		}

		if readErr != nil {
			return "", fmt.Errorf("hashing %s: %w", path, readErr)
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
