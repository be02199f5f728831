package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// ErrIntegrityMismatch is returned when a transferred file does not match
// its source by size or content hash.
var ErrIntegrityMismatch = errors.New("pipeline: integrity verification failed")

// verifyIntegrity confirms that target is a faithful duplicate of source:
// equal byte length and equal full-content hash. Size alone is not enough —
// a torn write can produce a right-sized, wrong-content file.
func verifyIntegrity(ctx context.Context, source, target, algo string) error {
	srcInfo, err := os.Stat(source)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	tgtInfo, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("stat target: %w", err)
	}

	if srcInfo.Size() != tgtInfo.Size() {
		return fmt.Errorf("%w: size %d != %d", ErrIntegrityMismatch, srcInfo.Size(), tgtInfo.Size())
	}

	srcHash, err := hashFile(ctx, source, algo)
	if err != nil {
		return err
	}

	tgtHash, err := hashFile(ctx, target, algo)
	if err != nil {
		return err
	}

	if srcHash != tgtHash {
		return fmt.Errorf("%w: %s hash mismatch", ErrIntegrityMismatch, algo)
	}

	return nil
}
