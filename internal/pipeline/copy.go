package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
)

// copyChunkSize is the write granularity for file copies. Context
// cancellation is checked between chunks so an interrupted copy fails
// cleanly instead of hanging.
const copyChunkSize = 256 * 1024

// copyFile duplicates src's bytes and modification time to dst. On any
// error the partially written dst is removed, so a failed copy never leaves
// a half-written target behind.
func copyFile(ctx context.Context, src, dst string) (written int64, err error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("opening source: %w", err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat source: %w", err)
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return 0, fmt.Errorf("creating target: %w", err)
	}

	defer func() {
		if err != nil {
			out.Close()
			os.Remove(dst)
		}
	}()

	buf := make([]byte, copyChunkSize)

	for {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
			return written, err
		}

		n, readErr := in.Read(buf)
		if n > 0 {
			w, writeErr := out.Write(buf[:n])
			written += int64(w)

			if writeErr != nil {
				err = fmt.Errorf("writing target: %w", writeErr)
				return written, err
			}
		}

		if readErr == io.EOF {
			break
		}

		if readErr != nil {
			err = fmt.Errorf("reading source: %w", readErr)
			return written, err
		}
	}

	if err = out.Close(); err != nil {
		os.Remove(dst)
		return written, fmt.Errorf("closing target: %w", err)
	}

	// Preserve timestamps so the copy carries the original's mtime.
	if chErr := os.Chtimes(dst, info.ModTime(), info.ModTime()); chErr != nil {
		// Metadata-only failure: the bytes are intact, don't fail the copy.
		return written, nil
	}

	return written, nil
}
