package pipeline

import (
	"io"
	"log/slog"
	"os"
	"runtime"
	"time"
)

// ThumbnailRefresher is the best-effort hook invoked after a run so file
// managers pick up the relocated files. Failures are logged and swallowed;
// they never affect the run result.
type ThumbnailRefresher struct {
	mode   string // off, touch, shell, cache_clear
	logger *slog.Logger
}

// NewThumbnailRefresher builds the refresher for the configured mode.
func NewThumbnailRefresher(mode string, logger *slog.Logger) *ThumbnailRefresher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &ThumbnailRefresher{mode: mode, logger: logger}
}

// Refresh applies the configured strategy to the processed records.
func (t *ThumbnailRefresher) Refresh(processed []FileRecord) {
	switch t.mode {
	case "off", "":
	case "touch":
		t.refreshByTouch(processed)
	case "shell", "cache_clear":
		// Explorer shell notification and thumbnail-cache clearing only
		// exist on Windows; elsewhere this is a logged no-op.
		t.logger.Warn("thumbnails: refresh mode unsupported on this platform",
			"mode", t.mode, "os", runtime.GOOS)
	default:
		t.logger.Warn("thumbnails: unknown refresh mode", "mode", t.mode)
	}
}

// refreshByTouch bumps every target's timestamps so thumbnailers re-read
// the files.
func (t *ThumbnailRefresher) refreshByTouch(processed []FileRecord) {
	now := time.Now()
	touched := 0

	for i := range processed {
		target := processed[i].TargetPath
		if target == "" {
			continue
		}

		if err := os.Chtimes(target, now, now); err != nil {
			t.logger.Debug("thumbnails: touch failed", "target", target, "error", err)
			continue
		}

		touched++
	}

	t.logger.Info("thumbnails: touched targets", "count", touched)
}

// DeleteSources removes the original files of successfully copied records.
// Only meaningful after a copy run; the caller gates it behind an explicit
// flag. A source is deleted only when its recorded target still exists.
// Best-effort: failures are counted, not propagated.
func DeleteSources(processed []FileRecord, logger *slog.Logger) (deleted, failed int) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	for i := range processed {
		rec := &processed[i]
		if rec.Operation != OpCopy || rec.TargetPath == "" {
			continue
		}

		if _, err := os.Stat(rec.TargetPath); err != nil {
			continue
		}

		if _, err := os.Stat(rec.FullPath); err != nil {
			continue
		}

		if err := os.Remove(rec.FullPath); err != nil {
			failed++

			logger.Warn("delete-source: failed", "source", rec.FullPath, "error", err)

			continue
		}

		deleted++
	}

	logger.Info("delete-source: complete", "deleted", deleted, "failed", failed)

	return deleted, failed
}
