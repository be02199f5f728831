//go:build !linux && !darwin && !windows

package pipeline

import (
	"io/fs"
	"time"
)

// changeTime falls back to the modification time on platforms without a
// known change/creation time source.
func changeTime(info fs.FileInfo) time.Time {
	return info.ModTime()
}
