//go:build windows

package pipeline

import (
	"io/fs"
	"syscall"
	"time"
)

// changeTime returns the file creation time on Windows.
func changeTime(info fs.FileInfo) time.Time {
	if st, ok := info.Sys().(*syscall.Win32FileAttributeData); ok {
		return time.Unix(0, st.CreationTime.Nanoseconds())
	}

	return info.ModTime()
}
