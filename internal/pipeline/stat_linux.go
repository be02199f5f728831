//go:build linux

package pipeline

import (
	"io/fs"
	"syscall"
	"time"
)

// changeTime returns the inode change time. Linux has no portable creation
// time through os.FileInfo, so ctime is the closest analogue for
// ctime-based ordering.
func changeTime(info fs.FileInfo) time.Time {
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		return time.Unix(st.Ctim.Sec, st.Ctim.Nsec)
	}

	return info.ModTime()
}
