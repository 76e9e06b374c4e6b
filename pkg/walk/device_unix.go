//go:build !windows

package walk

import (
	"os"
	"syscall"
)

// deviceOf returns path's device id for the one-filesystem check (§4.5). The
// second return is false when the device id could not be determined, in
// which case callers must not treat it as a mismatch.
func deviceOf(path string) (uint64, bool) {
	fi, err := os.Lstat(path)
	if err != nil {
		return 0, false
	}
	st, ok := fi.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, false
	}
	return uint64(st.Dev), true
}
