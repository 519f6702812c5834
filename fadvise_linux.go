//go:build linux

package fleece

import "golang.org/x/sys/unix"

// adviseRandom hints to the kernel that the mapped file will be accessed
// by pointer-chasing rather than sequential scan, which is the Reader's
// access pattern: every Value read can jump to an arbitrary backward
// pointer target. Best-effort: errors are silently ignored.
func adviseRandom(fd int, offset, length int64) {
	_ = unix.Fadvise(fd, offset, length, unix.FADV_RANDOM)
}
