//go:build linux

package copier

import "golang.org/x/sys/unix"

// adviseSequential tells the kernel the whole source is read front to back.
func adviseSequential(src Source) error {
	return unix.Fadvise(int(src.Fd()), 0, 0, unix.FADV_SEQUENTIAL)
}
