//go:build linux || darwin

package bundler

import (
	"os"

	"golang.org/x/sys/unix"
)

// MmapExecutable memory-maps the running executable at path read-only,
// the mechanism spec.md §4.6/§6 specifies for no-argument startup
// footer detection ("memory-maps the host executable, locates the
// trailing footer"). The returned slice must be released with Unmap.
func MmapExecutable(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size() == 0 {
		return nil, nil
	}
	data, err := unix.Mmap(int(f.Fd()), 0, int(info.Size()), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Unmap releases a slice returned by MmapExecutable.
func Unmap(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	return unix.Munmap(data)
}
